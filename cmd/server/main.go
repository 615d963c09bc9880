package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/parkplaza/parkplaza-backend/internal/config"
	"github.com/parkplaza/parkplaza-backend/internal/database"
	"github.com/parkplaza/parkplaza-backend/internal/gateway"
	"github.com/parkplaza/parkplaza-backend/internal/handler"
	"github.com/parkplaza/parkplaza-backend/internal/mailer"
	"github.com/parkplaza/parkplaza-backend/internal/queue"
	"github.com/parkplaza/parkplaza-backend/internal/repository"
	"github.com/parkplaza/parkplaza-backend/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and directory cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	showrooms := repository.NewShowroomRepo(db)
	bookings := repository.NewBookingRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	payments := repository.NewPaymentRepo(db)

	mail := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.ClientURL)
	razorpay := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	notifier := handler.NewSettlementNotifier(payments, invoices, users, showrooms)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens, mail),
		Showroom: handler.NewShowroomHandler(showrooms, rdb),
		Booking:  handler.NewBookingHandler(bookings, showrooms, invoices),
		Invoice:  handler.NewInvoiceHandler(invoices),
		Payment:  handler.NewPaymentHandler(cfg, payments, invoices, users, razorpay, notifier),
		Employee: handler.NewEmployeeHandler(users, bookings, invoices, payments, notifier),
		Admin:    handler.NewAdminHandler(cfg, users, showrooms, invoices, payments, mail, notifier),
	}

	// Background consumer mirroring settled payments into logs/payments.log.
	go func() {
		if err := queue.StartPaymentConsumer(); err != nil {
			log.Printf("payment consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.Register(e, cfg, rlCfg, rdb, h)

	// Rendered documents are served back as static files.
	e.Static("/invoices", "invoices")
	e.Static("/receipts", "receipts")

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
