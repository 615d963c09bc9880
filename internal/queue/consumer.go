package queue

// This file contains the background consumer that listens to the
// payment.settled queue and writes structured lines to logs/payments.log,
// giving operators a broker-backed audit trail that survives API restarts.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartPaymentConsumer connects to RabbitMQ, declares the payment.settled
// queue (durable), and starts consuming messages.  Each message is appended
// to logs/payments.log in a single-line, human-friendly format.  The
// function runs a reconnect loop with backoff and keeps running across
// broker outages, logging processing errors and rejecting the offending
// message so the server continues operating.
func StartPaymentConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("payment-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("payment-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("payment-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(paymentQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(paymentQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("payment-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev PaymentSettledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "payments.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	booking := "-"
	if ev.BookingID != nil {
		booking = fmt.Sprintf("%d", *ev.BookingID)
	}

	line := fmt.Sprintf("[%s] Payment settled | payment_id=%d | invoice=%s | booking_id=%s | user_id=%d | showroom_id=%d | amount=%.2f | method=%s | txn=%s\n",
		ev.SettledAt, ev.PaymentID, ev.InvoiceNumber, booking, ev.UserID, ev.ShowroomID, ev.Amount, ev.Method, ev.TransactionID)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
