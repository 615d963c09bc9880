package renderer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

const receiptsDir = "receipts"

// RenderReceiptPDF writes RCPT-<transactionID>.pdf under receipts/ and
// returns the public path recorded on the payment row.  A QR of the
// transaction id is embedded so counter staff can pull up the payment by
// scanning a printed receipt.
func RenderReceiptPDF(p model.Payment, inv model.Invoice, customer model.User, showroom model.Showroom) (string, error) {
	if p.TransactionID == nil {
		return "", fmt.Errorf("payment %d has no transaction id", p.ID)
	}
	if err := os.MkdirAll(receiptsDir, 0o755); err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "PARK PLAZA PAYMENT RECEIPT")
	pdf.Ln(16)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "PAYMENT SUMMARY")
	pdf.Ln(10)
	pdf.SetX(20)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Transaction: %s", *p.TransactionID))
	pdf.Ln(6)
	pdf.SetX(20)
	pdf.Cell(0, 7, fmt.Sprintf("Invoice: %s", inv.InvoiceNumber))
	pdf.Ln(6)
	pdf.SetX(20)
	pdf.Cell(0, 7, fmt.Sprintf("Method: %s", p.PaymentMethod))
	pdf.Ln(6)
	pdf.SetX(20)
	pdf.Cell(0, 7, fmt.Sprintf("Amount: %.2f", p.Amount))
	if p.PaymentDate != nil {
		pdf.Ln(6)
		pdf.SetX(20)
		pdf.Cell(0, 7, fmt.Sprintf("Paid On: %s", p.PaymentDate.Format("02 Jan 2006 15:04")))
	}

	// QR of the transaction id next to the summary box.
	qrBytes, err := qrcode.Encode(*p.TransactionID, qrcode.Medium, 256)
	if err == nil {
		pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qrBytes))
		pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")
	}

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Customer: %s (%s)", customer.Name, customer.Email))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Showroom: %s, %s", showroom.Name, showroom.City))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Thank you for choosing Park Plaza.")

	path := filepath.Join(receiptsDir, fmt.Sprintf("RCPT-%s.pdf", *p.TransactionID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return "/" + path, nil
}
