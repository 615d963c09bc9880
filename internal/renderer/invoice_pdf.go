// Package renderer produces the human-readable PDF documents attached to
// invoices and payment receipts.  Rendering is strictly best-effort: it
// runs after the owning database transaction has committed, and a failure
// here degrades to "no document attached" rather than unwinding the write.
package renderer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

const invoicesDir = "invoices"

// RenderInvoicePDF writes <invoiceNumber>.pdf under invoices/ and returns
// the public path recorded on the invoice row.
func RenderInvoicePDF(inv model.Invoice, items []model.InvoiceItem, customer model.User, showroom model.Showroom) (string, error) {
	if err := os.MkdirAll(invoicesDir, 0o755); err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "PARK PLAZA SERVICE INVOICE")
	pdf.Ln(16)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice No: %s", inv.InvoiceNumber))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Date: %s", inv.GeneratedAt.Format("02 Jan 2006")))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Billed To: %s (%s)", customer.Name, customer.Email))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Showroom: %s, %s, %s", showroom.Name, showroom.Address, showroom.City))
	pdf.Ln(10)

	// Line items
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, it := range items {
		pdf.CellFormat(90, 8, it.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// Cost breakdown
	breakdown := []struct {
		label string
		value float64
	}{
		{"Parts", inv.PartsCost},
		{"Labor", inv.LaborCost},
		{"Tax", inv.Tax},
		{"Discount", -inv.Discount},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range breakdown {
		pdf.CellFormat(145, 7, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", row.value), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(145, 9, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 9, fmt.Sprintf("%.2f", inv.TotalAmount), "T", 1, "R", false, 0, "")

	if inv.Notes != nil && *inv.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "Notes: "+*inv.Notes, "", "L", false)
	}

	path := filepath.Join(invoicesDir, inv.InvoiceNumber+".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return "/" + path, nil
}
