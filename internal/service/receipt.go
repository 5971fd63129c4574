package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/core"
)

// ReceiptGenerator renders a PDF receipt for a paid order and stores it
// under the configured receipts directory.
type ReceiptGenerator struct {
	dir    string
	logger *zap.Logger
}

func NewReceiptGenerator(dir string, logger *zap.Logger) *ReceiptGenerator {
	return &ReceiptGenerator{
		dir:    dir,
		logger: logger,
	}
}

// Generate writes the receipt PDF to disk and returns its path.
func (g *ReceiptGenerator) Generate(business *core.Business, order *core.Order, customer *core.Customer) (string, error) {
	if order == nil {
		return "", fmt.Errorf("cannot generate receipt for nil order")
	}

	data, err := g.render(business, order, customer)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create receipts directory: %w", err)
	}

	filename := fmt.Sprintf("receipt_%s_%s.pdf", shortOrderRef(order.ID), time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(g.dir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write receipt file: %w", err)
	}

	g.logger.Info("receipt generated",
		zap.String("order_id", order.ID),
		zap.String("path", path),
	)
	return path, nil
}

func (g *ReceiptGenerator) render(business *core.Business, order *core.Order, customer *core.Customer) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	businessName := "Receipt"
	if business != nil && business.Name != "" {
		businessName = business.Name
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, businessName, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 7, "Payment Receipt", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order: #%s", shortOrderRef(order.ID)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Customer: %s", safeReceiptValue(customerName(customer))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Order Placed: %s", order.CreatedAt.UTC().Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated At: %s", time.Now().UTC().Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Items", "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(order.Items) == 0 {
		pdf.CellFormat(0, 6, "- No items recorded", "1", 1, "L", false, 0, "")
	} else {
		for _, item := range order.Items {
			lineTotal := item.PriceAtTime * float64(item.Quantity)
			itemLine := fmt.Sprintf(
				"%dx %s @ %s = %s",
				item.Quantity,
				safeReceiptValue(item.ProductName),
				formatAmount(item.PriceAtTime),
				formatAmount(lineTotal),
			)
			pdf.CellFormat(0, 6, itemLine, "1", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 7, "Total Paid", "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, formatAmount(order.TotalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Thank you for your order.", "", 1, "L", false, 0, "")

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}
	return buffer.Bytes(), nil
}

// formatAmount renders a money value for PDF output. The rupee symbol is
// outside gofpdf's core font encoding, so receipts use the "Rs." prefix.
func formatAmount(amount float64) string {
	return fmt.Sprintf("Rs. %.2f", amount)
}

func customerName(customer *core.Customer) string {
	if customer == nil {
		return ""
	}
	return customer.DisplayName
}

func safeReceiptValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func shortOrderRef(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
