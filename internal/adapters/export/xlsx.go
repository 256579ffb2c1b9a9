// internal/adapters/export/xlsx.go
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

const (
	SheetProducts = "Products"
	SheetSales    = "Sales"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	productHeaders = []string{"ID", "Name", "Price", "Quantity", "Supplier", "Supplier Phone", "Created At", "Updated At"}
	saleHeaders    = []string{"ID", "Product ID", "Name", "Price", "Quantity", "Total", "Supplier", "Supplier Phone", "Created At"}
)

// Snapshot is the content of one export
type Snapshot struct {
	Products []domain.Product
	Sales    []domain.Sale
}

// Collect reads both collections through the service
func Collect(ctx context.Context, service ports.InventoryService) (*Snapshot, error) {
	snap := &Snapshot{}

	products, err := service.Query(ctx, string(domain.CollectionProducts), ports.QueryOptions{Sort: domain.Sort{Field: "id"}})
	if err != nil {
		return nil, err
	}
	for entity, err := range products {
		if err != nil {
			return nil, fmt.Errorf("failed to read products: %w", err)
		}
		if p, ok := entity.(domain.Product); ok {
			snap.Products = append(snap.Products, p)
		}
	}

	sales, err := service.Query(ctx, string(domain.CollectionSales), ports.QueryOptions{Sort: domain.Sort{Field: "id"}})
	if err != nil {
		return nil, err
	}
	for entity, err := range sales {
		if err != nil {
			return nil, fmt.Errorf("failed to read sales: %w", err)
		}
		if s, ok := entity.(domain.Sale); ok {
			snap.Sales = append(snap.Sales, s)
		}
	}

	return snap, nil
}

// FormatPrice renders a price stored in minor units with exponent decimals
func FormatPrice(minor int64, exponent int32) string {
	return decimal.New(minor, -exponent).StringFixed(exponent)
}

// WriteWorkbook writes the snapshot as a workbook with a Products and a
// Sales sheet. Prices are stored in minor units and rendered with
// exponent decimals.
func WriteWorkbook(w io.Writer, snap *Snapshot, exponent int32) error {
	file := xlsx.NewFile()

	products, err := file.AddSheet(SheetProducts)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeader(products, productHeaders)
	for _, p := range snap.Products {
		row := products.AddRow()
		row.AddCell().SetInt64(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(FormatPrice(p.Price, exponent))
		row.AddCell().SetInt64(p.Quantity)
		row.AddCell().SetString(p.Supplier.DisplayName())
		row.AddCell().SetString(p.SupplierPhone)
		row.AddCell().SetString(formatTime(p.CreatedAt))
		row.AddCell().SetString(formatTime(p.UpdatedAt))
	}

	sales, err := file.AddSheet(SheetSales)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeader(sales, saleHeaders)
	for _, s := range snap.Sales {
		row := sales.AddRow()
		row.AddCell().SetInt64(s.ID)
		productID := row.AddCell()
		if s.ProductID != nil {
			productID.SetInt64(*s.ProductID)
		}
		row.AddCell().SetString(s.ProductName)
		row.AddCell().SetString(FormatPrice(s.Price, exponent))
		row.AddCell().SetInt64(s.Quantity)
		row.AddCell().SetString(FormatPrice(s.Price*s.Quantity, exponent))
		row.AddCell().SetString(s.Supplier.DisplayName())
		row.AddCell().SetString(s.SupplierPhone)
		row.AddCell().SetString(formatTime(s.CreatedAt))
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	if _, err := buffer.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, header := range headers {
		cell := row.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
	sheet.SetColWidth(1, len(headers), 18)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
