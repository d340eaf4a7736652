// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"storefront/models"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

type Line struct {
	Name      string
	UnitPrice int64
	Quantity  uint
}

func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

type Invoice struct {
	StoreName      string
	OrderNumber    string
	Date           time.Time
	Status         string
	Name           string
	Address        string
	Phone          string
	ShippingMethod string
	Currency       string
	Lines          []Line
	Total          int64
}

func FromOrder(storeName string, order models.Order) Invoice {
	inv := Invoice{
		StoreName:      storeName,
		OrderNumber:    order.OrderNumber,
		Date:           order.CreatedAt,
		Status:         order.Status,
		Name:           order.Name,
		Address:        order.Address,
		Phone:          order.Phone,
		ShippingMethod: order.ShippingMethod,
		Currency:       order.Currency,
		Total:          order.Total,
	}
	for _, item := range order.OrderItems {
		inv.Lines = append(inv.Lines, Line{
			Name:      item.ProductName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return inv
}

// 金額以最小貨幣單位儲存，固定顯示兩位小數
func FormatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, strings.ToUpper(currency))
}

// 沒有設定字型時使用內建的Helvetica，只支援cp1252字元，其餘字元無法正確顯示
type Renderer struct {
	font []byte
}

var ErrUnsupportedFont = errors.New("字型檔不是TrueType格式")

// fontFile為空時使用內建字型；中文等字元需要指定含該字元的TrueType字型
func NewRenderer(fontFile string) (*Renderer, error) {
	if fontFile == "" {
		return &Renderer{}, nil
	}

	font, err := os.ReadFile(fontFile)
	if err != nil {
		return nil, errors.Wrap(err, "讀取字型檔失敗")
	}
	if !isTrueType(font) {
		return nil, errors.Wrap(ErrUnsupportedFont, fontFile)
	}
	return &Renderer{font: font}, nil
}

func isTrueType(font []byte) bool {
	return len(font) >= 4 && (bytes.Equal(font[:4], []byte{0, 1, 0, 0}) || bytes.Equal(font[:4], []byte("true")))
}

func (r *Renderer) Render(w io.Writer, inv Invoice) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.font != nil {
		family = "unicode"
		pdf.AddUTF8FontFromBytes(family, "", r.font)
		pdf.AddUTF8FontFromBytes(family, "B", r.font)
		tr = func(text string) string { return text }
	}
	pdf.SetTitle("Invoice "+inv.OrderNumber, true)
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.CellFormat(0, 10, tr(inv.StoreName), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 7, "Invoice "+inv.OrderNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Date: "+inv.Date.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Status: "+inv.Status, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "B", 11)
	pdf.CellFormat(0, 7, "Ship to", "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	for _, text := range []string{inv.Name, inv.Address, inv.Phone, "Shipping: " + inv.ShippingMethod} {
		pdf.CellFormat(0, 6, tr(text), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{90, 35, 20, 45}
	pdf.SetFont(family, "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range []string{"Item", "Unit price", "Qty", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, header, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 10)
	for _, line := range inv.Lines {
		pdf.CellFormat(widths[0], 7, tr(line.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, FormatMoney(line.UnitPrice, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, FormatMoney(line.Subtotal(), inv.Currency), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont(family, "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, FormatMoney(inv.Total, inv.Currency), "1", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "產生PDF失敗")
	}
	return nil
}
