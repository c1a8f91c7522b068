package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/invoiceflow/invoiceflow/internal/types"
)

var oneHundred = decimal.NewFromInt(100)

// InvoiceLine represents a single line in an invoice. Lines are owned
// exclusively by their parent invoice and have no independent lifecycle;
// insertion order is significant and captured by Sequence.
type InvoiceLine struct {
	ID                 string          `json:"id"`
	InvoiceID          string          `json:"invoice_id"`
	Sequence           int             `json:"sequence"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	AccountID          string          `json:"account_id"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	types.BaseModel
}

// Total returns (quantity * unit_price) * (1 - discount/100) rounded to the
// currency's minor-unit precision
func (l *InvoiceLine) Total(currency string) decimal.Decimal {
	gross := l.Quantity.Mul(l.UnitPrice)
	discounted := gross.Mul(decimal.NewFromInt(1).Sub(l.DiscountPercentage.Div(oneHundred)))
	return discounted.Round(types.GetCurrencyPrecision(currency))
}

// TaxAmount returns the tax due on the discounted line total
func (l *InvoiceLine) TaxAmount(currency string) decimal.Decimal {
	return l.Total(currency).Mul(l.TaxRate.Div(oneHundred)).Round(types.GetCurrencyPrecision(currency))
}

func (l *InvoiceLine) Validate() error {
	if l.Quantity.IsNegative() {
		return NewValidationError("quantity", "must be non negative")
	}

	if l.UnitPrice.IsNegative() {
		return NewValidationError("unit_price", "must be non negative")
	}

	if l.DiscountPercentage.IsNegative() || l.DiscountPercentage.GreaterThan(oneHundred) {
		return NewValidationError("discount_percentage", "must be between 0 and 100")
	}

	if l.TaxRate.IsNegative() {
		return NewValidationError("tax_rate", "must be non negative")
	}

	return nil
}
