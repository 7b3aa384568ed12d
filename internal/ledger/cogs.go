package ledger

import (
	"github.com/shopspring/decimal"

	"bookkeeper/pkg/models"
)

// COGSLine is the cost contribution of one invoice item
type COGSLine struct {
	ItemID    string
	ProductID string // Empty when the item is not linked
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Cost      decimal.Decimal
	Currency  string
	Matched   bool // False when the product is unlinked or no longer exists
}

// COGSResult is the cost of goods sold of an invoice.
//
// Costs are summed as-is whatever their currency. MixedCurrencyWarning is set
// when matched products are costed in more than one currency, in which case
// Total is not meaningful in any single currency.
type COGSResult struct {
	InvoiceID            string
	Total                decimal.Decimal
	Currency             string // Cost currency of the first matched product
	MixedCurrencyWarning bool
	UnmatchedItems       int
	Lines                []COGSLine
}

// CalculateInvoiceCOGS sums product cost * quantity over the invoice items.
// Products are looked up in the supplied slice only; items whose product is
// missing contribute zero. It is pure and deterministic.
func CalculateInvoiceCOGS(invoice *models.Invoice, products []models.Product) (COGSResult, error) {
	const op = "CalculateInvoiceCOGS"

	for _, item := range invoice.Items {
		if item.Quantity.IsNegative() {
			return COGSResult{}, NewLedgerError(op,
				NewValidationError("quantity", item.Quantity.String(), "must not be negative"),
				"item "+item.ID)
		}
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	result := COGSResult{
		InvoiceID: invoice.ID,
		Total:     decimal.Zero,
		Lines:     make([]COGSLine, 0, len(invoice.Items)),
	}
	matched := 0
	for _, item := range invoice.Items {
		line := COGSLine{
			ItemID:   item.ID,
			Quantity: item.Quantity,
			UnitCost: decimal.Zero,
			Cost:     decimal.Zero,
		}
		if item.ProductID != nil {
			line.ProductID = *item.ProductID
		}

		product, ok := byID[line.ProductID]
		if line.ProductID == "" || !ok {
			result.UnmatchedItems++
			result.Lines = append(result.Lines, line)
			continue
		}

		if product.Cost.IsNegative() {
			return COGSResult{}, NewLedgerError(op,
				NewValidationError("cost", product.Cost.String(), "must not be negative"),
				"product "+product.ID)
		}

		line.Matched = true
		line.UnitCost = product.Cost
		line.Currency = NormalizeCurrency(product.CostCurrency)
		line.Cost = product.Cost.Mul(item.Quantity)
		result.Total = result.Total.Add(line.Cost)

		if matched == 0 {
			result.Currency = line.Currency
		} else if line.Currency != result.Currency {
			result.MixedCurrencyWarning = true
		}
		matched++
		result.Lines = append(result.Lines, line)
	}

	return result, nil
}
