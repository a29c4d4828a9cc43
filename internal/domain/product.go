package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	Entity
	ProductName     string          `json:"productName"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	StockAvailable  int             `json:"stockAvailable"`
	ProductImageURL string          `json:"productImageUrl"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.ProductName) == "" {
		return errors.New("product name is required")
	}
	if p.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if p.StockAvailable < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}
