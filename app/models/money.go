package models

import "github.com/shopspring/decimal"

func init() {
	// Prices and quantities go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}
