package types

import "strings"

// currencyPrecision maps 3 digit ISO currency codes to their minor-unit
// precision where it differs from the default of 2
var currencyPrecision = map[string]int32{
	"jpy": 0,
	"krw": 0,
	"vnd": 0,
	"clp": 0,
	"bhd": 3,
	"kwd": 3,
	"omr": 3,
	"jod": 3,
	"tnd": 3,
}

// GetCurrencyPrecision returns the minor-unit precision for a currency code.
// Unknown codes fall back to 2 decimal places.
func GetCurrencyPrecision(code string) int32 {
	if precision, ok := currencyPrecision[strings.ToLower(code)]; ok {
		return precision
	}
	return 2
}
