package quote

import "strings"

// futuSuffix maps Futu market prefixes to Yahoo suffixes.
var futuSuffix = map[string]string{
	"US": "",
	"HK": ".HK",
	"SH": ".SS",
	"SZ": ".SZ",
}

// NormalizeSymbol converts supported spellings to Yahoo format:
// AAPL and US.AAPL -> AAPL, HK.0700 and 0700.HK -> 0700.HK,
// SH.600519 -> 600519.SS.
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !strings.Contains(symbol, ".") {
		return symbol
	}
	prefix, rest, _ := strings.Cut(symbol, ".")
	if suffix, ok := futuSuffix[prefix]; ok {
		return rest + suffix
	}
	return symbol
}
