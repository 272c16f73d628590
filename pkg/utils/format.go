package utils

import (
	"fmt"
	"strings"

	"abyss-screener/pkg/common"
)

// FormatPrice renders a price for display following the exchange convention.
// IDX quotes in whole rupiah with dot thousand separators, US exchanges keep
// two decimals with comma separators.
func FormatPrice(price float64, exchange string) string {
	if exchange == common.EXCHANGE_IDX {
		return groupDigits(fmt.Sprintf("%.0f", price), ".")
	}

	s := fmt.Sprintf("%.2f", price)
	parts := strings.SplitN(s, ".", 2)
	return groupDigits(parts[0], ",") + "." + parts[1]
}

// FormatChange returns the percentage move from oldVal to newVal, e.g. "+5.00%".
func FormatChange(oldVal float64, newVal float64) string {
	if oldVal == 0 {
		return "0.00%"
	}
	change := (newVal - oldVal) / oldVal * 100
	return fmt.Sprintf("%+.2f%%", change)
}

// FormatChangeWithIcon prefixes FormatChange with a green or red marker.
func FormatChangeWithIcon(oldVal float64, newVal float64) string {
	change := FormatChange(oldVal, newVal)
	if newVal >= oldVal {
		return fmt.Sprintf("🟢 %s", change)
	}
	return fmt.Sprintf("🔴 %s", change)
}

// ParseStockSymbol splits "EXCHANGE:CODE" into its parts. A bare code is
// assumed to live on IDX. The exchange must be one of the supported markets.
func ParseStockSymbol(symbol string) (string, string, error) {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return "", "", fmt.Errorf("empty stock symbol")
	}

	exchange := common.EXCHANGE_IDX
	stockCode := symbol
	if strings.Contains(symbol, ":") {
		parts := strings.SplitN(symbol, ":", 2)
		exchange = parts[0]
		stockCode = parts[1]
	}

	if stockCode == "" {
		return "", "", fmt.Errorf("invalid stock symbol %q", symbol)
	}
	if !ContainsString(common.GetExchangeList(), exchange) {
		return "", "", fmt.Errorf("unsupported exchange %q", exchange)
	}

	return stockCode, exchange, nil
}

func groupDigits(digits string, sep string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteString(sep)
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
