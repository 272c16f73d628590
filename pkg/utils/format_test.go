package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStockSymbol(t *testing.T) {
	type want struct {
		stockCode string
		exchange  string
	}
	tests := []struct {
		name    string
		symbol  string
		want    want
		wantErr bool
	}{
		{name: "bare code defaults to IDX", symbol: "BBCA", want: want{stockCode: "BBCA", exchange: "IDX"}},
		{name: "explicit exchange", symbol: "NASDAQ:AAPL", want: want{stockCode: "AAPL", exchange: "NASDAQ"}},
		{name: "lowercase input", symbol: "nyse:ko", want: want{stockCode: "KO", exchange: "NYSE"}},
		{name: "surrounding spaces", symbol: "  idx:antm ", want: want{stockCode: "ANTM", exchange: "IDX"}},
		{name: "empty symbol", symbol: "", wantErr: true},
		{name: "missing code", symbol: "IDX:", wantErr: true},
		{name: "unsupported exchange", symbol: "LSE:VOD", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stockCode, exchange, err := ParseStockSymbol(tt.symbol)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.stockCode, stockCode)
			assert.Equal(t, tt.want.exchange, exchange)
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		exchange string
		want     string
	}{
		{name: "idx whole rupiah", price: 9150, exchange: "IDX", want: "9.150"},
		{name: "idx millions", price: 1234567, exchange: "IDX", want: "1.234.567"},
		{name: "idx small", price: 950, exchange: "IDX", want: "950"},
		{name: "us two decimals", price: 1234.5, exchange: "NASDAQ", want: "1,234.50"},
		{name: "us sub dollar", price: 0.07, exchange: "NYSE", want: "0.07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPrice(tt.price, tt.exchange))
		})
	}
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+5.00%", FormatChange(100, 105))
	assert.Equal(t, "-2.50%", FormatChange(100, 97.5))
	assert.Equal(t, "0.00%", FormatChange(0, 50), "undefined move from zero stays flat")
}
