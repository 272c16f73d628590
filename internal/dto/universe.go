package dto

import "fmt"

// StockInfo identifies one listed symbol.
type StockInfo struct {
	StockCode string `json:"stock_code"`
	Exchange  string `json:"exchange"`
}

func (s StockInfo) Symbol() string {
	return fmt.Sprintf("%s:%s", s.Exchange, s.StockCode)
}

// UniverseScanRequest is the payload for the TradingView stock screener scan
// endpoint. Filters follow the scanner's {left, operation, right} triplets.
type UniverseScanRequest struct {
	Filter  []UniverseScanFilter   `json:"filter,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
	Markets []string               `json:"markets"`
	Columns []string               `json:"columns"`
	Sort    *UniverseScanSort      `json:"sort,omitempty"`
	Range   []int                  `json:"range,omitempty"`
}

type UniverseScanFilter struct {
	Left      string      `json:"left"`
	Operation string      `json:"operation"`
	Right     interface{} `json:"right"`
}

type UniverseScanSort struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

type UniverseScanResponse struct {
	TotalCount int               `json:"totalCount"`
	Data       []UniverseScanRow `json:"data"`
}

// UniverseScanRow carries "EXCHANGE:CODE" in s and the requested columns,
// in request order, in d.
type UniverseScanRow struct {
	Symbol string        `json:"s"`
	Data   []interface{} `json:"d"`
}
