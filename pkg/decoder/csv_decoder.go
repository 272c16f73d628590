package decoder

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"abyss-screener/internal/screener"
	"abyss-screener/pkg/logger"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// CSVCandleDecoder parses daily OHLCV exports into a candle series. It accepts
// the column layouts produced by Yahoo Finance downloads and by our own
// snapshot dumps, matching columns by header name.
type CSVCandleDecoder struct {
	Logger *logger.Logger
}

// NewCSVCandleDecoder creates a new CSVCandleDecoder instance
func NewCSVCandleDecoder(log *logger.Logger) *CSVCandleDecoder {
	return &CSVCandleDecoder{Logger: log}
}

// DecodeFile reads a CSV file from disk and decodes it into a series.
func (d *CSVCandleDecoder) DecodeFile(path string) (screener.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return d.Decode(bufio.NewReaderSize(f, 1<<20))
}

// Decode parses CSV data from r. The first record must be a header naming at
// least date (or timestamp), open, high, low, close and volume columns.
// Malformed rows are skipped, the remaining candles are returned sorted by
// timestamp ascending.
func (d *CSVCandleDecoder) Decode(r io.Reader) (screener.Series, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var series screener.Series
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}

		candle, ok := d.parseRow(rec, cols, line)
		if !ok {
			continue
		}
		series = append(series, candle)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp < series[j].Timestamp
	})
	return series, nil
}

type columnIndex struct {
	date   int
	open   int
	high   int
	low    int
	close  int
	volume int
}

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{date: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "timestamp", "time":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			// prefer the raw close over adj close when both are present
			if cols.close == -1 {
				cols.close = i
			}
		case "volume":
			cols.volume = i
		}
	}

	if cols.date == -1 || cols.open == -1 || cols.high == -1 || cols.low == -1 || cols.close == -1 || cols.volume == -1 {
		return cols, fmt.Errorf("CSV header is missing required columns: %v", header)
	}
	return cols, nil
}

func (d *CSVCandleDecoder) parseRow(rec []string, cols columnIndex, line int) (screener.Candle, bool) {
	ts, err := parseTimestamp(rec[cols.date])
	if err != nil {
		d.warnRow(line, "date", err)
		return screener.Candle{}, false
	}

	open, err := strconv.ParseFloat(rec[cols.open], 64)
	if err != nil {
		d.warnRow(line, "open", err)
		return screener.Candle{}, false
	}
	high, err := strconv.ParseFloat(rec[cols.high], 64)
	if err != nil {
		d.warnRow(line, "high", err)
		return screener.Candle{}, false
	}
	low, err := strconv.ParseFloat(rec[cols.low], 64)
	if err != nil {
		d.warnRow(line, "low", err)
		return screener.Candle{}, false
	}
	closep, err := strconv.ParseFloat(rec[cols.close], 64)
	if err != nil {
		d.warnRow(line, "close", err)
		return screener.Candle{}, false
	}
	volume, err := strconv.ParseFloat(rec[cols.volume], 64)
	if err != nil {
		d.warnRow(line, "volume", err)
		return screener.Candle{}, false
	}

	return screener.Candle{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closep,
		Volume:    int64(volume),
	}, true
}

func (d *CSVCandleDecoder) warnRow(line int, column string, err error) {
	if d.Logger == nil {
		return
	}
	d.Logger.Warn("Skipping malformed CSV row",
		logger.IntField("line", line),
		logger.StringField("column", column),
		logger.ErrorField(err),
	)
}

func parseTimestamp(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty date value")
	}

	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// values this large are millisecond timestamps
		if unix > 1e12 {
			unix /= 1000
		}
		return unix, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized date format: %s", raw)
}
