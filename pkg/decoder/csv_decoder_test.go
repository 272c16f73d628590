package decoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(t *testing.T) *CSVCandleDecoder {
	t.Helper()
	return NewCSVCandleDecoder(nil)
}

func TestCSVCandleDecoder_Decode(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLen   int
		wantErr   bool
		wantFirst struct {
			ts     int64
			close  float64
			volume int64
		}
	}{
		{
			name: "plain daily export",
			input: "date,open,high,low,close,volume\n" +
				"2024-01-02,100,101,99,100.5,150000\n" +
				"2024-01-03,100.5,102,100,101.5,175000\n",
			wantLen: 2,
			wantFirst: struct {
				ts     int64
				close  float64
				volume int64
			}{ts: 1704153600, close: 100.5, volume: 150000},
		},
		{
			name: "yahoo finance layout with adj close",
			input: "Date,Open,High,Low,Close,Adj Close,Volume\n" +
				"2024-01-02,100,101,99,100.5,98.2,150000\n",
			wantLen: 1,
			wantFirst: struct {
				ts     int64
				close  float64
				volume int64
			}{ts: 1704153600, close: 100.5, volume: 150000},
		},
		{
			name: "unix timestamps",
			input: "timestamp,open,high,low,close,volume\n" +
				"1704153600,100,101,99,100.5,150000\n",
			wantLen: 1,
			wantFirst: struct {
				ts     int64
				close  float64
				volume int64
			}{ts: 1704153600, close: 100.5, volume: 150000},
		},
		{
			name: "malformed rows are skipped",
			input: "date,open,high,low,close,volume\n" +
				"2024-01-02,100,101,99,100.5,150000\n" +
				"2024-01-03,null,null,null,null,null\n" +
				"2024-01-04,101,103,100,102.5,190000\n",
			wantLen: 2,
			wantFirst: struct {
				ts     int64
				close  float64
				volume int64
			}{ts: 1704153600, close: 100.5, volume: 150000},
		},
		{
			name: "rows sorted by timestamp",
			input: "date,open,high,low,close,volume\n" +
				"2024-01-03,100.5,102,100,101.5,175000\n" +
				"2024-01-02,100,101,99,100.5,150000\n",
			wantLen: 2,
			wantFirst: struct {
				ts     int64
				close  float64
				volume int64
			}{ts: 1704153600, close: 100.5, volume: 150000},
		},
		{
			name:    "missing volume column",
			input:   "date,open,high,low,close\n2024-01-02,100,101,99,100.5\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDecoder(t)
			series, err := d.Decode(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, series, tt.wantLen)
			assert.Equal(t, tt.wantFirst.ts, series[0].Timestamp)
			assert.Equal(t, tt.wantFirst.close, series[0].Close)
			assert.Equal(t, tt.wantFirst.volume, series[0].Volume)
		})
	}
}

func TestCSVCandleDecoder_DecodeEmptyBody(t *testing.T) {
	d := newTestDecoder(t)
	_, err := d.Decode(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "date only", raw: "2024-01-02", want: 1704153600},
		{name: "datetime with offset", raw: "2024-01-02 07:00:00+07:00", want: 1704153600},
		{name: "unix seconds", raw: "1704153600", want: 1704153600},
		{name: "unix milliseconds", raw: "1704153600000", want: 1704153600},
		{name: "garbage", raw: "not-a-date", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
