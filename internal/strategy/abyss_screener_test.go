package strategy

import (
	"testing"
	"time"

	"abyss-screener/internal/model"
	"abyss-screener/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func hashSignal() *model.StockSignal {
	return &model.StockSignal{
		StockCode:   "BBCA",
		Exchange:    "IDX",
		State:       "BUY",
		Timestamp:   time.Unix(1700000000, 0).In(utils.GetWibTimeLocation()),
		MarketPrice: 9150,
	}
}

func TestGenerateHashIdentifierDeterministic(t *testing.T) {
	s := &AbyssScreenerStrategy{}

	first := s.GenerateHashIdentifier(hashSignal())
	second := s.GenerateHashIdentifier(hashSignal())

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "sha256 hex digest")
}

func TestGenerateHashIdentifierChangesPerField(t *testing.T) {
	s := &AbyssScreenerStrategy{}
	base := s.GenerateHashIdentifier(hashSignal())

	tests := []struct {
		name   string
		mutate func(sig *model.StockSignal)
	}{
		{name: "different stock", mutate: func(sig *model.StockSignal) { sig.StockCode = "BBRI" }},
		{name: "different exchange", mutate: func(sig *model.StockSignal) { sig.Exchange = "NASDAQ" }},
		{name: "different day", mutate: func(sig *model.StockSignal) { sig.Timestamp = sig.Timestamp.Add(24 * time.Hour) }},
		{name: "different state", mutate: func(sig *model.StockSignal) { sig.State = "PRE" }},
		{name: "different price", mutate: func(sig *model.StockSignal) { sig.MarketPrice = 9175 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := hashSignal()
			tt.mutate(sig)

			assert.NotEqual(t, base, s.GenerateHashIdentifier(sig))
		})
	}
}

// Only the identity fields feed the hash. Database bookkeeping and the time
// zone representation of the same instant must not change it, otherwise a
// reloaded row would stop matching its own sent-signal cache key.
func TestGenerateHashIdentifierIgnoresBookkeeping(t *testing.T) {
	s := &AbyssScreenerStrategy{}
	base := s.GenerateHashIdentifier(hashSignal())

	sig := hashSignal()
	sig.ID = 42
	sig.HashIdentifier = "stale"
	sig.Timestamp = sig.Timestamp.In(time.UTC)
	sig.CreatedAt = time.Now()
	sig.UpdatedAt = time.Now()

	assert.Equal(t, base, s.GenerateHashIdentifier(sig))
}
