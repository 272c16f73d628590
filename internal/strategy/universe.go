package strategy

import (
	"context"

	"abyss-screener/internal/dto"
	"abyss-screener/internal/repository"
)

// resolveUniverse merges the configured default universe, optional market
// scans and explicitly requested stocks, deduplicated by symbol. Scheduled
// jobs and one-off requests resolve their symbol set the same way.
func resolveUniverse(
	ctx context.Context,
	systemParamRepo repository.SystemParamRepository,
	universeRepo repository.UniverseRepository,
	markets []string,
	additional []dto.StockInfo,
) ([]dto.StockInfo, error) {
	seen := map[string]bool{}
	var stocks []dto.StockInfo

	add := func(list []dto.StockInfo) {
		for _, stock := range list {
			if stock.StockCode == "" || seen[stock.Symbol()] {
				continue
			}
			seen[stock.Symbol()] = true
			stocks = append(stocks, stock)
		}
	}

	add(additional)

	defaults, err := systemParamRepo.GetDefaultUniverse(ctx)
	if err != nil {
		return nil, err
	}
	add(defaults)

	for _, market := range markets {
		scanned, err := universeRepo.Scan(ctx, market)
		if err != nil {
			return nil, err
		}
		add(scanned)
	}

	return stocks, nil
}
