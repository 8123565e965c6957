package datasource

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006/01/02",
	"20060102",
}

// parseDate accepts the common date layouts of daily price files and returns UTC.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeDataParseFailed, "unrecognized date %q", value)
}

// SymbolFromPath returns the file name without extension, e.g. data/AAPL.csv -> AAPL.
func SymbolFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var missing []string

	if !present["date"] && !present["time"] {
		missing = append(missing, "date")
	}

	for _, name := range requiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	return missing
}

// groupBySymbol builds one validated series per symbol, in symbol order.
func groupBySymbol(fallback string, symbols []string, bars []types.PriceBar) ([]types.PriceSeries, error) {
	grouped := make(map[string][]types.PriceBar)

	for i, bar := range bars {
		symbol := fallback
		if i < len(symbols) && symbols[i] != "" {
			symbol = symbols[i]
		}

		grouped[symbol] = append(grouped[symbol], bar)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}

	sort.Strings(names)

	result := make([]types.PriceSeries, 0, len(names))

	for _, name := range names {
		series, err := types.NewPriceSeries(name, grouped[name])
		if err != nil {
			return nil, err
		}

		result = append(result, series)
	}

	return result, nil
}
