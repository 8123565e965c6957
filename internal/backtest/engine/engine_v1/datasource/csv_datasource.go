package datasource

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// priceRow is one CSV line. Dates are parsed by hand since files mix layouts.
type priceRow struct {
	Date   string  `csv:"date"`
	Time   string  `csv:"time"`
	Symbol string  `csv:"symbol"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// CSVDataSource loads daily price files written as CSV with a header row.
type CSVDataSource struct {
	logger *logger.Logger
}

func NewCSVDataSource(log *logger.Logger) *CSVDataSource {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CSVDataSource{logger: log}
}

// Load implements DataSource.
func (c *CSVDataSource) Load(path string) ([]types.PriceSeries, error) {
	c.logger.Debug("Loading CSV price file", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read %s", path)
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to read header of %s", path)
	}

	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	if missing := missingColumns(header); len(missing) > 0 {
		return nil, errors.Newf(errors.ErrCodeMissingColumn, "%s is missing columns: %s", path, strings.Join(missing, ", "))
	}

	// gocsv matches header names exactly
	lines := bytes.SplitN(data, []byte("\n"), 2)
	normalized := []byte(strings.Join(header, ","))

	if len(lines) == 2 {
		normalized = append(append(normalized, '\n'), lines[1]...)
	}

	var rows []*priceRow
	if err := gocsv.UnmarshalBytes(normalized, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse %s", path)
	}

	if len(rows) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "%s has no rows", path)
	}

	bars := make([]types.PriceBar, 0, len(rows))
	symbols := make([]string, 0, len(rows))

	for _, row := range rows {
		raw := row.Date
		if raw == "" {
			raw = row.Time
		}

		date, err := parseDate(raw)
		if err != nil {
			return nil, err
		}

		bars = append(bars, types.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
		symbols = append(symbols, strings.TrimSpace(row.Symbol))
	}

	series, err := groupBySymbol(SymbolFromPath(path), symbols, bars)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Loaded CSV price file",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("symbols", len(series)),
	)

	return series, nil
}

// Close implements DataSource.
func (c *CSVDataSource) Close() error {
	return nil
}
