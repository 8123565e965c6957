package datasource

import (
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Required price columns. The date column may be named "date" or "time".
var requiredColumns = []string{"open", "high", "low", "close", "volume"}

type DataSource interface {
	// Load reads a price file into one validated series per symbol, sorted by symbol.
	// Files without a symbol column are named after the file.
	Load(path string) ([]types.PriceSeries, error)
	// Close closes the data source and releases any resources
	Close() error
}

// ForPath picks a loader by file extension: gocsv for .csv, DuckDB for .parquet.
func ForPath(path string, log *logger.Logger) (DataSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVDataSource(log), nil
	case ".parquet":
		source, err := NewDuckDBDataSource(log)
		if err != nil {
			return nil, err
		}

		return source, nil
	default:
		return nil, errors.Newf(errors.ErrCodeDataParseFailed, "unsupported price file %s", path)
	}
}

// MultiDataSource dispatches each path to the loader for its extension.
type MultiDataSource struct {
	csv    DataSource
	duckdb DataSource
	logger *logger.Logger
}

func NewMultiDataSource(log *logger.Logger) *MultiDataSource {
	return &MultiDataSource{
		csv:    nil,
		duckdb: nil,
		logger: log,
	}
}

// Load implements DataSource.
func (m *MultiDataSource) Load(path string) ([]types.PriceSeries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if m.csv == nil {
			m.csv = NewCSVDataSource(m.logger)
		}

		return m.csv.Load(path)
	case ".parquet":
		if m.duckdb == nil {
			source, err := NewDuckDBDataSource(m.logger)
			if err != nil {
				return nil, err
			}

			m.duckdb = source
		}

		return m.duckdb.Load(path)
	default:
		return nil, errors.Newf(errors.ErrCodeDataParseFailed, "unsupported price file %s", path)
	}
}

// Close implements DataSource.
func (m *MultiDataSource) Close() error {
	if m.duckdb != nil {
		return m.duckdb.Close()
	}

	return nil
}
