package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource loads Parquet or CSV price files through an in-memory DuckDB.
type DuckDBDataSource struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource opens an in-memory DuckDB database.
func NewDuckDBDataSource(log *logger.Logger) (*DuckDBDataSource, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceFailure, "failed to open duckdb", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceFailure, "failed to connect to duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Load implements DataSource.
func (d *DuckDBDataSource) Load(path string) ([]types.PriceSeries, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("Loading price file with DuckDB", zap.String("path", path))

	if err := d.createView(path); err != nil {
		return nil, err
	}

	columns, err := d.columns()
	if err != nil {
		return nil, err
	}

	if missing := missingColumns(columns); len(missing) > 0 {
		return nil, errors.Newf(errors.ErrCodeMissingColumn, "%s is missing columns: %s", path, strings.Join(missing, ", "))
	}

	timeColumn := "date"
	if !slices.Contains(columns, "date") {
		timeColumn = "time"
	}

	symbolExpr := "''"
	if slices.Contains(columns, "symbol") {
		symbolExpr = "CAST(symbol AS VARCHAR)"
	}

	query, args, err := d.sq.
		Select(
			fmt.Sprintf("CAST(%q AS TIMESTAMP)", timeColumn),
			symbolExpr,
			"CAST(open AS DOUBLE)",
			"CAST(high AS DOUBLE)",
			"CAST(low AS DOUBLE)",
			"CAST(close AS DOUBLE)",
			"CAST(volume AS DOUBLE)",
		).
		From("market_data").
		OrderBy("2 ASC", "1 ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build price query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query %s", path)
	}
	defer rows.Close()

	var (
		bars    []types.PriceBar
		symbols []string
	)

	for rows.Next() {
		var (
			timestamp                      sql.NullTime
			symbol                         sql.NullString
			open, high, low, close, volume sql.NullFloat64
		)

		if err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan row", err)
		}

		if !timestamp.Valid {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "%s has a row without %s", path, timeColumn)
		}

		bars = append(bars, types.PriceBar{
			Date:   timestamp.Time.UTC(),
			Open:   nullToNaN(open),
			High:   nullToNaN(high),
			Low:    nullToNaN(low),
			Close:  nullToNaN(close),
			Volume: nullToNaN(volume),
		})
		symbols = append(symbols, symbol.String)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "%s has no rows", path)
	}

	series, err := groupBySymbol(SymbolFromPath(path), symbols, bars)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Loaded price file",
		zap.String("path", path),
		zap.Int("rows", len(bars)),
		zap.Int("symbols", len(series)),
	)

	return series, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d == nil || d.db == nil {
		return nil
	}

	return d.db.Close()
}

func (d *DuckDBDataSource) createView(path string) error {
	reader := "read_parquet"
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		reader = "read_csv_auto"
	}

	// CREATE VIEW is not supported by squirrel
	query := fmt.Sprintf(`CREATE OR REPLACE VIEW market_data AS SELECT * FROM %s('%s');`,
		reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", path)
	}

	return nil
}

func (d *DuckDBDataSource) columns() ([]string, error) {
	rows, err := d.db.Query(`SELECT * FROM market_data LIMIT 0`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read columns", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read columns", err)
	}

	for i := range columns {
		columns[i] = strings.ToLower(columns[i])
	}

	return columns, nil
}

func nullToNaN(value sql.NullFloat64) float64 {
	if !value.Valid {
		return math.NaN()
	}

	return value.Float64
}

var _ DataSource = (*DuckDBDataSource)(nil)
