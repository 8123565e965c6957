package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/gocarina/gocsv"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

const (
	statsFileName         = "stats.yaml"
	tradesFileName        = "trades.csv"
	equityFileName        = "equity.csv"
	marksFileName         = "marks.csv"
	tradesParquetFileName = "trades.parquet"
	equityParquetFileName = "equity.parquet"
)

// BacktestWriter writes the files of one run into its result folder.
type BacktestWriter struct {
	logger       *logger.Logger
	writeParquet bool
}

func NewBacktestWriter(log *logger.Logger, writeParquet bool) *BacktestWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestWriter{logger: log, writeParquet: writeParquet}
}

// Write stores trades, equity and marks as CSV (and Parquet when enabled), fills the file
// paths of report, then writes report as stats.yaml.
func (w *BacktestWriter) Write(folder string, report *types.RunReport, result *types.BacktestResult) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", folder)
	}

	if result != nil {
		report.TradesFilePath = filepath.Join(folder, tradesFileName)
		if err := writeCSV(report.TradesFilePath, result.Trades); err != nil {
			return err
		}

		report.EquityFilePath = filepath.Join(folder, equityFileName)
		if err := writeCSV(report.EquityFilePath, result.Equity.Points); err != nil {
			return err
		}

		report.MarksFilePath = filepath.Join(folder, marksFileName)
		if err := writeCSV(report.MarksFilePath, result.Marks); err != nil {
			return err
		}

		if w.writeParquet {
			if err := w.exportParquet(folder, result); err != nil {
				return err
			}
		}
	}

	if err := types.WriteRunReports(filepath.Join(folder, statsFileName), []types.RunReport{*report}); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write stats", err)
	}

	w.logger.Debug("Run results written", zap.String("folder", folder))

	return nil
}

func writeCSV[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if rows == nil {
		rows = []T{}
	}

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write %s", path)
	}

	return nil
}

// exportParquet loads the run into an in-memory DuckDB and copies it out as Parquet.
func (w *BacktestWriter) exportParquet(folder string, result *types.BacktestResult) error {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	_, err = db.Exec(`
		CREATE TABLE trades (
			symbol TEXT,
			entry_date TIMESTAMP,
			exit_date TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			cost DOUBLE,
			realized_pnl DOUBLE,
			exit_reason TEXT,
			holding_bars INTEGER
		);
		CREATE TABLE equity (
			date TIMESTAMP,
			cash DOUBLE,
			position_value DOUBLE,
			equity DOUBLE
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create tables", err)
	}

	for _, trade := range result.Trades {
		_, err := sq.Insert("trades").
			Columns("symbol", "entry_date", "exit_date", "entry_price", "exit_price",
				"quantity", "cost", "realized_pnl", "exit_reason", "holding_bars").
			Values(trade.Symbol, trade.EntryDate, trade.ExitDate, trade.EntryPrice, trade.ExitPrice,
				trade.Quantity, trade.Cost, trade.RealizedPnL, string(trade.ExitReason), trade.HoldingBars).
			RunWith(db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert trade", err)
		}
	}

	for _, point := range result.Equity.Points {
		_, err := sq.Insert("equity").
			Columns("date", "cash", "position_value", "equity").
			Values(point.Date, point.Cash, point.PositionValue, point.Equity).
			RunWith(db).
			Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert equity point", err)
		}
	}

	exports := map[string]string{
		"trades": filepath.Join(folder, tradesParquetFileName),
		"equity": filepath.Join(folder, equityParquetFileName),
	}

	for _, table := range []string{"trades", "equity"} {
		// COPY is not supported by squirrel
		query := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(exports[table], "'", "''"))
		if _, err := db.Exec(query); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to export %s to parquet", table)
		}
	}

	w.logger.Debug("Exported parquet files",
		zap.String("trades", exports["trades"]),
		zap.String("equity", exports["equity"]),
	)

	return nil
}
