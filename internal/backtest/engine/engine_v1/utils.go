package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// getResultFolder returns <results>/<strategy>[/<start>_<end>]/<symbol>.
func getResultFolder(b *BacktestEngineV1, strategyName string, symbol string) string {
	strategyFolder := filepath.Join(b.resultsFolder, sanitizeFolderName(strategyName))

	// Create data folder with time range if specified
	dataFolder := strategyFolder

	if b.config.StartTime.IsSome() || b.config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if b.config.StartTime.IsSome() {
			startTimeStr = b.config.StartTime.Unwrap().Format("20060102")
		}

		if b.config.EndTime.IsSome() {
			endTimeStr = b.config.EndTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(strategyFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	}

	if symbol == "" {
		symbol = "unknown"
	}

	return filepath.Join(dataFolder, sanitizeFolderName(symbol))
}

// sanitizeFolderName keeps letters, digits, '.', '-' and '_'; everything else becomes '_'.
func sanitizeFolderName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	if sanitized == "" || sanitized == "." || sanitized == ".." {
		return "_"
	}

	return sanitized
}
