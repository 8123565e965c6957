package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataGenerator generates daily price series for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// Symbol is the instrument code (e.g., "sh600000")
	Symbol string
	// StartDate is the date of the first bar; one bar is generated per calendar day
	StartDate time.Time
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.02 = 2% typical daily volatility)
	Volatility float64
	// Trend is the total drift over the series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:          250,
		InitialPrice:   10.0,
		Volatility:     0.02,
		Trend:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.5,
	}
}

// Generate creates a price series following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) types.PriceSeries {
	bars := make([]types.PriceBar, config.Count)
	currentPrice := config.InitialPrice

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a standard normal draw
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, close) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.PriceBar{
			Date:   config.StartDate.AddDate(0, 0, i),
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 0),
		}

		currentPrice = close
	}

	return types.PriceSeries{Symbol: config.Symbol, Bars: bars}
}

// GenerateMultiSymbol generates one series per symbol with slightly varied start price and volatility.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.PriceSeries {
	out := make([]types.PriceSeries, 0, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		out = append(out, g.Generate(config))
	}

	return out
}

// FlatSeries returns count bars that all open, close, high and low at price.
func FlatSeries(symbol string, count int, price float64) types.PriceSeries {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = price
	}

	return SeriesFromCloses(symbol, closes...)
}

// LinearSeries returns count bars whose close rises evenly from start to end.
// Each bar opens at the previous close.
func LinearSeries(symbol string, count int, start, end float64) types.PriceSeries {
	closes := make([]float64, count)
	for i := range closes {
		if count == 1 {
			closes[i] = start

			continue
		}

		closes[i] = start + (end-start)*float64(i)/float64(count-1)
	}

	return SeriesFromCloses(symbol, closes...)
}

// SeriesFromCloses builds daily bars from closes. A bar opens at the previous close
// and its high and low span open and close.
func SeriesFromCloses(symbol string, closes ...float64) types.PriceSeries {
	start := DefaultConfig().StartDate
	bars := make([]types.PriceBar, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		bars[i] = types.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c),
			Low:    math.Min(open, c),
			Close:  c,
			Volume: 1_000_000,
		}
	}

	return types.PriceSeries{Symbol: symbol, Bars: bars}
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
