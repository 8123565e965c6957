package mocks

import (
	"testing"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	series := gen.Generate(config)

	if series.Len() != 100 {
		t.Errorf("expected 100 bars, got %d", series.Len())
	}

	if series.Symbol != config.Symbol {
		t.Errorf("expected symbol %s, got %s", config.Symbol, series.Symbol)
	}

	// Generated bars satisfy the price series invariants
	if err := series.Validate(); err != nil {
		t.Errorf("generated series is invalid: %v", err)
	}

	for i, bar := range series.Bars {
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			t.Errorf("invalid OHLC values at index %d: O=%f H=%f L=%f C=%f",
				i, bar.Open, bar.High, bar.Low, bar.Close)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 50

	a := NewDataGenerator(7).Generate(config)
	b := NewDataGenerator(7).Generate(config)

	for i := range a.Bars {
		if a.Bars[i] != b.Bars[i] {
			t.Fatalf("bars differ at index %d with the same seed", i)
		}
	}
}

func TestDataGenerator_MultiSymbol(t *testing.T) {
	config := DefaultConfig()
	config.Count = 20

	all := NewDataGenerator(1).GenerateMultiSymbol([]string{"sh600000", "sz000001"}, config)
	if len(all) != 2 {
		t.Fatalf("expected 2 series, got %d", len(all))
	}

	if all[1].Symbol != "sz000001" {
		t.Errorf("expected second symbol sz000001, got %s", all[1].Symbol)
	}
}

func TestLinearSeries(t *testing.T) {
	series := LinearSeries("TEST", 20, 10, 15)

	if series.Bars[0].Close != 10 || series.Bars[19].Close != 15 {
		t.Errorf("unexpected endpoints %f, %f", series.Bars[0].Close, series.Bars[19].Close)
	}

	for i := 1; i < series.Len(); i++ {
		if series.Bars[i].Close <= series.Bars[i-1].Close {
			t.Errorf("close not strictly rising at %d", i)
		}

		if series.Bars[i].Open != series.Bars[i-1].Close {
			t.Errorf("open should equal previous close at %d", i)
		}
	}

	if err := series.Validate(); err != nil {
		t.Errorf("linear series is invalid: %v", err)
	}
}

func TestFlatSeries(t *testing.T) {
	series := FlatSeries("TEST", 30, 10)
	for _, bar := range series.Bars {
		if bar.Open != 10 || bar.High != 10 || bar.Low != 10 || bar.Close != 10 {
			t.Fatalf("flat bar expected at %s", bar.Date)
		}
	}
}
