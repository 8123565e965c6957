package types

type IndicatorType string

const (
	IndicatorTypeMA             IndicatorType = "ma"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeDonchian       IndicatorType = "donchian"
	IndicatorTypeVolumeRatio    IndicatorType = "volume_ratio"
	IndicatorTypeOBV            IndicatorType = "obv"
	IndicatorTypeAD             IndicatorType = "ad"
	IndicatorTypePVT            IndicatorType = "pvt"
)

// StrategyType identifies a compiled-in strategy variant.
type StrategyType string

const (
	StrategyTypeMACross             StrategyType = "ma_cross"
	StrategyTypeOscillatorThreshold StrategyType = "oscillator_threshold"
	StrategyTypeBreakout            StrategyType = "breakout"
	StrategyTypeBandReversion       StrategyType = "band_reversion"
	StrategyTypeMACDCross           StrategyType = "macd_cross"
	// StrategyTypeCombined marks a run driven by a combined signal.
	StrategyTypeCombined StrategyType = "combined"
)
