package commission_fee

import "github.com/shopspring/decimal"

type CommissionFee interface {
	// Calculate returns the commission for one execution of quantity units worth notional.
	Calculate(quantity decimal.Decimal, notional decimal.Decimal) decimal.Decimal
}

type Broker string

const (
	BrokerRate              Broker = "rate"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerRate,
	BrokerInteractiveBroker,
	BrokerZero,
}

// Schedule holds the parameters of the rate broker. Other brokers ignore it.
type Schedule struct {
	Rate    decimal.Decimal
	Minimum decimal.Decimal
}

func GetCommissionFeeHandler(broker Broker, schedule Schedule) CommissionFee {
	switch broker {
	case BrokerRate:
		return NewRateCommissionFee(schedule.Rate, schedule.Minimum)
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
