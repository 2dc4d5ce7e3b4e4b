package commission_fee

type CommissionFee interface {
	// Calculate the commission fee for a given trade notional amount
	Calculate(amount float64) float64
}

type Broker string

const (
	BrokerChinaAShare Broker = "china_a_share"
	BrokerZero        Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerChinaAShare,
	BrokerZero,
}

func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerChinaAShare:
		return NewChinaAShareCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewChinaAShareCommissionFee()
	}
}
