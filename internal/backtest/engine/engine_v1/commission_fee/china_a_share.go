package commission_fee

// ChinaAShareCommissionFee charges 0.03% of the trade notional with a
// 5 CNY minimum. The same rule applies to both buys and sells.
type ChinaAShareCommissionFee struct {
}

func NewChinaAShareCommissionFee() CommissionFee {
	return &ChinaAShareCommissionFee{}
}

func (c *ChinaAShareCommissionFee) Calculate(amount float64) float64 {
	fee := 0.0003 * amount
	if fee < 5.0 {
		return 5.0
	}

	return fee
}
