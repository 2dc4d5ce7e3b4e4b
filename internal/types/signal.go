package types

// Signal is a per-bar trading decision produced by a strategy.
type Signal int

const (
	// SignalSell tells the engine to sell the returned volume
	SignalSell Signal = -1
	// SignalHold tells the engine to take no action
	SignalHold Signal = 0
	// SignalBuy tells the engine to buy the returned volume
	SignalBuy Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	case SignalHold:
		return "hold"
	default:
		return "unknown"
	}
}
