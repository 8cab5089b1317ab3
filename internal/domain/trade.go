package domain

import "time"

// TradeAction is what happened in a trade.
type TradeAction string

// Trade actions
const (
	ActionBuy      TradeAction = "BUY"
	ActionSell     TradeAction = "SELL"
	ActionWithdraw TradeAction = "WITHDRAW"
	ActionAssign   TradeAction = "ASSIGN"
	ActionExpire   TradeAction = "EXPIRE"
)

// TradeAsset is the instrument a trade touched.
type TradeAsset string

// Trade assets
const (
	AssetEquity    TradeAsset = "EQUITY"
	AssetLeap      TradeAsset = "LEAP"
	AssetWheelPut  TradeAsset = "WHEEL_PUT"
	AssetWheelCall TradeAsset = "WHEEL_CALL"
	AssetCash      TradeAsset = "CASH"
)

// Trade is an entry in the append-only trade log of a backtest.
// Quantity is shares for equity and contracts for options.
type Trade struct {
	Date     time.Time   `json:"date"`
	Action   TradeAction `json:"action"`
	Asset    TradeAsset  `json:"asset"`
	Quantity float64     `json:"quantity"`
	Price    float64     `json:"price"`
	Value    float64     `json:"value"`
	Reason   string      `json:"reason"`
}

// Trade and rebalance reasons
const (
	ReasonInitialAllocation     = "Initial Allocation"
	ReasonMonthlySpending       = "Monthly Spending"
	ReasonMonthlySpendingMargin = "Monthly Spending (Margin)"
	ReasonExpirationApproaching = "Expiration approaching"
	ReasonPostExpiration        = "Post-Expiration Rebalance"
	ReasonRollingAfterPnL       = "Rolling after P/L Hit"
	ReasonWheelSellPut          = "Wheel: Sell Put (Bullish MA)"
	ReasonWheelSellCall         = "Wheel: Sell Call (Bearish MA)"
	ReasonWheelPutAssigned      = "Wheel: Put Assigned"
	ReasonWheelCallAssigned     = "Wheel: Call Assigned"
	ReasonWheelCallCashSettled  = "Wheel: Call Cash Settled"
	ReasonWheelExpiredWorthless = "Wheel: Expired Worthless"
)

// RebalanceReason prefixes a rebalance trigger for trade reasons.
func RebalanceReason(trigger string) string {
	return "Rebalance: " + trigger
}
