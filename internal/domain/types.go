package domain

import "time"

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// SideAliases maps the side spellings accepted on the webhook path to a
// canonical OrderSide. Unknown spellings are rejected, not guessed.
var SideAliases = map[string]OrderSide{
	"buy":           SideBuy,
	"long":          SideBuy,
	"buy_to_open":   SideBuy,
	"sell":          SideSell,
	"short":         SideSell,
	"close":         SideSell,
	"sell_to_close": SideSell,
}

type OrderStatus string

const (
	StatusFilled  OrderStatus = "filled"
	StatusPartial OrderStatus = "partial"
)

type OrderSource string

const (
	SourceWeb     OrderSource = "web"
	SourceWebhook OrderSource = "webhook"
	SourceTest    OrderSource = "test"
)

type WatchStatus string

const (
	WatchPending WatchStatus = "pending"
	WatchOK      WatchStatus = "ok"
	WatchError   WatchStatus = "error"
)

type Account struct {
	Name           string    `db:"name"            json:"name"`
	InitialCapital float64   `db:"initial_capital" json:"initial_capital"`
	Cash           float64   `db:"cash"            json:"cash"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}

type Position struct {
	ID          int64   `db:"id"           json:"-"`
	AccountName string  `db:"account_name" json:"account_name"`
	Symbol      string  `db:"symbol"       json:"symbol"`
	Qty         int64   `db:"qty"          json:"qty"`
	AvgPrice    float64 `db:"avg_price"    json:"avg_price"`
}

type Order struct {
	ID          int64       `db:"id"           json:"id"`
	AccountName string      `db:"account_name" json:"account_name"`
	Symbol      string      `db:"symbol"       json:"symbol"`
	Side        OrderSide   `db:"side"         json:"side"`
	Qty         int64       `db:"qty"          json:"qty"`
	Price       float64     `db:"price"        json:"price"`
	Value       float64     `db:"value"        json:"value"`
	Time        time.Time   `db:"time"         json:"time"`
	Status      OrderStatus `db:"status"       json:"status"`
	Source      OrderSource `db:"source"       json:"source"`
}

type Trade struct {
	ID          int64     `db:"id"           json:"id"`
	AccountName string    `db:"account_name" json:"account_name"`
	Symbol      string    `db:"symbol"       json:"symbol"`
	Side        OrderSide `db:"side"         json:"side"`
	Qty         int64     `db:"qty"          json:"qty"`
	Price       float64   `db:"price"        json:"price"`
	Value       float64   `db:"value"        json:"value"`
	Time        time.Time `db:"time"         json:"time"`
}

// EquitySnapshot is the single row kept per account per calendar day.
// Date is the local date formatted as 2006-01-02.
type EquitySnapshot struct {
	AccountName string  `db:"account_name" json:"-"`
	Date        string  `db:"date"         json:"date"`
	Equity      float64 `db:"equity"       json:"equity"`
	PnL         float64 `db:"pnl"          json:"pnl"`
	PnLPct      float64 `db:"pnl_pct"      json:"pnl_pct"`
}

type WatchlistEntry struct {
	Symbol     string      `db:"symbol"      json:"symbol"`
	Name       string      `db:"name"        json:"name"`
	LastPrice  *float64    `db:"last_price"  json:"last_price,omitempty"`
	LastUpdate *time.Time  `db:"last_update" json:"last_update,omitempty"`
	Status     WatchStatus `db:"status"      json:"status"`
	Error      *string     `db:"error"       json:"error,omitempty"`
}

// Quote is the normalized result of one provider lookup. Invalid quotes carry
// a zero price and an error string; callers fall back to cost basis.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Name      string  `json:"name"`
	Currency  string  `json:"currency"`
	Valid     bool    `json:"valid"`
	Error     string  `json:"error,omitempty"`
}

// Fill is the realized outcome of simulating an order. TotalCost is the cash
// debited on a buy (value plus commission) or the net proceeds credited on a
// sell (value minus commission).
type Fill struct {
	FilledQty   int64   `json:"filled_qty"`
	ExecPrice   float64 `json:"exec_price"`
	Commission  float64 `json:"commission"`
	FilledValue float64 `json:"filled_value"`
	TotalCost   float64 `json:"total_cost"`
	Slippage    float64 `json:"slippage"`
	FillRate    float64 `json:"fill_rate"`
	PartialFill bool    `json:"partial_fill"`
}
