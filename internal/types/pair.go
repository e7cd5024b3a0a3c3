package types

import "github.com/shopspring/decimal"

// Pair is the configuration and trading state of one market. Native decimals
// bound settlement amounts; display decimals are the price and quantity
// increments orders must respect.
type Pair struct {
	ID                     string          `json:"id" yaml:"id"`
	BaseSymbol             string          `json:"base_symbol" yaml:"base_symbol"`
	QuoteSymbol            string          `json:"quote_symbol" yaml:"quote_symbol"`
	BaseDecimals           int32           `json:"base_decimals" yaml:"base_decimals"`
	QuoteDecimals          int32           `json:"quote_decimals" yaml:"quote_decimals"`
	BaseDisplayDecimals    int32           `json:"base_display_decimals" yaml:"base_display_decimals"`
	QuoteDisplayDecimals   int32           `json:"quote_display_decimals" yaml:"quote_display_decimals"`
	MinTradeAmount         decimal.Decimal `json:"min_trade_amount" yaml:"min_trade_amount"`
	MaxTradeAmount         decimal.Decimal `json:"max_trade_amount" yaml:"max_trade_amount"`
	MakerRateBps           uint32          `json:"maker_rate_bps" yaml:"maker_rate_bps"`
	TakerRateBps           uint32          `json:"taker_rate_bps" yaml:"taker_rate_bps"`
	AllowedKinds           []OrderKind     `json:"allowed_kinds" yaml:"allowed_kinds"`
	AuctionMode            AuctionMode     `json:"auction_mode" yaml:"auction_mode"`
	AuctionPrice           decimal.Decimal `json:"auction_price" yaml:"auction_price"`
	AllowedSlippagePercent decimal.Decimal `json:"allowed_slippage_percent" yaml:"allowed_slippage_percent"`
}

// KindAllowed reports whether orders of kind k may be submitted.
func (p *Pair) KindAllowed(k OrderKind) bool {
	for _, allowed := range p.AllowedKinds {
		if allowed == k {
			return true
		}
	}
	return false
}

// QuoteAmount is price*qty floored to the quote asset's native precision.
func (p *Pair) QuoteAmount(price, qty decimal.Decimal) decimal.Decimal {
	return price.Mul(qty).Truncate(p.QuoteDecimals)
}

// Clone copies the pair including its kind list.
func (p *Pair) Clone() *Pair {
	c := *p
	c.AllowedKinds = append([]OrderKind(nil), p.AllowedKinds...)
	return &c
}
