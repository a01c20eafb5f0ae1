package l2book

import (
	"github.com/shopspring/decimal"

	"ironbook/internal/diagnostics"
)

// BBO is the published Best Bid and Offer. Construction and every setter
// enforce bid <= ask structurally (spec §4.E): this is the only place in
// the module that invariant is enforced, so a violation fails loudly at
// the point of construction instead of silently corrupting published
// state.
type BBO struct {
	bidPrice decimal.Decimal
	bidSize  uint64
	askPrice decimal.Decimal
	askSize  uint64
}

// NewBBO constructs a BBO, rejecting bid_price > ask_price.
func NewBBO(bidPrice decimal.Decimal, bidSize uint64, askPrice decimal.Decimal, askSize uint64) (*BBO, error) {
	if bidPrice.GreaterThan(askPrice) {
		return nil, diagnostics.NewConstructionError("bid_price cannot be greater than ask_price")
	}
	return &BBO{bidPrice: bidPrice, bidSize: bidSize, askPrice: askPrice, askSize: askSize}, nil
}

func (b *BBO) BidPrice() decimal.Decimal { return b.bidPrice }
func (b *BBO) BidSize() uint64           { return b.bidSize }
func (b *BBO) AskPrice() decimal.Decimal { return b.askPrice }
func (b *BBO) AskSize() uint64           { return b.askSize }

// SetBidPrice updates the bid side, rejecting a value that would cross
// the current ask.
func (b *BBO) SetBidPrice(price decimal.Decimal) error {
	if price.GreaterThan(b.askPrice) {
		return diagnostics.NewConstructionError("bid_price cannot be greater than ask_price")
	}
	b.bidPrice = price
	return nil
}

// SetAskPrice updates the ask side, rejecting a value that would cross
// the current bid.
func (b *BBO) SetAskPrice(price decimal.Decimal) error {
	if price.LessThan(b.bidPrice) {
		return diagnostics.NewConstructionError("ask_price cannot be less than bid_price")
	}
	b.askPrice = price
	return nil
}
