// Package l2book implements the price-aggregated (L2) book: bid/ask price
// ladders, the atomic-update protocol that sequences buffered price-level
// changes so BBO is only published in consistent states, and the book
// pressure derivation (spec §4.B).
package l2book

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"ironbook/internal/diagnostics"
	"ironbook/internal/message"
)

// topNDepth is the number of top-of-book levels summed for book pressure.
const topNDepth = 5

// level is one price/size pair resting in a ladder.
type level struct {
	price decimal.Decimal
	size  uint64
}

// Book maintains the L2 ladders for a single symbol.
type Book struct {
	symbol string
	sink   diagnostics.Sink

	bids *btree.BTreeG[*level]
	asks *btree.BTreeG[*level]

	// buffer holds PriceLevelUpdate messages awaiting the terminal message
	// of the current atomic event. Empty in steady state (spec §3).
	buffer []message.PriceLevelUpdate

	bbo *BBO
}

// New constructs an empty L2 book for symbol, reporting any protocol
// conditions through sink. L2 books have no construction parameters and
// are always default-constructible (spec §6).
func New(symbol string, sink diagnostics.Sink) *Book {
	if sink == nil {
		sink = diagnostics.NopSink{}
	}
	return &Book{
		symbol: symbol,
		sink:   sink,
		bids:   btree.NewBTreeG(func(a, b *level) bool { return a.price.GreaterThan(b.price) }),
		asks:   btree.NewBTreeG(func(a, b *level) bool { return a.price.LessThan(b.price) }),
	}
}

// Process accepts only PriceLevelUpdate variants (spec §4.B); any other
// message kind is silently ignored via the no-op Visit methods below.
func (b *Book) Process(msg message.Message) {
	msg.Dispatch(b)
}

func (b *Book) VisitPriceLevelUpdate(m message.PriceLevelUpdate) { b.onPriceLevelUpdate(m) }
func (b *Book) VisitAddOrder(message.AddOrder)                   {}
func (b *Book) VisitOrderModify(message.OrderModify)             {}
func (b *Book) VisitOrderDelete(message.OrderDelete)             {}
func (b *Book) VisitOrderExecuted(message.OrderExecuted)         {}
func (b *Book) VisitTradeReport(message.TradeReport)             {}

// onPriceLevelUpdate implements the atomic-update protocol of spec §4.B.
func (b *Book) onPriceLevelUpdate(m message.PriceLevelUpdate) {
	if len(b.buffer) == 0 {
		if !m.Terminal() {
			// Start of an atomic event: begin buffering, do not apply yet.
			b.buffer = append(b.buffer, m)
			return
		}
		// Standalone terminal message: apply immediately and republish.
		b.apply(m)
		b.publish()
		return
	}

	if m.Symbol != b.buffer[0].Symbol {
		b.sink.Report(diagnostics.NewEvent(diagnostics.ProtocolViolation, b.symbol,
			fmt.Sprintf("mismatched symbol %q in atomic buffer for %q; discarding buffer", m.Symbol, b.buffer[0].Symbol)))
		b.buffer = b.buffer[:0]
		return
	}

	b.buffer = append(b.buffer, m)
	if m.Terminal() {
		for _, buffered := range b.buffer {
			b.apply(buffered)
		}
		b.buffer = b.buffer[:0]
		b.publish()
	}
}

// apply applies a single PriceLevelUpdate to the appropriate ladder.
func (b *Book) apply(m message.PriceLevelUpdate) {
	ladder := b.ladderFor(m.Side)
	if m.Size == 0 {
		ladder.Delete(&level{price: m.Price})
		return
	}
	ladder.Set(&level{price: m.Price, size: m.Size})
}

func (b *Book) ladderFor(side message.Side) *btree.BTreeG[*level] {
	if side == message.Sell {
		return b.asks
	}
	return b.bids
}

// publish recomputes the published BBO after an apply-batch, per spec
// §4.B's republication rule.
func (b *Book) publish() {
	bestBid, bidOk := b.bids.Min()
	bestAsk, askOk := b.asks.Min()
	if !bidOk || !askOk {
		b.bbo = nil
		return
	}

	bbo, err := NewBBO(bestBid.price, bestBid.size, bestAsk.price, bestAsk.size)
	if err != nil {
		b.sink.Report(diagnostics.NewEvent(diagnostics.CrossedPublishedBBO, b.symbol, err.Error()))
		b.bbo = nil
		return
	}
	b.bbo = bbo
}

// GetBBO returns the most recently published BBO, or false if either side
// was empty at publication time.
func (b *Book) GetBBO() (*BBO, bool) {
	if b.bbo == nil {
		return nil, false
	}
	return b.bbo, true
}

// BookPressure returns (B-S)/(B+S) over the top-5 cumulative sizes on each
// side, or 0 when both sides are empty (spec §4.B).
func (b *Book) BookPressure() float64 {
	bidDepth := b.topDepth(b.bids)
	askDepth := b.topDepth(b.asks)
	total := bidDepth + askDepth
	if total == 0 {
		return 0
	}
	return (float64(bidDepth) - float64(askDepth)) / float64(total)
}

// topDepth sums the size of the top topNDepth levels of ladder, in the
// ladder's own best-first order.
func (b *Book) topDepth(ladder *btree.BTreeG[*level]) uint64 {
	var sum uint64
	count := 0
	ladder.Scan(func(lv *level) bool {
		sum += lv.size
		count++
		return count < topNDepth
	})
	return sum
}

// Print writes a human-readable dump of the ladder state. Format is
// non-normative (spec §6).
func (b *Book) Print(w io.Writer) {
	fmt.Fprintln(w, "Bids:")
	b.bids.Scan(func(lv *level) bool {
		fmt.Fprintf(w, "Price: %s, Size: %d\n", lv.price.String(), lv.size)
		return true
	})
	fmt.Fprintln(w, "Asks:")
	b.asks.Scan(func(lv *level) bool {
		fmt.Fprintf(w, "Price: %s, Size: %d\n", lv.price.String(), lv.size)
		return true
	})
}

// PrintBBO writes the published BBO, or a diagnostic line if none is
// available (spec scenario S3).
func (b *Book) PrintBBO(w io.Writer) {
	bbo, ok := b.GetBBO()
	if !ok {
		fmt.Fprintln(w, "No Best Bid or Offer available.")
		return
	}
	fmt.Fprintf(w, "Best Bid: Price = %s, Size = %d\n", bbo.BidPrice().String(), bbo.BidSize())
	fmt.Fprintf(w, "Best Ask: Price = %s, Size = %d\n", bbo.AskPrice().String(), bbo.AskSize())
}
