// Package l3book implements the per-order (L3) book: an order-id-keyed
// registry as the authoritative store, synchronized with a bounded array
// of price-level buckets that index order ids only (spec §4.C, §9).
package l3book

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"ironbook/internal/diagnostics"
	"ironbook/internal/message"
)

// Config parameterizes L3 book construction (spec §4.C, §6).
type Config struct {
	NumPriceLevels int
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	PriceIncrement decimal.Decimal
}

// Book maintains the per-order state for a single symbol.
type Book struct {
	symbol string
	cfg    Config
	sink   diagnostics.Sink

	// orders is the authoritative order-id -> Order store.
	orders map[uint64]*Order
	// buckets[i] holds the order ids currently priced into bucket i. This
	// is kept synchronized with orders on every mutation; buckets never
	// carry a copy of Order, only its id (spec §9).
	buckets [][]uint64
}

// New constructs an L3 book. PriceIncrement <= 0 is a ConstructionInvariant
// error (spec §7) returned directly to the caller.
func New(symbol string, cfg Config, sink diagnostics.Sink) (*Book, error) {
	if cfg.PriceIncrement.Sign() <= 0 {
		return nil, diagnostics.NewConstructionError("price_increment must be greater than zero")
	}
	if sink == nil {
		sink = diagnostics.NopSink{}
	}
	return &Book{
		symbol:  symbol,
		cfg:     cfg,
		sink:    sink,
		orders:  make(map[uint64]*Order),
		buckets: make([][]uint64, cfg.NumPriceLevels),
	}, nil
}

// Process routes msg through the single dispatcher required by spec §4.C.
func (b *Book) Process(msg message.Message) {
	msg.Dispatch(b)
}

func (b *Book) VisitPriceLevelUpdate(message.PriceLevelUpdate) {}
func (b *Book) VisitAddOrder(m message.AddOrder)                { b.addOrder(m) }
func (b *Book) VisitOrderModify(m message.OrderModify)           { b.modifyOrder(m) }
func (b *Book) VisitOrderDelete(m message.OrderDelete)           { b.deleteOrder(m) }
func (b *Book) VisitOrderExecuted(m message.OrderExecuted)       { b.executeOrder(m) }
func (b *Book) VisitTradeReport(m message.TradeReport)           { b.handleTrade(m) }

// bucketIndex computes floor((price-min)/increment), rejecting prices
// outside [min_price, max_price] (spec §4.C). An index past the last
// bucket is clamped to the last bucket.
func (b *Book) bucketIndex(price decimal.Decimal) (int, bool) {
	if price.LessThan(b.cfg.MinPrice) || price.GreaterThan(b.cfg.MaxPrice) {
		return 0, false
	}
	offset := price.Sub(b.cfg.MinPrice).Div(b.cfg.PriceIncrement).Floor()
	idx := int(offset.IntPart())
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.buckets) {
		idx = len(b.buckets) - 1
	}
	return idx, true
}

func (b *Book) addOrder(m message.AddOrder) {
	if _, exists := b.orders[m.OrderID]; exists {
		b.report(diagnostics.DuplicateOrder, fmt.Sprintf("order %d already present", m.OrderID))
		return
	}
	idx, ok := b.bucketIndex(m.Price)
	if !ok {
		b.report(diagnostics.OutOfRange, fmt.Sprintf("price %s out of range for order %d", m.Price, m.OrderID))
		return
	}
	order := &Order{ID: m.OrderID, Side: m.Side, Price: m.Price, Size: m.Size}
	b.orders[m.OrderID] = order
	b.buckets[idx] = append(b.buckets[idx], m.OrderID)
}

func (b *Book) modifyOrder(m message.OrderModify) {
	order, ok := b.orders[m.OrderIDRef]
	if !ok {
		b.report(diagnostics.UnknownOrder, fmt.Sprintf("order %d not found for modify", m.OrderIDRef))
		return
	}
	newIdx, ok := b.bucketIndex(m.NewPrice)
	if !ok {
		b.report(diagnostics.OutOfRange, fmt.Sprintf("price %s out of range for order %d", m.NewPrice, m.OrderIDRef))
		return
	}
	oldIdx, _ := b.bucketIndex(order.Price)
	b.removeFromBucket(oldIdx, order.ID)

	order.Size = m.NewSize
	order.Price = m.NewPrice
	order.ModifyFlags = m.Flags

	b.buckets[newIdx] = append(b.buckets[newIdx], order.ID)
}

func (b *Book) deleteOrder(m message.OrderDelete) {
	order, ok := b.orders[m.OrderIDRef]
	if !ok {
		b.report(diagnostics.UnknownOrder, fmt.Sprintf("order %d not found for delete", m.OrderIDRef))
		return
	}
	idx, _ := b.bucketIndex(order.Price)
	b.removeFromBucket(idx, order.ID)
	delete(b.orders, order.ID)
}

func (b *Book) executeOrder(m message.OrderExecuted) {
	order, ok := b.orders[m.OrderIDRef]
	if !ok {
		b.report(diagnostics.UnknownOrder, fmt.Sprintf("order %d not found for execution", m.OrderIDRef))
		return
	}

	if order.Side == message.Buy && m.Price.LessThan(order.Price) {
		b.report(diagnostics.SideInconsistentExecution, fmt.Sprintf("execution price %s below buy order %d price %s", m.Price, order.ID, order.Price))
		return
	}
	if order.Side == message.Sell && m.Price.GreaterThan(order.Price) {
		b.report(diagnostics.SideInconsistentExecution, fmt.Sprintf("execution price %s above sell order %d price %s", m.Price, order.ID, order.Price))
		return
	}
	if m.Size > order.Size {
		b.report(diagnostics.OverExecution, fmt.Sprintf("execution size %d exceeds order %d remaining size %d", m.Size, order.ID, order.Size))
		return
	}

	remaining := order.Size - m.Size
	if remaining == 0 {
		idx, _ := b.bucketIndex(order.Price)
		b.removeFromBucket(idx, order.ID)
		delete(b.orders, order.ID)
		return
	}
	order.Size = remaining
}

// handleTrade settles a TradeReport against the first resting order that
// can fully absorb it, scanning buckets in index order (spec §4.C, §9;
// grounded on original_source/src/l3book.cpp's HandleTrade).
func (b *Book) handleTrade(m message.TradeReport) {
	for bucketIdx, bucket := range b.buckets {
		for _, id := range bucket {
			order, ok := b.orders[id]
			if !ok {
				continue
			}

			qualifies := (order.Side == message.Buy && order.Price.LessThanOrEqual(m.Price) && order.Size >= m.Size) ||
				(order.Side == message.Sell && order.Price.GreaterThanOrEqual(m.Price) && order.Size >= m.Size)
			if !qualifies {
				continue
			}

			order.Size -= m.Size
			if order.Size == 0 {
				b.removeFromBucket(bucketIdx, order.ID)
				delete(b.orders, order.ID)
			}
			return
		}
	}
	b.report(diagnostics.ProtocolViolation, fmt.Sprintf("no matching order found for trade %d", m.TradeID))
}

func (b *Book) removeFromBucket(idx int, id uint64) {
	bucket := b.buckets[idx]
	for i, v := range bucket {
		if v == id {
			b.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func (b *Book) report(kind diagnostics.Kind, detail string) {
	b.sink.Report(diagnostics.NewEvent(kind, b.symbol, detail))
}

// Order looks up a resting order by id. Exposed for tests and diagnostics
// consumers. The returned pointer is the book's own Order: messages the
// book processes afterwards mutate it in place (single-threaded, spec §5).
func (b *Book) Order(id uint64) (*Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// NumOrders reports how many orders are currently resting.
func (b *Book) NumOrders() int { return len(b.orders) }

// BucketOrderIDs returns a copy of the order ids resting in bucket idx.
func (b *Book) BucketOrderIDs(idx int) []uint64 {
	return append([]uint64(nil), b.buckets[idx]...)
}

// Print writes a human-readable dump of non-empty price-level buckets.
// Format is non-normative (spec §6).
func (b *Book) Print(w io.Writer) {
	fmt.Fprintln(w, "Current Order Book:")
	for i, bucket := range b.buckets {
		if len(bucket) == 0 {
			continue
		}
		price := b.cfg.MinPrice.Add(b.cfg.PriceIncrement.Mul(decimal.NewFromInt(int64(i))))
		fmt.Fprintf(w, "Price Level %s: ", price.String())
		for _, id := range bucket {
			order := b.orders[id]
			fmt.Fprintf(w, "[ID: %d, Size: %d, Side: %s] ", order.ID, order.Size, order.Side)
		}
		fmt.Fprintln(w)
	}
}
