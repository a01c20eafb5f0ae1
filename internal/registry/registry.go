// Package registry maps trading symbols to their book instances and
// routes each inbound message to the right book (spec §4.D). A Registry
// is not thread-shared: a hosting application that wants to parallelize
// across symbols shards by symbol and gives each shard its own Registry
// (see internal/runner), rather than sharing one Registry across workers.
package registry

import (
	"ironbook/internal/diagnostics"
	"ironbook/internal/l2book"
	"ironbook/internal/l3book"
	"ironbook/internal/message"
)

// Handle is the per-symbol pair of book instances. A deployment may run
// L2-only, L3-only, or both for a given symbol.
type Handle struct {
	L2 *l2book.Book
	L3 *l3book.Book
}

// Registry holds a Handle per symbol, constructing one lazily the first
// time a symbol is seen.
type Registry struct {
	sink      diagnostics.Sink
	handles   map[string]*Handle
	l3Configs map[string]l3book.Config
}

// New constructs an empty Registry. Diagnostics from every book it
// constructs flow through sink.
func New(sink diagnostics.Sink) *Registry {
	if sink == nil {
		sink = diagnostics.NopSink{}
	}
	return &Registry{
		sink:      sink,
		handles:   make(map[string]*Handle),
		l3Configs: make(map[string]l3book.Config),
	}
}

// RegisterL3 pre-registers a symbol's L3 construction parameters. L3
// requires (numPriceLevels, minPrice, maxPrice, priceIncrement), which the
// registry cannot default safely, so a symbol first seen without a
// registered L3 config gets an L2-only handle. Registering the config
// later adds an L3 book to that existing handle.
func (r *Registry) RegisterL3(symbol string, cfg l3book.Config) error {
	if cfg.PriceIncrement.Sign() <= 0 {
		return diagnostics.NewConstructionError("price_increment must be greater than zero")
	}
	r.l3Configs[symbol] = cfg

	if h, ok := r.handles[symbol]; ok && h.L3 == nil {
		book, err := l3book.New(symbol, cfg, r.sink)
		if err != nil {
			return err
		}
		h.L3 = book
	}
	return nil
}

// Handle returns the handle for symbol without creating one.
func (r *Registry) Handle(symbol string) (*Handle, bool) {
	h, ok := r.handles[symbol]
	return h, ok
}

func (r *Registry) handleFor(symbol string) *Handle {
	if h, ok := r.handles[symbol]; ok {
		return h
	}

	h := &Handle{L2: l2book.New(symbol, r.sink)}
	if cfg, ok := r.l3Configs[symbol]; ok {
		if book, err := l3book.New(symbol, cfg, r.sink); err == nil {
			h.L3 = book
		}
	}
	r.handles[symbol] = h
	return h
}

// Dispatch looks up or creates the handle for msg's symbol and routes the
// message to the matching book: PriceLevelUpdate to L2, the five L3
// message kinds to L3 (spec §4.D).
func (r *Registry) Dispatch(msg message.Message) {
	msg.Dispatch(r)
}

func (r *Registry) VisitPriceLevelUpdate(m message.PriceLevelUpdate) {
	h := r.handleFor(m.Symbol)
	if h.L2 != nil {
		h.L2.Process(m)
	}
}

func (r *Registry) VisitAddOrder(m message.AddOrder) {
	h := r.handleFor(m.Symbol)
	if h.L3 != nil {
		h.L3.Process(m)
	}
}

func (r *Registry) VisitOrderModify(m message.OrderModify) {
	h := r.handleFor(m.Symbol)
	if h.L3 != nil {
		h.L3.Process(m)
	}
}

func (r *Registry) VisitOrderDelete(m message.OrderDelete) {
	h := r.handleFor(m.Symbol)
	if h.L3 != nil {
		h.L3.Process(m)
	}
}

func (r *Registry) VisitOrderExecuted(m message.OrderExecuted) {
	h := r.handleFor(m.Symbol)
	if h.L3 != nil {
		h.L3.Process(m)
	}
}

func (r *Registry) VisitTradeReport(m message.TradeReport) {
	h := r.handleFor(m.Symbol)
	if h.L3 != nil {
		h.L3.Process(m)
	}
}
