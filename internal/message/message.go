// Package message defines the closed, tagged-variant inbound message model
// the core order-book engine consumes. Decoding from wire/PCAP formats is
// an external concern; this package only models the already-decoded shape.
package message

import "github.com/shopspring/decimal"

// Type tags which variant a Message carries. The set is closed: there is
// no registration mechanism and no subtype hierarchy, only a fixed switch.
type Type int

const (
	TypePriceLevelUpdate Type = iota
	TypeAddOrder
	TypeOrderModify
	TypeOrderDelete
	TypeOrderExecuted
	TypeTradeReport
)

func (t Type) String() string {
	switch t {
	case TypePriceLevelUpdate:
		return "PriceLevelUpdate"
	case TypeAddOrder:
		return "AddOrder"
	case TypeOrderModify:
		return "OrderModify"
	case TypeOrderDelete:
		return "OrderDelete"
	case TypeOrderExecuted:
		return "OrderExecuted"
	case TypeTradeReport:
		return "TradeReport"
	default:
		return "Unknown"
	}
}

// Side is the resting or aggressing side of an order or price level.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "Sell"
	}
	return "Buy"
}

// ModifyFlags records whether an OrderModify resets or maintains the
// order's time priority. The core does not model time priority within a
// price level (see spec §9), so this is recorded but otherwise inert.
type ModifyFlags int

const (
	ResetPriority ModifyFlags = iota
	MaintainPriority
)

// Sale-condition bitfield values for TradeReport, per the venue's wire
// convention. These are recorded on the message and exposed as predicates;
// the core never branches on them itself.
const (
	IntermarketSweep  uint8 = 0x80
	ExtendedHours     uint8 = 0x40
	OddLot            uint8 = 0x20
	TradeThroughExempt uint8 = 0x10
	SinglePriceCross  uint8 = 0x08
)

// Header carries the fields common to every message variant.
type Header struct {
	// Timestamp is nanoseconds since the Unix epoch, monotonic per stream.
	Timestamp uint64
	Symbol    string
}

// Visitor is implemented by dispatch targets (the book registry, a book
// itself, or a test) that need to observe a message's concrete variant
// without a type switch at every call site.
type Visitor interface {
	VisitPriceLevelUpdate(PriceLevelUpdate)
	VisitAddOrder(AddOrder)
	VisitOrderModify(OrderModify)
	VisitOrderDelete(OrderDelete)
	VisitOrderExecuted(OrderExecuted)
	VisitTradeReport(TradeReport)
}

// Message is satisfied by every variant below.
type Message interface {
	MsgType() Type
	Dispatch(v Visitor)
}

// PriceLevelUpdate carries an L2 price-level change. Size == 0 removes the
// level; Flags bit 0 set marks the terminal message of an atomic event.
type PriceLevelUpdate struct {
	Header
	Side  Side
	Price decimal.Decimal
	Size  uint64
	Flags uint8
}

func (m PriceLevelUpdate) MsgType() Type      { return TypePriceLevelUpdate }
func (m PriceLevelUpdate) Dispatch(v Visitor) { v.VisitPriceLevelUpdate(m) }

// Terminal reports whether this update is the last message of an atomic
// event (flags bit 0 set).
func (m PriceLevelUpdate) Terminal() bool { return m.Flags&0x01 != 0 }

// AddOrder introduces a new resting L3 order.
type AddOrder struct {
	Header
	OrderID uint64
	Side    Side
	Price   decimal.Decimal
	Size    uint64
}

func (m AddOrder) MsgType() Type      { return TypeAddOrder }
func (m AddOrder) Dispatch(v Visitor) { v.VisitAddOrder(m) }

// OrderModify changes the price and/or size of a resting order.
type OrderModify struct {
	Header
	OrderIDRef uint64
	NewPrice   decimal.Decimal
	NewSize    uint64
	Flags      ModifyFlags
}

func (m OrderModify) MsgType() Type      { return TypeOrderModify }
func (m OrderModify) Dispatch(v Visitor) { v.VisitOrderModify(m) }

// OrderDelete removes a resting order entirely.
type OrderDelete struct {
	Header
	OrderIDRef uint64
}

func (m OrderDelete) MsgType() Type      { return TypeOrderDelete }
func (m OrderDelete) Dispatch(v Visitor) { v.VisitOrderDelete(m) }

// OrderExecuted reports a fill against a resting order.
type OrderExecuted struct {
	Header
	OrderIDRef uint64
	Price      decimal.Decimal
	Size       uint64
}

func (m OrderExecuted) MsgType() Type      { return TypeOrderExecuted }
func (m OrderExecuted) Dispatch(v Visitor) { v.VisitOrderExecuted(m) }

// TradeReport reports a trade print not necessarily tied to a specific
// resting order at decode time; the L3 book settles it against the first
// qualifying resting order (spec §4.C).
type TradeReport struct {
	Header
	TradeID       uint64
	Price         decimal.Decimal
	Size          uint64
	SaleCondition uint8
}

func (m TradeReport) MsgType() Type      { return TypeTradeReport }
func (m TradeReport) Dispatch(v Visitor) { v.VisitTradeReport(m) }

func (m TradeReport) IsIntermarketSweep() bool   { return m.SaleCondition&IntermarketSweep != 0 }
func (m TradeReport) IsExtendedHours() bool      { return m.SaleCondition&ExtendedHours != 0 }
func (m TradeReport) IsOddLot() bool             { return m.SaleCondition&OddLot != 0 }
func (m TradeReport) IsTradeThroughExempt() bool { return m.SaleCondition&TradeThroughExempt != 0 }
func (m TradeReport) IsSinglePriceCross() bool   { return m.SaleCondition&SinglePriceCross != 0 }
