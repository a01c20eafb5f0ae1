package l3book

import (
	"github.com/shopspring/decimal"

	"ironbook/internal/message"
)

// Order is a resting L3 order, owned exclusively by the book that holds
// it. Created on AddOrder; mutated only by OrderModify/OrderExecuted
// applied to the same book; destroyed on OrderDelete, a fully-executing
// OrderExecuted, or a fully-consuming TradeReport (spec §3).
type Order struct {
	ID          uint64
	Side        message.Side
	Price       decimal.Decimal
	Size        uint64
	ModifyFlags message.ModifyFlags
}
