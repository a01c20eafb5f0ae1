package message_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ironbook/internal/message"
)

type recordingVisitor struct{ types []message.Type }

func (r *recordingVisitor) VisitPriceLevelUpdate(m message.PriceLevelUpdate) { r.types = append(r.types, m.MsgType()) }
func (r *recordingVisitor) VisitAddOrder(m message.AddOrder)                 { r.types = append(r.types, m.MsgType()) }
func (r *recordingVisitor) VisitOrderModify(m message.OrderModify)          { r.types = append(r.types, m.MsgType()) }
func (r *recordingVisitor) VisitOrderDelete(m message.OrderDelete)          { r.types = append(r.types, m.MsgType()) }
func (r *recordingVisitor) VisitOrderExecuted(m message.OrderExecuted)      { r.types = append(r.types, m.MsgType()) }
func (r *recordingVisitor) VisitTradeReport(m message.TradeReport)          { r.types = append(r.types, m.MsgType()) }

func TestDispatchInvokesMatchingVisitorMethod(t *testing.T) {
	v := &recordingVisitor{}
	msgs := []message.Message{
		message.PriceLevelUpdate{},
		message.AddOrder{},
		message.OrderModify{},
		message.OrderDelete{},
		message.OrderExecuted{},
		message.TradeReport{},
	}
	for _, m := range msgs {
		m.Dispatch(v)
	}

	assert.Equal(t, []message.Type{
		message.TypePriceLevelUpdate,
		message.TypeAddOrder,
		message.TypeOrderModify,
		message.TypeOrderDelete,
		message.TypeOrderExecuted,
		message.TypeTradeReport,
	}, v.types)
}

func TestPriceLevelUpdateTerminal(t *testing.T) {
	terminal := message.PriceLevelUpdate{Flags: 1}
	intermediate := message.PriceLevelUpdate{Flags: 0}
	assert.True(t, terminal.Terminal())
	assert.False(t, intermediate.Terminal())
}

func TestTradeReportSaleConditionPredicates(t *testing.T) {
	tr := message.TradeReport{
		SaleCondition: message.IntermarketSweep | message.OddLot,
		Price:         decimal.Zero,
	}
	assert.True(t, tr.IsIntermarketSweep())
	assert.True(t, tr.IsOddLot())
	assert.False(t, tr.IsExtendedHours())
	assert.False(t, tr.IsTradeThroughExempt())
	assert.False(t, tr.IsSinglePriceCross())
}

func TestTypeAndSideString(t *testing.T) {
	assert.Equal(t, "TradeReport", message.TypeTradeReport.String())
	assert.Equal(t, "Unknown", message.Type(99).String())
	assert.Equal(t, "Buy", message.Buy.String())
	assert.Equal(t, "Sell", message.Sell.String())
}
