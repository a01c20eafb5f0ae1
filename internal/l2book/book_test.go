package l2book_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/diagnostics"
	"ironbook/internal/l2book"
	"ironbook/internal/message"
)

type sinkFunc func(diagnostics.Event)

func (f sinkFunc) Report(e diagnostics.Event) { f(e) }

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func plu(symbol string, side message.Side, price float64, size uint64, terminal bool) message.PriceLevelUpdate {
	var flags uint8
	if terminal {
		flags = 1
	}
	return message.PriceLevelUpdate{
		Header: message.Header{Symbol: symbol},
		Side:   side,
		Price:  dec(price),
		Size:   size,
		Flags:  flags,
	}
}

// TestAtomicTransitionHidesIntermediateCross is spec scenario S1.
func TestAtomicTransitionHidesIntermediateCross(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})

	book.Process(plu("AAPL", message.Sell, 25.30, 100, true))
	book.Process(plu("AAPL", message.Sell, 25.20, 100, true))
	book.Process(plu("AAPL", message.Sell, 25.10, 100, true))
	book.Process(plu("AAPL", message.Buy, 25.00, 100, true))
	book.Process(plu("AAPL", message.Buy, 24.90, 100, true))

	bbo, ok := book.GetBBO()
	require.True(t, ok)
	assert.True(t, bbo.BidPrice().Equal(dec(25.00)))
	assert.True(t, bbo.AskPrice().Equal(dec(25.10)))

	book.Process(plu("AAPL", message.Sell, 25.10, 0, false))
	bbo, ok = book.GetBBO()
	require.True(t, ok)
	assert.True(t, bbo.AskPrice().Equal(dec(25.10)), "BBO must not republish on an intermediate update")

	book.Process(plu("AAPL", message.Sell, 25.20, 0, true))
	bbo, ok = book.GetBBO()
	require.True(t, ok)
	assert.True(t, bbo.BidPrice().Equal(dec(25.00)))
	assert.True(t, bbo.AskPrice().Equal(dec(25.30)))
}

// TestBookPressure is spec scenario S2.
func TestBookPressure(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	book.Process(plu("AAPL", message.Buy, 150.0, 100, true))
	book.Process(plu("AAPL", message.Sell, 155.0, 50, true))

	assert.InDelta(t, 1.0/3.0, book.BookPressure(), 1e-9)
}

// TestEmptyBBODiagnostic is spec scenario S3.
func TestEmptyBBODiagnostic(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	var buf bytes.Buffer
	book.PrintBBO(&buf)
	assert.Contains(t, buf.String(), "No Best Bid or Offer available.")
}

// TestSequentialUpdatesWithZeroSizeDeletion is spec scenario S4.
func TestSequentialUpdatesWithZeroSizeDeletion(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	book.Process(plu("AAPL", message.Buy, 150.0, 100, true))
	book.Process(plu("AAPL", message.Sell, 155.0, 50, true))
	book.Process(plu("AAPL", message.Buy, 148.0, 200, true))
	book.Process(plu("AAPL", message.Sell, 157.0, 0, true))

	bbo, ok := book.GetBBO()
	require.True(t, ok)
	assert.True(t, bbo.BidPrice().Equal(dec(150.0)))
	assert.EqualValues(t, 100, bbo.BidSize())
	assert.True(t, bbo.AskPrice().Equal(dec(155.0)))
	assert.EqualValues(t, 50, bbo.AskSize())
}

// TestSameLevelOverwrite is spec scenario S5.
func TestSameLevelOverwrite(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	book.Process(plu("AAPL", message.Buy, 150.0, 100, true))
	book.Process(plu("AAPL", message.Buy, 150.0, 150, true))
	book.Process(plu("AAPL", message.Sell, 155.0, 50, true))
	book.Process(plu("AAPL", message.Sell, 155.0, 60, true))

	bbo, ok := book.GetBBO()
	require.True(t, ok)
	assert.EqualValues(t, 150, bbo.BidSize())
	assert.EqualValues(t, 60, bbo.AskSize())
}

// TestDeleteOnEmptyLadderIsNoop is spec invariant 6.
func TestDeleteOnEmptyLadderIsNoop(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	book.Process(plu("AAPL", message.Buy, 100.0, 0, true))
	_, ok := book.GetBBO()
	assert.False(t, ok)
}

// TestApplyThenDeleteRestoresPriorState is spec invariant 7.
func TestApplyThenDeleteRestoresPriorState(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	book.Process(plu("AAPL", message.Buy, 100.0, 10, true))
	book.Process(plu("AAPL", message.Sell, 101.0, 10, true))
	book.Process(plu("AAPL", message.Buy, 99.0, 50, true))
	book.Process(plu("AAPL", message.Buy, 99.0, 0, true))

	bbo, ok := book.GetBBO()
	require.True(t, ok)
	assert.EqualValues(t, 10, bbo.BidSize())
}

func TestProtocolViolationMismatchedSymbolDiscardsBuffer(t *testing.T) {
	var events []diagnostics.Event
	sink := sinkFunc(func(e diagnostics.Event) { events = append(events, e) })
	book := l2book.New("AAPL", sink)

	book.Process(plu("AAPL", message.Buy, 100.0, 10, false))
	book.Process(plu("MSFT", message.Buy, 200.0, 10, true))

	require.Len(t, events, 1)
	assert.Equal(t, diagnostics.ProtocolViolation, events[0].Kind)
	_, ok := book.GetBBO()
	assert.False(t, ok)
}

func TestNonPriceLevelUpdateMessagesAreIgnored(t *testing.T) {
	book := l2book.New("AAPL", diagnostics.NopSink{})
	book.Process(message.AddOrder{Header: message.Header{Symbol: "AAPL"}, OrderID: 1, Side: message.Buy, Price: dec(100), Size: 10})
	_, ok := book.GetBBO()
	assert.False(t, ok)
}
