// Package diagnostics implements the error taxonomy and reporting sink
// described in spec §7: the core never aborts on a per-message error, it
// reports through a Sink and continues. Construction-time invariant
// violations are the one exception and propagate to the caller as an
// *Error via the normal Go error path.
package diagnostics

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind enumerates the error taxonomy of spec §7. These are kinds, not
// distinct Go error types: callers branch on Kind, not on type identity.
type Kind int

const (
	ConstructionInvariant Kind = iota
	OutOfRange
	UnknownOrder
	DuplicateOrder
	SideInconsistentExecution
	OverExecution
	ProtocolViolation
	CrossedPublishedBBO
)

func (k Kind) String() string {
	switch k {
	case ConstructionInvariant:
		return "ConstructionInvariant"
	case OutOfRange:
		return "OutOfRange"
	case UnknownOrder:
		return "UnknownOrder"
	case DuplicateOrder:
		return "DuplicateOrder"
	case SideInconsistentExecution:
		return "SideInconsistentExecution"
	case OverExecution:
		return "OverExecution"
	case ProtocolViolation:
		return "ProtocolViolation"
	case CrossedPublishedBBO:
		return "CrossedPublishedBBO"
	default:
		return "Unknown"
	}
}

// Error is returned by construction functions when a ConstructionInvariant
// (or, for L3 construction, an otherwise-unrecoverable setup condition) is
// violated. Only construction paths return this; per-message conditions go
// through Sink.Report instead.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Detail }

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// NewConstructionError builds a ConstructionInvariant error.
func NewConstructionError(detail string) *Error {
	return newError(ConstructionInvariant, detail)
}

// Event is a single diagnostic occurrence reported by a book or registry
// while processing a message. ID correlates this event back to whatever
// external log line or trace carried the offending message.
type Event struct {
	ID     uuid.UUID
	Kind   Kind
	Symbol string
	Detail string
}

// Sink receives diagnostic events. Books and the registry depend only on
// this interface, never on a concrete logging library, mirroring the
// teacher's separation between the order book and its net-layer reporter.
type Sink interface {
	Report(Event)
}

// NewEvent stamps a fresh correlation ID onto a reported condition.
func NewEvent(kind Kind, symbol, detail string) Event {
	return Event{ID: uuid.New(), Kind: kind, Symbol: symbol, Detail: detail}
}

// NopSink discards every event. Useful in tests that assert on book state
// and don't care about the diagnostic stream.
type NopSink struct{}

func (NopSink) Report(Event) {}

// ZerologSink logs each event at a level derived from its Kind, using the
// logger it was built with (zerolog's package-level logger by default, the
// way the teacher's net/server.go does).
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink wraps the given logger, or the global logger if none is
// supplied.
func NewZerologSink(logger *zerolog.Logger) ZerologSink {
	if logger == nil {
		return ZerologSink{logger: log.Logger}
	}
	return ZerologSink{logger: *logger}
}

func (s ZerologSink) Report(e Event) {
	evt := s.logger.WithLevel(level(e.Kind)).
		Str("correlationID", e.ID.String()).
		Str("symbol", e.Symbol).
		Str("kind", e.Kind.String())
	evt.Msg(e.Detail)
}

func level(k Kind) zerolog.Level {
	switch k {
	case CrossedPublishedBBO:
		return zerolog.InfoLevel
	case UnknownOrder, DuplicateOrder, OverExecution, SideInconsistentExecution, OutOfRange:
		return zerolog.WarnLevel
	case ConstructionInvariant, ProtocolViolation:
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}
