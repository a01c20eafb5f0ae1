// Command bookctl wires a Registry and a Runner over a synthetic,
// already-sorted in-memory message feed. It does not decode PCAP or any
// real wire format — that remains out of scope (spec §1) — it only gives
// the core package a runnable entry point, the way the teacher's
// cmd/server wires engine.New + net.New.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"ironbook/internal/diagnostics"
	"ironbook/internal/l3book"
	"ironbook/internal/message"
	"ironbook/internal/runner"
)

func main() {
	symbol := flag.String("symbol", "AAPL", "symbol to replay and print")
	workers := flag.Int("workers", 4, "number of per-symbol worker shards")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	sink := diagnostics.NewZerologSink(nil)
	r := runner.New(*workers, sink)

	if err := r.RegisterL3(*symbol, l3book.Config{
		NumPriceLevels: 1000,
		MinPrice:       decimal.NewFromInt(0),
		MaxPrice:       decimal.NewFromInt(1000),
		PriceIncrement: decimal.NewFromFloat(0.01),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to register L3 book:", err)
		os.Exit(1)
	}

	runDone := make(chan error, 1)
	go func() { runDone <- r.Run(ctx) }()

	for _, msg := range demoFeed(*symbol) {
		r.Submit(*symbol, msg)
	}

	// Give the worker a moment to drain before printing; a real host
	// would instead wait on an explicit drain signal from its decoder.
	time.Sleep(50 * time.Millisecond)

	if h, ok := r.Handle(*symbol); ok {
		if h.L2 != nil {
			h.L2.Print(os.Stdout)
			h.L2.PrintBBO(os.Stdout)
		}
		if h.L3 != nil {
			h.L3.Print(os.Stdout)
		}
	}

	stop()
	_ = r.Stop()
	<-runDone
}

// demoFeed builds a small synthetic, timestamp-sorted message sequence
// exercising both the L2 atomic-update protocol and the L3 lifecycle.
func demoFeed(symbol string) []message.Message {
	var ts uint64
	next := func() uint64 { ts++; return ts }
	hdr := func() message.Header { return message.Header{Timestamp: next(), Symbol: symbol} }

	return []message.Message{
		message.PriceLevelUpdate{Header: hdr(), Side: message.Buy, Price: decimal.NewFromFloat(150.0), Size: 100, Flags: 1},
		message.PriceLevelUpdate{Header: hdr(), Side: message.Sell, Price: decimal.NewFromFloat(155.0), Size: 50, Flags: 1},
		message.AddOrder{Header: hdr(), OrderID: 1, Side: message.Buy, Price: decimal.NewFromFloat(150.0), Size: 10},
		message.OrderExecuted{Header: hdr(), OrderIDRef: 1, Price: decimal.NewFromFloat(150.0), Size: 4},
		message.OrderExecuted{Header: hdr(), OrderIDRef: 1, Price: decimal.NewFromFloat(150.0), Size: 6},
	}
}
