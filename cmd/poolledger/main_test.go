package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"PoolLedger/internal/core"
	"PoolLedger/internal/event"
	"PoolLedger/internal/persistence"
)

func testEnvelope(seq int64) *event.Envelope {
	return &event.Envelope{
		Sequence:  seq,
		CallID:    uuid.New(),
		Op:        event.OpDeposit,
		Caller:    uuid.New(),
		Timestamp: time.UnixMicro(1_700_000_000_000_000),
		Payload:   json.RawMessage(`{}`),
	}
}

// Shutdown runs app.Shutdown then cancel; the bridge must hand every envelope
// the core already emitted to the worker and close the row channel itself,
// even when the receiver only starts reading after the cancel.
func TestBridgePersistRows_ShutdownDrainsAndCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan core.CoreOutput, 4)
	in <- core.CoreOutput{Envelope: testEnvelope(0)}
	in <- core.CoreOutput{Envelope: testEnvelope(1)}

	out := make(chan persistence.CallRow)
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridgePersistRows(ctx, in, out)
	}()

	cancel()

	var rows []persistence.CallRow
	for row := range out {
		rows = append(rows, row)
	}
	if len(rows) != 2 {
		t.Fatalf("drained %d rows, want 2", len(rows))
	}
	if rows[0].Sequence != 0 || rows[1].Sequence != 1 {
		t.Fatalf("rows out of order: %d, %d", rows[0].Sequence, rows[1].Sequence)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not exit after draining")
	}
}

func TestBridgePersistRows_ClosesOutputWhenInputCloses(t *testing.T) {
	in := make(chan core.CoreOutput, 1)
	in <- core.CoreOutput{Envelope: testEnvelope(5)}
	close(in)

	out := make(chan persistence.CallRow, 1)
	bridgePersistRows(context.Background(), in, out)

	row, ok := <-out
	if !ok || row.Sequence != 5 {
		t.Fatalf("row = %+v (ok=%v), want sequence 5", row, ok)
	}
	if _, ok := <-out; ok {
		t.Fatal("row channel must close once input closes")
	}
}
