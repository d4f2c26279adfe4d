package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"PoolLedger/internal/event"
)

// CallLogWriter writes applied calls to Postgres using multi-row INSERT.
// ON CONFLICT DO NOTHING keeps re-persisting after a crash idempotent.
type CallLogWriter struct {
	db *sql.DB
}

// CallRow represents a row in pool_ledger.calls
type CallRow struct {
	Sequence    int64
	CallID      uuid.UUID
	Op          string
	Caller      uuid.UUID
	Payload     []byte // JSON-encoded call, replayable through event.ParseCall
	Result      []byte // JSON-encoded event.Result
	StateHash   []byte
	PrevHash    []byte
	TimestampUs int64
}

// RowFromEnvelope converts a core envelope into its durable row.
func RowFromEnvelope(env *event.Envelope) (CallRow, error) {
	result, err := json.Marshal(env.Result)
	if err != nil {
		return CallRow{}, fmt.Errorf("marshal result: %w", err)
	}
	return CallRow{
		Sequence:    env.Sequence,
		CallID:      env.CallID,
		Op:          env.Op.String(),
		Caller:      env.Caller,
		Payload:     env.Payload,
		Result:      result,
		StateHash:   env.StateHash[:],
		PrevHash:    env.PrevHash[:],
		TimestampUs: env.Timestamp.UnixMicro(),
	}, nil
}

func NewCallLogWriter(db *sql.DB) *CallLogWriter {
	return &CallLogWriter{db: db}
}

// WriteCallBatch writes a batch of calls inside the given transaction.
func (w *CallLogWriter) WriteCallBatch(ctx context.Context, tx *sql.Tx, calls []CallRow) error {
	if len(calls) == 0 {
		return nil
	}

	query := `INSERT INTO pool_ledger.calls
		(sequence, call_id, op, caller, payload, result, state_hash, prev_hash, timestamp_us)
		VALUES `

	values := make([]string, 0, len(calls))
	args := make([]interface{}, 0, len(calls)*9)

	for i, c := range calls {
		base := i * 9
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args,
			c.Sequence, c.CallID, c.Op, c.Caller,
			c.Payload, c.Result, c.StateHash, c.PrevHash, c.TimestampUs,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING" // Idempotent writes

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
