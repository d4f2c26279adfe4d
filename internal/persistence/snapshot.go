package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"PoolLedger/internal/core"
)

// SnapshotManager persists full exchange snapshots so recovery replays from
// the latest verified snapshot instead of the whole call log.
type SnapshotManager struct {
	db *sql.DB
}

func NewSnapshotManager(db *sql.DB) *SnapshotManager {
	return &SnapshotManager{db: db}
}

// SaveSnapshot stores the serialized exchange state keyed by sequence and
// returns the serialized size in bytes. Snapshots are written unverified;
// MarkVerified promotes them once the caller has confirmed the state hash.
func (sm *SnapshotManager) SaveSnapshot(ctx context.Context, snap *core.SnapshotState) (int, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = sm.db.ExecContext(ctx, `
		INSERT INTO pool_ledger.snapshots (sequence, state_hash, state, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sequence) DO UPDATE
		SET state_hash = EXCLUDED.state_hash,
		    state = EXCLUDED.state,
		    created_at = EXCLUDED.created_at
	`, snap.Sequence, snap.StateHash[:], data, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("save snapshot seq=%d: %w", snap.Sequence, err)
	}

	log.Printf("INFO: snapshot saved (sequence=%d, size=%d bytes)", snap.Sequence, len(data))
	return len(data), nil
}

// LoadLatestSnapshot returns the newest verified snapshot, or (nil, nil) when
// no snapshot exists (cold start).
func (sm *SnapshotManager) LoadLatestSnapshot(ctx context.Context) (*core.SnapshotState, error) {
	var data []byte
	err := sm.db.QueryRowContext(ctx, `
		SELECT state
		FROM pool_ledger.snapshots
		WHERE verified = TRUE
		ORDER BY sequence DESC
		LIMIT 1
	`).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap core.SnapshotState
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// MarkVerified flags a snapshot as safe to restore from.
func (sm *SnapshotManager) MarkVerified(ctx context.Context, sequence int64) error {
	_, err := sm.db.ExecContext(ctx, `
		UPDATE pool_ledger.snapshots SET verified = TRUE WHERE sequence = $1
	`, sequence)
	return err
}

// LoadCallsFrom returns persisted calls with sequence >= fromSequence in
// ascending order, for replay after a snapshot restore.
func (sm *SnapshotManager) LoadCallsFrom(ctx context.Context, fromSequence int64, limit int) ([]CallRow, error) {
	rows, err := sm.db.QueryContext(ctx, `
		SELECT sequence, call_id, op, caller, payload, result, state_hash, prev_hash, timestamp_us
		FROM pool_ledger.calls
		WHERE sequence >= $1
		ORDER BY sequence ASC
		LIMIT $2
	`, fromSequence, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []CallRow
	for rows.Next() {
		var c CallRow
		if err := rows.Scan(
			&c.Sequence, &c.CallID, &c.Op, &c.Caller,
			&c.Payload, &c.Result, &c.StateHash, &c.PrevHash, &c.TimestampUs,
		); err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// GetLatestSequence returns the highest persisted sequence, or -1 when the
// call log is empty.
func (sm *SnapshotManager) GetLatestSequence(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := sm.db.QueryRowContext(ctx, `
		SELECT MAX(sequence) FROM pool_ledger.calls
	`).Scan(&seq)
	if err != nil {
		return -1, err
	}
	if !seq.Valid {
		return -1, nil
	}
	return seq.Int64, nil
}
