package query

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/core"
)

// Service provides read-only access to exchange state. Live balances and the
// pool record are served from the core's in-memory state so they are always
// consistent with the last applied call; call history and integrity checks
// read the durable Postgres log.
type Service struct {
	ex *core.Exchange
	db *sql.DB
}

func NewService(ex *core.Exchange, db *sql.DB) *Service {
	return &Service{ex: ex, db: db}
}

// asOf is the sequence of the last applied call.
func (s *Service) asOf() int64 {
	return s.ex.GetSequence() - 1
}

// GetBalance returns an account's pending balance for a specific asset.
func (s *Service) GetBalance(account uuid.UUID, a asset.ID) *BalanceResponse {
	return &BalanceResponse{
		Account:      account,
		Asset:        a,
		Pending:      s.ex.PendingBalance(account, a),
		AsOfSequence: s.asOf(),
	}
}

// GetBalances returns every pending entry an account holds.
func (s *Service) GetBalances(account uuid.UUID) *BalancesResponse {
	entries := s.ex.PendingBalances(account)
	balances := make([]AssetBalance, 0, len(entries))
	for _, e := range entries {
		balances = append(balances, AssetBalance{Asset: e.Asset, Amount: e.Amount})
	}
	return &BalancesResponse{
		Account:      account,
		Balances:     balances,
		AsOfSequence: s.asOf(),
	}
}

// GetBalancePair returns an account's pending balances in exactly two assets.
func (s *Service) GetBalancePair(account uuid.UUID, assetA, assetB asset.ID) *BalancesResponse {
	return &BalancesResponse{
		Account: account,
		Balances: []AssetBalance{
			{Asset: assetA, Amount: s.ex.PendingBalance(account, assetA)},
			{Asset: assetB, Amount: s.ex.PendingBalance(account, assetB)},
		},
		AsOfSequence: s.asOf(),
	}
}

// GetCustody returns a holder's settled balance in one asset. A nil holder
// means the contract's own custody account.
func (s *Service) GetCustody(holder *uuid.UUID, a asset.ID) *CustodyResponse {
	resp := &CustodyResponse{
		Asset:        a,
		AsOfSequence: s.asOf(),
	}
	if holder == nil {
		resp.Holder = s.ex.ContractAcct()
		resp.Amount = s.ex.Custody(a)
		return resp
	}
	resp.Holder = *holder
	resp.Amount = s.ex.SettledBalance(*holder, a)
	return resp
}

// GetPool returns the pool record plus the current chain tip.
func (s *Service) GetPool() *PoolResponse {
	state := s.ex.PoolState()
	hash := s.ex.GetStateHash()
	return &PoolResponse{
		ReserveNative: state.ReserveNative,
		ReserveAlt:    state.ReserveAlt,
		LPSupply:      state.LPSupply,
		StateHash:     hex.EncodeToString(hash[:]),
		AsOfSequence:  s.asOf(),
	}
}

// GetCallHistory returns applied calls from the durable log, newest first,
// with cursor-based pagination.
func (s *Service) GetCallHistory(
	ctx context.Context,
	caller *uuid.UUID,
	limit int,
	beforeSequence *int64,
) ([]CallHistoryEntry, error) {
	query := `
		SELECT sequence, call_id, op, caller, timestamp_us, state_hash
		FROM pool_ledger.calls
		WHERE TRUE
	`
	args := []interface{}{}
	argIdx := 1

	if caller != nil {
		query += fmt.Sprintf(" AND caller = $%d", argIdx)
		args = append(args, *caller)
		argIdx++
	}

	if beforeSequence != nil {
		query += fmt.Sprintf(" AND sequence < $%d", argIdx)
		args = append(args, *beforeSequence)
		argIdx++
	}

	query += " ORDER BY sequence DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CallHistoryEntry
	for rows.Next() {
		var e CallHistoryEntry
		var stateHash []byte
		if err := rows.Scan(&e.Sequence, &e.CallID, &e.Op, &e.Caller, &e.Timestamp, &stateHash); err != nil {
			return nil, err
		}
		e.StateHash = hex.EncodeToString(stateHash)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// VerifyIntegrity checks hash chain continuity across the durable log.
func (s *Service) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c1.sequence
		FROM pool_ledger.calls c1
		LEFT JOIN pool_ledger.calls c2 ON c2.sequence = c1.sequence - 1
		WHERE c1.sequence > 0 AND c1.prev_hash != COALESCE(c2.state_hash, c1.prev_hash)
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		report.HashChainBreaks = append(report.HashChainBreaks, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report.IsHealthy = len(report.HashChainBreaks) == 0
	return report, nil
}
