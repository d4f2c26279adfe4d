package query

import (
	"github.com/google/uuid"

	"PoolLedger/internal/asset"
)

// BalanceResponse is one pending-balance entry for API queries. All responses
// include as_of_sequence for freshness semantics.
type BalanceResponse struct {
	Account      uuid.UUID `json:"account"`
	Asset        asset.ID  `json:"asset"`
	Pending      uint64    `json:"pending"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// BalancesResponse lists every pending entry an account holds.
type BalancesResponse struct {
	Account      uuid.UUID      `json:"account"`
	Balances     []AssetBalance `json:"balances"`
	AsOfSequence int64          `json:"as_of_sequence"`
}

// AssetBalance is one (asset, amount) pair inside BalancesResponse.
type AssetBalance struct {
	Asset  asset.ID `json:"asset"`
	Amount uint64   `json:"amount"`
}

// CustodyResponse is a holder's settled balance in one asset. The default
// holder is the contract's own custody account.
type CustodyResponse struct {
	Holder       uuid.UUID `json:"holder"`
	Asset        asset.ID  `json:"asset"`
	Amount       uint64    `json:"amount"`
	AsOfSequence int64     `json:"as_of_sequence"`
}

// PoolResponse is the pool record plus chain metadata.
type PoolResponse struct {
	ReserveNative uint64 `json:"reserve_native"`
	ReserveAlt    uint64 `json:"reserve_alt"`
	LPSupply      uint64 `json:"lp_supply"`
	StateHash     string `json:"state_hash"`
	AsOfSequence  int64  `json:"as_of_sequence"`
}

// CallHistoryEntry is one applied call from the durable log.
type CallHistoryEntry struct {
	Sequence  int64     `json:"sequence"`
	CallID    uuid.UUID `json:"call_id"`
	Op        string    `json:"op"`
	Caller    uuid.UUID `json:"caller"`
	Timestamp int64     `json:"timestamp_us"`
	StateHash string    `json:"state_hash"`
}

// IntegrityReport is the result of an integrity verification check.
type IntegrityReport struct {
	IsHealthy       bool    `json:"is_healthy"`
	HashChainBreaks []int64 `json:"hash_chain_breaks,omitempty"`
}
