package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/event"
	"PoolLedger/internal/ledger"
	"PoolLedger/internal/observability"
	"PoolLedger/internal/pool"
	"PoolLedger/internal/transfer"
)

// Exchange is the serialized call processor. Every mutating operation runs
// through ProcessCall under one lock: idempotency check, dispatch, apply,
// state hash, emit. A call either fully applies or leaves no trace.
type Exchange struct {
	mu sync.RWMutex

	sequence     int64
	hasher       *StateHasher
	balances     *ledger.PendingBalances
	pool         pool.State
	curve        pool.CurveParams
	registry     *asset.Registry
	bank         transfer.Bank
	contractAcct uuid.UUID
	idempotency  *IdempotencyChecker
	metrics      *observability.Metrics
	logger       zerolog.Logger

	persistChan chan<- CoreOutput
	publishChan chan<- CoreOutput

	// replaying suppresses channel emits while the log is re-executed
	replaying bool
}

// CoreOutput is one applied call, fanned out to persistence (blocking) and
// the publisher (non-blocking drop).
type CoreOutput struct {
	Envelope *event.Envelope
}

// ContractAccount derives the custody account for a contract identity. It is
// stable across restarts so settled balances survive recovery.
func ContractAccount(contractID asset.ID) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, contractID[:])
}

func NewExchange(
	startSequence int64,
	registry *asset.Registry,
	bank transfer.Bank,
	curve pool.CurveParams,
	persistChan, publishChan chan<- CoreOutput,
	dbChecker DBIdempotencyChecker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) (*Exchange, error) {
	if err := curve.Validate(); err != nil {
		return nil, fmt.Errorf("pool curve: %w", err)
	}

	// 1M dedup entries keeps roughly a day of traffic hot
	idempotency, err := NewIdempotencyChecker(1_000_000, dbChecker)
	if err != nil {
		return nil, err
	}

	return &Exchange{
		sequence:     startSequence,
		hasher:       NewStateHasher(),
		balances:     ledger.NewPendingBalances(),
		curve:        curve,
		registry:     registry,
		bank:         bank,
		contractAcct: ContractAccount(registry.ContractID()),
		idempotency:  idempotency,
		metrics:      metrics,
		logger:       logger,
		persistChan:  persistChan,
		publishChan:  publishChan,
	}, nil
}

// ProcessCall is the main processing pipeline. A duplicate call id is
// silently skipped: the first execution already settled, so the retry
// succeeds without re-applying.
func (e *Exchange) ProcessCall(call event.Call) (event.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processLocked(call)
}

// Replay re-executes a logged call during recovery. Channel emits are
// suppressed; the call is already durable.
func (e *Exchange) Replay(call event.Call) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.replaying = true
	defer func() { e.replaying = false }()

	_, err := e.processLocked(call)
	return err
}

func (e *Exchange) processLocked(call event.Call) (event.Result, error) {
	start := time.Now()
	op := call.Op().String()

	// Step 1: Idempotency check (two-tier). Skipped during replay: the log is
	// the source of the calls, so the cold tier would flag every one of them.
	if !e.replaying {
		dedupStart := time.Now()
		isDup, tier := e.idempotency.IsDuplicate(op, call.ID())
		if e.metrics != nil && tier == "postgres" {
			e.metrics.DedupTier2Duration.Observe(time.Since(dedupStart).Seconds())
		}
		if isDup {
			if e.metrics != nil {
				e.metrics.CallsRejected.WithLabelValues(op, "duplicate").Inc()
				e.metrics.IdempotencyDuplicates.WithLabelValues(op, tier).Inc()
			}
			return event.Result{}, nil
		}
	}

	// Step 2: Dispatch - validate and apply
	result, touched, err := e.dispatch(call)
	if err != nil {
		if e.metrics != nil {
			e.metrics.CallsRejected.WithLabelValues(op, "validation").Inc()
		}
		return event.Result{}, err
	}

	// Step 3: Post-checks
	if err := e.postCheckInvariants(touched); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated after %s: %v", op, err))
	}

	// Step 4: Compute state hash over the touched entries
	hashStart := time.Now()
	stateDigest := e.computeStateDigest(touched)
	prevHash := e.hasher.GetPrevHash()
	stateHash := e.hasher.ComputeHash(e.sequence, stateDigest)
	if e.metrics != nil {
		e.metrics.StateHashDur.Observe(time.Since(hashStart).Seconds())
	}

	payload, err := event.MarshalCall(call)
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot marshal applied call %s: %v", op, err))
	}

	envelope := &event.Envelope{
		Sequence:  e.sequence,
		CallID:    call.ID(),
		Op:        call.Op(),
		Caller:    call.Account(),
		Timestamp: call.Time(),
		Payload:   payload,
		Result:    result,
		StateHash: stateHash,
		PrevHash:  prevHash,
	}
	e.sequence++

	// Step 5: Emit. Persistence gets a BLOCKING send (backpressure stalls the
	// core so no applied call is lost); the publisher gets a NON-BLOCKING
	// send and may drop under load.
	if !e.replaying {
		output := CoreOutput{Envelope: envelope}
		select {
		case e.persistChan <- output:
		default:
			// Channel full: the core stalls here until the worker catches up.
			if e.metrics != nil {
				e.metrics.PersistBackpressure.Inc()
			}
			e.persistChan <- output
		}

		select {
		case e.publishChan <- output:
		default:
			if e.metrics != nil {
				e.metrics.PublishDrops.Inc()
			}
		}
	}

	// Step 6: Mark as processed
	e.idempotency.MarkProcessed(op, call.ID())

	if e.metrics != nil {
		e.metrics.CallsApplied.WithLabelValues(op).Inc()
		e.metrics.CallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		e.metrics.Sequence.Set(float64(e.sequence))
		e.metrics.DedupLRUSize.Set(float64(e.idempotency.Size()))
		e.metrics.SetPoolState(e.pool.ReserveNative, e.pool.ReserveAlt, e.pool.LPSupply)
		e.metrics.PendingTotal.WithLabelValues("native").Set(float64(e.balances.TotalPending(asset.Native)))
		e.metrics.PendingTotal.WithLabelValues("alt").Set(float64(e.balances.TotalPending(e.registry.AltID())))
	}

	e.logger.Debug().
		Str("op", op).
		Str("call_id", call.ID().String()).
		Int64("sequence", envelope.Sequence).
		Msg("call applied")

	return result, nil
}

func (e *Exchange) dispatch(call event.Call) (event.Result, []ledger.BalanceKey, error) {
	switch c := call.(type) {
	case *event.Deposit:
		return e.applyDeposit(c)
	case *event.Withdraw:
		return e.applyWithdraw(c)
	case *event.AddLiquidity:
		return e.applyAddLiquidity(c)
	case *event.RemoveLiquidity:
		return e.applyRemoveLiquidity(c)
	case *event.Swap:
		return e.applySwap(c)
	case *event.SwapUsingLiquidity:
		return e.applySwapUsingLiquidity(c)
	case *event.MintCoins:
		return e.applyMintCoins(c)
	case *event.TransferCoinsToOutput:
		return e.applyTransferCoinsToOutput(c)
	default:
		return event.Result{}, nil, fmt.Errorf("unknown call type: %T", call)
	}
}

// ensureSettledForReplay reconstructs external funding during replay. Settled
// coins enter the bank outside the call log, so replay mints the shortfall
// before a logged call spends them.
func (e *Exchange) ensureSettledForReplay(account uuid.UUID, a asset.ID, amount uint64) {
	if !e.replaying {
		return
	}
	held := e.bank.BalanceOf(account, a)
	if held >= amount {
		return
	}
	if err := e.bank.Mint(account, a, amount-held); err != nil {
		panic(fmt.Sprintf("FATAL: replay funding mint: %v", err))
	}
}

// applyDeposit moves attached coins into contract custody and credits the
// caller's pending balance.
func (e *Exchange) applyDeposit(c *event.Deposit) (event.Result, []ledger.BalanceKey, error) {
	if c.Amount == 0 {
		return event.Result{}, nil, fmt.Errorf("%w: deposit amount is zero", ErrInvalidAmount)
	}
	if !e.balances.CanCredit(c.Caller, c.Asset, c.Amount) {
		return event.Result{}, nil, fmt.Errorf("%w: pending balance would overflow", ErrInvalidAmount)
	}
	e.ensureSettledForReplay(c.Caller, c.Asset, c.Amount)
	if err := e.bank.Move(c.Caller, e.contractAcct, c.Asset, c.Amount); err != nil {
		return event.Result{}, nil, fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}
	e.balances.Credit(c.Caller, c.Asset, c.Amount)

	return event.Result{}, []ledger.BalanceKey{{Account: c.Caller, Asset: c.Asset}}, nil
}

// applyWithdraw debits the caller's pending balance and returns the coins to
// their settled balance.
func (e *Exchange) applyWithdraw(c *event.Withdraw) (event.Result, []ledger.BalanceKey, error) {
	if c.Amount == 0 {
		return event.Result{}, nil, fmt.Errorf("%w: withdraw amount is zero", ErrInvalidAmount)
	}
	if e.balances.Get(c.Caller, c.Asset) < c.Amount {
		return event.Result{}, nil, fmt.Errorf("%w: pending %d, withdrawing %d",
			ErrInsufficientBalance, e.balances.Get(c.Caller, c.Asset), c.Amount)
	}
	e.mustMove(e.contractAcct, c.Caller, c.Asset, c.Amount)
	if !e.balances.Debit(c.Caller, c.Asset, c.Amount) {
		panic("FATAL: pending debit failed after balance check")
	}

	return event.Result{}, []ledger.BalanceKey{{Account: c.Caller, Asset: c.Asset}}, nil
}

// applyMintCoins creates pool-share coins in the contract's own custody. The
// pool's accounted supply is untouched; only liquidity provision grows it.
func (e *Exchange) applyMintCoins(c *event.MintCoins) (event.Result, []ledger.BalanceKey, error) {
	if c.Amount == 0 {
		return event.Result{}, nil, fmt.Errorf("%w: mint amount is zero", ErrInvalidAmount)
	}
	if err := e.bank.Mint(e.contractAcct, e.registry.LPAssetID(), c.Amount); err != nil {
		return event.Result{}, nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return event.Result{}, nil, nil
}

// applyTransferCoinsToOutput pays coins out of contract custody. The transfer
// must not dip into amounts owed to depositors or locked in reserves.
func (e *Exchange) applyTransferCoinsToOutput(c *event.TransferCoinsToOutput) (event.Result, []ledger.BalanceKey, error) {
	if c.Amount == 0 {
		return event.Result{}, nil, fmt.Errorf("%w: transfer amount is zero", ErrInvalidAmount)
	}

	custody := e.bank.BalanceOf(e.contractAcct, c.Asset)
	obligations := e.balances.TotalPending(c.Asset) + e.reserveObligation(c.Asset)
	if custody < obligations || custody-obligations < c.Amount {
		return event.Result{}, nil, fmt.Errorf("%w: custody %d, obligations %d, transferring %d",
			ErrInsufficientBalance, custody, obligations, c.Amount)
	}

	e.mustMove(e.contractAcct, c.To, c.Asset, c.Amount)
	return event.Result{}, nil, nil
}

// reserveObligation is the amount of one asset locked in the pool reserves.
func (e *Exchange) reserveObligation(a asset.ID) uint64 {
	switch e.registry.Kind(a) {
	case asset.KindNative:
		return e.pool.ReserveNative
	case asset.KindAlt:
		return e.pool.ReserveAlt
	default:
		return 0
	}
}

// mustMove performs a custody transfer that the preceding validation proved
// possible. Failure here means custody accounting diverged from the ledger.
func (e *Exchange) mustMove(from, to uuid.UUID, a asset.ID, amount uint64) {
	if err := e.bank.Move(from, to, a, amount); err != nil {
		panic(fmt.Sprintf("FATAL: custody transfer failed after validation: %v", err))
	}
}

// computeStateDigest creates canonical bytes for the state hash: the pool
// record followed by every touched balance entry in sorted key order.
func (e *Exchange) computeStateDigest(touched []ledger.BalanceKey) []byte {
	keys := make([]ledger.BalanceKey, len(touched))
	copy(keys, touched)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Account != keys[j].Account {
			return keys[i].Account.String() < keys[j].Account.String()
		}
		return keys[i].Asset.String() < keys[j].Asset.String()
	})

	digest := make([]byte, 0, 24+len(keys)*56)
	digest = appendUint64LE(digest, e.pool.ReserveNative)
	digest = appendUint64LE(digest, e.pool.ReserveAlt)
	digest = appendUint64LE(digest, e.pool.LPSupply)

	for _, key := range keys {
		digest = append(digest, key.Account[:]...)
		digest = append(digest, key.Asset[:]...)
		digest = appendUint64LE(digest, e.balances.Get(key.Account, key.Asset))
	}

	return digest
}

func appendUint64LE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// postCheckInvariants validates solvency after a call applied: the pool
// record stays internally consistent and contract custody covers every
// pending balance plus the locked reserves, per touched asset.
func (e *Exchange) postCheckInvariants(touched []ledger.BalanceKey) error {
	if err := e.pool.CheckConsistent(); err != nil {
		return err
	}

	checked := map[asset.ID]bool{}
	assets := []asset.ID{asset.Native, e.registry.AltID()}
	for _, key := range touched {
		assets = append(assets, key.Asset)
	}

	for _, a := range assets {
		if checked[a] {
			continue
		}
		checked[a] = true

		custody := e.bank.BalanceOf(e.contractAcct, a)
		owed := e.balances.TotalPending(a) + e.reserveObligation(a)
		if custody < owed {
			return fmt.Errorf("custody shortfall for asset %s: holds %d, owes %d", a, custody, owed)
		}
	}

	return nil
}

// --- Snapshot Restore & Startup Methods ---

// PendingEntry is one pending balance row in a snapshot.
type PendingEntry struct {
	Account uuid.UUID `json:"account"`
	Asset   asset.ID  `json:"asset"`
	Amount  uint64    `json:"amount"`
}

// SnapshotState holds the serializable in-memory state for restore.
type SnapshotState struct {
	Sequence        int64                   `json:"sequence"`
	StateHash       [32]byte                `json:"state_hash"`
	Pool            pool.State              `json:"pool"`
	Pending         []PendingEntry          `json:"pending"`
	Bank            []transfer.BalanceEntry `json:"bank"`
	IdempotencyKeys []string                `json:"idempotency_keys"`
}

// CreateSnapshotState captures the current in-memory state for persistence.
func (e *Exchange) CreateSnapshotState() *SnapshotState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	balances := e.balances.Snapshot()
	pending := make([]PendingEntry, 0, len(balances))
	for key, amount := range balances {
		pending = append(pending, PendingEntry{Account: key.Account, Asset: key.Asset, Amount: amount})
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Account != pending[j].Account {
			return pending[i].Account.String() < pending[j].Account.String()
		}
		return pending[i].Asset.String() < pending[j].Asset.String()
	})

	var bankEntries []transfer.BalanceEntry
	if mb, ok := e.bank.(*transfer.MemoryBank); ok {
		bankEntries = mb.Entries()
		sort.Slice(bankEntries, func(i, j int) bool {
			if bankEntries[i].Account != bankEntries[j].Account {
				return bankEntries[i].Account.String() < bankEntries[j].Account.String()
			}
			return bankEntries[i].Asset.String() < bankEntries[j].Asset.String()
		})
	}

	return &SnapshotState{
		Sequence:        e.sequence - 1, // last processed sequence
		StateHash:       e.hasher.GetPrevHash(),
		Pool:            e.pool,
		Pending:         pending,
		Bank:            bankEntries,
		IdempotencyKeys: e.idempotency.Keys(),
	}
}

// RestoreFromSnapshot restores in-memory state. On warm restart the caller
// loads the latest snapshot, restores, then replays the calls logged after
// the snapshot sequence.
func (e *Exchange) RestoreFromSnapshot(snap *SnapshotState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sequence = snap.Sequence + 1 // next sequence to assign
	e.hasher.SetPrevHash(snap.StateHash)
	e.pool = snap.Pool

	e.balances = ledger.NewPendingBalances()
	for _, entry := range snap.Pending {
		e.balances.SetBalance(ledger.BalanceKey{Account: entry.Account, Asset: entry.Asset}, entry.Amount)
	}

	if mb, ok := e.bank.(*transfer.MemoryBank); ok {
		mb.Restore(snap.Bank)
	}

	e.idempotency.WarmFromKeys(snap.IdempotencyKeys)
}

// WarmLRU loads recent idempotency keys into the dedup cache.
func (e *Exchange) WarmLRU(keys []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idempotency.WarmFromKeys(keys)
}

// --- Read Accessors ---

// GetSequence returns the next sequence number to assign.
func (e *Exchange) GetSequence() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sequence
}

// GetStateHash returns the current state hash (chain tip).
func (e *Exchange) GetStateHash() [32]byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasher.GetPrevHash()
}

// PoolState returns a copy of the pool record.
func (e *Exchange) PoolState() pool.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool
}

// PendingBalance returns the caller's pending balance in one asset.
func (e *Exchange) PendingBalance(account uuid.UUID, a asset.ID) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balances.Get(account, a)
}

// PendingBalances returns all of the caller's pending entries.
func (e *Exchange) PendingBalances(account uuid.UUID) []PendingEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]PendingEntry, 0, 2)
	for key, amount := range e.balances.Snapshot() {
		if key.Account == account {
			out = append(out, PendingEntry{Account: key.Account, Asset: key.Asset, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset.String() < out[j].Asset.String() })
	return out
}

// Custody returns the contract's settled holdings in one asset.
func (e *Exchange) Custody(a asset.ID) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bank.BalanceOf(e.contractAcct, a)
}

// SettledBalance returns any holder's settled balance in one asset.
func (e *Exchange) SettledBalance(account uuid.UUID, a asset.ID) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bank.BalanceOf(account, a)
}

// ContractAcct returns the contract's custody account id.
func (e *Exchange) ContractAcct() uuid.UUID {
	return e.contractAcct
}

// Registry returns the asset registry the exchange classifies against.
func (e *Exchange) Registry() *asset.Registry {
	return e.registry
}
