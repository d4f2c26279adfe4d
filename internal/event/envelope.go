package event

import (
	"time"

	"github.com/google/uuid"
)

// Op discriminator for call payloads
type Op int32

const (
	OpUnknown Op = iota
	OpDeposit
	OpWithdraw
	OpAddLiquidity
	OpRemoveLiquidity
	OpSwap
	OpSwapUsingLiquidity
	OpMintCoins
	OpTransferCoinsToOutput
)

// Envelope wraps every applied call in the log
type Envelope struct {
	// Global monotonic sequence assigned by the exchange core
	Sequence int64

	// Stable idempotency key chosen by the caller
	CallID uuid.UUID

	// Operation discriminator
	Op Op

	// Account the call executed as
	Caller uuid.UUID

	// Versioned input timestamp (NOT wall-clock)
	Timestamp time.Time

	// JSON-encoded call payload, replayable through ParseCall
	Payload []byte

	// Computed outputs of the call
	Result Result

	// SHA-256 of state AFTER applying this call
	StateHash [32]byte

	// Previous call's state hash (chain integrity)
	PrevHash [32]byte
}

// Result carries the amounts a call produced. Fields irrelevant to the
// operation are zero and omitted on the wire.
type Result struct {
	LPMinted      uint64 `json:"lp_minted,omitempty"`
	LPBurned      uint64 `json:"lp_burned,omitempty"`
	NativeOut     uint64 `json:"native_out,omitempty"`
	AltOut        uint64 `json:"alt_out,omitempty"`
	AmountOut     uint64 `json:"amount_out,omitempty"`
	ReserveNative uint64 `json:"reserve_native,omitempty"`
	ReserveAlt    uint64 `json:"reserve_alt,omitempty"`
	LPSupply      uint64 `json:"lp_supply,omitempty"`
}

// Call is the interface all call payloads implement
type Call interface {
	// ID returns the stable dedup key
	ID() uuid.UUID

	// Op returns the discriminator
	Op() Op

	// Account returns the caller the operation executes as
	Account() uuid.UUID

	// Time returns the versioned input timestamp
	Time() time.Time
}

func (op Op) String() string {
	switch op {
	case OpDeposit:
		return "Deposit"
	case OpWithdraw:
		return "Withdraw"
	case OpAddLiquidity:
		return "AddLiquidity"
	case OpRemoveLiquidity:
		return "RemoveLiquidity"
	case OpSwap:
		return "Swap"
	case OpSwapUsingLiquidity:
		return "SwapUsingLiquidity"
	case OpMintCoins:
		return "MintCoins"
	case OpTransferCoinsToOutput:
		return "TransferCoinsToOutput"
	default:
		return "Unknown"
	}
}

// ParseOp maps the wire name of an operation back to its discriminator.
func ParseOp(s string) Op {
	switch s {
	case "Deposit":
		return OpDeposit
	case "Withdraw":
		return OpWithdraw
	case "AddLiquidity":
		return OpAddLiquidity
	case "RemoveLiquidity":
		return OpRemoveLiquidity
	case "Swap":
		return OpSwap
	case "SwapUsingLiquidity":
		return OpSwapUsingLiquidity
	case "MintCoins":
		return OpMintCoins
	case "TransferCoinsToOutput":
		return OpTransferCoinsToOutput
	default:
		return OpUnknown
	}
}
