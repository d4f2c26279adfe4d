package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/pool"
)

// ParseCall converts a stored payload (JSON bytes + operation name) back into
// a typed Call. Replay runs every logged call through this before re-applying
// it, so the wire formats here are the durable shape of the log.
func ParseCall(op string, data []byte) (Call, error) {
	switch ParseOp(op) {
	case OpDeposit:
		return parseDeposit(data)
	case OpWithdraw:
		return parseWithdraw(data)
	case OpAddLiquidity:
		return parseAddLiquidity(data)
	case OpRemoveLiquidity:
		return parseRemoveLiquidity(data)
	case OpSwap:
		return parseSwap(data)
	case OpSwapUsingLiquidity:
		return parseSwapUsingLiquidity(data)
	case OpMintCoins:
		return parseMintCoins(data)
	case OpTransferCoinsToOutput:
		return parseTransferCoinsToOutput(data)
	default:
		return nil, fmt.Errorf("unknown operation: %s", op)
	}
}

// MarshalCall renders a typed Call into the payload bytes ParseCall accepts.
func MarshalCall(c Call) ([]byte, error) {
	switch v := c.(type) {
	case *Deposit:
		return json.Marshal(transferJSON{
			CallID:      v.CallID.String(),
			Caller:      v.Caller.String(),
			Asset:       v.Asset.String(),
			Amount:      v.Amount,
			TimestampUs: v.Timestamp.UnixMicro(),
		})
	case *Withdraw:
		return json.Marshal(transferJSON{
			CallID:      v.CallID.String(),
			Caller:      v.Caller.String(),
			Asset:       v.Asset.String(),
			Amount:      v.Amount,
			TimestampUs: v.Timestamp.UnixMicro(),
		})
	case *AddLiquidity:
		return json.Marshal(addLiquidityJSON{
			CallID:       v.CallID.String(),
			Caller:       v.Caller.String(),
			MinLiquidity: v.MinLiquidity,
			MaxAltAmount: v.MaxAltAmount,
			TimestampUs:  v.Timestamp.UnixMicro(),
		})
	case *RemoveLiquidity:
		return json.Marshal(removeLiquidityJSON{
			CallID:       v.CallID.String(),
			Caller:       v.Caller.String(),
			LPAmount:     v.LPAmount,
			MinNativeOut: v.MinNativeOut,
			MinAltOut:    v.MinAltOut,
			TimestampUs:  v.Timestamp.UnixMicro(),
		})
	case *Swap:
		return json.Marshal(swapJSON{
			CallID:      v.CallID.String(),
			Caller:      v.Caller.String(),
			AssetIn:     v.AssetIn.String(),
			AmountIn:    v.AmountIn,
			MinOutput:   v.MinOutput,
			Curve:       v.Curve,
			TimestampUs: v.Timestamp.UnixMicro(),
		})
	case *SwapUsingLiquidity:
		return json.Marshal(swapJSON{
			CallID:      v.CallID.String(),
			Caller:      v.Caller.String(),
			AssetIn:     v.AssetIn.String(),
			AssetOut:    v.AssetOut.String(),
			AmountIn:    v.AmountIn,
			MinOutput:   v.MinOutput,
			Curve:       v.Curve,
			TimestampUs: v.Timestamp.UnixMicro(),
		})
	case *MintCoins:
		return json.Marshal(mintJSON{
			CallID:      v.CallID.String(),
			Caller:      v.Caller.String(),
			Amount:      v.Amount,
			TimestampUs: v.Timestamp.UnixMicro(),
		})
	case *TransferCoinsToOutput:
		return json.Marshal(payoutJSON{
			CallID:      v.CallID.String(),
			Caller:      v.Caller.String(),
			To:          v.To.String(),
			Asset:       v.Asset.String(),
			Amount:      v.Amount,
			TimestampUs: v.Timestamp.UnixMicro(),
		})
	default:
		return nil, fmt.Errorf("unknown call type %T", c)
	}
}

// --- JSON wire formats ---
// These structs are the durable shape of call payloads in the log.
// Field names use snake_case to match the rest of the wire surface.

type transferJSON struct {
	CallID      string `json:"call_id"`
	Caller      string `json:"caller"`
	Asset       string `json:"asset"`
	Amount      uint64 `json:"amount"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseDeposit(data []byte) (*Deposit, error) {
	var j transferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Deposit: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	a, err := asset.Parse(j.Asset)
	if err != nil {
		return nil, fmt.Errorf("parse asset: %w", err)
	}
	return &Deposit{
		CallID:    callID,
		Caller:    caller,
		Asset:     a,
		Amount:    j.Amount,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

func parseWithdraw(data []byte) (*Withdraw, error) {
	var j transferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Withdraw: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	a, err := asset.Parse(j.Asset)
	if err != nil {
		return nil, fmt.Errorf("parse asset: %w", err)
	}
	return &Withdraw{
		CallID:    callID,
		Caller:    caller,
		Asset:     a,
		Amount:    j.Amount,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type addLiquidityJSON struct {
	CallID       string `json:"call_id"`
	Caller       string `json:"caller"`
	MinLiquidity uint64 `json:"min_liquidity"`
	MaxAltAmount uint64 `json:"max_alt_amount"`
	TimestampUs  int64  `json:"timestamp_us"`
}

func parseAddLiquidity(data []byte) (*AddLiquidity, error) {
	var j addLiquidityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse AddLiquidity: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	return &AddLiquidity{
		CallID:       callID,
		Caller:       caller,
		MinLiquidity: j.MinLiquidity,
		MaxAltAmount: j.MaxAltAmount,
		Timestamp:    time.UnixMicro(j.TimestampUs),
	}, nil
}

type removeLiquidityJSON struct {
	CallID       string `json:"call_id"`
	Caller       string `json:"caller"`
	LPAmount     uint64 `json:"lp_amount"`
	MinNativeOut uint64 `json:"min_native_out"`
	MinAltOut    uint64 `json:"min_alt_out"`
	TimestampUs  int64  `json:"timestamp_us"`
}

func parseRemoveLiquidity(data []byte) (*RemoveLiquidity, error) {
	var j removeLiquidityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse RemoveLiquidity: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	return &RemoveLiquidity{
		CallID:       callID,
		Caller:       caller,
		LPAmount:     j.LPAmount,
		MinNativeOut: j.MinNativeOut,
		MinAltOut:    j.MinAltOut,
		Timestamp:    time.UnixMicro(j.TimestampUs),
	}, nil
}

type swapJSON struct {
	CallID      string            `json:"call_id"`
	Caller      string            `json:"caller"`
	AssetIn     string            `json:"asset_in"`
	AssetOut    string            `json:"asset_out,omitempty"`
	AmountIn    uint64            `json:"amount_in"`
	MinOutput   uint64            `json:"min_output"`
	Curve       *pool.CurveParams `json:"curve,omitempty"`
	TimestampUs int64             `json:"timestamp_us"`
}

func parseSwap(data []byte) (*Swap, error) {
	var j swapJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Swap: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	assetIn, err := asset.Parse(j.AssetIn)
	if err != nil {
		return nil, fmt.Errorf("parse asset_in: %w", err)
	}
	return &Swap{
		CallID:    callID,
		Caller:    caller,
		AssetIn:   assetIn,
		AmountIn:  j.AmountIn,
		MinOutput: j.MinOutput,
		Curve:     j.Curve,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

func parseSwapUsingLiquidity(data []byte) (*SwapUsingLiquidity, error) {
	var j swapJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SwapUsingLiquidity: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	assetIn, err := asset.Parse(j.AssetIn)
	if err != nil {
		return nil, fmt.Errorf("parse asset_in: %w", err)
	}
	assetOut, err := asset.Parse(j.AssetOut)
	if err != nil {
		return nil, fmt.Errorf("parse asset_out: %w", err)
	}
	return &SwapUsingLiquidity{
		CallID:    callID,
		Caller:    caller,
		AssetIn:   assetIn,
		AssetOut:  assetOut,
		AmountIn:  j.AmountIn,
		MinOutput: j.MinOutput,
		Curve:     j.Curve,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type mintJSON struct {
	CallID      string `json:"call_id"`
	Caller      string `json:"caller"`
	Amount      uint64 `json:"amount"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseMintCoins(data []byte) (*MintCoins, error) {
	var j mintJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse MintCoins: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	return &MintCoins{
		CallID:    callID,
		Caller:    caller,
		Amount:    j.Amount,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

type payoutJSON struct {
	CallID      string `json:"call_id"`
	Caller      string `json:"caller"`
	To          string `json:"to"`
	Asset       string `json:"asset"`
	Amount      uint64 `json:"amount"`
	TimestampUs int64  `json:"timestamp_us"`
}

func parseTransferCoinsToOutput(data []byte) (*TransferCoinsToOutput, error) {
	var j payoutJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse TransferCoinsToOutput: %w", err)
	}
	callID, caller, err := parseIdentity(j.CallID, j.Caller)
	if err != nil {
		return nil, err
	}
	to, err := uuid.Parse(j.To)
	if err != nil {
		return nil, fmt.Errorf("parse to: %w", err)
	}
	a, err := asset.Parse(j.Asset)
	if err != nil {
		return nil, fmt.Errorf("parse asset: %w", err)
	}
	return &TransferCoinsToOutput{
		CallID:    callID,
		Caller:    caller,
		To:        to,
		Asset:     a,
		Amount:    j.Amount,
		Timestamp: time.UnixMicro(j.TimestampUs),
	}, nil
}

func parseIdentity(callID, caller string) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(callID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parse call_id: %w", err)
	}
	acct, err := uuid.Parse(caller)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("parse caller: %w", err)
	}
	return id, acct, nil
}
