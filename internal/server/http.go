package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/core"
	"PoolLedger/internal/event"
	"PoolLedger/internal/observability"
	"PoolLedger/internal/pool"
	"PoolLedger/internal/query"
)

const (
	accountHeader   = "X-Account-Id"
	maxHistoryLimit = 500
)

// Server is the HTTP call surface of the exchange. Every mutating endpoint
// builds a typed call and hands it to the single-writer core; the caller's
// identity comes from the X-Account-Id header and the call timestamp is
// stamped at ingress so replay sees the same value the core saw.
type Server struct {
	ex      *core.Exchange
	queries *query.Service
	health  *observability.HealthChecker
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func New(
	ex *core.Exchange,
	queries *query.Service,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	return &Server{
		ex:      ex,
		queries: queries,
		health:  health,
		metrics: metrics,
		logger:  logger.With().Str("component", "http").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register mounts all routes on the fiber app.
func (s *Server) Register(app *fiber.App) {
	v1 := app.Group("/v1")

	v1.Post("/deposit", s.handleDeposit)
	v1.Post("/withdraw", s.handleWithdraw)
	v1.Post("/liquidity/add", s.handleAddLiquidity)
	v1.Post("/liquidity/remove", s.handleRemoveLiquidity)
	v1.Post("/swap", s.handleSwap)
	v1.Post("/swap/liquidity", s.handleSwapUsingLiquidity)
	v1.Post("/admin/mint", s.handleMintCoins)
	v1.Post("/admin/transfer", s.handleTransferCoinsToOutput)

	v1.Get("/balance", s.instrumented("balance", s.handleGetBalance))
	v1.Get("/balances", s.instrumented("balances", s.handleGetBalances))
	v1.Get("/custody", s.instrumented("custody", s.handleGetCustody))
	v1.Get("/pool", s.instrumented("pool", s.handleGetPool))
	v1.Get("/calls", s.instrumented("calls", s.handleGetCalls))
	v1.Get("/integrity", s.instrumented("integrity", s.handleIntegrity))

	app.Get("/healthz", s.handleHealthz)
	app.Get("/readyz", s.handleReadyz)
}

// instrumented wraps a query handler with request, latency and error metrics.
func (s *Server) instrumented(endpoint string, h fiber.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		if s.metrics == nil {
			return h(c)
		}
		start := time.Now()
		err := h(c)

		status := "ok"
		if err != nil {
			status = "error"
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			s.metrics.QueryErrors.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
		}
		s.metrics.QueryRequests.WithLabelValues(endpoint, status).Inc()
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}

// callResponse wraps the call result with the id the caller should retain for
// idempotent retries.
type callResponse struct {
	CallID uuid.UUID    `json:"call_id"`
	Result event.Result `json:"result"`
}

type transferRequest struct {
	CallID string `json:"call_id"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

type addLiquidityRequest struct {
	CallID       string `json:"call_id"`
	MinLiquidity uint64 `json:"min_liquidity"`
	MaxAltAmount uint64 `json:"max_alt_amount"`
}

type removeLiquidityRequest struct {
	CallID       string `json:"call_id"`
	LPAmount     uint64 `json:"lp_amount"`
	MinNativeOut uint64 `json:"min_native_out"`
	MinAltOut    uint64 `json:"min_alt_out"`
}

type swapRequest struct {
	CallID    string  `json:"call_id"`
	AssetIn   string  `json:"asset_in"`
	AssetOut  string  `json:"asset_out"` // swap/liquidity only
	AmountIn  uint64  `json:"amount_in"`
	MinOutput uint64  `json:"min_output"`
	FeeNum    *uint64 `json:"fee_num"`
	FeeDen    *uint64 `json:"fee_den"`
}

type mintRequest struct {
	CallID string `json:"call_id"`
	Amount uint64 `json:"amount"`
}

type payoutRequest struct {
	CallID string `json:"call_id"`
	To     string `json:"to"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

func (s *Server) caller(c fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get(accountHeader)
	if raw == "" {
		return uuid.Nil, errMissingAccount
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errMissingAccount
	}
	return id, nil
}

// parseCallID accepts an explicit idempotency key or mints one for callers
// that do not retry.
func parseCallID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid call_id")
	}
	return id, nil
}

func parseAsset(raw string) (asset.ID, error) {
	id, err := asset.Parse(raw)
	if err != nil {
		return asset.ID{}, fiber.NewError(fiber.StatusBadRequest, "invalid asset id")
	}
	return id, nil
}

func (s *Server) process(c fiber.Ctx, call event.Call) error {
	result, err := s.ex.ProcessCall(call)
	if err != nil {
		return mapCallError(c, err)
	}
	return c.JSON(callResponse{CallID: call.ID(), Result: result})
}

func (s *Server) handleDeposit(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	a, err := parseAsset(req.Asset)
	if err != nil {
		return err
	}
	return s.process(c, &event.Deposit{
		CallID:    callID,
		Caller:    caller,
		Asset:     a,
		Amount:    req.Amount,
		Timestamp: s.now(),
	})
}

func (s *Server) handleWithdraw(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	a, err := parseAsset(req.Asset)
	if err != nil {
		return err
	}
	return s.process(c, &event.Withdraw{
		CallID:    callID,
		Caller:    caller,
		Asset:     a,
		Amount:    req.Amount,
		Timestamp: s.now(),
	})
}

func (s *Server) handleAddLiquidity(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req addLiquidityRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	return s.process(c, &event.AddLiquidity{
		CallID:       callID,
		Caller:       caller,
		MinLiquidity: req.MinLiquidity,
		MaxAltAmount: req.MaxAltAmount,
		Timestamp:    s.now(),
	})
}

func (s *Server) handleRemoveLiquidity(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req removeLiquidityRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	return s.process(c, &event.RemoveLiquidity{
		CallID:       callID,
		Caller:       caller,
		LPAmount:     req.LPAmount,
		MinNativeOut: req.MinNativeOut,
		MinAltOut:    req.MinAltOut,
		Timestamp:    s.now(),
	})
}

// curveOverride builds a per-call fee override when both parts are present.
func curveOverride(req *swapRequest) (*pool.CurveParams, error) {
	if req.FeeNum == nil && req.FeeDen == nil {
		return nil, nil
	}
	if req.FeeNum == nil || req.FeeDen == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "fee_num and fee_den must be set together")
	}
	curve := &pool.CurveParams{FeeNum: *req.FeeNum, FeeDen: *req.FeeDen}
	if err := curve.Validate(); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid fee parameters")
	}
	return curve, nil
}

func (s *Server) handleSwap(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req swapRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	assetIn, err := parseAsset(req.AssetIn)
	if err != nil {
		return err
	}
	curve, err := curveOverride(&req)
	if err != nil {
		return err
	}
	return s.process(c, &event.Swap{
		CallID:    callID,
		Caller:    caller,
		AssetIn:   assetIn,
		AmountIn:  req.AmountIn,
		MinOutput: req.MinOutput,
		Curve:     curve,
		Timestamp: s.now(),
	})
}

func (s *Server) handleSwapUsingLiquidity(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req swapRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	assetIn, err := parseAsset(req.AssetIn)
	if err != nil {
		return err
	}
	assetOut, err := parseAsset(req.AssetOut)
	if err != nil {
		return err
	}
	curve, err := curveOverride(&req)
	if err != nil {
		return err
	}
	return s.process(c, &event.SwapUsingLiquidity{
		CallID:    callID,
		Caller:    caller,
		AssetIn:   assetIn,
		AssetOut:  assetOut,
		AmountIn:  req.AmountIn,
		MinOutput: req.MinOutput,
		Curve:     curve,
		Timestamp: s.now(),
	})
}

func (s *Server) handleMintCoins(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req mintRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	return s.process(c, &event.MintCoins{
		CallID:    callID,
		Caller:    caller,
		Amount:    req.Amount,
		Timestamp: s.now(),
	})
}

func (s *Server) handleTransferCoinsToOutput(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	var req payoutRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	callID, err := parseCallID(req.CallID)
	if err != nil {
		return err
	}
	to, err := uuid.Parse(req.To)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid to account")
	}
	a, err := parseAsset(req.Asset)
	if err != nil {
		return err
	}
	return s.process(c, &event.TransferCoinsToOutput{
		CallID:    callID,
		Caller:    caller,
		To:        to,
		Asset:     a,
		Amount:    req.Amount,
		Timestamp: s.now(),
	})
}

func (s *Server) handleGetBalance(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}
	a, err := parseAsset(c.Query("asset"))
	if err != nil {
		return err
	}
	return c.JSON(s.queries.GetBalance(caller, a))
}

func (s *Server) handleGetBalances(c fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return err
	}

	// An explicit pair returns exactly those two balances; otherwise every
	// entry the account holds.
	if c.Query("asset_a") != "" || c.Query("asset_b") != "" {
		assetA, err := parseAsset(c.Query("asset_a"))
		if err != nil {
			return err
		}
		assetB, err := parseAsset(c.Query("asset_b"))
		if err != nil {
			return err
		}
		return c.JSON(s.queries.GetBalancePair(caller, assetA, assetB))
	}

	return c.JSON(s.queries.GetBalances(caller))
}

func (s *Server) handleGetCustody(c fiber.Ctx) error {
	a, err := parseAsset(c.Query("asset"))
	if err != nil {
		return err
	}

	var holder *uuid.UUID
	if raw := c.Query("holder"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid holder")
		}
		holder = &id
	}

	return c.JSON(s.queries.GetCustody(holder, a))
}

func (s *Server) handleGetPool(c fiber.Ctx) error {
	return c.JSON(s.queries.GetPool())
}

func (s *Server) handleGetCalls(c fiber.Ctx) error {
	var callerFilter *uuid.UUID
	if raw := c.Query("caller"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid caller filter")
		}
		callerFilter = &id
	}

	limit := fiber.Query(c, "limit", 100)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var before *int64
	if raw := c.Query("before"); raw != "" {
		seq, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid before cursor")
		}
		before = &seq
	}

	entries, err := s.queries.GetCallHistory(c.Context(), callerFilter, limit, before)
	if err != nil {
		s.logger.Error().Err(err).Msg("call history query failed")
		return fiber.NewError(fiber.StatusInternalServerError, "query failed")
	}
	return c.JSON(fiber.Map{"calls": entries})
}

func (s *Server) handleIntegrity(c fiber.Ctx) error {
	report, err := s.queries.VerifyIntegrity(c.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("integrity check failed")
		return fiber.NewError(fiber.StatusInternalServerError, "integrity check failed")
	}
	return c.JSON(report)
}

func (s *Server) handleHealthz(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"uptime_s": int64(s.health.Uptime().Seconds()),
	})
}

func (s *Server) handleReadyz(c fiber.Ctx) error {
	if !s.health.IsReady() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready"})
	}
	return c.JSON(fiber.Map{
		"status":   "ready",
		"sequence": s.ex.GetSequence(),
	})
}
