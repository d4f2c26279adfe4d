package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"PoolLedger/internal/core"
)

// errorBody is the JSON error shape for every failed call. Code is stable and
// machine-readable; Error is for humans.
type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Validation failures map to 400; failures that depend on current exchange
// state (balances, reserves, price movement) map to 409 so clients can tell
// "fix the request" from "retry later or requote".
func mapCallError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{"invalid_amount", err.Error()})
	case errors.Is(err, core.ErrInvalidLiquidity):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{"invalid_liquidity", err.Error()})
	case errors.Is(err, core.ErrBelowMinimum):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{"below_minimum", err.Error()})
	case errors.Is(err, core.ErrInsufficientBalance):
		return c.Status(fiber.StatusConflict).JSON(errorBody{"insufficient_balance", err.Error()})
	case errors.Is(err, core.ErrSlippageExceeded):
		return c.Status(fiber.StatusConflict).JSON(errorBody{"slippage_exceeded", err.Error()})
	case errors.Is(err, core.ErrUninitialized):
		return c.Status(fiber.StatusConflict).JSON(errorBody{"uninitialized", err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{"internal", "call failed"})
	}
}

var errMissingAccount = fiber.NewError(fiber.StatusBadRequest, "missing or invalid X-Account-Id header")
