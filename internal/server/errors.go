package server

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// ErrValidation indicates a missing or malformed tool argument
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// errorKind classifies an error for the caller of a tool.
func errorKind(err error) string {
	var ve *ErrValidation
	switch {
	case errors.As(err, &ve), errors.Is(err, types.ErrInvalidStatus):
		return "invalid argument"
	case errors.Is(err, db.ErrNotFound):
		return "not found"
	default:
		return "internal error"
	}
}

// toolError turns err into a tool result flagged as an error. Tool failures are reported
// in the result, not as protocol errors, so the client can show them.
func toolError(op string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: failed to %s: %v", errorKind(err), op, err))
}
