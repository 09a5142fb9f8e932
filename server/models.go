package server

import (
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/wizard"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeBusy              = "SIMULATION_RUNNING"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeBackend           = "BACKEND_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// SessionResponse is returned by every wizard endpoint that changes state.
type SessionResponse struct {
	ID    string       `json:"id"`
	State wizard.State `json:"state"`
}

type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// AssetRequest selects a ticker in singleAsset mode or holdings in
// portfolio mode. File assets go through the upload endpoint.
type AssetRequest struct {
	Ticker   string           `json:"ticker"`
	Holdings []wizard.Holding `json:"holdings"`
}

type ColumnRequest struct {
	Column string `json:"column"`
}

type ColumnsResponse struct {
	Columns []string `json:"columns"`
}

type LexiconResponse struct {
	Catalog lexicon.Catalog `json:"catalog"`
	Hints   []lexicon.Hint  `json:"hints"`
}
