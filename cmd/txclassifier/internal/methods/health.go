package methods

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

type HealthCheckResult struct {
	Status                 string `json:"status"`
	HistoryRetentionWindow uint32 `json:"historyRetentionWindow"`
}

type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// NewHealthCheck returns a health check json rpc handler
func NewHealthCheck(retentionWindow uint32, checker ReadinessChecker) jrpc2.Handler {
	return handler.New(func(ctx context.Context) (HealthCheckResult, error) {
		if err := checker.Ready(ctx); err != nil {
			return HealthCheckResult{}, &jrpc2.Error{
				Code:    jrpc2.InternalError,
				Message: "classification history is not available: " + err.Error(),
			}
		}
		return HealthCheckResult{
			Status:                 "healthy",
			HistoryRetentionWindow: retentionWindow,
		}, nil
	})
}
