package methods

import (
	"context"
	"errors"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/config"
)

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) Ready(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	result, err := call(t, NewHealthCheck(42, newTestDB(t)), "")
	require.NoError(t, err)
	assert.Equal(t, HealthCheckResult{Status: "healthy", HistoryRetentionWindow: 42}, result)

	unavailable := readinessFunc(func(context.Context) error { return errors.New("sql: database is closed") })
	_, err = call(t, NewHealthCheck(42, unavailable), "")
	requireJSONRPCError(t, err, jrpc2.InternalError)
	assert.Contains(t, err.Error(), "database is closed")
}

func TestGetVersionInfo(t *testing.T) {
	result, err := call(t, NewGetVersionInfoHandler(), "")
	require.NoError(t, err)
	assert.Equal(t, GetVersionInfoResponse{
		Version:        config.Version,
		CommitHash:     config.CommitHash,
		BuildTimestamp: config.BuildTimestamp,
		Branch:         config.Branch,
	}, result)
}
