package methods

import (
	"context"
	"path"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/stretchr/testify/require"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
)

func newTestDB(t *testing.T) *db.DB {
	database, err := db.OpenSQLiteDB(path.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})
	return database
}

// call invokes h with params as the object parameters, or none if params is empty.
func call(t *testing.T, h jrpc2.Handler, params string) (any, error) {
	request := `{"jsonrpc": "2.0", "id": 1, "method": "test"`
	if params != "" {
		request += `, "params": ` + params
	}
	requests, err := jrpc2.ParseRequests([]byte(request + "}"))
	require.NoError(t, err)
	require.Len(t, requests, 1)
	return h(context.Background(), requests[0].ToRequest())
}
