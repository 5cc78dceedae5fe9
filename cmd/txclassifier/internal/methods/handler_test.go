package methods

import (
	"context"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandlerNoArrayParameters(t *testing.T) {
	callCount := 0
	f := func(_ context.Context, request GetClassificationsRequest) error {
		callCount++
		assert.Equal(t, "payment", request.Class)
		return nil
	}
	parse := func(params string) *jrpc2.Request {
		requests, err := jrpc2.ParseRequests([]byte(
			`{"jsonrpc": "2.0", "id": 1, "method": "getClassifications", "params": ` + params + `}`))
		require.NoError(t, err)
		require.Len(t, requests, 1)
		return requests[0].ToRequest()
	}
	customHandler := NewHandler(f)

	// object parameters should work with our handlers
	_, err := customHandler(context.Background(), parse(`{"class": "payment"}`))
	require.NoError(t, err)
	require.Equal(t, 1, callCount)

	// array requests work with the stock handler, but not with ours
	_, err = handler.New(f)(context.Background(), parse(`["payment"]`))
	require.NoError(t, err)
	require.Equal(t, 2, callCount)

	_, err = customHandler(context.Background(), parse(`["payment"]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid parameters")
	require.Equal(t, 2, callCount)
}
