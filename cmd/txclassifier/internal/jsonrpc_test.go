package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/config"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/daemon/interfaces"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr/xdrtest"
)

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, maxRequestSize uint) (*httptest.Server, *interfaces.NoOpDaemon) {
	database, err := db.OpenSQLiteDB(path.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)

	daemon := interfaces.MakeNoOpDaemon()
	cfg := &config.Config{
		CORSAllowedOrigins: []string{"*"},
		ResultLayout:       resultxdr.LayoutBare,
		HistoryRetention:   10,
		RequestTimeout:     5 * time.Second,
		MaxRequestSize:     maxRequestSize,
	}
	handler := NewJSONRPCHandler(cfg, HandlerParams{
		ClassificationStore: db.NewClassificationStore(log.DefaultLogger, database, daemon, cfg.HistoryRetention),
		ReadinessChecker:    database,
		Logger:              log.DefaultLogger,
		Daemon:              daemon,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		handler.Close()
		require.NoError(t, database.Close())
	})
	return server, daemon
}

func post(t *testing.T, server *httptest.Server, body string) (*http.Response, rpcResponse) {
	response, err := http.Post(server.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer response.Body.Close()
	var decoded rpcResponse
	if response.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))
	}
	return response, decoded
}

func TestJSONRPCClassify(t *testing.T) {
	server, daemon := newTestServer(t, 1024)

	_, decoded := post(t, server, fmt.Sprintf(
		`{"jsonrpc": "2.0", "id": 1, "method": "classifyTransactionResult", "params": {"resultXdr": %q}}`,
		xdrtest.FailedResult(xdrtest.InnerOp(1, -2)).Base64()))
	require.Nil(t, decoded.Error)
	var result struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		Class      string `json:"class"`
		ResultCode string `json:"resultCode"`
	}
	require.NoError(t, json.Unmarshal(decoded.Result, &result))
	assert.Equal(t, "FAILED", result.Status)
	assert.Equal(t, "payment", result.Class)
	assert.Equal(t, "op_underfunded", result.ResultCode)
	assert.NotEmpty(t, result.ID)

	_, decoded = post(t, server, `{"jsonrpc": "2.0", "id": 2, "method": "getClassificationStats"}`)
	require.Nil(t, decoded.Error)
	assert.Contains(t, string(decoded.Result), `"payment":1`)

	_, decoded = post(t, server, `{"jsonrpc": "2.0", "id": 3, "method": "classifyTransactionResult", "params": {}}`)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, -32602, decoded.Error.Code)

	metricFamilies, err := daemon.MetricsRegistry().Gather()
	require.NoError(t, err)
	statuses := map[string]uint64{}
	for _, mf := range metricFamilies {
		if mf.GetName() != "txclassifier_json_rpc_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "status" {
					statuses[label.GetValue()] += m.GetSummary().GetSampleCount()
				}
			}
		}
	}
	assert.Equal(t, uint64(2), statuses["ok"])
	assert.Equal(t, uint64(1), statuses["invalid_parameters"])
}

func TestJSONRPCHealth(t *testing.T) {
	server, _ := newTestServer(t, 1024)
	_, decoded := post(t, server, `{"jsonrpc": "2.0", "id": 1, "method": "getHealth"}`)
	require.Nil(t, decoded.Error)
	assert.JSONEq(t, `{"status": "healthy", "historyRetentionWindow": 10}`, string(decoded.Result))
}

func TestJSONRPCRequestTooLarge(t *testing.T) {
	server, _ := newTestServer(t, 64)
	body := fmt.Sprintf(`{"jsonrpc": "2.0", "id": 1, "method": "classifyTransactionResult", "params": {"resultXdr": %q}}`,
		strings.Repeat("A", 128))
	response, _ := post(t, server, body)
	assert.NotEqual(t, http.StatusOK, response.StatusCode)
}

func TestJSONRPCCORS(t *testing.T) {
	server, _ := newTestServer(t, 1024)
	request, err := http.NewRequest(http.MethodOptions, server.URL, nil)
	require.NoError(t, err)
	request.Header.Set("Origin", "https://wallet.example")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, "*", response.Header.Get("Access-Control-Allow-Origin"))
}
