package methods

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/creachadair/jrpc2"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/go/support/log"
	"github.com/stellar/go/xdr"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/daemon/interfaces"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr/xdrtest"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/txresult"
)

type failingWriter struct{}

func (failingWriter) InsertClassification(context.Context, db.Classification) (db.Classification, error) {
	return db.Classification{}, errors.New("disk full")
}

func classify(t *testing.T, h jrpc2.Handler, params string) ClassifyTransactionResultResponse {
	result, err := call(t, h, params)
	require.NoError(t, err)
	return result.(ClassifyTransactionResultResponse)
}

func counterValue(t *testing.T, daemon interfaces.Daemon, class, resultCode string) float64 {
	metricFamilies, err := daemon.MetricsRegistry().Gather()
	require.NoError(t, err)
	var metric *io_prometheus_client.MetricFamily
	for _, mf := range metricFamilies {
		if mf.GetName() == "txclassifier_classifier_classifications_total" {
			metric = mf
			break
		}
	}
	require.NotNil(t, metric)
	for _, m := range metric.Metric {
		labels := map[string]string{}
		for _, label := range m.GetLabel() {
			labels[label.GetName()] = label.GetValue()
		}
		if labels["class"] == class && labels["result_code"] == resultCode {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestClassifyTransactionResultInvalidParams(t *testing.T) {
	h := NewClassifyTransactionResultHandler(log.DefaultLogger, interfaces.MakeNoOpDaemon(),
		failingWriter{}, resultxdr.LayoutBare)

	for _, params := range []string{
		`{}`,
		fmt.Sprintf(`{"resultXdr": %q, "response": {"result_xdr": %q}}`,
			xdrtest.Result(0).Base64(), xdrtest.Result(0).Base64()),
		fmt.Sprintf(`{"resultXdr": %q, "layout": "raw"}`, xdrtest.Result(0).Base64()),
	} {
		_, err := call(t, h, params)
		var jsonRPCErr *jrpc2.Error
		require.ErrorAs(t, err, &jsonRPCErr, params)
		assert.Equal(t, jrpc2.InvalidParams, jsonRPCErr.Code)
	}
	assert.Contains(t, fmt.Sprint(errInvalidLayout), "bare, ledger")
}

func TestClassifyTransactionResult(t *testing.T) {
	ctx := context.Background()
	daemon := interfaces.MakeNoOpDaemon()
	store := db.NewClassificationStore(log.DefaultLogger, newTestDB(t), daemon, 10)
	h := NewClassifyTransactionResultHandler(log.DefaultLogger, daemon, store, resultxdr.LayoutBare)

	t.Run("success", func(t *testing.T) {
		result := classify(t, h, fmt.Sprintf(`{"resultXdr": %q}`, xdrtest.Result(0).Base64()))
		assert.Equal(t, ClassificationStatusSuccess, result.Status)
		assert.Equal(t, txresult.ClassSuccess, result.Class)
		assert.Empty(t, result.Operations)
		require.NotEmpty(t, result.ID)

		stored, err := store.GetClassification(ctx, result.ID)
		require.NoError(t, err)
		assert.Equal(t, "bare", stored.Layout)
		assert.Nil(t, stored.Envelope)
	})

	t.Run("transaction error", func(t *testing.T) {
		result := classify(t, h, fmt.Sprintf(`{"response": {"extras": {"result_xdr": %q}}}`,
			xdrtest.Result(-5).Base64()))
		assert.Equal(t, ClassificationStatusFailed, result.Status)
		assert.Equal(t, txresult.Classification{
			Class:      txresult.ClassTransaction,
			Code:       -5,
			ResultCode: "tx_bad_seq",
			Message:    txresult.TxBadSeq.Error(),
		}, result.Classification)

		stored, err := store.GetClassification(ctx, result.ID)
		require.NoError(t, err)
		assert.JSONEq(t, fmt.Sprintf(`{"extras": {"result_xdr": %q}}`, xdrtest.Result(-5).Base64()),
			string(stored.Envelope))
	})

	t.Run("operations", func(t *testing.T) {
		record := xdrtest.FailedResult(
			xdrtest.InnerOp(1, 0),
			xdrtest.InnerOp(1, -2),
			xdrtest.InnerOp(0, -4),
		).Base64()
		result := classify(t, h, fmt.Sprintf(`{"resultXdr": %q}`, record))
		assert.Equal(t, ClassificationStatusFailed, result.Status)
		// the first operation succeeded, so the record is not attributable
		assert.Equal(t, txresult.ClassUnknown, result.Class)
		require.Len(t, result.Operations, 3)
		assert.Equal(t, OperationClassification{Index: 0, Classification: txresult.Classification{Class: txresult.ClassSuccess}},
			result.Operations[0])
		assert.Equal(t, "op_underfunded", result.Operations[1].ResultCode)
		assert.Equal(t, txresult.ClassPayment, result.Operations[1].Class)
		assert.Equal(t, "op_already_exists", result.Operations[2].ResultCode)
		assert.Equal(t, 2, result.Operations[2].Index)
	})

	t.Run("unknown", func(t *testing.T) {
		result := classify(t, h, `{"response": {"status": 400}}`)
		assert.Equal(t, ClassificationStatusFailed, result.Status)
		assert.Equal(t, txresult.ClassUnknown, result.Class)
		assert.Equal(t, "unknown transaction error: no result_xdr field", result.Message)
		assert.Empty(t, result.Operations)
		require.NotEmpty(t, result.ID)
	})

	t.Run("ledger layout", func(t *testing.T) {
		record, err := xdr.MarshalBase64(xdr.TransactionResult{
			FeeCharged: 300,
			Result: xdr.TransactionResultResult{
				Code: xdr.TransactionResultCodeTxInsufficientFee,
			},
		})
		require.NoError(t, err)
		result := classify(t, h, fmt.Sprintf(`{"resultXdr": %q, "layout": "ledger"}`, record))
		assert.Equal(t, "tx_insufficient_fee", result.ResultCode)
		assert.Equal(t, int64(300), result.FeeCharged)

		stored, err := store.GetClassification(ctx, result.ID)
		require.NoError(t, err)
		assert.Equal(t, "ledger", stored.Layout)
		assert.Equal(t, record, stored.ResultXDR)
	})

	assert.Equal(t, 1.0, counterValue(t, daemon, txresult.ClassTransaction, "tx_bad_seq"))
	assert.Equal(t, 1.0, counterValue(t, daemon, txresult.ClassSuccess, ""))
	assert.Equal(t, 2.0, counterValue(t, daemon, txresult.ClassUnknown, ""))
}

func TestClassifyTransactionResultStoreFailure(t *testing.T) {
	h := NewClassifyTransactionResultHandler(log.DefaultLogger, interfaces.MakeNoOpDaemon(),
		failingWriter{}, resultxdr.LayoutBare)

	result := classify(t, h, fmt.Sprintf(`{"resultXdr": %q}`, xdrtest.FailedResult(xdrtest.InnerOp(1, -5)).Base64()))
	assert.Equal(t, "op_no_destination", result.ResultCode)
	assert.Empty(t, result.ID)
}
