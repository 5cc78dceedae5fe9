package methods

import (
	"context"
	"encoding/json"

	"github.com/creachadair/jrpc2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/daemon/interfaces"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/txresult"
)

const (
	ClassificationStatusSuccess = "SUCCESS"
	ClassificationStatusFailed  = "FAILED"
)

type ClassifyTransactionResultRequest struct {
	// ResultXDR is a base64 result record. Exclusive with Response.
	ResultXDR string `json:"resultXdr,omitempty"`
	// Response is a submission error envelope holding a result_xdr field,
	// either at the top level or under "extras".
	Response map[string]any `json:"response,omitempty"`
	Layout   string         `json:"layout,omitempty"`
}

type OperationClassification struct {
	Index int `json:"index"`
	txresult.Classification
}

type ClassifyTransactionResultResponse struct {
	// ID identifies the stored classification, empty when it could not be recorded.
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	txresult.Classification
	// FeeCharged is only known for the ledger layout.
	FeeCharged int64                     `json:"feeCharged,omitempty"`
	Operations []OperationClassification `json:"operations,omitempty"`
}

// NewClassifyTransactionResultResponse flattens analysis, made from the
// response envelope when not nil, into a method response without an ID.
func NewClassifyTransactionResultResponse(analysis txresult.Analysis, response map[string]any) ClassifyTransactionResultResponse {
	result := ClassifyTransactionResultResponse{
		Status:         ClassificationStatusFailed,
		Classification: txresult.Describe(analysis.Err),
	}
	if analysis.Err == nil {
		result.Status = ClassificationStatusSuccess
	}
	if analysis.Outcome != nil {
		result.FeeCharged = analysis.Outcome.FeeCharged
		for i, opErr := range txresult.ClassifyOperations(*analysis.Outcome, response) {
			result.Operations = append(result.Operations, OperationClassification{
				Index:          i,
				Classification: txresult.Describe(opErr),
			})
		}
	}
	return result
}

// NewClassifyTransactionResultHandler returns a json rpc handler classifying
// result records and recording them in the classification history.
func NewClassifyTransactionResultHandler(
	logger *log.Entry,
	daemon interfaces.Daemon,
	store db.ClassificationWriter,
	defaultLayout resultxdr.Layout,
) jrpc2.Handler {
	classificationsCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: daemon.MetricsNamespace(), Subsystem: "classifier", Name: "classifications_total",
		Help: "number of classified transaction results, by class and result code",
	}, []string{"class", "result_code"})
	daemon.MetricsRegistry().MustRegister(classificationsCounter)

	return NewHandler(func(ctx context.Context, request ClassifyTransactionResultRequest) (ClassifyTransactionResultResponse, error) {
		if (request.ResultXDR == "") == (request.Response == nil) {
			return ClassifyTransactionResultResponse{}, invalidParams("exactly one of 'resultXdr' or 'response' is required")
		}
		layout := defaultLayout
		if request.Layout != "" {
			var err error
			if layout, err = resultxdr.ParseLayout(request.Layout); err != nil {
				return ClassifyTransactionResultResponse{}, invalidParams("%s", errInvalidLayout)
			}
		}

		var analysis txresult.Analysis
		classifier := txresult.Classifier{Layout: layout}
		if request.Response != nil {
			analysis = classifier.Analyze(request.Response)
		} else {
			analysis = classifier.AnalyzeXDR(request.ResultXDR)
		}

		result := NewClassifyTransactionResultResponse(analysis, request.Response)
		classificationsCounter.With(prometheus.Labels{
			"class":       result.Class,
			"result_code": result.ResultCode,
		}).Inc()

		record := db.Classification{
			Class:      result.Class,
			Code:       result.Code,
			ResultCode: result.ResultCode,
			Message:    result.Message,
			Layout:     layout.String(),
			ResultXDR:  analysis.ResultXDR,
		}
		if request.Response != nil {
			envelope, err := json.Marshal(request.Response)
			if err != nil {
				logger.WithError(err).Warn("could not encode response envelope")
			}
			record.Envelope = envelope
		}
		stored, err := store.InsertClassification(ctx, record)
		if err != nil {
			logger.WithError(err).WithField("class", result.Class).
				Warn("could not record classification")
		} else {
			result.ID = stored.ID
		}
		return result, nil
	})
}
