// Package txresult maps submission error envelopes and transaction result
// records onto the transaction, create account and payment error taxonomies.
package txresult

import (
	"encoding/base64"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
)

const (
	extrasKey    = "extras"
	resultXDRKey = "result_xdr"
)

// Classifier classifies result records laid out as Layout.
type Classifier struct {
	Layout resultxdr.Layout
}

// Classify classifies a response envelope holding a bare-layout result record.
func Classify(response map[string]any) error {
	return Classifier{Layout: resultxdr.LayoutBare}.Classify(response)
}

// Classify extracts the base64 result_xdr field from response, looking inside
// "extras" when present, and classifies the decoded record. A nil return means
// the transaction succeeded. Every failure that cannot be mapped to a taxonomy
// member is reported as *UnknownError carrying response unchanged.
func (c Classifier) Classify(response map[string]any) error {
	return c.Analyze(response).Err
}

// ClassifyXDR classifies raw result record bytes.
func (c Classifier) ClassifyXDR(buf []byte) error {
	return c.analyze(buf, nil).Err
}

// Analysis is everything learned while classifying one envelope.
type Analysis struct {
	// Err is what Classify returns.
	Err error
	// ResultXDR is the result_xdr field, empty when missing or not a string.
	ResultXDR string
	// Outcome is nil when the record could not be decoded.
	Outcome *resultxdr.TransactionOutcome
}

// Analyze classifies response like Classify and also returns the decoded
// record, so callers can look past the first operation.
func (c Classifier) Analyze(response map[string]any) Analysis {
	fields := response
	if extras, ok := response[extrasKey].(map[string]any); ok {
		fields = extras
	}
	raw, present := fields[resultXDRKey]
	if !present {
		return Analysis{Err: unknown(response, "no %s field", resultXDRKey)}
	}
	encoded, ok := raw.(string)
	if !ok {
		return Analysis{Err: unknown(response, "%s is %T, not a string", resultXDRKey, raw)}
	}
	return c.analyzeEncoded(encoded, response)
}

// AnalyzeXDR analyzes a base64 result record given on its own. Unknown errors
// carry a nil response since there is no envelope.
func (c Classifier) AnalyzeXDR(encoded string) Analysis {
	return c.analyzeEncoded(encoded, nil)
}

func (c Classifier) analyzeEncoded(encoded string, response map[string]any) Analysis {
	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Analysis{
			Err:       unknown(response, "%s is not base64: %v", resultXDRKey, err),
			ResultXDR: encoded,
		}
	}
	analysis := c.analyze(buf, response)
	analysis.ResultXDR = encoded
	return analysis
}

func (c Classifier) analyze(buf []byte, response map[string]any) Analysis {
	outcome, err := resultxdr.DecodeTransactionResult(buf, c.Layout)
	if err != nil {
		return Analysis{Err: unknown(response, "decoding %s result: %v", c.Layout, err)}
	}
	return Analysis{
		Err:     ClassifyResult(outcome, response),
		Outcome: &outcome,
	}
}

// ClassifyResult classifies a decoded outcome. Only the first operation result
// is looked at; use ClassifyOperations to inspect all of them. A fee-bump
// outcome is classified by its inner transaction.
func ClassifyResult(outcome resultxdr.TransactionOutcome, response map[string]any) error {
	if outcome.Inner != nil {
		return ClassifyResult(*outcome.Inner, response)
	}
	switch outcome.Kind {
	case resultxdr.OutcomeSuccess:
		return nil
	case resultxdr.OutcomeErrorCode:
		if txErr, ok := TransactionErrorFromCode(int32(outcome.Code)); ok {
			return txErr
		}
		return unknown(response, "unrecognized transaction result code %d", outcome.Code)
	case resultxdr.OutcomeOperationFailures:
		if len(outcome.Results) == 0 {
			return unknown(response, "failed transaction without operation results")
		}
		if err := classifyOperation(outcome.Results[0], response); err != nil {
			return err
		}
		return unknown(response, "first operation did not fail")
	default:
		return unknown(response, "unexpected outcome %s", outcome.Kind)
	}
}

// ClassifyOperations classifies every operation result of outcome. The slice
// is aligned with the operations; successful operations yield nil.
func ClassifyOperations(outcome resultxdr.TransactionOutcome, response map[string]any) []error {
	if outcome.Inner != nil {
		return ClassifyOperations(*outcome.Inner, response)
	}
	if len(outcome.Results) == 0 {
		return nil
	}
	errs := make([]error, len(outcome.Results))
	for i, op := range outcome.Results {
		errs[i] = classifyOperation(op, response)
	}
	return errs
}

// classifyOperation returns nil for an operation that succeeded.
func classifyOperation(op resultxdr.OperationOutcome, response map[string]any) error {
	if !op.IsInner() {
		return unknown(response, "operation rejected with code %d", op.Code)
	}
	kind, result := op.Tr.Type, op.Tr.Result
	if !result.Failed() {
		return nil
	}
	switch kind {
	case resultxdr.OperationKindCreateAccount:
		if e, ok := CreateAccountErrorFromCode(result.Code); ok {
			return e
		}
	case resultxdr.OperationKindPayment:
		if e, ok := PaymentErrorFromCode(result.Code); ok {
			return e
		}
	}
	return unknown(response, "%s failed with code %d", kind, result.Code)
}
