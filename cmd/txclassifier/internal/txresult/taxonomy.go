package txresult

import "fmt"

// TransactionError is a rejection of the whole transaction.
type TransactionError int32

const (
	TxFailed              TransactionError = -1
	TxTooEarly            TransactionError = -2
	TxTooLate             TransactionError = -3
	TxMissingOperation    TransactionError = -4
	TxBadSeq              TransactionError = -5
	TxBadAuth             TransactionError = -6
	TxInsufficientBalance TransactionError = -7
	TxNoAccount           TransactionError = -8
	TxInsufficientFee     TransactionError = -9
	TxBadAuthExtra        TransactionError = -10
	TxInternalError       TransactionError = -11
)

// CreateAccountError is a failure of a create account operation.
type CreateAccountError int32

const (
	CreateAccountMalformed    CreateAccountError = -1
	CreateAccountUnderfunded  CreateAccountError = -2
	CreateAccountLowReserve   CreateAccountError = -3
	CreateAccountAlreadyExist CreateAccountError = -4
)

// PaymentError is a failure of a payment operation.
type PaymentError int32

const (
	PaymentMalformed        PaymentError = -1
	PaymentUnderfunded      PaymentError = -2
	PaymentSrcNoTrust       PaymentError = -3
	PaymentSrcNotAuthorized PaymentError = -4
	PaymentNoDestination    PaymentError = -5
	PaymentNoTrust          PaymentError = -6
	PaymentNotAuthorized    PaymentError = -7
	PaymentLineFull         PaymentError = -8
	PaymentNoIssuer         PaymentError = -9
)

// codeInfo holds the Horizon result code and a human readable description.
type codeInfo struct {
	resultCode  string
	description string
}

var transactionErrors = map[TransactionError]codeInfo{
	TxFailed:              {"tx_failed", "an operation failed and none were applied"},
	TxTooEarly:            {"tx_too_early", "ledger close time is before the transaction's min time"},
	TxTooLate:             {"tx_too_late", "ledger close time is after the transaction's max time"},
	TxMissingOperation:    {"tx_missing_operation", "the transaction has no operations"},
	TxBadSeq:              {"tx_bad_seq", "sequence number does not match the source account"},
	TxBadAuth:             {"tx_bad_auth", "too few valid signatures or wrong network"},
	TxInsufficientBalance: {"tx_insufficient_balance", "the fee would take the account below its reserve"},
	TxNoAccount:           {"tx_no_source_account", "source account not found"},
	TxInsufficientFee:     {"tx_insufficient_fee", "fee is too small"},
	TxBadAuthExtra:        {"tx_bad_auth_extra", "unused signatures attached to the transaction"},
	TxInternalError:       {"tx_internal_error", "the network hit an internal error"},
}

var createAccountErrors = map[CreateAccountError]codeInfo{
	CreateAccountMalformed:    {"op_malformed", "invalid destination"},
	CreateAccountUnderfunded:  {"op_underfunded", "not enough funds in the source account"},
	CreateAccountLowReserve:   {"op_low_reserve", "starting balance is below the minimum reserve"},
	CreateAccountAlreadyExist: {"op_already_exists", "destination account already exists"},
}

var paymentErrors = map[PaymentError]codeInfo{
	PaymentMalformed:        {"op_malformed", "bad payment input"},
	PaymentUnderfunded:      {"op_underfunded", "not enough funds in the source account"},
	PaymentSrcNoTrust:       {"op_src_no_trust", "source account has no trust line for the asset"},
	PaymentSrcNotAuthorized: {"op_src_not_authorized", "source account is not authorized to send the asset"},
	PaymentNoDestination:    {"op_no_destination", "destination account does not exist"},
	PaymentNoTrust:          {"op_no_trust", "destination has no trust line for the asset"},
	PaymentNotAuthorized:    {"op_not_authorized", "destination is not authorized to hold the asset"},
	PaymentLineFull:         {"op_line_full", "destination would exceed its trust line limit"},
	PaymentNoIssuer:         {"op_no_issuer", "asset issuer does not exist"},
}

// TransactionErrorFromCode looks code up in the transaction-level taxonomy.
func TransactionErrorFromCode(code int32) (TransactionError, bool) {
	_, ok := transactionErrors[TransactionError(code)]
	return TransactionError(code), ok
}

func CreateAccountErrorFromCode(code int32) (CreateAccountError, bool) {
	_, ok := createAccountErrors[CreateAccountError(code)]
	return CreateAccountError(code), ok
}

func PaymentErrorFromCode(code int32) (PaymentError, bool) {
	_, ok := paymentErrors[PaymentError(code)]
	return PaymentError(code), ok
}

func (e TransactionError) Code() int32        { return int32(e) }
func (e TransactionError) ResultCode() string { return resultCode(transactionErrors, e) }
func (e TransactionError) Error() string {
	return describe("transaction rejected", transactionErrors, e)
}

func (e CreateAccountError) Code() int32        { return int32(e) }
func (e CreateAccountError) ResultCode() string { return resultCode(createAccountErrors, e) }
func (e CreateAccountError) Error() string {
	return describe("create account failed", createAccountErrors, e)
}

func (e PaymentError) Code() int32        { return int32(e) }
func (e PaymentError) ResultCode() string { return resultCode(paymentErrors, e) }
func (e PaymentError) Error() string {
	return describe("payment failed", paymentErrors, e)
}

func resultCode[K ~int32](table map[K]codeInfo, code K) string {
	if info, ok := table[code]; ok {
		return info.resultCode
	}
	return ""
}

func describe[K ~int32](prefix string, table map[K]codeInfo, code K) string {
	info, ok := table[code]
	if !ok {
		return fmt.Sprintf("%s: unknown code %d", prefix, int32(code))
	}
	return fmt.Sprintf("%s: %s (%s)", prefix, info.description, info.resultCode)
}

// UnknownError is returned for everything that cannot be mapped to one of the
// taxonomies. Response is the envelope the classification started from, kept
// for diagnostics; it is nil when classification started from raw bytes.
type UnknownError struct {
	Response map[string]any
	Reason   string
}

func (e *UnknownError) Error() string {
	if e.Reason == "" {
		return "unknown transaction error"
	}
	return "unknown transaction error: " + e.Reason
}

func unknown(response map[string]any, format string, args ...any) error {
	return &UnknownError{Response: response, Reason: fmt.Sprintf(format, args...)}
}
