package resultxdr

import "fmt"

// TransactionResultCode is the leading code of a transaction result record.
type TransactionResultCode int32

const (
	TxFeeBumpInnerSuccess TransactionResultCode = 1
	TxSuccess             TransactionResultCode = 0
	TxFailed              TransactionResultCode = -1
	TxTooEarly            TransactionResultCode = -2
	TxTooLate             TransactionResultCode = -3
	TxMissingOperation    TransactionResultCode = -4
	TxBadSeq              TransactionResultCode = -5
	TxBadAuth             TransactionResultCode = -6
	TxInsufficientBalance TransactionResultCode = -7
	TxNoAccount           TransactionResultCode = -8
	TxInsufficientFee     TransactionResultCode = -9
	TxBadAuthExtra        TransactionResultCode = -10
	TxInternalError       TransactionResultCode = -11
	TxNotSupported        TransactionResultCode = -12
	TxFeeBumpInnerFailed  TransactionResultCode = -13
	TxBadSponsorship      TransactionResultCode = -14
	TxBadMinSeqAgeOrGap   TransactionResultCode = -15
	TxMalformed           TransactionResultCode = -16
	TxSorobanInvalid      TransactionResultCode = -17
)

const hashSize = 32

// OperationResultCode selects between the inner (per-kind) arm of an
// operation result and the outer failures shared by every kind.
type OperationResultCode int32

const (
	OpInner             OperationResultCode = 0
	OpBadAuth           OperationResultCode = -1
	OpNoAccount         OperationResultCode = -2
	OpNotSupported      OperationResultCode = -3
	OpTooManySubentries OperationResultCode = -4
	OpExceededWorkLimit OperationResultCode = -5
	OpTooManySponsoring OperationResultCode = -6
)

// OperationKind is the operation type tag of an inner operation result.
type OperationKind int32

const (
	OperationKindCreateAccount OperationKind = iota
	OperationKindPayment
	OperationKindPathPaymentStrictReceive
	OperationKindManageSellOffer
	OperationKindCreatePassiveSellOffer
	OperationKindSetOptions
	OperationKindChangeTrust
	OperationKindAllowTrust
	OperationKindAccountMerge
	OperationKindInflation
	OperationKindManageData
	OperationKindBumpSequence
	OperationKindManageBuyOffer
	OperationKindPathPaymentStrictSend
	OperationKindCreateClaimableBalance
	OperationKindClaimClaimableBalance
	OperationKindBeginSponsoringFutureReserves
	OperationKindEndSponsoringFutureReserves
	OperationKindRevokeSponsorship
	OperationKindClawback
	OperationKindClawbackClaimableBalance
	OperationKindSetTrustLineFlags
	OperationKindLiquidityPoolDeposit
	OperationKindLiquidityPoolWithdraw
	OperationKindInvokeHostFunction
	OperationKindExtendFootprintTTL
	OperationKindRestoreFootprint
)

var operationKindNames = map[OperationKind]string{
	OperationKindCreateAccount:                 "create_account",
	OperationKindPayment:                       "payment",
	OperationKindPathPaymentStrictReceive:      "path_payment_strict_receive",
	OperationKindManageSellOffer:               "manage_sell_offer",
	OperationKindCreatePassiveSellOffer:        "create_passive_sell_offer",
	OperationKindSetOptions:                    "set_options",
	OperationKindChangeTrust:                   "change_trust",
	OperationKindAllowTrust:                    "allow_trust",
	OperationKindAccountMerge:                  "account_merge",
	OperationKindInflation:                     "inflation",
	OperationKindManageData:                    "manage_data",
	OperationKindBumpSequence:                  "bump_sequence",
	OperationKindManageBuyOffer:                "manage_buy_offer",
	OperationKindPathPaymentStrictSend:         "path_payment_strict_send",
	OperationKindCreateClaimableBalance:        "create_claimable_balance",
	OperationKindClaimClaimableBalance:         "claim_claimable_balance",
	OperationKindBeginSponsoringFutureReserves: "begin_sponsoring_future_reserves",
	OperationKindEndSponsoringFutureReserves:   "end_sponsoring_future_reserves",
	OperationKindRevokeSponsorship:             "revoke_sponsorship",
	OperationKindClawback:                      "clawback",
	OperationKindClawbackClaimableBalance:      "clawback_claimable_balance",
	OperationKindSetTrustLineFlags:             "set_trust_line_flags",
	OperationKindLiquidityPoolDeposit:          "liquidity_pool_deposit",
	OperationKindLiquidityPoolWithdraw:         "liquidity_pool_withdraw",
	OperationKindInvokeHostFunction:            "invoke_host_function",
	OperationKindExtendFootprintTTL:            "extend_footprint_ttl",
	OperationKindRestoreFootprint:              "restore_footprint",
}

func (k OperationKind) String() string {
	if name, ok := operationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("operation_kind(%d)", int32(k))
}

// OutcomeKind tells which arm of a TransactionOutcome is populated.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeErrorCode
	OutcomeOperationFailures
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeErrorCode:
		return "error_code"
	case OutcomeOperationFailures:
		return "operation_failures"
	default:
		return fmt.Sprintf("outcome_kind(%d)", int(k))
	}
}

// TransactionOutcome is a decoded transaction result record.
type TransactionOutcome struct {
	Kind OutcomeKind
	Code TransactionResultCode
	// Results holds the per-operation outcomes in submission order. It is set
	// for OutcomeOperationFailures and, in the ledger layout, for successful
	// transactions too.
	Results []OperationOutcome

	// Ledger layout only.
	FeeCharged int64
	// InnerHash and Inner are set for fee-bump results.
	InnerHash []byte
	Inner     *TransactionOutcome
}

// OperationOutcome is the result of a single operation. Tr is non-nil exactly
// when Code is OpInner.
type OperationOutcome struct {
	Code OperationResultCode
	Tr   *OperationResultTr
}

func (o OperationOutcome) IsInner() bool {
	return o.Code == OpInner && o.Tr != nil
}

type OperationResultTr struct {
	Type   OperationKind
	Result OperationResult
}

// OperationResult carries the per-kind result code: zero or positive codes
// are successes, negative codes index the kind's failure taxonomy.
type OperationResult struct {
	Code int32
}

func (r OperationResult) Failed() bool {
	return r.Code < 0
}
