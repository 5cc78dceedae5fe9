package resultxdr

import (
	"errors"
	"fmt"

	"github.com/stellar/go/xdr"
)

var ErrInvalidLedgerResult = errors.New("xdr: invalid ledger result")

// decodeLedgerResult decodes the network TransactionResult, fee and extension
// included, with the stellar xdr codec. The input must be consumed exactly.
func decodeLedgerResult(buf []byte) (TransactionOutcome, error) {
	var result xdr.TransactionResult
	if err := xdr.SafeUnmarshal(buf, &result); err != nil {
		return TransactionOutcome{}, fmt.Errorf("%w: %v", ErrInvalidLedgerResult, err)
	}

	outcome := newLedgerOutcome(result.Result.Code, result.Result.Results)
	outcome.FeeCharged = int64(result.FeeCharged)
	if pair, ok := result.Result.GetInnerResultPair(); ok {
		inner := newLedgerOutcome(pair.Result.Result.Code, pair.Result.Result.Results)
		inner.FeeCharged = int64(pair.Result.FeeCharged)
		outcome.InnerHash = append([]byte(nil), pair.TransactionHash[:]...)
		outcome.Inner = &inner
	}
	return outcome, nil
}

func newLedgerOutcome(code xdr.TransactionResultCode, results *[]xdr.OperationResult) TransactionOutcome {
	outcome := TransactionOutcome{Code: TransactionResultCode(code)}
	switch outcome.Code {
	case TxSuccess, TxFeeBumpInnerSuccess:
		outcome.Kind = OutcomeSuccess
	case TxFailed:
		outcome.Kind = OutcomeOperationFailures
	default:
		outcome.Kind = OutcomeErrorCode
	}
	if results != nil {
		outcome.Results = make([]OperationOutcome, 0, len(*results))
		for _, result := range *results {
			outcome.Results = append(outcome.Results, newOperationOutcome(result))
		}
	}
	return outcome
}

func newOperationOutcome(result xdr.OperationResult) OperationOutcome {
	tr, ok := result.GetTr()
	if result.Code != xdr.OperationResultCodeOpInner || !ok {
		return OperationOutcome{Code: OperationResultCode(result.Code)}
	}
	return OperationOutcome{
		Code: OpInner,
		Tr: &OperationResultTr{
			Type:   OperationKind(tr.Type),
			Result: OperationResult{Code: innerResultCode(tr)},
		},
	}
}

// innerResultCode returns the per-kind result code of an inner operation result.
func innerResultCode(tr xdr.OperationResultTr) int32 {
	switch tr.Type {
	case xdr.OperationTypeCreateAccount:
		return int32(tr.MustCreateAccountResult().Code)
	case xdr.OperationTypePayment:
		return int32(tr.MustPaymentResult().Code)
	case xdr.OperationTypePathPaymentStrictReceive:
		return int32(tr.MustPathPaymentStrictReceiveResult().Code)
	case xdr.OperationTypeManageSellOffer:
		return int32(tr.MustManageSellOfferResult().Code)
	case xdr.OperationTypeCreatePassiveSellOffer:
		return int32(tr.MustCreatePassiveSellOfferResult().Code)
	case xdr.OperationTypeSetOptions:
		return int32(tr.MustSetOptionsResult().Code)
	case xdr.OperationTypeChangeTrust:
		return int32(tr.MustChangeTrustResult().Code)
	case xdr.OperationTypeAllowTrust:
		return int32(tr.MustAllowTrustResult().Code)
	case xdr.OperationTypeAccountMerge:
		return int32(tr.MustAccountMergeResult().Code)
	case xdr.OperationTypeInflation:
		return int32(tr.MustInflationResult().Code)
	case xdr.OperationTypeManageData:
		return int32(tr.MustManageDataResult().Code)
	case xdr.OperationTypeBumpSequence:
		return int32(tr.MustBumpSeqResult().Code)
	case xdr.OperationTypeManageBuyOffer:
		return int32(tr.MustManageBuyOfferResult().Code)
	case xdr.OperationTypePathPaymentStrictSend:
		return int32(tr.MustPathPaymentStrictSendResult().Code)
	case xdr.OperationTypeCreateClaimableBalance:
		return int32(tr.MustCreateClaimableBalanceResult().Code)
	case xdr.OperationTypeClaimClaimableBalance:
		return int32(tr.MustClaimClaimableBalanceResult().Code)
	case xdr.OperationTypeBeginSponsoringFutureReserves:
		return int32(tr.MustBeginSponsoringFutureReservesResult().Code)
	case xdr.OperationTypeEndSponsoringFutureReserves:
		return int32(tr.MustEndSponsoringFutureReservesResult().Code)
	case xdr.OperationTypeRevokeSponsorship:
		return int32(tr.MustRevokeSponsorshipResult().Code)
	case xdr.OperationTypeClawback:
		return int32(tr.MustClawbackResult().Code)
	case xdr.OperationTypeClawbackClaimableBalance:
		return int32(tr.MustClawbackClaimableBalanceResult().Code)
	case xdr.OperationTypeSetTrustLineFlags:
		return int32(tr.MustSetTrustLineFlagsResult().Code)
	case xdr.OperationTypeLiquidityPoolDeposit:
		return int32(tr.MustLiquidityPoolDepositResult().Code)
	case xdr.OperationTypeLiquidityPoolWithdraw:
		return int32(tr.MustLiquidityPoolWithdrawResult().Code)
	case xdr.OperationTypeInvokeHostFunction:
		return int32(tr.MustInvokeHostFunctionResult().Code)
	case xdr.OperationTypeExtendFootprintTtl:
		return int32(tr.MustExtendFootprintTtlResult().Code)
	case xdr.OperationTypeRestoreFootprint:
		return int32(tr.MustRestoreFootprintResult().Code)
	default:
		// the codec rejects operation types it does not know
		return 0
	}
}
