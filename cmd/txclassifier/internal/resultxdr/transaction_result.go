package resultxdr

import (
	"fmt"
	"strings"
)

// Layout selects how a transaction result record is laid out on the wire.
type Layout int

const (
	// LayoutBare records start directly with the result code. Only a failed
	// transaction is followed by its operation results.
	LayoutBare Layout = iota
	// LayoutLedger is the TransactionResult stored in the ledger and returned
	// by Horizon as result_xdr: fee charged, result union, extension.
	LayoutLedger
)

const (
	LayoutNameBare   = "bare"
	LayoutNameLedger = "ledger"
)

func (l Layout) String() string {
	switch l {
	case LayoutBare:
		return LayoutNameBare
	case LayoutLedger:
		return LayoutNameLedger
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LayoutNameBare:
		return LayoutBare, nil
	case LayoutNameLedger:
		return LayoutLedger, nil
	default:
		return LayoutBare, fmt.Errorf("unknown result layout %q, expected %s or %s",
			name, LayoutNameBare, LayoutNameLedger)
	}
}

// DecodeTransactionResult decodes a whole result record starting at offset 0.
// In the ledger layout the record must consume the input exactly.
func DecodeTransactionResult(buf []byte, layout Layout) (TransactionOutcome, error) {
	switch layout {
	case LayoutBare:
		return NewDecoder(buf).DecodeOutcome()
	case LayoutLedger:
		return decodeLedgerResult(buf)
	default:
		return TransactionOutcome{}, fmt.Errorf("unknown result layout %d", int(layout))
	}
}

// DecodeOutcome decodes a bare-layout transaction result at the cursor.
func (d *Decoder) DecodeOutcome() (outcome TransactionOutcome, err error) {
	defer d.restoreOnError(d.pos, &err)

	code, err := d.ReadInt32()
	if err != nil {
		return TransactionOutcome{}, fmt.Errorf("reading result code: %w", err)
	}
	switch resultCode := TransactionResultCode(code); resultCode {
	case TxSuccess:
		return TransactionOutcome{Kind: OutcomeSuccess, Code: resultCode}, nil
	case TxFailed:
		if d.Remaining() == 0 {
			// no operation results at all: report the bare code
			return TransactionOutcome{Kind: OutcomeErrorCode, Code: resultCode}, nil
		}
		results, err := d.decodeOperationOutcomes()
		if err != nil {
			return TransactionOutcome{}, err
		}
		return TransactionOutcome{Kind: OutcomeOperationFailures, Code: resultCode, Results: results}, nil
	default:
		return TransactionOutcome{Kind: OutcomeErrorCode, Code: resultCode}, nil
	}
}

func (d *Decoder) decodeOperationOutcomes() ([]OperationOutcome, error) {
	count, err := d.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading operation result count: %w", err)
	}
	// every operation result takes at least one unit
	if uint64(count)*unitSize > uint64(d.Remaining()) {
		return nil, fmt.Errorf("%w: %d operation results declared, %d bytes left",
			ErrTruncated, count, d.Remaining())
	}
	results := make([]OperationOutcome, 0, count)
	for i := uint32(0); i < count; i++ {
		result, err := d.decodeOperationOutcome()
		if err != nil {
			return nil, fmt.Errorf("decoding operation result %d: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (d *Decoder) decodeOperationOutcome() (OperationOutcome, error) {
	code, err := d.ReadInt32()
	if err != nil {
		return OperationOutcome{}, err
	}
	if OperationResultCode(code) != OpInner {
		return OperationOutcome{Code: OperationResultCode(code)}, nil
	}

	rawKind, err := d.ReadDiscriminant()
	if err != nil {
		return OperationOutcome{}, err
	}
	if rawKind > uint32(OperationKindRestoreFootprint) {
		return OperationOutcome{}, fmt.Errorf("%w: operation type %d", ErrUnknownDiscriminant, rawKind)
	}
	kind := OperationKind(rawKind)

	resultCode, err := d.ReadInt32()
	if err != nil {
		return OperationOutcome{}, err
	}
	switch {
	case resultCode == 0:
		if err := d.skipSuccessPayload(kind); err != nil {
			return OperationOutcome{}, err
		}
	case resultCode < 0 && failureCarriesPayload(kind, resultCode):
		return OperationOutcome{}, fmt.Errorf("%w: %s failure %d", ErrUnsupportedArm, kind, resultCode)
	}
	return OperationOutcome{
		Code: OpInner,
		Tr: &OperationResultTr{
			Type:   kind,
			Result: OperationResult{Code: resultCode},
		},
	}, nil
}

// skipSuccessPayload walks past the body of a successful operation so that
// the operations after it can still be read.
func (d *Decoder) skipSuccessPayload(kind OperationKind) error {
	switch kind {
	case OperationKindAccountMerge:
		// source account balance
		_, err := d.ReadInt64()
		return err
	case OperationKindInvokeHostFunction:
		_, err := d.ReadFixedBytes(hashSize)
		return err
	case OperationKindCreateClaimableBalance:
		return d.skipHashUnion("claimable balance id")
	case OperationKindInflation:
		count, err := d.ReadUint32()
		if err != nil {
			return err
		}
		for i := uint32(0); i < count; i++ {
			if err := d.skipHashUnion("payout destination"); err != nil {
				return err
			}
			if _, err := d.ReadInt64(); err != nil {
				return err
			}
		}
		return nil
	case OperationKindPathPaymentStrictReceive, OperationKindPathPaymentStrictSend,
		OperationKindManageSellOffer, OperationKindManageBuyOffer, OperationKindCreatePassiveSellOffer:
		return fmt.Errorf("%w: %s success", ErrUnsupportedArm, kind)
	default:
		return nil
	}
}

// skipHashUnion skips a union whose only arm (0) is a 32-byte value, such as
// an ed25519 account id or a v0 claimable balance id.
func (d *Decoder) skipHashUnion(what string) error {
	tag, err := d.ReadDiscriminant()
	if err != nil {
		return err
	}
	if tag != 0 {
		return fmt.Errorf("%w: %s type %d", ErrUnknownDiscriminant, what, tag)
	}
	_, err = d.ReadFixedBytes(hashSize)
	return err
}

// failureCarriesPayload reports failure arms which are not void. Only the
// path payment no-issuer failures carry the offending asset.
func failureCarriesPayload(kind OperationKind, code int32) bool {
	const pathPaymentNoIssuer = -9
	switch kind {
	case OperationKindPathPaymentStrictReceive, OperationKindPathPaymentStrictSend:
		return code == pathPaymentNoIssuer
	default:
		return false
	}
}

func (d *Decoder) restoreOnError(start int, err *error) {
	if *err != nil {
		d.pos = start
	}
}
