package txresult

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCode(t *testing.T) {
	for _, code := range []int32{0, 1, -12, -100} {
		_, ok := TransactionErrorFromCode(code)
		assert.False(t, ok, "transaction code %d", code)
	}
	for _, code := range []int32{0, -5} {
		_, ok := CreateAccountErrorFromCode(code)
		assert.False(t, ok, "create account code %d", code)
	}
	for _, code := range []int32{0, -10} {
		_, ok := PaymentErrorFromCode(code)
		assert.False(t, ok, "payment code %d", code)
	}

	e, ok := TransactionErrorFromCode(-8)
	require.True(t, ok)
	assert.Equal(t, TxNoAccount, e)
}

func TestTaxonomySizes(t *testing.T) {
	assert.Len(t, transactionErrors, 11)
	assert.Len(t, createAccountErrors, 4)
	assert.Len(t, paymentErrors, 9)
}

func TestResultCodes(t *testing.T) {
	testCases := []struct {
		err interface {
			error
			Code() int32
			ResultCode() string
		}
		code       int32
		resultCode string
	}{
		{TxBadSeq, -5, "tx_bad_seq"},
		{TxNoAccount, -8, "tx_no_source_account"},
		{TxInternalError, -11, "tx_internal_error"},
		{CreateAccountLowReserve, -3, "op_low_reserve"},
		{CreateAccountAlreadyExist, -4, "op_already_exists"},
		{PaymentSrcNotAuthorized, -4, "op_src_not_authorized"},
		{PaymentNoIssuer, -9, "op_no_issuer"},
	}
	for _, tc := range testCases {
		t.Run(tc.resultCode, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code())
			assert.Equal(t, tc.resultCode, tc.err.ResultCode())
			assert.Contains(t, tc.err.Error(), tc.resultCode)
		})
	}
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "transaction rejected: sequence number does not match the source account (tx_bad_seq)", TxBadSeq.Error())
	assert.Equal(t, "payment failed: unknown code -42", PaymentError(-42).Error())
	assert.Empty(t, PaymentError(-42).ResultCode())
	assert.Equal(t, "unknown transaction error", (&UnknownError{}).Error())
	assert.Equal(t, "unknown transaction error: no result_xdr field",
		unknown(nil, "no %s field", resultXDRKey).Error())
}

func TestDescribe(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Classification
	}{
		{"success", nil, Classification{Class: ClassSuccess}},
		{
			"transaction", TxTooEarly,
			Classification{Class: ClassTransaction, Code: -2, ResultCode: "tx_too_early", Message: TxTooEarly.Error()},
		},
		{
			"create-account", CreateAccountUnderfunded,
			Classification{Class: ClassCreateAccount, Code: -2, ResultCode: "op_underfunded", Message: CreateAccountUnderfunded.Error()},
		},
		{
			"payment-wrapped", fmt.Errorf("submitting: %w", PaymentLineFull),
			Classification{Class: ClassPayment, Code: -8, ResultCode: "op_line_full", Message: PaymentLineFull.Error()},
		},
		{
			"unknown", &UnknownError{Reason: "boom"},
			Classification{Class: ClassUnknown, Message: "unknown transaction error: boom"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Describe(tc.err))
		})
	}
}
