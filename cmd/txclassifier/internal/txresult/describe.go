package txresult

import "errors"

const (
	ClassSuccess       = "success"
	ClassTransaction   = "transaction"
	ClassCreateAccount = "create_account"
	ClassPayment       = "payment"
	ClassUnknown       = "unknown"
)

// Classes lists every class Describe can return.
var Classes = []string{ClassSuccess, ClassTransaction, ClassCreateAccount, ClassPayment, ClassUnknown}

// Classification is a flat view of a classification result.
type Classification struct {
	Class      string `json:"class"`
	Code       int32  `json:"code"`
	ResultCode string `json:"resultCode,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Describe flattens err as returned by Classify.
func Describe(err error) Classification {
	var (
		txErr  TransactionError
		accErr CreateAccountError
		payErr PaymentError
	)
	switch {
	case err == nil:
		return Classification{Class: ClassSuccess}
	case errors.As(err, &txErr):
		return Classification{Class: ClassTransaction, Code: txErr.Code(), ResultCode: txErr.ResultCode(), Message: txErr.Error()}
	case errors.As(err, &accErr):
		return Classification{Class: ClassCreateAccount, Code: accErr.Code(), ResultCode: accErr.ResultCode(), Message: accErr.Error()}
	case errors.As(err, &payErr):
		return Classification{Class: ClassPayment, Code: payErr.Code(), ResultCode: payErr.ResultCode(), Message: payErr.Error()}
	default:
		return Classification{Class: ClassUnknown, Message: err.Error()}
	}
}
