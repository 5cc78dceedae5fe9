package methods

import (
	"fmt"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
)

func NewHandler(fn any) jrpc2.Handler {
	fi, err := handler.Check(fn)
	if err != nil {
		panic(err)
	}
	// explicitly disable array arguments since otherwise we cannot add
	// new method arguments without breaking backwards compatibility with clients
	fi.AllowArray(false)
	return fi.Wrap()
}

var errInvalidLayout = fmt.Errorf(
	"expected %s for 'layout'",
	strings.Join([]string{resultxdr.LayoutNameBare, resultxdr.LayoutNameLedger}, ", "))

func invalidParams(format string, args ...any) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    jrpc2.InvalidParams,
		Message: fmt.Sprintf(format, args...),
	}
}
