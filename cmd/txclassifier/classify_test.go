package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/methods"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr/xdrtest"
)

func runClassifyCmd(t *testing.T, stdin string, args ...string) (methods.ClassifyTransactionResultResponse, error) {
	cmd := newClassifyCmd()
	var stdout bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return methods.ClassifyTransactionResultResponse{}, err
	}
	var result methods.ClassifyTransactionResultResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	return result, nil
}

func TestClassifyCommand(t *testing.T) {
	envelope := fmt.Sprintf(`{"title": "Transaction Failed", "extras": {"result_xdr": %q}}`,
		xdrtest.FailedResult(xdrtest.InnerOp(0, -3)).Base64())

	t.Run("stdin", func(t *testing.T) {
		result, err := runClassifyCmd(t, envelope)
		require.NoError(t, err)
		assert.Equal(t, methods.ClassificationStatusFailed, result.Status)
		assert.Equal(t, "create_account", result.Class)
		assert.Equal(t, "op_low_reserve", result.ResultCode)
		require.Len(t, result.Operations, 1)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "envelope.json")
		require.NoError(t, os.WriteFile(path, []byte(envelope), 0o600))
		result, err := runClassifyCmd(t, "", path)
		require.NoError(t, err)
		assert.Equal(t, "op_low_reserve", result.ResultCode)
	})

	t.Run("result xdr", func(t *testing.T) {
		result, err := runClassifyCmd(t, "", "--result-xdr", xdrtest.Result(0).Base64())
		require.NoError(t, err)
		assert.Equal(t, methods.ClassificationStatusSuccess, result.Status)
		assert.Equal(t, "success", result.Class)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := runClassifyCmd(t, "not json")
		require.ErrorContains(t, err, "could not decode envelope")

		_, err = runClassifyCmd(t, "", "--result-xdr", "AAAAAA==", "envelope.json")
		require.ErrorContains(t, err, "cannot be combined")

		_, err = runClassifyCmd(t, envelope, "--layout", "raw")
		require.ErrorContains(t, err, "unknown result layout")

		_, err = runClassifyCmd(t, "", filepath.Join(t.TempDir(), "missing.json"))
		require.ErrorContains(t, err, "could not open envelope")
	})
}
