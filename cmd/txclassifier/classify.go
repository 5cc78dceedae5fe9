package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/methods"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/resultxdr"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/txresult"
)

type classifyOptions struct {
	resultXDR string
	layout    string
}

func newClassifyCmd() *cobra.Command {
	var opts classifyOptions
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify a submission response envelope read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runClassify(cmd.InOrStdin(), cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.resultXDR, "result-xdr", "",
		"classify this base64 result record instead of reading an envelope")
	cmd.Flags().StringVar(&opts.layout, "layout", resultxdr.LayoutNameBare,
		"layout of the result record, bare or ledger")
	return cmd
}

func runClassify(stdin io.Reader, stdout io.Writer, args []string, opts classifyOptions) error {
	layout, err := resultxdr.ParseLayout(opts.layout)
	if err != nil {
		return err
	}
	classifier := txresult.Classifier{Layout: layout}

	var (
		envelope map[string]any
		analysis txresult.Analysis
	)
	switch {
	case opts.resultXDR != "":
		if len(args) > 0 {
			return errors.New("--result-xdr cannot be combined with a file argument")
		}
		analysis = classifier.AnalyzeXDR(opts.resultXDR)
	default:
		input := stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "could not open envelope")
			}
			defer f.Close()
			input = f
		}
		if err := json.NewDecoder(input).Decode(&envelope); err != nil {
			return errors.Wrap(err, "could not decode envelope")
		}
		analysis = classifier.Analyze(envelope)
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(methods.NewClassifyTransactionResultResponse(analysis, envelope))
}
