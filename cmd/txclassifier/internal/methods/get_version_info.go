package methods

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/config"
)

type GetVersionInfoResponse struct {
	Version        string `json:"version"`
	CommitHash     string `json:"commit_hash"`
	BuildTimestamp string `json:"build_time_stamp"`
	Branch         string `json:"branch"`
}

func NewGetVersionInfoHandler() jrpc2.Handler {
	return handler.New(func(context.Context) (GetVersionInfoResponse, error) {
		return GetVersionInfoResponse{
			Version:        config.Version,
			CommitHash:     config.CommitHash,
			BuildTimestamp: config.BuildTimestamp,
			Branch:         config.Branch,
		}, nil
	})
}
