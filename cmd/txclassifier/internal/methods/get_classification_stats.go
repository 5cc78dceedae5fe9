package methods

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/txresult"
)

type GetClassificationStatsResponse struct {
	// Counts holds the retained classifications per class, zero for absent classes.
	Counts   map[string]int64 `json:"counts"`
	Retained int64            `json:"retained"`
	// Total counts every classification ever recorded, including trimmed ones.
	Total           uint64 `json:"total"`
	RetentionWindow uint32 `json:"retentionWindow"`
}

// NewGetClassificationStatsHandler returns a json rpc handler summarizing the classification history
func NewGetClassificationStatsHandler(logger *log.Entry, store db.ClassificationReader, retentionWindow uint32) jrpc2.Handler {
	return handler.New(func(ctx context.Context) (GetClassificationStatsResponse, error) {
		counts, err := store.CountByClass(ctx)
		if err != nil {
			logger.WithError(err).Info("could not count classifications")
			return GetClassificationStatsResponse{}, &jrpc2.Error{
				Code:    jrpc2.InternalError,
				Message: err.Error(),
			}
		}
		total, err := store.GetTotalClassifications(ctx)
		if err != nil {
			logger.WithError(err).Info("could not read classification total")
			return GetClassificationStatsResponse{}, &jrpc2.Error{
				Code:    jrpc2.InternalError,
				Message: err.Error(),
			}
		}

		response := GetClassificationStatsResponse{
			Counts:          make(map[string]int64, len(txresult.Classes)),
			Total:           total,
			RetentionWindow: retentionWindow,
		}
		for _, class := range txresult.Classes {
			response.Counts[class] = 0
		}
		for class, count := range counts {
			response.Counts[class] = count
			response.Retained += count
		}
		return response, nil
	})
}
