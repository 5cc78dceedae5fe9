package methods

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/creachadair/jrpc2"

	"github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/txresult"
)

// MaxClassificationsLimit caps the limit of a getClassifications request.
const MaxClassificationsLimit = 200

type ClassificationInfo struct {
	ID         string `json:"id"`
	CreatedAt  int64  `json:"createdAt"`
	Class      string `json:"class"`
	Code       int32  `json:"code"`
	ResultCode string `json:"resultCode,omitempty"`
	Message    string `json:"message,omitempty"`
	Layout     string `json:"layout"`
	ResultXDR  string `json:"resultXdr,omitempty"`
	// Response is the submission envelope the classification was made from, if any.
	Response json.RawMessage `json:"response,omitempty"`
}

func newClassificationInfo(c db.Classification) ClassificationInfo {
	return ClassificationInfo{
		ID:         c.ID,
		CreatedAt:  c.CreatedAt.Unix(),
		Class:      c.Class,
		Code:       c.Code,
		ResultCode: c.ResultCode,
		Message:    c.Message,
		Layout:     c.Layout,
		ResultXDR:  c.ResultXDR,
		Response:   c.Envelope,
	}
}

type GetClassificationRequest struct {
	ID string `json:"id"`
}

// NewGetClassificationHandler returns a json rpc handler fetching one stored classification
func NewGetClassificationHandler(logger *log.Entry, store db.ClassificationReader) jrpc2.Handler {
	return NewHandler(func(ctx context.Context, request GetClassificationRequest) (ClassificationInfo, error) {
		if request.ID == "" {
			return ClassificationInfo{}, invalidParams("'id' is required")
		}
		classification, err := store.GetClassification(ctx, request.ID)
		if errors.Is(err, db.ErrNoClassification) {
			return ClassificationInfo{}, invalidParams("classification %q not found", request.ID)
		}
		if err != nil {
			logger.WithError(err).WithField("id", request.ID).
				Info("could not fetch classification")
			return ClassificationInfo{}, &jrpc2.Error{
				Code:    jrpc2.InternalError,
				Message: err.Error(),
			}
		}
		return newClassificationInfo(classification), nil
	})
}

type GetClassificationsRequest struct {
	Class string `json:"class,omitempty"`
	Limit uint   `json:"limit,omitempty"`
	// Before only returns classifications made before this unix timestamp, in seconds.
	Before int64 `json:"before,omitempty"`
}

func (r GetClassificationsRequest) valid() error {
	if r.Class != "" && !slices.Contains(txresult.Classes, r.Class) {
		return invalidParams("unknown class %q", r.Class)
	}
	if r.Limit > MaxClassificationsLimit {
		return invalidParams("limit must not exceed %d", MaxClassificationsLimit)
	}
	if r.Before < 0 {
		return invalidParams("before must not be negative")
	}
	return nil
}

type GetClassificationsResponse struct {
	Classifications []ClassificationInfo `json:"classifications"`
}

// NewGetClassificationsHandler returns a json rpc handler listing stored classifications, newest first
func NewGetClassificationsHandler(logger *log.Entry, store db.ClassificationReader) jrpc2.Handler {
	return NewHandler(func(ctx context.Context, request GetClassificationsRequest) (GetClassificationsResponse, error) {
		if err := request.valid(); err != nil {
			return GetClassificationsResponse{}, err
		}
		filter := db.ClassificationFilter{
			Class: request.Class,
			Limit: request.Limit,
		}
		if request.Before > 0 {
			filter.Before = time.Unix(request.Before, 0)
		}
		classifications, err := store.GetClassifications(ctx, filter)
		if err != nil {
			logger.WithError(err).WithField("request", request).
				Info("could not list classifications")
			return GetClassificationsResponse{}, &jrpc2.Error{
				Code:    jrpc2.InternalError,
				Message: err.Error(),
			}
		}
		response := GetClassificationsResponse{
			Classifications: make([]ClassificationInfo, 0, len(classifications)),
		}
		for _, c := range classifications {
			response.Classifications = append(response.Classifications, newClassificationInfo(c))
		}
		return response, nil
	})
}
