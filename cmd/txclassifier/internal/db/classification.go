package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stellar/go/support/db"
	"github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/daemon/interfaces"
)

const (
	classificationTableName = "classifications"
	totalClassificationsKey = "TotalClassifications"
	// DefaultClassificationLimit applies when a filter does not set a limit.
	DefaultClassificationLimit = 50
)

var ErrNoClassification = errors.New("no classification with this id exists")

// Classification is one classified submission result kept in the history.
type Classification struct {
	ID         string
	CreatedAt  time.Time
	Class      string
	Code       int32
	ResultCode string
	Message    string
	Layout     string
	ResultXDR  string // base64 result record as received
	Envelope   []byte // JSON encoded response envelope, nil if the request carried raw bytes
}

type ClassificationFilter struct {
	Class  string    // only rows of this class when set
	Before time.Time // only rows created strictly before this instant when set
	Limit  uint
}

type ClassificationWriter interface {
	// InsertClassification stores c, assigning its ID and creation time, and
	// trims the history to the retention window.
	InsertClassification(ctx context.Context, c Classification) (Classification, error)
}

type ClassificationReader interface {
	GetClassification(ctx context.Context, id string) (Classification, error)
	// GetClassifications returns matching rows, newest first.
	GetClassifications(ctx context.Context, filter ClassificationFilter) ([]Classification, error)
	CountByClass(ctx context.Context) (map[string]int64, error)
	// GetTotalClassifications counts every insert ever made, trimmed rows included.
	GetTotalClassifications(ctx context.Context) (uint64, error)
}

type ClassificationStore interface {
	ClassificationWriter
	ClassificationReader
}

type classificationRow struct {
	ID         string `db:"id"`
	CreatedAt  int64  `db:"created_at"`
	Class      string `db:"class"`
	Code       int32  `db:"code"`
	ResultCode string `db:"result_code"`
	Message    string `db:"message"`
	Layout     string `db:"layout"`
	ResultXDR  string `db:"result_xdr"`
	Envelope   []byte `db:"envelope"`
}

func (r classificationRow) toClassification() Classification {
	return Classification{
		ID:         r.ID,
		CreatedAt:  time.UnixMilli(r.CreatedAt).UTC(),
		Class:      r.Class,
		Code:       r.Code,
		ResultCode: r.ResultCode,
		Message:    r.Message,
		Layout:     r.Layout,
		ResultXDR:  r.ResultXDR,
		Envelope:   r.Envelope,
	}
}

var classificationColumns = []string{
	"id", "created_at", "class", "code", "result_code", "message", "layout", "result_xdr", "envelope",
}

type classificationHandler struct {
	log             *log.Entry
	db              *DB
	retentionWindow uint32
	now             func() time.Time

	// sqlite allows a single writer
	writeLock      sync.Mutex
	durationMetric *prometheus.SummaryVec
}

// NewClassificationStore builds the history store, keeping at most
// retentionWindow classifications and registering its metrics on the daemon.
func NewClassificationStore(
	log *log.Entry,
	db *DB,
	daemon interfaces.Daemon,
	retentionWindow uint32,
) ClassificationStore {
	durationMetric := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: daemon.MetricsNamespace(), Subsystem: "history",
		Name:       "operation_duration_seconds",
		Help:       "classification history operation durations, sliding window = 10m",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	},
		[]string{"operation"},
	)
	daemon.MetricsRegistry().MustRegister(durationMetric)

	return &classificationHandler{
		log:             log,
		db:              db,
		retentionWindow: retentionWindow,
		now:             time.Now,
		durationMetric:  durationMetric,
	}
}

func (h *classificationHandler) observe(operation string, start time.Time) {
	h.durationMetric.With(prometheus.Labels{"operation": operation}).
		Observe(time.Since(start).Seconds())
}

func (h *classificationHandler) InsertClassification(ctx context.Context, c Classification) (Classification, error) {
	defer h.observe("insert", time.Now())

	c.ID = uuid.NewString()
	c.CreatedAt = h.now().UTC().Truncate(time.Millisecond)

	h.writeLock.Lock()
	defer h.writeLock.Unlock()

	tx := h.db.Clone()
	if err := tx.Begin(ctx); err != nil {
		return Classification{}, err
	}
	// Rollback after a successful commit is a no-op
	defer func() { _ = tx.Rollback() }()

	query := sq.Insert(classificationTableName).
		Columns(classificationColumns...).
		Values(c.ID, c.CreatedAt.UnixMilli(), c.Class, c.Code, c.ResultCode, c.Message, c.Layout, c.ResultXDR, c.Envelope)
	if _, err := tx.Exec(ctx, query); err != nil {
		return Classification{}, fmt.Errorf("inserting classification: %w", err)
	}

	total, err := getMetaUint64(ctx, tx, totalClassificationsKey)
	if err != nil && !errors.Is(err, ErrEmptyDB) {
		return Classification{}, err
	}
	if err := setMetaUint64(ctx, tx, totalClassificationsKey, total+1); err != nil {
		return Classification{}, err
	}

	trimmed, err := h.trimClassifications(ctx, tx)
	if err != nil {
		return Classification{}, fmt.Errorf("trimming classifications: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Classification{}, err
	}

	if trimmed > 0 {
		h.log.WithFields(log.F{
			"trimmed":          trimmed,
			"retention_window": h.retentionWindow,
		}).Debug("trimmed classification history")
	}
	return c, nil
}

// trimClassifications removes all classifications which fall outside the retention window.
func (h *classificationHandler) trimClassifications(ctx context.Context, tx db.SessionInterface) (int64, error) {
	keep, args, err := sq.Select("rowid").
		From(classificationTableName).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(h.retentionWindow)).
		ToSql()
	if err != nil {
		return 0, err
	}
	result, err := tx.Exec(ctx, sq.Delete(classificationTableName).
		Where(sq.Expr("rowid NOT IN ("+keep+")", args...)))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (h *classificationHandler) GetClassification(ctx context.Context, id string) (Classification, error) {
	defer h.observe("get", time.Now())

	query := sq.Select(classificationColumns...).
		From(classificationTableName).
		Where(sq.Eq{"id": id})
	var row classificationRow
	if err := h.db.Get(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Classification{}, ErrNoClassification
		}
		return Classification{}, err
	}
	return row.toClassification(), nil
}

func (h *classificationHandler) GetClassifications(ctx context.Context, filter ClassificationFilter) ([]Classification, error) {
	defer h.observe("list", time.Now())

	limit := filter.Limit
	if limit == 0 {
		limit = DefaultClassificationLimit
	}
	query := sq.Select(classificationColumns...).
		From(classificationTableName).
		OrderBy("created_at DESC", "rowid DESC").
		Limit(uint64(limit))
	if filter.Class != "" {
		query = query.Where(sq.Eq{"class": filter.Class})
	}
	if !filter.Before.IsZero() {
		query = query.Where(sq.Lt{"created_at": filter.Before.UnixMilli()})
	}

	var rows []classificationRow
	if err := h.db.Select(ctx, &rows, query); err != nil {
		return nil, err
	}
	result := make([]Classification, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toClassification())
	}
	return result, nil
}

func (h *classificationHandler) CountByClass(ctx context.Context) (map[string]int64, error) {
	defer h.observe("count", time.Now())

	query := sq.Select("class", "COUNT(*) AS count").
		From(classificationTableName).
		GroupBy("class")
	var rows []struct {
		Class string `db:"class"`
		Count int64  `db:"count"`
	}
	if err := h.db.Select(ctx, &rows, query); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Class] = row.Count
	}
	return counts, nil
}

func (h *classificationHandler) GetTotalClassifications(ctx context.Context) (uint64, error) {
	total, err := getMetaUint64(ctx, h.db, totalClassificationsKey)
	if errors.Is(err, ErrEmptyDB) {
		return 0, nil
	}
	return total, err
}
