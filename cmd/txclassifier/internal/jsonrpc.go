package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal/config"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/daemon/interfaces"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/methods"
)

// Handler is the HTTP handler which serves the classifier JSON-RPC API
type Handler struct {
	bridge jhttp.Bridge
	logger *log.Entry
	http.Handler
}

// Close closes all the resources held by the Handler instances.
// After Close is called the Handler instance will stop accepting JSON RPC requests.
func (h Handler) Close() {
	if err := h.bridge.Close(); err != nil {
		h.logger.WithError(err).Warn("could not close bridge")
	}
}

type HandlerParams struct {
	ClassificationStore db.ClassificationStore
	ReadinessChecker    methods.ReadinessChecker
	Logger              *log.Entry
	Daemon              interfaces.Daemon
}

func decorateHandlers(daemon interfaces.Daemon, logger *log.Entry, m handler.Map) handler.Map {
	requestMetric := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  daemon.MetricsNamespace(),
		Subsystem:  "json_rpc",
		Name:       "request_duration_seconds",
		Help:       "JSON RPC request duration",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"endpoint", "status"})
	prometheusLabelReplacer := strings.NewReplacer(" ", "_", "-", "_", "(", "", ")", "")
	decorated := handler.Map{}
	for endpoint, h := range m {
		// create copy of h so it can be used in closure below
		h := h
		decorated[endpoint] = func(ctx context.Context, r *jrpc2.Request) (any, error) {
			reqID := strconv.FormatUint(middleware.NextRequestID(), 10)
			logRequest(logger, reqID, r)
			startTime := time.Now()
			result, err := h(ctx, r)
			duration := time.Since(startTime)
			label := prometheus.Labels{"endpoint": r.Method(), "status": "ok"}
			if err != nil {
				label["status"] = "error"
				if jsonRPCErr, ok := err.(*jrpc2.Error); ok {
					label["status"] = prometheusLabelReplacer.Replace(jsonRPCErr.Code.String())
				}
			}
			requestMetric.With(label).Observe(duration.Seconds())
			logResponse(logger, reqID, duration, label["status"], result)
			return result, err
		}
	}
	daemon.MetricsRegistry().MustRegister(requestMetric)
	return decorated
}

func logRequest(logger *log.Entry, reqID string, req *jrpc2.Request) {
	logger = logger.WithFields(log.F{
		"subsys":   "jsonrpc",
		"req":      reqID,
		"json_req": req.ID(),
		"method":   req.Method(),
	})
	logger.Info("starting JSONRPC request")

	// Params are useful but can be really verbose, let's only print them in debug level
	logger = logger.WithField("params", req.ParamString())
	logger.Debug("starting JSONRPC request params")
}

func logResponse(logger *log.Entry, reqID string, duration time.Duration, status string, response any) {
	logger = logger.WithFields(log.F{
		"subsys":   "jsonrpc",
		"req":      reqID,
		"duration": duration.String(),
		"status":   status,
	})
	logger.Info("finished JSONRPC request")

	if status == "ok" {
		responseBytes, err := json.Marshal(response)
		if err == nil {
			// the result is useful but can be really verbose, let's only print it with debug level
			logger = logger.WithField("result", string(responseBytes))
			logger.Debug("finished JSONRPC request result")
		}
	}
}

// NewJSONRPCHandler constructs a Handler instance
func NewJSONRPCHandler(cfg *config.Config, params HandlerParams) Handler {
	bridgeOptions := jhttp.BridgeOptions{
		Server: &jrpc2.ServerOptions{
			Logger: func(text string) { params.Logger.Debug(text) },
		},
	}
	handlers := []struct {
		methodName        string
		underlyingHandler jrpc2.Handler
	}{
		{
			methodName:        "getHealth",
			underlyingHandler: methods.NewHealthCheck(cfg.HistoryRetention, params.ReadinessChecker),
		},
		{
			methodName:        "getVersionInfo",
			underlyingHandler: methods.NewGetVersionInfoHandler(),
		},
		{
			methodName: "classifyTransactionResult",
			underlyingHandler: methods.NewClassifyTransactionResultHandler(
				params.Logger, params.Daemon, params.ClassificationStore, cfg.ResultLayout),
		},
		{
			methodName:        "getClassification",
			underlyingHandler: methods.NewGetClassificationHandler(params.Logger, params.ClassificationStore),
		},
		{
			methodName:        "getClassifications",
			underlyingHandler: methods.NewGetClassificationsHandler(params.Logger, params.ClassificationStore),
		},
		{
			methodName: "getClassificationStats",
			underlyingHandler: methods.NewGetClassificationStatsHandler(
				params.Logger, params.ClassificationStore, cfg.HistoryRetention),
		},
	}

	handlersMap := handler.Map{}
	for _, handler := range handlers {
		handlersMap[handler.methodName] = handler.underlyingHandler
	}
	bridge := jhttp.NewBridge(decorateHandlers(params.Daemon, params.Logger, handlersMap), &bridgeOptions)

	var httpHandler http.Handler = bridge
	if cfg.RequestTimeout > 0 {
		httpHandler = middleware.Timeout(cfg.RequestTimeout)(httpHandler)
	}
	if cfg.MaxRequestSize > 0 {
		httpHandler = http.MaxBytesHandler(httpHandler, int64(cfg.MaxRequestSize))
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
	})

	return Handler{
		bridge:  bridge,
		logger:  params.Logger,
		Handler: corsMiddleware.Handler(httpHandler),
	}
}
