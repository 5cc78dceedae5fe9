package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	supporthttp "github.com/stellar/go/support/http"
	supportlog "github.com/stellar/go/support/log"

	"github.com/stellar/txclassifier/cmd/txclassifier/internal"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/config"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/daemon/interfaces"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/db"
	"github.com/stellar/txclassifier/cmd/txclassifier/internal/util"
)

const (
	defaultReadTimeout         = 5 * time.Second
	defaultShutdownGracePeriod = 10 * time.Second
)

type Daemon struct {
	db             *db.DB
	jsonRPCHandler *internal.Handler
	logger         *supportlog.Entry
	listener       net.Listener
	server         *http.Server
	adminListener  net.Listener
	adminServer    *http.Server
	closeOnce      sync.Once
	closeError     error
	done           chan struct{}
	// panics counts server goroutines which crashed
	panics          prometheus.Counter
	metricsRegistry *prometheus.Registry
}

func (d *Daemon) GetDB() *db.DB {
	return d.db
}

func (d *Daemon) GetEndpointAddrs() (net.TCPAddr, *net.TCPAddr) {
	var addr = d.listener.Addr().(*net.TCPAddr)
	var adminAddr *net.TCPAddr
	if d.adminListener != nil {
		adminAddr = d.adminListener.Addr().(*net.TCPAddr)
	}
	return *addr, adminAddr
}

func (d *Daemon) close() {
	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), defaultShutdownGracePeriod)
	defer shutdownRelease()
	var closeErrors []error

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.WithError(err).Error("error during classifier JSON RPC server Shutdown")
		closeErrors = append(closeErrors, err)
	}
	if d.adminServer != nil {
		if err := d.adminServer.Shutdown(shutdownCtx); err != nil {
			d.logger.WithError(err).Error("error during classifier admin server Shutdown")
			closeErrors = append(closeErrors, err)
		}
	}
	d.jsonRPCHandler.Close()
	if err := d.db.Close(); err != nil {
		d.logger.WithError(err).Error("Error closing db")
		closeErrors = append(closeErrors, err)
	}
	d.closeError = errors.Join(closeErrors...)
	close(d.done)
}

// Close stops the servers and releases the store. It is safe to call more than once.
func (d *Daemon) Close() error {
	d.closeOnce.Do(d.close)
	return d.closeError
}

func newLogger(cfg *config.Config, logger *supportlog.Entry) *supportlog.Entry {
	if logger == nil {
		logger = supportlog.New()
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == config.LogFormatJSON {
		logger.UseJSONFormatter()
	}
	return logger
}

// MustNew creates a daemon listening on the configured endpoints. It exits the
// process if the store cannot be opened or an endpoint cannot be bound.
func MustNew(cfg *config.Config, logger *supportlog.Entry) *Daemon {
	logger = newLogger(cfg, logger)
	logger.WithFields(supportlog.F{
		"version": config.Version,
		"commit":  config.CommitHash,
		"layout":  cfg.ResultLayout.String(),
	}).Info("starting txclassifier")

	metricsRegistry := prometheus.NewRegistry()
	daemon := &Daemon{
		logger:          logger,
		done:            make(chan struct{}),
		metricsRegistry: metricsRegistry,
	}

	dbConn, err := db.OpenSQLiteDBWithPrometheusMetrics(cfg.SQLiteDBPath, interfaces.PrometheusNamespace, "db", metricsRegistry)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.SQLiteDBPath).Fatal("could not open database")
	}
	daemon.db = dbConn

	jsonRPCHandler := internal.NewJSONRPCHandler(cfg, internal.HandlerParams{
		ClassificationStore: db.NewClassificationStore(logger, dbConn, daemon, cfg.HistoryRetention),
		ReadinessChecker:    dbConn,
		Logger:              logger,
		Daemon:              daemon,
	})
	daemon.jsonRPCHandler = &jsonRPCHandler

	httpHandler := supporthttp.NewAPIMux(logger)
	httpHandler.Handle("/", jsonRPCHandler)

	// Use a separate listener in order to obtain the actual TCP port
	// when using dynamic ports during testing (e.g. endpoint="localhost:0")
	daemon.listener, err = net.Listen("tcp", cfg.Endpoint)
	if err != nil {
		daemon.logger.WithError(err).WithField("endpoint", cfg.Endpoint).Fatal("cannot listen on endpoint")
	}
	daemon.server = &http.Server{
		Handler:     httpHandler,
		ReadTimeout: defaultReadTimeout,
	}
	if cfg.AdminEndpoint != "" {
		adminMux := supporthttp.NewMux(logger)
		adminMux.Mount("/debug", middleware.Profiler())
		adminMux.Handle("/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
		daemon.adminListener, err = net.Listen("tcp", cfg.AdminEndpoint)
		if err != nil {
			daemon.logger.WithError(err).WithField("endpoint", cfg.AdminEndpoint).Fatal("cannot listen on admin endpoint")
		}
		daemon.adminServer = &http.Server{Handler: adminMux, ReadTimeout: defaultReadTimeout}
	}
	daemon.registerMetrics()
	return daemon
}

func (d *Daemon) Run() {
	d.logger.WithFields(supportlog.F{
		"addr": d.listener.Addr().String(),
	}).Info("starting HTTP server")

	panicGroup := util.UnrecoverablePanicGroup.Log(d.logger).Counter(d.panics)
	panicGroup.Go(func() {
		if err := d.server.Serve(d.listener); !errors.Is(err, http.ErrServerClosed) {
			d.logger.WithError(err).Fatal("classifier JSON RPC server encountered fatal error")
		}
	})

	if d.adminServer != nil {
		d.logger.WithFields(supportlog.F{
			"addr": d.adminListener.Addr().String(),
		}).Info("starting Admin HTTP server")
		panicGroup.Go(func() {
			if err := d.adminServer.Serve(d.adminListener); !errors.Is(err, http.ErrServerClosed) {
				d.logger.WithError(err).Error("classifier admin server encountered fatal error")
			}
		})
	}

	// Shutdown gracefully when we receive an interrupt signal.
	// First server.Shutdown closes all open listeners, then closes all idle connections.
	// Finally, it waits a grace period (10s here) for connections to return to idle and then shut down.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case <-signals:
		d.Close()
	case <-d.done:
		return
	}
}
