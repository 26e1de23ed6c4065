package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mchmarny/radex/pkg/metrics"
	urfave "github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 60
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080

	portFlagName = "port"
	hostFlagName = "host"
)

func newServerCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP API server",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  portFlagName,
				Usage: "Port on which the server will listen",
				Value: serverPortDefault,
			},
			&urfave.StringFlag{
				Name:  hostFlagName,
				Usage: "Address on which the server will listen",
				Value: "127.0.0.1",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	address := fmt.Sprintf("%s:%d", cmd.String(hostFlagName), int(cmd.Int(portFlagName)))

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(newAPI(cfg.DB, cfg.Config, collector)),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting server", "error", err)
			stop()
		}
	}()

	slog.Info("server started", "address", "http://"+address)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(a *api) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/n", a.metrics.Instrument("/api/n", a.exponentHandler))
	mux.HandleFunc("POST /api/exposure", a.metrics.Instrument("/api/exposure", a.exposureHandler))
	mux.HandleFunc("POST /api/source", a.metrics.Instrument("/api/source", a.sourceHandler))
	mux.HandleFunc("POST /api/survey", a.metrics.Instrument("/api/survey", a.surveyHandler))
	mux.HandleFunc("GET /api/history", a.metrics.Instrument("/api/history", a.historyHandler))
	mux.HandleFunc("GET /api/history/stats", a.metrics.Instrument("/api/history/stats", a.statsHandler))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	})

	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}

	return mux
}
