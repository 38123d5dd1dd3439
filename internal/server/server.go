// Package server runs the HTTP front end until its context is cancelled.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/quipper/poc/gradebook/internal/config"
	gradebookHandler "github.com/quipper/poc/gradebook/internal/controller/http/gradebook"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one debug line per request, tagged with its request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Debug("[%s] %s %s -> %d (%s)", middleware.GetReqID(r.Context()),
				r.Method, r.URL.Path, ww.Status(), time.Since(start))
		}()
		next.ServeHTTP(ww, r)
	})
}

// NewRouter mounts h behind the body size limit, panic recovery and CORS.
func NewRouter(cfg config.HTTP, h *gradebookHandler.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.RequestSize(cfg.MaxBodySize))
	router.Use(middleware.Recoverer)
	router.Mount("/", h.Router())
	return withCORS(cfg.CORSOrigin, router)
}

// Run serves handler on addr until ctx is done, then shuts down within
// cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg config.HTTP, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen: %v", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			logger.Error("server shutdown: %v", err)
			return err
		}
		return nil
	})
	err := g.Wait()
	logger.Info("server stopped")
	return err
}
