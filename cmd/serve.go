package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/callsheet-cli/internal/callsheet"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the call-sheet HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/productions", func(w http.ResponseWriter, req *http.Request) {
			groups, err := env.Service.ListGroupedProductions(req.Context())
			if err != nil {
				zap.L().Error("list productions", zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, groups)
		})

		r.Get("/productions/{id}", func(w http.ResponseWriter, req *http.Request) {
			prod, err := env.Service.GetProduction(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeGetError(w, err)
				return
			}
			result := env.Service.Authenticate(prod, req.URL.Query().Get("phone"))
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/productions/{id}/enrich", func(w http.ResponseWriter, req *http.Request) {
			prod, err := env.Service.GetProduction(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeGetError(w, err)
				return
			}
			if _, err := env.Service.Enrich(req.Context(), prod); err != nil {
				zap.L().Error("enrich production", zap.String("id", prod.ID), zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "enrichment failed"})
				return
			}
			// Phones stay redacted on the enrich reply; callers fetch the
			// full view through the authenticated GET.
			writeJSON(w, http.StatusOK, env.Service.Sanitize(prod))
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeGetError(w http.ResponseWriter, err error) {
	if errors.Is(err, callsheet.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "production not found"})
		return
	}
	zap.L().Error("get production", zap.Error(err))
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream unavailable"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
