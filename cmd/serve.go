package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/igrtec/partida-cli/internal/config"
	"github.com/igrtec/partida-cli/internal/export"
	"github.com/igrtec/partida-cli/internal/match"
	"github.com/igrtec/partida-cli/internal/model"
	"github.com/igrtec/partida-cli/internal/normalize"
	"github.com/igrtec/partida-cli/internal/store"
	"github.com/igrtec/partida-cli/pkg/catalog"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, newCatalogClient(), cfg),
		}

		shutdownOnDone(ctx, srv, 10*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownOnDone stops srv once ctx is canceled. The signal context is
// already dead at that point, so shutdown gets its own deadline to let
// in-flight requests drain.
func shutdownOnDone(ctx context.Context, srv *http.Server, drain time.Duration) {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// analyzeRequest is the POST /api/v1/analyze body. Comments arrive as plain
// strings; row numbers are assigned in order. Items, when present, replace
// the API catalog so callers can match against their own line items.
type analyzeRequest struct {
	Contract  string              `json:"contract"`
	Comments  []string            `json:"comments"`
	Items     []model.CatalogItem `json:"items,omitempty"`
	Info      model.ContractInfo  `json:"info"`
	Threshold int                 `json:"threshold,omitempty"`
	Save      bool                `json:"save,omitempty"`
}

func newRouter(st store.Store, client catalog.Client, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", handleAnalyze(st, client, cfg))
		r.Get("/runs", handleListRuns(st))
		r.Get("/runs/{id}", handleGetRun(st))
	})

	return r
}

func handleAnalyze(st store.Store, client catalog.Client, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		contract, err := parseContract(req.Contract)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Comments) == 0 {
			writeError(w, http.StatusBadRequest, "comments are required")
			return
		}

		items := req.Items
		if len(items) == 0 {
			items, err = client.Fetch(r.Context(), contract)
			if err != nil {
				zap.L().Error("catalog fetch failed", zap.Error(err))
				writeError(w, http.StatusBadGateway, "catalog fetch failed")
				return
			}
		}

		comments := make([]model.Comment, len(req.Comments))
		for i, text := range req.Comments {
			comments[i] = model.Comment{Row: i + 1, Text: text}
		}

		matchCfg := cfg.Match
		if req.Threshold > 0 {
			matchCfg.Threshold = req.Threshold
		}

		matcher := match.New(normalize.New(normalize.DefaultRewrites), matchCfg)
		detections, err := matcher.Run(r.Context(), items, comments, req.Info)
		if err != nil {
			zap.L().Error("analysis failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "analysis failed")
			return
		}

		run := &model.Run{
			ID:           uuid.NewString(),
			Contract:     contract,
			Info:         req.Info,
			Detections:   detections,
			CommentCount: len(comments),
			ItemCount:    len(items),
			CreatedAt:    time.Now().UTC(),
		}
		if req.Save {
			if err := st.SaveRun(r.Context(), run); err != nil {
				zap.L().Error("save run failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "save run failed")
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":     run.ID,
			"contract":   run.Contract,
			"comments":   run.CommentCount,
			"items":      run.ItemCount,
			"detections": export.Rows(run),
		})
	}
}

func handleListRuns(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.RunFilter{}
		if c := r.URL.Query().Get("contract"); c != "" {
			contract, err := parseContract(c)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			filter.Contract = contract
		}
		if l := r.URL.Query().Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			filter.Limit = n
		}

		runs, err := st.ListRuns(r.Context(), filter)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list runs failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	}
}

func handleGetRun(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "run not found")
				return
			}
			zap.L().Error("get run failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get run failed")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
