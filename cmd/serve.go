package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/competition"
	"github.com/parkstone-group/sitescore-cli/internal/model"
	"github.com/parkstone-group/sitescore-cli/internal/store"
)

var (
	servePort  int
	serveStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screening HTTP service",
	Long: `Serves the same evaluator behind an HTTP API. POST /v1/screen takes a
site JSON body and returns the full score result synchronously. With
--store, every screened site is saved under a single serve run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEvaluator()
		if err != nil {
			return err
		}

		var st store.Store
		runID := ""
		if serveStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "serve: migrate store")
			}

			// The run row must exist before the first result references it.
			// Its summary stays zero; rows attach as requests arrive.
			now := time.Now().UTC()
			run := model.Run{
				Kind:          model.RunKindServe,
				CycleYear:     competition.RulesFromConfig(cfg.Rules).CycleYear,
				DatasetDigest: env.Catalog.Fingerprint(cfg.Datasets),
				StartedAt:     now,
				FinishedAt:    now,
			}
			if err := st.SaveRun(ctx, &run); err != nil {
				return eris.Wrap(err, "serve: save run")
			}
			runID = run.ID
			zap.L().Info("serve: persisting results", zap.String("run_id", run.ID))
		}

		mux := buildMux(env.Evaluator, st, runID, cfg.Server.APIKey)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveStore, "store", false, "persist each screened site to the results store")
	rootCmd.AddCommand(serveCmd)
}

// screener scores one site; *pipeline.Evaluator satisfies it.
type screener interface {
	EvaluateSite(ctx context.Context, site model.Site) model.ScoreResult
}

// buildMux wires the service routes. A nil store disables persistence; an
// empty apiKey disables auth on the screen endpoint.
func buildMux(sc screener, st store.Store, runID, apiKey string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /v1/screen", func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("Authorization") != "Bearer "+apiKey {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}

		var site model.Site
		if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		if !site.HasCoordinates() && (site.Address == "" || site.City == "" || site.State == "") {
			http.Error(w, `{"error":"address or lat/lon required"}`, http.StatusBadRequest)
			return
		}

		if site.DealType == "" {
			site.DealType = model.Deal9Percent
		} else {
			dt, err := model.ParseDealType(string(site.DealType))
			if err != nil {
				http.Error(w, `{"error":"deal_type must be 9 or 4"}`, http.StatusBadRequest)
				return
			}
			site.DealType = dt
		}

		if site.ID == "" {
			site.ID = uuid.NewString()
		}

		result := sc.EvaluateSite(r.Context(), site)

		if st != nil {
			if err := st.SaveResult(r.Context(), runID, &result); err != nil {
				zap.L().Error("serve: save result failed",
					zap.String("site", site.ID),
					zap.Error(err),
				)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result)
	})

	return mux
}
