package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mkarlsen/rentscout/config"
	"mkarlsen/rentscout/internal/pipeline"
	"mkarlsen/rentscout/logger"
	apperrors "mkarlsen/rentscout/pkg/errors"
	"mkarlsen/rentscout/services/notify"
	"mkarlsen/rentscout/services/store"
	"mkarlsen/rentscout/services/worker"
)

// Server exposes the scrape pipeline over HTTP: health checks, manual scrape
// triggers, and the inbound chat webhook. It is a thin adapter; all pipeline
// semantics live behind the worker.
type Server struct {
	worker   *worker.Worker
	store    store.Store
	notifier notify.Notifier
	sites    []config.Site
	log      *logger.Logger
}

// New creates a server over the given collaborators
func New(w *worker.Worker, st store.Store, n notify.Notifier, sites []config.Site) *Server {
	return &Server{
		worker:   w,
		store:    st,
		notifier: n,
		sites:    sites,
		log:      logger.ForServer(),
	}
}

// Router builds the HTTP route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/scrape", s.handleScrapeAll).Methods(http.MethodPost)
	r.HandleFunc("/scrape/{site}", s.handleScrapeSite).Methods(http.MethodPost)
	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// scrapeResponse is the JSON shape for manual scrape triggers
type scrapeResponse struct {
	Status string                `json:"status"`
	Sites  map[string]siteResult `json:"sites"`
}

type siteResult struct {
	New     int    `json:"new"`
	Removed int    `json:"removed"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleScrapeAll(w http.ResponseWriter, r *http.Request) {
	results := s.worker.ScrapeAndNotify(r.Context())
	writeJSON(w, http.StatusOK, toScrapeResponse(results))
}

func (s *Server) handleScrapeSite(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["site"]
	res := s.worker.ScrapeSite(r.Context(), name)

	status := http.StatusOK
	if res.Err != nil && res.Err.Kind == apperrors.KindUnknownSite {
		status = http.StatusNotFound
	}
	writeJSON(w, status, toScrapeResponse(map[string]pipeline.Result{res.Site: res}))
}

// telegramUpdate is the subset of Telegram's webhook payload we consume
type telegramUpdate struct {
	Message struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update telegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.log.Warn().Err(err).Msg("Unparseable webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "bad payload"})
		return
	}

	if update.Message.Chat.ID == 0 || update.Message.Text == "" {
		// Not a text message; acknowledge and move on
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	chatID := jsonNumber(update.Message.Chat.ID)
	s.log.Info().Str("chat_id", chatID).Str("text", update.Message.Text).Msg("Received command")

	reply := s.HandleCommand(r.Context(), update.Message.Text)
	if err := s.notifier.SendTo(r.Context(), chatID, reply); err != nil {
		s.log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to send reply")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toScrapeResponse(results map[string]pipeline.Result) scrapeResponse {
	resp := scrapeResponse{Status: "ok", Sites: make(map[string]siteResult, len(results))}
	for name, res := range results {
		sr := siteResult{
			New:     len(res.Diff.New),
			Removed: len(res.Diff.Removed),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
			resp.Status = "partial"
		}
		resp.Sites[name] = sr
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

// ListenAndServe runs the HTTP server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // manual scrapes render in-request
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
