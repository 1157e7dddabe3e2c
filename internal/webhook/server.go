package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"spy-options-webhook/internal/options"
	"spy-options-webhook/internal/types"
)

// ChainFetcher provides the current underlying price and call chain.
type ChainFetcher interface {
	FetchChainSnapshot(ticker string) (float64, []types.OptionContract, error)
}

// Notifier delivers one text message to the destination channel.
type Notifier interface {
	Send(text string) bool
}

// Server owns the webhook endpoints. It keeps no state between
// requests; every request runs the full fetch/select/format pipeline.
type Server struct {
	Ticker   string
	Market   ChainFetcher
	Notifier Notifier
	Metrics  *Metrics

	now func() time.Time
}

// NewServer builds a webhook server around the given collaborators.
func NewServer(ticker string, market ChainFetcher, notifier Notifier) *Server {
	return &Server{
		Ticker:   ticker,
		Market:   market,
		Notifier: notifier,
		now:      time.Now,
	}
}

// Router wires the HTTP surface. Cross-origin requests are allowed on
// the /webhook subtree only; this is a testing relaxation, not a
// production posture.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware)

	webhooks := r.PathPrefix("/webhook").Subrouter()
	webhooks.Use(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	))
	webhooks.HandleFunc("/trigger-scrape", s.handleTriggerScrape).Methods(http.MethodGet, http.MethodPost, http.MethodOptions)
	webhooks.HandleFunc("/check-conditions", s.handleCheckConditions).Methods(http.MethodPost, http.MethodOptions)
	webhooks.HandleFunc("/manual-send", s.handleManualSend).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return r
}

type pipelineResponse struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	OptionData types.OptionContract `json:"option_data"`
	Timestamp  string               `json:"timestamp"`
}

type currentData struct {
	SpyPrice float64              `json:"spy_price"`
	Option   types.OptionContract `json:"option"`
}

type conditionsResponse struct {
	ShouldTrigger bool                    `json:"should_trigger"`
	Conditions    types.TriggerConditions `json:"conditions"`
	CurrentData   currentData             `json:"current_data"`
	Timestamp     string                  `json:"timestamp"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleTriggerScrape(w http.ResponseWriter, r *http.Request) {
	s.countRequest("trigger-scrape")

	selection, message, ok := s.runPipeline(w)
	if !ok {
		return
	}

	if !s.Notifier.Send(message) {
		s.countNotification(false)
		respondError(w, "Failed to send to Telegram")
		return
	}
	s.countNotification(true)

	log.Infof("sent to channel:\n%s", message)

	respondJSON(w, http.StatusOK, pipelineResponse{
		Success:    true,
		Message:    "Data sent to Telegram",
		OptionData: selection[0],
		Timestamp:  s.timestamp(),
	})
}

func (s *Server) handleCheckConditions(w http.ResponseWriter, r *http.Request) {
	s.countRequest("check-conditions")

	price, calls, err := s.Market.FetchChainSnapshot(s.Ticker)
	if err != nil {
		respondError(w, "Could not fetch data")
		return
	}

	selection := options.SelectContracts(price, calls)
	if len(selection) == 0 {
		respondError(w, "Could not fetch data")
		return
	}

	conditions := options.EvaluateConditions(selection[0], s.now())

	respondJSON(w, http.StatusOK, conditionsResponse{
		ShouldTrigger: conditions.ShouldTrigger(),
		Conditions:    conditions,
		CurrentData: currentData{
			SpyPrice: math.Round(price*100) / 100,
			Option:   selection[0],
		},
		Timestamp: s.timestamp(),
	})
}

func (s *Server) handleManualSend(w http.ResponseWriter, r *http.Request) {
	s.countRequest("manual-send")

	selection, message, ok := s.runPipeline(w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, pipelineResponse{
		Success:    true,
		Message:    message,
		OptionData: selection[0],
		Timestamp:  s.timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: s.timestamp(),
	})
}

// runPipeline performs the shared fetch/select/format steps. On failure
// it writes the error response and reports ok=false.
func (s *Server) runPipeline(w http.ResponseWriter) ([]types.OptionContract, string, bool) {
	price, calls, err := s.Market.FetchChainSnapshot(s.Ticker)
	if err != nil {
		respondError(w, fmt.Sprintf("Error: Could not fetch %s options data", s.Ticker))
		return nil, "", false
	}

	selection := options.SelectContracts(price, calls)
	if len(selection) == 0 {
		respondError(w, fmt.Sprintf("Error: Could not fetch %s options data", s.Ticker))
		return nil, "", false
	}

	return selection, options.FormatMessage(s.Ticker, price, selection), true
}

// SendStartupAlert runs the pipeline once before the listener is up.
// Failures are logged and swallowed, never fatal.
func (s *Server) SendStartupAlert() {
	price, calls, err := s.Market.FetchChainSnapshot(s.Ticker)
	if err != nil {
		log.Errorf("no data to send on startup: %v", err)
		return
	}

	selection := options.SelectContracts(price, calls)
	if len(selection) == 0 {
		log.Error("no data to send on startup: empty selection")
		return
	}

	if s.Notifier.Send(options.FormatMessage(s.Ticker, price, selection)) {
		s.countNotification(true)
		log.Info("startup alert sent to channel")
	} else {
		s.countNotification(false)
		log.Error("failed to send startup alert to channel")
	}
}

// recoverMiddleware is the outermost failure boundary: any panic during
// request handling becomes a 500 with the panic's text, never a raw
// fault to the caller.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stackBuf := make([]byte, 1024)
				stackSize := runtime.Stack(stackBuf, false)
				stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
				log.Errorf("recovered from panic: %v\nstack trace: %s", rec, stackTrace)
				respondError(w, fmt.Sprintf("%v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countRequest(endpoint string) {
	if s.Metrics != nil {
		s.Metrics.RequestsServed.WithLabelValues(endpoint).Inc()
	}
}

func (s *Server) countNotification(sent bool) {
	if s.Metrics == nil {
		return
	}
	if sent {
		s.Metrics.NotificationsSent.Inc()
	} else {
		s.Metrics.NotificationFailures.Inc()
	}
}

func (s *Server) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusInternalServerError, map[string]string{"error": message})
}
