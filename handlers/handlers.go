package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pricer/extract"
	"pricer/repository"
	"pricer/scheduler"
	"pricer/scraper"
)

type Handlers struct {
	runner    *scheduler.Runner
	runRepo   *repository.RunRepository
	priceRepo *repository.PriceRepository
}

func NewHandlers(runner *scheduler.Runner) *Handlers {
	return &Handlers{
		runner:    runner,
		runRepo:   repository.NewRunRepository(),
		priceRepo: repository.NewPriceRepository(),
	}
}

// TriggerRun starts a manual scrape run in the background
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.runner.IsRunning() {
		writeError(w, http.StatusConflict, "a scrape run is already in progress")
		return
	}

	go func() {
		if _, err := h.runner.RunOnce(context.Background(), "manual"); err != nil {
			log.Printf("Manual run failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "run started"})
}

// GetRuns returns the most recent scrape runs
func (h *Handlers) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	runs, err := h.runRepo.GetRecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRun returns one scrape run
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := h.runRepo.GetRunByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	promotions, err := h.priceRepo.CountPromotions(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count promotions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"run": run, "promotions": promotions})
}

// GetRunPrices returns the prices captured during one run
func (h *Handlers) GetRunPrices(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	prices, err := h.priceRepo.GetPricesForRun(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get prices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": id, "prices": prices})
}

// GetRetailers lists the supported retailers
func (h *Handlers) GetRetailers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"retailers": scraper.SupportedRetailers()})
}

// ExtractRequest is the payload for ad-hoc extraction
type ExtractRequest struct {
	Store   string `json:"store"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

// ExtractPrice runs the extraction engine on caller-supplied text, useful
// for debugging selector output without a browser
func (h *Handlers) ExtractPrice(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	profile := extract.ProfileFor(req.Store)
	rec, err := extract.Extract(req.Text, req.Context, profile)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, extract.ErrNoPriceFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
