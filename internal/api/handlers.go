package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"leap-portfolio-lab/internal/config"
	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/montecarlo"
	"leap-portfolio-lab/internal/reporting"
	"leap-portfolio-lab/internal/simulation"
	"leap-portfolio-lab/internal/storage"
)

const maxBodyBytes = 1 << 20

// StrategyRequest is the body of POST /strategies.
type StrategyRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// StrategyResponse is a saved strategy with parameters in external form.
type StrategyResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parameters  config.Params `json:"parameters"`
	CreatedAt   time.Time     `json:"created_at"`
}

// SummaryResponse is one row of GET /results.
type SummaryResponse struct {
	ID             string    `json:"id"`
	StrategyID     *string   `json:"strategy_id,omitempty"`
	Symbol         string    `json:"symbol"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	FinalBenchmark float64   `json:"final_benchmark"`
	TotalReturn    float64   `json:"total_return"`
	CAGR           float64   `json:"cagr"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	IsSimulation   bool      `json:"is_simulation"`
	Runs           int       `json:"runs"`
	TradeCount     int       `json:"trade_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.runBacktest(w, r, false)
}

func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	s.runBacktest(w, r, true)
}

// runBacktest resolves the config from the body or a saved strategy and runs it.
// Progress of Monte Carlo batches is published under the ?job= id.
func (s *Server) runBacktest(w http.ResponseWriter, r *http.Request, monteCarlo bool) {
	ctx := r.Context()

	cfg, strategyID, err := s.resolveConfig(ctx, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if monteCarlo {
		cfg.Simulation.Enabled = true
		if cfg.Simulation.Runs < 2 {
			s.writeError(w, fmt.Errorf("%w: monte carlo needs simulation.runs >= 2, got %d",
				domain.ErrInvalidConfig, cfg.Simulation.Runs))
			return
		}
	}

	job := r.URL.Query().Get("job")
	if job == "" {
		job = s.newID()
	}
	w.Header().Set("X-Job-ID", job)

	req := simulation.Request{Config: cfg, StrategyID: strategyID}
	if cfg.MonteCarlo() {
		req.Progress = func(p montecarlo.Progress) {
			s.hub.Publish(progressEvent(job, p))
		}
	}

	res, err := s.runner.Run(ctx, req)
	s.hub.Publish(doneEvent(job, res, err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// resolveConfig reads parameters from the body. With ?strategy_id= the saved
// strategy's parameters are used instead, and the body must be empty.
func (s *Server) resolveConfig(ctx context.Context, r *http.Request) (domain.Config, *string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.Config{}, nil, fmt.Errorf("%w: read body: %w", domain.ErrInvalidInput, err)
	}

	if id := r.URL.Query().Get("strategy_id"); id != "" {
		if len(bytes.TrimSpace(body)) > 0 {
			return domain.Config{}, nil, fmt.Errorf("%w: strategy_id and a request body are mutually exclusive", domain.ErrInvalidInput)
		}
		if s.strategies == nil {
			return domain.Config{}, nil, storage.ErrNotFound
		}
		saved, err := s.strategies.GetByID(ctx, id)
		if err != nil {
			return domain.Config{}, nil, fmt.Errorf("strategy %s: %w", id, err)
		}
		return saved.Params, &saved.ID, nil
	}

	params, err := config.DecodeJSON(body)
	if err != nil {
		return domain.Config{}, nil, err
	}
	cfg, err := params.ToDomain()
	if err != nil {
		return domain.Config{}, nil, err
	}
	return cfg, nil, nil
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("%w: limit %q", domain.ErrInvalidInput, v))
			return
		}
		limit = n
	}

	summaries, err := s.runner.Summaries(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]SummaryResponse, len(summaries))
	for i, sum := range summaries {
		out[i] = toSummaryResponse(sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResultReport(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, "text/markdown; charset=utf-8", reporting.RenderMarkdown(reporting.FromResult(res, s.now().UTC())))
}

func (s *Server) handleResultTrades(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, "text/csv", reporting.RenderTradesCSV(res.Trades))
}

func (s *Server) handleResultHistory(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeText(w, "text/csv", reporting.RenderHistoryCSV(res.History))
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		s.writeError(w, errors.New("strategy storage is not configured"))
		return
	}

	var req StrategyRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = decodeStrict(body, &req)
	}
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	if req.Name == "" {
		s.writeError(w, fmt.Errorf("%w: name is required", domain.ErrInvalidInput))
		return
	}
	if len(req.Parameters) == 0 {
		s.writeError(w, fmt.Errorf("%w: parameters are required", domain.ErrInvalidInput))
		return
	}

	params, err := config.DecodeJSON(req.Parameters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := params.ToDomain()
	if err != nil {
		s.writeError(w, err)
		return
	}

	saved := &domain.SavedStrategy{
		ID:          s.newID(),
		Name:        req.Name,
		Description: req.Description,
		Params:      cfg,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.strategies.Insert(r.Context(), saved); err != nil {
		s.writeError(w, fmt.Errorf("strategy %q: %w", req.Name, err))
		return
	}
	writeJSON(w, http.StatusCreated, toStrategyResponse(saved))
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		writeJSON(w, http.StatusOK, []StrategyResponse{})
		return
	}
	list, err := s.strategies.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]StrategyResponse, len(list))
	for i, saved := range list {
		out[i] = toStrategyResponse(saved)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	if s.strategies == nil {
		s.writeError(w, storage.ErrNotFound)
		return
	}
	saved, err := s.strategies.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStrategyResponse(saved))
}

func toStrategyResponse(s *domain.SavedStrategy) StrategyResponse {
	return StrategyResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Parameters:  config.FromDomain(s.Params),
		CreatedAt:   s.CreatedAt,
	}
}

func toSummaryResponse(s *domain.ResultSummary) SummaryResponse {
	return SummaryResponse{
		ID:             s.ResultID,
		StrategyID:     s.StrategyID,
		Symbol:         s.Symbol,
		StartDate:      s.StartDate.Format(domain.DateLayout),
		EndDate:        s.EndDate.Format(domain.DateLayout),
		InitialCapital: s.InitialCapital,
		FinalValue:     s.FinalValue,
		FinalBenchmark: s.FinalBenchmark,
		TotalReturn:    s.TotalReturn,
		CAGR:           s.CAGR,
		MaxDrawdown:    s.MaxDrawdown,
		SharpeRatio:    s.SharpeRatio,
		IsSimulation:   s.IsSimulation,
		Runs:           s.Runs,
		TradeCount:     s.TradeCount,
		CreatedAt:      s.CreatedAt,
	}
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
