package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/observability"
	"leap-portfolio-lab/internal/simulation"
	"leap-portfolio-lab/internal/storage/memory"
)

var start = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

const historicalBody = `{"symbol":"spy","start_date":"2021-01-01","end_date":"2021-07-19"}`

const monteCarloBody = `{
	"symbol": "SIM",
	"start_date": "2022-01-01",
	"end_date": "2022-03-31",
	"simulation": {"enabled": true, "scenario": "bull", "runs": 4, "seed": 7}
}`

// bars returns n daily bars from 100 that alternate +1.1% and -0.9%.
func bars(n int) domain.PriceTable {
	rows := make(domain.PriceTable, n)
	price := 100.0
	for i := range rows {
		rows[i] = domain.PriceRow{Date: start.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price, Volume: 1e6}
		if i%2 == 0 {
			price *= 1.011
		} else {
			price *= 0.991
		}
	}
	return rows
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, configure func(*Options)) *httptest.Server {
	t.Helper()

	prices := memory.NewPriceBarStore()
	require.NoError(t, prices.InsertBulk(context.Background(), "SPY", bars(200)))

	reg := prometheus.NewRegistry()
	m := observability.NewMetricsWith(reg, "test")

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Prices:    prices,
		Results:   memory.NewResultStore(),
		Trades:    memory.NewTradeStore(),
		Snapshots: memory.NewSnapshotStore(),
		Workers:   2,
		Metrics:   m,
	})

	opts := Options{
		Runner:         runner,
		Strategies:     memory.NewStrategyStore(),
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if configure != nil {
		configure(&opts)
	}
	srv := New(opts)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestBacktestThrottle(t *testing.T) {
	ts := newTestServerWith(t, func(o *Options) {
		o.BacktestRate = rate.Every(time.Hour)
	})

	resp, _ := do(t, ts, "POST", "/backtest/run", "{bad")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, ts, "POST", "/backtest/run", historicalBody)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, string(body))
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	resp, _ = do(t, ts, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunHistorical(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "POST", "/backtest/run", historicalBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Job-ID"))

	var res domain.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotEmpty(t, res.ID)
	assert.Equal(t, "SPY", res.Config.Symbol)
	assert.Len(t, res.History, 200)
	assert.False(t, res.IsSimulation)

	// Stored result round-trips
	resp, body = do(t, ts, "GET", "/results/"+res.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loaded domain.Result
	require.NoError(t, json.Unmarshal(body, &loaded))
	assert.Equal(t, res.ID, loaded.ID)
	assert.Len(t, loaded.Trades, len(res.Trades))

	resp, body = do(t, ts, "GET", "/results", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []SummaryResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, res.ID, list[0].ID)
	assert.Equal(t, "2021-01-01", list[0].StartDate)

	resp, body = do(t, ts, "GET", "/results/"+res.ID+"/report", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# Backtest Report")

	resp, body = do(t, ts, "GET", "/results/"+res.ID+"/trades", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "date,action,asset"))

	resp, body = do(t, ts, "GET", "/results/"+res.ID+"/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 201, strings.Count(string(body), "\n"))
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"empty body", "POST", "/backtest/run", "", http.StatusBadRequest},
		{"malformed json", "POST", "/backtest/run", "{", http.StatusBadRequest},
		{"unknown field", "POST", "/backtest/run", `{"symbol":"SPY","leverage":3}`, http.StatusBadRequest},
		{"invalid config", "POST", "/backtest/run", `{"symbol":"SPY","start_date":"2021-01-01","end_date":"2021-07-19","leap_allocation":90}`, http.StatusBadRequest},
		{"no bars", "POST", "/backtest/run", `{"symbol":"QQQ","start_date":"2021-01-01","end_date":"2021-07-19"}`, http.StatusBadRequest},
		{"single run monte carlo", "POST", "/backtest/montecarlo", historicalBody, http.StatusBadRequest},
		{"missing result", "GET", "/results/nope", "", http.StatusNotFound},
		{"bad limit", "GET", "/results?limit=x", "", http.StatusBadRequest},
		{"missing strategy", "GET", "/strategies/nope", "", http.StatusNotFound},
		{"run missing strategy", "POST", "/backtest/run?strategy_id=nope", "", http.StatusNotFound},
		{"strategy and body", "POST", "/backtest/run?strategy_id=x", historicalBody, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, resp.StatusCode, tt.want, body)
			}
			var e errorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestStrategies(t *testing.T) {
	ts := newTestServer(t)

	create := `{"name":"core","description":"60/20 LEAP","parameters":` + historicalBody + `}`
	resp, body := do(t, ts, "POST", "/strategies", create)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var saved StrategyResponse
	require.NoError(t, json.Unmarshal(body, &saved))
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "SPY", saved.Parameters.Symbol)
	assert.Equal(t, 60.0, saved.Parameters.EquityAllocation)

	resp, _ = do(t, ts, "POST", "/strategies", create)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, ts, "POST", "/strategies", `{"name":"bare"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, "GET", "/strategies/"+saved.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got StrategyResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, saved.Name, got.Name)

	resp, body = do(t, ts, "GET", "/strategies", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []StrategyResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	// Run the saved strategy and check the link on the stored summary
	resp, body = do(t, ts, "POST", "/backtest/run?strategy_id="+saved.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, ts, "GET", "/results", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []SummaryResponse
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].StrategyID)
	assert.Equal(t, saved.ID, *summaries[0].StrategyID)
}

func TestMonteCarloProgressStream(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/progress?job=j1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp, body := do(t, ts, "POST", "/backtest/montecarlo?job=j1", monteCarloBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "j1", resp.Header.Get("X-Job-ID"))

	var res domain.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.MonteCarlo)
	assert.Equal(t, 4, res.MonteCarlo.Runs)
	assert.True(t, res.IsSimulation)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var runs []ProgressEvent
	for {
		var ev ProgressEvent
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "j1", ev.Job)
		if ev.Done {
			assert.Equal(t, res.ID, ev.ResultID)
			assert.Empty(t, ev.Error)
			break
		}
		runs = append(runs, ev)
	}

	require.Len(t, runs, 4)
	for i, ev := range runs {
		assert.Equal(t, i+1, ev.Completed)
		assert.Equal(t, 4, ev.Total)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	do(t, ts, "GET", "/health", "")
	resp, body := do(t, ts, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.Contains(body, []byte(`test_http_requests_total{code="OK",route="/health"} 1`)), string(body))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrEmptyPriceTable))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
