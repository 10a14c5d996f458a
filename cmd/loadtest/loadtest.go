package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yuzvak/salesboard-service/internal/infrastructure/auth"
)

type LoadTestConfig struct {
	BaseURL   string
	JWTSecret string
	Issuer    string
	Buyers    int
	Rounds    int
	Stock     int
}

type outcome string

const (
	outcomeSold       outcome = "sold"
	outcomeConflict   outcome = "conflict"
	outcomeOutOfStock outcome = "out_of_stock"
	outcomeError      outcome = "error"
)

type Report struct {
	StartTime      time.Time       `json:"start_time"`
	TotalDuration  time.Duration   `json:"total_duration"`
	Outcomes       map[outcome]int `json:"outcomes"`
	UnitsSold      int             `json:"units_sold"`
	InitialStock   int             `json:"initial_stock"`
	FinalStock     int             `json:"final_stock"`
	StockConserved bool            `json:"stock_conserved"`
	P50            time.Duration   `json:"p50"`
	P95            time.Duration   `json:"p95"`
	P99            time.Duration   `json:"p99"`
	Errors         map[string]int  `json:"errors,omitempty"`
}

type LoadTester struct {
	config *LoadTestConfig
	tokens *auth.Tokens
	base   http.RoundTripper

	mu        sync.Mutex
	outcomes  map[outcome]int
	latencies []time.Duration
	errors    map[string]int
}

func NewLoadTester(config *LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		tokens: auth.NewTokens(config.JWTSecret, config.Issuer, time.Hour),
		base: &http.Transport{
			MaxIdleConns:        1000,
			MaxIdleConnsPerHost: 200,
		},
		outcomes: make(map[outcome]int),
		errors:   make(map[string]int),
	}
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
	Message   string          `json:"message"`
}

type item struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// buyer is one simulated user with its own session cookie and token.
type buyer struct {
	client *http.Client
	token  string
	base   string
}

func (lt *LoadTester) newBuyer(name string) (*buyer, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	token, err := lt.tokens.Issue(auth.Principal{Subject: name, Name: name})
	if err != nil {
		return nil, err
	}
	return &buyer{
		client: &http.Client{Timeout: 30 * time.Second, Transport: lt.base, Jar: jar},
		token:  token,
		base:   lt.config.BaseURL,
	}, nil
}

func (b *buyer) do(ctx context.Context, method, path string, body interface{}) (int, envelope, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, envelope{}, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, b.base+path, &buf)
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, envelope{}, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, env, nil
}

func (lt *LoadTester) Run(ctx context.Context) (*Report, error) {
	seller, err := lt.newBuyer("loadtest-seller")
	if err != nil {
		return nil, err
	}

	status, env, err := seller.do(ctx, http.MethodPost, "/admin/inventory", map[string]interface{}{
		"name":     "Contended widget",
		"price":    "1.00",
		"quantity": lt.config.Stock,
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("create item: status %d: %s", status, env.Message)
	}
	var it item
	if err := json.Unmarshal(env.Data, &it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < lt.config.Buyers; i++ {
		b, err := lt.newBuyer("loadtest-buyer-" + strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			for round := 0; round < lt.config.Rounds; round++ {
				if gctx.Err() != nil {
					return nil
				}
				lt.checkoutOnce(gctx, b, it.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	end := time.Now()

	status, env, err = seller.do(ctx, http.MethodGet, "/inventory/"+strconv.FormatInt(it.ID, 10), nil)
	if err != nil || status != http.StatusOK {
		return nil, fmt.Errorf("read final stock: status %d: %v", status, err)
	}
	var final item
	if err := json.Unmarshal(env.Data, &final); err != nil {
		return nil, err
	}

	return lt.report(start, end, final.Quantity), nil
}

func (lt *LoadTester) checkoutOnce(ctx context.Context, b *buyer, itemID int64) {
	status, env, err := b.do(ctx, http.MethodPost, "/cart/items", map[string]interface{}{"item_id": itemID, "quantity": 1})
	if err != nil || status != http.StatusCreated {
		if status == http.StatusConflict {
			lt.record(outcomeOutOfStock, 0, nil)
			return
		}
		lt.record(outcomeError, 0, fmt.Errorf("add to cart: status %d: %v", status, err))
		return
	}

	started := time.Now()
	status, env, err = b.do(ctx, http.MethodPost, "/cart/checkout", nil)
	elapsed := time.Since(started)

	switch {
	case err != nil:
		lt.record(outcomeError, elapsed, err)
	case status == http.StatusOK:
		lt.record(outcomeSold, elapsed, nil)
	case status == http.StatusConflict && env.Retryable:
		lt.record(outcomeConflict, elapsed, nil)
	case status == http.StatusConflict:
		lt.record(outcomeOutOfStock, elapsed, nil)
	default:
		lt.record(outcomeError, elapsed, fmt.Errorf("checkout: status %d: %s", status, env.Message))
	}
}

func (lt *LoadTester) record(o outcome, latency time.Duration, err error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.outcomes[o]++
	if latency > 0 {
		lt.latencies = append(lt.latencies, latency)
	}
	if err != nil {
		lt.errors[err.Error()]++
	}
}

func (lt *LoadTester) report(start, end time.Time, finalStock int) *Report {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	outcomes := make(map[outcome]int, len(lt.outcomes))
	for k, v := range lt.outcomes {
		outcomes[k] = v
	}
	sold := outcomes[outcomeSold]

	return &Report{
		StartTime:      start,
		TotalDuration:  end.Sub(start),
		Outcomes:       outcomes,
		UnitsSold:      sold,
		InitialStock:   lt.config.Stock,
		FinalStock:     finalStock,
		StockConserved: finalStock == lt.config.Stock-sold && finalStock >= 0,
		P50:            calculatePercentile(lt.latencies, 50),
		P95:            calculatePercentile(lt.latencies, 95),
		P99:            calculatePercentile(lt.latencies, 99),
		Errors:         lt.errors,
	}
}

func calculatePercentile(durations []time.Duration, percentile int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	index := int(float64(len(sorted)) * float64(percentile) / 100.0)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func (r *Report) PrintReport() {
	fmt.Printf("CHECKOUT CONTENTION RESULTS\n")
	fmt.Printf("Test Duration: %v\n", r.TotalDuration.Round(time.Millisecond))
	fmt.Printf("\n")

	fmt.Printf("OUTCOMES:\n")
	for _, o := range []outcome{outcomeSold, outcomeConflict, outcomeOutOfStock, outcomeError} {
		fmt.Printf("- %s: %d\n", o, r.Outcomes[o])
	}
	fmt.Printf("\n")

	fmt.Printf("CHECKOUT LATENCY:\n")
	fmt.Printf("- P50: %v\n", r.P50.Round(time.Millisecond))
	fmt.Printf("- P95: %v\n", r.P95.Round(time.Millisecond))
	fmt.Printf("- P99: %v\n", r.P99.Round(time.Millisecond))
	fmt.Printf("\n")

	fmt.Printf("STOCK:\n")
	fmt.Printf("- Initial: %d, sold: %d, final: %d\n", r.InitialStock, r.UnitsSold, r.FinalStock)
	if r.StockConserved {
		fmt.Printf("- Conserved: yes\n")
	} else {
		fmt.Printf("- Conserved: NO\n")
	}
	for msg, n := range r.Errors {
		fmt.Printf("- error x%d: %s\n", n, msg)
	}
}

func (r *Report) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
