package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"standardizer/internal/domain"
)

type fakeStandardizer struct {
	outcomes map[string][]domain.StandardizedAttribute
	failures map[string]string
}

func (f *fakeStandardizer) StandardizeProducts(_ context.Context, products []domain.ProductForStandardization) (map[string][]domain.StandardizedAttribute, map[string]string) {
	outcomes := make(map[string][]domain.StandardizedAttribute)
	for _, p := range products {
		if _, failed := f.failures[p.ID]; failed {
			continue
		}
		outcomes[p.ID] = f.outcomes[p.ID]
	}
	return outcomes, f.failures
}

type fakeQueueStats struct{ stats *domain.QueueStatistics }

func (f *fakeQueueStats) Statistics(context.Context) (*domain.QueueStatistics, error) {
	return f.stats, nil
}

type fakeResultStats struct{ stats *domain.StandardizedStatistics }

func (f *fakeResultStats) Statistics(context.Context) (*domain.StandardizedStatistics, error) {
	return f.stats, nil
}

type fakeSearch struct {
	products []domain.StandardizedProduct
	name     string
	value    string
	limit    int64
}

func (f *fakeSearch) FindByAttribute(_ context.Context, name, value string, limit int64) ([]domain.StandardizedProduct, error) {
	f.name, f.value, f.limit = name, value, limit
	return f.products, nil
}

type fakeResetter struct {
	reset     int64
	olderThan time.Duration
}

func (f *fakeResetter) ResetStuck(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return f.reset, nil
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStandardizeBatch(t *testing.T) {
	standardizer := &fakeStandardizer{
		outcomes: map[string][]domain.StandardizedAttribute{
			"p1": {{StandardName: "Процессор", StandardValue: "Intel Core i5", CharacteristicType: "processor"}},
		},
		failures: map[string]string{"p2": "oracle transport error"},
	}
	srv := newTestServer(t, Config{Standardizer: standardizer})

	body := `{"products": [
		{"product_id": "p1", "title": "Ноутбук", "okpd2_code": "26.20.11", "attributes": [{"attr_name": "Процессор", "attr_value": "Intel Core i5"}]},
		{"product_id": "p2", "title": "Другой", "okpd2_code": "26.20.11", "attributes": []}
	]}`

	resp, err := http.Post(srv.URL+"/api/v1/batch/standardize", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data BatchStandardizeResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	got := wrapper.Data
	if got.StandardizedCount != 1 || got.FailedCount != 1 {
		t.Errorf("unexpected counts: %+v", got)
	}
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got.Results))
	}
	for _, r := range got.Results {
		switch r.ProductID {
		case "p1":
			if r.Status != "standardized" || len(r.StandardizedAttributes) != 1 {
				t.Errorf("unexpected p1 result: %+v", r)
			}
		case "p2":
			if r.Status != "failed" || r.Error == "" {
				t.Errorf("unexpected p2 result: %+v", r)
			}
		default:
			t.Errorf("unexpected product %q", r.ProductID)
		}
	}
}

func TestStandardizeBatch_Validation(t *testing.T) {
	srv := newTestServer(t, Config{Standardizer: &fakeStandardizer{}})

	cases := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"empty products", `{"products": []}`},
		{"missing product_id", `{"products": [{"title": "Товар"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/batch/standardize", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv := newTestServer(t, Config{
		Standardizer: &fakeStandardizer{},
		QueueStats:   &fakeQueueStats{stats: &domain.QueueStatistics{}},
		ResultStats:  &fakeResultStats{stats: &domain.StandardizedStatistics{}},
		APIKey:       "secret",
	})

	// Без ключа — 401.
	resp, err := http.Get(srv.URL + "/api/v1/standardization/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", resp.StatusCode)
	}

	// С ключом — 200.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/standardization/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with key: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", resp.StatusCode)
	}
}

func TestGetStats(t *testing.T) {
	srv := newTestServer(t, Config{
		QueueStats: &fakeQueueStats{stats: &domain.QueueStatistics{
			Total:    10,
			ByStatus: map[string]int64{"pending": 7, "standardized": 3},
		}},
		ResultStats: &fakeResultStats{stats: &domain.StandardizedStatistics{Total: 3}},
	})

	resp, err := http.Get(srv.URL + "/api/v1/standardization/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var wrapper struct {
		Data StatsResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if wrapper.Data.Queue.Total != 10 || wrapper.Data.Standardized.Total != 3 {
		t.Errorf("unexpected stats: %+v", wrapper.Data)
	}
}

func TestFindProducts(t *testing.T) {
	search := &fakeSearch{products: []domain.StandardizedProduct{
		{OldMongoID: "abc", CollectionName: "products", Title: "Ноутбук", OKPD2Code: "26.20.11"},
	}}
	srv := newTestServer(t, Config{Search: search})

	resp, err := http.Get(srv.URL + "/api/v1/standardization/products?standard_name=Процессор&standard_value=Intel+Core+i5&limit=5")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var wrapper struct {
		Data FindProductsResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if wrapper.Data.Count != 1 || len(wrapper.Data.Products) != 1 {
		t.Errorf("unexpected result: %+v", wrapper.Data)
	}
	if search.name != "Процессор" || search.value != "Intel Core i5" || search.limit != 5 {
		t.Errorf("query parameters lost: name=%q value=%q limit=%d", search.name, search.value, search.limit)
	}

	// Без standard_name — 400.
	resp, err = http.Get(srv.URL + "/api/v1/standardization/products")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without standard_name, got %d", resp.StatusCode)
	}
}

func TestResetStuck(t *testing.T) {
	resetter := &fakeResetter{reset: 4}
	srv := newTestServer(t, Config{Resetter: resetter})

	resp, err := http.Post(srv.URL+"/api/v1/standardization/reset-stuck", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var wrapper struct {
		Data ResetStuckResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if wrapper.Data.Reset != 4 {
		t.Errorf("expected 4 reset, got %d", wrapper.Data.Reset)
	}
	if resetter.olderThan != 0 {
		t.Errorf("empty body must use the default threshold, got %v", resetter.olderThan)
	}
}

func TestResetStuck_OlderThanOverride(t *testing.T) {
	resetter := &fakeResetter{reset: 1}
	srv := newTestServer(t, Config{Resetter: resetter})

	resp, err := http.Post(srv.URL+"/api/v1/standardization/reset-stuck", "application/json",
		strings.NewReader(`{"older_than": "45m"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resetter.olderThan != 45*time.Minute {
		t.Errorf("older_than override lost: %v", resetter.olderThan)
	}

	resp, err = http.Post(srv.URL+"/api/v1/standardization/reset-stuck", "application/json",
		strings.NewReader(`{"older_than": "bogus"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid duration, got %d", resp.StatusCode)
	}
}
