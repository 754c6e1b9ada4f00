package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oss-pulse/contrib-stats/internal/store"
)

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return st
}

func TestHandleResult(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	payload := []byte(`{"monthly":{},"yearly":{},"last_updated":"2026-06-01"}`)
	if err := st.Put(context.Background(), "rankings", payload); err != nil {
		t.Fatal(err)
	}

	srv := New(Config{Prefix: "autoware"}, nil, st, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/results/rankings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(payload) {
		t.Errorf("body = %s, want original payload", body)
	}
}

func TestHandleResultNotFound(t *testing.T) {
	t.Parallel()

	srv := New(Config{}, nil, newTestStore(t), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/results/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleResultInvalidName(t *testing.T) {
	t.Parallel()

	srv := New(Config{}, nil, newTestStore(t), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/results/..%2Fescape")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want rejection", resp.StatusCode)
	}
}

func TestHandleResultsIndex(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	for _, name := range []string{"rankings", "stars_history"} {
		if err := st.Put(context.Background(), name, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}

	srv := New(Config{}, nil, st, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/results")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var index map[string][]string
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		t.Fatal(err)
	}
	docs := index["documents"]
	if len(docs) != 2 || docs[0] != "rankings" || docs[1] != "stars_history" {
		t.Errorf("documents = %v", docs)
	}
}

func TestReadyzReflectsStore(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	srv := New(Config{}, nil, st, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("empty store readyz status = %d, want 503", resp.StatusCode)
	}

	if err := st.Put(context.Background(), "rankings", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	resp, err = http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("populated store readyz status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsFromDocuments(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()

	contributors := `{
		"autoware_code_contributors": [{"date":"2022-01-01","contributors_count":1},{"date":"2022-02-01","contributors_count":4}],
		"autoware_community_contributors": [{"date":"2022-01-01","contributors_count":7}],
		"autoware_contributors": [{"date":"2022-01-01","contributors_count":9}]
	}`
	stars := `{
		"core_stars_history": [{"date":"2022-01-01","star_count":3}],
		"total_stars_history": [{"date":"2022-01-01","star_count":3},{"date":"2022-01-02","star_count":5}]
	}`
	rankings := `{"monthly":{},"yearly":{},"last_updated":"2026-06-01"}`

	if err := st.Put(ctx, "contributors_history", []byte(contributors)); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(ctx, "stars_history", []byte(stars)); err != nil {
		t.Fatal(err)
	}
	if err := st.Put(ctx, "rankings", []byte(rankings)); err != nil {
		t.Fatal(err)
	}

	srv := New(Config{Prefix: "autoware"}, nil, st, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`contrib_stats_contributors{category="code"} 4`,
		`contrib_stats_contributors{category="community"} 7`,
		`contrib_stats_contributors{category="combined"} 9`,
		`contrib_stats_repo_stars{repo="core"} 3`,
		`contrib_stats_stars_total 5`,
		`contrib_stats_results_last_updated_timestamp_seconds`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q\n%s", want, text)
		}
	}
}

func TestRunRefreshesAndShutsDown(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	refreshed := make(chan struct{}, 1)
	refresh := func(ctx context.Context) error {
		select {
		case refreshed <- struct{}{}:
		default:
		}
		return st.Put(ctx, "rankings", []byte(`{}`))
	}

	srv := New(Config{Listen: "127.0.0.1:0", Refresh: time.Hour}, nil, st, refresh)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("initial refresh never ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
