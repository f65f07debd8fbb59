package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/octo-lens/octo-lens/internal/analyze"
	"github.com/octo-lens/octo-lens/internal/cache"
	"github.com/octo-lens/octo-lens/internal/config"
	"github.com/octo-lens/octo-lens/internal/server"
	"github.com/octo-lens/octo-lens/internal/upstream"
)

// githubStub 模拟 GitHub REST API 的三类端点，并统计命中次数。
type githubStub struct {
	server    *httptest.Server
	userHits  atomic.Int64
	repoHits  atomic.Int64
	langHits  atomic.Int64
	breakLang bool
}

func newGitHubStub(t *testing.T) *githubStub {
	t.Helper()
	stub := &githubStub{}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		stub.userHits.Add(1)
		fmt.Fprintf(w, `{"login":"octocat","public_repos":3,"repos_url":"%s/users/octocat/repos"}`, stub.server.URL)
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		stub.repoHits.Add(1)
		if got := r.URL.Query().Get("per_page"); got != "100" {
			http.Error(w, "missing per_page", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `[
			{"name":"alpha","languages_url":"%[1]s/repos/octocat/alpha/languages"},
			{"name":"beta","languages_url":"%[1]s/repos/octocat/beta/languages"},
			{"name":"broken","languages_url":"%[1]s/repos/octocat/broken/languages"}
		]`, stub.server.URL)
	})
	mux.HandleFunc("/repos/octocat/alpha/languages", func(w http.ResponseWriter, r *http.Request) {
		stub.langHits.Add(1)
		w.Write([]byte(`{"Go":1000,"Shell":100}`))
	})
	mux.HandleFunc("/repos/octocat/beta/languages", func(w http.ResponseWriter, r *http.Request) {
		stub.langHits.Add(1)
		w.Write([]byte(`{"Rust":2000,"Go":500}`))
	})
	mux.HandleFunc("/repos/octocat/broken/languages", func(w http.ResponseWriter, r *http.Request) {
		stub.langHits.Add(1)
		if stub.breakLang {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "0")
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	stub.server = httptest.NewServer(mux)
	t.Cleanup(stub.server.Close)
	return stub
}

// newTestApp 按 main.go 的装配顺序组装完整服务，缓存使用内存后端。
func newTestApp(t *testing.T, stub *githubStub, ttl time.Duration) *fiber.App {
	t.Helper()

	cfg := config.GlobalConfig{
		ListenPort:    3001,
		CacheTTL:      config.Duration(ttl),
		CacheBackend:  config.CacheBackendMemory,
		GitHubAPIBase: stub.server.URL,
		GitHubToken:   "integration-token",
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := cache.NewMemoryStore()
	client := upstream.NewClient(cfg)
	analyzer := analyze.NewAnalyzer(client, logger)
	handler := server.NewHandler(client, analyzer, store, ttl, logger)

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Handler:    handler,
		ListenPort: cfg.ListenPort,
	})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body error: %v", err)
	}
	return resp, body
}

func decodeJSON(t *testing.T, body []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}
