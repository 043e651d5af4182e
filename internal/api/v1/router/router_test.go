package router

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sriox/internal/config"
	"sriox/internal/database/databasetest"
	"sriox/internal/dns"
	"sriox/internal/github"
	"sriox/internal/model"
	"sriox/internal/repository"
	"sriox/internal/service"
	"sriox/internal/storage"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type stubRepos struct{}

func (stubRepos) RepositoryExists(ctx context.Context, owner, repo string) error {
	if owner == "octo" && repo == "blog" {
		return nil
	}
	return github.ErrNotFound
}

func (stubRepos) FetchCNAME(ctx context.Context, owner, repo string) (string, error) {
	return "", github.ErrNotFound
}

type apiFixture struct {
	srv     *httptest.Server
	db      *gorm.DB
	dataDir string
}

func newAPI(t *testing.T, opts ...func(*config.Config)) *apiFixture {
	t.Helper()
	db := databasetest.New(t)
	if err := service.NewPlanService(repository.NewPlanRepo(db), zerolog.Nop()).EnsureDefaultPlans(context.Background()); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	cfg := &config.Config{
		Environment:       "test",
		JWTSecret:         "router-test-secret",
		JWTTTL:            time.Hour,
		APIBaseURL:        "http://localhost",
		PlatformDomain:    "sriox.test",
		DataDir:           t.TempDir(),
		GithubPagesBranch: "main",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	h, err := New(cfg, db, Integrations{
		Archives: storage.Nop{},
		DNS:      dns.NewManager(dns.Nop{}, zerolog.Nop()),
		Repos:    stubRepos{},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &apiFixture{srv: srv, db: db, dataDir: cfg.DataDir}
}

// do sends a JSON request and decodes the JSON response into a map.
func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.send(t, req, token)
}

func (f *apiFixture) send(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, out
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, out
}

func (f *apiFixture) register(t *testing.T, username string) string {
	t.Helper()
	status, body := f.do(t, "POST", "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d body %v", username, status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", username, body)
	}
	return token
}

func (f *apiFixture) upload(t *testing.T, token, subdomain string, files map[string]string) (int, map[string]any) {
	t.Helper()
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for name, content := range files {
		w, _ := zw.Create(name)
		w.Write([]byte(content))
	}
	zw.Close()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	mw.WriteField("subdomain", subdomain)
	part, _ := mw.CreateFormFile("siteZip", "site.zip")
	part.Write(archive.Bytes())
	mw.Close()

	req, _ := http.NewRequest("POST", f.srv.URL+"/api/sites/upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.send(t, req, token)
}

func TestSiteLifecycle(t *testing.T) {
	f := newAPI(t)
	token := f.register(t, "alice")

	status, body := f.upload(t, token, "Alice", map[string]string{"index.html": "<h1>hi</h1>"})
	if status != http.StatusCreated {
		t.Fatalf("upload: status %d body %v", status, body)
	}
	site := body["site"].(map[string]any)
	if site["url"] != "https://alice.sriox.test" {
		t.Errorf("url = %v", site["url"])
	}
	if _, err := os.Stat(filepath.Join(f.dataDir, "sites", "alice", "index.html")); err != nil {
		t.Errorf("site not deployed: %v", err)
	}

	status, body = f.do(t, "GET", "/api/sites/alice", "", nil)
	if status != http.StatusOK {
		t.Fatalf("public get: status %d body %v", status, body)
	}
	if owner := body["site"].(map[string]any)["owner"]; owner != "alice" {
		t.Errorf("owner = %v", owner)
	}

	status, body = f.do(t, "GET", "/api/sites", token, nil)
	if status != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("list: status %d body %v", status, body)
	}

	id := site["id"].(string)
	status, body = f.do(t, "PUT", "/api/sites/"+id, token, map[string]bool{"isActive": false})
	if status != http.StatusOK {
		t.Fatalf("deactivate: status %d body %v", status, body)
	}
	if status, _ := f.do(t, "GET", "/api/sites/alice", "", nil); status != http.StatusNotFound {
		t.Errorf("inactive site get: status %d, want 404", status)
	}

	other := f.register(t, "mallory")
	if status, _ := f.do(t, "DELETE", "/api/sites/"+id, other, nil); status != http.StatusNotFound {
		t.Errorf("foreign delete: status %d, want 404", status)
	}
	status, body = f.do(t, "DELETE", "/api/sites/"+id, token, nil)
	if status != http.StatusOK || body["message"] != "Site deleted successfully" {
		t.Fatalf("delete: status %d body %v", status, body)
	}
}

func TestUploadRejections(t *testing.T) {
	f := newAPI(t)
	token := f.register(t, "bob")

	status, body := f.upload(t, token, "bob", map[string]string{"about.html": "x"})
	if status != http.StatusBadRequest || body["success"] != false {
		t.Errorf("missing index: status %d body %v", status, body)
	}

	if status, _ := f.upload(t, "", "bob", map[string]string{"index.html": "x"}); status != http.StatusUnauthorized {
		t.Errorf("anonymous upload: status %d, want 401", status)
	}

	f.upload(t, token, "one", map[string]string{"index.html": "x"})
	status, body = f.upload(t, token, "one", map[string]string{"index.html": "x"})
	if status != http.StatusConflict || body["message"] != "Subdomain is already taken" {
		t.Errorf("duplicate: status %d body %v", status, body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	f := newAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"anonymous list", "GET", "/api/sites", "", nil, http.StatusUnauthorized},
		{"garbage token", "GET", "/api/users/profile", "garbage", nil, http.StatusUnauthorized},
		{"schema violation", "POST", "/api/auth/register", "", map[string]string{"username": "carol"}, http.StatusBadRequest},
		{"bad credentials", "POST", "/api/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "secret1"}, http.StatusUnauthorized},
		{"unknown redirect", "GET", "/api/redirects/missing", "", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, tt.method, tt.path, tt.token, tt.body)
			if status != tt.want {
				t.Fatalf("status = %d, want %d (body %v)", status, tt.want, body)
			}
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			if msg, _ := body["message"].(string); msg == "" {
				t.Errorf("empty message in %v", body)
			}
			if _, ok := body["error"]; ok {
				t.Errorf("client error exposes detail: %v", body)
			}
			for key := range body {
				if key != "success" && key != "message" {
					t.Errorf("unexpected key %q in %v", key, body)
				}
			}
		})
	}
}

func TestMalformedIDIsNotFound(t *testing.T) {
	f := newAPI(t)
	token := f.register(t, "dave")
	status, body := f.do(t, "DELETE", "/api/redirects/not-a-uuid", token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("status %d body %v", status, body)
	}
	if !strings.Contains(body["message"].(string), "Redirect not found") {
		t.Errorf("message = %v", body["message"])
	}
}

func TestRedirectAndGithubPageRoutes(t *testing.T) {
	f := newAPI(t)
	token := f.register(t, "erin")

	status, body := f.do(t, "POST", "/api/redirects", token, map[string]string{"name": "docs", "targetUrl": "https://example.com/docs"})
	if status != http.StatusCreated {
		t.Fatalf("create redirect: status %d body %v", status, body)
	}
	if url := body["redirect"].(map[string]any)["url"]; url != "https://sriox.test/docs" {
		t.Errorf("redirect url = %v", url)
	}

	status, body = f.do(t, "POST", "/api/github-pages", token, map[string]string{"subdomain": "blog", "githubUsername": "octo", "repository": "blog"})
	if status != http.StatusCreated {
		t.Fatalf("create github page: status %d body %v", status, body)
	}
	if steps, _ := body["setupInstructions"].([]any); len(steps) == 0 {
		t.Errorf("no setup instructions in %v", body)
	}
	id := body["githubPage"].(map[string]any)["id"].(string)

	status, body = f.do(t, "POST", "/api/github-pages/"+id+"/verify", token, nil)
	if status != http.StatusBadRequest {
		t.Errorf("verify without CNAME: status %d body %v", status, body)
	}
	if body["success"] != false || body["isVerified"] != false || body["expectedContent"] != "blog.sriox.test" {
		t.Errorf("verify failure body = %v", body)
	}
	if _, ok := body["$schema"]; ok {
		t.Errorf("verify failure body carries $schema: %v", body)
	}

	status, body = f.do(t, "POST", "/api/github-pages", token, map[string]string{"subdomain": "gone", "githubUsername": "octo", "repository": "missing"})
	if status != http.StatusNotFound {
		t.Errorf("unknown repository: status %d body %v", status, body)
	}

	status, body = f.do(t, "GET", "/api/users/stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("stats: status %d body %v", status, body)
	}
	stats := body["stats"].(map[string]any)
	if used := stats["redirects"].(map[string]any)["used"]; used != float64(1) {
		t.Errorf("redirects used = %v", used)
	}
	if stats["plan"] != "Free" || stats["isPro"] != false {
		t.Errorf("plan = %v isPro = %v", stats["plan"], stats["isPro"])
	}
}

func TestPlansArePublic(t *testing.T) {
	f := newAPI(t)
	status, body := f.do(t, "GET", "/api/plans", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status %d body %v", status, body)
	}
	if plans, _ := body["plans"].([]any); len(plans) != 2 {
		t.Errorf("plans = %v", body["plans"])
	}
}

func TestDeadLetterPush(t *testing.T) {
	f := newAPI(t, func(cfg *config.Config) { cfg.PubSubEmulatorHost = "localhost:8085" })

	push := map[string]any{
		"subscription":    "projects/sriox/subscriptions/resource-events-dlq",
		"deliveryAttempt": 5,
		"message": map[string]any{
			"messageId":  "42",
			"data":       base64.StdEncoding.EncodeToString([]byte(`{"type":"site.created"}`)),
			"attributes": map[string]string{"origin": "app"},
		},
	}
	status, body := f.do(t, "POST", DeadLetterPath, "", push)
	if status != http.StatusNoContent {
		t.Fatalf("status %d body %v", status, body)
	}

	var rows []model.DeadLetterMessage
	if err := f.db.Find(&rows).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Payload != `{"type":"site.created"}` || rows[0].Attempts != 5 {
		t.Errorf("row = %+v", rows[0])
	}
	if rows[0].Queue != "projects/sriox/subscriptions/resource-events-dlq" {
		t.Errorf("queue = %q", rows[0].Queue)
	}
}

func TestDeadLetterPushRequiresConfiguredAuth(t *testing.T) {
	f := newAPI(t)
	raw, _ := json.Marshal(map[string]any{"message": map[string]string{"messageId": "1"}, "subscription": "s"})
	resp, err := http.Post(f.srv.URL+DeadLetterPath, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 without audience configured", resp.StatusCode)
	}
}
