package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/entremotivator/rentalappp1/internal/cache"
	"github.com/entremotivator/rentalappp1/internal/config"
	identitydomain "github.com/entremotivator/rentalappp1/internal/identity/domain"
	"github.com/entremotivator/rentalappp1/internal/provision"
	"github.com/entremotivator/rentalappp1/internal/session"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeAdminClient struct {
	signInErr error
	userID    string
}

func (f *fakeAdminClient) CreateUser(ctx context.Context, req identitydomain.CreateUserRequest) (*identitydomain.Identity, error) {
	return nil, identitydomain.ErrCollaboratorUnavailable
}

func (f *fakeAdminClient) ListUsers(ctx context.Context) ([]identitydomain.Identity, error) {
	return nil, nil
}

func (f *fakeAdminClient) SignInWithPassword(ctx context.Context, email, password string) (*identitydomain.Token, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &identitydomain.Token{AccessToken: "jwt", UserID: f.userID, Email: email}, nil
}

type staticLedger struct {
	used    int
	ceiling int
}

func (l *staticLedger) Initialize(ctx context.Context, userID, email string) error { return nil }
func (l *staticLedger) Get(ctx context.Context, userID, email string) (int, error) {
	return l.used, nil
}
func (l *staticLedger) Allow(ctx context.Context, userID, email string) (bool, error) {
	return l.used < l.ceiling, nil
}
func (l *staticLedger) Consume(ctx context.Context, userID string) (bool, error) { return true, nil }
func (l *staticLedger) Ceiling() int                                             { return l.ceiling }

var _ usagedomain.Service = (*staticLedger)(nil)

func newAuthTestServer(t *testing.T, identity *fakeAdminClient, provisioner *fakeProvisioner) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	s := &Server{
		cfg:          config.Config{TargetProductID: "i90"},
		log:          zap.NewNop(),
		engine:       engine,
		identity:     identity,
		provisionSvc: provisioner,
		usageSvc:     &staticLedger{used: 4, ceiling: 30},
		sessions:     session.NewManager(cache.NewTTLCache[string, session.Session](), time.Hour),
	}
	engine.POST("/api/login", s.Login)
	authed := engine.Group("/api", s.SessionRequired())
	authed.POST("/logout", s.Logout)
	authed.GET("/me", s.Me)
	authed.GET("/usage", s.Usage)
	return s
}

func postJSON(t *testing.T, s *Server, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, s *Server, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesSession(t *testing.T) {
	s := newAuthTestServer(t, &fakeAdminClient{userID: "uid-1"}, &fakeProvisioner{})

	w := postJSON(t, s, "/api/login", map[string]string{"email": "Buyer@Example.com", "password": "pw"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
		Token  string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "authenticated" || resp.Token == "" {
		t.Fatalf("resp = %+v", resp)
	}

	me := getJSON(t, s, "/api/me", resp.Token)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
	var meResp map[string]any
	json.Unmarshal(me.Body.Bytes(), &meResp)
	if meResp["queries_used"] != float64(4) || meResp["queries_limit"] != float64(30) {
		t.Fatalf("me = %v", meResp)
	}
}

func TestLoginFallbackProvisionsBuyer(t *testing.T) {
	identity := &fakeAdminClient{signInErr: identitydomain.ErrInvalidCredentials}
	provisioner := &fakeProvisioner{result: provision.Result{
		Success:  true,
		Exists:   false,
		Email:    "buyer@example.com",
		Password: "issued-password",
	}}
	s := newAuthTestServer(t, identity, provisioner)

	w := postJSON(t, s, "/api/login", map[string]string{"email": "buyer@example.com", "password": "wrong"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "provisioned" || resp["password"] != "issued-password" {
		t.Fatalf("resp = %v", resp)
	}
}

func TestLoginWrongPasswordOnExistingAccount(t *testing.T) {
	identity := &fakeAdminClient{signInErr: identitydomain.ErrInvalidCredentials}
	provisioner := &fakeProvisioner{result: provision.Result{Success: true, Exists: true}}
	s := newAuthTestServer(t, identity, provisioner)

	w := postJSON(t, s, "/api/login", map[string]string{"email": "buyer@example.com", "password": "wrong"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("existing account with bad password must 401, got %d", w.Code)
	}
}

func TestLoginNoPurchaseIsUnauthorized(t *testing.T) {
	identity := &fakeAdminClient{signInErr: identitydomain.ErrInvalidCredentials}
	provisioner := &fakeProvisioner{result: provision.Result{Success: false}}
	s := newAuthTestServer(t, identity, provisioner)

	w := postJSON(t, s, "/api/login", map[string]string{"email": "nobody@example.com", "password": "pw"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLoginIdentityOutageIs503(t *testing.T) {
	identity := &fakeAdminClient{signInErr: identitydomain.ErrCollaboratorUnavailable}
	s := newAuthTestServer(t, identity, &fakeProvisioner{})

	w := postJSON(t, s, "/api/login", map[string]string{"email": "buyer@example.com", "password": "pw"}, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newAuthTestServer(t, &fakeAdminClient{userID: "uid-1"}, &fakeProvisioner{})

	login := postJSON(t, s, "/api/login", map[string]string{"email": "a@example.com", "password": "pw"}, "")
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(login.Body.Bytes(), &resp)

	if w := postJSON(t, s, "/api/logout", nil, resp.Token); w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if w := getJSON(t, s, "/api/me", resp.Token); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token must be rejected, got %d", w.Code)
	}
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	s := newAuthTestServer(t, &fakeAdminClient{userID: "uid-1"}, &fakeProvisioner{})

	if w := getJSON(t, s, "/api/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}
	if w := getJSON(t, s, "/api/usage", "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: %d", w.Code)
	}
}

func TestUsageEndpoint(t *testing.T) {
	s := newAuthTestServer(t, &fakeAdminClient{userID: "uid-1"}, &fakeProvisioner{})
	login := postJSON(t, s, "/api/login", map[string]string{"email": "a@example.com", "password": "pw"}, "")
	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(login.Body.Bytes(), &resp)

	w := getJSON(t, s, "/api/usage", resp.Token)
	if w.Code != http.StatusOK {
		t.Fatalf("usage status = %d", w.Code)
	}
	var usage map[string]any
	json.Unmarshal(w.Body.Bytes(), &usage)
	if usage["queries_used"] != float64(4) || usage["remaining"] != float64(26) {
		t.Fatalf("usage = %v", usage)
	}
}
