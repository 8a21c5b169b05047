package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/hub"
	"github.com/DoyleJ11/league-backend/internal/league"
	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/internal/repo"
	"github.com/DoyleJ11/league-backend/internal/testutil"
	"github.com/DoyleJ11/league-backend/internal/ws"
)

type testServer struct {
	*httptest.Server
	svc *league.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zaptest.NewLogger(t)
	rec := metrics.New()
	h := hub.NewHub(ctx, log, rec)
	svc := league.New(repo.New(testutil.NewTestDB(t)), h, log)
	srv := httptest.NewServer(SetupRoutes(Deps{
		Hub:      h,
		League:   svc,
		Sessions: auth.NewSessions("0123456789abcdef0123456789abcdef", false, 3600),
		Metrics:  rec,
		Log:      log,
		WS: ws.Options{
			ActionRate: 10, ActionBurst: 10, Outbox: 16,
			ReadTimeout: 5 * time.Second, WriteTimeout: time.Second,
		},
	}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, svc: svc}
}

// user is an HTTP client with its own cookie jar.
type user struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (s *testServer) newUser(t *testing.T) *user {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &user{t: t, base: s.URL, client: &http.Client{Jar: jar}}
}

func (u *user) do(method, path string, body any) (int, []byte) {
	u.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(u.t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, u.base+path, r)
	require.NoError(u.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := u.client.Do(req)
	require.NoError(u.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(u.t, err)
	return resp.StatusCode, out
}

func (u *user) signup(email string) domain.User {
	u.t.Helper()
	status, body := u.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": email, "email": email, "password": "password123",
	})
	require.Equal(u.t, http.StatusCreated, status, string(body))
	var out domain.User
	require.NoError(u.t, json.Unmarshal(body, &out))
	return out
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t)
	anon := s.newUser(t)

	status, _ := anon.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)

	anon.do(http.MethodGet, "/api/sports", nil)
	status, body := anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "league_http_request_duration_seconds")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	u := s.newUser(t)

	status, body := u.do(http.MethodGet, "/api/user/profile", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	var errBody map[string]string
	require.NoError(t, json.Unmarshal(body, &errBody))
	assert.NotEmpty(t, errBody["error"])
	assert.NotEmpty(t, errBody["requestId"])

	me := u.signup("ada@example.com")
	assert.True(t, me.IsAdmin)

	status, body = u.do(http.MethodPatch, "/api/user/profile", map[string]string{"name": "Ada L"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = u.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = u.do(http.MethodGet, "/api/user/profile", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = u.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	require.Equal(t, http.StatusUnauthorized, status)
	status, body = u.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, status, string(body))

	var got domain.User
	status, body = u.do(http.MethodGet, "/api/user/profile", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Ada L", got.Name)

	status, _ = s.newUser(t).do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "ada@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestEmailVerification(t *testing.T) {
	s := newTestServer(t)
	u := s.newUser(t)
	u.signup("ada@example.com")

	status, body := u.do(http.MethodPost, "/api/user/emails", map[string]string{"email": "ada@work.example"})
	require.Equal(t, http.StatusCreated, status, string(body))
	var added struct {
		VerifyToken string `json:"verifyToken"`
	}
	require.NoError(t, json.Unmarshal(body, &added))

	status, _ = u.do(http.MethodPost, "/api/user/profile/verify", map[string]string{"token": added.VerifyToken})
	require.Equal(t, http.StatusOK, status)

	var emails []domain.UserEmail
	_, body = u.do(http.MethodGet, "/api/user/emails", nil)
	require.NoError(t, json.Unmarshal(body, &emails))
	require.Len(t, emails, 2)
	assert.NotNil(t, emails[1].VerifiedAt)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.newUser(t)
	admin.signup("admin@example.com")
	member := s.newUser(t)
	m := member.signup("member@example.com")

	status, _ := member.do(http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.newUser(t).do(http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var users []domain.User
	status, body := admin.do(http.MethodGet, "/api/admin/users", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 2)

	status, _ = admin.do(http.MethodPost, "/api/admin/sports", map[string]string{"name": "Soccer"})
	assert.Equal(t, http.StatusCreated, status)

	status, body = admin.do(http.MethodPatch, "/api/admin/users/"+m.ID, map[string]bool{"disabled": true})
	require.Equal(t, http.StatusOK, status, string(body))
	status, _ = member.do(http.MethodGet, "/api/orgs", nil)
	assert.Equal(t, http.StatusForbidden, status, "disabled users are refused")
}

func TestClaimOrganizationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.newUser(t)
	admin.signup("admin@example.com")
	claimer := s.newUser(t)
	claimer.signup("claimer@example.com")

	org := domain.Organization{Name: "Listed", Slug: "listed"}
	require.NoError(t, s.svc.Repo().CreateOrg(context.Background(), &org, ""))

	status, body := admin.do(http.MethodPost, "/api/admin/orgs/"+org.ID+"/claim-referrals", map[string]string{})
	require.Equal(t, http.StatusCreated, status, string(body))
	var ref domain.OrgClaimReferral
	require.NoError(t, json.Unmarshal(body, &ref))

	status, body = claimer.do(http.MethodPost, "/api/orgs/claim", map[string]string{"token": ref.Token})
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = claimer.do(http.MethodPost, "/api/orgs/claim", map[string]string{"token": ref.Token})
	assert.Equal(t, http.StatusGone, status)

	status, _ = admin.do(http.MethodPost, "/api/admin/orgs/"+org.ID+"/claim-referrals", map[string]string{})
	assert.Equal(t, http.StatusConflict, status, "claimed orgs take no new referrals")
}

func TestReads(t *testing.T) {
	s := newTestServer(t)
	anon := s.newUser(t)
	org := domain.Organization{Name: "Org", Slug: "org"}
	require.NoError(t, s.svc.Repo().CreateOrg(context.Background(), &org, ""))

	status, body := anon.do(http.MethodGet, "/api/orgs/"+org.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var summary domain.OrganizationSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 0, summary.EventCount)

	status, body = anon.do(http.MethodGet, "/api/orgs/"+org.ID+"/teams", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = anon.do(http.MethodGet, "/api/orgs/"+org.ID+"/games?status=Bogus", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = anon.do(http.MethodGet, "/api/orgs/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = anon.do(http.MethodGet, "/api/orgs/missing/teams", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = anon.do(http.MethodGet, "/api/games/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = anon.do(http.MethodGet, "/api/games/live", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestReportsFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.newUser(t)
	admin.signup("admin@example.com")
	u := s.newUser(t)
	u.signup("u@example.com")

	status, body := u.do(http.MethodPost, "/api/reports", map[string]string{
		"targetType": "organization", "targetId": "o1", "reason": "spam",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var rep domain.Report
	require.NoError(t, json.Unmarshal(body, &rep))

	status, _ = u.do(http.MethodPost, "/api/reports", map[string]any{"targetType": "planet", "targetId": "x", "reason": "r"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = u.do(http.MethodPost, "/api/reports", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = admin.do(http.MethodPost, "/api/admin/reports/"+rep.ID+"/resolve", map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, status)

	var open []domain.Report
	_, body = admin.do(http.MethodGet, "/api/admin/reports?status=open", nil)
	require.NoError(t, json.Unmarshal(body, &open))
	assert.Empty(t, open)
}

func TestListPersons_HidesEmail(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	org := domain.Organization{Name: "Org", Slug: "org"}
	require.NoError(t, s.svc.Repo().CreateOrg(ctx, &org, ""))
	p := domain.Person{OrganizationID: org.ID, Name: "Pat", Email: "pat@example.com"}
	require.NoError(t, s.svc.Repo().CreatePerson(ctx, &p))

	status, body := s.newUser(t).do(http.MethodGet, "/api/orgs/"+org.ID+"/persons", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "Pat")
	assert.NotContains(t, string(body), "pat@example.com")
}
