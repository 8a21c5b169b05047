package store_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/httpapi"
	"github.com/DoyleJ11/league-backend/internal/hub"
	"github.com/DoyleJ11/league-backend/internal/league"
	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/internal/repo"
	"github.com/DoyleJ11/league-backend/internal/testutil"
	"github.com/DoyleJ11/league-backend/internal/ws"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
	"github.com/DoyleJ11/league-backend/pkg/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zaptest.NewLogger(t)
	rec := metrics.New()
	h := hub.NewHub(ctx, log, rec)
	svc := league.New(repo.New(testutil.NewTestDB(t)), h, log)
	srv := httptest.NewServer(httpapi.SetupRoutes(httpapi.Deps{
		Hub:      h,
		League:   svc,
		Sessions: auth.NewSessions("0123456789abcdef0123456789abcdef", false, 3600),
		Metrics:  rec,
		Log:      log,
		WS: ws.Options{
			ActionRate: 50, ActionBurst: 50, Outbox: 64,
			ReadTimeout: 10 * time.Second, WriteTimeout: 2 * time.Second,
		},
	}))
	t.Cleanup(srv.Close)
	return srv
}

// connect signs a new user up over HTTP and runs a store on its session.
func connect(t *testing.T, ctx context.Context, srv *httptest.Server, email string) *store.Store {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	body, err := json.Marshal(map[string]string{"name": email, "email": email, "password": "password123"})
	require.NoError(t, err)
	resp, err := client.Post(srv.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	s := store.New("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws",
		store.WithHTTPClient(client),
		store.WithLogger(zaptest.NewLogger(t)),
	)
	go s.Run(ctx)
	require.NoError(t, s.WaitConnected(ctx))
	return s
}

func submit[T any](t *testing.T, ctx context.Context, s *store.Store, action string, payload any) T {
	t.Helper()
	ack, err := s.Submit(ctx, action, payload)
	require.NoError(t, err)
	require.True(t, ack.OK)
	var out T
	require.NoError(t, json.Unmarshal(ack.Data, &out))
	return out
}

func TestCrossOrgEventUpdatesParticipantSummary(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := connect(t, ctx, srv, "alice@example.com")
	bob := connect(t, ctx, srv, "bob@example.com")

	orgA := submit[domain.OrganizationSummary](t, ctx, alice, protocol.ActAddOrg, map[string]string{"name": "Alpha FC"})
	orgB := submit[domain.OrganizationSummary](t, ctx, bob, protocol.ActAddOrg, map[string]string{"name": "Bravo United"})

	require.NoError(t, alice.JoinRoom(ctx, protocol.OrgSummaryRoom(orgA.ID)))
	require.NoError(t, alice.Subscribe(ctx, protocol.ChannelNotifications))
	snap, ok := alice.Organization(orgA.ID)
	require.True(t, ok, "join applies the room snapshot")
	require.Equal(t, 0, snap.EventCount)

	changes := make(chan store.Change, 16)
	unsubscribe := alice.OnChange(func(c store.Change) { changes <- c })
	defer unsubscribe()

	submit[domain.Event](t, ctx, bob, protocol.ActAddEvent, map[string]any{
		"organizationId":    orgB.ID,
		"name":              "Spring Cup",
		"startsAt":          time.Now().Add(24 * time.Hour).UTC(),
		"participantOrgIds": []string{orgA.ID},
	})

	var sawSummary, sawInvite bool
	for !sawSummary || !sawInvite {
		select {
		case c := <-changes:
			switch c.Type {
			case protocol.UpdOrganizations:
				assert.Equal(t, protocol.OrgSummaryRoom(orgA.ID), c.Room)
				sawSummary = true
			case protocol.UpdNotifications:
				sawInvite = true
			}
		case <-ctx.Done():
			t.Fatalf("summary=%v invite=%v before timeout", sawSummary, sawInvite)
		}
	}

	got, ok := alice.Organization(orgA.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.EventCount)
	_, ok = alice.Organization(orgB.ID)
	assert.False(t, ok, "alice never joined org B's rooms")

	notes := alice.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyEventInvite, notes[0].Kind)
}

func TestSubmitRejectedAction(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := connect(t, ctx, srv, "carol@example.com")

	ack, err := s.Submit(ctx, protocol.ActAddTeam, map[string]string{"organizationId": "missing"})
	var ackErr *store.AckError
	require.ErrorAs(t, err, &ackErr)
	assert.False(t, ack.OK)
	assert.NotEmpty(t, ack.Error)

	require.Error(t, s.JoinRoom(ctx, "user:someone-else:notifications"))
	assert.Empty(t, s.Rooms(), "rejected rooms leave the registry")
}

func TestDispatchAndLiveGames(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := connect(t, ctx, srv, "dana@example.com")

	acked := make(chan bool, 1)
	require.NoError(t, s.Dispatch(ctx, protocol.ActAddOrg, map[string]string{"name": "Delta"}, func(a protocol.Ack) {
		acked <- a.OK
	}))
	select {
	case ok := <-acked:
		assert.True(t, ok)
	case <-ctx.Done():
		t.Fatal("no ack")
	}

	require.NoError(t, s.RequestLiveGames(ctx))
	assert.NotNil(t, s.LiveGames())
	assert.Empty(t, s.LiveGames())
}
