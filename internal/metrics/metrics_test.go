package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ConnectionOpened()
	r.ConnectionClosed()
	r.SetRooms(3)
	r.UpdatePublished("GAMES_UPDATED")
	r.MemberDropped()
	r.ActionHandled("ADD_ORG", nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ConnectionOpened()
	r.ConnectionOpened()
	r.ConnectionClosed()
	r.UpdatePublished("GAMES_UPDATED")
	r.UpdatePublished("GAMES_UPDATED")
	r.ActionHandled("ADD_ORG", nil)
	r.ActionHandled("ADD_ORG", errors.New("boom"))
	r.MemberDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.published.WithLabelValues("GAMES_UPDATED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actions.WithLabelValues("ADD_ORG", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actions.WithLabelValues("ADD_ORG", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dropped))
}

func TestHandlerExposesNamespace(t *testing.T) {
	r := New()
	r.SetRooms(2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "league_rooms_active 2"))
}
