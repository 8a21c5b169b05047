// Package store is the realtime client for the league backend. It keeps one
// socket open, re-joins its rooms after a reconnect and caches the latest
// copy of every entity it has been sent.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

var ErrUnknownUpdate = errors.New("unknown update type")

// Change describes one applied update. IDs lists every entity the update
// carried, or the whole live set for LIVE_GAMES.
type Change struct {
	Type string
	Room string
	IDs  []string
}

type observer struct {
	id uint64
	fn func(Change)
}

// cache holds the entity maps. Store embeds it; the zero value is not usable.
type cache struct {
	mu            sync.Mutex
	orgs          map[string]domain.OrganizationSummary
	teams         map[string]domain.Team
	venues        map[string]domain.Venue
	events        map[string]domain.Event
	games         map[string]domain.Game
	persons       map[string]domain.Person
	notifications map[string]domain.Notification
	live          []domain.Game

	observers []observer
	nextObs   uint64
}

func newCache() cache {
	return cache{
		orgs:          map[string]domain.OrganizationSummary{},
		teams:         map[string]domain.Team{},
		venues:        map[string]domain.Venue{},
		events:        map[string]domain.Event{},
		games:         map[string]domain.Game{},
		persons:       map[string]domain.Person{},
		notifications: map[string]domain.Notification{},
	}
}

// OnChange registers fn to run after every update that changed the cache.
// Observers run outside the lock, in registration order.
func (c *cache) OnChange(fn func(Change)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observer{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.observers = slices.DeleteFunc(c.observers, func(o observer) bool { return o.id == id })
		})
	}
}

// Apply merges u into the cache. *_UPDATED updates merge by id and
// LIVE_GAMES replaces the live set. Applying the same update again is a no-op
// and does not notify observers.
func (c *cache) Apply(u protocol.Update) error {
	c.mu.Lock()
	ids, changed, err := c.apply(u)
	var obs []observer
	if changed {
		obs = slices.Clone(c.observers)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("apply %s: %w", u.Type, err)
	}

	ch := Change{Type: u.Type, Room: u.Room, IDs: ids}
	for _, o := range obs {
		o.fn(ch)
	}
	return nil
}

func (c *cache) apply(u protocol.Update) ([]string, bool, error) {
	switch u.Type {
	case protocol.UpdOrganizations:
		return merge(c.orgs, u.Data, func(o domain.OrganizationSummary) string { return o.ID })
	case protocol.UpdTeams:
		return merge(c.teams, u.Data, func(t domain.Team) string { return t.ID })
	case protocol.UpdVenues:
		return merge(c.venues, u.Data, func(v domain.Venue) string { return v.ID })
	case protocol.UpdEvents:
		return merge(c.events, u.Data, func(e domain.Event) string { return e.ID })
	case protocol.UpdGames:
		return merge(c.games, u.Data, func(g domain.Game) string { return g.ID })
	case protocol.UpdPersons:
		return merge(c.persons, u.Data, func(p domain.Person) string { return p.ID })
	case protocol.UpdNotifications:
		return merge(c.notifications, u.Data, func(n domain.Notification) string { return n.ID })
	case protocol.UpdLiveGames:
		var live []domain.Game
		if err := json.Unmarshal(u.Data, &live); err != nil {
			return nil, false, err
		}
		if live == nil {
			live = []domain.Game{}
		}
		ids := make([]string, len(live))
		for i, g := range live {
			ids[i] = g.ID
			c.games[g.ID] = g
		}
		changed := c.live == nil || !reflect.DeepEqual(c.live, live)
		c.live = live
		return ids, changed, nil
	}
	return nil, false, ErrUnknownUpdate
}

func merge[T any](m map[string]T, raw json.RawMessage, id func(T) string) ([]string, bool, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, err
	}
	ids := make([]string, 0, len(items))
	changed := false
	for _, it := range items {
		k := id(it)
		if old, ok := m[k]; !ok || !reflect.DeepEqual(old, it) {
			m[k] = it
			changed = true
		}
		ids = append(ids, k)
	}
	return ids, changed, nil
}

func get[T any](c *cache, m map[string]T, id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := m[id]
	return v, ok
}

// all returns the values of m ordered by id.
func all[T any](c *cache, m map[string]T) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}

func (c *cache) Organization(id string) (domain.OrganizationSummary, bool) { return get(c, c.orgs, id) }
func (c *cache) Organizations() []domain.OrganizationSummary { return all(c, c.orgs) }
func (c *cache) Team(id string) (domain.Team, bool) { return get(c, c.teams, id) }
func (c *cache) Teams() []domain.Team { return all(c, c.teams) }
func (c *cache) Venues() []domain.Venue { return all(c, c.venues) }
func (c *cache) Event(id string) (domain.Event, bool) { return get(c, c.events, id) }
func (c *cache) Events() []domain.Event { return all(c, c.events) }
func (c *cache) Game(id string) (domain.Game, bool) { return get(c, c.games, id) }
func (c *cache) Games() []domain.Game { return all(c, c.games) }
func (c *cache) Persons() []domain.Person { return all(c, c.persons) }
func (c *cache) Notifications() []domain.Notification { return all(c, c.notifications) }

// LiveGames returns the last live set the server sent, in server order.
func (c *cache) LiveGames() []domain.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.live)
}
