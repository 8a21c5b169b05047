package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

var ErrNotConnected = errors.New("not connected")

// AckError is returned by blocking requests the server rejected.
type AckError struct {
	Op  string
	Msg string
}

func (e *AckError) Error() string { return e.Op + ": " + e.Msg }

const readLimit = 4 << 20

type Option func(*Store)

// WithHTTPClient dials through c; its cookie jar carries the session.
func WithHTTPClient(c *http.Client) Option { return func(s *Store) { s.httpClient = c } }

func WithHeader(h http.Header) Option { return func(s *Store) { s.header = h } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// WithPingInterval sets how often an idle connection pings the server.
func WithPingInterval(d time.Duration) Option { return func(s *Store) { s.pingEvery = d } }

// WithBackoff replaces the reconnect policy. Returning backoff.Stop ends Run.
func WithBackoff(newBackoff func() backoff.BackOff) Option {
	return func(s *Store) { s.newBackoff = newBackoff }
}

type subscription struct {
	event string // join_room or subscribe
	name  string
}

type Store struct {
	cache

	url        string
	httpClient *http.Client
	header     http.Header
	log        *zap.Logger
	pingEvery  time.Duration
	newBackoff func() backoff.BackOff

	connected atomic.Bool
	connMu    sync.Mutex
	conn      *websocket.Conn
	subs      []subscription
	pending   map[string]func(protocol.Ack)
	changed   chan struct{} // closed and replaced on every connect and disconnect
}

func New(url string, opts ...Option) *Store {
	s := &Store{
		cache:     newCache(),
		url:       url,
		log:       zap.NewNop(),
		pingEvery: 20 * time.Second,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 15 * time.Second
			b.MaxElapsedTime = 0
			b.Reset()
			return b
		},
		pending: map[string]func(protocol.Ack){},
		changed: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) IsConnected() bool { return s.connected.Load() }

// WaitConnected blocks until a connection is up or ctx is done.
func (s *Store) WaitConnected(ctx context.Context) error {
	for {
		s.connMu.Lock()
		up, ch := s.conn != nil, s.changed
		s.connMu.Unlock()
		if up {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run keeps a connection open until ctx is done, reconnecting with backoff.
// Every registered room is joined again after a reconnect.
func (s *Store) Run(ctx context.Context) error {
	b := backoff.WithContext(s.newBackoff(), ctx)
	for {
		up, err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if up {
			b.Reset()
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		s.log.Warn("socket disconnected", zap.Error(err), zap.Duration("retry_in", wait))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// session dials and reads until the connection fails. up reports whether the
// dial succeeded.
func (s *Store) session(ctx context.Context) (up bool, err error) {
	conn, _, err := websocket.Dial(ctx, s.url, &websocket.DialOptions{
		HTTPClient: s.httpClient,
		HTTPHeader: s.header,
	})
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.attach(conn)
	defer s.detach(conn)
	s.log.Info("socket connected", zap.String("url", s.url))

	s.rejoin(ctx)
	go s.keepalive(ctx, conn)

	for {
		var msg protocol.ServerMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return true, err
		}
		s.handle(msg)
	}
}

func (s *Store) attach(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	close(s.changed)
	s.changed = make(chan struct{})
	s.connMu.Unlock()
	s.connected.Store(true)
}

// detach drops the connection and fails every outstanding request.
func (s *Store) detach(conn *websocket.Conn) {
	s.connected.Store(false)
	s.connMu.Lock()
	s.conn = nil
	pending := s.pending
	s.pending = map[string]func(protocol.Ack){}
	close(s.changed)
	s.changed = make(chan struct{})
	s.connMu.Unlock()

	conn.Close(websocket.StatusNormalClosure, "")
	for id, cb := range pending {
		cb(protocol.Ack{ID: id, Error: ErrNotConnected.Error()})
	}
}

func (s *Store) rejoin(ctx context.Context) {
	s.connMu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.connMu.Unlock()

	for _, sub := range subs {
		msg := subscribeMessage(sub)
		err := s.dispatch(ctx, msg, func(a protocol.Ack) {
			if !a.OK {
				s.log.Warn("rejoin failed", zap.String("room", sub.name), zap.String("error", a.Error))
			}
		})
		if err != nil {
			s.log.Warn("rejoin", zap.String("room", sub.name), zap.Error(err))
		}
	}
}

func (s *Store) keepalive(ctx context.Context, conn *websocket.Conn) {
	if s.pingEvery <= 0 {
		return
	}
	t := time.NewTicker(s.pingEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := wsjson.Write(ctx, conn, protocol.ClientMessage{Event: protocol.EvtPing}); err != nil {
				return
			}
		}
	}
}

func (s *Store) handle(msg protocol.ServerMessage) {
	switch msg.Event {
	case protocol.EvtUpdate:
		u := protocol.Update{Type: msg.Type, Room: msg.Room, Data: msg.Data}
		if err := s.Apply(u); err != nil {
			s.log.Warn("drop update", zap.String("room", msg.Room), zap.Error(err))
		}
	case protocol.EvtAck:
		s.connMu.Lock()
		cb, ok := s.pending[msg.ID]
		delete(s.pending, msg.ID)
		s.connMu.Unlock()
		if ok {
			cb(protocol.AckFrom(msg))
		}
	case protocol.EvtError:
		s.log.Warn("server error", zap.String("error", msg.Error))
	case protocol.EvtPong:
	}
}

// dispatch sends msg with a fresh id and calls cb with its ack. cb also runs
// when the connection drops first.
func (s *Store) dispatch(ctx context.Context, msg protocol.ClientMessage, cb func(protocol.Ack)) error {
	msg.ID = uuid.NewString()
	s.connMu.Lock()
	conn := s.conn
	if conn == nil {
		s.connMu.Unlock()
		return ErrNotConnected
	}
	s.pending[msg.ID] = cb
	s.connMu.Unlock()

	if err := wsjson.Write(ctx, conn, msg); err != nil {
		s.connMu.Lock()
		delete(s.pending, msg.ID)
		s.connMu.Unlock()
		return err
	}
	return nil
}

func (s *Store) request(ctx context.Context, op string, msg protocol.ClientMessage) (protocol.Ack, error) {
	done := make(chan protocol.Ack, 1)
	if err := s.dispatch(ctx, msg, func(a protocol.Ack) { done <- a }); err != nil {
		return protocol.Ack{}, err
	}
	select {
	case a := <-done:
		if !a.OK {
			return a, &AckError{Op: op, Msg: a.Error}
		}
		return a, nil
	case <-ctx.Done():
		s.connMu.Lock()
		delete(s.pending, msg.ID)
		s.connMu.Unlock()
		return protocol.Ack{}, ctx.Err()
	}
}

// Dispatch submits an action and calls cb with its ack once it arrives.
func (s *Store) Dispatch(ctx context.Context, actionType string, payload any, cb func(protocol.Ack)) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", actionType, err)
	}
	if cb == nil {
		cb = func(protocol.Ack) {}
	}
	return s.dispatch(ctx, protocol.ClientMessage{Event: protocol.EvtAction, Type: actionType, Payload: raw}, cb)
}

// Submit is the blocking form of Dispatch. A rejected action returns its ack
// together with an *AckError.
func (s *Store) Submit(ctx context.Context, actionType string, payload any) (protocol.Ack, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return protocol.Ack{}, fmt.Errorf("encode %s payload: %w", actionType, err)
	}
	return s.request(ctx, actionType, protocol.ClientMessage{Event: protocol.EvtAction, Type: actionType, Payload: raw})
}

// JoinRoom registers room and joins it if connected. The room's snapshot has
// been applied by the time JoinRoom returns. Rooms the server rejects are
// dropped from the registry.
func (s *Store) JoinRoom(ctx context.Context, room string) error {
	return s.register(ctx, subscription{event: protocol.EvtJoinRoom, name: room})
}

// Subscribe joins an entity-type channel such as "games" or "notifications".
func (s *Store) Subscribe(ctx context.Context, channel string) error {
	return s.register(ctx, subscription{event: protocol.EvtSubscribe, name: channel})
}

func (s *Store) LeaveRoom(ctx context.Context, room string) error {
	return s.unregister(ctx, subscription{event: protocol.EvtJoinRoom, name: room})
}

func (s *Store) Unsubscribe(ctx context.Context, channel string) error {
	return s.unregister(ctx, subscription{event: protocol.EvtSubscribe, name: channel})
}

// Rooms lists the registered rooms and channels.
func (s *Store) Rooms() []string {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	out := make([]string, len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.name
	}
	return out
}

func (s *Store) register(ctx context.Context, sub subscription) error {
	s.connMu.Lock()
	known := false
	for _, have := range s.subs {
		known = known || have == sub
	}
	if !known {
		s.subs = append(s.subs, sub)
	}
	s.connMu.Unlock()

	if !s.IsConnected() {
		return nil
	}
	_, err := s.request(ctx, sub.event+" "+sub.name, subscribeMessage(sub))
	var ackErr *AckError
	if errors.As(err, &ackErr) {
		s.drop(sub)
	}
	return err
}

func (s *Store) unregister(ctx context.Context, sub subscription) error {
	s.drop(sub)
	if !s.IsConnected() {
		return nil
	}
	msg := protocol.ClientMessage{Event: protocol.EvtLeaveRoom, Room: sub.name}
	if sub.event == protocol.EvtSubscribe {
		msg = protocol.ClientMessage{Event: protocol.EvtUnsubscribe, Channel: sub.name}
	}
	_, err := s.request(ctx, msg.Event+" "+sub.name, msg)
	return err
}

func (s *Store) drop(sub subscription) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for i, have := range s.subs {
		if have == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// RequestLiveGames asks for the current live set. The LIVE_GAMES update is
// applied before RequestLiveGames returns.
func (s *Store) RequestLiveGames(ctx context.Context) error {
	_, err := s.request(ctx, protocol.EvtGetLiveGames, protocol.ClientMessage{Event: protocol.EvtGetLiveGames})
	return err
}

func subscribeMessage(sub subscription) protocol.ClientMessage {
	if sub.event == protocol.EvtSubscribe {
		return protocol.ClientMessage{Event: protocol.EvtSubscribe, Channel: sub.name}
	}
	return protocol.ClientMessage{Event: protocol.EvtJoinRoom, Room: sub.name}
}
