package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/engine"
	"github.com/DoyleJ11/league-backend/internal/hub"
	"github.com/DoyleJ11/league-backend/internal/league"
	"github.com/DoyleJ11/league-backend/internal/logging"
	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/internal/room"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

var ErrRateLimited = errors.New("rate limited")

type Options struct {
	Origins      []string
	ActionRate   float64
	ActionBurst  int
	Outbox       int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Deps struct {
	Hub      *hub.Hub
	League   *league.Service
	Sessions *auth.Sessions
	Metrics  *metrics.Recorder
	Log      *zap.Logger
	Options  Options
	// Closing Shutdown disconnects every socket with StatusGoingAway.
	Shutdown <-chan struct{}
}

func Handler(d Deps) http.HandlerFunc {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var actor league.Actor
		if userID, ok := d.Sessions.UserID(r); ok {
			a, err := d.League.ActorFor(r.Context(), userID)
			switch {
			case errors.Is(err, domain.ErrForbidden):
				http.Error(w, "account disabled", http.StatusForbidden)
				return
			case err == nil:
				actor = a
			}
			// Stale sessions fall through as anonymous.
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: d.Options.Origins,
		})
		if err != nil {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		c := &client{
			id:     uuid.NewString(),
			actor:  actor,
			conn:   conn,
			out:    make(chan protocol.ServerMessage, d.Options.Outbox),
			ctx:    ctx,
			cancel: cancel,
			limit:  rate.NewLimiter(rate.Limit(d.Options.ActionRate), d.Options.ActionBurst),
			deps:   d,
		}
		c.log = d.Log.With(zap.String(logging.FieldClientID, c.id), zap.String(logging.FieldUserID, actor.UserID))

		d.Metrics.ConnectionOpened()
		c.log.Debug("client connected")
		defer func() {
			_ = d.Hub.Send(context.Background(), hub.LeaveAll{MemberID: c.id})
			cancel()
			d.Metrics.ConnectionClosed()
			_ = conn.Close(c.closeStatus(), "bye")
			c.log.Debug("client disconnected")
		}()

		go c.writeLoop()
		c.readLoop()
	}
}

type client struct {
	id     string
	actor  league.Actor
	conn   *websocket.Conn
	out    chan protocol.ServerMessage
	ctx    context.Context
	cancel context.CancelFunc
	limit  *rate.Limiter
	deps   Deps
	log    *zap.Logger

	kickOnce sync.Once
	kicked   bool
	mu       sync.Mutex
}

// kick drops a client whose outbox overflowed.
func (c *client) kick() {
	c.kickOnce.Do(func() {
		c.mu.Lock()
		c.kicked = true
		c.mu.Unlock()
		c.log.Warn("client too slow, disconnecting")
		c.cancel()
	})
}

func (c *client) closeStatus() websocket.StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kicked {
		return websocket.StatusPolicyViolation
	}
	return websocket.StatusNormalClosure
}

func (c *client) member() room.Member {
	return room.Member{ID: c.id, Outbox: c.out, Kick: c.kick}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.deps.Shutdown:
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			c.cancel()
			return
		case msg := <-c.out:
			ctx, cancel := context.WithTimeout(c.ctx, c.deps.Options.WriteTimeout)
			err := wsjson.Write(ctx, c.conn, msg)
			cancel()
			if err != nil {
				c.log.Debug("write failed", zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}

func (c *client) readLoop() {
	for {
		// A read that outlives ReadTimeout closes the connection; clients ping to stay open.
		ctx, cancel := context.WithTimeout(c.ctx, c.deps.Options.ReadTimeout)
		_, data, err := c.conn.Read(ctx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				c.log.Debug("read failed", zap.Error(err))
			}
			return
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(protocol.ErrorMessage("bad json"))
			continue
		}
		c.handle(msg)
	}
}

// send queues msg for the writer, giving up once the client is gone.
func (c *client) send(msg protocol.ServerMessage) {
	select {
	case c.out <- msg:
	case <-c.ctx.Done():
	}
}

func (c *client) ack(id string, data any, err error) {
	if id == "" {
		if err != nil {
			c.send(protocol.ErrorMessage(c.publicError(err)))
		}
		return
	}
	a := protocol.Ack{ID: id, OK: err == nil}
	if err != nil {
		a.Error = c.publicError(err)
	} else if data != nil {
		raw, mErr := json.Marshal(data)
		if mErr != nil {
			a.OK, a.Error = false, "internal error"
		} else {
			a.Data = raw
		}
	}
	c.send(a.Message())
}

func (c *client) handle(msg protocol.ClientMessage) {
	switch msg.Event {
	case protocol.EvtJoinRoom:
		c.ack(msg.ID, nil, c.join(msg.Room))

	case protocol.EvtLeaveRoom:
		c.ack(msg.ID, nil, c.leave(msg.Room))

	case protocol.EvtSubscribe:
		name, err := protocol.ChannelRoom(msg.Channel, c.actor.UserID)
		if err == nil {
			err = c.join(name)
		}
		c.ack(msg.ID, nil, err)

	case protocol.EvtUnsubscribe:
		name, err := protocol.ChannelRoom(msg.Channel, c.actor.UserID)
		if err == nil {
			err = c.leave(name)
		}
		c.ack(msg.ID, nil, err)

	case protocol.EvtAction:
		data, err := c.action(msg)
		c.ack(msg.ID, data, err)

	case protocol.EvtGetLiveGames:
		live, err := c.deps.League.LiveGames(c.ctx)
		if err == nil {
			var u protocol.Update
			if u, err = protocol.NewUpdate(protocol.UpdLiveGames, protocol.RoomLiveGames, live); err == nil {
				c.send(u.Message())
			}
		}
		c.ack(msg.ID, nil, err)

	case protocol.EvtPing:
		c.send(protocol.ServerMessage{Event: protocol.EvtPong, ID: msg.ID})

	default:
		c.send(protocol.ErrorMessage("unknown event " + msg.Event))
	}
}

// join adds the client to a room and sends it the room's current state.
func (c *client) join(name string) error {
	if err := protocol.CheckRoom(name, c.actor.UserID); err != nil {
		return err
	}
	if err := c.deps.Hub.JoinRoom(c.ctx, name, c.member()); err != nil {
		return err
	}
	updates, err := c.deps.League.Snapshot(c.ctx, name)
	if err != nil {
		_ = c.leave(name)
		return err
	}
	for _, u := range updates {
		c.send(u.Message())
	}
	c.log.Debug("joined room", zap.String(logging.FieldRoom, name))
	return nil
}

func (c *client) leave(name string) error {
	if name == "" {
		return protocol.ErrUnknownRoom
	}
	return c.deps.Hub.Send(c.ctx, hub.Leave{Room: name, MemberID: c.id})
}

func (c *client) action(msg protocol.ClientMessage) (any, error) {
	if !c.limit.Allow() {
		c.deps.Metrics.ActionHandled(msg.Type, ErrRateLimited)
		return nil, ErrRateLimited
	}
	var out any
	cmd, err := engine.Decode(msg.Type, msg.Payload)
	if err == nil {
		out, err = c.deps.League.Execute(c.ctx, c.actor, cmd)
	}
	c.deps.Metrics.ActionHandled(msg.Type, err)
	if err != nil {
		c.log.Debug("action rejected", zap.String(logging.FieldAction, msg.Type), zap.Error(err))
		return nil, err
	}
	return out, nil
}

var publicErrors = []error{
	domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalid, domain.ErrForbidden,
	domain.ErrUnauthenticated, domain.ErrGone,
	engine.ErrUnknownAction, engine.ErrInvalidPayload, engine.ErrIllegalTransition,
	engine.ErrGameNotLive, engine.ErrIllegalMatchup,
	protocol.ErrUnknownRoom, protocol.ErrRoomForbidden, ErrRateLimited,
}

// publicError hides anything that is not a known client-facing failure.
func (c *client) publicError(err error) string {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	c.log.Error("request failed", zap.Error(err))
	return "internal error"
}
