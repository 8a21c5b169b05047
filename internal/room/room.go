package room

import (
	"context"

	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

type Msg interface{ isRoomMsg() }

// Member is one connection's mailbox. Rooms never close Outbox: a connection
// may sit in many rooms. A member that cannot keep up is kicked instead.
type Member struct {
	ID     string
	Outbox chan<- protocol.ServerMessage
	Kick   func()
}

type Join struct {
	Member Member
}

func (Join) isRoomMsg() {}

type Leave struct{ MemberID string }

func (Leave) isRoomMsg() {}

type Publish struct {
	Update protocol.Update
}

func (Publish) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type View struct {
	Name       string
	NumMembers int
	Published  int
}

type Room struct {
	name      string
	inbox     chan Msg
	members   map[string]Member
	published int
	metrics   *metrics.Recorder
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewRoom(parent context.Context, name string, rec *metrics.Recorder) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		name:    name,
		inbox:   make(chan Msg, 64),
		members: make(map[string]Member),
		metrics: rec,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go r.loop()
	return r
}

func (r *Room) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.members[msg.Member.ID] = msg.Member

			case Leave:
				delete(r.members, msg.MemberID)

			case Publish:
				r.published++
				r.broadcast(msg.Update.Message())

			case GetState:
				msg.Reply <- View{
					Name:       r.name,
					NumMembers: len(r.members),
					Published:  r.published,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	clear(r.members)
	r.cancel()
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for id, m := range r.members {
		select {
		case m.Outbox <- msg:
		default:
			// Member is slow/full - drop them.
			delete(r.members, id)
			r.metrics.MemberDropped()
			if m.Kick != nil {
				m.Kick()
			}
		}
	}
}

func (r *Room) Name() string { return r.name }

// Inbox exposes the room's mailbox to the hub and tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }
