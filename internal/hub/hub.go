package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/internal/room"
	"github.com/DoyleJ11/league-backend/pkg/protocol"
)

type HubMsg interface{ isHubMsg() }

// Join adds a member to a room, creating the room on first join. Reply, if
// set, is signalled once the room has the member.
type Join struct {
	Room   string
	Member room.Member
	Reply  chan struct{}
}

type Leave struct {
	Room     string
	MemberID string
}

// LeaveAll removes a member from every room it joined; sent on disconnect.
type LeaveAll struct {
	MemberID string
}

type Publish struct {
	Update protocol.Update
}

type GetRoom struct {
	Name  string
	Reply chan *room.Room
}

type Stats struct {
	Reply chan View
}

type View struct {
	Rooms   int
	Members int
}

type ShutdownHub struct{}

func (Join) isHubMsg()        {}
func (Leave) isHubMsg()       {}
func (LeaveAll) isHubMsg()    {}
func (Publish) isHubMsg()     {}
func (GetRoom) isHubMsg()     {}
func (Stats) isHubMsg()       {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	members map[string]map[string]bool // room -> member ids
	joined  map[string]map[string]bool // member id -> rooms
	metrics *metrics.Recorder
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger, rec *metrics.Recorder) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 256),
		rooms:   make(map[string]*room.Room),
		members: make(map[string]map[string]bool),
		joined:  make(map[string]map[string]bool),
		metrics: rec,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send delivers msg unless ctx or the hub is done first.
func (h *Hub) Send(ctx context.Context, msg HubMsg) error {
	select {
	case h.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return context.Canceled
	}
}

// Publish hands updates to their rooms in order.
func (h *Hub) Publish(ctx context.Context, updates ...protocol.Update) error {
	for _, u := range updates {
		if err := h.Send(ctx, Publish{Update: u}); err != nil {
			return err
		}
	}
	return nil
}

// JoinRoom adds m to name and waits until the room has it.
func (h *Hub) JoinRoom(ctx context.Context, name string, m room.Member) error {
	reply := make(chan struct{}, 1)
	if err := h.Send(ctx, Join{Room: name, Member: m, Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				rm := h.rooms[msg.Room]
				if rm == nil {
					rm = room.NewRoom(h.ctx, msg.Room, h.metrics)
					h.rooms[msg.Room] = rm
					h.members[msg.Room] = make(map[string]bool)
					h.metrics.SetRooms(len(h.rooms))
					h.log.Debug("room opened", zap.String("room", msg.Room))
				}
				rm.Inbox() <- room.Join{Member: msg.Member}
				h.members[msg.Room][msg.Member.ID] = true
				if h.joined[msg.Member.ID] == nil {
					h.joined[msg.Member.ID] = make(map[string]bool)
				}
				h.joined[msg.Member.ID][msg.Room] = true
				if msg.Reply != nil {
					msg.Reply <- struct{}{}
				}

			case Leave:
				h.leave(msg.Room, msg.MemberID)

			case LeaveAll:
				for name := range h.joined[msg.MemberID] {
					h.leave(name, msg.MemberID)
				}
				delete(h.joined, msg.MemberID)

			case Publish:
				rm := h.rooms[msg.Update.Room]
				if rm == nil {
					// Nobody is listening.
					break
				}
				rm.Inbox() <- room.Publish{Update: msg.Update}
				h.metrics.UpdatePublished(msg.Update.Type)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Name] // May be nil

			case Stats:
				n := 0
				for _, ids := range h.members {
					n += len(ids)
				}
				msg.Reply <- View{Rooms: len(h.rooms), Members: n}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) leave(name, memberID string) {
	rm := h.rooms[name]
	if rm == nil {
		return
	}
	rm.Inbox() <- room.Leave{MemberID: memberID}
	delete(h.members[name], memberID)
	if rooms := h.joined[memberID]; rooms != nil {
		delete(rooms, name)
	}

	if len(h.members[name]) == 0 {
		rm.Inbox() <- room.Shutdown{}
		delete(h.rooms, name)
		delete(h.members, name)
		h.metrics.SetRooms(len(h.rooms))
		h.log.Debug("room closed", zap.String("room", name))
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		select {
		case rm.Inbox() <- room.Shutdown{}:
		default:
			// The room exits on its own once h.ctx is cancelled.
		}
	}
	clear(h.rooms)
	clear(h.members)
	clear(h.joined)
	h.cancel()
}
