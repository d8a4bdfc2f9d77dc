package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/domain"
)

// Registry owns every room and every live connection. Rooms and presence
// are two views of the same membership state, so a single mutex guards
// both: no caller can ever observe them out of sync.
//
// A room exists here iff it has participants; removing the last one deletes
// the room in the same critical section.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]SignalConnection
	// presence: connection -> its participant record, nil-free; entries
	// exist only while the connection is in a room
	participants map[domain.ConnID]*domain.Participant
	rooms        map[domain.RoomID]*domain.Room
}

func NewRegistry() *Registry {
	return &Registry{
		conns:        make(map[domain.ConnID]SignalConnection),
		participants: make(map[domain.ConnID]*domain.Participant),
		rooms:        make(map[domain.RoomID]*domain.Room),
	}
}

// Connect registers a live connection so it can receive targeted sends and
// directory broadcasts before it joins any room.
func (r *Registry) Connect(id domain.ConnID, conn SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = conn
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Msg("connection registered")
}

// Disconnect forgets the transport. Membership cleanup is a separate Leave;
// the caller runs it first so leave and disconnect share one code path.
func (r *Registry) Disconnect(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Msg("connection removed")
}

func (r *Registry) Signal(id domain.ConnID) (SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// CreateRoom builds a room and inserts the creator as its first participant,
// returning the pre-existing participant snapshot (always empty here) for
// symmetry with JoinRoom. Private/password are downgraded inside NewRoom
// unless the creator is premium.
func (r *Registry) CreateRoom(name string, private bool, password string, creator *domain.Participant) *domain.Room {
	room := domain.NewRoom(name, private, password, creator.Tier)

	r.mu.Lock()
	defer r.mu.Unlock()
	creator.RoomID = room.ID
	room.Participants[creator.ConnID] = creator
	r.participants[creator.ConnID] = creator
	r.rooms[room.ID] = room
	log.Info().Str("module", "core.registry").Str("room", string(room.ID)).Str("name", room.Name).Bool("private", room.Private).Msg("room created")
	return room
}

// JoinRoom runs the whole join decision atomically: existence, the tier
// gate, then the password gate, then insertion. The returned snapshot is
// the membership as it was before the insert, so the joiner can start
// signaling to everyone already present without racing the join broadcast.
func (r *Registry) JoinRoom(roomID domain.RoomID, p *domain.Participant, password string) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if room.Private {
		if p.Tier != domain.TierPremium {
			return nil, domain.ErrPremiumRequired
		}
		if room.Password != "" && room.Password != password {
			return nil, domain.ErrWrongPassword
		}
	}

	existing := make([]domain.Participant, 0, len(room.Participants))
	for _, other := range room.Participants {
		existing = append(existing, *other)
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].ConnID < existing[j].ConnID })

	p.RoomID = roomID
	room.Participants[p.ConnID] = p
	r.participants[p.ConnID] = p
	log.Info().Str("module", "core.registry").Str("conn", string(p.ConnID)).Str("room", string(roomID)).Msg("participant joined")
	return existing, nil
}

// RemoveParticipant drops the connection's membership. If that empties the
// room, the room is deleted in the same step; no empty room ever survives
// the event that drained it.
func (r *Registry) RemoveParticipant(id domain.ConnID) (*domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return nil, false
	}
	delete(r.participants, id)

	roomDeleted := false
	if room, ok := r.rooms[p.RoomID]; ok {
		delete(room.Participants, id)
		if len(room.Participants) == 0 {
			delete(r.rooms, p.RoomID)
			roomDeleted = true
			log.Info().Str("module", "core.registry").Str("room", string(p.RoomID)).Msg("room emptied and deleted")
		}
	}
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Str("room", string(p.RoomID)).Msg("participant removed")
	return p, roomDeleted
}

// Participant returns a copy of the connection's membership record.
func (r *Registry) Participant(id domain.ConnID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

// SetMedia flips a participant's audio or video flag. Guests are a no-op by
// policy: their flags never leave false and no change is reported.
func (r *Registry) SetMedia(id domain.ConnID, kind string, enabled bool) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	caps := p.Tier.Capabilities()
	switch kind {
	case "audio":
		if !caps.ToggleAudio {
			return domain.Participant{}, false
		}
		p.AudioOn = enabled
	case "video":
		if !caps.ToggleVideo {
			return domain.Participant{}, false
		}
		p.VideoOn = enabled
	default:
		return domain.Participant{}, false
	}
	return *p, true
}

// RoomData returns the public projection of one room, or false if it does
// not exist. The password never leaves the registry.
func (r *Registry) RoomData(id domain.RoomID) (domain.RoomData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return domain.RoomData{}, false
	}
	return projectRoom(room), true
}

func projectRoom(room *domain.Room) domain.RoomData {
	parts := make([]domain.Participant, 0, len(room.Participants))
	for _, p := range room.Participants {
		parts = append(parts, *p)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ConnID < parts[j].ConnID })
	return domain.RoomData{
		ID:           room.ID,
		Name:         room.Name,
		Private:      room.Private,
		Participants: parts,
		CreatedAt:    room.CreatedAt,
	}
}

// ListRooms is the directory snapshot broadcast to every connection, oldest
// room first.
func (r *Registry) ListRooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, domain.RoomInfo{
			ID:               room.ID,
			Name:             room.Name,
			Private:          room.Private,
			ParticipantCount: len(room.Participants),
			CreatedAt:        room.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// AppendMessage appends to a room's bounded chat window.
func (r *Registry) AppendMessage(roomID domain.RoomID, m domain.ChatMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.AppendMessage(m)
	return true
}

// AppendStroke appends to a room's whiteboard log.
func (r *Registry) AppendStroke(roomID domain.RoomID, s domain.Stroke) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.AppendStroke(s)
	return true
}

// ClearStrokes empties a room's whiteboard log.
func (r *Registry) ClearStrokes(roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.Strokes = nil
	return true
}

// Strokes returns a copy of a room's whiteboard log.
func (r *Registry) Strokes(roomID domain.RoomID) []domain.Stroke {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.Stroke, len(room.Strokes))
	copy(out, room.Strokes)
	return out
}

// Messages returns a copy of a room's chat window.
func (r *Registry) Messages(roomID domain.RoomID) []domain.ChatMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.ChatMessage, len(room.Messages))
	copy(out, room.Messages)
	return out
}

type connSnap struct {
	ID   domain.ConnID
	Conn SignalConnection
}

// RoomConns snapshots the transports of a room's members, minus exclude.
// Membership may change right after; senders treat gone targets as no-ops.
func (r *Registry) RoomConns(roomID domain.RoomID, exclude domain.ConnID) []connSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]connSnap, 0, len(room.Participants))
	for id := range room.Participants {
		if id == exclude {
			continue
		}
		if c, ok := r.conns[id]; ok {
			out = append(out, connSnap{ID: id, Conn: c})
		}
	}
	return out
}

// AllConns snapshots every live transport, in or out of rooms. The room
// directory goes to all of them.
func (r *Registry) AllConns() []connSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]connSnap, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, connSnap{ID: id, Conn: c})
	}
	return out
}
