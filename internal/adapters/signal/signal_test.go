package signal

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/quietdesk/focusroom/internal/app/orch"
	"github.com/quietdesk/focusroom/internal/core"
	"github.com/quietdesk/focusroom/internal/domain"
)

type recordedFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// fakeConn records every frame instead of writing to a socket.
type fakeConn struct {
	mu     sync.Mutex
	frames []recordedFrame
}

func (f *fakeConn) TrySend(b core.Frame) error {
	var fr recordedFrame
	if err := json.Unmarshal(b, &fr); err != nil {
		return err
	}
	f.mu.Lock()
	f.frames = append(f.frames, fr)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) byType(typ string) []recordedFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedFrame
	for _, fr := range f.frames {
		if fr.Type == typ {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeConn) last(t *testing.T, typ string) recordedFrame {
	t.Helper()
	frames := f.byType(typ)
	if len(frames) == 0 {
		t.Fatalf("no %q frame recorded", typ)
	}
	return frames[len(frames)-1]
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

func newTestController() *SignalWSController {
	return NewSignalWSController(orch.New(core.NewRegistry()))
}

func connect(ctl *SignalWSController, id domain.ConnID) *fakeConn {
	c := &fakeConn{}
	ctl.Orch.Registry.Connect(id, c)
	return c
}

func mustCreate(t *testing.T, ctl *SignalWSController, sid domain.ConnID, c *fakeConn, tier string) domain.RoomID {
	t.Helper()
	ctl.handleCreateRoom(sid, c, []byte(`{"roomName":"Deep Work","username":"alice","creatorTier":"`+tier+`"}`))
	var ack roomAck
	if err := json.Unmarshal(c.last(t, "room:created").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Success {
		t.Fatalf("create failed: %s", ack.Error)
	}
	return ack.RoomID
}

func TestCreateRoom_AckThenDirectoryToEveryone(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	lobby := connect(ctl, "lobby")

	roomID := mustCreate(t, ctl, "c1", creator, "free")
	if roomID == "" {
		t.Fatal("ack carries no roomId")
	}

	var ack roomAck
	if err := json.Unmarshal(creator.last(t, "room:created").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if ack.Room == nil || len(ack.Room.Participants) != 1 {
		t.Fatalf("ack room = %+v, want creator inside", ack.Room)
	}

	// The directory refresh reaches connections outside the room too.
	var dir []domain.RoomInfo
	if err := json.Unmarshal(lobby.last(t, "rooms:list").Payload, &dir); err != nil {
		t.Fatal(err)
	}
	if len(dir) != 1 || dir[0].ParticipantCount != 1 {
		t.Errorf("lobby directory = %+v", dir)
	}
}

func TestJoin_AckSnapshotAndBroadcasts(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	joiner := connect(ctl, "c2")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	creator.reset()

	ctl.handleJoin("c2", joiner, []byte(`{"roomId":"`+string(roomID)+`","username":"guestie","userTier":"guest"}`))

	var ack roomAck
	if err := json.Unmarshal(joiner.last(t, "room:joined").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Success {
		t.Fatalf("join failed: %s", ack.Error)
	}
	if len(ack.ExistingUsers) != 1 || ack.ExistingUsers[0].Username != "alice" {
		t.Errorf("existingUsers = %+v, want just alice", ack.ExistingUsers)
	}

	var joined domain.Participant
	if err := json.Unmarshal(creator.last(t, "user:joined").Payload, &joined); err != nil {
		t.Fatal(err)
	}
	if joined.Username != "guestie" || joined.AudioOn || joined.VideoOn {
		t.Errorf("user:joined = %+v, want guest with media off", joined)
	}
	if len(joiner.byType("user:joined")) != 0 {
		t.Error("joiner received its own user:joined broadcast")
	}
}

func TestJoin_RoomNotFound(t *testing.T) {
	ctl := newTestController()
	joiner := connect(ctl, "c1")

	ctl.handleJoin("c1", joiner, []byte(`{"roomId":"missing","username":"bob"}`))

	var ack roomAck
	if err := json.Unmarshal(joiner.last(t, "room:joined").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if ack.Success || ack.Error != "Room not found" {
		t.Errorf("ack = %+v, want Room not found", ack)
	}
}

func TestJoin_PrivateRoomErrors(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	joiner := connect(ctl, "c2")
	ctl.handleCreateRoom("c1", creator, []byte(`{"roomName":"vault","username":"carol","creatorTier":"premium","isPrivate":true,"password":"abc"}`))
	var created roomAck
	if err := json.Unmarshal(creator.last(t, "room:created").Payload, &created); err != nil {
		t.Fatal(err)
	}
	roomID := string(created.RoomID)

	// Free tier with the correct password still hits the tier gate.
	ctl.handleJoin("c2", joiner, []byte(`{"roomId":"`+roomID+`","username":"dave","userTier":"free","password":"abc"}`))
	var ack roomAck
	if err := json.Unmarshal(joiner.last(t, "room:joined").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if ack.Error != "This is a private room. Premium membership required." {
		t.Errorf("error = %q, want the premium-required text", ack.Error)
	}

	ctl.handleJoin("c2", joiner, []byte(`{"roomId":"`+roomID+`","username":"dave","userTier":"premium","password":"xyz"}`))
	if err := json.Unmarshal(joiner.last(t, "room:joined").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if ack.Error != "Incorrect room password" {
		t.Errorf("error = %q, want the password text", ack.Error)
	}

	ctl.handleJoin("c2", joiner, []byte(`{"roomId":"`+roomID+`","username":"dave","userTier":"premium","password":"abc"}`))
	if err := json.Unmarshal(joiner.last(t, "room:joined").Payload, &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Success || len(ack.ExistingUsers) != 1 {
		t.Errorf("ack = %+v, want success with carol in existingUsers", ack)
	}
}

func TestGuestChat_ErrorUnicastOnly(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	guest := connect(ctl, "g1")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("g1", guest, []byte(`{"roomId":"`+string(roomID)+`","username":"guestie","userTier":"guest"}`))
	creator.reset()

	ctl.handleChat("g1", guest, []byte(`{"message":"hi"}`))

	if len(guest.byType("chat:error")) != 1 {
		t.Fatal("guest did not get chat:error")
	}
	if len(creator.byType("chat:message")) != 0 || len(creator.byType("chat:error")) != 0 {
		t.Error("guest chat leaked into the room")
	}
}

func TestChat_EchoIncludesSender(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	other := connect(ctl, "c2")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("c2", other, []byte(`{"roomId":"`+string(roomID)+`","username":"bob","userTier":"free"}`))

	ctl.handleChat("c1", creator, []byte(`{"message":"hello","attachments":[{"name":"a.png","url":"/f/a.png"}]}`))

	for name, c := range map[string]*fakeConn{"sender": creator, "other": other} {
		var msg domain.ChatMessage
		if err := json.Unmarshal(c.last(t, "chat:message").Payload, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Message != "hello" || msg.Username != "alice" {
			t.Errorf("%s got %+v", name, msg)
		}
		if len(msg.Attachments) != 1 {
			t.Errorf("%s: attachments = %+v", name, msg.Attachments)
		}
	}
}

func TestRelay_AttachesFromAndUsername(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	peer := connect(ctl, "c2")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("c2", peer, []byte(`{"roomId":"`+string(roomID)+`","username":"bob","userTier":"free"}`))
	peer.reset()

	ctl.handleOffer("c1", []byte(`{"to":"c2","offer":{"type":"offer","sdp":"v=0"}}`))

	var relayed struct {
		From     string `json:"from"`
		Username string `json:"username"`
		Offer    struct {
			SDP string `json:"sdp"`
		} `json:"offer"`
	}
	if err := json.Unmarshal(peer.last(t, "webrtc:offer").Payload, &relayed); err != nil {
		t.Fatal(err)
	}
	if relayed.From != "c1" || relayed.Username != "alice" {
		t.Errorf("relayed = %+v", relayed)
	}
	if relayed.Offer.SDP != "v=0" {
		t.Errorf("SDP = %q, want passed through verbatim", relayed.Offer.SDP)
	}
}

func TestRelay_MissingTargetIsSilent(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	mustCreate(t, ctl, "c1", creator, "free")
	creator.reset()

	ctl.handleOffer("c1", []byte(`{"to":"gone","offer":{"type":"offer","sdp":"v=0"}}`))
	ctl.handleICECandidate("c1", []byte(`{"to":"gone","candidate":{"candidate":"candidate:1"}}`))
	ctl.handlePing("c1", []byte(`{"targetSocketId":"gone"}`))

	if len(creator.frames) != 0 {
		t.Errorf("sender received %d frames for dropped relays, want 0", len(creator.frames))
	}
}

func TestPing_Unicast(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	target := connect(ctl, "c2")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("c2", target, []byte(`{"roomId":"`+string(roomID)+`","username":"bob","userTier":"free"}`))
	target.reset()

	ctl.handlePing("c1", []byte(`{"targetSocketId":"c2"}`))

	var pinged struct {
		From     string `json:"from"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(target.last(t, "user:pinged").Payload, &pinged); err != nil {
		t.Fatal(err)
	}
	if pinged.From != "c1" || pinged.Username != "alice" {
		t.Errorf("user:pinged = %+v", pinged)
	}
}

func TestMediaToggle_GuestSilence(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	guest := connect(ctl, "g1")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("g1", guest, []byte(`{"roomId":"`+string(roomID)+`","username":"guestie","userTier":"guest"}`))
	creator.reset()

	ctl.handleMediaToggle("g1", []byte(`{"type":"audio","enabled":true}`))
	if len(creator.byType("user:media-toggle")) != 0 {
		t.Error("guest audio toggle was broadcast")
	}

	ctl.handleMediaToggle("c1", []byte(`{"type":"video","enabled":false}`))
	frames := guest.byType("user:media-toggle")
	if len(frames) != 1 {
		t.Fatalf("len(user:media-toggle) = %d, want 1", len(frames))
	}
	if len(creator.byType("user:media-toggle")) != 0 {
		t.Error("media toggle echoed back to the sender")
	}
}

func TestWhiteboard_HistoryUnicast(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	late := connect(ctl, "c2")
	roomID := mustCreate(t, ctl, "c1", creator, "free")

	ctl.handleDraw("c1", []byte(`{"x0":0.1,"y0":0.2,"x1":0.3,"y1":0.4,"color":"#000","width":2}`))
	ctl.handleDraw("c1", []byte(`{"x0":0.5,"y0":0.5,"x1":0.6,"y1":0.6,"color":"#f00","width":3}`))

	ctl.handleJoin("c2", late, []byte(`{"roomId":"`+string(roomID)+`","username":"bob","userTier":"free"}`))
	creator.reset()
	ctl.handleBoardHistory("c2", late)

	var strokes []domain.Stroke
	if err := json.Unmarshal(late.last(t, "whiteboard:history").Payload, &strokes); err != nil {
		t.Fatal(err)
	}
	if len(strokes) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(strokes))
	}
	if len(creator.byType("whiteboard:history")) != 0 {
		t.Error("history request was broadcast")
	}

	ctl.handleBoardClear("c2")
	if len(creator.byType("whiteboard:clear")) != 1 {
		t.Error("clear not broadcast to the rest of the room")
	}
	strokes, _ = ctl.Orch.BoardHistory("c1")
	if len(strokes) != 0 {
		t.Errorf("len(history) = %d after clear, want 0", len(strokes))
	}
}

func TestDraw_RejectsOutOfRangeCoords(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	other := connect(ctl, "c2")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("c2", other, []byte(`{"roomId":"`+string(roomID)+`","username":"bob","userTier":"free"}`))
	other.reset()

	ctl.handleDraw("c1", []byte(`{"x0":1.5,"y0":0.2,"x1":0.3,"y1":0.4,"color":"#000","width":2}`))

	if len(other.byType("whiteboard:draw")) != 0 {
		t.Error("out-of-range stroke was broadcast")
	}
	if strokes, _ := ctl.Orch.BoardHistory("c1"); len(strokes) != 0 {
		t.Errorf("out-of-range stroke stored: %+v", strokes)
	}
}

func TestLeaveAndDisconnect_SameObservableEffects(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	a := connect(ctl, "a")
	b := connect(ctl, "b")
	roomID := mustCreate(t, ctl, "c1", creator, "free")
	ctl.handleJoin("a", a, []byte(`{"roomId":"`+string(roomID)+`","username":"ann","userTier":"free"}`))
	ctl.handleJoin("b", b, []byte(`{"roomId":"`+string(roomID)+`","username":"ben","userTier":"free"}`))
	creator.reset()

	ctl.handleLeave("a")
	leftByLeave := creator.last(t, "user:left")
	creator.reset()

	ctl.handleDisconnect("b")
	leftByDisconnect := creator.last(t, "user:left")

	var l1, l2 struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(leftByLeave.Payload, &l1); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(leftByDisconnect.Payload, &l2); err != nil {
		t.Fatal(err)
	}
	if l1.Username != "ann" || l2.Username != "ben" {
		t.Errorf("user:left usernames = %q, %q", l1.Username, l2.Username)
	}

	// Both paths refreshed the directory.
	var dir []domain.RoomInfo
	if err := json.Unmarshal(creator.last(t, "rooms:list").Payload, &dir); err != nil {
		t.Fatal(err)
	}
	if len(dir) != 1 || dir[0].ParticipantCount != 1 {
		t.Errorf("directory after leaves = %+v", dir)
	}

	// The disconnected transport is gone from presence entirely.
	if _, ok := ctl.Orch.Registry.Signal("b"); ok {
		t.Error("disconnected connection still registered")
	}
}

func TestLastLeave_DeletesRoomAndDirectoryShowsIt(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	lobby := connect(ctl, "lobby")
	mustCreate(t, ctl, "c1", creator, "free")
	lobby.reset()

	ctl.handleLeave("c1")

	var dir []domain.RoomInfo
	if err := json.Unmarshal(lobby.last(t, "rooms:list").Payload, &dir); err != nil {
		t.Fatal(err)
	}
	if len(dir) != 0 {
		t.Errorf("directory = %+v, want empty after the room died", dir)
	}
}

func TestSecondJoin_LeavesFirstRoom(t *testing.T) {
	ctl := newTestController()
	creator := connect(ctl, "c1")
	mover := connect(ctl, "m1")
	other := connect(ctl, "c2")
	roomA := mustCreate(t, ctl, "c1", creator, "free")
	roomB := mustCreate(t, ctl, "c2", other, "free")
	ctl.handleJoin("m1", mover, []byte(`{"roomId":"`+string(roomA)+`","username":"max","userTier":"free"}`))
	creator.reset()

	ctl.handleJoin("m1", mover, []byte(`{"roomId":"`+string(roomB)+`","username":"max","userTier":"free"}`))

	if len(creator.byType("user:left")) != 1 {
		t.Error("first room did not see the implicit leave")
	}
	p, ok := ctl.Orch.Registry.Participant("m1")
	if !ok || p.RoomID != roomB {
		t.Errorf("presence = %+v, want membership in the second room", p)
	}
}

func TestDispatch_MalformedEventIsContained(t *testing.T) {
	ctl := newTestController()
	conn := &WsSignalConn{send: make(chan core.Frame, 4)}

	// Neither garbage nor an unknown type may panic or disturb state.
	ctl.dispatch("c1", conn, []byte(`{not json`))
	ctl.dispatch("c1", conn, []byte(`{"type":"no:such:event","payload":{}}`))
	ctl.dispatch("c1", conn, []byte(`{"type":"room:join","payload":"not-an-object"}`))

	if rooms := ctl.Orch.Registry.ListRooms(); len(rooms) != 0 {
		t.Errorf("registry mutated by malformed events: %+v", rooms)
	}
}
