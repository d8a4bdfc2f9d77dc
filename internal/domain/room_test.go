package domain

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewRoom_PremiumKeepsPrivate(t *testing.T) {
	room := NewRoom("focus", true, "abc", TierPremium)

	if !room.Private {
		t.Error("premium creator should keep the private flag")
	}
	if room.Password != "abc" {
		t.Errorf("Password = %q, want %q", room.Password, "abc")
	}
	if room.ID == "" {
		t.Error("room id not generated")
	}
}

func TestNewRoom_DowngradesNonPremium(t *testing.T) {
	for _, tier := range []Tier{TierGuest, TierFree} {
		room := NewRoom("focus", true, "abc", tier)
		if room.Private {
			t.Errorf("tier %q: private flag survived creation", tier)
		}
		if room.Password != "" {
			t.Errorf("tier %q: password survived creation", tier)
		}
	}
}

func TestNewRoom_TruncatesLongName(t *testing.T) {
	room := NewRoom(strings.Repeat("x", 200), false, "", TierFree)
	if len(room.Name) != MaxRoomNameLen {
		t.Errorf("len(Name) = %d, want %d", len(room.Name), MaxRoomNameLen)
	}
}

func TestAppendMessage_FIFOCap(t *testing.T) {
	room := NewRoom("focus", false, "", TierFree)

	for i := 0; i < MaxChatHistory+1; i++ {
		room.AppendMessage(ChatMessage{ID: fmt.Sprintf("m%d", i)})
	}

	if len(room.Messages) != MaxChatHistory {
		t.Fatalf("len(Messages) = %d, want %d", len(room.Messages), MaxChatHistory)
	}
	// The 101st insert evicts m0; ordering of the rest is preserved.
	if room.Messages[0].ID != "m1" {
		t.Errorf("Messages[0].ID = %q, want %q", room.Messages[0].ID, "m1")
	}
	if last := room.Messages[MaxChatHistory-1].ID; last != fmt.Sprintf("m%d", MaxChatHistory) {
		t.Errorf("last message = %q, want m%d", last, MaxChatHistory)
	}
}

func TestAppendStroke_Cap(t *testing.T) {
	room := NewRoom("focus", false, "", TierFree)

	for i := 0; i < MaxStrokeHistory+5; i++ {
		room.AppendStroke(Stroke{Width: float64(i)})
	}

	if len(room.Strokes) != MaxStrokeHistory {
		t.Fatalf("len(Strokes) = %d, want %d", len(room.Strokes), MaxStrokeHistory)
	}
	if room.Strokes[0].Width != 5 {
		t.Errorf("Strokes[0].Width = %v, want 5 (oldest evicted)", room.Strokes[0].Width)
	}
}

func TestNewParticipant_MediaDefaults(t *testing.T) {
	guest := NewParticipant("c1", "g", TierGuest, "")
	if guest.AudioOn || guest.VideoOn {
		t.Error("guest media flags should start false")
	}

	free := NewParticipant("c2", "f", TierFree, "u-1")
	if !free.AudioOn || !free.VideoOn {
		t.Error("non-guest media flags should start true")
	}
	if free.ExternalUserID != "u-1" {
		t.Errorf("ExternalUserID = %q, want %q", free.ExternalUserID, "u-1")
	}
}
