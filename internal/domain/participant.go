package domain

// ConnID identifies one live client connection. The gateway assigns it on
// connect; it doubles as the participant key everywhere.
type ConnID string

// Participant is one connection's membership in a room. A connection holds
// at most one Participant at a time.
type Participant struct {
	ConnID         ConnID `json:"socketId"`
	Username       string `json:"username"`
	RoomID         RoomID `json:"-"`
	Tier           Tier   `json:"userTier"`
	ExternalUserID string `json:"userId,omitempty"`
	AudioOn        bool   `json:"isAudioOn"`
	VideoOn        bool   `json:"isVideoOn"`
}

// NewParticipant builds membership state for a joining connection. Guests
// start with media off; everyone else starts with it on.
func NewParticipant(id ConnID, username string, tier Tier, externalUserID string) *Participant {
	media := tier != TierGuest
	return &Participant{
		ConnID:         id,
		Username:       username,
		Tier:           tier,
		ExternalUserID: externalUserID,
		AudioOn:        media,
		VideoOn:        media,
	}
}
