package domain

// Tier is the capability class a client reports for itself. It is advisory
// input from the auth collaborator and is never verified here, so unknown
// values collapse to guest.
type Tier string

const (
	TierGuest   Tier = "guest"
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierFree:
		return TierFree
	case TierPremium:
		return TierPremium
	default:
		return TierGuest
	}
}

// Capabilities is what a tier is allowed to do. Every mutating event is
// checked against this server-side; the client-side copy is cosmetic.
type Capabilities struct {
	ToggleVideo       bool
	ToggleAudio       bool
	Chat              bool
	ShareScreen       bool
	CreateRoom        bool
	CreatePrivateRoom bool
	PingUsers         bool
	SendAttachments   bool
}

// Capabilities maps a tier to its capability set. The switch is exhaustive
// over known tiers; anything else gets the guest set.
func (t Tier) Capabilities() Capabilities {
	switch t {
	case TierPremium:
		return Capabilities{
			ToggleVideo:       true,
			ToggleAudio:       true,
			Chat:              true,
			ShareScreen:       true,
			CreateRoom:        true,
			CreatePrivateRoom: true,
			PingUsers:         true,
			SendAttachments:   true,
		}
	case TierFree:
		return Capabilities{
			ToggleVideo:     true,
			ToggleAudio:     true,
			Chat:            true,
			ShareScreen:     true,
			CreateRoom:      true,
			PingUsers:       true,
			SendAttachments: true,
		}
	case TierGuest:
		fallthrough
	default:
		return Capabilities{CreateRoom: true}
	}
}
