package rtc

import "github.com/pion/webrtc/v4"

// ICEConfiguration builds the client-facing RTCPeerConnection configuration
// from the configured STUN/TURN URLs. The server never opens a peer
// connection itself; media flows peer to peer.
func ICEConfiguration(urls []string) webrtc.Configuration {
	if len(urls) == 0 {
		urls = []string{"stun:stun.l.google.com:19302"}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: urls},
		},
	}
}
