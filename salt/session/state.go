package session

// State is the progress of one handshake.
type State uint8

const (
	StateNotStarted State = iota
	// StateAwaitingPeerHello: own hello sent (client) or listening for M1 (server).
	StateAwaitingPeerHello
	// StatePeerHelloReceived: peer's ephemeral key known, shared key derived.
	StatePeerHelloReceived
	// StateSignatureExchanged: own signature sent.
	StateSignatureExchanged
	StateEstablished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateAwaitingPeerHello:
		return "AwaitingPeerHello"
	case StatePeerHelloReceived:
		return "PeerHelloReceived"
	case StateSignatureExchanged:
		return "SignatureExchanged"
	case StateEstablished:
		return "Established"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
