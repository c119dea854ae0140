package protocol

// MessageType is the first byte of every handshake message.
type MessageType uint8

const (
	MessageTypeClientHello MessageType = 1 // M1
	MessageTypeServerHello MessageType = 2 // M2
	MessageTypeClientAuth  MessageType = 3 // M3
	MessageTypeServerAuth  MessageType = 4 // M4
)

// ProtocolVersion is carried in M1.
const ProtocolVersion byte = 1

func (t MessageType) String() string {
	switch t {
	case MessageTypeClientHello:
		return "M1"
	case MessageTypeServerHello:
		return "M2"
	case MessageTypeClientAuth:
		return "M3"
	case MessageTypeServerAuth:
		return "M4"
	default:
		return "UNKNOWN"
	}
}
