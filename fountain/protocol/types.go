package protocol

type MessageType uint8

const (
	MessageTypeDroplet MessageType = 1
	MessageTypeStatus  MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeDroplet:
		return "DROPLET"
	case MessageTypeStatus:
		return "STATUS"
	default:
		return "UNKNOWN"
	}
}

// StreamState is the receiver's view of one stream, reported in a [Status].
type StreamState uint8

const (
	StreamWorking  StreamState = 1
	StreamComplete StreamState = 2
)

func (s StreamState) String() string {
	switch s {
	case StreamWorking:
		return "working"
	case StreamComplete:
		return "complete"
	default:
		return "unknown"
	}
}
