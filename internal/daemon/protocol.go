// Package daemon provides the client and protocol types for talking to a
// local speech-recognition daemon over a Unix socket using NDJSON, and a
// capture source built on them.
package daemon

// Command names understood by the daemon.
const (
	CmdStart     = "start"
	CmdStop      = "stop"
	CmdStatus    = "status"
	CmdDevices   = "devices"
	CmdSubscribe = "subscribe"
)

// Event names streamed by the daemon.
const (
	EventPartial = "partial"
	EventSegment = "segment"
	EventError   = "error"
)

// Command is sent from a client to the daemon.
type Command struct {
	Cmd    string   `json:"cmd"`
	Locale string   `json:"locale,omitempty"`
	Device string   `json:"device,omitempty"`
	Events []string `json:"events,omitempty"`
	// KeepAudio asks the daemon to return the recording in the stop response.
	KeepAudio *bool `json:"keepAudio,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK        bool     `json:"ok"`
	SessionID string   `json:"sessionId,omitempty"`
	Recording *bool    `json:"recording,omitempty"`
	Devices   []string `json:"devices,omitempty"`
	Error     string   `json:"error,omitempty"`
	Status    string   `json:"status,omitempty"`
	Device    string   `json:"device,omitempty"`
	// Audio is base64 in the wire format.
	Audio     []byte `json:"audio,omitempty"`
	AudioMIME string `json:"audioMime,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
type Event struct {
	Event     string `json:"event"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
	Transient *bool  `json:"transient,omitempty"`
}

// BoolPtr returns a pointer to a bool value. Convenience for building commands.
func BoolPtr(b bool) *bool { return &b }
