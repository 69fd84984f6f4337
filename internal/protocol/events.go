package protocol

import "time"

// Broadcast event names. These match the hub method names the web client
// subscribes to, so renaming one is a breaking wire change.
const (
	EventWuphfCreated   = "RECEIVE_WUPHF"
	EventSoundCue       = "PLAY_WOOF"
	EventNotification   = "RECEIVE_NOTIFICATION"
	EventPrinterOutput  = "PRINT_WUPHF"
	EventWuphfLiked     = "WUPHF_LIKED"
	EventWuphfRewuphfed = "WUPHF_REWUPHFED"
	EventMemberJoined   = "MEMBER_JOINED"
	EventMemberLeft     = "MEMBER_LEFT"
)

// EventMsg is the envelope pushed to every connected client.
type EventMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Event           string    `json:"event"`
	At              time.Time `json:"at"`
	Data            any       `json:"data,omitempty"`
}

// NotificationData is the payload of a RECEIVE_NOTIFICATION event.
type NotificationData struct {
	Author  string `json:"author"`
	Message string `json:"message"`
	Channel string `json:"channel"`
}

// WuphfRefData is the payload of WUPHF_LIKED / WUPHF_REWUPHFED events.
type WuphfRefData struct {
	ID int64 `json:"id"`
}

// PrinterData is the payload of a PRINT_WUPHF event.
type PrinterData struct {
	Output string `json:"output"`
}

// MembershipData is the payload of MEMBER_JOINED / MEMBER_LEFT events.
type MembershipData struct {
	ConnectionID string `json:"connection_id"`
	Group        string `json:"group"`
}
