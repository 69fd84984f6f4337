package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name,omitempty"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ConnectionID    string `json:"connection_id"`
	ServerTime      string `json:"server_time"`
	SeedDigest      string `json:"seed_digest,omitempty"`
	RecentWuphfs    int    `json:"recent_wuphfs"`
}

// JOIN_GROUP / LEAVE_GROUP (client -> server)
type GroupMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Group           string `json:"group"`
}
