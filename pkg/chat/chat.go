// Package chat carries the message types exchanged by the demo binaries
// over typed channels, plus the server-side room registry.
package chat

// Message is one chat message.
type Message struct {
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	UserColor [3]uint8 `json:"user_color"`
}

// RoomInfo describes one chat room.
type RoomInfo struct {
	Name     string `json:"name"`
	LongDesc string `json:"long_desc"`
}

// JoinRequest is the first frame a client sends on a fresh chat channel.
type JoinRequest struct {
	Room string `json:"room"`
}

// JoinReply acknowledges a join.
type JoinReply struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ClientFrame is the client-to-server union for the demo protocol. Exactly
// one field is set per frame.
type ClientFrame struct {
	Join    *JoinRequest `json:"join,omitempty"`
	Message *Message     `json:"message,omitempty"`
}

// ServerFrame is the server-to-client union.
type ServerFrame struct {
	Reply   *JoinReply `json:"reply,omitempty"`
	Message *Message   `json:"message,omitempty"`
}
