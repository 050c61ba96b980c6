// Package peer links two swarm-defense instances so each side's kills are
// credited to the other. One side hosts a WebSocket endpoint, the other joins it.
package peer

import (
	"fmt"
	"strings"
)

// Role selects how an instance takes part in a two-player run.
type Role string

const (
	RoleNone Role = ""     // Single player
	RoleHost Role = "host" // Serves the peer endpoint
	RoleJoin Role = "join" // Dials a hosting peer
)

// ParseRole maps a config string to a Role. "none" and "" both mean single player.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "single":
		return RoleNone, nil
	case "host":
		return RoleHost, nil
	case "join", "client":
		return RoleJoin, nil
	default:
		return RoleNone, fmt.Errorf("unknown peer role %q", s)
	}
}

// MessageType identifies a frame on the peer link.
type MessageType string

const (
	MsgHello      MessageType = "hello"
	MsgEliminated MessageType = "eliminated"
)

// Message is one JSON text frame exchanged between peers.
type Message struct {
	Type  MessageType `json:"type"`
	Count uint32      `json:"count,omitempty"`
	Seq   uint64      `json:"seq"`
}

// maxMessageSize bounds incoming frames; real messages are a few dozen bytes.
const maxMessageSize = 512
