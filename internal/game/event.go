package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary with enemy count
	EventTypeSpawn
	EventTypeKill
	EventTypeBreach
	EventTypeGameOver
	EventTypePeerSync
	EventTypePurchase
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	TickNum   uint64          `json:"tickNum"`
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeKill:
		return "kill"
	case EventTypeBreach:
		return "breach"
	case EventTypeGameOver:
		return "game_over"
	case EventTypePeerSync:
		return "peer_sync"
	case EventTypePurchase:
		return "purchase"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the type as its name so the log is readable.
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Typed payloads for different event types

// TickPayload contains tick boundary information
type TickPayload struct {
	Enemies     int   `json:"enemies"`
	Health      int   `json:"health"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// SpawnPayload reports how many enemies a respawn pass created
type SpawnPayload struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

// KillPayload contains kill event details
type KillPayload struct {
	EnemyID int     `json:"enemyId"`
	Cause   string  `json:"cause"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Score   int     `json:"score"`
}

// BreachPayload is emitted when an enemy lands its hit on the base
type BreachPayload struct {
	EnemyID int `json:"enemyId"`
	Health  int `json:"health"`
}

// GameOverPayload carries the final run summary
type GameOverPayload struct {
	Summary Summary `json:"summary"`
}

// PeerSyncPayload records one reconciliation exchange
type PeerSyncPayload struct {
	Local    int `json:"local"`
	Sent     int `json:"sent"`
	Received int `json:"received"`
	Net      int `json:"net"`
}

// PurchasePayload records a shop purchase
type PurchasePayload struct {
	ItemID string `json:"itemId"`
	Price  int    `json:"price"`
	Coins  int    `json:"coins"`
	Killed int    `json:"killed"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Payload:   EncodePayload(payload),
	}
}
