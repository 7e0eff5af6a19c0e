package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pscheid92/plantpulse/internal/domain"
)

// Message is one outbound envelope.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

type ReactorStatusUpdate struct {
	ReactorID string               `json:"reactorId"`
	Action    domain.ReactorAction `json:"action"`
	Success   bool                 `json:"success"`
	Status    domain.ReactorStatus `json:"status,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

type StationStatusUpdate struct {
	StationID string               `json:"stationId"`
	Action    domain.StationAction `json:"action"`
	Success   bool                 `json:"success"`
	Status    domain.StationStatus `json:"status,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func InitialState(snapshot domain.Snapshot) Message {
	return Message{Type: TypeInitialState, Data: snapshot}
}

// MetricsUpdate carries the same snapshot shape as InitialState. It is used for
// both the periodic broadcast and the reply to REQUEST_METRICS.
func MetricsUpdate(snapshot domain.Snapshot) Message {
	return Message{Type: TypeMetricsUpdate, Data: snapshot}
}

func ReactorStatus(update ReactorStatusUpdate) Message {
	return Message{Type: TypeReactorStatusUpdate, Data: update}
}

func StationStatus(update StationStatusUpdate) Message {
	return Message{Type: TypeStationStatusUpdate, Data: update}
}

func EmergencyAlert(alert domain.Alert) Message {
	return Message{Type: TypeEmergencyAlert, Data: alert}
}

// Encode serializes msg for a text frame.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Type, err)
	}
	return data, nil
}
