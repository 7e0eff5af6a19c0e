package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pscheid92/plantpulse/internal/domain"
	apperrors "github.com/pscheid92/plantpulse/internal/errors"
)

// Command is one decoded inbound control message. The concrete type is one of
// ReactorControl, StationControl, RequestMetrics or EmergencyStop.
type Command interface {
	Kind() MessageType
}

type ReactorControl struct {
	ReactorID  string
	Action     domain.ReactorAction
	Parameters json.RawMessage
}

func (ReactorControl) Kind() MessageType { return TypeReactorControl }

type StationControl struct {
	StationID  string
	Action     domain.StationAction
	Parameters json.RawMessage
}

func (StationControl) Kind() MessageType { return TypeStationControl }

type RequestMetrics struct{}

func (RequestMetrics) Kind() MessageType { return TypeRequestMetrics }

type EmergencyStop struct {
	Reason  string
	Systems []string
}

func (EmergencyStop) Kind() MessageType { return TypeEmergencyStop }

type envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type reactorControlPayload struct {
	ReactorID  string          `json:"reactorId"`
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters"`
}

type stationControlPayload struct {
	StationID  string          `json:"stationId"`
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters"`
}

type emergencyStopPayload struct {
	Reason  string   `json:"reason"`
	Systems []string `json:"systems"`
}

// Decode parses one inbound frame. Every failure is a protocol error carrying
// the offending type, if one could be read.
func Decode(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, apperrors.ProtocolError("message is not a JSON envelope", err)
	}

	switch env.Type {
	case TypeReactorControl:
		var p reactorControlPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.ReactorID == "" {
			return nil, malformed(env.Type, "reactorId is required")
		}
		action := domain.ReactorAction(p.Action)
		if !action.Valid() {
			return nil, malformed(env.Type, fmt.Sprintf("unknown reactor action %q", p.Action))
		}
		if err := checkParameters(env.Type, p.Parameters); err != nil {
			return nil, err
		}
		return ReactorControl{ReactorID: p.ReactorID, Action: action, Parameters: p.Parameters}, nil

	case TypeStationControl:
		var p stationControlPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.StationID == "" {
			return nil, malformed(env.Type, "stationId is required")
		}
		action := domain.StationAction(p.Action)
		if !action.Valid() {
			return nil, malformed(env.Type, fmt.Sprintf("unknown station action %q", p.Action))
		}
		if err := checkParameters(env.Type, p.Parameters); err != nil {
			return nil, err
		}
		return StationControl{StationID: p.StationID, Action: action, Parameters: p.Parameters}, nil

	case TypeRequestMetrics:
		return RequestMetrics{}, nil

	case TypeEmergencyStop:
		// A bare emergency stop is plant-wide with the default reason.
		var p emergencyStopPayload
		if !isAbsent(env.Payload) {
			if err := decodePayload(env, &p); err != nil {
				return nil, err
			}
		}
		for _, id := range p.Systems {
			if id == "" {
				return nil, malformed(env.Type, "systems must not contain empty ids")
			}
		}
		return EmergencyStop{Reason: p.Reason, Systems: p.Systems}, nil

	case "":
		return nil, apperrors.ProtocolError("message type is required", nil)

	default:
		return nil, apperrors.ProtocolError("unknown message type", nil).WithContext("type", string(env.Type))
	}
}

func decodePayload(env envelope, dst any) error {
	if isAbsent(env.Payload) {
		return malformed(env.Type, "payload is required")
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return apperrors.ProtocolError("payload does not match schema", err).WithContext("type", string(env.Type))
	}
	return nil
}

// parameters are optional but must be an object when present.
func checkParameters(t MessageType, raw json.RawMessage) error {
	if isAbsent(raw) {
		return nil
	}
	if raw[0] != '{' {
		return malformed(t, "parameters must be an object")
	}
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func malformed(t MessageType, message string) error {
	return apperrors.ProtocolError(message, nil).WithContext("type", string(t))
}
