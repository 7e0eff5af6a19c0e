package protocol

// MessageType tags both inbound and outbound envelopes.
type MessageType string

// Inbound
const (
	TypeReactorControl MessageType = "REACTOR_CONTROL"
	TypeStationControl MessageType = "STATION_CONTROL"
	TypeRequestMetrics MessageType = "REQUEST_METRICS"
	TypeEmergencyStop  MessageType = "EMERGENCY_STOP"
)

// Outbound
const (
	TypeInitialState        MessageType = "INITIAL_STATE"
	TypeMetricsUpdate       MessageType = "METRICS_UPDATE"
	TypeReactorStatusUpdate MessageType = "REACTOR_STATUS_UPDATE"
	TypeStationStatusUpdate MessageType = "STATION_STATUS_UPDATE"
	TypeEmergencyAlert      MessageType = "EMERGENCY_ALERT"
)
