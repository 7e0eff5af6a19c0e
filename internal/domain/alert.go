package domain

import "time"

type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Alert is broadcast once and not retained.
type Alert struct {
	Message         string     `json:"message"`
	Level           AlertLevel `json:"level"`
	Timestamp       time.Time  `json:"timestamp"`
	AffectedSystems []string   `json:"affectedSystems"`
}
