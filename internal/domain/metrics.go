package domain

import "time"

// MetricsSnapshot is the plant-wide aggregate recomputed on every tick.
type MetricsSnapshot struct {
	TotalProduction   int       `json:"totalProduction"`
	OverallEfficiency float64   `json:"overallEfficiency"` // 0-100
	QualityRate       float64   `json:"qualityRate"`       // 0-100
	Downtime          float64   `json:"downtime"`          // fraction 0-1
	ActiveOrders      int       `json:"activeOrders"`
	CompletedOrders   int       `json:"completedOrders"`
	AlertCount        int       `json:"alertCount"`
	Timestamp         time.Time `json:"timestamp"`
}

// FactoryStatus summarises the floor for dashboards.
type FactoryStatus string

const (
	FactoryOperational FactoryStatus = "operational"
	FactoryDegraded    FactoryStatus = "degraded"
)

// Snapshot is one self-consistent read of every reactor, every station and
// the metrics aggregate. Snapshots are regenerated whole, never patched.
type Snapshot struct {
	FactoryStatus FactoryStatus   `json:"factoryStatus"`
	Timestamp     time.Time       `json:"timestamp"`
	Reactors      []Reactor       `json:"reactors"`
	Stations      []Station       `json:"stations"`
	Metrics       MetricsSnapshot `json:"metrics"`
}
