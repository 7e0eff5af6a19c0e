package domain

// StationStatus is the lifecycle state of a production line segment.
type StationStatus string

const (
	StationIdle        StationStatus = "idle"
	StationRunning     StationStatus = "running"
	StationMaintenance StationStatus = "maintenance"
	StationError       StationStatus = "error"
)

// StationKind names what a production line segment does.
type StationKind string

const (
	StationLabeling  StationKind = "labeling"
	StationFilling   StationKind = "filling"
	StationPackaging StationKind = "packaging"
	StationPowder    StationKind = "powder"
	StationSoap      StationKind = "soap"
)

// StationAction is an operator command targeting a single station.
type StationAction string

const (
	StationStart    StationAction = "start"
	StationStop     StationAction = "stop"
	StationPause    StationAction = "pause"
	StationMaintain StationAction = "maintenance"
)

// Valid reports whether a is one of the known station actions.
func (a StationAction) Valid() bool {
	switch a {
	case StationStart, StationStop, StationPause, StationMaintain:
		return true
	}
	return false
}

// Station is one complete reading of a production line segment.
type Station struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Kind       StationKind   `json:"kind"`
	Status     StationStatus `json:"status"`
	Efficiency float64       `json:"efficiency"` // 0-100
	Throughput float64       `json:"throughput"` // units/hour
}
