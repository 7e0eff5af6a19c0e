package domain

// ReactorStatus is the lifecycle state of a mixing vessel.
type ReactorStatus string

const (
	ReactorIdle        ReactorStatus = "idle"
	ReactorMixing      ReactorStatus = "mixing"
	ReactorHeating     ReactorStatus = "heating"
	ReactorCooling     ReactorStatus = "cooling"
	ReactorCompleted   ReactorStatus = "completed"
	ReactorError       ReactorStatus = "error"
	ReactorMaintenance ReactorStatus = "maintenance"
)

// ReactorAction is an operator command targeting a single reactor.
type ReactorAction string

const (
	ReactorStart         ReactorAction = "start"
	ReactorStop          ReactorAction = "stop"
	ReactorPause         ReactorAction = "pause"
	ReactorEmergencyStop ReactorAction = "emergency_stop"
)

// Valid reports whether a is one of the known reactor actions.
func (a ReactorAction) Valid() bool {
	switch a {
	case ReactorStart, ReactorStop, ReactorPause, ReactorEmergencyStop:
		return true
	}
	return false
}

// Reactor is one complete reading of a mixing vessel. Telemetry fields are
// always populated, idle vessels report baseline values rather than omitting them.
type Reactor struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      ReactorStatus `json:"status"`
	Temperature float64       `json:"temperature"` // °C
	Pressure    float64       `json:"pressure"`    // bar
	MixingSpeed float64       `json:"mixingSpeed"` // RPM
	Efficiency  float64       `json:"efficiency"`  // 0-100
}
