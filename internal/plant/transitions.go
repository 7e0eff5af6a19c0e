package plant

import "github.com/pscheid92/plantpulse/internal/domain"

var reactorTransitions = map[domain.ReactorAction]map[domain.ReactorStatus]domain.ReactorStatus{
	domain.ReactorStart: {
		domain.ReactorIdle:      domain.ReactorMixing,
		domain.ReactorCompleted: domain.ReactorMixing,
	},
	domain.ReactorStop: {
		domain.ReactorMixing:  domain.ReactorCooling,
		domain.ReactorHeating: domain.ReactorCooling,
	},
	domain.ReactorPause: {
		domain.ReactorMixing:  domain.ReactorCooling,
		domain.ReactorHeating: domain.ReactorCooling,
	},
}

var stationTransitions = map[domain.StationAction]map[domain.StationStatus]domain.StationStatus{
	domain.StationStart: {
		domain.StationIdle:        domain.StationRunning,
		domain.StationMaintenance: domain.StationRunning,
	},
	domain.StationStop: {
		domain.StationRunning:     domain.StationIdle,
		domain.StationMaintenance: domain.StationIdle,
	},
	domain.StationPause: {
		domain.StationRunning: domain.StationIdle,
	},
	domain.StationMaintain: {
		domain.StationIdle:    domain.StationMaintenance,
		domain.StationRunning: domain.StationMaintenance,
	},
}

type driftStep struct {
	next        domain.ReactorStatus
	probability float64
}

// Per-tick chance that a batch moves to its next phase.
var reactorDrift = map[domain.ReactorStatus]driftStep{
	domain.ReactorMixing:  {next: domain.ReactorHeating, probability: 0.2},
	domain.ReactorHeating: {next: domain.ReactorCooling, probability: 0.2},
	domain.ReactorCooling: {next: domain.ReactorCompleted, probability: 0.25},
}

// Emergency stop always succeeds. Nothing reaches the error status through a command.
func nextReactorStatus(current domain.ReactorStatus, action domain.ReactorAction) (domain.ReactorStatus, bool) {
	if action == domain.ReactorEmergencyStop {
		return domain.ReactorIdle, true
	}
	next, ok := reactorTransitions[action][current]
	return next, ok
}

func nextStationStatus(current domain.StationStatus, action domain.StationAction) (domain.StationStatus, bool) {
	next, ok := stationTransitions[action][current]
	return next, ok
}
