package plant

import (
	"math"
	"math/rand/v2"

	"github.com/pscheid92/plantpulse/internal/domain"
)

type band struct {
	min, max float64
}

func (b band) draw() float64 {
	return round2(b.min + rand.Float64()*(b.max-b.min))
}

func (b band) contains(v float64) bool {
	return v >= b.min && v <= b.max
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Outer bounds every reading stays within, whatever the status.
var (
	reactorTemperatureRange = band{15, 130}
	reactorPressureRange    = band{0.8, 4.0}
	reactorMixingSpeedRange = band{0, 1200}
	efficiencyRange         = band{0, 100}
	stationThroughputRange  = band{0, 1200}
)

type reactorProfile struct {
	temperature band
	pressure    band
	mixingSpeed band
	efficiency  band
}

var restingReactor = reactorProfile{
	temperature: band{18, 25},
	pressure:    band{0.9, 1.1},
	mixingSpeed: band{0, 0},
	efficiency:  band{0, 0},
}

var reactorProfiles = map[domain.ReactorStatus]reactorProfile{
	domain.ReactorIdle:        restingReactor,
	domain.ReactorCompleted:   restingReactor,
	domain.ReactorMaintenance: restingReactor,
	domain.ReactorMixing: {
		temperature: band{40, 80},
		pressure:    band{1.2, 2.5},
		mixingSpeed: band{300, 1200},
		efficiency:  band{75, 98},
	},
	domain.ReactorHeating: {
		temperature: band{80, 130},
		pressure:    band{2.0, 4.0},
		mixingSpeed: band{200, 600},
		efficiency:  band{70, 95},
	},
	domain.ReactorCooling: {
		temperature: band{25, 60},
		pressure:    band{1.0, 2.0},
		mixingSpeed: band{50, 200},
		efficiency:  band{60, 90},
	},
	domain.ReactorError: {
		temperature: reactorTemperatureRange,
		pressure:    reactorPressureRange,
		mixingSpeed: reactorMixingSpeedRange,
		efficiency:  band{0, 40},
	},
}

type stationProfile struct {
	efficiency band
	throughput band
}

var stationProfiles = map[domain.StationStatus]stationProfile{
	domain.StationIdle:        {efficiency: band{0, 0}, throughput: band{0, 0}},
	domain.StationMaintenance: {efficiency: band{0, 0}, throughput: band{0, 0}},
	domain.StationRunning:     {efficiency: band{70, 99}, throughput: band{400, 1200}},
	domain.StationError:       {efficiency: band{0, 30}, throughput: band{0, 0}},
}

// Aggregate bounds for the metrics snapshot.
var (
	qualityRateRange     = band{90, 100}
	totalProductionRange = [2]int{10000, 50000}
	activeOrdersRange    = [2]int{1, 20}
	completedOrdersRange = [2]int{50, 500}
	maxOpenAlerts        = 5
)

func drawInt(r [2]int) int {
	return r[0] + rand.IntN(r[1]-r[0]+1)
}
