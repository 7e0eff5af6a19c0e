package plant

import (
	"math/rand/v2"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/plantpulse/internal/domain"
)

// Generator produces complete plant snapshots. All methods are safe for
// concurrent use: each call reads a copy of the status table and draws fresh
// values, nothing drawn is ever shared.
type Generator struct {
	floor *Floor
	clock clockwork.Clock
}

func NewGenerator(floor *Floor, clock clockwork.Clock) *Generator {
	return &Generator{floor: floor, clock: clock}
}

// GenerateReactorStates returns one reading per reactor, in floor order.
func (g *Generator) GenerateReactorStates() []domain.Reactor {
	entries := g.floor.reactorEntries()
	reactors := make([]domain.Reactor, 0, len(entries))
	for _, e := range entries {
		p, ok := reactorProfiles[e.status]
		if !ok {
			p = restingReactor
		}
		reactors = append(reactors, domain.Reactor{
			ID:          e.id,
			Name:        e.name,
			Status:      e.status,
			Temperature: p.temperature.draw(),
			Pressure:    p.pressure.draw(),
			MixingSpeed: p.mixingSpeed.draw(),
			Efficiency:  p.efficiency.draw(),
		})
	}
	return reactors
}

// GenerateStationStates returns one reading per station, in floor order.
func (g *Generator) GenerateStationStates() []domain.Station {
	entries := g.floor.stationEntries()
	stations := make([]domain.Station, 0, len(entries))
	for _, e := range entries {
		p, ok := stationProfiles[e.status]
		if !ok {
			p = stationProfiles[domain.StationIdle]
		}
		stations = append(stations, domain.Station{
			ID:         e.id,
			Name:       e.name,
			Kind:       e.kind,
			Status:     e.status,
			Efficiency: p.efficiency.draw(),
			Throughput: p.throughput.draw(),
		})
	}
	return stations
}

// GenerateMetrics returns an aggregate over a fresh draw of the floor.
func (g *Generator) GenerateMetrics() domain.MetricsSnapshot {
	return g.metricsFor(g.GenerateReactorStates(), g.GenerateStationStates())
}

// Snapshot returns reactors, stations and the metrics derived from exactly
// those readings.
func (g *Generator) Snapshot() domain.Snapshot {
	reactors := g.GenerateReactorStates()
	stations := g.GenerateStationStates()
	metrics := g.metricsFor(reactors, stations)

	return domain.Snapshot{
		FactoryStatus: factoryStatus(reactors, stations),
		Timestamp:     metrics.Timestamp,
		Reactors:      reactors,
		Stations:      stations,
		Metrics:       metrics,
	}
}

// Advance applies one tick of simulated drift to the status table.
func (g *Generator) Advance() {
	g.floor.Drift(rand.Float64)
}

func (g *Generator) metricsFor(reactors []domain.Reactor, stations []domain.Station) domain.MetricsSnapshot {
	var (
		efficiencySum float64
		idle          int
		faults        int
	)
	for _, r := range reactors {
		efficiencySum += r.Efficiency
		switch r.Status {
		case domain.ReactorMixing, domain.ReactorHeating, domain.ReactorCooling:
		case domain.ReactorError:
			faults++
			idle++
		default:
			idle++
		}
	}
	for _, s := range stations {
		efficiencySum += s.Efficiency
		switch s.Status {
		case domain.StationRunning:
		case domain.StationError:
			faults++
			idle++
		default:
			idle++
		}
	}

	units := len(reactors) + len(stations)
	var overall, downtime float64
	if units > 0 {
		overall = round2(efficiencySum / float64(units))
		downtime = round2(float64(idle) / float64(units))
	}

	return domain.MetricsSnapshot{
		TotalProduction:   drawInt(totalProductionRange),
		OverallEfficiency: overall,
		QualityRate:       qualityRateRange.draw(),
		Downtime:          downtime,
		ActiveOrders:      drawInt(activeOrdersRange),
		CompletedOrders:   drawInt(completedOrdersRange),
		AlertCount:        min(faults+rand.IntN(3), maxOpenAlerts),
		Timestamp:         g.clock.Now().UTC(),
	}
}

func factoryStatus(reactors []domain.Reactor, stations []domain.Station) domain.FactoryStatus {
	for _, r := range reactors {
		if r.Status == domain.ReactorError {
			return domain.FactoryDegraded
		}
	}
	for _, s := range stations {
		if s.Status == domain.StationError {
			return domain.FactoryDegraded
		}
	}
	return domain.FactoryOperational
}
