package plant

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/plantpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allReactorStatuses() []domain.ReactorStatus {
	return []domain.ReactorStatus{
		domain.ReactorIdle, domain.ReactorMixing, domain.ReactorHeating, domain.ReactorCooling,
		domain.ReactorCompleted, domain.ReactorError, domain.ReactorMaintenance,
	}
}

func allStationStatuses() []domain.StationStatus {
	return []domain.StationStatus{
		domain.StationIdle, domain.StationRunning, domain.StationMaintenance, domain.StationError,
	}
}

func TestGenerateReactorStates_FixedFloor(t *testing.T) {
	gen := NewGenerator(NewFloor(), clockwork.NewFakeClock())

	reactors := gen.GenerateReactorStates()

	require.Len(t, reactors, 3)
	assert.Equal(t, "reactor-a", reactors[0].ID)
	assert.Equal(t, "reactor-b", reactors[1].ID)
	assert.Equal(t, "reactor-c", reactors[2].ID)
	for _, r := range reactors {
		assert.NotEmpty(t, r.Name)
	}
}

func TestGenerateStationStates_FixedFloor(t *testing.T) {
	gen := NewGenerator(NewFloor(), clockwork.NewFakeClock())

	stations := gen.GenerateStationStates()

	require.Len(t, stations, 3)
	assert.Equal(t, []string{"station-a", "station-b", "station-c"}, []string{stations[0].ID, stations[1].ID, stations[2].ID})
	assert.Equal(t, domain.StationLabeling, stations[0].Kind)
	assert.Equal(t, domain.StationFilling, stations[1].Kind)
	assert.Equal(t, domain.StationPackaging, stations[2].Kind)
}

func TestGenerateReactorStates_WithinBoundsForEveryStatus(t *testing.T) {
	for _, status := range allReactorStatuses() {
		t.Run(string(status), func(t *testing.T) {
			floor := NewFloor()
			for i := range floor.reactors {
				floor.reactors[i].status = status
			}
			gen := NewGenerator(floor, clockwork.NewFakeClock())

			for range 200 {
				for _, r := range gen.GenerateReactorStates() {
					assert.Equal(t, status, r.Status)
					assert.True(t, reactorTemperatureRange.contains(r.Temperature), "temperature %v", r.Temperature)
					assert.True(t, reactorPressureRange.contains(r.Pressure), "pressure %v", r.Pressure)
					assert.True(t, reactorMixingSpeedRange.contains(r.MixingSpeed), "mixing speed %v", r.MixingSpeed)
					assert.True(t, efficiencyRange.contains(r.Efficiency), "efficiency %v", r.Efficiency)
				}
			}
		})
	}
}

func TestGenerateReactorStates_IdleReportsBaseline(t *testing.T) {
	gen := NewGenerator(NewFloor(), clockwork.NewFakeClock())

	idle := gen.GenerateReactorStates()[0]

	require.Equal(t, domain.ReactorIdle, idle.Status)
	assert.Zero(t, idle.MixingSpeed)
	assert.Zero(t, idle.Efficiency)
	assert.True(t, restingReactor.temperature.contains(idle.Temperature))
	assert.True(t, restingReactor.pressure.contains(idle.Pressure))
}

func TestGenerateStationStates_WithinBoundsForEveryStatus(t *testing.T) {
	for _, status := range allStationStatuses() {
		t.Run(string(status), func(t *testing.T) {
			floor := NewFloor()
			for i := range floor.stations {
				floor.stations[i].status = status
			}
			gen := NewGenerator(floor, clockwork.NewFakeClock())

			for range 200 {
				for _, s := range gen.GenerateStationStates() {
					assert.Equal(t, status, s.Status)
					assert.True(t, efficiencyRange.contains(s.Efficiency), "efficiency %v", s.Efficiency)
					assert.True(t, stationThroughputRange.contains(s.Throughput), "throughput %v", s.Throughput)
					if status != domain.StationRunning {
						assert.Zero(t, s.Throughput)
					}
				}
			}
		})
	}
}

func TestGenerateMetrics_WithinBounds(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	gen := NewGenerator(NewFloor(), clock)

	for range 200 {
		m := gen.GenerateMetrics()

		assert.True(t, efficiencyRange.contains(m.OverallEfficiency), "overall efficiency %v", m.OverallEfficiency)
		assert.True(t, qualityRateRange.contains(m.QualityRate), "quality rate %v", m.QualityRate)
		assert.True(t, m.Downtime >= 0 && m.Downtime <= 1, "downtime %v", m.Downtime)
		assert.GreaterOrEqual(t, m.TotalProduction, totalProductionRange[0])
		assert.LessOrEqual(t, m.TotalProduction, totalProductionRange[1])
		assert.GreaterOrEqual(t, m.ActiveOrders, activeOrdersRange[0])
		assert.LessOrEqual(t, m.ActiveOrders, activeOrdersRange[1])
		assert.GreaterOrEqual(t, m.CompletedOrders, completedOrdersRange[0])
		assert.LessOrEqual(t, m.CompletedOrders, completedOrdersRange[1])
		assert.GreaterOrEqual(t, m.AlertCount, 0)
		assert.LessOrEqual(t, m.AlertCount, maxOpenAlerts)
		assert.Equal(t, clock.Now().UTC(), m.Timestamp)
	}
}

func TestSnapshot_MetricsDerivedFromSameReadings(t *testing.T) {
	gen := NewGenerator(NewFloor(), clockwork.NewFakeClock())

	snap := gen.Snapshot()

	var sum float64
	for _, r := range snap.Reactors {
		sum += r.Efficiency
	}
	for _, s := range snap.Stations {
		sum += s.Efficiency
	}
	assert.InDelta(t, sum/6, snap.Metrics.OverallEfficiency, 0.01)
	// reactor-a, reactor-c and station-c start out idle
	assert.InDelta(t, 0.5, snap.Metrics.Downtime, 0.001)
	assert.Equal(t, snap.Metrics.Timestamp, snap.Timestamp)
	assert.Equal(t, domain.FactoryOperational, snap.FactoryStatus)
}

func TestSnapshot_DegradedWhenAnySystemErrors(t *testing.T) {
	floor := NewFloor()
	floor.stations[1].status = domain.StationError
	gen := NewGenerator(floor, clockwork.NewFakeClock())

	snap := gen.Snapshot()

	assert.Equal(t, domain.FactoryDegraded, snap.FactoryStatus)
	assert.GreaterOrEqual(t, snap.Metrics.AlertCount, 1)
}

func TestGenerator_ConcurrentUse(t *testing.T) {
	floor := NewFloor()
	gen := NewGenerator(floor, clockwork.NewRealClock())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				snap := gen.Snapshot()
				assert.Len(t, snap.Reactors, 3)
				assert.Len(t, snap.Stations, 3)
				gen.Advance()
				_, _ = floor.ApplyReactorAction("reactor-a", domain.ReactorStart)
				_, _ = floor.ApplyReactorAction("reactor-a", domain.ReactorEmergencyStop)
			}
		}()
	}
	wg.Wait()
}
