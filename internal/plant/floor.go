package plant

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pscheid92/plantpulse/internal/domain"
)

type reactorEntry struct {
	id     string
	name   string
	status domain.ReactorStatus
}

type stationEntry struct {
	id     string
	name   string
	kind   domain.StationKind
	status domain.StationStatus
}

// Floor holds the current status of every reactor and station. The set of
// identities is fixed at construction and never changes.
type Floor struct {
	mu       sync.Mutex
	reactors []reactorEntry
	stations []stationEntry
}

// NewFloor returns the simulated three-reactor, three-station floor.
func NewFloor() *Floor {
	return &Floor{
		reactors: []reactorEntry{
			{id: "reactor-a", name: "Reactor A", status: domain.ReactorIdle},
			{id: "reactor-b", name: "Reactor B", status: domain.ReactorMixing},
			{id: "reactor-c", name: "Reactor C", status: domain.ReactorIdle},
		},
		stations: []stationEntry{
			{id: "station-a", name: "Labeling Line", kind: domain.StationLabeling, status: domain.StationRunning},
			{id: "station-b", name: "Filling Line", kind: domain.StationFilling, status: domain.StationRunning},
			{id: "station-c", name: "Packaging Line", kind: domain.StationPackaging, status: domain.StationIdle},
		},
	}
}

// ApplyReactorAction moves a reactor to the status the action leads to.
// It returns the reactor's status after the call; on ErrInvalidTransition the
// status is unchanged.
func (f *Floor) ApplyReactorAction(id string, action domain.ReactorAction) (domain.ReactorStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.IndexFunc(f.reactors, func(r reactorEntry) bool { return r.id == id })
	if i < 0 {
		return "", fmt.Errorf("reactor %q: %w", id, domain.ErrUnknownReactor)
	}

	current := f.reactors[i].status
	next, ok := nextReactorStatus(current, action)
	if !ok {
		return current, fmt.Errorf("reactor %q cannot %s while %s: %w", id, action, current, domain.ErrInvalidTransition)
	}
	f.reactors[i].status = next
	return next, nil
}

// ApplyStationAction is the station counterpart of ApplyReactorAction.
func (f *Floor) ApplyStationAction(id string, action domain.StationAction) (domain.StationStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.IndexFunc(f.stations, func(s stationEntry) bool { return s.id == id })
	if i < 0 {
		return "", fmt.Errorf("station %q: %w", id, domain.ErrUnknownStation)
	}

	current := f.stations[i].status
	next, ok := nextStationStatus(current, action)
	if !ok {
		return current, fmt.Errorf("station %q cannot %s while %s: %w", id, action, current, domain.ErrInvalidTransition)
	}
	f.stations[i].status = next
	return next, nil
}

// SystemIDs returns every reactor id followed by every station id.
func (f *Floor) SystemIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.reactors)+len(f.stations))
	for _, r := range f.reactors {
		ids = append(ids, r.id)
	}
	for _, s := range f.stations {
		ids = append(ids, s.id)
	}
	return ids
}

// Halt puts every listed system into its idle state regardless of where it
// was. Unknown ids are skipped. It returns the ids that were halted.
func (f *Floor) Halt(ids []string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var halted []string
	for i := range f.reactors {
		if slices.Contains(ids, f.reactors[i].id) {
			f.reactors[i].status = domain.ReactorIdle
			halted = append(halted, f.reactors[i].id)
		}
	}
	for i := range f.stations {
		if slices.Contains(ids, f.stations[i].id) {
			f.stations[i].status = domain.StationIdle
			halted = append(halted, f.stations[i].id)
		}
	}
	return halted
}

// Drift advances batches in progress. roll returns a value in [0,1) and is
// consulted once per reactor that can advance.
func (f *Floor) Drift(roll func() float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.reactors {
		step, ok := reactorDrift[f.reactors[i].status]
		if !ok {
			continue
		}
		if roll() < step.probability {
			f.reactors[i].status = step.next
		}
	}
}

func (f *Floor) reactorEntries() []reactorEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reactors)
}

func (f *Floor) stationEntries() []stationEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.stations)
}
