package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"credit-simulator/internal/model"
)

// MemoryRepository is an in-memory Store, used when no database is
// configured and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*model.Simulation
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[int64]*model.Simulation),
		now:  time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, sim *model.Simulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sim.ID = r.nextID
	if sim.SimulationDate.IsZero() {
		sim.SimulationDate = r.now().UTC().Truncate(time.Second)
	}
	for i := range sim.Schedule {
		sim.Schedule[i].SimulationID = sim.ID
	}

	r.data[sim.ID] = cloneSimulation(sim)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*model.Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sim, ok := r.data[id]
	if !ok {
		return nil, ErrSimulationNotFound
	}
	return cloneSimulation(sim), nil
}

func (r *MemoryRepository) GetSchedulePage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sim, ok := r.data[simulationID]
	if !ok {
		return model.NewSchedulePage(simulationID, nil, page, size, 0), nil
	}

	total := len(sim.Schedule)
	from, to := total, total
	if size > 0 && page >= 0 && page < (total+size-1)/size {
		from = page * size
		to = from + size
		if to > total {
			to = total
		}
	}

	content := make([]model.ScheduleEntry, to-from)
	copy(content, sim.Schedule[from:to])
	return model.NewSchedulePage(simulationID, content, page, size, int64(total)), nil
}

func (r *MemoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	for id, sim := range r.data {
		if sim.SimulationDate.Before(cutoff) {
			ids = append(ids, id)
			delete(r.data, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func cloneSimulation(sim *model.Simulation) *model.Simulation {
	out := *sim
	out.Schedule = make([]model.ScheduleEntry, len(sim.Schedule))
	copy(out.Schedule, sim.Schedule)
	return &out
}
