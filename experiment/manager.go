package experiment

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quantfold/bayesab/bayes"
)

// Manager owns the experiment registry and runs analyses through the
// inference engine, caching finished results per experiment. Mutations
// to a design invalidate its cached analysis.
type Manager struct {
	store  Store
	cache  AnalysisCache
	engine *bayes.Engine
	log    *slog.Logger
}

// NewManager creates a manager over the given store. A nil logger
// falls back to slog.Default().
func NewManager(store Store, engine *bayes.Engine, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:  store,
		cache:  NewInMemoryAnalysisCache(DefaultCacheConfig()),
		engine: engine,
		log:    log,
	}
}

// Create validates a new design, assigns it an ID, and stores it.
func (m *Manager) Create(e *Experiment) (*Experiment, error) {
	if e != nil && e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := ValidateDesign(e); err != nil {
		return nil, err
	}
	if err := m.store.Add(e); err != nil {
		return nil, err
	}
	m.log.Info("experiment created", "id", e.ID, "name", e.Name)
	return e, nil
}

// Get retrieves an experiment by ID.
func (m *Manager) Get(id string) (*Experiment, error) {
	return m.store.Get(id)
}

// List returns all stored experiments, newest first.
func (m *Manager) List() ([]*Experiment, error) {
	return m.store.List()
}

// Update validates and replaces an experiment's design and drops its
// cached analysis, which no longer describes the stored data.
func (m *Manager) Update(e *Experiment) error {
	if err := ValidateDesign(e); err != nil {
		return err
	}
	if err := m.store.Update(e); err != nil {
		return err
	}
	m.cache.Invalidate(e.ID)
	return nil
}

// Delete removes an experiment and its cached analysis.
func (m *Manager) Delete(id string) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}
	m.cache.Invalidate(id)
	return nil
}

// Run analyzes a stored experiment. A cached result for the unchanged
// design is returned without re-sampling; a fresh run is cached for
// later reads. chains > 1 runs that many independent chains and adds
// the Gelman-Rubin diagnostic to every summary.
func (m *Manager) Run(id string, cfg bayes.Config, chains int) (*bayes.AnalysisResult, error) {
	if cached := m.cache.Get(id); cached != nil {
		m.log.Debug("analysis cache hit", "id", id)
		return cached, nil
	}

	e, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	result, err := m.engine.AnalyzeChains(e.GroupA, e.GroupB, e.PriorA, e.PriorB, cfg, chains)
	if err != nil {
		return nil, fmt.Errorf("analysis of experiment %s failed: %w", id, err)
	}

	m.cache.Set(id, result)
	m.log.Info("experiment analyzed",
		"id", id, "samples", len(result.Delta), "chains", chains)
	return result, nil
}
