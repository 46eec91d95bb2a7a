package experiment

import (
	"errors"
	"testing"

	"github.com/quantfold/bayesab/bayes"
)

func testManager() *Manager {
	return NewManager(NewInMemoryStore(), bayes.NewEngine(nil), nil)
}

func quickConfig() bayes.Config {
	cfg := bayes.DefaultConfig()
	cfg.Iterations = 2000
	return cfg
}

func TestManagerCreateAssignsID(t *testing.T) {
	m := testManager()

	e := sampleExperiment("")
	created, err := m.Create(e)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() should assign an ID")
	}

	got, err := m.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != e.Name {
		t.Errorf("stored Name = %q, want %q", got.Name, e.Name)
	}
}

func TestManagerCreateValidates(t *testing.T) {
	m := testManager()

	bad := sampleExperiment("")
	bad.GroupA.Trials = 0
	if _, err := m.Create(bad); !errors.Is(err, bayes.ErrInvalidInput) {
		t.Fatalf("Create() error = %v, want ErrInvalidInput", err)
	}
}

func TestManagerRunAndCache(t *testing.T) {
	m := testManager()
	created, err := m.Create(sampleExperiment(""))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	first, err := m.Run(created.ID, quickConfig(), 1)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(first.Delta) != 1000 {
		t.Errorf("delta length = %d, want 1000", len(first.Delta))
	}

	// A second run of the unchanged design must come from cache:
	// identical pointer, no re-sampling.
	second, err := m.Run(created.ID, quickConfig(), 1)
	if err != nil {
		t.Fatalf("cached Run() failed: %v", err)
	}
	if first != second {
		t.Error("second Run() should return the cached result")
	}
}

func TestManagerUpdateInvalidatesCache(t *testing.T) {
	m := testManager()
	created, err := m.Create(sampleExperiment(""))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	first, err := m.Run(created.ID, quickConfig(), 1)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	updated := sampleExperiment(created.ID)
	updated.GroupB.Successes = 200
	if err := m.Update(updated); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	second, err := m.Run(created.ID, quickConfig(), 1)
	if err != nil {
		t.Fatalf("Run() after Update() failed: %v", err)
	}
	if first == second {
		t.Error("Update() should invalidate the cached analysis")
	}
}

func TestManagerRunMissingExperiment(t *testing.T) {
	m := testManager()
	if _, err := m.Run("no-such-id", quickConfig(), 1); err == nil {
		t.Fatal("Run() of missing experiment should return error")
	}
}

func TestManagerDelete(t *testing.T) {
	m := testManager()
	created, err := m.Create(sampleExperiment(""))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := m.Delete(created.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := m.Get(created.ID); err == nil {
		t.Fatal("Get() after Delete() should return error")
	}
}
