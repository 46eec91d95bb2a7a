package experiment

// Store manages experiment persistence and retrieval.
type Store interface {
	// Add a new experiment
	Add(e *Experiment) error

	// Get an experiment by ID
	Get(id string) (*Experiment, error)

	// List all experiments, newest first
	List() ([]*Experiment, error)

	// Update an existing experiment
	Update(e *Experiment) error

	// Delete an experiment
	Delete(id string) error
}
