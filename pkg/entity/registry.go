// Package entity loads GPI side tables into a registry of annotation subjects
// (gene products, complexes, RNAs) used to enrich parsed associations.
package entity

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/coolbeans/assockit/pkg/association"
	"github.com/coolbeans/assockit/pkg/curie"
	"github.com/coolbeans/assockit/pkg/report"
)

// Registry maps subject identifiers to their descriptions. It is built once
// and then only read; it is not safe for concurrent mutation.
type Registry struct {
	entities map[curie.Curie]*association.Subject
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[curie.Curie]*association.Subject)}
}

// Add stores a subject, replacing any subject with the same id.
func (r *Registry) Add(subject *association.Subject) {
	r.entities[subject.ID] = subject
}

// Get returns the subject with the given id. A missing subject is an
// enrichment gap, not an error.
func (r *Registry) Get(id curie.Curie) (*association.Subject, bool) {
	if r == nil {
		return nil, false
	}
	subject, ok := r.entities[id]
	return subject, ok
}

// Merge copies every subject of other into r. Entries from other win on
// collision. It returns r for chaining.
func (r *Registry) Merge(other *Registry) *Registry {
	if other == nil {
		return r
	}
	for id, subject := range other.entities {
		r.entities[id] = subject
	}
	return r
}

// Len returns the number of subjects.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entities)
}

// IDs returns every subject id in sorted order.
func (r *Registry) IDs() []curie.Curie {
	ids := make([]curie.Curie, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Compare(ids[j]) < 0 })
	return ids
}

// Load reads a GPI file. When the file cannot be opened or read, Load returns
// an empty registry together with the error; malformed lines are only logged.
func Load(path string) (*Registry, error) {
	return LoadWithLogger(path, slog.Default())
}

// LoadWithLogger is Load with an explicit logger.
func LoadWithLogger(path string, logger *slog.Logger) (*Registry, error) {
	file, err := os.Open(path)
	if err != nil {
		return NewRegistry(), fmt.Errorf("opening gpi file: %w", err)
	}
	defer file.Close()

	registry, err := Read(file, logger.With("path", path))
	if err != nil {
		return NewRegistry(), err
	}
	return registry, nil
}

// LoadOrEmpty loads a GPI file and degrades to an empty registry on failure,
// recording a single ERROR message in rep.
func LoadOrEmpty(path string, rep *report.Report, logger *slog.Logger) *Registry {
	registry, err := LoadWithLogger(path, logger)
	if err != nil {
		logger.Error("failed to read GPI file", "path", path, "error", err)
		if rep != nil {
			rep.Error(report.RuleEntityLoad, path, "", fmt.Sprintf("failed to read GPI file: %v", err))
		}
		return NewRegistry()
	}
	logger.Debug("loaded GPI file", "path", path, "entities", registry.Len())
	return registry
}
