// Package catalog is the read-only source of sequence definitions.
//
// Definitions are authored in CUE under a top-level `sequence` struct keyed
// by sequence id and validated against an embedded #Sequence schema:
//
//	sequence: "wdep-7": {
//		kind:         "experiment"
//		total_items:  7
//		window_start: "2026-03-02"
//	}
//
// A catalog may also carry per-item text under `content` so the reveal plan
// can be estimated; real deployments front a content repository instead.
package catalog

import (
	"fmt"
	"sort"

	"github.com/roach88/pathway/internal/progress"
)

// Catalog looks up sequence definitions.
type Catalog interface {
	Sequence(id string) (progress.SequenceDefinition, bool)
	Sequences() []progress.SequenceDefinition
	Content(sequenceID string, item int) (string, bool)
}

// Memory is an immutable in-memory catalog.
type Memory struct {
	defs    map[string]progress.SequenceDefinition
	content map[string]map[int]string
}

var _ Catalog = (*Memory)(nil)

// NewMemory validates defs and returns a catalog holding them.
func NewMemory(defs ...progress.SequenceDefinition) (*Memory, error) {
	m := &Memory{
		defs:    make(map[string]progress.SequenceDefinition, len(defs)),
		content: make(map[string]map[int]string),
	}
	for _, d := range defs {
		if err := Validate(d); err != nil {
			return nil, err
		}
		if _, dup := m.defs[d.ID]; dup {
			return nil, fmt.Errorf("sequence %q defined twice", d.ID)
		}
		m.defs[d.ID] = d
	}
	return m, nil
}

// MustMemory is NewMemory for fixed test data. Panics on invalid input.
func MustMemory(defs ...progress.SequenceDefinition) *Memory {
	m, err := NewMemory(defs...)
	if err != nil {
		panic(err)
	}
	return m
}

// SetContent attaches item text to a sequence.
func (m *Memory) SetContent(sequenceID string, item int, text string) {
	if m.content[sequenceID] == nil {
		m.content[sequenceID] = make(map[int]string)
	}
	m.content[sequenceID][item] = text
}

func (m *Memory) Sequence(id string) (progress.SequenceDefinition, bool) {
	d, ok := m.defs[id]
	return d, ok
}

// Sequences returns every definition ordered by id.
func (m *Memory) Sequences() []progress.SequenceDefinition {
	out := make([]progress.SequenceDefinition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) Content(sequenceID string, item int) (string, bool) {
	text, ok := m.content[sequenceID][item]
	return text, ok
}

// Validate checks rules the CUE schema cannot express alone.
func Validate(d progress.SequenceDefinition) error {
	switch {
	case d.ID == "":
		return fmt.Errorf("sequence id is required")
	case d.TotalItems < 0:
		return fmt.Errorf("sequence %q: total_items must be >= 0", d.ID)
	case d.WindowStart != nil && d.TotalItems == 0:
		return fmt.Errorf("sequence %q: a window requires total_items", d.ID)
	case d.WindowEnd != nil && d.WindowStart == nil:
		return fmt.Errorf("sequence %q: window_end requires window_start", d.ID)
	case d.WindowEnd != nil && d.WindowEnd.Before(*d.WindowStart):
		return fmt.Errorf("sequence %q: window_end %s is before window_start %s", d.ID, d.WindowEnd, d.WindowStart)
	}
	return nil
}
