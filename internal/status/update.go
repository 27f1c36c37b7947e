package status

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrInvalidTransition is returned when a todo would move backward.
	ErrInvalidTransition = errors.New("invalid todo transition")
	// ErrInvalidCompletion is returned for a feature completion outside 0..100.
	ErrInvalidCompletion = errors.New("completion must be between 0 and 100")
)

// TodoUpdate moves the todo with ID to State, creating it as pending first
// when it does not exist. An empty ID always creates a new todo. Text, when
// set, replaces the todo text. An empty State only creates or renames.
type TodoUpdate struct {
	ID    string
	Text  string
	State TodoState
}

// Patch is a partial update of a document. The overall completion is not
// part of it: it is always derived.
type Patch struct {
	Project        *string
	Features       map[string]Feature
	RemoveFeatures []string
	CriticalNotes  []string
	Todos          []TodoUpdate
}

// ApplyUpdate merges patch into doc, stamps the update time and recomputes
// the overall completion. Features are replaced per key, keeping the stored
// name and notes when the patch leaves them empty; critical notes are
// appended unless already present. On error doc is left unchanged.
func ApplyUpdate(doc *Document, patch Patch, weights map[string]float64, now time.Time) error {
	next := doc.clone()

	if patch.Project != nil {
		next.Project = *patch.Project
	}

	for key, f := range patch.Features {
		if f.Completion < 0 || f.Completion > 100 {
			return fmt.Errorf("feature %s: %w (got %d)", key, ErrInvalidCompletion, f.Completion)
		}
		prev, exists := next.Features[key]
		if f.Name == "" {
			f.Name = key
			if exists && prev.Name != "" {
				f.Name = prev.Name
			}
		}
		if f.Notes == "" && exists {
			f.Notes = prev.Notes
		}
		next.Features[key] = f
	}
	for _, key := range patch.RemoveFeatures {
		delete(next.Features, key)
	}

	for _, note := range patch.CriticalNotes {
		if note != "" && !slices.Contains(next.CriticalNotes, note) {
			next.CriticalNotes = append(next.CriticalNotes, note)
		}
	}

	for _, u := range patch.Todos {
		if err := next.transition(u); err != nil {
			return err
		}
	}

	next.LastUpdated = now.UTC().Format(time.RFC3339)
	next.OverallCompletion = RecomputeOverall(next.Features, weights)
	*doc = *next
	return nil
}

func (d *Document) transition(u TodoUpdate) error {
	if u.State != "" && !u.State.Valid() {
		return fmt.Errorf("%w: todo %s: unknown state %q", ErrInvalidTransition, u.ID, u.State)
	}
	idx := slices.IndexFunc(d.Todos, func(t Todo) bool { return u.ID != "" && t.ID == u.ID })
	if idx < 0 {
		id := u.ID
		if id == "" {
			id = NewTodoID()
		}
		d.Todos = append(d.Todos, Todo{ID: id, Text: u.Text, State: Pending})
		idx = len(d.Todos) - 1
	}

	todo := &d.Todos[idx]
	if u.Text != "" {
		todo.Text = u.Text
	}
	if u.State == "" || u.State == todo.State {
		return nil
	}
	if u.State.order() < todo.State.order() {
		return fmt.Errorf("%w: todo %s cannot move from %s to %s", ErrInvalidTransition, todo.ID, todo.State, u.State)
	}
	todo.State = u.State
	return nil
}
