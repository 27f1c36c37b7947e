// Package status keeps the project status document: tracked features with
// completion percentages, todos, critical notes and a derived overall
// completion.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TodoState is the lifecycle position of a todo. States only move forward.
type TodoState string

const (
	Pending TodoState = "pending"
	Active  TodoState = "active"
	Done    TodoState = "done"
)

// Valid reports whether s is one of the canonical states.
func (s TodoState) Valid() bool {
	return s == Pending || s == Active || s == Done
}

func (s TodoState) order() int {
	switch s {
	case Active:
		return 1
	case Done:
		return 2
	default:
		return 0
	}
}

// ParseTodoState accepts the canonical names plus the legacy bucket names
// "in_progress" and "completed".
func ParseTodoState(s string) (TodoState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "todo", "":
		return Pending, nil
	case "active", "in_progress", "in-progress":
		return Active, nil
	case "done", "completed", "complete":
		return Done, nil
	}
	return "", fmt.Errorf("unknown todo state %q", s)
}

// Feature is one tracked feature.
type Feature struct {
	Name       string `json:"name"`
	Completion int    `json:"completion"`
	Notes      string `json:"notes,omitempty"`
}

// Todo is one work item.
type Todo struct {
	ID    string    `json:"id"`
	Text  string    `json:"text"`
	State TodoState `json:"state"`
}

// Document is the persisted status file.
type Document struct {
	Project           string             `json:"project"`
	OverallCompletion int                `json:"overall_completion"`
	LastUpdated       string             `json:"last_updated,omitempty"`
	Features          map[string]Feature `json:"features"`
	Todos             []Todo             `json:"todos"`
	CriticalNotes     []string           `json:"critical_notes"`
}

// NewDocument returns an empty document for project.
func NewDocument(project string) *Document {
	return &Document{
		Project:       project,
		Features:      map[string]Feature{},
		Todos:         []Todo{},
		CriticalNotes: []string{},
	}
}

// NewTodoID returns a short random id.
func NewTodoID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Todo returns the todo with id.
func (d *Document) Todo(id string) (Todo, bool) {
	for _, t := range d.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return Todo{}, false
}

// TodosIn returns the todos in state, in document order.
func (d *Document) TodosIn(state TodoState) []Todo {
	var out []Todo
	for _, t := range d.Todos {
		if t.State == state {
			out = append(out, t)
		}
	}
	return out
}

func (d *Document) clone() *Document {
	c := *d
	c.Features = make(map[string]Feature, len(d.Features))
	for k, v := range d.Features {
		c.Features[k] = v
	}
	c.Todos = append([]Todo{}, d.Todos...)
	c.CriticalNotes = append([]string{}, d.CriticalNotes...)
	return &c
}

// UnmarshalJSON accepts the canonical flat todo list as well as the legacy
// three-bucket object, migrating the latter into the flat list.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var raw struct {
		plain
		Todos json.RawMessage `json:"todos"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	todos, err := decodeTodos(raw.Todos)
	if err != nil {
		return fmt.Errorf("todos: %w", err)
	}

	*d = Document(raw.plain)
	d.Todos = todos
	if d.Features == nil {
		d.Features = map[string]Feature{}
	}
	if d.CriticalNotes == nil {
		d.CriticalNotes = []string{}
	}
	return nil
}

// legacyTodo is a todo as found in older files: a bare string or an object
// that may carry a state under a different name.
type legacyTodo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Title     string `json:"title"`
	State     string `json:"state"`
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

func decodeTodos(raw json.RawMessage) ([]Todo, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Todo{}, nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		out := make([]Todo, 0, len(items))
		for _, item := range items {
			t, err := decodeTodo(item, Pending)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil

	case '{':
		var buckets map[string][]json.RawMessage
		if err := json.Unmarshal(raw, &buckets); err != nil {
			return nil, err
		}
		out := []Todo{}
		for _, name := range []string{"pending", "in_progress", "active", "completed", "done"} {
			state, _ := ParseTodoState(name)
			for _, item := range buckets[name] {
				t, err := decodeTodo(item, state)
				if err != nil {
					return nil, err
				}
				t.State = state
				out = append(out, t)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list or an object of buckets")
}

func decodeTodo(item json.RawMessage, state TodoState) (Todo, error) {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return Todo{ID: NewTodoID(), Text: text, State: state}, nil
	}

	var lt legacyTodo
	if err := json.Unmarshal(item, &lt); err != nil {
		return Todo{}, err
	}

	t := Todo{ID: lt.ID, Text: lt.Text, State: state}
	if t.Text == "" {
		t.Text = lt.Title
	}
	if t.ID == "" {
		t.ID = NewTodoID()
	}

	name := lt.State
	if name == "" {
		name = lt.Status
	}
	if name != "" {
		s, err := ParseTodoState(name)
		if err != nil {
			return Todo{}, err
		}
		t.State = s
	}
	if lt.Completed {
		t.State = Done
	}
	return t, nil
}
