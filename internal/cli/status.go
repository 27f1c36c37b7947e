package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"mcpconf/internal/status"

	"github.com/spf13/cobra"
)

func (a *app) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Track project completion, todos and critical notes",
	}

	var raw, asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the project status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			doc := m.Status().LoadOrDefault(m.ProjectName())
			switch {
			case asJSON:
				data, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return err
				}
				a.println(string(data))
			case raw:
				a.printf("%s", status.RenderMarkdown(doc))
			default:
				a.printf("%s", renderMarkdown(status.RenderMarkdown(doc)))
			}
			return nil
		},
	}
	show.Flags().BoolVar(&raw, "raw", false, "print the Markdown source")
	show.Flags().BoolVar(&asJSON, "json", false, "print the status document")

	var name, notes string
	var remove bool
	feature := &cobra.Command{
		Use:   "feature KEY [COMPLETION]",
		Short: "Set the completion of a feature, 0 to 100",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if remove {
				return a.applyStatus(status.Patch{RemoveFeatures: []string{key}})
			}
			if len(args) < 2 {
				return fmt.Errorf("feature %s: completion is required", key)
			}
			completion, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("feature %s: %w (got %q)", key, status.ErrInvalidCompletion, args[1])
			}
			return a.applyStatus(status.Patch{Features: map[string]status.Feature{
				key: {Name: name, Completion: completion, Notes: notes},
			}})
		},
	}
	feature.Flags().StringVar(&name, "name", "", "display name (default: KEY)")
	feature.Flags().StringVar(&notes, "notes", "", "free-form notes")
	feature.Flags().BoolVar(&remove, "remove", false, "stop tracking the feature")

	var todoID, state string
	todo := &cobra.Command{
		Use:   "todo [TEXT]",
		Short: "Add a todo or move one forward",
		Long: `Add a todo, or move the todo given by --id to a later state.

Todos move forward only: pending, active, done. The older names todo,
in_progress and completed are accepted as aliases. An unknown --id creates
the todo first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := status.TodoUpdate{ID: todoID}
			if len(args) == 1 {
				u.Text = args[0]
			}
			if u.ID == "" && u.Text == "" {
				return fmt.Errorf("todo text or --id is required")
			}
			if state != "" {
				s, err := status.ParseTodoState(state)
				if err != nil {
					return fmt.Errorf("%w: %v", status.ErrInvalidTransition, err)
				}
				u.State = s
			}
			return a.applyStatus(status.Patch{Todos: []status.TodoUpdate{u}})
		},
	}
	todo.Flags().StringVar(&todoID, "id", "", "todo id")
	todo.Flags().StringVar(&state, "state", "", "new state: pending, active or done")

	note := &cobra.Command{
		Use:   "note TEXT",
		Short: "Record a critical note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.applyStatus(status.Patch{CriticalNotes: []string{args[0]}})
		},
	}

	render := &cobra.Command{
		Use:   "render",
		Short: "Rewrite the status files from the stored document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			store := m.Status()
			if err := store.Save(store.LoadOrDefault(m.ProjectName())); err != nil {
				return err
			}
			a.printf("%s %s\n", successStyle.Render("wrote"), store.Path())
			if p := store.MarkdownPath(); p != "" {
				a.printf("%s %s\n", successStyle.Render("wrote"), p)
			}
			return nil
		},
	}

	cmd.AddCommand(show, feature, todo, note, render)
	return cmd
}

func (a *app) applyStatus(patch status.Patch) error {
	m, err := a.mgr()
	if err != nil {
		return err
	}
	doc, err := m.Status().Apply(m.ProjectName(), patch)
	if err != nil {
		return err
	}
	a.printf("%s overall completion %d%%\n", successStyle.Render("updated"), doc.OverallCompletion)
	for _, t := range patch.Todos {
		if t.ID == "" {
			created := doc.Todos[len(doc.Todos)-1]
			a.printf("  todo %s %s\n", idStyle.Render(created.ID), created.Text)
		}
	}
	return nil
}

