package status

import (
	"fmt"
	"sort"
	"strings"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

// RenderMarkdown renders doc as a Markdown report.
func RenderMarkdown(doc *Document) string {
	var b strings.Builder

	title := doc.Project
	if title == "" {
		title = "Project"
	}
	fmt.Fprintf(&b, "# %s status\n\n", title)
	fmt.Fprintf(&b, "Overall completion: **%d%%**\n", doc.OverallCompletion)
	if doc.LastUpdated != "" {
		fmt.Fprintf(&b, "\nLast updated: %s\n", doc.LastUpdated)
	}

	b.WriteString("\n## Features\n\n")
	if len(doc.Features) == 0 {
		b.WriteString("_No features tracked._\n")
	} else {
		keys := make([]string, 0, len(doc.Features))
		for k := range doc.Features {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("| Feature | Completion | Notes |\n|---|---:|---|\n")
		for _, k := range keys {
			f := doc.Features[k]
			fmt.Fprintf(&b, "| %s | %d%% | %s |\n", cellEscaper.Replace(f.Name), f.Completion, cellEscaper.Replace(f.Notes))
		}
	}

	b.WriteString("\n## Todos\n")
	if len(doc.Todos) == 0 {
		b.WriteString("\n_Nothing to do._\n")
	}
	for _, group := range []struct {
		state TodoState
		title string
		box   string
	}{
		{Active, "Active", " "},
		{Pending, "Pending", " "},
		{Done, "Done", "x"},
	} {
		todos := doc.TodosIn(group.state)
		if len(todos) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", group.title)
		for _, t := range todos {
			fmt.Fprintf(&b, "- [%s] %s (`%s`)\n", group.box, t.Text, t.ID)
		}
	}

	if len(doc.CriticalNotes) > 0 {
		b.WriteString("\n## Critical notes\n\n")
		for _, n := range doc.CriticalNotes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}
