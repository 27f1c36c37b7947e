package cli

import (
	"errors"
	"fmt"
	"strings"

	"mcpconf/internal/merge"
	"mcpconf/internal/validation"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			scopes := []merge.Scope{merge.ScopeGlobal, merge.ScopeProject}
			if !all {
				scope, err := a.scope()
				if err != nil {
					return err
				}
				scopes = []merge.Scope{scope}
			}

			for _, scope := range scopes {
				instances := m.Instances(scope)
				a.printf("%s %s\n", titleStyle.Render(string(scope)), faintStyle.Render(m.Settings(scope).Path()))
				if len(instances) == 0 {
					a.println(faintStyle.Render("  no servers configured"))
				}
				for _, in := range instances {
					target := in.URL
					if target == "" {
						target = strings.TrimSpace(in.Command + " " + strings.Join(in.Args, " "))
					}
					line := fmt.Sprintf("  %-24s %s", idStyle.Render(in.ID), target)
					if missing := in.Unresolved(); len(missing) > 0 {
						line += " " + warnStyle.Render("(needs "+strings.Join(missing, ", ")+")")
					}
					a.println(line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list both scopes")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Configure the server described by a card",
		Long: `Configure the server described by card ID in the selected scope.

Variable values are taken from --set, then the project env file, then the
process environment, then the keyring. Missing required variables are left
as ${NAME} placeholders; the server is written anyway and the command exits
with status 2 so scripts notice.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			scope, err := a.scope()
			if err != nil {
				return err
			}
			m, err := a.mgr()
			if err != nil {
				return err
			}

			res, err := m.Add(args[0], scope, overrides)
			if err != nil {
				return err
			}
			verb := "added"
			if res.Replaced {
				verb = "updated"
			}
			a.printf("%s %s to %s settings (%s)\n", successStyle.Render(verb), idStyle.Render(res.Instance.ID), scope, m.Settings(scope).Path())

			if !res.Validation.Valid {
				a.println(warnStyle.Render("missing values: " + strings.Join(res.Validation.MissingNames(), ", ")))
				a.println(faintStyle.Render("  set them with: mcpconf env set NAME VALUE, then run mcpconf reconfigure " + res.Instance.ID + " --apply"))
				err := res.Validation.Error()
				var missing *validation.MissingVariablesError
				if errors.As(err, &missing) {
					missing.CardID = res.Instance.CardID
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "variable value as NAME=VALUE (repeatable)")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a configured server",
		Long: `Remove a configured server from the selected scope.

Variable values in the project env file and the keyring are kept.`,
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := a.scope()
			if err != nil {
				return err
			}
			m, err := a.mgr()
			if err != nil {
				return err
			}
			if err := m.Remove(args[0], scope); err != nil {
				return err
			}
			a.printf("%s %s from %s settings\n", successStyle.Render("removed"), idStyle.Render(args[0]), scope)
			return nil
		},
	}
}

func (a *app) reconfigureCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "reconfigure ID",
		Short: "Update a configured server from the current version of its card",
		Long: `Recompute a configured server from its card and show what would change.
Nothing is written unless --apply is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := a.scope()
			if err != nil {
				return err
			}
			m, err := a.mgr()
			if err != nil {
				return err
			}
			res, err := m.Reconfigure(args[0], scope, apply)
			if err != nil {
				return err
			}

			if len(res.Changes) == 0 {
				a.printf("%s is up to date\n", idStyle.Render(args[0]))
				return nil
			}
			for _, c := range res.Changes {
				a.println("  " + c)
			}
			if res.Applied {
				a.printf("%s %s\n", successStyle.Render("applied"), idStyle.Render(args[0]))
			} else {
				a.println(faintStyle.Render("dry run: rerun with --apply to write these changes"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "write the changes")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "validate ID",
		Short: "Check that every required variable of a card has a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			m, err := a.mgr()
			if err != nil {
				return err
			}
			res, err := m.Validate(args[0], overrides)
			if err != nil {
				return err
			}
			if res.Valid {
				a.printf("%s %s has every required value\n", successStyle.Render("ok"), idStyle.Render(args[0]))
				return nil
			}
			for _, v := range res.Missing {
				line := "  missing " + v.Name
				if v.Description != "" {
					line += faintStyle.Render(": " + v.Description)
				}
				a.println(line)
			}
			return &validation.MissingVariablesError{CardID: args[0], Variables: res.Missing}
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "variable value as NAME=VALUE (repeatable)")
	return cmd
}

func (a *app) recommendCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest cards for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			rec, err := m.Recommend(limit)
			if err != nil {
				return err
			}
			tags := "none"
			if len(rec.Tags) > 0 {
				tags = strings.Join(rec.Tags, ", ")
			}
			a.println(subtitleStyle.Render("project tags: " + tags))
			if len(rec.Items) == 0 {
				a.println(faintStyle.Render("nothing new to recommend"))
				return nil
			}
			for _, sc := range rec.Items {
				a.printf("%-28s %4.1f  %s %s\n", idStyle.Render(sc.Card.ID), sc.Score, sc.Card.Name, faintStyle.Render("("+sc.Reason+")"))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum number of recommendations (0 for all)")
	return cmd
}

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configured servers and the card catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}

			for _, s := range m.Cards().Skipped() {
				a.printf("%s card file %s: %s\n", warnStyle.Render("skipped"), s.Path, s.Reason)
			}
			for _, o := range m.Cards().Overridden() {
				a.printf("%s %s overridden by %s\n", faintStyle.Render("note"), idStyle.Render(o.ID), o.Source)
			}
			if secrets := m.Secrets(); secrets != nil {
				if st := secrets.Status(); st["available"] != true {
					a.printf("%s keyring unavailable: %v\n", warnStyle.Render("warning"), st["error"])
				}
			}

			findings := m.Doctor()
			if len(findings) == 0 {
				a.println(successStyle.Render("no problems found"))
				return nil
			}
			for _, f := range findings {
				a.printf("%s [%s] %s\n", errorStyle.Render(string(f.Kind)), f.Scope, f.String())
			}
			return fmt.Errorf("%w: %d", errFindings, len(findings))
		},
	}
}

// parseAssignments turns NAME=VALUE pairs into a map.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want NAME=VALUE", p)
		}
		out[name] = value
	}
	return out, nil
}
