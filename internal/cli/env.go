package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

const masked = "********"

func (a *app) envCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage project variable values",
	}

	var show bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the variables stored in the project env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			vars := m.ListEnv()
			if len(vars) == 0 {
				a.println(faintStyle.Render("no variables in " + m.EnvFile().Path()))
				return nil
			}
			for _, v := range vars {
				value := masked
				if show || v.Value == "" {
					value = v.Value
				}
				a.printf("%s=%s\n", idStyle.Render(v.Name), value)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&show, "show", false, "print values instead of masking them")

	var secret bool
	set := &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Store a variable value for the project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			source, err := m.SetEnv(args[0], args[1], secret)
			if err != nil {
				return err
			}
			a.printf("%s %s in %s\n", successStyle.Render("stored"), idStyle.Render(args[0]), source)
			return nil
		},
	}
	set.Flags().BoolVar(&secret, "secret", false, "store the value in the system keyring when it is enabled")

	unset := &cobra.Command{
		Use:   "unset NAME...",
		Short: "Remove stored variable values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			var removed []string
			for _, name := range args {
				changed, err := m.UnsetEnv(name)
				if err != nil {
					return err
				}
				if changed {
					removed = append(removed, name)
				}
			}
			if len(removed) == 0 {
				a.println(faintStyle.Render("nothing to remove from " + m.EnvFile().Path()))
				return nil
			}
			a.printf("%s %s\n", successStyle.Render("removed"), strings.Join(removed, ", "))
			return nil
		},
	}

	cmd.AddCommand(list, set, unset)
	return cmd
}
