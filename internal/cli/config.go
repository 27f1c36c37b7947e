package cli

import (
	"errors"
	"fmt"
	"os"

	"mcpconf/internal/config"

	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the mcpconf configuration",
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.println(config.ConfigPath())
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			a.printf("%s", data)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Long: `Write the effective configuration (file, .env and MCPCONF_* overrides
and the --assistant/--settings flags applied) to the config file so it can
be edited by hand. An existing file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := config.ConfigPath()
			if _, err := os.Stat(dest); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", dest)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("cannot access %s: %w", dest, err)
			}
			if err := a.cfg.SaveTo(dest); err != nil {
				return err
			}
			a.printf("%s %s\n", successStyle.Render("wrote"), dest)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	cmd.AddCommand(path, show, initCmd)
	return cmd
}
