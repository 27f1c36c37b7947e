package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"mcpconf/internal/cards"
	"mcpconf/internal/recommend"

	"github.com/spf13/cobra"
)

func (a *app) cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Browse and manage the card catalog",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List every card, highest score first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			return a.printCards(m.Cards().All(), asJSON)
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print cards as JSON")

	search := &cobra.Command{
		Use:   "search KEYWORD",
		Short: "Search cards by id, name and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			found := m.Cards().Search(args[0])
			if len(found) == 0 {
				a.println(faintStyle.Render("No cards match " + args[0]))
				return nil
			}
			return a.printCards(found, false)
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			card, err := m.Card(args[0])
			if err != nil {
				return err
			}
			a.printCard(card)
			return nil
		},
	}

	var force bool
	importCmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import card files or MCP registry server.json files into the user catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			imported, results := m.ImportCards(args, force)
			for _, c := range imported {
				a.printf("%s %s %s\n", successStyle.Render("imported"), idStyle.Render(c.ID), faintStyle.Render(c.Source))
			}
			failed := 0
			for _, path := range args {
				if err := results[path]; err != nil {
					failed++
					a.printf("%s %s: %v\n", errorStyle.Render("failed"), path, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files not imported", failed, len(args))
			}
			return nil
		},
	}
	importCmd.Flags().BoolVarP(&force, "force", "f", false, "replace cards that already exist")

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit the user copy of a card in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.mgr()
			if err != nil {
				return err
			}
			card, err := m.EditCard(args[0])
			if err != nil {
				return err
			}
			a.printf("%s %s\n", successStyle.Render("saved"), card.Source)
			return nil
		},
	}

	cmd.AddCommand(list, search, show, importCmd, edit)
	return cmd
}

func (a *app) printCards(all []cards.Card, asJSON bool) error {
	ranked := recommend.Rank(all, nil)
	if asJSON {
		out := make([]cards.Card, len(ranked))
		for i, sc := range ranked {
			out[i] = sc.Card
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		a.println(string(data))
		return nil
	}

	for _, sc := range ranked {
		line := fmt.Sprintf("%-28s %4.1f  %-15s %s", idStyle.Render(sc.Card.ID), sc.Score, sc.Card.Kind, sc.Card.Name)
		if sc.Card.Deprecated() {
			line += " " + warnStyle.Render("(deprecated)")
		}
		a.println(line)
	}
	return nil
}

func (a *app) printCard(c cards.Card) {
	a.println(titleStyle.Render(c.Name) + " " + idStyle.Render("("+c.ID+")"))
	if c.Description != "" {
		a.println(wrap(c.Description, 2))
	}
	a.println()

	a.printf("  kind:     %s\n", c.Kind)
	a.printf("  score:    %.1f\n", recommend.Score(c))
	if c.Deprecated() {
		a.printf("  status:   %s\n", warnStyle.Render("deprecated"))
	}
	if c.Category != "" {
		a.printf("  category: %s\n", c.Category)
	}
	if len(c.Tags) > 0 {
		tags := append([]string(nil), c.Tags...)
		sort.Strings(tags)
		a.printf("  tags:     %s\n", strings.Join(tags, ", "))
	}
	a.printf("  source:   %s\n", faintStyle.Render(c.Source))

	if len(c.Variables) == 0 {
		return
	}
	a.println()
	a.println(subtitleStyle.Render("Variables"))
	for _, v := range c.Variables {
		var flags []string
		if v.IsRequired() {
			flags = append(flags, "required")
		}
		if v.Secret {
			flags = append(flags, "secret")
		}
		line := "  " + v.Name
		if len(flags) > 0 {
			line += " " + faintStyle.Render("["+strings.Join(flags, ", ")+"]")
		}
		a.println(line)
		if v.Description != "" {
			a.println(wrap(v.Description, 4))
		}
		if v.Example != "" {
			a.println(faintStyle.Render("    e.g. " + v.Example))
		}
	}
}
