package core

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mcpconf/internal/cards"
	"mcpconf/pkg/fileops"
)

// EditFile launches the user's preferred editor for the given file.
// Uses $VISUAL, then $EDITOR, or falls back to nano/vi.
func EditFile(path string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		for _, candidate := range []string{"nano", "vi"} {
			if _, err := exec.LookPath(candidate); err == nil {
				editor = candidate
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found: set $EDITOR")
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// EditCard opens the user copy of card id in the editor, creating it from
// the catalog version first when the card is not a user card yet. The
// edited file is parsed again so schema errors surface immediately; the
// change takes effect on the next invocation.
func (m *Manager) EditCard(id string) (cards.Card, error) {
	card, err := m.Card(id)
	if err != nil {
		return cards.Card{}, err
	}

	if !isUnder(fileops.ExpandPath(m.cfg.UserCardsDir), card.Source) {
		if card, err = m.cards.Put(card); err != nil {
			return cards.Card{}, err
		}
	}

	if err := EditFile(card.Source); err != nil {
		return cards.Card{}, fmt.Errorf("editor failed: %w", err)
	}

	return cards.ParseFile(card.Source)
}

func isUnder(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
