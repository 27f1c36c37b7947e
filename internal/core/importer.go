package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"mcpconf/internal/cards"
)

// readImport parses path as a card file, falling back to an MCP registry
// server.json for JSON files that are not cards.
func readImport(path string) (cards.Card, error) {
	card, err := cards.ParseFile(path)
	if err == nil {
		return card, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return cards.Card{}, err
	}

	srv, regErr := cards.ReadRegistryServer(path)
	if regErr != nil {
		return cards.Card{}, err
	}
	card, regErr = cards.FromRegistryServer(srv)
	if regErr != nil {
		return cards.Card{}, fmt.Errorf("not a card (%v) nor a registry server (%w)", err, regErr)
	}
	return card, nil
}

// ImportCards copies the given card or server.json files into the user card
// directory. An id already in the catalog is only replaced when force is
// set. Returns the imported cards in argument order and a map of path to
// error (nil if successful).
func (m *Manager) ImportCards(paths []string, force bool) ([]cards.Card, map[string]error) {
	results := make(map[string]error)
	var imported []cards.Card

	for _, path := range paths {
		card, err := readImport(path)
		if err != nil {
			results[path] = err
			continue
		}

		if existing, ok := m.cards.Get(card.ID); ok && !force {
			results[path] = fmt.Errorf("card %s already exists (from %s)", card.ID, existing.Source)
			continue
		}

		saved, err := m.cards.Put(card)
		if err != nil {
			results[path] = err
			continue
		}
		imported = append(imported, saved)
		results[path] = nil
	}
	return imported, results
}
