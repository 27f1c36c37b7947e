package cards

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mcpconf/internal/logging"
	"mcpconf/pkg/fileops"
)

// scanDepth covers the directory itself plus one level of subdirectories.
const scanDepth = 2

// Skipped records a card file that was not loaded and why.
type Skipped struct {
	Path   string
	Reason string
}

// Override records a user card that replaced an earlier card.
type Override struct {
	ID       string
	Previous string // source of the replaced card
	Source   string // source of the replacing card
}

// StoreOptions configures persistence of user cards.
type StoreOptions struct {
	// UserDir is where Put writes cards. Empty disables Put.
	UserDir    string
	BackupKeep int
	Now        func() time.Time
}

// Store is an in-memory, insertion-ordered index of cards.
//
// A Store is built once per invocation and is not safe for concurrent
// mutation.
type Store struct {
	logger     *logging.AppLogger
	opts       StoreOptions
	cards      []Card
	index      map[string]int
	skipped    []Skipped
	overridden []Override
}

// NewStore returns an empty store.
func NewStore(logger *logging.AppLogger, opts StoreOptions) *Store {
	if opts.BackupKeep <= 0 {
		opts.BackupKeep = fileops.DefaultBackupKeep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		logger: logger,
		opts:   opts,
		index:  make(map[string]int),
	}
}

// Load builds a store from the built-in catalog and the user directory.
// Either directory may be missing.
func Load(builtinDir, userDir string, logger *logging.AppLogger, opts StoreOptions) (*Store, error) {
	if opts.UserDir == "" {
		opts.UserDir = userDir
	}
	s := NewStore(logger, opts)
	if err := s.LoadAll(builtinDir); err != nil {
		return nil, err
	}
	if userDir != "" {
		if err := s.LoadUserOverrides(userDir); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadAll scans dir and adds every valid card whose id is not yet present.
//
// Unparsable or invalid files are skipped and reported through Skipped. A
// card whose id was already loaded is skipped too; the first one wins. A
// missing directory adds nothing and is not an error.
func (s *Store) LoadAll(dir string) error {
	parsed, err := s.scan(dir)
	if err != nil {
		return err
	}
	for _, card := range parsed {
		if i, exists := s.index[card.ID]; exists {
			s.skip(card.Source, fmt.Sprintf("duplicate id %q, already loaded from %s", card.ID, s.cards[i].Source))
			continue
		}
		s.add(card)
	}
	return nil
}

// LoadUserOverrides scans dir like LoadAll, but a card whose id is already
// present replaces the existing record in place. Each replacement is logged
// and listed by Overridden. Two user cards with the same id are a duplicate;
// the first one wins.
func (s *Store) LoadUserOverrides(dir string) error {
	parsed, err := s.scan(dir)
	if err != nil {
		return err
	}

	fromUser := make(map[string]string)
	for _, card := range parsed {
		if prev, dup := fromUser[card.ID]; dup {
			s.skip(card.Source, fmt.Sprintf("duplicate id %q, already loaded from %s", card.ID, prev))
			continue
		}
		fromUser[card.ID] = card.Source

		if i, exists := s.index[card.ID]; exists {
			previous := s.cards[i].Source
			s.cards[i] = card
			s.overridden = append(s.overridden, Override{ID: card.ID, Previous: previous, Source: card.Source})
			s.logger.Warn("User card overrides built-in card", "id", card.ID, "source", card.Source, "previous", previous)
			continue
		}
		s.add(card)
	}
	return nil
}

func (s *Store) scan(dir string) ([]Card, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	dir = fileops.ExpandPath(dir)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("Card directory does not exist", "dir", dir)
		return nil, nil
	}

	start := time.Now()
	files, err := fileops.ScanWithFilter(dir, IsCardFile, scanDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to scan card directory %s: %w", dir, err)
	}

	cards := make([]Card, 0, len(files))
	for _, f := range files {
		card, err := ParseFile(f.AbsPath)
		if err != nil {
			s.skip(f.AbsPath, err.Error())
			continue
		}
		cards = append(cards, card)
	}

	s.logger.LogPerformance("scan cards "+dir, start)
	s.logger.Debug("Scanned card directory", "dir", dir, "files", len(files), "valid", len(cards))
	return cards, nil
}

func (s *Store) add(card Card) {
	s.index[card.ID] = len(s.cards)
	s.cards = append(s.cards, card)
}

func (s *Store) skip(path, reason string) {
	s.skipped = append(s.skipped, Skipped{Path: path, Reason: reason})
	s.logger.Warn("Skipping card", "path", path, "reason", reason)
}

// Get returns the card with id.
func (s *Store) Get(id string) (Card, bool) {
	i, ok := s.index[id]
	if !ok {
		return Card{}, false
	}
	return s.cards[i], true
}

// All returns every card in store order.
func (s *Store) All() []Card {
	out := make([]Card, len(s.cards))
	copy(out, s.cards)
	return out
}

// Len returns the number of cards.
func (s *Store) Len() int {
	return len(s.cards)
}

// IDs returns the ids of all cards in store order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.cards))
	for i, c := range s.cards {
		ids[i] = c.ID
	}
	return ids
}

// Search returns the cards whose name, id or description contains keyword,
// ignoring case, in store order. An empty keyword matches every card.
func (s *Store) Search(keyword string) []Card {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	var out []Card
	for _, c := range s.cards {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.ID), needle) ||
			strings.Contains(strings.ToLower(c.Description), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Skipped returns the files that failed to load, in scan order.
func (s *Store) Skipped() []Skipped {
	return append([]Skipped(nil), s.skipped...)
}

// Overridden returns the cards replaced by user cards.
func (s *Store) Overridden() []Override {
	return append([]Override(nil), s.overridden...)
}

// Put validates card, persists it as <id>.json in the user directory and
// replaces (or appends) the in-memory record.
//
// The previous file, if any, is backed up first; old backups beyond the
// configured count are pruned. Backup failures are logged and do not block
// the write.
func (s *Store) Put(card Card) (Card, error) {
	if s.opts.UserDir == "" {
		return Card{}, fmt.Errorf("no user card directory configured")
	}
	if err := Validate(card); err != nil {
		return Card{}, err
	}

	dir := fileops.ExpandPath(s.opts.UserDir)
	path := filepath.Join(dir, card.ID+".json")
	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return Card{}, fmt.Errorf("failed to encode card %s: %w", card.ID, err)
	}

	res, err := fileops.WriteWithBackup(path, append(data, '\n'), 0644, filepath.Join(dir, "backups"), s.opts.BackupKeep, s.opts.Now())
	if res.BackupErr != nil {
		s.logger.Warn("Card backup failed", "path", path, "error", res.BackupErr)
	}
	if res.PruneErr != nil {
		s.logger.Warn("Card backup pruning failed", "path", path, "error", res.PruneErr)
	}
	if err != nil {
		return Card{}, fmt.Errorf("failed to write card %s: %w", card.ID, err)
	}

	card.Source = path
	if i, exists := s.index[card.ID]; exists {
		s.cards[i] = card
	} else {
		s.add(card)
	}
	s.logger.Info("Saved card", "id", card.ID, "path", path)
	return card, nil
}
