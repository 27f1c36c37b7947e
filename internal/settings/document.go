// Package settings reads and writes the assistant's MCP server settings and
// the per-project variable file.
//
// Both files are written backup-then-replace: the current file is copied to
// a timestamped backup, the new content is written through a temporary file
// and renamed into place, and old backups beyond the configured count are
// pruned. A failed backup is logged and never blocks the write.
package settings

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	// serversKey is the top-level key holding configured servers.
	serversKey = "mcpServers"
	// legacyServersKey is accepted on read when serversKey is absent.
	legacyServersKey = "instances"
)

// Metadata records where an entry came from.
type Metadata struct {
	Source    string `json:"source,omitempty"`
	CardID    string `json:"cardId,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ServerEntry is one configured server as the assistant reads it. Stdio
// servers use Command/Args/Env; http servers use URL/Headers.
type ServerEntry struct {
	Type     string            `json:"type,omitempty"`
	Command  string            `json:"command,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	URL      string            `json:"url,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Metadata *Metadata         `json:"metadata,omitempty"`
}

// CardID returns the card this entry was materialized from, if recorded.
func (e ServerEntry) CardID() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata.CardID
}

// Document is a settings file. Top-level keys other than the server map
// belong to the assistant and are carried through unchanged.
type Document struct {
	Instances map[string]ServerEntry

	extra map[string]json.RawMessage
}

// NewDocument returns the empty default document.
func NewDocument() *Document {
	return &Document{Instances: make(map[string]ServerEntry)}
}

// IDs returns the configured instance ids, sorted.
func (d *Document) IDs() []string {
	ids := make([]string, 0, len(d.Instances))
	for id := range d.Instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the entry for id.
func (d *Document) Get(id string) (ServerEntry, bool) {
	e, ok := d.Instances[id]
	return e, ok
}

// Set adds or replaces the entry for id.
func (d *Document) Set(id string, e ServerEntry) {
	if d.Instances == nil {
		d.Instances = make(map[string]ServerEntry)
	}
	d.Instances[id] = e
}

// Delete removes id and reports whether it was present.
func (d *Document) Delete(id string) bool {
	if _, ok := d.Instances[id]; !ok {
		return false
	}
	delete(d.Instances, id)
	return true
}

// ExtraKeys returns the preserved top-level keys, sorted.
func (d *Document) ExtraKeys() []string {
	keys := make([]string, 0, len(d.extra))
	for k := range d.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON accepts the mcpServers shape and the legacy instances shape.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("settings document must be a JSON object")
	}

	servers, ok := raw[serversKey]
	key := serversKey
	if !ok {
		servers, ok = raw[legacyServersKey]
		key = legacyServersKey
	}

	instances := make(map[string]ServerEntry)
	if ok && string(servers) != "null" {
		if err := json.Unmarshal(servers, &instances); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if ok {
		delete(raw, key)
	}

	d.Instances = instances
	d.extra = raw
	return nil
}

// MarshalJSON always writes the mcpServers shape.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.extra)+1)
	for k, v := range d.extra {
		out[k] = v
	}
	instances := d.Instances
	if instances == nil {
		instances = map[string]ServerEntry{}
	}
	out[serversKey] = instances
	return json.Marshal(out)
}
