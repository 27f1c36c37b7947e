package core

import (
	"fmt"

	"mcpconf/internal/merge"
	"mcpconf/internal/recommend"
	"mcpconf/internal/validation"
)

// AddResult is the outcome of Add. A result with missing variables still
// describes a written instance.
type AddResult struct {
	Instance   merge.Instance
	Validation validation.Result
	Replaced   bool
}

// Add materializes cardID with the resolved variable values and writes it
// into the settings document of scope under the card id. Missing required
// variables are reported in the result; the partial instance is written
// anyway.
func (m *Manager) Add(cardID string, scope merge.Scope, overrides map[string]string) (*AddResult, error) {
	card, err := m.Card(cardID)
	if err != nil {
		return nil, err
	}
	if card.Deprecated() {
		m.logger.Warn("Adding deprecated card", "card", card.ID)
	}

	provided := Values(m.Resolve(card, overrides))
	inst := merge.Materialize(card, provided)
	inst.Scope = scope

	store := m.Settings(scope)
	doc := store.ReadOrDefault()
	_, replaced := doc.Get(inst.ID)
	doc.Set(inst.ID, inst.Entry(m.now()))
	if err := store.Write(doc); err != nil {
		return nil, err
	}

	res := validation.Validate(card, provided)
	m.logger.Info("Added server", "id", inst.ID, "scope", scope, "replaced", replaced, "missing", len(res.Missing))
	return &AddResult{Instance: inst, Validation: res, Replaced: replaced}, nil
}

// Remove deletes an instance from the settings document of scope. The
// project env file is never touched: values stay available for a later
// Add.
func (m *Manager) Remove(instanceID string, scope merge.Scope) error {
	store := m.Settings(scope)
	doc := store.ReadOrDefault()
	if !doc.Delete(instanceID) {
		return fmt.Errorf("%w: %s (%s scope)", ErrInstanceNotFound, instanceID, scope)
	}
	if err := store.Write(doc); err != nil {
		return err
	}
	m.logger.Info("Removed server", "id", instanceID, "scope", scope)
	return nil
}

// ReconfigureResult is the outcome of Reconfigure.
type ReconfigureResult struct {
	Instance merge.Instance
	Changes  []string
	Applied  bool
}

// Reconfigure recomputes an instance from the current version of its card.
// Values already in the instance are kept; the configured variable sources
// take precedence over them. The settings document is only rewritten when
// apply is set and something changed.
func (m *Manager) Reconfigure(instanceID string, scope merge.Scope, apply bool) (*ReconfigureResult, error) {
	store := m.Settings(scope)
	doc := store.ReadOrDefault()
	entry, ok := doc.Get(instanceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s scope)", ErrInstanceNotFound, instanceID, scope)
	}

	cardID := entry.CardID()
	if cardID == "" {
		cardID = instanceID
	}
	card, err := m.Card(cardID)
	if err != nil {
		return nil, err
	}

	existing := merge.FromEntry(instanceID, scope, entry)
	provided := merge.RecoverProvided(existing, card)
	for k, v := range Values(m.Resolve(card, nil)) {
		provided[k] = v
	}
	existing.Provided = provided

	next, changes := merge.Reconcile(existing, card)
	res := &ReconfigureResult{Instance: next, Changes: changes}
	if !apply || len(changes) == 0 {
		return res, nil
	}

	doc.Set(instanceID, next.Entry(m.now()))
	if err := store.Write(doc); err != nil {
		return nil, err
	}
	res.Applied = true
	m.logger.Info("Reconfigured server", "id", instanceID, "scope", scope, "changes", len(changes))
	return res, nil
}

// Validate checks the resolved values of cardID against its declared
// variables.
func (m *Manager) Validate(cardID string, overrides map[string]string) (validation.Result, error) {
	card, err := m.Card(cardID)
	if err != nil {
		return validation.Result{}, err
	}
	return validation.Validate(card, Values(m.Resolve(card, overrides))), nil
}

// Recommendation lists the cards suggested for the project.
type Recommendation struct {
	Tags  []string
	Items []recommend.Scored
}

// Recommend detects the project tags and ranks the matching cards plus the
// baseline, leaving out cards already configured in either scope. A limit
// of zero or less means no limit.
func (m *Manager) Recommend(limit int) (*Recommendation, error) {
	tags, err := recommend.DetectTags(m.projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect project: %w", err)
	}

	items := recommend.RecommendForProject(tags, m.cards.All(), m.cfg.BaselineCards)
	items = recommend.Exclude(items, m.ConfiguredIDs())
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	m.logger.Debug("Recommended cards", "tags", tags, "count", len(items))
	return &Recommendation{Tags: tags, Items: items}, nil
}

// Finding is a problem in one scope's settings document.
type Finding struct {
	Scope merge.Scope
	validation.Violation
}

// Doctor checks both settings documents: instances that reference unknown
// or deprecated cards, and instances with unresolved placeholders.
func (m *Manager) Doctor() []Finding {
	var out []Finding
	for _, scope := range []merge.Scope{merge.ScopeGlobal, merge.ScopeProject} {
		doc := m.Settings(scope).ReadOrDefault()
		for _, v := range validation.CheckInstances(doc, m.cards) {
			out = append(out, Finding{Scope: scope, Violation: v})
		}
		for _, id := range doc.IDs() {
			inst := merge.FromEntry(id, scope, doc.Instances[id])
			if missing := inst.Unresolved(); len(missing) > 0 {
				out = append(out, Finding{Scope: scope, Violation: validation.Violation{
					InstanceID: id,
					CardID:     inst.CardID,
					Kind:       validation.UnresolvedVariables,
					Message:    fmt.Sprintf("unresolved variables: %v", missing),
				}})
			}
		}
	}
	return out
}
