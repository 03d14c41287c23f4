package scoresheet

import (
	"fmt"
	"strings"
)

// ValidationError reports every constraint a definition violates.
// Template writes are rejected whole on any violation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid template definition: %s", strings.Join(e.Violations, "; "))
}

// ValidateDefinition checks the structural and business constraints on a
// definition and the owning template's player bounds. All checks run;
// nothing short-circuits on the first failure. Returns nil when the
// definition is valid, otherwise a *ValidationError listing every
// violation. Scoring never calls this: sessions trust their snapshot.
func ValidateDefinition(def TemplateDefinition, minPlayers, maxPlayers int) error {
	var violations []string

	if minPlayers < 1 {
		violations = append(violations, fmt.Sprintf("minPlayers must be at least 1, got %d", minPlayers))
	}
	if maxPlayers < minPlayers {
		violations = append(violations, fmt.Sprintf("maxPlayers (%d) must be at least minPlayers (%d)", maxPlayers, minPlayers))
	}

	sections := make(map[string]bool, len(def.Sections))
	for _, s := range def.Sections {
		if sections[s.ID] {
			violations = append(violations, fmt.Sprintf("duplicate section id %q", s.ID))
		}
		sections[s.ID] = true
	}

	fields := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if fields[f.ID] {
			violations = append(violations, fmt.Sprintf("duplicate field id %q", f.ID))
		}
		fields[f.ID] = true

		if f.SectionID != "" && !sections[f.SectionID] {
			violations = append(violations, fmt.Sprintf("field %q references unknown section %q", f.ID, f.SectionID))
		}
		if f.MinValue != nil && f.MaxValue != nil && *f.MinValue > *f.MaxValue {
			violations = append(violations, fmt.Sprintf("field %q: minValue (%v) exceeds maxValue (%v)", f.ID, *f.MinValue, *f.MaxValue))
		}
	}

	rules := make(map[string]bool, len(def.Rules))
	for _, r := range def.Rules {
		if rules[r.ID] {
			violations = append(violations, fmt.Sprintf("duplicate rule id %q", r.ID))
		}
		rules[r.ID] = true

		expr, err := ParseExpression(r.Expression)
		if err != nil {
			violations = append(violations, fmt.Sprintf("rule %q: malformed expression: %v", r.ID, err))
			continue
		}
		for _, id := range expr.Identifiers() {
			if !fields[id] {
				violations = append(violations, fmt.Sprintf("rule %q references unknown field %q", r.ID, id))
			}
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
