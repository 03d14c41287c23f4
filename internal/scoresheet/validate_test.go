package scoresheet

import (
	"errors"
	"strings"
	"testing"
)

func validDefinition() TemplateDefinition {
	return TemplateDefinition{
		Fields: []Field{
			{ID: "coins", Name: "Coins", Type: FieldTypeNumber},
			{ID: "bonuses", Name: "Bonuses", Type: FieldTypeNumber},
			{ID: "penalties", Name: "Penalties", Type: FieldTypeNumber},
		},
		Rules: []Rule{
			{ID: "total", Name: "Total", Expression: "coins + bonuses - penalties", TargetFieldID: "total"},
		},
	}
}

func TestValidateDefinitionOK(t *testing.T) {
	if err := ValidateDefinition(validDefinition(), 1, 6); err != nil {
		t.Fatalf("ValidateDefinition returned error: %v", err)
	}
}

func TestValidateDefinitionPlayerBounds(t *testing.T) {
	tcs := []struct {
		name                   string
		minPlayers, maxPlayers int
		want                   string
	}{
		{"zero min", 0, 4, "minPlayers"},
		{"negative min", -1, 4, "minPlayers"},
		{"max below min", 4, 2, "maxPlayers"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDefinition(validDefinition(), tc.minPlayers, tc.maxPlayers)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if !strings.Contains(verr.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", verr.Error(), tc.want)
			}
		})
	}
}

func TestValidateDefinitionCollectsAllViolations(t *testing.T) {
	min, max := 5.0, 2.0
	def := TemplateDefinition{
		Fields: []Field{
			{ID: "a", Name: "A", Type: FieldTypeNumber},
			{ID: "a", Name: "A again", Type: FieldTypeNumber},
			{ID: "b", Name: "B", Type: FieldTypeNumber, SectionID: "missing"},
			{ID: "c", Name: "C", Type: FieldTypeNumber, MinValue: &min, MaxValue: &max},
		},
		Rules: []Rule{
			{ID: "r1", Name: "Bad ref", Expression: "a + nope", TargetFieldID: "t1"},
			{ID: "r2", Name: "Bad syntax", Expression: "a +", TargetFieldID: "t2"},
		},
	}

	err := ValidateDefinition(def, 0, 4)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	// One violation per broken constraint, all reported together.
	wants := []string{
		"minPlayers",
		`duplicate field id "a"`,
		`unknown section "missing"`,
		"exceeds maxValue",
		`unknown field "nope"`,
		"malformed expression",
	}
	if len(verr.Violations) != len(wants) {
		t.Fatalf("got %d violations %v, want %d", len(verr.Violations), verr.Violations, len(wants))
	}
	for _, want := range wants {
		if !strings.Contains(verr.Error(), want) {
			t.Errorf("violations %v missing %q", verr.Violations, want)
		}
	}
}

func TestValidateDefinitionSectionReferences(t *testing.T) {
	def := TemplateDefinition{
		Fields: []Field{
			{ID: "a", Name: "A", Type: FieldTypeNumber, SectionID: "s1"},
		},
		Sections: []Section{{ID: "s1", Name: "Scoring", Order: 1}},
	}
	if err := ValidateDefinition(def, 1, 4); err != nil {
		t.Fatalf("ValidateDefinition returned error: %v", err)
	}
}

func TestValidateDefinitionRuleTargetMayBeSynthetic(t *testing.T) {
	// The target field id does not need to be a declared field; only
	// expression inputs must resolve.
	def := TemplateDefinition{
		Fields: []Field{{ID: "score", Name: "Score", Type: FieldTypeNumber}},
		Rules:  []Rule{{ID: "total", Name: "Total", Expression: "score * 2", TargetFieldID: "grand_total"}},
	}
	if err := ValidateDefinition(def, 1, 4); err != nil {
		t.Fatalf("ValidateDefinition returned error: %v", err)
	}
}
