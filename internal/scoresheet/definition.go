// Package scoresheet implements the score sheet engine: template
// definitions (fields, sections, derived-value rules), definition
// validation, rule expression evaluation, per-player totals, and the
// session snapshot state machine. It has zero external dependencies —
// everything here is pure Go.
package scoresheet

import (
	"encoding/json"
	"fmt"
	"time"
)

// FieldType is the declared type of a scoring field.
type FieldType string

const (
	FieldTypeNumber  FieldType = "number"
	FieldTypeText    FieldType = "text"
	FieldTypeBoolean FieldType = "boolean"
)

// UnmarshalJSON accepts "checkbox" as an alias for "boolean". Older
// template definitions authored against the web client use it.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "checkbox" {
		s = string(FieldTypeBoolean)
	}
	*t = FieldType(s)
	return nil
}

// Field is one user-entered scoring input, recorded per player.
type Field struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	DefaultValue *Value    `json:"defaultValue,omitempty"`
	MinValue     *float64  `json:"minValue,omitempty"`
	MaxValue     *float64  `json:"maxValue,omitempty"`
	Required     bool      `json:"isRequired,omitempty"`
	SectionID    string    `json:"sectionId,omitempty"`
}

// Section groups fields for display. It never affects evaluation.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Rule derives a per-player value from an arithmetic expression over
// field ids and writes it to TargetFieldID.
type Rule struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Expression    string `json:"expression"`
	TargetFieldID string `json:"targetFieldId"`
}

// TemplateDefinition is the parsed form of a template's JSON definition.
type TemplateDefinition struct {
	Fields   []Field   `json:"fields"`
	Sections []Section `json:"sections,omitempty"`
	Rules    []Rule    `json:"rules,omitempty"`
}

// ParseDefinition decodes a template definition from its wire format.
func ParseDefinition(data []byte) (TemplateDefinition, error) {
	var def TemplateDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return TemplateDefinition{}, fmt.Errorf("parsing definition: %w", err)
	}
	return def, nil
}

// field returns the declared field with the given id, if any.
func (d TemplateDefinition) field(id string) (Field, bool) {
	for _, f := range d.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Mode tags how a template is meant to be played. Informational only;
// it does not change evaluation semantics.
type Mode string

const (
	ModeRounds     Mode = "rounds"
	ModeCategories Mode = "categories"
	ModeHybrid     Mode = "hybrid"
)

// Template is a reusable score sheet definition.
type Template struct {
	ID             string
	Name           string
	Description    string
	Mode           Mode
	MinPlayers     int
	MaxPlayers     int
	Version        string
	Definition     TemplateDefinition
	DefinitionJSON string
	GameID         string
	IsPublic       bool
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
