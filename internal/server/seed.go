package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jazzcat007/boardgametracker/internal/scoresheet"
)

const (
	demoEmail    = "demo@boardgametracker.local"
	demoPassword = "demo1234"
)

// SeedDemo creates the demo user and a few starter templates if no
// users exist yet. Idempotent: does nothing on a populated database.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store) error {
	n, err := store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	user := User{
		ID:           newID(),
		Email:        demoEmail,
		Name:         "Demo",
		PasswordHash: string(hash),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}

	now := time.Now().UTC()
	for _, tpl := range demoTemplates(user.ID, now) {
		def, err := scoresheet.ParseDefinition([]byte(tpl.DefinitionJSON))
		if err != nil {
			return fmt.Errorf("parsing demo template %q: %w", tpl.Name, err)
		}
		tpl.Definition = def
		if err := store.CreateTemplate(ctx, tpl); err != nil {
			return fmt.Errorf("creating demo template %q: %w", tpl.Name, err)
		}
	}

	logger.Info("seeded demo data", "email", demoEmail)
	return nil
}

func demoTemplates(userID string, now time.Time) []scoresheet.Template {
	base := scoresheet.Template{
		MinPlayers: 1,
		MaxPlayers: 10,
		Version:    "1.0",
		IsPublic:   true,
		CreatedBy:  userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	highScore := base
	highScore.ID = newID()
	highScore.Name = "High Score"
	highScore.Description = "Single score field, highest wins"
	highScore.Mode = scoresheet.ModeCategories
	highScore.DefinitionJSON = `{
		"fields": [
			{"id": "score", "name": "Score", "type": "number", "defaultValue": 0, "minValue": 0}
		],
		"rules": [
			{"id": "total", "name": "Total Score", "expression": "score", "targetFieldId": "score"}
		]
	}`

	rounds := base
	rounds.ID = newID()
	rounds.Name = "Five Rounds"
	rounds.Description = "Per-round scores summed into a total"
	rounds.Mode = scoresheet.ModeRounds
	rounds.DefinitionJSON = `{
		"fields": [
			{"id": "round_1", "name": "Round 1", "type": "number", "defaultValue": 0, "minValue": 0},
			{"id": "round_2", "name": "Round 2", "type": "number", "defaultValue": 0, "minValue": 0},
			{"id": "round_3", "name": "Round 3", "type": "number", "defaultValue": 0, "minValue": 0},
			{"id": "round_4", "name": "Round 4", "type": "number", "defaultValue": 0, "minValue": 0},
			{"id": "round_5", "name": "Round 5", "type": "number", "defaultValue": 0, "minValue": 0}
		],
		"rules": [
			{"id": "total", "name": "Total", "expression": "round_1 + round_2 + round_3 + round_4 + round_5", "targetFieldId": "total"}
		]
	}`

	categories := base
	categories.ID = newID()
	categories.Name = "Categories"
	categories.Description = "Coins plus bonuses minus penalties"
	categories.Mode = scoresheet.ModeCategories
	categories.DefinitionJSON = `{
		"fields": [
			{"id": "coins", "name": "Coins", "type": "number", "defaultValue": 0, "minValue": 0},
			{"id": "bonuses", "name": "Bonuses", "type": "number", "defaultValue": 0, "minValue": 0},
			{"id": "penalties", "name": "Penalties", "type": "number", "defaultValue": 0, "minValue": 0}
		],
		"rules": [
			{"id": "total", "name": "Total", "expression": "coins + bonuses - penalties", "targetFieldId": "total"}
		]
	}`

	return []scoresheet.Template{highScore, rounds, categories}
}
