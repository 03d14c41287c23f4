package scoresheet

import "sort"

// EvalFailure records one recovered evaluation error: the named
// player's contribution from the named rule was scored as 0.
type EvalFailure struct {
	PlayerID string
	RuleID   string
	Err      error
}

// ComputeTotals applies every rule in declaration order to every player
// present in values and returns the totals map (player id → number)
// plus the list of recovered evaluation failures.
//
// Each rule writes its result under the rule's targetFieldId; when
// several rules target the same field, the last rule in declaration
// order wins. A player's total is the sum of those derived values. A
// failing (player, rule) pair contributes 0 and never aborts the rest
// of the computation. The function is pure: same inputs, same totals.
func ComputeTotals(def TemplateDefinition, values FieldValues) (map[string]float64, []EvalFailure) {
	totals := make(map[string]float64, len(values))
	derived := make(map[string]map[string]float64, len(values))

	players := make([]string, 0, len(values))
	for playerID := range values {
		players = append(players, playerID)
		totals[playerID] = 0
		derived[playerID] = make(map[string]float64)
	}
	sort.Strings(players)

	var failures []EvalFailure
	for _, rule := range def.Rules {
		expr, parseErr := ParseExpression(rule.Expression)
		for _, playerID := range players {
			if parseErr != nil {
				derived[playerID][rule.TargetFieldID] = 0
				failures = append(failures, EvalFailure{PlayerID: playerID, RuleID: rule.ID, Err: parseErr})
				continue
			}
			result, err := expr.Eval(values[playerID])
			if err != nil {
				derived[playerID][rule.TargetFieldID] = 0
				failures = append(failures, EvalFailure{PlayerID: playerID, RuleID: rule.ID, Err: err})
				continue
			}
			derived[playerID][rule.TargetFieldID] = result
		}
	}

	for _, playerID := range players {
		sum := 0.0
		for _, v := range derived[playerID] {
			sum += v
		}
		totals[playerID] = sum
	}
	return totals, failures
}
