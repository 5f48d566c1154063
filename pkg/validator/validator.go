package validator

import (
	"fmt"

	"chatwarden/pkg/compiler"
)

// ValidateRule rejects rules that can never do anything useful.
func ValidateRule(rule *compiler.Rule) error {
	if rule.Pattern == nil {
		return fmt.Errorf("rule must have a pattern")
	}
	return nil
}

// Lint reports non-fatal oddities in a loaded rule set: operators that
// match but act on nothing, groups nothing references, and warn sets
// whose lower actions are shadowed.
func Lint(rs *compiler.RuleSet) []string {
	var warnings []string

	referenced := make(map[string]bool)
	for typ, rules := range rs.Rules {
		for _, rule := range rules {
			if rule.GroupName != "" {
				referenced[rule.GroupName] = true
			}
			if !hasEffect(&rule.RuleOperator) && rule.GroupName == "" {
				warnings = append(warnings,
					fmt.Sprintf("%s rule '%s' has no actions and no group", typ, rule.PatternText))
			}
		}
	}

	for name := range rs.Groups {
		if !referenced[name] {
			warnings = append(warnings, fmt.Sprintf("group '%s' is never referenced", name))
		}
	}

	for name, ws := range rs.WarnSets {
		for i := 1; i < len(ws.Actions); i++ {
			if ws.Actions[i].Threshold == ws.Actions[i-1].Threshold {
				warnings = append(warnings,
					fmt.Sprintf("warn set '%s' has duplicate threshold %d", name, ws.Actions[i].Threshold))
			}
		}
	}

	for typ, msgs := range rs.Messages {
		for i, m := range msgs {
			if len(m.Messages) == 0 && !hasOperatorEffect(&m.Operator) {
				warnings = append(warnings,
					fmt.Sprintf("%s message #%d has no message list and no actions", typ, i+1))
			}
		}
	}

	return warnings
}

func hasEffect(ro *compiler.RuleOperator) bool {
	if hasOperatorEffect(&ro.Operator) {
		return true
	}
	return len(ro.Replacements) > 0 || len(ro.Rewrites) > 0 || len(ro.WorldRewrites) > 0
}

func hasOperatorEffect(op *compiler.Operator) bool {
	return len(op.PlayerCommands) > 0 || len(op.ConsoleCommands) > 0 ||
		len(op.BungeeCommands) > 0 || len(op.ConsoleLog) > 0 ||
		len(op.Notify) > 0 || len(op.Channels) > 0 || len(op.Files) > 0 ||
		len(op.Points) > 0 || len(op.Warns) > 0 || len(op.Sounds) > 0 ||
		len(op.SaveData) > 0 ||
		op.Kick != "" || op.Toast != "" || op.Title != "" || op.ActionBar != "" ||
		op.BossBar != "" || op.Book != "" || op.Fine > 0 ||
		op.Abort || op.Deny || op.DenySilently || op.DenyMessage != ""
}
