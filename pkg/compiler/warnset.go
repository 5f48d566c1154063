// chatwarden/pkg/compiler/warnset.go

package compiler

import "sort"

// WarnAction is one sanction step of a warning set: a points threshold
// and the command lines executed once a player's total reaches it.
type WarnAction struct {
	Threshold int
	Commands  []string
}

// WarnSet is a named, threshold-ordered list of sanction actions.
// Actions are kept sorted descending by threshold so the first action
// whose threshold is at or below the player's total is the one fired.
type WarnSet struct {
	Name    string
	Actions []WarnAction
	Decay   int // per-run decay amount, 0 disables decay for this set
}

func (s *WarnSet) sortActions() {
	sort.Slice(s.Actions, func(i, j int) bool {
		return s.Actions[i].Threshold > s.Actions[j].Threshold
	})
}

// ActionFor returns the highest-threshold action whose threshold is at
// or below total, or nil if none qualifies.
func (s *WarnSet) ActionFor(total int) *WarnAction {
	for i := range s.Actions {
		if s.Actions[i].Threshold <= total {
			return &s.Actions[i]
		}
	}
	return nil
}
