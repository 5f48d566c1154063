// chatwarden/pkg/compiler/ruleset.go

package compiler

import (
	"os"
	"path/filepath"

	"chatwarden/pkg/logging"
)

// RuleSet is one loaded operator table. It is immutable after Link (bar
// the per-operator runtime fields); a reload builds a fresh RuleSet and
// swaps it in wholesale.
type RuleSet struct {
	Rules    map[EventType][]*Rule
	Imports  map[EventType][]EventType
	Groups   map[string]*Group
	Messages map[MessageType][]*PlayerMessage
	WarnSets map[string]*WarnSet
}

func NewRuleSet() *RuleSet {
	return &RuleSet{
		Rules:    make(map[EventType][]*Rule),
		Imports:  make(map[EventType][]EventType),
		Groups:   make(map[string]*Group),
		Messages: make(map[MessageType][]*PlayerMessage),
		WarnSets: make(map[string]*WarnSet),
	}
}

// Link resolves group references on every rule. A reference to a group
// that was never defined is a load-time error.
func (rs *RuleSet) Link() error {
	for typ, rules := range rs.Rules {
		for _, rule := range rules {
			if rule.GroupName == "" {
				continue
			}
			group, ok := rs.Groups[rule.GroupName]
			if !ok {
				return logging.NewError(logging.ErrorTypeParse,
					"rule references unknown group '"+rule.GroupName+"'", nil,
					map[string]interface{}{"type": typ, "rule": rule.PatternText})
			}
			rule.Group = group
		}
	}
	return nil
}

// Effective returns the evaluation order for one event type: global
// rules first (each may still opt out via ignore type), then imported
// lists in declared order, then the type's own rules.
func (rs *RuleSet) Effective(typ EventType) []*Rule {
	var out []*Rule
	if typ != EventGlobal {
		out = append(out, rs.Rules[EventGlobal]...)
	}
	for _, imp := range rs.Imports[typ] {
		if imp == EventGlobal && typ != EventGlobal {
			continue // already prefixed
		}
		out = append(out, rs.Rules[imp]...)
	}
	return append(out, rs.Rules[typ]...)
}

// LoadDirectory loads a full rule set from disk:
//
//	<dir>/rules/<type>.txt     one file per event type
//	<dir>/groups.txt           shared groups
//	<dir>/messages/<kind>.txt  one file per broadcast kind
//	<dir>/warnsets.txt         warning point sets
//
// Missing files are simply skipped; parse errors are fatal.
func LoadDirectory(dir string) (*RuleSet, error) {
	rs := NewRuleSet()

	for _, typ := range EventTypes {
		path := filepath.Join(dir, "rules", string(typ)+".txt")
		src, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}
		rules, imports, err := ParseRules(typ, path, string(src))
		if err != nil {
			return nil, err
		}
		rs.Rules[typ] = rules
		rs.Imports[typ] = imports
	}

	groupsPath := filepath.Join(dir, "groups.txt")
	if src, err := os.ReadFile(groupsPath); err == nil {
		groups, err := ParseGroups(groupsPath, string(src))
		if err != nil {
			return nil, err
		}
		rs.Groups = groups
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	for _, typ := range MessageTypes {
		path := filepath.Join(dir, "messages", string(typ)+".txt")
		src, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}
		msgs, err := ParseMessages(typ, path, string(src))
		if err != nil {
			return nil, err
		}
		rs.Messages[typ] = msgs
	}

	warnPath := filepath.Join(dir, "warnsets.txt")
	if src, err := os.ReadFile(warnPath); err == nil {
		sets, err := ParseWarnSets(warnPath, string(src))
		if err != nil {
			return nil, err
		}
		rs.WarnSets = sets
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := rs.Link(); err != nil {
		return nil, err
	}

	logging.Logger.Info().
		Int("groups", len(rs.Groups)).
		Int("warn_sets", len(rs.WarnSets)).
		Msg("Loaded rule set")
	return rs, nil
}
