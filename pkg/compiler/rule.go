// chatwarden/pkg/compiler/rule.go

package compiler

import (
	"regexp"
)

// Replacement is a pattern applied to a scratch copy of the text before
// the rule's own pattern is matched.
type Replacement struct {
	Pattern     *regexp.Regexp
	PatternText string
	With        string
}

// PermissionCondition is a required permission with an optional custom
// deny message. A failing check with a message set is terminal for the
// whole pipeline; without one it only skips the operator.
type PermissionCondition struct {
	Permission  string
	DenyMessage string
}

// ChannelCondition matches channel membership, optionally requiring a
// specific joined mode rather than mere membership.
type ChannelCondition struct {
	Channel string
	Mode    string
}

// RuleOperator extends Operator with the pattern-oriented conditions and
// text-transform actions shared by rules and groups.
type RuleOperator struct {
	Operator

	BeforeReplace []Replacement

	RequirePermission *PermissionCondition
	IgnorePermission  string
	RequireScript     string
	IgnoreScript      string
	RequireGamemodes  []string
	IgnoreGamemodes   []string
	RequireWorlds     []string
	IgnoreWorlds      []string
	RequireRegions    []string
	IgnoreRegions     []string
	RequireChannels   []ChannelCondition
	IgnoreChannels    []ChannelCondition

	Replacements  []string
	Rewrites      []string
	WorldRewrites map[string][]string
}

// TagKind restricts a tag rule to particular player tag slots.
type TagKind string

const (
	TagPrefix TagKind = "prefix"
	TagNick   TagKind = "nick"
	TagSuffix TagKind = "suffix"
)

func ParseTagKind(s string) (TagKind, bool) {
	switch TagKind(s) {
	case TagPrefix, TagNick, TagSuffix:
		return TagKind(s), true
	}
	return "", false
}

// Rule is a pattern-matching operator bound to one event type. The
// pattern text is its identity within that type. RequireTags is only
// populated for tag rules.
type Rule struct {
	RuleOperator

	Type        EventType
	Pattern     *regexp.Regexp
	PatternText string
	IgnoreTypes []EventType // global rules only
	Name        string
	GroupName   string
	Group       *Group // resolved by Link
	RequireTags []TagKind
}

// IgnoresType reports whether a global rule opted out of the given type.
func (r *Rule) IgnoresType(t EventType) bool {
	for _, it := range r.IgnoreTypes {
		if it == t {
			return true
		}
	}
	return false
}

// Group is a named RuleOperator referenced by rules for shared
// conditions and actions. It carries no pattern of its own; it is
// evaluated against the referencing rule's match.
type Group struct {
	RuleOperator

	Name string
}
