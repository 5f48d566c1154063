// chatwarden/pkg/compiler/parser_test.go

package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRulesBasic(t *testing.T) {
	src := `
# swearing
match (?i)\b(badword)\b
name no-swearing
then warn swear Please watch your language.
then points swearing 2
then replace ****

match (?i)caps lock
then deny Turn off caps lock.
`
	rules, imports, err := ParseRules(EventChat, "chat.txt", src)
	assert.NoError(t, err)
	assert.Empty(t, imports)
	assert.Len(t, rules, 2)

	first := rules[0]
	assert.Equal(t, EventChat, first.Type)
	assert.Equal(t, `(?i)\b(badword)\b`, first.PatternText)
	assert.Equal(t, "no-swearing", first.Name)
	assert.Equal(t, []WarnEntry{{ID: "swear", Message: "Please watch your language."}}, first.Warns)
	assert.Equal(t, []PointsGrant{{Set: "swearing", Amount: 2}}, first.Points)
	assert.Equal(t, []string{"****"}, first.Replacements)

	second := rules[1]
	assert.True(t, second.Deny)
	assert.Equal(t, "Turn off caps lock.", second.DenyMessage)
}

func TestParseRulesDuplicatePattern(t *testing.T) {
	src := `
match spam
then deny

match spam
then abort
`
	_, _, err := ParseRules(EventChat, "chat.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate rule pattern 'spam'")
}

func TestParseRulesUnknownDirective(t *testing.T) {
	src := `match spam
frobnicate hard`
	_, _, err := ParseRules(EventChat, "chat.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chat.txt:2")
	assert.Contains(t, err.Error(), "unknown directive 'frobnicate'")
}

func TestParseRulesDuplicateSingleValuedDirective(t *testing.T) {
	src := `match spam
name first
name second`
	_, _, err := ParseRules(EventChat, "chat.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate directive 'name'")
}

func TestParseRulesMalformedPattern(t *testing.T) {
	_, _, err := ParseRules(EventChat, "chat.txt", "match [unclosed")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed pattern")
}

func TestParseRulesImports(t *testing.T) {
	src := `@import chat
match spam
then deny`
	_, imports, err := ParseRules(EventSign, "sign.txt", src)
	assert.NoError(t, err)
	assert.Equal(t, []EventType{EventChat}, imports)

	late := `match spam
then deny
@import chat`
	_, _, err = ParseRules(EventSign, "sign.txt", late)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "@import must appear before the first match")
}

func TestParseRulesIgnoreTypeOnlyGlobal(t *testing.T) {
	src := `match spam
ignore type sign book
then deny`
	rules, _, err := ParseRules(EventGlobal, "global.txt", src)
	assert.NoError(t, err)
	assert.Equal(t, []EventType{EventSign, EventBook}, rules[0].IgnoreTypes)
	assert.True(t, rules[0].IgnoresType(EventSign))
	assert.False(t, rules[0].IgnoresType(EventChat))

	_, _, err = ParseRules(EventChat, "chat.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only valid in global rules")
}

func TestParseRulesRequireTagOnlyTag(t *testing.T) {
	src := `match spam
require tag prefix suffix
then deny`
	rules, _, err := ParseRules(EventTag, "tag.txt", src)
	assert.NoError(t, err)
	assert.Equal(t, []TagKind{TagPrefix, TagSuffix}, rules[0].RequireTags)

	_, _, err = ParseRules(EventChat, "chat.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "only valid in tag rules")
}

func TestParseRulesConditionsAndTransforms(t *testing.T) {
	src := `match (?i)trade
before replace \s+|
require perm warden.trade You may not trade here.
ignore perm warden.bypass
require gamemode survival adventure
require world hub
require channel market joined
ignore script player == "Console"
then rewrite in nether no trading in the nether|really none
then rewrite trade denied
delay 5 seconds slow down
expires 3 Dec 2030 15:04`
	rules, _, err := ParseRules(EventChat, "chat.txt", src)
	assert.NoError(t, err)

	rule := rules[0]
	assert.Len(t, rule.BeforeReplace, 1)
	assert.Equal(t, `\s+`, rule.BeforeReplace[0].PatternText)
	assert.Equal(t, "", rule.BeforeReplace[0].With)
	assert.Equal(t, "warden.trade", rule.RequirePermission.Permission)
	assert.Equal(t, "You may not trade here.", rule.RequirePermission.DenyMessage)
	assert.Equal(t, "warden.bypass", rule.IgnorePermission)
	assert.Equal(t, []string{"survival", "adventure"}, rule.RequireGamemodes)
	assert.Equal(t, []ChannelCondition{{Channel: "market", Mode: "joined"}}, rule.RequireChannels)
	assert.Equal(t, `player == "Console"`, rule.IgnoreScript)
	assert.Equal(t, []string{"no trading in the nether", "really none"}, rule.WorldRewrites["nether"])
	assert.Equal(t, []string{"trade denied"}, rule.Rewrites)
	assert.Equal(t, 5*time.Second, rule.Delay.Duration)
	assert.Equal(t, "slow down", rule.Delay.Message)
	assert.Equal(t, time.Date(2030, time.December, 3, 15, 4, 0, 0, time.UTC), rule.Expires)
}

func TestParseGroups(t *testing.T) {
	src := `
group spam-handling
then warn spam Stop spamming.
then points spam 1

group advertising
then deny silently
`
	groups, err := ParseGroups("groups.txt", src)
	assert.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Equal(t, []WarnEntry{{ID: "spam", Message: "Stop spamming."}}, groups["spam-handling"].Warns)
	assert.True(t, groups["advertising"].DenySilently)
}

func TestParseGroupsDuplicate(t *testing.T) {
	src := `group a
then abort
group a
then abort`
	_, err := ParseGroups("groups.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate group 'a'")
}

func TestLinkUnknownGroup(t *testing.T) {
	rs := NewRuleSet()
	rules, _, err := ParseRules(EventChat, "chat.txt", "match spam\ngroup missing")
	assert.NoError(t, err)
	rs.Rules[EventChat] = rules

	err = rs.Link()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown group 'missing'")
}

func TestEffectiveOrder(t *testing.T) {
	rs := NewRuleSet()

	global, _, err := ParseRules(EventGlobal, "global.txt", "match g\nthen abort")
	assert.NoError(t, err)
	chat, _, err := ParseRules(EventChat, "chat.txt", "match c\nthen abort")
	assert.NoError(t, err)
	sign, imports, err := ParseRules(EventSign, "sign.txt", "@import chat\nmatch s\nthen abort")
	assert.NoError(t, err)

	rs.Rules[EventGlobal] = global
	rs.Rules[EventChat] = chat
	rs.Rules[EventSign] = sign
	rs.Imports[EventSign] = imports

	var patterns []string
	for _, r := range rs.Effective(EventSign) {
		patterns = append(patterns, r.PatternText)
	}
	assert.Equal(t, []string{"g", "c", "s"}, patterns)

	// An explicit global import is not doubled.
	rs.Imports[EventSign] = []EventType{EventGlobal, EventChat}
	patterns = patterns[:0]
	for _, r := range rs.Effective(EventSign) {
		patterns = append(patterns, r.PatternText)
	}
	assert.Equal(t, []string{"g", "c", "s"}, patterns)
}

func TestOperatorCooldownAndExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	op := &Operator{}
	assert.False(t, op.Expired(now))
	assert.False(t, op.OnCooldown(now))

	op.Expires = now.Add(-time.Minute)
	assert.True(t, op.Expired(now))

	op = &Operator{Delay: &Delay{Duration: time.Minute}}
	assert.False(t, op.OnCooldown(now))
	op.LastExecuted = now.Add(-30 * time.Second)
	assert.True(t, op.OnCooldown(now))
	op.LastExecuted = now.Add(-2 * time.Minute)
	assert.False(t, op.OnCooldown(now))
}
