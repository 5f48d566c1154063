// chatwarden/pkg/compiler/parser_messages_test.go

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMessagesListMode(t *testing.T) {
	src := `
group default
prefix [+]
messages:
- Welcome {player}!
- Enjoy your stay,
and read the rules.
- Third one.

group vip
require sender perm warden.vip
messages:
- A VIP has arrived.
`
	msgs, err := ParseMessages(MessageJoin, "join.txt", src)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)

	first := msgs[0]
	assert.Equal(t, MessageJoin, first.Type)
	assert.Equal(t, "default", first.Group)
	assert.Equal(t, "[+]", first.Prefix)
	assert.Equal(t, []string{
		"Welcome {player}!",
		"Enjoy your stay,\nand read the rules.",
		"Third one.",
	}, first.Messages)

	second := msgs[1]
	assert.Equal(t, "warden.vip", second.Sender.RequirePermission.Permission)
	assert.Equal(t, []string{"A VIP has arrived."}, second.Messages)
}

func TestParseMessagesContinuationBeforeEntry(t *testing.T) {
	src := `group default
messages:
dangling line`
	_, err := ParseMessages(MessageJoin, "join.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "continuation line before any message entry")
}

func TestParseMessagesDirectives(t *testing.T) {
	src := `group quiet
require self
suffix !
bungee
ignore match ^\[staff\]
require receiver world hub lobby
ignore receiver perm warden.silent
delay 2 minutes
messages:
- You left quietly.
`
	msgs, err := ParseMessages(MessageQuit, "quit.txt", src)
	assert.NoError(t, err)

	m := msgs[0]
	assert.True(t, m.RequireSelf)
	assert.Equal(t, "!", m.Suffix)
	assert.True(t, m.Bungee)
	assert.Equal(t, `^\[staff\]`, m.IgnoreMatchText)
	assert.True(t, m.IgnoreMatch.MatchString("[staff] announcement"))
	assert.Equal(t, []string{"hub", "lobby"}, m.Receiver.RequireWorlds)
	assert.Equal(t, "warden.silent", m.Receiver.IgnorePermission)
	assert.NotNil(t, m.Delay)
	assert.Nil(t, m.Death)
}

func TestParseMessagesDeathConditions(t *testing.T) {
	src := `group sword-deaths
require killer perm warden.pvp
require item *_sword
ignore item wooden_sword
require cause entity_attack
require damage 4.5
messages:
- {player} fell to a blade.
`
	msgs, err := ParseMessages(MessageDeath, "death.txt", src)
	assert.NoError(t, err)

	d := msgs[0].Death
	assert.NotNil(t, d)
	assert.Equal(t, "warden.pvp", d.RequireKillerPermission)
	assert.Equal(t, []string{"*_sword"}, d.RequireItems)
	assert.Equal(t, []string{"wooden_sword"}, d.IgnoreItems)
	assert.Equal(t, []string{"entity_attack"}, d.RequireCauses)
	assert.Equal(t, 4.5, d.RequireDamage)
}

func TestParseMessagesDeathDirectivesRejectedElsewhere(t *testing.T) {
	src := `group default
require item diamond_sword`
	_, err := ParseMessages(MessageJoin, "join.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive")
}

func TestParseMessagesDuplicateGroup(t *testing.T) {
	src := `group a
group a`
	_, err := ParseMessages(MessageJoin, "join.txt", src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate message group 'a'")
}

func TestNextMessageCycles(t *testing.T) {
	m := &PlayerMessage{Messages: []string{"one", "two", "three"}}
	assert.Equal(t, "one", m.NextMessage())
	assert.Equal(t, "two", m.NextMessage())
	assert.Equal(t, "three", m.NextMessage())
	assert.Equal(t, "one", m.NextMessage())

	empty := &PlayerMessage{}
	assert.Equal(t, "", empty.NextMessage())
}
