// chatwarden/pkg/runtime/points_test.go

package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chatwarden/pkg/compiler"
)

func (h *testHarness) loadWarnSets(t *testing.T, src string) {
	t.Helper()
	sets, err := compiler.ParseWarnSets("warnsets.txt", src)
	assert.NoError(t, err)
	h.engine.RuleSet().WarnSets = sets
}

const kickBanSet = `set s
action 5 kick
action 10 ban`

func TestGivePointsThresholdSelection(t *testing.T) {
	h := newTestHarness(t)
	h.loadWarnSets(t, kickBanSet)

	granted, err := h.engine.GivePoints("Steve", "s", 6)
	assert.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, []string{"Steve: kick"}, h.commands.player)

	// 6 + 5 = 11 crosses the higher threshold.
	granted, err = h.engine.GivePoints("Steve", "s", 5)
	assert.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, []string{"Steve: kick", "Steve: ban"}, h.commands.player)
}

func TestGivePointsBelowOneIsNoOp(t *testing.T) {
	h := newTestHarness(t)
	h.loadWarnSets(t, kickBanSet)

	granted, err := h.engine.GivePoints("Steve", "s", 0.4)
	assert.NoError(t, err)
	assert.False(t, granted)

	total, err := h.engine.store.GetPoints("Steve", "s")
	assert.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestGivePointsUnknownSet(t *testing.T) {
	h := newTestHarness(t)

	granted, err := h.engine.GivePoints("Steve", "missing", 3)
	assert.False(t, granted)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown warning set 'missing'")
}

func TestGivePointsExemptPermission(t *testing.T) {
	h := newTestHarness(t)
	h.loadWarnSets(t, kickBanSet)
	h.perms.grant("Steve", "chatwarden.points.exempt")

	granted, err := h.engine.GivePoints("Steve", "s", 6)
	assert.NoError(t, err)
	assert.False(t, granted)
	assert.Empty(t, h.commands.player)
}

func TestGivePointsNewcomerMultiplier(t *testing.T) {
	h := newTestHarness(t, PlayerInfo{
		Name:     "Steve",
		JoinedAt: time.Date(2026, time.March, 1, 11, 59, 0, 0, time.UTC),
	})
	h.loadWarnSets(t, kickBanSet)
	h.engine.Points.NewcomerWindow = 10 * time.Minute
	h.engine.Points.NewcomerMultiplier = 2

	granted, err := h.engine.GivePoints("Steve", "s", 3)
	assert.NoError(t, err)
	assert.True(t, granted)

	total, err := h.engine.store.GetPoints("Steve", "s")
	assert.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, []string{"Steve: kick"}, h.commands.player)
}

func TestSanctionLineGrammar(t *testing.T) {
	h := newTestHarness(t)
	h.loadWarnSets(t, `set s
action 1 warn You have {points} points in {set}.
action 1 bungeeconsole hub mute {player}
action 1 tempban {player}`)

	granted, err := h.engine.GivePoints("Steve", "s", 1)
	assert.NoError(t, err)
	assert.True(t, granted)

	assert.Equal(t, []string{"You have 1 points in s."}, h.delivery.messages["Steve"])
	assert.Equal(t, []string{"hub: mute Steve"}, h.commands.bungee)
	assert.Equal(t, []string{"Steve: tempban Steve"}, h.commands.player)
}

func TestRulePointsActionSetsWarned(t *testing.T) {
	h := newTestHarness(t)
	h.loadWarnSets(t, `set spam
action 10 kick {player}`)
	h.loadRules(t, compiler.EventChat, `match bad
then points spam 2
then warn spam-warn You are being watched.`)

	_, err := h.engine.Filter(compiler.EventChat, "Steve", "bad", "general")
	assert.NoError(t, err)

	total, err := h.engine.store.GetPoints("Steve", "spam")
	assert.NoError(t, err)
	assert.Equal(t, 2, total)
	// The plain warn is suppressed because points were granted.
	assert.Empty(t, h.delivery.messages["Steve"])
}

func TestDecayPoints(t *testing.T) {
	h := newTestHarness(t,
		PlayerInfo{Name: "Steve"},
		PlayerInfo{Name: "Alex"})
	h.loadWarnSets(t, `set spam
decay 2
action 10 kick

set permanent
action 5 ban`)

	_, err := h.engine.store.AddPoints("Steve", "spam", 5)
	assert.NoError(t, err)
	_, err = h.engine.store.AddPoints("Steve", "permanent", 4)
	assert.NoError(t, err)
	_, err = h.engine.store.AddPoints("Alex", "spam", 1)
	assert.NoError(t, err)

	h.engine.DecayPoints()

	total, _ := h.engine.store.GetPoints("Steve", "spam")
	assert.Equal(t, 3, total)
	// Sets without decay are untouched.
	total, _ = h.engine.store.GetPoints("Steve", "permanent")
	assert.Equal(t, 4, total)
	// Decay floors at zero.
	total, _ = h.engine.store.GetPoints("Alex", "spam")
	assert.Equal(t, 0, total)
}
