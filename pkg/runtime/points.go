// chatwarden/pkg/runtime/points.go

package runtime

import (
	"math"
	"strconv"
	"strings"

	"chatwarden/pkg/logging"
)

// GivePoints adds warning points to a player's counter for one set and
// fires the highest eligible sanction action. It reports whether any
// points were actually granted.
func (e *Engine) GivePoints(player, set string, raw float64) (bool, error) {
	ws, ok := e.rules.Load().WarnSets[set]
	if !ok {
		return false, logging.NewError(logging.ErrorTypePoints,
			"unknown warning set '"+set+"'", nil,
			map[string]interface{}{"player": player})
	}

	if e.Points.ExemptPermission != "" && e.platform.Perms.Has(player, e.Points.ExemptPermission) {
		return false, nil
	}

	if e.Points.NewcomerWindow > 0 && e.Points.NewcomerMultiplier != 1 {
		if info, found := e.platform.Players.Lookup(player); found &&
			!info.JoinedAt.IsZero() && e.now().Sub(info.JoinedAt) < e.Points.NewcomerWindow {
			raw *= e.Points.NewcomerMultiplier
		}
	}

	amount := int(math.Round(raw))
	if amount < 1 {
		return false, nil
	}

	total, err := e.store.AddPoints(player, set, amount)
	if err != nil {
		return false, logging.NewError(logging.ErrorTypePoints,
			"adding warning points", err,
			map[string]interface{}{"player": player, "set": set})
	}
	e.stats.pointsGiven.Add(uint64(amount))

	logging.Logger.Debug().
		Str("player", player).
		Str("set", set).
		Int("amount", amount).
		Int("total", total).
		Msg("Warning points given")

	if action := ws.ActionFor(total); action != nil {
		vars := map[string]string{
			"player": player,
			"set":    set,
			"points": strconv.Itoa(total),
		}
		for _, line := range action.Commands {
			e.runSanction(player, render(line, nil, vars))
		}
	}
	return true, nil
}

// runSanction dispatches one sanction command line. Warnings are shown
// on the next tick so they land after the triggering event's own output.
func (e *Engine) runSanction(player, line string) {
	switch {
	case strings.HasPrefix(line, e.warnPrefix()):
		msg := strings.TrimPrefix(line, e.warnPrefix())
		e.platform.Schedule.NextTick(func() { e.platform.Delivery.Message(player, msg) })
	case strings.HasPrefix(line, "bungeeconsole "):
		rest := strings.TrimPrefix(line, "bungeeconsole ")
		server, cmd, found := strings.Cut(rest, " ")
		if !found {
			logging.Logger.Warn().Str("line", line).Msg("Malformed bungeeconsole sanction line")
			return
		}
		e.platform.Commands.Forward(server, cmd)
	default:
		e.platform.Commands.AsPlayer(player, line)
	}
}

func (e *Engine) warnPrefix() string {
	if e.Points.WarnPrefix != "" {
		return e.Points.WarnPrefix
	}
	return "warn "
}

// DecayPoints subtracts each decaying set's per-run amount from every
// online player's counters, floored at zero. Meant to be driven by the
// host's scheduler.
func (e *Engine) DecayPoints() {
	rs := e.rules.Load()
	online := e.platform.Players.Online()
	for name, ws := range rs.WarnSets {
		if ws.Decay <= 0 {
			continue
		}
		for _, p := range online {
			total, err := e.store.GetPoints(p.Name, name)
			if err != nil {
				logging.LogError(logging.Logger, err)
				continue
			}
			if total <= 0 {
				continue
			}
			if _, err := e.store.AddPoints(p.Name, name, -ws.Decay); err != nil {
				logging.LogError(logging.Logger, err)
			}
		}
	}
}
