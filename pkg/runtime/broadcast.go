// chatwarden/pkg/runtime/broadcast.go

package runtime

import (
	"chatwarden/pkg/compiler"
)

// DeathContext carries the damage event details a death broadcast is
// matched against. Zero values mean "not applicable".
type DeathContext struct {
	Killer     string
	Cause      string
	Weapon     string
	Projectile string
	BlockType  string
	EntityType string
	BossName   string
	Damage     float64
}

// Broadcast runs one player-message pass for a join, quit or kick
// event. text is the host's default message, used for ignore-match
// checks and the {message} variable.
func (e *Engine) Broadcast(typ compiler.MessageType, sender, text string) {
	e.broadcast(typ, sender, text, nil)
}

// BroadcastDeath runs the death message pass with its damage context.
func (e *Engine) BroadcastDeath(sender, text string, death *DeathContext) {
	e.broadcast(compiler.MessageDeath, sender, text, death)
}

// RunTimed fires one pass of the timed broadcast list. Meant to be
// driven by the host's scheduler.
func (e *Engine) RunTimed() {
	e.broadcast(compiler.MessageTimed, "", "", nil)
}

func (e *Engine) broadcast(typ compiler.MessageType, sender, text string, death *DeathContext) {
	msgs := e.rules.Load().Messages[typ]
	if len(msgs) == 0 {
		return
	}
	now := e.now()

	var senderInfo PlayerInfo
	if sender != "" {
		senderInfo, _ = e.platform.Players.Lookup(sender)
		if senderInfo.Name == "" {
			senderInfo.Name = sender
		}
	}

	// Each receiver gets at most one message per pass; the first
	// qualifying message in file order wins.
	shown := make(map[string]bool)

	for _, m := range msgs {
		if m.Disabled || m.Expired(now) {
			continue
		}
		if m.Delay != nil {
			if typ == compiler.MessageTimed && m.LastExecuted.IsZero() {
				// The first timed pass after a load only arms the
				// cooldown, so reloads do not trigger an immediate burst.
				// Event-driven kinds fire on their first event as usual.
				m.LastExecuted = now
				continue
			}
			if m.OnCooldown(now) {
				continue
			}
		}
		if m.IgnoreMatch != nil && m.IgnoreMatch.MatchString(text) {
			continue
		}
		if sender != "" && !e.checkSide(&m.Sender, senderInfo, text, true) {
			continue
		}
		if typ == compiler.MessageDeath && m.Death != nil && !e.checkDeath(m.Death, death) {
			continue
		}

		var receivers []PlayerInfo
		if m.RequireSelf {
			if sender == "" {
				continue
			}
			receivers = []PlayerInfo{senderInfo}
		} else {
			receivers = e.platform.Players.Online()
		}

		fired := false
		var message string
		for _, r := range receivers {
			if e.StopOnFirstMatch && shown[r.Name] {
				continue
			}
			if !e.checkSide(&m.Receiver, r, text, false) {
				continue
			}

			if !fired {
				fired = true
				message = m.NextMessage()

				// Operator actions, bungee relay and channel relays fire
				// once per pass, on the first qualifying receiver.
				actor := senderInfo
				if sender == "" {
					actor = r
				}
				fctx := &filterContext{
					sender:     actor,
					channel:    actor.Channel,
					text:       text,
					sentNotify: make(map[string]bool),
				}
				e.executeOperatorActions(fctx, &m.Operator, nil)
				if m.Bungee && message != "" {
					e.platform.Bungee.Broadcast(e.composeMessage(m, message, senderInfo, r))
				}
				m.LastExecuted = now
				e.stats.broadcasts.Add(1)
			}

			if message == "" {
				continue
			}
			e.platform.Delivery.Message(r.Name, e.composeMessage(m, message, senderInfo, r))
			shown[r.Name] = true
		}
	}
}

func (e *Engine) composeMessage(m *compiler.PlayerMessage, message string, sender, receiver PlayerInfo) string {
	name := sender.Name
	if name == "" {
		name = receiver.Name
	}
	vars := map[string]string{
		"player":   name,
		"world":    sender.World,
		"receiver": receiver.Name,
	}
	return render(m.Prefix+message+m.Suffix, nil, vars)
}
