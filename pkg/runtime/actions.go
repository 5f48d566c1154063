// chatwarden/pkg/runtime/actions.go

package runtime

import (
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"

	"chatwarden/pkg/compiler"
	"chatwarden/pkg/logging"
)

func pickOne(candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[rand.Intn(len(candidates))]
}

// executeActions fires a rule or group operator against the current
// match. Text transforms mutate the canonical event text; everything
// else is a side effect. The returned outcome reflects the operator's
// deny flags only.
func (e *Engine) executeActions(fctx *filterContext, ro *compiler.RuleOperator, pattern *regexp.Regexp, groups []string) (outcome, string) {
	out, denyMsg := e.executeOperatorActions(fctx, &ro.Operator, groups)

	vars := fctx.vars()
	if len(ro.Replacements) > 0 {
		with := render(pickOne(ro.Replacements), groups, vars)
		fctx.text = replaceFirst(pattern, fctx.text, with)
	}

	rewrites := ro.Rewrites
	if ro.WorldRewrites != nil {
		if wr, ok := worldRewritesFor(ro.WorldRewrites, fctx.sender.World); ok {
			rewrites = wr
		}
	}
	if len(rewrites) > 0 {
		fctx.text = render(pickOne(rewrites), groups, vars)
	}

	return out, denyMsg
}

func worldRewritesFor(m map[string][]string, world string) ([]string, bool) {
	if wr, ok := m[world]; ok {
		return wr, true
	}
	for w, wr := range m {
		if strings.EqualFold(w, world) {
			return wr, true
		}
	}
	return nil, false
}

// executeOperatorActions fires the base capability bag shared by rules,
// groups and player messages.
func (e *Engine) executeOperatorActions(fctx *filterContext, op *compiler.Operator, groups []string) (outcome, string) {
	sender := fctx.sender
	vars := fctx.vars()

	for _, cmd := range op.PlayerCommands {
		e.platform.Commands.AsPlayer(sender.Name, render(cmd, groups, vars))
	}
	for _, cmd := range op.ConsoleCommands {
		e.platform.Commands.AsConsole(render(cmd, groups, vars))
	}
	for _, bc := range op.BungeeCommands {
		e.platform.Commands.Forward(bc.Server, render(bc.Command, groups, vars))
	}

	for _, line := range op.ConsoleLog {
		rendered := render(line, groups, vars)
		fctx.consoleLog = append(fctx.consoleLog, rendered)
		if !op.IgnoreLogging {
			logging.Logger.Info().Str("player", sender.Name).Msg(rendered)
		}
	}

	// Each rendered notify text goes out once per firing pass, no
	// matter how many conditions or operators carry it.
	for _, n := range op.Notify {
		rendered := render(n.Message, groups, vars)
		if fctx.sentNotify[rendered] {
			continue
		}
		fctx.sentNotify[rendered] = true
		for _, p := range e.platform.Players.Online() {
			if e.platform.Perms.Has(p.Name, n.Permission) {
				e.platform.Delivery.Message(p.Name, rendered)
			}
		}
	}

	for _, cr := range op.Channels {
		e.platform.Channels.Relay(cr.Channel, render(cr.Message, groups, vars))
	}

	for _, fw := range op.Files {
		line := render(fw.Line, groups, vars)
		file := fw.File
		e.platform.Schedule.Async(func() {
			e.appendLine(file, line)
		})
	}

	if op.Fine > 0 {
		if err := e.platform.Economy.Withdraw(sender.Name, op.Fine); err != nil {
			logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeEval,
				"fine withdrawal failed", err, map[string]interface{}{"player": sender.Name}))
		}
	}

	for _, pg := range op.Points {
		granted, err := e.GivePoints(sender.Name, pg.Set, pg.Amount)
		if err != nil {
			logging.LogError(logging.Logger, err)
			continue
		}
		if granted {
			fctx.warned = true
		}
	}

	for _, s := range op.Sounds {
		e.platform.Delivery.Sound(sender.Name, s)
	}
	if op.Book != "" {
		e.platform.Delivery.Book(sender.Name, op.Book)
	}

	if op.Toast != "" {
		toast := render(op.Toast, groups, vars)
		e.platform.Schedule.NextTick(func() { e.platform.Delivery.Toast(sender.Name, toast) })
	}
	if op.Title != "" || op.Subtitle != "" {
		title := render(op.Title, groups, vars)
		subtitle := render(op.Subtitle, groups, vars)
		e.platform.Schedule.NextTick(func() { e.platform.Delivery.Title(sender.Name, title, subtitle) })
	}
	if op.ActionBar != "" {
		bar := render(op.ActionBar, groups, vars)
		e.platform.Schedule.NextTick(func() { e.platform.Delivery.ActionBar(sender.Name, bar) })
	}
	if op.BossBar != "" {
		bar := render(op.BossBar, groups, vars)
		e.platform.Schedule.NextTick(func() { e.platform.Delivery.BossBar(sender.Name, bar) })
	}

	for _, sd := range op.SaveData {
		sd := sd
		e.platform.Schedule.NextTick(func() { e.saveData(sender, fctx.text, fctx.channel, sd) })
	}

	if op.Kick != "" {
		reason := render(op.Kick, groups, vars)
		e.platform.Schedule.NextTick(func() { e.platform.Delivery.Kick(sender.Name, reason) })
	}

	e.deliverWarns(fctx, op.Warns, groups, vars)

	switch {
	case op.DenySilently:
		return outcomeDenySilent, ""
	case op.Deny || op.DenyMessage != "":
		msg := render(op.DenyMessage, groups, vars)
		if msg != "" {
			e.platform.Delivery.Message(sender.Name, msg)
		}
		return outcomeDeny, msg
	}
	return outcomeContinue, ""
}

// deliverWarns shows the operator's warning messages, deduplicated per
// sender and warn ID within the dedup window. A firing pass that
// already granted warning points suppresses plain warns entirely.
func (e *Engine) deliverWarns(fctx *filterContext, warns []compiler.WarnEntry, groups []string, vars map[string]string) {
	if len(warns) == 0 || fctx.warned {
		return
	}
	now := e.now()
	for key, last := range e.recentWarns {
		if now.Sub(last) >= e.WarnWindow {
			delete(e.recentWarns, key)
		}
	}
	for _, w := range warns {
		key := fctx.sender.Name + "|" + w.ID
		if last, ok := e.recentWarns[key]; ok && now.Sub(last) < e.WarnWindow {
			continue
		}
		e.recentWarns[key] = now
		e.platform.Delivery.Message(fctx.sender.Name, render(w.Message, groups, vars))
	}
}

func (e *Engine) saveData(subject PlayerInfo, text, channel string, sd compiler.DataRequirement) {
	var value interface{} = true
	if sd.Script != "" {
		v, err := e.vm.Evaluate(sd.Script, e.scriptBindings(subject, text, channel), e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return
		}
		value = v
	}
	if err := e.store.SetData(subject.Name, sd.Key, value); err != nil {
		logging.LogError(logging.Logger, err)
	}
}

func (e *Engine) appendLine(file, line string) {
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeStore,
			fmt.Sprintf("opening log file %s", file), err, nil))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeStore,
			fmt.Sprintf("writing log file %s", file), err, nil))
	}
}
