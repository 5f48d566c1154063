// chatwarden/pkg/runtime/conditions.go

package runtime

import (
	"strings"

	"chatwarden/pkg/compiler"
	"chatwarden/pkg/logging"
)

func (e *Engine) scriptBindings(subject PlayerInfo, text, channel string) map[string]interface{} {
	return map[string]interface{}{
		"player":   subject.Name,
		"world":    subject.World,
		"gamemode": subject.Gamemode,
		"channel":  channel,
		"message":  text,
	}
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// checkRuleOperator evaluates the condition gate of a rule or group. A
// failing permission condition with a configured deny message is
// terminal for the whole pipeline; any other failure skips the operator.
func (e *Engine) checkRuleOperator(fctx *filterContext, ro *compiler.RuleOperator) (bool, outcome, string) {
	sender := fctx.sender

	if ro.RequirePermission != nil && !e.platform.Perms.Has(sender.Name, ro.RequirePermission.Permission) {
		if msg := ro.RequirePermission.DenyMessage; msg != "" {
			rendered := render(msg, nil, fctx.vars())
			e.platform.Delivery.Message(sender.Name, rendered)
			return false, outcomeDeny, rendered
		}
		return false, outcomeContinue, ""
	}
	if ro.IgnorePermission != "" && e.platform.Perms.Has(sender.Name, ro.IgnorePermission) {
		return false, outcomeContinue, ""
	}

	if ro.RequireScript != "" {
		ok, err := e.vm.EvaluateBool(ro.RequireScript, e.scriptBindings(sender, fctx.text, fctx.channel), e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return false, outcomeContinue, ""
		}
		if !ok {
			return false, outcomeContinue, ""
		}
	}
	if ro.IgnoreScript != "" {
		ok, err := e.vm.EvaluateBool(ro.IgnoreScript, e.scriptBindings(sender, fctx.text, fctx.channel), e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return false, outcomeContinue, ""
		}
		if ok {
			return false, outcomeContinue, ""
		}
	}

	if len(ro.RequireGamemodes) > 0 && !containsFold(ro.RequireGamemodes, sender.Gamemode) {
		return false, outcomeContinue, ""
	}
	if containsFold(ro.IgnoreGamemodes, sender.Gamemode) {
		return false, outcomeContinue, ""
	}
	if len(ro.RequireWorlds) > 0 && !containsFold(ro.RequireWorlds, sender.World) {
		return false, outcomeContinue, ""
	}
	if containsFold(ro.IgnoreWorlds, sender.World) {
		return false, outcomeContinue, ""
	}

	if len(ro.RequireRegions) > 0 || len(ro.IgnoreRegions) > 0 {
		regions := e.platform.Regions.RegionsAt(sender.World, sender.X, sender.Y, sender.Z)
		if len(ro.RequireRegions) > 0 && !anyMember(regions, ro.RequireRegions) {
			return false, outcomeContinue, ""
		}
		if anyMember(regions, ro.IgnoreRegions) {
			return false, outcomeContinue, ""
		}
	}

	if len(ro.RequireChannels) > 0 && !e.anyChannel(sender.Name, ro.RequireChannels) {
		return false, outcomeContinue, ""
	}
	if len(ro.IgnoreChannels) > 0 && e.anyChannel(sender.Name, ro.IgnoreChannels) {
		return false, outcomeContinue, ""
	}

	if pass := e.checkDataConditions(sender, fctx.text, fctx.channel, ro.RequireData, ro.IgnoreData); !pass {
		return false, outcomeContinue, ""
	}
	return true, outcomeContinue, ""
}

func anyMember(have, want []string) bool {
	for _, h := range have {
		if containsFold(want, h) {
			return true
		}
	}
	return false
}

func (e *Engine) anyChannel(player string, conds []compiler.ChannelCondition) bool {
	for _, c := range conds {
		mode, ok := e.platform.Channels.Mode(player, c.Channel)
		if !ok {
			continue
		}
		if c.Mode == "" || strings.EqualFold(c.Mode, mode) {
			return true
		}
	}
	return false
}

// checkDataConditions gates on the sender's data store. Require entries
// must all hold; any holding ignore entry skips the operator.
func (e *Engine) checkDataConditions(subject PlayerInfo, text, channel string, requires, ignores []compiler.DataRequirement) bool {
	for _, req := range requires {
		value, ok, err := e.store.GetData(subject.Name, req.Key)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return false
		}
		if !ok {
			return false
		}
		if req.Script != "" {
			bindings := e.scriptBindings(subject, text, channel)
			bindings["value"] = value
			pass, err := e.vm.EvaluateBool(req.Script, bindings, e.ScriptTimeout)
			if err != nil {
				logging.LogError(logging.Logger, err)
				return false
			}
			if !pass {
				return false
			}
		}
	}
	for _, ign := range ignores {
		value, ok, err := e.store.GetData(subject.Name, ign.Key)
		if err != nil {
			logging.LogError(logging.Logger, err)
			continue
		}
		if !ok {
			continue
		}
		if ign.Script == "" {
			return false
		}
		bindings := e.scriptBindings(subject, text, channel)
		bindings["value"] = value
		hit, err := e.vm.EvaluateBool(ign.Script, bindings, e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			continue
		}
		if hit {
			return false
		}
	}
	return true
}

// checkSide evaluates one side of a broadcast operator against a
// subject. When deliverDeny is set (sender side), a failing permission
// condition with a deny message notifies the subject before skipping.
func (e *Engine) checkSide(s *compiler.SideConditions, subject PlayerInfo, text string, deliverDeny bool) bool {
	if s.RequirePermission != nil && !e.platform.Perms.Has(subject.Name, s.RequirePermission.Permission) {
		if deliverDeny && s.RequirePermission.DenyMessage != "" {
			e.platform.Delivery.Message(subject.Name, s.RequirePermission.DenyMessage)
		}
		return false
	}
	if s.IgnorePermission != "" && e.platform.Perms.Has(subject.Name, s.IgnorePermission) {
		return false
	}

	if s.RequireScript != "" {
		ok, err := e.vm.EvaluateBool(s.RequireScript, e.scriptBindings(subject, text, subject.Channel), e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return false
		}
		if !ok {
			return false
		}
	}
	if s.IgnoreScript != "" {
		ok, err := e.vm.EvaluateBool(s.IgnoreScript, e.scriptBindings(subject, text, subject.Channel), e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return false
		}
		if ok {
			return false
		}
	}

	if len(s.RequireGamemodes) > 0 && !containsFold(s.RequireGamemodes, subject.Gamemode) {
		return false
	}
	if containsFold(s.IgnoreGamemodes, subject.Gamemode) {
		return false
	}
	if len(s.RequireWorlds) > 0 && !containsFold(s.RequireWorlds, subject.World) {
		return false
	}
	if containsFold(s.IgnoreWorlds, subject.World) {
		return false
	}

	if len(s.RequireRegions) > 0 || len(s.IgnoreRegions) > 0 {
		regions := e.platform.Regions.RegionsAt(subject.World, subject.X, subject.Y, subject.Z)
		if len(s.RequireRegions) > 0 && !anyMember(regions, s.RequireRegions) {
			return false
		}
		if anyMember(regions, s.IgnoreRegions) {
			return false
		}
	}

	if len(s.RequireChannels) > 0 {
		found := false
		for _, ch := range s.RequireChannels {
			if _, ok := e.platform.Channels.Mode(subject.Name, ch); ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, ch := range s.IgnoreChannels {
		if _, ok := e.platform.Channels.Mode(subject.Name, ch); ok {
			return false
		}
	}
	return true
}

// matchItem matches an item name against a pattern supporting a leading
// or trailing * wildcard.
func matchItem(item, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(strings.ToLower(item), strings.ToLower(pattern[1:]))
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(strings.ToLower(item), strings.ToLower(pattern[:len(pattern)-1]))
	default:
		return strings.EqualFold(item, pattern)
	}
}

func anyItemMatch(item string, patterns []string) bool {
	for _, p := range patterns {
		if matchItem(item, p) {
			return true
		}
	}
	return false
}

// checkDeath evaluates the killer/cause/weapon predicates of a death
// message against the damage event context.
func (e *Engine) checkDeath(d *compiler.DeathConditions, death *DeathContext) bool {
	if death == nil {
		death = &DeathContext{}
	}

	if d.RequireKillerPermission != "" {
		if death.Killer == "" || !e.platform.Perms.Has(death.Killer, d.RequireKillerPermission) {
			return false
		}
	}
	if d.RequireKillerScript != "" {
		killer, _ := e.platform.Players.Lookup(death.Killer)
		ok, err := e.vm.EvaluateBool(d.RequireKillerScript, e.scriptBindings(killer, "", ""), e.ScriptTimeout)
		if err != nil {
			logging.LogError(logging.Logger, err)
			return false
		}
		if !ok {
			return false
		}
	}

	if len(d.RequireKillerWorlds) > 0 || len(d.IgnoreKillerWorlds) > 0 ||
		len(d.RequireKillerRegions) > 0 || len(d.IgnoreKillerRegions) > 0 {
		killer, found := e.platform.Players.Lookup(death.Killer)
		if len(d.RequireKillerWorlds) > 0 && (!found || !containsFold(d.RequireKillerWorlds, killer.World)) {
			return false
		}
		if found && containsFold(d.IgnoreKillerWorlds, killer.World) {
			return false
		}
		if len(d.RequireKillerRegions) > 0 || len(d.IgnoreKillerRegions) > 0 {
			var regions []string
			if found {
				regions = e.platform.Regions.RegionsAt(killer.World, killer.X, killer.Y, killer.Z)
			}
			if len(d.RequireKillerRegions) > 0 && !anyMember(regions, d.RequireKillerRegions) {
				return false
			}
			if anyMember(regions, d.IgnoreKillerRegions) {
				return false
			}
		}
	}

	if len(d.RequireItems) > 0 && !anyItemMatch(death.Weapon, d.RequireItems) {
		return false
	}
	if anyItemMatch(death.Weapon, d.IgnoreItems) {
		return false
	}
	if len(d.RequireCauses) > 0 && !containsFold(d.RequireCauses, death.Cause) {
		return false
	}
	if containsFold(d.IgnoreCauses, death.Cause) {
		return false
	}
	if len(d.RequireProjectiles) > 0 && !containsFold(d.RequireProjectiles, death.Projectile) {
		return false
	}
	if containsFold(d.IgnoreProjectiles, death.Projectile) {
		return false
	}
	if len(d.RequireBlocks) > 0 && !containsFold(d.RequireBlocks, death.BlockType) {
		return false
	}
	if containsFold(d.IgnoreBlocks, death.BlockType) {
		return false
	}
	if len(d.RequireEntities) > 0 && !containsFold(d.RequireEntities, death.EntityType) {
		return false
	}
	if containsFold(d.IgnoreEntities, death.EntityType) {
		return false
	}
	if len(d.RequireBossNames) > 0 && !containsFold(d.RequireBossNames, death.BossName) {
		return false
	}
	if d.RequireDamage > 0 && death.Damage < d.RequireDamage {
		return false
	}
	return true
}
