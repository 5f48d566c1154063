// chatwarden/pkg/compiler/serialize.go

package compiler

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Directives renders the operator back into definition-file lines. Every
// configured directive appears exactly once, so parsing the output again
// yields an equivalent operator. Used for debug dumps and the reload
// round-trip check.

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDelay(d *Delay) string {
	var amount int
	var unit string
	switch {
	case d.Duration%time.Hour == 0:
		amount, unit = int(d.Duration/time.Hour), "hour"
	case d.Duration%time.Minute == 0:
		amount, unit = int(d.Duration/time.Minute), "minute"
	case d.Duration%time.Second == 0:
		amount, unit = int(d.Duration/time.Second), "second"
	default:
		amount, unit = int(d.Duration/(50*time.Millisecond)), "tick"
	}
	line := strconv.Itoa(amount) + " " + unit
	if d.Message != "" {
		line += " " + d.Message
	}
	return "delay " + line
}

func (o *Operator) directives() []string {
	var out []string
	for _, d := range o.RequireData {
		out = append(out, strings.TrimSpace("require key "+d.Key+" "+d.Script))
	}
	for _, d := range o.IgnoreData {
		out = append(out, strings.TrimSpace("ignore key "+d.Key+" "+d.Script))
	}
	if !o.Expires.IsZero() {
		out = append(out, "expires "+o.Expires.Format("2 Jan 2006 15:04"))
	}
	if o.Delay != nil {
		out = append(out, formatDelay(o.Delay))
	}
	if o.Disabled {
		out = append(out, "disabled")
	}
	if o.IgnoreLogging {
		out = append(out, "dont log")
	}
	if o.IgnoreVerbose {
		out = append(out, "dont verbose")
	}
	for _, c := range o.PlayerCommands {
		out = append(out, "then command "+c)
	}
	for _, c := range o.ConsoleCommands {
		out = append(out, "then console "+c)
	}
	for _, c := range o.BungeeCommands {
		out = append(out, "then bungeeconsole "+c.Server+" "+c.Command)
	}
	for _, c := range o.ConsoleLog {
		out = append(out, "then log "+c)
	}
	if o.Kick != "" {
		out = append(out, "then kick "+o.Kick)
	}
	if o.Toast != "" {
		out = append(out, "then toast "+o.Toast)
	}
	if o.Title != "" || o.Subtitle != "" {
		line := "then title " + o.Title
		if o.Subtitle != "" {
			line += "|" + o.Subtitle
		}
		out = append(out, line)
	}
	if o.ActionBar != "" {
		out = append(out, "then actionbar "+o.ActionBar)
	}
	if o.BossBar != "" {
		out = append(out, "then bossbar "+o.BossBar)
	}
	if o.Book != "" {
		out = append(out, "then book "+o.Book)
	}
	if o.Fine > 0 {
		out = append(out, "then fine "+formatFloat(o.Fine))
	}
	for _, n := range o.Notify {
		out = append(out, "then notify "+n.Permission+" "+n.Message)
	}
	for _, c := range o.Channels {
		out = append(out, "then channel "+c.Channel+" "+c.Message)
	}
	for _, f := range o.Files {
		out = append(out, "then write "+f.File+" "+f.Line)
	}
	for _, g := range o.Points {
		out = append(out, "then points "+g.Set+" "+formatFloat(g.Amount))
	}
	for _, w := range o.Warns {
		out = append(out, "then warn "+w.ID+" "+w.Message)
	}
	for _, s := range o.Sounds {
		out = append(out, "then sound "+s)
	}
	for _, d := range o.SaveData {
		out = append(out, "then save "+d.Key+" "+d.Script)
	}
	if o.Abort {
		out = append(out, "then abort")
	}
	if o.Deny {
		out = append(out, strings.TrimSpace("then deny "+o.DenyMessage))
	}
	if o.DenySilently {
		out = append(out, "then deny silently")
	}
	return out
}

func (ro *RuleOperator) directives() []string {
	var out []string
	for _, r := range ro.BeforeReplace {
		out = append(out, "before replace "+r.PatternText+"|"+r.With)
	}
	if ro.RequirePermission != nil {
		line := "require perm " + ro.RequirePermission.Permission
		if ro.RequirePermission.DenyMessage != "" {
			line += " " + ro.RequirePermission.DenyMessage
		}
		out = append(out, line)
	}
	if ro.IgnorePermission != "" {
		out = append(out, "ignore perm "+ro.IgnorePermission)
	}
	if ro.RequireScript != "" {
		out = append(out, "require script "+ro.RequireScript)
	}
	if ro.IgnoreScript != "" {
		out = append(out, "ignore script "+ro.IgnoreScript)
	}
	if len(ro.RequireGamemodes) > 0 {
		out = append(out, "require gamemode "+strings.Join(ro.RequireGamemodes, " "))
	}
	if len(ro.IgnoreGamemodes) > 0 {
		out = append(out, "ignore gamemode "+strings.Join(ro.IgnoreGamemodes, " "))
	}
	if len(ro.RequireWorlds) > 0 {
		out = append(out, "require world "+strings.Join(ro.RequireWorlds, " "))
	}
	if len(ro.IgnoreWorlds) > 0 {
		out = append(out, "ignore world "+strings.Join(ro.IgnoreWorlds, " "))
	}
	if len(ro.RequireRegions) > 0 {
		out = append(out, "require region "+strings.Join(ro.RequireRegions, " "))
	}
	if len(ro.IgnoreRegions) > 0 {
		out = append(out, "ignore region "+strings.Join(ro.IgnoreRegions, " "))
	}
	for _, c := range ro.RequireChannels {
		out = append(out, strings.TrimSpace("require channel "+c.Channel+" "+c.Mode))
	}
	for _, c := range ro.IgnoreChannels {
		out = append(out, strings.TrimSpace("ignore channel "+c.Channel+" "+c.Mode))
	}
	if len(ro.Replacements) > 0 {
		out = append(out, "then replace "+strings.Join(ro.Replacements, "|"))
	}
	if len(ro.Rewrites) > 0 {
		out = append(out, "then rewrite "+strings.Join(ro.Rewrites, "|"))
	}
	worlds := make([]string, 0, len(ro.WorldRewrites))
	for w := range ro.WorldRewrites {
		worlds = append(worlds, w)
	}
	sort.Strings(worlds)
	for _, w := range worlds {
		out = append(out, "then rewrite in "+w+" "+strings.Join(ro.WorldRewrites[w], "|"))
	}
	return append(out, ro.Operator.directives()...)
}

// Directives renders the rule, opener line included.
func (r *Rule) Directives() []string {
	out := []string{"match " + r.PatternText}
	if r.Name != "" {
		out = append(out, "name "+r.Name)
	}
	if r.GroupName != "" {
		out = append(out, "group "+r.GroupName)
	}
	if len(r.IgnoreTypes) > 0 {
		types := make([]string, len(r.IgnoreTypes))
		for i, t := range r.IgnoreTypes {
			types[i] = string(t)
		}
		out = append(out, "ignore type "+strings.Join(types, " "))
	}
	if len(r.RequireTags) > 0 {
		tags := make([]string, len(r.RequireTags))
		for i, t := range r.RequireTags {
			tags[i] = string(t)
		}
		out = append(out, "require tag "+strings.Join(tags, " "))
	}
	return append(out, r.RuleOperator.directives()...)
}

func (g *Group) Directives() []string {
	return append([]string{"group " + g.Name}, g.RuleOperator.directives()...)
}

func (s *SideConditions) directives(side string) []string {
	var out []string
	if s.RequirePermission != nil {
		line := "require " + side + " perm " + s.RequirePermission.Permission
		if s.RequirePermission.DenyMessage != "" {
			line += " " + s.RequirePermission.DenyMessage
		}
		out = append(out, line)
	}
	if s.IgnorePermission != "" {
		out = append(out, "ignore "+side+" perm "+s.IgnorePermission)
	}
	if s.RequireScript != "" {
		out = append(out, "require "+side+" script "+s.RequireScript)
	}
	if s.IgnoreScript != "" {
		out = append(out, "ignore "+side+" script "+s.IgnoreScript)
	}
	emit := func(verb, kind string, vals []string) {
		if len(vals) > 0 {
			out = append(out, verb+" "+side+" "+kind+" "+strings.Join(vals, " "))
		}
	}
	emit("require", "gamemode", s.RequireGamemodes)
	emit("ignore", "gamemode", s.IgnoreGamemodes)
	emit("require", "world", s.RequireWorlds)
	emit("ignore", "world", s.IgnoreWorlds)
	emit("require", "region", s.RequireRegions)
	emit("ignore", "region", s.IgnoreRegions)
	emit("require", "channel", s.RequireChannels)
	emit("ignore", "channel", s.IgnoreChannels)
	return out
}

func (d *DeathConditions) directives() []string {
	var out []string
	if d.RequireKillerPermission != "" {
		out = append(out, "require killer perm "+d.RequireKillerPermission)
	}
	if d.RequireKillerScript != "" {
		out = append(out, "require killer script "+d.RequireKillerScript)
	}
	emit := func(line string, vals []string) {
		if len(vals) > 0 {
			out = append(out, line+" "+strings.Join(vals, " "))
		}
	}
	emit("require killer world", d.RequireKillerWorlds)
	emit("ignore killer world", d.IgnoreKillerWorlds)
	emit("require killer region", d.RequireKillerRegions)
	emit("ignore killer region", d.IgnoreKillerRegions)
	emit("require item", d.RequireItems)
	emit("ignore item", d.IgnoreItems)
	emit("require cause", d.RequireCauses)
	emit("ignore cause", d.IgnoreCauses)
	emit("require projectile", d.RequireProjectiles)
	emit("ignore projectile", d.IgnoreProjectiles)
	emit("require block", d.RequireBlocks)
	emit("ignore block", d.IgnoreBlocks)
	emit("require entity", d.RequireEntities)
	emit("ignore entity", d.IgnoreEntities)
	emit("require boss", d.RequireBossNames)
	if d.RequireDamage > 0 {
		out = append(out, "require damage "+formatFloat(d.RequireDamage))
	}
	return out
}

// Directives renders the player message. The messages: block comes last
// because list mode consumes every following line.
func (m *PlayerMessage) Directives() []string {
	out := []string{"group " + m.Group}
	if m.Prefix != "" {
		out = append(out, "prefix "+m.Prefix)
	}
	if m.Suffix != "" {
		out = append(out, "suffix "+m.Suffix)
	}
	if m.Bungee {
		out = append(out, "bungee")
	}
	if m.RequireSelf {
		out = append(out, "require self")
	}
	if m.IgnoreMatchText != "" {
		out = append(out, "ignore match "+m.IgnoreMatchText)
	}
	out = append(out, m.Sender.directives("sender")...)
	out = append(out, m.Receiver.directives("receiver")...)
	if m.Death != nil {
		out = append(out, m.Death.directives()...)
	}
	out = append(out, m.Operator.directives()...)
	if len(m.Messages) > 0 {
		out = append(out, "messages:")
		for _, msg := range m.Messages {
			lines := strings.Split(msg, "\n")
			out = append(out, "- "+lines[0])
			out = append(out, lines[1:]...)
		}
	}
	return out
}

func (s *WarnSet) Directives() []string {
	out := []string{"set " + s.Name}
	if s.Decay > 0 {
		out = append(out, "decay "+strconv.Itoa(s.Decay))
	}
	for _, a := range s.Actions {
		for _, c := range a.Commands {
			out = append(out, "action "+strconv.Itoa(a.Threshold)+" "+c)
		}
	}
	return out
}

// SerializeRules renders a whole rule file, imports first.
func SerializeRules(rules []*Rule, imports []EventType) string {
	var b strings.Builder
	for _, imp := range imports {
		b.WriteString("@import " + string(imp) + "\n")
	}
	for _, r := range rules {
		b.WriteString("\n" + strings.Join(r.Directives(), "\n") + "\n")
	}
	return b.String()
}

func SerializeGroups(groups map[string]*Group) string {
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString("\n" + strings.Join(groups[n].Directives(), "\n") + "\n")
	}
	return b.String()
}

func SerializeMessages(msgs []*PlayerMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString("\n" + strings.Join(m.Directives(), "\n") + "\n")
	}
	return b.String()
}

func SerializeWarnSets(sets map[string]*WarnSet) string {
	names := make([]string, 0, len(sets))
	for n := range sets {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString("\n" + strings.Join(sets[n].Directives(), "\n") + "\n")
	}
	return b.String()
}
