// chatwarden/pkg/compiler/parser.go

package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chatwarden/pkg/logging"
)

// expiryLayouts are the accepted formats for the expires directive.
var expiryLayouts = []string{
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	time.RFC3339,
}

type parser struct {
	file   string
	lineNo int
	opName string
}

func (p *parser) errf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return logging.NewError(logging.ErrorTypeParse,
		fmt.Sprintf("%s:%d: %s", p.file, p.lineNo, msg), nil,
		map[string]interface{}{
			"file":     p.file,
			"line":     p.lineNo,
			"operator": p.opName,
		})
}

// onceTracker rejects a second occurrence of a single-valued directive
// on the same operator.
type onceTracker struct {
	seen map[string]bool
}

func newOnceTracker() *onceTracker {
	return &onceTracker{seen: make(map[string]bool)}
}

func (t *onceTracker) set(p *parser, directive string) error {
	if t.seen[directive] {
		return p.errf("duplicate directive '%s'", directive)
	}
	t.seen[directive] = true
	return nil
}

// splitHead splits a line into its first token and the trimmed rest.
func splitHead(s string) (string, string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

func parseDelayDuration(n int, unit string) (time.Duration, error) {
	switch strings.TrimSuffix(unit, "s") {
	case "tick":
		return time.Duration(n) * 50 * time.Millisecond, nil
	case "second":
		return time.Duration(n) * time.Second, nil
	case "minute":
		return time.Duration(n) * time.Minute, nil
	case "hour":
		return time.Duration(n) * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown delay unit '%s'", unit)
}

func parseExpiry(s string) (time.Time, error) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date '%s'", s)
}

// opDirective consumes a directive understood by every operator kind.
// It reports false for tokens it does not own so callers can fall
// through to more specific layers.
func (p *parser) opDirective(o *Operator, once *onceTracker, head, rest string) (bool, error) {
	switch head {
	case "expires":
		if err := once.set(p, "expires"); err != nil {
			return false, err
		}
		t, err := parseExpiry(rest)
		if err != nil {
			return false, p.errf("%v", err)
		}
		o.Expires = t
		return true, nil

	case "delay":
		if err := once.set(p, "delay"); err != nil {
			return false, err
		}
		amount, unitAndMsg := splitHead(rest)
		unit, msg := splitHead(unitAndMsg)
		n, err := strconv.Atoi(amount)
		if err != nil {
			return false, p.errf("malformed delay amount '%s'", amount)
		}
		d, err := parseDelayDuration(n, unit)
		if err != nil {
			return false, p.errf("%v", err)
		}
		o.Delay = &Delay{Duration: d, Message: msg}
		return true, nil

	case "disabled":
		if err := once.set(p, "disabled"); err != nil {
			return false, err
		}
		o.Disabled = true
		return true, nil

	case "dont":
		switch rest {
		case "log":
			if err := once.set(p, "dont log"); err != nil {
				return false, err
			}
			o.IgnoreLogging = true
			return true, nil
		case "verbose":
			if err := once.set(p, "dont verbose"); err != nil {
				return false, err
			}
			o.IgnoreVerbose = true
			return true, nil
		}
		return false, p.errf("unknown directive 'dont %s'", rest)

	case "require", "ignore":
		sub, subRest := splitHead(rest)
		if sub != "key" {
			return false, nil
		}
		key, script := splitHead(subRest)
		if key == "" {
			return false, p.errf("%s key needs a key name", head)
		}
		req := DataRequirement{Key: key, Script: script}
		if head == "require" {
			o.RequireData = append(o.RequireData, req)
		} else {
			o.IgnoreData = append(o.IgnoreData, req)
		}
		return true, nil

	case "then":
		return p.thenDirective(o, once, rest)
	}
	return false, nil
}

func (p *parser) thenDirective(o *Operator, once *onceTracker, rest string) (bool, error) {
	action, value := splitHead(rest)
	switch action {
	case "command":
		o.PlayerCommands = append(o.PlayerCommands, value)
	case "console":
		o.ConsoleCommands = append(o.ConsoleCommands, value)
	case "log":
		o.ConsoleLog = append(o.ConsoleLog, value)
	case "bungeeconsole":
		server, cmd := splitHead(value)
		if server == "" || cmd == "" {
			return false, p.errf("then bungeeconsole needs a server and a command")
		}
		o.BungeeCommands = append(o.BungeeCommands, BungeeCommand{Server: server, Command: cmd})
	case "kick":
		if err := once.set(p, "then kick"); err != nil {
			return false, err
		}
		o.Kick = value
	case "toast":
		if err := once.set(p, "then toast"); err != nil {
			return false, err
		}
		o.Toast = value
	case "title":
		if err := once.set(p, "then title"); err != nil {
			return false, err
		}
		parts := strings.SplitN(value, "|", 2)
		o.Title = parts[0]
		if len(parts) > 1 {
			o.Subtitle = parts[1]
		}
	case "actionbar":
		if err := once.set(p, "then actionbar"); err != nil {
			return false, err
		}
		o.ActionBar = value
	case "bossbar":
		if err := once.set(p, "then bossbar"); err != nil {
			return false, err
		}
		o.BossBar = value
	case "book":
		if err := once.set(p, "then book"); err != nil {
			return false, err
		}
		o.Book = value
	case "fine":
		if err := once.set(p, "then fine"); err != nil {
			return false, err
		}
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false, p.errf("malformed fine amount '%s'", value)
		}
		o.Fine = amount
	case "notify":
		perm, msg := splitHead(value)
		if perm == "" || msg == "" {
			return false, p.errf("then notify needs a permission and a message")
		}
		o.Notify = append(o.Notify, Notify{Permission: perm, Message: msg})
	case "channel":
		ch, msg := splitHead(value)
		if ch == "" || msg == "" {
			return false, p.errf("then channel needs a channel and a message")
		}
		o.Channels = append(o.Channels, ChannelRelay{Channel: ch, Message: msg})
	case "write":
		file, line := splitHead(value)
		if file == "" || line == "" {
			return false, p.errf("then write needs a file and a line")
		}
		o.Files = append(o.Files, FileWrite{File: file, Line: line})
	case "points":
		set, amountStr := splitHead(value)
		amount, err := strconv.ParseFloat(amountStr, 64)
		if set == "" || err != nil {
			return false, p.errf("then points needs a set name and a numeric amount")
		}
		o.Points = append(o.Points, PointsGrant{Set: set, Amount: amount})
	case "warn":
		id, msg := splitHead(value)
		if id == "" || msg == "" {
			return false, p.errf("then warn needs an id and a message")
		}
		o.Warns = append(o.Warns, WarnEntry{ID: id, Message: msg})
	case "sound":
		o.Sounds = append(o.Sounds, value)
	case "save":
		key, script := splitHead(value)
		if key == "" || script == "" {
			return false, p.errf("then save needs a key and a value script")
		}
		o.SaveData = append(o.SaveData, DataRequirement{Key: key, Script: script})
	case "abort":
		if err := once.set(p, "then abort"); err != nil {
			return false, err
		}
		o.Abort = true
	case "deny":
		if err := once.set(p, "then deny"); err != nil {
			return false, err
		}
		if value == "silently" || strings.HasPrefix(value, "silently ") {
			o.DenySilently = true
		} else {
			o.Deny = true
			o.DenyMessage = value
		}
	default:
		return false, nil
	}
	return true, nil
}

// ruleOpDirective consumes directives shared by rules and groups:
// pattern-oriented conditions and text transforms.
func (p *parser) ruleOpDirective(ro *RuleOperator, once *onceTracker, head, rest string) (bool, error) {
	switch head {
	case "before":
		sub, arg := splitHead(rest)
		if sub != "replace" {
			return false, p.errf("unknown directive 'before %s'", sub)
		}
		parts := strings.SplitN(arg, "|", 2)
		if len(parts) != 2 {
			return false, p.errf("before replace needs 'pattern|replacement'")
		}
		re, err := regexp.Compile(parts[0])
		if err != nil {
			return false, p.errf("malformed pattern '%s': %v", parts[0], err)
		}
		ro.BeforeReplace = append(ro.BeforeReplace, Replacement{
			Pattern: re, PatternText: parts[0], With: parts[1],
		})
		return true, nil

	case "require":
		sub, arg := splitHead(rest)
		switch sub {
		case "perm":
			if err := once.set(p, "require perm"); err != nil {
				return false, err
			}
			perm, msg := splitHead(arg)
			if perm == "" {
				return false, p.errf("require perm needs a permission")
			}
			ro.RequirePermission = &PermissionCondition{Permission: perm, DenyMessage: msg}
		case "script":
			if err := once.set(p, "require script"); err != nil {
				return false, err
			}
			ro.RequireScript = arg
		case "gamemode":
			ro.RequireGamemodes = append(ro.RequireGamemodes, strings.Fields(arg)...)
		case "world":
			ro.RequireWorlds = append(ro.RequireWorlds, strings.Fields(arg)...)
		case "region":
			ro.RequireRegions = append(ro.RequireRegions, strings.Fields(arg)...)
		case "channel":
			ch, mode := splitHead(arg)
			if ch == "" {
				return false, p.errf("require channel needs a channel name")
			}
			ro.RequireChannels = append(ro.RequireChannels, ChannelCondition{Channel: ch, Mode: mode})
		default:
			return false, nil
		}
		return true, nil

	case "ignore":
		sub, arg := splitHead(rest)
		switch sub {
		case "perm":
			if err := once.set(p, "ignore perm"); err != nil {
				return false, err
			}
			ro.IgnorePermission = arg
		case "script":
			if err := once.set(p, "ignore script"); err != nil {
				return false, err
			}
			ro.IgnoreScript = arg
		case "gamemode":
			ro.IgnoreGamemodes = append(ro.IgnoreGamemodes, strings.Fields(arg)...)
		case "world":
			ro.IgnoreWorlds = append(ro.IgnoreWorlds, strings.Fields(arg)...)
		case "region":
			ro.IgnoreRegions = append(ro.IgnoreRegions, strings.Fields(arg)...)
		case "channel":
			ch, mode := splitHead(arg)
			if ch == "" {
				return false, p.errf("ignore channel needs a channel name")
			}
			ro.IgnoreChannels = append(ro.IgnoreChannels, ChannelCondition{Channel: ch, Mode: mode})
		default:
			return false, nil
		}
		return true, nil

	case "then":
		action, value := splitHead(rest)
		switch action {
		case "replace":
			ro.Replacements = append(ro.Replacements, strings.Split(value, "|")...)
		case "rewrite":
			if world, candidates := splitHead(strings.TrimPrefix(value, "in ")); strings.HasPrefix(value, "in ") {
				if ro.WorldRewrites == nil {
					ro.WorldRewrites = make(map[string][]string)
				}
				ro.WorldRewrites[world] = append(ro.WorldRewrites[world], strings.Split(candidates, "|")...)
			} else {
				ro.Rewrites = append(ro.Rewrites, strings.Split(value, "|")...)
			}
		default:
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

// ParseRules parses one rule definition file into its operator list and
// the list of imported types, in declared order.
func ParseRules(typ EventType, file, src string) ([]*Rule, []EventType, error) {
	p := &parser{file: file}
	var rules []*Rule
	var imports []EventType
	seenPatterns := make(map[string]bool)

	var cur *Rule
	var once *onceTracker

	for i, raw := range strings.Split(src, "\n") {
		p.lineNo = i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		head, rest := splitHead(line)

		switch head {
		case "match":
			if rest == "" {
				return nil, nil, p.errf("match needs a pattern")
			}
			if seenPatterns[rest] {
				return nil, nil, p.errf("duplicate rule pattern '%s'", rest)
			}
			re, err := regexp.Compile(rest)
			if err != nil {
				return nil, nil, p.errf("malformed pattern '%s': %v", rest, err)
			}
			cur = &Rule{Type: typ, Pattern: re, PatternText: rest}
			once = newOnceTracker()
			p.opName = rest
			seenPatterns[rest] = true
			rules = append(rules, cur)
			continue

		case "@import":
			if cur != nil {
				return nil, nil, p.errf("@import must appear before the first match")
			}
			imp, ok := ParseEventType(rest)
			if !ok {
				return nil, nil, p.errf("unknown import type '%s'", rest)
			}
			imports = append(imports, imp)
			continue
		}

		if cur == nil {
			return nil, nil, p.errf("directive '%s' outside of a match block", head)
		}
		if err := p.ruleDirective(cur, once, head, rest); err != nil {
			return nil, nil, err
		}
	}
	return rules, imports, nil
}

func (p *parser) ruleDirective(r *Rule, once *onceTracker, head, rest string) error {
	switch head {
	case "name":
		if err := once.set(p, "name"); err != nil {
			return err
		}
		r.Name = rest
		return nil

	case "group":
		if err := once.set(p, "group"); err != nil {
			return err
		}
		if rest == "" {
			return p.errf("group needs a name")
		}
		r.GroupName = rest
		return nil

	case "ignore":
		if sub, arg := splitHead(rest); sub == "type" {
			if r.Type != EventGlobal {
				return p.errf("ignore type is only valid in global rules")
			}
			for _, f := range strings.Fields(arg) {
				t, ok := ParseEventType(f)
				if !ok {
					return p.errf("unknown event type '%s'", f)
				}
				r.IgnoreTypes = append(r.IgnoreTypes, t)
			}
			return nil
		}

	case "require":
		if sub, arg := splitHead(rest); sub == "tag" {
			if r.Type != EventTag {
				return p.errf("require tag is only valid in tag rules")
			}
			for _, f := range strings.Fields(arg) {
				k, ok := ParseTagKind(f)
				if !ok {
					return p.errf("unknown tag kind '%s'", f)
				}
				r.RequireTags = append(r.RequireTags, k)
			}
			return nil
		}
	}

	if handled, err := p.ruleOpDirective(&r.RuleOperator, once, head, rest); handled || err != nil {
		return err
	}
	if handled, err := p.opDirective(&r.Operator, once, head, rest); handled || err != nil {
		return err
	}
	return p.errf("unknown directive '%s'", head)
}

// ParseGroups parses the shared groups file.
func ParseGroups(file, src string) (map[string]*Group, error) {
	p := &parser{file: file}
	groups := make(map[string]*Group)

	var cur *Group
	var once *onceTracker

	for i, raw := range strings.Split(src, "\n") {
		p.lineNo = i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		head, rest := splitHead(line)

		if head == "group" {
			if rest == "" {
				return nil, p.errf("group needs a name")
			}
			if _, dup := groups[rest]; dup {
				return nil, p.errf("duplicate group '%s'", rest)
			}
			cur = &Group{Name: rest}
			once = newOnceTracker()
			p.opName = rest
			groups[rest] = cur
			continue
		}

		if cur == nil {
			return nil, p.errf("directive '%s' outside of a group block", head)
		}
		if handled, err := p.ruleOpDirective(&cur.RuleOperator, once, head, rest); handled || err != nil {
			if err != nil {
				return nil, err
			}
			continue
		}
		if handled, err := p.opDirective(&cur.Operator, once, head, rest); handled || err != nil {
			if err != nil {
				return nil, err
			}
			continue
		}
		return nil, p.errf("unknown directive '%s'", head)
	}
	return groups, nil
}
