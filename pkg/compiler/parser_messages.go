// chatwarden/pkg/compiler/parser_messages.go

package compiler

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseMessages parses one broadcast message file. Each `group <name>`
// block describes one PlayerMessage operator; `messages:` switches the
// parser into list mode where `- ` lines append entries and unprefixed
// lines continue the previous entry on a new line.
func ParseMessages(typ MessageType, file, src string) ([]*PlayerMessage, error) {
	p := &parser{file: file}
	var msgs []*PlayerMessage
	seenGroups := make(map[string]bool)

	var cur *PlayerMessage
	var once *onceTracker
	listMode := false

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
			if seenGroups[rest] {
				return nil, p.errf("duplicate message group '%s'", rest)
			}
			cur = &PlayerMessage{Type: typ, Group: rest}
			if typ == MessageDeath {
				cur.Death = &DeathConditions{}
			}
			once = newOnceTracker()
			p.opName = rest
			seenGroups[rest] = true
			msgs = append(msgs, cur)
			listMode = false
			continue
		}

		if cur == nil {
			return nil, p.errf("directive '%s' outside of a group block", head)
		}

		if listMode {
			if strings.HasPrefix(line, "- ") {
				cur.Messages = append(cur.Messages, strings.TrimSpace(line[2:]))
			} else if len(cur.Messages) == 0 {
				return nil, p.errf("continuation line before any message entry")
			} else {
				// Multi-line message body: fold into the previous entry.
				cur.Messages[len(cur.Messages)-1] += "\n" + line
			}
			continue
		}

		if head == "message:" || head == "messages:" {
			if err := once.set(p, "messages:"); err != nil {
				return nil, err
			}
			listMode = true
			continue
		}

		if err := p.messageDirective(cur, once, head, rest); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

func (p *parser) messageDirective(m *PlayerMessage, once *onceTracker, head, rest string) error {
	switch head {
	case "prefix":
		if err := once.set(p, "prefix"); err != nil {
			return err
		}
		m.Prefix = rest
		return nil

	case "suffix":
		if err := once.set(p, "suffix"); err != nil {
			return err
		}
		m.Suffix = rest
		return nil

	case "bungee":
		if err := once.set(p, "bungee"); err != nil {
			return err
		}
		m.Bungee = true
		return nil

	case "require":
		sub, arg := splitHead(rest)
		switch sub {
		case "self":
			if err := once.set(p, "require self"); err != nil {
				return err
			}
			m.RequireSelf = true
			return nil
		case "sender":
			return p.sideDirective(&m.Sender, once, "require sender", arg, true)
		case "receiver":
			return p.sideDirective(&m.Receiver, once, "require receiver", arg, true)
		}
		if m.Death != nil {
			if handled, err := p.deathRequire(m.Death, once, sub, arg); handled || err != nil {
				return err
			}
		}

	case "ignore":
		sub, arg := splitHead(rest)
		switch sub {
		case "match":
			if err := once.set(p, "ignore match"); err != nil {
				return err
			}
			re, err := regexp.Compile(arg)
			if err != nil {
				return p.errf("malformed pattern '%s': %v", arg, err)
			}
			m.IgnoreMatch = re
			m.IgnoreMatchText = arg
			return nil
		case "sender":
			return p.sideDirective(&m.Sender, once, "ignore sender", arg, false)
		case "receiver":
			return p.sideDirective(&m.Receiver, once, "ignore receiver", arg, false)
		}
		if m.Death != nil {
			if handled, err := p.deathIgnore(m.Death, sub, arg); handled || err != nil {
				return err
			}
		}
	}

	if handled, err := p.opDirective(&m.Operator, once, head, rest); handled || err != nil {
		return err
	}
	return p.errf("unknown directive '%s'", head)
}

func (p *parser) sideDirective(s *SideConditions, once *onceTracker, prefix, arg string, require bool) error {
	sub, value := splitHead(arg)
	switch sub {
	case "perm":
		if err := once.set(p, prefix+" perm"); err != nil {
			return err
		}
		if require {
			perm, msg := splitHead(value)
			if perm == "" {
				return p.errf("%s perm needs a permission", prefix)
			}
			s.RequirePermission = &PermissionCondition{Permission: perm, DenyMessage: msg}
		} else {
			s.IgnorePermission = value
		}
	case "script":
		if err := once.set(p, prefix+" script"); err != nil {
			return err
		}
		if require {
			s.RequireScript = value
		} else {
			s.IgnoreScript = value
		}
	case "gamemode":
		if require {
			s.RequireGamemodes = append(s.RequireGamemodes, strings.Fields(value)...)
		} else {
			s.IgnoreGamemodes = append(s.IgnoreGamemodes, strings.Fields(value)...)
		}
	case "world":
		if require {
			s.RequireWorlds = append(s.RequireWorlds, strings.Fields(value)...)
		} else {
			s.IgnoreWorlds = append(s.IgnoreWorlds, strings.Fields(value)...)
		}
	case "region":
		if require {
			s.RequireRegions = append(s.RequireRegions, strings.Fields(value)...)
		} else {
			s.IgnoreRegions = append(s.IgnoreRegions, strings.Fields(value)...)
		}
	case "channel":
		if require {
			s.RequireChannels = append(s.RequireChannels, strings.Fields(value)...)
		} else {
			s.IgnoreChannels = append(s.IgnoreChannels, strings.Fields(value)...)
		}
	default:
		return p.errf("unknown directive '%s %s'", prefix, sub)
	}
	return nil
}

func (p *parser) deathRequire(d *DeathConditions, once *onceTracker, sub, arg string) (bool, error) {
	switch sub {
	case "killer":
		kind, value := splitHead(arg)
		switch kind {
		case "perm":
			if err := once.set(p, "require killer perm"); err != nil {
				return false, err
			}
			d.RequireKillerPermission = value
		case "script":
			if err := once.set(p, "require killer script"); err != nil {
				return false, err
			}
			d.RequireKillerScript = value
		case "world":
			d.RequireKillerWorlds = append(d.RequireKillerWorlds, strings.Fields(value)...)
		case "region":
			d.RequireKillerRegions = append(d.RequireKillerRegions, strings.Fields(value)...)
		default:
			return false, p.errf("unknown directive 'require killer %s'", kind)
		}
	case "item":
		d.RequireItems = append(d.RequireItems, strings.Fields(arg)...)
	case "cause":
		d.RequireCauses = append(d.RequireCauses, strings.Fields(arg)...)
	case "projectile":
		d.RequireProjectiles = append(d.RequireProjectiles, strings.Fields(arg)...)
	case "block":
		d.RequireBlocks = append(d.RequireBlocks, strings.Fields(arg)...)
	case "entity":
		d.RequireEntities = append(d.RequireEntities, strings.Fields(arg)...)
	case "boss":
		d.RequireBossNames = append(d.RequireBossNames, strings.Fields(arg)...)
	case "damage":
		if err := once.set(p, "require damage"); err != nil {
			return false, err
		}
		min, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return false, p.errf("malformed damage amount '%s'", arg)
		}
		d.RequireDamage = min
	default:
		return false, nil
	}
	return true, nil
}

func (p *parser) deathIgnore(d *DeathConditions, sub, arg string) (bool, error) {
	switch sub {
	case "killer":
		kind, value := splitHead(arg)
		switch kind {
		case "world":
			d.IgnoreKillerWorlds = append(d.IgnoreKillerWorlds, strings.Fields(value)...)
		case "region":
			d.IgnoreKillerRegions = append(d.IgnoreKillerRegions, strings.Fields(value)...)
		default:
			return false, p.errf("unknown directive 'ignore killer %s'", kind)
		}
	case "item":
		d.IgnoreItems = append(d.IgnoreItems, strings.Fields(arg)...)
	case "cause":
		d.IgnoreCauses = append(d.IgnoreCauses, strings.Fields(arg)...)
	case "projectile":
		d.IgnoreProjectiles = append(d.IgnoreProjectiles, strings.Fields(arg)...)
	case "block":
		d.IgnoreBlocks = append(d.IgnoreBlocks, strings.Fields(arg)...)
	case "entity":
		d.IgnoreEntities = append(d.IgnoreEntities, strings.Fields(arg)...)
	default:
		return false, nil
	}
	return true, nil
}
