// chatwarden/pkg/compiler/parser_warnsets.go

package compiler

import (
	"strconv"
	"strings"
)

// ParseWarnSets parses the warning point sets file:
//
//	set <name>
//	decay <amount>
//	action <threshold> <command line>
//
// Repeated action lines for the same threshold append to that action's
// command list, so two distinct actions can never share a threshold.
func ParseWarnSets(file, src string) (map[string]*WarnSet, error) {
	p := &parser{file: file}
	sets := make(map[string]*WarnSet)

	var cur *WarnSet
	var once *onceTracker

	for i, raw := range strings.Split(src, "\n") {
		p.lineNo = i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		head, rest := splitHead(line)

		switch head {
		case "set":
			if rest == "" {
				return nil, p.errf("set needs a name")
			}
			if _, dup := sets[rest]; dup {
				return nil, p.errf("duplicate warn set '%s'", rest)
			}
			cur = &WarnSet{Name: rest}
			once = newOnceTracker()
			p.opName = rest
			sets[rest] = cur

		case "decay":
			if cur == nil {
				return nil, p.errf("decay outside of a set block")
			}
			if err := once.set(p, "decay"); err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 {
				return nil, p.errf("malformed decay amount '%s'", rest)
			}
			cur.Decay = n

		case "action":
			if cur == nil {
				return nil, p.errf("action outside of a set block")
			}
			thresholdStr, command := splitHead(rest)
			threshold, err := strconv.Atoi(thresholdStr)
			if err != nil || threshold < 1 {
				return nil, p.errf("malformed action threshold '%s'", thresholdStr)
			}
			if command == "" {
				return nil, p.errf("action needs a command line")
			}
			appended := false
			for j := range cur.Actions {
				if cur.Actions[j].Threshold == threshold {
					cur.Actions[j].Commands = append(cur.Actions[j].Commands, command)
					appended = true
					break
				}
			}
			if !appended {
				cur.Actions = append(cur.Actions, WarnAction{
					Threshold: threshold,
					Commands:  []string{command},
				})
			}

		default:
			return nil, p.errf("unknown directive '%s'", head)
		}
	}

	for _, set := range sets {
		set.sortActions()
	}
	return sets, nil
}
