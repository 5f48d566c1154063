// chatwarden/pkg/runtime/engine.go

package runtime

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"chatwarden/pkg/compiler"
	"chatwarden/pkg/logging"
	"chatwarden/pkg/scripting"
	"chatwarden/pkg/store"
)

const (
	defaultRegexTimeout  = 100 * time.Millisecond
	defaultScriptTimeout = 500 * time.Millisecond
	defaultWarnWindow    = 500 * time.Millisecond
	regexWarnInterval    = 30 * time.Minute
)

// Result is the outcome of one filter pass over an event that was not
// terminally denied.
type Result struct {
	Text              string
	ConsoleLog        string
	CancelledSilently bool
}

// DenyError is the terminal deny signal: the triggering event must be
// rejected by the caller. Message may be empty.
type DenyError struct {
	Message string
}

func (e *DenyError) Error() string {
	if e.Message == "" {
		return "message denied"
	}
	return "message denied: " + e.Message
}

// outcome is the per-operator control flow result.
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeAbort
	outcomeDeny
	outcomeDenySilent
)

// Stats are the engine's monotonic counters, streamed by the dashboard.
type Stats struct {
	EventsFiltered uint64 `json:"events_filtered"`
	RulesMatched   uint64 `json:"rules_matched"`
	Denies         uint64 `json:"denies"`
	SilentCancels  uint64 `json:"silent_cancels"`
	Broadcasts     uint64 `json:"broadcasts"`
	PointsGiven    uint64 `json:"points_given"`
}

type engineStats struct {
	eventsFiltered atomic.Uint64
	rulesMatched   atomic.Uint64
	denies         atomic.Uint64
	silentCancels  atomic.Uint64
	broadcasts     atomic.Uint64
	pointsGiven    atomic.Uint64
}

// PointsConfig tunes the warning points subsystem.
type PointsConfig struct {
	ExemptPermission   string
	NewcomerWindow     time.Duration
	NewcomerMultiplier float64
	WarnPrefix         string
}

// Engine evaluates events against a loaded rule set. The rule table is
// swapped wholesale on reload; evaluation itself runs on the host's
// single simulation thread.
type Engine struct {
	platform Platform
	store    store.Store
	vm       *scripting.SafeVM
	rules    atomic.Pointer[compiler.RuleSet]

	RegexTimeout     time.Duration
	ScriptTimeout    time.Duration
	WarnWindow       time.Duration
	StopOnFirstMatch bool
	Points           PointsConfig

	// OnRuleMatch is the cancellable "rule matched" notification. A
	// false return suppresses the matched operator's actions only.
	OnRuleMatch func(rule *compiler.Rule, sender, matched string) bool

	// now is the clock, replaceable in tests.
	now func() time.Time

	lastRegexWarning time.Time
	recentWarns      map[string]time.Time
	stats            engineStats
}

// NewEngine builds an engine around a platform and store. The rule set
// starts empty; call Swap with a loaded table.
func NewEngine(platform Platform, st store.Store) *Engine {
	e := &Engine{
		platform:         NewPlatform(platform),
		store:            st,
		vm:               scripting.NewSafeVM(),
		RegexTimeout:     defaultRegexTimeout,
		ScriptTimeout:    defaultScriptTimeout,
		WarnWindow:       defaultWarnWindow,
		StopOnFirstMatch: true,
		Points: PointsConfig{
			ExemptPermission:   "chatwarden.points.exempt",
			NewcomerMultiplier: 1,
		},
		now:         time.Now,
		recentWarns: make(map[string]time.Time),
	}
	e.rules.Store(compiler.NewRuleSet())
	return e
}

// Swap atomically replaces the loaded rule table. In-flight evaluations
// finish against the old table.
func (e *Engine) Swap(rs *compiler.RuleSet) {
	e.rules.Store(rs)
	log.Info().Msg("Rule set swapped")
}

// RuleSet returns the currently loaded table.
func (e *Engine) RuleSet() *compiler.RuleSet {
	return e.rules.Load()
}

// GetStats snapshots the engine counters.
func (e *Engine) GetStats() Stats {
	return Stats{
		EventsFiltered: e.stats.eventsFiltered.Load(),
		RulesMatched:   e.stats.rulesMatched.Load(),
		Denies:         e.stats.denies.Load(),
		SilentCancels:  e.stats.silentCancels.Load(),
		Broadcasts:     e.stats.broadcasts.Load(),
		PointsGiven:    e.stats.pointsGiven.Load(),
	}
}

// filterContext carries the state of one firing pass.
type filterContext struct {
	evtType compiler.EventType
	sender  PlayerInfo
	channel string
	text    string
	tagKind compiler.TagKind // tag events only

	consoleLog        []string
	cancelledSilently bool

	// Dedup state for this pass.
	sentNotify map[string]bool
	warned     bool
}

func (f *filterContext) vars() map[string]string {
	return map[string]string{
		"player":  f.sender.Name,
		"world":   f.sender.World,
		"channel": f.channel,
		"message": f.text,
	}
}

// Filter evaluates one textual event against the effective operator
// list for its type. It returns the possibly transformed text, or a
// *DenyError if an operator terminally denied the event.
func (e *Engine) Filter(typ compiler.EventType, sender, text, channel string) (*Result, error) {
	return e.filter(typ, sender, text, channel, "")
}

// FilterTag evaluates one tag slot change (prefix, nick or suffix). Tag
// rules restricted to other slots are skipped.
func (e *Engine) FilterTag(sender string, kind compiler.TagKind, text string) (*Result, error) {
	return e.filter(compiler.EventTag, sender, text, "", kind)
}

func (e *Engine) filter(typ compiler.EventType, sender, text, channel string, kind compiler.TagKind) (*Result, error) {
	e.stats.eventsFiltered.Add(1)

	info, _ := e.platform.Players.Lookup(sender)
	if info.Name == "" {
		info.Name = sender
	}
	fctx := &filterContext{
		evtType:    typ,
		sender:     info,
		channel:    channel,
		text:       text,
		tagKind:    kind,
		sentNotify: make(map[string]bool),
	}

	rs := e.rules.Load()
	for _, rule := range rs.Effective(typ) {
		out, denyMsg := e.evalRuleSafe(fctx, rule)
		switch out {
		case outcomeDeny:
			e.stats.denies.Add(1)
			return nil, &DenyError{Message: denyMsg}
		case outcomeDenySilent:
			fctx.cancelledSilently = true
		case outcomeAbort:
			return e.result(fctx), nil
		}
	}
	return e.result(fctx), nil
}

func (e *Engine) result(fctx *filterContext) *Result {
	if fctx.cancelledSilently {
		e.stats.silentCancels.Add(1)
	}
	return &Result{
		Text:              fctx.text,
		ConsoleLog:        strings.Join(fctx.consoleLog, "\n"),
		CancelledSilently: fctx.cancelledSilently,
	}
}

// evalRuleSafe fault-isolates one operator: a panic during its
// condition check or actions is logged with the operator's textual form
// and evaluation continues with the next operator.
func (e *Engine) evalRuleSafe(fctx *filterContext, rule *compiler.Rule) (out outcome, denyMsg string) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError(logging.Logger, logging.NewError(logging.ErrorTypeEval,
				fmt.Sprintf("operator evaluation panicked: %v", r), nil,
				map[string]interface{}{
					"type":     fctx.evtType,
					"operator": strings.Join(rule.Directives(), "; "),
				}))
			out = outcomeContinue
		}
	}()
	return e.evalRule(fctx, rule)
}

func (e *Engine) evalRule(fctx *filterContext, rule *compiler.Rule) (outcome, string) {
	now := e.now()
	if rule.Disabled || rule.Expired(now) {
		return outcomeContinue, ""
	}
	if rule.Type == compiler.EventGlobal && rule.IgnoresType(fctx.evtType) {
		return outcomeContinue, ""
	}
	if len(rule.RequireTags) > 0 && !hasTag(rule.RequireTags, fctx.tagKind) {
		return outcomeContinue, ""
	}

	// Pattern matching runs against a scratch copy; the canonical text
	// is only changed by replace/rewrite actions.
	scratch := fctx.text
	for _, br := range rule.BeforeReplace {
		scratch = br.Pattern.ReplaceAllString(scratch, br.With)
	}

	groups, matched := e.findWithTimeout(rule.Pattern, scratch)
	if !matched {
		return outcomeContinue, ""
	}

	// The cooldown gate runs only once the pattern actually matched, so
	// an unrelated event never triggers the cooldown warning.
	if rule.OnCooldown(now) {
		if rule.Delay.Message != "" {
			e.platform.Delivery.Message(fctx.sender.Name, render(rule.Delay.Message, nil, fctx.vars()))
		}
		return outcomeContinue, ""
	}

	pass, out, denyMsg := e.checkRuleOperator(fctx, &rule.RuleOperator)
	if out != outcomeContinue {
		return out, denyMsg
	}
	if !pass {
		return outcomeContinue, ""
	}

	e.stats.rulesMatched.Add(1)
	if e.OnRuleMatch != nil && !e.OnRuleMatch(rule, fctx.sender.Name, groups[0]) {
		return outcomeContinue, ""
	}

	if !rule.IgnoreVerbose {
		logging.Logger.Debug().
			Str("type", string(fctx.evtType)).
			Str("pattern", rule.PatternText).
			Str("player", fctx.sender.Name).
			Msg("Rule matched")
	}

	out, denyMsg = e.executeActions(fctx, &rule.RuleOperator, rule.Pattern, groups)
	rule.LastExecuted = now

	abort := rule.Abort
	if g := rule.Group; g != nil && !g.Disabled && !g.Expired(now) {
		if g.OnCooldown(now) {
			if g.Delay.Message != "" {
				e.platform.Delivery.Message(fctx.sender.Name, render(g.Delay.Message, nil, fctx.vars()))
			}
		} else {
			// The group is gated and fired against the same match context.
			gpass, gout, gdeny := e.checkRuleOperator(fctx, &g.RuleOperator)
			if gout != outcomeContinue {
				return gout, gdeny
			}
			if gpass {
				gOut, gDenyMsg := e.executeActions(fctx, &g.RuleOperator, rule.Pattern, groups)
				g.LastExecuted = now
				if out == outcomeContinue {
					out, denyMsg = gOut, gDenyMsg
				}
				if g.Abort {
					abort = true
				}
			}
		}
	}

	// Abort is raised only after both the rule's and the group's
	// actions have run; it stops iteration without denying the event.
	if out == outcomeContinue && abort {
		return outcomeAbort, ""
	}
	return out, denyMsg
}

func hasTag(tags []compiler.TagKind, kind compiler.TagKind) bool {
	for _, t := range tags {
		if t == kind {
			return true
		}
	}
	return false
}

// findWithTimeout runs a first-occurrence regex find, time-boxed. A
// timeout is treated as no-match, with a console notice rate-limited to
// one per 30 minutes.
func (e *Engine) findWithTimeout(pattern *regexp.Regexp, text string) ([]string, bool) {
	type findResult struct {
		groups []string
		ok     bool
	}
	done := make(chan findResult, 1)
	go func() {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			done <- findResult{nil, false}
			return
		}
		done <- findResult{m, true}
	}()

	timer := time.NewTimer(e.RegexTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.groups, r.ok
	case <-timer.C:
		now := e.now()
		if now.Sub(e.lastRegexWarning) >= regexWarnInterval {
			e.lastRegexWarning = now
			logging.Logger.Warn().
				Str("pattern", pattern.String()).
				Dur("timeout", e.RegexTimeout).
				Msg("Regex evaluation timed out; pattern treated as non-matching")
		}
		return nil, false
	}
}
