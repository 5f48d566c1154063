// chatwarden/pkg/compiler/operator.go

package compiler

import (
	"time"
)

// EventType tags the rule lists a filtered event is evaluated against.
type EventType string

const (
	EventGlobal  EventType = "global"
	EventChat    EventType = "chat"
	EventCommand EventType = "command"
	EventPacket  EventType = "packet"
	EventSign    EventType = "sign"
	EventBook    EventType = "book"
	EventAnvil   EventType = "anvil"
	EventTag     EventType = "tag"
)

// EventTypes lists every rule event type in evaluation order.
var EventTypes = []EventType{
	EventGlobal, EventChat, EventCommand, EventPacket,
	EventSign, EventBook, EventAnvil, EventTag,
}

func ParseEventType(s string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// DataRequirement is a require/ignore/save entry against the sender's
// data store. Script is optional; for save entries it produces the
// stored value, for require/ignore it gates on the stored value.
type DataRequirement struct {
	Key    string
	Script string
}

// Delay is a per-operator cooldown. The cooldown clock lives on the
// operator definition, so it is shared by every sender.
type Delay struct {
	Duration time.Duration
	Message  string
}

type BungeeCommand struct {
	Server  string
	Command string
}

type Notify struct {
	Permission string
	Message    string
}

type ChannelRelay struct {
	Channel string
	Message string
}

type FileWrite struct {
	File string
	Line string
}

type PointsGrant struct {
	Set    string
	Amount float64
}

// WarnEntry is a deduplicated warning message. Messages sharing an ID
// are shown at most once per dedup window across one firing pass.
type WarnEntry struct {
	ID      string
	Message string
}

// Operator is the capability bag shared by every parsed unit: rules,
// groups and player messages. Fields are immutable after parsing except
// LastExecuted, which the evaluation thread updates for cooldowns.
type Operator struct {
	RequireData []DataRequirement
	IgnoreData  []DataRequirement
	SaveData    []DataRequirement

	Expires time.Time // zero means never
	Delay   *Delay

	PlayerCommands  []string
	ConsoleCommands []string
	BungeeCommands  []BungeeCommand
	ConsoleLog      []string

	Kick      string
	Toast     string
	Title     string
	Subtitle  string
	ActionBar string
	BossBar   string
	Fine      float64

	Notify   []Notify
	Channels []ChannelRelay
	Files    []FileWrite
	Points   []PointsGrant
	Warns    []WarnEntry

	Sounds []string
	Book   string

	Abort         bool
	Deny          bool
	DenyMessage   string
	DenySilently  bool
	IgnoreLogging bool
	IgnoreVerbose bool
	Disabled      bool

	// Runtime state, written only from the evaluation thread.
	LastExecuted time.Time
}

// Expired reports whether the operator's expiry timestamp has passed.
func (o *Operator) Expired(now time.Time) bool {
	return !o.Expires.IsZero() && now.After(o.Expires)
}

// OnCooldown reports whether the operator fired within its delay window.
func (o *Operator) OnCooldown(now time.Time) bool {
	if o.Delay == nil || o.LastExecuted.IsZero() {
		return false
	}
	return now.Sub(o.LastExecuted) < o.Delay.Duration
}
