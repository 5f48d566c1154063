// chatwarden/pkg/compiler/message.go

package compiler

import (
	"regexp"
)

// MessageType tags the broadcast lists a message event is evaluated
// against. Join, quit and kick share one evaluation context; death and
// timed have bespoke ones.
type MessageType string

const (
	MessageJoin  MessageType = "join"
	MessageQuit  MessageType = "quit"
	MessageKick  MessageType = "kick"
	MessageDeath MessageType = "death"
	MessageTimed MessageType = "timed"
)

var MessageTypes = []MessageType{
	MessageJoin, MessageQuit, MessageKick, MessageDeath, MessageTimed,
}

func ParseMessageType(s string) (MessageType, bool) {
	for _, t := range MessageTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// SideConditions gate one side of a broadcast: the triggering sender or
// a candidate receiver.
type SideConditions struct {
	RequirePermission *PermissionCondition
	IgnorePermission  string
	RequireScript     string
	IgnoreScript      string
	RequireGamemodes  []string
	IgnoreGamemodes   []string
	RequireWorlds     []string
	IgnoreWorlds      []string
	RequireRegions    []string
	IgnoreRegions     []string
	RequireChannels   []string
	IgnoreChannels    []string
}

// DeathConditions are the extra predicates of death messages, keyed on
// the killer and the damage event. Item names support a leading or
// trailing * wildcard.
type DeathConditions struct {
	RequireKillerPermission string
	RequireKillerScript     string
	RequireKillerWorlds     []string
	IgnoreKillerWorlds      []string
	RequireKillerRegions    []string
	IgnoreKillerRegions     []string
	RequireItems            []string
	IgnoreItems             []string
	RequireCauses           []string
	IgnoreCauses            []string
	RequireProjectiles      []string
	IgnoreProjectiles       []string
	RequireBlocks           []string
	IgnoreBlocks            []string
	RequireEntities         []string
	IgnoreEntities          []string
	RequireBossNames        []string
	RequireDamage           float64
}

// PlayerMessage is an event-shaped operator describing sender and
// receiver eligibility for one broadcast group. It matches no text
// pattern; the broadcast engine iterates online receivers instead.
type PlayerMessage struct {
	Operator

	Type     MessageType
	Group    string
	Sender   SideConditions
	Receiver SideConditions

	RequireSelf     bool
	IgnoreMatch     *regexp.Regexp
	IgnoreMatchText string
	Prefix          string
	Suffix          string
	Bungee          bool

	// Death is non-nil only for death messages.
	Death *DeathConditions

	Messages []string

	// Cyclic read cursor, shared across all receivers of one broadcast
	// pass and advanced once per pass. Written only from the evaluation
	// thread.
	LastMessageIndex int
}

// NextMessage returns the current message and advances the cursor.
func (m *PlayerMessage) NextMessage() string {
	if len(m.Messages) == 0 {
		return ""
	}
	msg := m.Messages[m.LastMessageIndex%len(m.Messages)]
	m.LastMessageIndex = (m.LastMessageIndex + 1) % len(m.Messages)
	return msg
}
