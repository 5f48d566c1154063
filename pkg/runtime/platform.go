// chatwarden/pkg/runtime/platform.go

package runtime

import (
	"time"

	"chatwarden/pkg/logging"
)

// PlayerInfo is the engine's view of one connected participant.
type PlayerInfo struct {
	Name     string
	World    string
	Gamemode string
	Channel  string
	X, Y, Z  float64
	JoinedAt time.Time
}

// PermissionChecker answers permission queries against the host's
// permission service.
type PermissionChecker interface {
	Has(player, permission string) bool
}

// RegionLookup resolves the named regions covering a location.
type RegionLookup interface {
	RegionsAt(world string, x, y, z float64) []string
}

// ChannelService exposes chat channel membership and the external
// channel bridge.
type ChannelService interface {
	Mode(player, channel string) (string, bool)
	Relay(channel, message string)
}

// Economy withdraws currency fines.
type Economy interface {
	Withdraw(player string, amount float64) error
}

// CommandDispatcher runs templated command lines.
type CommandDispatcher interface {
	AsPlayer(player, line string)
	AsConsole(line string)
	Forward(server, line string)
}

// Delivery renders engine output to a player.
type Delivery interface {
	Message(player, text string)
	Sound(player, spec string)
	Title(player, title, subtitle string)
	ActionBar(player, text string)
	BossBar(player, spec string)
	Toast(player, text string)
	Book(player, name string)
	Kick(player, reason string)
}

// Directory lists and resolves online players.
type Directory interface {
	Online() []PlayerInfo
	Lookup(name string) (PlayerInfo, bool)
}

// Scheduler defers work to the next simulation tick or to a background
// execution context. The engine never awaits async work.
type Scheduler interface {
	NextTick(fn func())
	Async(fn func())
}

// Bungee relays broadcast messages to other server instances.
type Bungee interface {
	Broadcast(message string)
}

// Platform bundles every collaborator the engine consumes. All fields
// must be non-nil; NewPlatform fills gaps with logging no-ops.
type Platform struct {
	Perms    PermissionChecker
	Regions  RegionLookup
	Channels ChannelService
	Economy  Economy
	Commands CommandDispatcher
	Delivery Delivery
	Players  Directory
	Schedule Scheduler
	Bungee   Bungee
}

// NewPlatform replaces nil collaborators with logging no-op
// implementations so partial hosts can still run the engine.
func NewPlatform(p Platform) Platform {
	if p.Perms == nil {
		p.Perms = nopPerms{}
	}
	if p.Regions == nil {
		p.Regions = nopRegions{}
	}
	if p.Channels == nil {
		p.Channels = nopChannels{}
	}
	if p.Economy == nil {
		p.Economy = nopEconomy{}
	}
	if p.Commands == nil {
		p.Commands = logCommands{}
	}
	if p.Delivery == nil {
		p.Delivery = logDelivery{}
	}
	if p.Players == nil {
		p.Players = nopDirectory{}
	}
	if p.Schedule == nil {
		p.Schedule = ImmediateScheduler{}
	}
	if p.Bungee == nil {
		p.Bungee = nopBungee{}
	}
	return p
}

// ImmediateScheduler runs deferred work inline. Suitable for tests and
// hosts without a tick loop.
type ImmediateScheduler struct{}

func (ImmediateScheduler) NextTick(fn func()) { fn() }
func (ImmediateScheduler) Async(fn func())    { go fn() }

type nopPerms struct{}

func (nopPerms) Has(player, permission string) bool { return false }

type nopRegions struct{}

func (nopRegions) RegionsAt(world string, x, y, z float64) []string { return nil }

type nopChannels struct{}

func (nopChannels) Mode(player, channel string) (string, bool) { return "", false }
func (nopChannels) Relay(channel, message string)              {}

type nopEconomy struct{}

func (nopEconomy) Withdraw(player string, amount float64) error { return nil }

type logCommands struct{}

func (logCommands) AsPlayer(player, line string) {
	logging.Logger.Info().Str("player", player).Str("command", line).Msg("Dispatching player command")
}

func (logCommands) AsConsole(line string) {
	logging.Logger.Info().Str("command", line).Msg("Dispatching console command")
}

func (logCommands) Forward(server, line string) {
	logging.Logger.Info().Str("server", server).Str("command", line).Msg("Forwarding command")
}

type logDelivery struct{}

func (logDelivery) Message(player, text string) {
	logging.Logger.Info().Str("player", player).Str("text", text).Msg("Delivering message")
}
func (logDelivery) Sound(player, spec string)            {}
func (logDelivery) Title(player, title, subtitle string) {}
func (logDelivery) ActionBar(player, text string)        {}
func (logDelivery) BossBar(player, spec string)          {}
func (logDelivery) Toast(player, text string)            {}
func (logDelivery) Book(player, name string)             {}
func (logDelivery) Kick(player, reason string) {
	logging.Logger.Info().Str("player", player).Str("reason", reason).Msg("Kicking player")
}

type nopDirectory struct{}

func (nopDirectory) Online() []PlayerInfo                  { return nil }
func (nopDirectory) Lookup(name string) (PlayerInfo, bool) { return PlayerInfo{Name: name}, false }

type nopBungee struct{}

func (nopBungee) Broadcast(message string) {}
