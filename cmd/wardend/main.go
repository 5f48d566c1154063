// chatwarden/cmd/wardend/main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"chatwarden/pkg/compiler"
	"chatwarden/pkg/logging"
	"chatwarden/pkg/runtime"
	"chatwarden/pkg/store"
	"chatwarden/pkg/validator"
)

// Config represents the application configuration
type Config struct {
	RulesDir       string
	LogLevel       string
	LogDestination string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	EventChannel   string
	ResultChannel  string
	BungeePrefix   string
	DashboardPort  int
	DashboardEvery int
	TimedSchedule  string
	DecaySchedule  string
	StopOnFirst    bool
}

// WardenDependencies represents the external dependencies of the application
type WardenDependencies struct {
	Store  store.Store
	Engine *runtime.Engine
}

// StoreFactory is an interface for creating a store
type StoreFactory interface {
	NewStore(addr, password string, db int) store.Store
}

// EngineFactory is an interface for creating an engine
type EngineFactory interface {
	NewEngine(rulesDir string, st store.Store, platform runtime.Platform) (*runtime.Engine, error)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, os.Args, &RealStoreFactory{}, &RealEngineFactory{}); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

func run(ctx context.Context, args []string, storeFactory StoreFactory, engineFactory EngineFactory) error {
	config, err := parseConfig(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := logging.ConfigureLogger(config.LogLevel, config.LogDestination); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	deps, err := setupDependencies(config, storeFactory, engineFactory)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return runMainLoop(ctx, deps, config)
}

func parseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	viper.SetConfigType("json")
	viper.SetDefault("rules.dir", "rules")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.output", "console")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.event_channel", "chat_events")
	viper.SetDefault("redis.result_channel", "chat_filtered")
	viper.SetDefault("redis.bungee_prefix", "warden:bungee:")
	viper.SetDefault("dashboard.port", 8080)
	viper.SetDefault("dashboard.update_interval", 5)
	viper.SetDefault("schedule.timed_messages", "@every 1m")
	viper.SetDefault("schedule.points_decay", "@every 1h")
	viper.SetDefault("engine.stop_on_first_match", true)

	if *configFile == "" {
		viper.SetConfigName("warden_config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.chatwarden")
		viper.AddConfigPath("/etc/chatwarden")
	} else {
		viper.SetConfigFile(*configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || *configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Info().Msg("No configuration file found, using defaults")
	}

	return &Config{
		RulesDir:       viper.GetString("rules.dir"),
		LogLevel:       viper.GetString("logging.level"),
		LogDestination: viper.GetString("logging.output"),
		RedisAddress:   viper.GetString("redis.address"),
		RedisPassword:  viper.GetString("redis.password"),
		RedisDB:        viper.GetInt("redis.database"),
		EventChannel:   viper.GetString("redis.event_channel"),
		ResultChannel:  viper.GetString("redis.result_channel"),
		BungeePrefix:   viper.GetString("redis.bungee_prefix"),
		DashboardPort:  viper.GetInt("dashboard.port"),
		DashboardEvery: viper.GetInt("dashboard.update_interval"),
		TimedSchedule:  viper.GetString("schedule.timed_messages"),
		DecaySchedule:  viper.GetString("schedule.points_decay"),
		StopOnFirst:    viper.GetBool("engine.stop_on_first_match"),
	}, nil
}

func setupDependencies(config *Config, storeFactory StoreFactory, engineFactory EngineFactory) (*WardenDependencies, error) {
	st := storeFactory.NewStore(config.RedisAddress, config.RedisPassword, config.RedisDB)

	platform := runtime.Platform{}
	if rs, ok := st.(*store.RedisStore); ok {
		relay := &redisRelay{store: rs, prefix: config.BungeePrefix}
		platform.Commands = relay
		platform.Bungee = relay
	}

	engine, err := engineFactory.NewEngine(config.RulesDir, st, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	engine.StopOnFirstMatch = config.StopOnFirst

	return &WardenDependencies{
		Store:  st,
		Engine: engine,
	}, nil
}

func runMainLoop(ctx context.Context, deps *WardenDependencies, config *Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	redisStore, ok := deps.Store.(*store.RedisStore)
	if !ok {
		return fmt.Errorf("store is not a RedisStore")
	}

	pubsub := redisStore.Subscribe(config.EventChannel)
	defer pubsub.Close()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(config.TimedSchedule, deps.Engine.RunTimed); err != nil {
		return fmt.Errorf("invalid timed message schedule: %w", err)
	}
	if _, err := scheduler.AddFunc(config.DecaySchedule, deps.Engine.DecayPoints); err != nil {
		return fmt.Errorf("invalid points decay schedule: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	dashboard := runtime.NewDashboard(deps.Engine, config.DashboardPort,
		time.Duration(config.DashboardEvery)*time.Second)
	go dashboard.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	log.Info().Msg("Chat warden engine started")

	for {
		select {
		case msg := <-pubsub.Channel():
			if err := processEvent(deps.Engine, redisStore, config.ResultChannel, msg); err != nil {
				log.Error().Err(err).Msg("Failed to process event")
			}
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				reloadRules(deps.Engine, config.RulesDir)
				continue
			}
			log.Info().Msg("Shutting down chat warden engine")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// processEvent handles one pub/sub event of the form
// type|sender|channel|text. Rule event types run through the filter
// pipeline and publish the surviving text; broadcast kinds run a
// player-message pass.
func processEvent(engine *runtime.Engine, rs *store.RedisStore, resultChannel string, msg *redis.Message) error {
	parts := strings.SplitN(msg.Payload, "|", 4)
	if len(parts) != 4 {
		return fmt.Errorf("invalid event payload: %s", msg.Payload)
	}
	kind, sender, channel, text := parts[0], parts[1], parts[2], parts[3]

	if evtType, ok := compiler.ParseEventType(kind); ok {
		result, err := engine.Filter(evtType, sender, text, channel)
		if err != nil {
			logging.Logger.Info().Str("player", sender).Err(err).Msg("Event denied")
			return nil
		}
		if result.CancelledSilently {
			return nil
		}
		return rs.Publish(resultChannel, strings.Join([]string{kind, sender, channel, result.Text}, "|"))
	}

	if msgType, ok := compiler.ParseMessageType(kind); ok {
		engine.Broadcast(msgType, sender, text)
		return nil
	}

	return fmt.Errorf("unknown event kind: %s", kind)
}

func reloadRules(engine *runtime.Engine, dir string) {
	rs, err := compiler.LoadDirectory(dir)
	if err != nil {
		logging.LogError(logging.Logger, err)
		log.Error().Msg("Reload failed, keeping current rule set")
		return
	}
	for _, warning := range validator.Lint(rs) {
		log.Warn().Msg(warning)
	}
	engine.Swap(rs)
}

// redisRelay forwards bungee traffic and remote commands over pub/sub.
type redisRelay struct {
	store  *store.RedisStore
	prefix string
}

func (r *redisRelay) AsPlayer(player, line string) {
	log.Info().Str("player", player).Str("command", line).Msg("Dispatching player command")
}

func (r *redisRelay) AsConsole(line string) {
	log.Info().Str("command", line).Msg("Dispatching console command")
}

func (r *redisRelay) Forward(server, line string) {
	if err := r.store.Publish(r.prefix+server, line); err != nil {
		log.Error().Err(err).Str("server", server).Msg("Failed to forward command")
	}
}

func (r *redisRelay) Broadcast(message string) {
	if err := r.store.Publish(r.prefix+"all", message); err != nil {
		log.Error().Err(err).Msg("Failed to broadcast message")
	}
}

// RealStoreFactory implements StoreFactory
type RealStoreFactory struct{}

func (f *RealStoreFactory) NewStore(addr, password string, db int) store.Store {
	return store.NewRedisStore(addr, password, db)
}

// RealEngineFactory implements EngineFactory
type RealEngineFactory struct{}

func (f *RealEngineFactory) NewEngine(rulesDir string, st store.Store, platform runtime.Platform) (*runtime.Engine, error) {
	engine := runtime.NewEngine(platform, st)
	rs, err := compiler.LoadDirectory(rulesDir)
	if err != nil {
		return nil, err
	}
	for _, warning := range validator.Lint(rs) {
		log.Warn().Msg(warning)
	}
	engine.Swap(rs)
	return engine, nil
}
