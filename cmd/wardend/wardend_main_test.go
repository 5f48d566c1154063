// chatwarden/cmd/wardend/wardend_main_test.go

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwarden/pkg/compiler"
	"chatwarden/pkg/runtime"
	"chatwarden/pkg/store"
)

func TestParseConfigDefaults(t *testing.T) {
	viper.Reset()

	config, err := parseConfig([]string{"wardend"})
	require.NoError(t, err)

	assert.Equal(t, "rules", config.RulesDir)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "localhost:6379", config.RedisAddress)
	assert.Equal(t, "chat_events", config.EventChannel)
	assert.Equal(t, "chat_filtered", config.ResultChannel)
	assert.Equal(t, "warden:bungee:", config.BungeePrefix)
	assert.Equal(t, 8080, config.DashboardPort)
	assert.Equal(t, "@every 1m", config.TimedSchedule)
	assert.True(t, config.StopOnFirst)
}

func TestParseConfigFromFile(t *testing.T) {
	viper.Reset()

	configFile, err := os.CreateTemp("", "warden_config*.json")
	require.NoError(t, err)
	defer os.Remove(configFile.Name())

	configContent := `{
		"rules": {"dir": "/etc/chatwarden/rules"},
		"logging": {"level": "debug"},
		"redis": {"address": "redis.internal:6380", "database": 2},
		"dashboard": {"port": 9090}
	}`
	_, err = configFile.WriteString(configContent)
	require.NoError(t, err)
	require.NoError(t, configFile.Close())

	config, err := parseConfig([]string{"wardend", "-config", configFile.Name()})
	require.NoError(t, err)

	assert.Equal(t, "/etc/chatwarden/rules", config.RulesDir)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "redis.internal:6380", config.RedisAddress)
	assert.Equal(t, 2, config.RedisDB)
	assert.Equal(t, 9090, config.DashboardPort)
	// Unset keys keep their defaults.
	assert.Equal(t, "chat_events", config.EventChannel)
}

func TestParseConfigMissingExplicitFile(t *testing.T) {
	viper.Reset()

	_, err := parseConfig([]string{"wardend", "-config", "/nonexistent/warden.json"})
	assert.Error(t, err)
}

func newTestEngine(t *testing.T, rulesSrc string) (*runtime.Engine, *store.RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisStore := store.NewRedisStore(mr.Addr(), "", 0)
	engine := runtime.NewEngine(runtime.Platform{}, redisStore)

	rules, _, err := compiler.ParseRules(compiler.EventChat, "chat.txt", rulesSrc)
	require.NoError(t, err)
	rs := compiler.NewRuleSet()
	rs.Rules[compiler.EventChat] = rules
	engine.Swap(rs)
	return engine, redisStore
}

func TestProcessEventFilters(t *testing.T) {
	engine, redisStore := newTestEngine(t, `match bad
then replace ***`)

	pubsub := redisStore.Subscribe("chat_filtered")
	defer pubsub.Close()
	_, err := pubsub.Receive(context.Background())
	require.NoError(t, err)

	err = processEvent(engine, redisStore, "chat_filtered", &redis.Message{
		Channel: "chat_events",
		Payload: "chat|Steve|general|this is bad",
	})
	require.NoError(t, err)

	msg := <-pubsub.Channel()
	assert.Equal(t, "chat|Steve|general|this is ***", msg.Payload)
}

func TestProcessEventDenySwallowsEvent(t *testing.T) {
	engine, redisStore := newTestEngine(t, `match bad
then deny`)

	err := processEvent(engine, redisStore, "chat_filtered", &redis.Message{
		Payload: "chat|Steve|general|this is bad",
	})
	assert.NoError(t, err)
}

func TestProcessEventMalformedPayload(t *testing.T) {
	engine, redisStore := newTestEngine(t, `match bad
then deny`)

	err := processEvent(engine, redisStore, "chat_filtered", &redis.Message{Payload: "nope"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event payload")

	err = processEvent(engine, redisStore, "chat_filtered", &redis.Message{Payload: "mystery|a|b|c"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event kind")
}

func TestReloadRulesKeepsOldSetOnError(t *testing.T) {
	engine, _ := newTestEngine(t, `match bad
then deny`)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules", "chat.txt"),
		[]byte("match spam\nbogus directive"), 0o644))

	reloadRules(engine, dir)
	assert.Len(t, engine.RuleSet().Rules[compiler.EventChat], 1)
	assert.Equal(t, "bad", engine.RuleSet().Rules[compiler.EventChat][0].PatternText)
}

func TestReloadRulesSwapsValidSet(t *testing.T) {
	engine, _ := newTestEngine(t, `match bad
then deny`)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules", "chat.txt"),
		[]byte("match worse\nthen deny"), 0o644))

	reloadRules(engine, dir)
	assert.Equal(t, "worse", engine.RuleSet().Rules[compiler.EventChat][0].PatternText)
}

func TestRealStoreFactory(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	factory := &RealStoreFactory{}
	st := factory.NewStore(mr.Addr(), "", 0)
	assert.NotNil(t, st)
}
