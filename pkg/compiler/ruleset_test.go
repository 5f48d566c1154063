// chatwarden/pkg/compiler/ruleset_test.go

package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeRuleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "rules/chat.txt", `match spam
group spam-handling`)
	writeRuleFile(t, dir, "rules/global.txt", `match badword
then deny`)
	writeRuleFile(t, dir, "groups.txt", `group spam-handling
then warn spam Stop spamming.`)
	writeRuleFile(t, dir, "messages/join.txt", `group default
messages:
- Welcome {player}!`)
	writeRuleFile(t, dir, "warnsets.txt", `set spam
action 5 kick {player}`)

	rs, err := LoadDirectory(dir)
	assert.NoError(t, err)

	assert.Len(t, rs.Rules[EventChat], 1)
	assert.Len(t, rs.Rules[EventGlobal], 1)
	assert.NotNil(t, rs.Rules[EventChat][0].Group)
	assert.Equal(t, "spam-handling", rs.Rules[EventChat][0].Group.Name)
	assert.Len(t, rs.Messages[MessageJoin], 1)
	assert.Contains(t, rs.WarnSets, "spam")

	// Missing files for other types are simply skipped.
	assert.Empty(t, rs.Rules[EventSign])
	assert.Empty(t, rs.Messages[MessageDeath])
}

func TestLoadDirectoryParseErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "rules/chat.txt", "match spam\nbogus directive")

	_, err := LoadDirectory(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive 'bogus'")
}

func TestLoadDirectoryUnknownGroupIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "rules/chat.txt", "match spam\ngroup nope")

	_, err := LoadDirectory(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown group 'nope'")
}

func TestLoadDirectoryEmpty(t *testing.T) {
	rs, err := LoadDirectory(t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, rs.Rules[EventChat])
}
