// chatwarden/pkg/store/store.go

package store

// Store holds the per-player state the engine reads and writes: the
// key→value data store used by require/ignore/save key directives, and
// the warning points ledger. Points totals never go below zero.
type Store interface {
	GetData(player, key string) (interface{}, bool, error)
	SetData(player, key string, value interface{}) error
	GetPoints(player, set string) (int, error)
	AddPoints(player, set string, delta int) (int, error)
	AllPoints(player string) (map[string]int, error)
}
