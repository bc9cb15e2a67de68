package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/secops/internal/config"
	"github.com/JonMunkholm/secops/internal/core"
	_ "github.com/JonMunkholm/secops/internal/core/kinds"
	"github.com/JonMunkholm/secops/internal/storage"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func definition(t *testing.T, kind core.Kind) core.KindDefinition {
	t.Helper()
	def, err := core.MustGet(kind)
	require.NoError(t, err)
	return def
}

func newService(store storage.Store, mutate ...func(*config.ImportConfig)) *core.Service {
	cfg := config.Defaults()
	for _, m := range mutate {
		m(&cfg)
	}
	return core.NewService(store, cfg, core.WithClock(func() time.Time { return fixedNow }))
}

// newClientStore returns a store with the unique constraints of the clienti table.
func newClientStore() *storage.MemoryStore {
	store := storage.NewMemoryStore()
	store.AddUnique("clienti", "codice_cliente")
	store.AddUnique("clienti", "partita_iva")
	store.AddUnique("clienti", "ragione_sociale")
	store.AddUnique("rubrica_clienti", "cliente_id", "nome")
	return store
}

// seedOne inserts rec into table and returns its generated id.
func seedOne(t *testing.T, store *storage.MemoryStore, table string, rec storage.Record) string {
	t.Helper()
	id, err := store.Insert(context.Background(), table, rec)
	require.NoError(t, err)
	return id
}

// countingSource records the queries made against the wrapped store.
type countingSource struct {
	storage.Store

	mu          sync.Mutex
	selectAll   []string
	identifiers []string
	failTable   string
}

var errStorageDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func (c *countingSource) SelectAll(ctx context.Context, table string) ([]storage.Record, error) {
	c.mu.Lock()
	c.selectAll = append(c.selectAll, table)
	c.mu.Unlock()
	if table == c.failTable {
		return nil, errStorageDown
	}
	return c.Store.SelectAll(ctx, table)
}

func (c *countingSource) SelectIdentifiers(ctx context.Context, table string) ([]string, error) {
	c.mu.Lock()
	c.identifiers = append(c.identifiers, table)
	c.mu.Unlock()
	if table == c.failTable {
		return nil, errStorageDown
	}
	return c.Store.SelectIdentifiers(ctx, table)
}

// failingFinder fails every lookup.
type failingFinder struct{}

func (failingFinder) FindByField(context.Context, string, string, any) (storage.Record, error) {
	return nil, errStorageDown
}
