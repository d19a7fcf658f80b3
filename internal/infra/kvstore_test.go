package infra

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := NewDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return map[string]Store{
		"gorm":   NewGormStore(db),
		"memory": NewMemoryStore(),
	}
}

func TestStore_ReadMissingReturnsFallback(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got := ReadJSON(context.Background(), s, "absent", doc{Name: "fallback"})
			assert.Equal(t, "fallback", got.Name)
		})
	}
}

func TestStore_WriteThenRead(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, WriteJSON(ctx, s, "catalog.doc", doc{Name: "a", Items: []string{"x"}}))
			require.NoError(t, WriteJSON(ctx, s, "catalog.doc", doc{Name: "b", Items: []string{"y", "z"}}))

			got := ReadJSON(ctx, s, "catalog.doc", doc{})
			assert.Equal(t, "b", got.Name)
			assert.Equal(t, []string{"y", "z"}, got.Items)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"catalog.doc"}, keys)
		})
	}
}

func TestStore_MalformedValueReturnsFallback(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Put(ctx, "broken", []byte(`{"name": 42}`)))

			got := ReadJSON(ctx, s, "broken", doc{Name: "fallback"})
			assert.Equal(t, "fallback", got.Name)
		})
	}
}
