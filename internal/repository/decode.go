package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"

	"github.com/rs/zerolog/log"
)

// Store keys. One key holds one whole collection of records.
const (
	KeyMaterials    = "catalog.materials"
	KeyProducts     = "catalog.products"
	KeyProductTypes = "catalog.product_types"
	KeyFinishTypes  = "catalog.finish_types"
	KeyCollections  = "catalog.collections"
	KeyAudit        = "audit.events"
	KeyCurrency     = "settings.currency"
	KeySync         = "settings.sync"
	KeyCompany      = "settings.company"
)

// decodeList is the single storage-boundary decoder for record lists.
// Accepted shapes: a JSON array, or a legacy object map {id: record} (turned
// into a list ordered by key). Anything else, including null, is empty.
// Records rejected by keep are dropped with a warning. A failed read is
// returned as an error: callers write the list back, so an empty stand-in
// would overwrite the stored records.
func decodeList[T any](ctx context.Context, store infra.Store, key string, keep func(*T) bool) ([]T, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("repository: read %s: %w", key, err)
	}
	if !ok {
		return []T{}, nil
	}
	raw = bytes.TrimSpace(raw)

	var items []T
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return []T{}, nil
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("repository: malformed list, treating as empty")
			return []T{}, nil
		}
	case raw[0] == '{':
		var byID map[string]T
		if err := json.Unmarshal(raw, &byID); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("repository: malformed map, treating as empty")
			return []T{}, nil
		}
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			items = append(items, byID[id])
		}
	default:
		log.Warn().Str("key", key).Msg("repository: unexpected value shape, treating as empty")
		return []T{}, nil
	}

	out := make([]T, 0, len(items))
	dropped := 0
	for i := range items {
		if keep != nil && !keep(&items[i]) {
			dropped++
			continue
		}
		out = append(out, items[i])
	}
	if dropped > 0 {
		log.Warn().Str("key", key).Int("dropped", dropped).Msg("repository: dropped invalid records")
	}
	return out, nil
}
