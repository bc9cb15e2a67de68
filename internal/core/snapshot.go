package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/secops/internal/logging"
	"github.com/JonMunkholm/secops/internal/storage"
)

// SnapshotSource is the read side of the storage accessor.
type SnapshotSource interface {
	SelectAll(ctx context.Context, table string) ([]storage.Record, error)
	SelectIdentifiers(ctx context.Context, table string) ([]string, error)
}

// Snapshot is the reference data one import run classifies and validates against.
// It is built once before the first row and never changes afterwards.
type Snapshot struct {
	Kind Kind

	// Existing maps a composite key (see CompositeKey) to the stored record.
	// A record satisfying several key-sets appears once under each key.
	Existing map[string]Record

	// ForeignIDs holds the identifiers of every kind referenced by a foreign key.
	ForeignIDs map[Kind]map[string]struct{}
}

// LoadSnapshot fetches every stored record of def's kind and the identifier
// sets of the kinds it references: one query for the kind plus one per
// distinct referenced kind. Any storage failure is a *SnapshotLoadError.
func LoadSnapshot(ctx context.Context, src SnapshotSource, def KindDefinition) (*Snapshot, error) {
	start := time.Now()
	kind := def.Info.Kind

	snap := &Snapshot{
		Kind:       kind,
		Existing:   make(map[string]Record),
		ForeignIDs: make(map[Kind]map[string]struct{}),
	}

	if len(def.KeySets) > 0 {
		records, err := src.SelectAll(ctx, def.Info.Table)
		if err != nil {
			return nil, &SnapshotLoadError{Kind: kind, Err: err}
		}
		for _, rec := range records {
			for _, ks := range def.KeySets {
				if key, ok := CompositeKey(ks, rec); ok {
					snap.Existing[key] = rec
				}
			}
		}
	}

	for _, ref := range referencedKinds(def) {
		target, err := MustGet(ref)
		if err != nil {
			return nil, &SnapshotLoadError{Kind: kind, Err: err}
		}
		ids, err := src.SelectIdentifiers(ctx, target.Info.Table)
		if err != nil {
			return nil, &SnapshotLoadError{Kind: kind, Err: fmt.Errorf("identifiers of %s: %w", ref, err)}
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
		}
		snap.ForeignIDs[ref] = set
	}

	logging.FromContext(ctx).Debug("snapshot loaded",
		"kind", kind,
		"keys", len(snap.Existing),
		"referenced_kinds", len(snap.ForeignIDs),
		"duration", time.Since(start),
	)

	return snap, nil
}

// referencedKinds returns the distinct kinds referenced by def's foreign keys,
// in configured order.
func referencedKinds(def KindDefinition) []Kind {
	seen := make(map[Kind]bool)
	var kinds []Kind
	for _, fk := range def.ForeignKeys {
		if !seen[fk.References] {
			seen[fk.References] = true
			kinds = append(kinds, fk.References)
		}
	}
	return kinds
}

// CompositeKey builds the lookup key of rec under key-set ks:
// "f1+f2:" followed by the trimmed, case-folded values joined by "|".
// Returns false if any of the fields is blank on rec.
func CompositeKey(ks KeySet, rec Record) (string, bool) {
	if len(ks) == 0 {
		return "", false
	}

	values := make([]string, len(ks))
	for i, field := range ks {
		v, ok := keyValue(rec[field])
		if !ok {
			return "", false
		}
		values[i] = v
	}
	return strings.Join(ks, "+") + ":" + strings.Join(values, "|"), true
}

// keyValue renders one key-set value the same way for stored and imported records.
func keyValue(v any) (string, bool) {
	if IsBlank(v) {
		return "", false
	}
	if t, ok := v.(time.Time); ok {
		return truncateDay(t).Format(DateLayout), true
	}
	s, ok := ToText(v)
	if !ok {
		return "", false
	}
	return FoldText(s), true
}
