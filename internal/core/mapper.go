package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/secops/internal/storage"
)

// Finder resolves a natural key to a stored record.
// Satisfied by storage.Store.
type Finder interface {
	FindByField(ctx context.Context, table, field string, value any) (storage.Record, error)
}

// MapRow converts a raw spreadsheet row into a canonical record for def.
//
// Each field takes the first present, non-blank value among its header
// spellings and is coerced to its type; values that fail coercion are nil.
// A field whose column is not in the row at all is left out of the record,
// so an update never touches it; a blank cell maps to nil and clears it.
// Fields with a storage default are also left out when blank or unparseable.
// Lookups fill identifier fields from alternate codes through finder, which
// may be nil when def has no lookups.
func MapRow(ctx context.Context, def KindDefinition, raw RawRow, finder Finder) (Record, error) {
	idx := newHeaderIndex(raw)
	rec := make(Record, len(def.FieldSpecs))

	for _, spec := range def.FieldSpecs {
		if !idx.has(spec.Headers) {
			continue
		}
		var val any
		if v, ok := idx.lookup(spec.Headers); ok {
			val = Coerce(spec, v)
		}
		if val == nil && spec.HasDefault {
			continue
		}
		rec[spec.Name] = val
	}

	for _, lk := range def.Lookups {
		if !IsBlank(rec[lk.Field]) {
			continue
		}
		code, ok := idx.lookup(lk.CodeHeaders)
		if !ok {
			continue
		}
		id, err := resolveLookup(ctx, lk, code, finder)
		if err != nil {
			return nil, err
		}
		rec[lk.Field] = id
	}

	for _, spec := range def.FieldSpecs {
		if spec.Required && IsBlank(rec[spec.Name]) {
			return nil, &MissingRequiredFieldError{Field: spec.Name}
		}
	}

	return rec, nil
}

// resolveLookup finds the identifier of the record of lk.Kind whose
// lk.CodeField equals code.
func resolveLookup(ctx context.Context, lk Lookup, code any, finder Finder) (string, error) {
	text, _ := ToText(code)

	target, err := MustGet(lk.Kind)
	if err != nil {
		return "", err
	}
	if finder == nil {
		return "", fmt.Errorf("lookup %s by %s: no finder configured", lk.Kind, lk.CodeField)
	}

	found, err := finder.FindByField(ctx, target.Info.Table, lk.CodeField, text)
	if err != nil {
		return "", fmt.Errorf("lookup %s by %s: %w", lk.Kind, lk.CodeField, err)
	}
	if found == nil {
		return "", &ReferenceNotFoundError{Code: text, Kind: lk.Kind}
	}

	id, ok := ToIdentifier(found[FieldID])
	if !ok {
		return "", &ReferenceNotFoundError{Code: text, Kind: lk.Kind}
	}
	return id, nil
}
