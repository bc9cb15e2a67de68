package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// numberTolerance is the largest difference at which two numbers compare equal.
const numberTolerance = 1e-6

// Classification is the classifier's verdict for one canonical record.
type Classification struct {
	Status        Status
	Message       string
	ChangedFields []string
	ExistingID    string
}

// Classify decides whether rec is new, an update of a stored record, or an
// unchanged duplicate. Key-sets are tried in configured order; a key-set is
// considered only when all of its fields are non-blank on rec, and the first
// one that matches a stored record wins.
func Classify(def KindDefinition, rec Record, snap *Snapshot) Classification {
	if len(def.KeySets) == 0 || snap == nil {
		return Classification{Status: StatusNew, Message: "new record"}
	}

	for _, ks := range def.KeySets {
		key, ok := CompositeKey(ks, rec)
		if !ok {
			continue
		}
		existing, found := snap.Existing[key]
		if !found {
			continue
		}

		id, _ := ToText(existing[FieldID])
		changed := changedFields(def, rec, existing)
		if len(changed) == 0 {
			return Classification{
				Status:        StatusDuplicate,
				Message:       "no changes detected",
				ChangedFields: []string{},
				ExistingID:    id,
			}
		}
		return Classification{
			Status:        StatusUpdate,
			Message:       fmt.Sprintf("%d field(s) changed", len(changed)),
			ChangedFields: changed,
			ExistingID:    id,
		}
	}

	return Classification{Status: StatusNew, Message: "new record"}
}

// changedFields lists, in field-spec order, the fields of rec that differ from existing.
// Only fields present in rec are compared; bookkeeping fields never are.
func changedFields(def KindDefinition, rec, existing Record) []string {
	var changed []string
	for _, spec := range def.FieldSpecs {
		switch spec.Name {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		v, present := rec[spec.Name]
		if !present {
			continue
		}
		if !valuesEqual(spec.Type, v, existing[spec.Name]) {
			changed = append(changed, spec.Name)
		}
	}
	return changed
}

// valuesEqual compares an imported and a stored value after normalizing both:
// blank equals nil, text is trimmed and case-folded, numbers match within
// numberTolerance, dates match by calendar day.
func valuesEqual(t FieldType, a, b any) bool {
	aBlank, bBlank := IsBlank(a), IsBlank(b)
	if aBlank || bBlank {
		return aBlank == bBlank
	}

	switch t {
	case FieldNumber:
		x, okA := ToNumber(a)
		y, okB := ToNumber(b)
		if okA && okB {
			return math.Abs(x-y) <= numberTolerance
		}
	case FieldBool:
		x, okA := ToBool(a)
		y, okB := ToBool(b)
		if okA && okB {
			return x == y
		}
	case FieldDate:
		x, okA := ToDate(a)
		y, okB := ToDate(b)
		if okA && okB {
			return x.Equal(y)
		}
	}

	return normalizedText(a) == normalizedText(b)
}

func normalizedText(v any) string {
	if t, ok := v.(time.Time); ok {
		return truncateDay(t).Format(DateLayout)
	}
	s, _ := ToText(v)
	return strings.TrimSpace(FoldText(s))
}
