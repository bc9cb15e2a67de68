package core

import "strings"

// ValidateReferences checks that each populated foreign-key field of rec names
// an existing record of the referenced kind. Foreign keys are checked in
// configured order and the first failure is returned as *InvalidForeignKeyError.
func ValidateReferences(def KindDefinition, rec Record, snap *Snapshot) error {
	for _, fk := range def.ForeignKeys {
		v := rec[fk.Field]
		if IsBlank(v) {
			continue
		}

		value, _ := ToText(v)
		var ids map[string]struct{}
		if snap != nil {
			ids = snap.ForeignIDs[fk.References]
		}
		if _, ok := ids[strings.ToLower(value)]; !ok {
			return &InvalidForeignKeyError{Field: fk.Field, Kind: fk.References, Value: value}
		}
	}
	return nil
}
