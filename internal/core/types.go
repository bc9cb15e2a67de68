// Package core provides the business logic for anagraphic bulk imports.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/secops/internal/storage"
)

// Kind identifies an anagraphic record kind.
type Kind string

const (
	KindClients          Kind = "clients"
	KindSuppliers        Kind = "suppliers"
	KindNetworkOperators Kind = "network_operators"
	KindProcedures       Kind = "procedures"
	KindPersonnel        Kind = "personnel"
	KindServicePoints    Kind = "service_points"
	KindRates            Kind = "rates"
	KindClientContacts   Kind = "client_contacts"
	KindSupplierContacts Kind = "supplier_contacts"
)

// Kinds returns every record kind known to the application.
func Kinds() []Kind {
	return []Kind{
		KindClients,
		KindSuppliers,
		KindNetworkOperators,
		KindProcedures,
		KindPersonnel,
		KindServicePoints,
		KindRates,
		KindClientContacts,
		KindSupplierContacts,
	}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FieldType represents the canonical type of a field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldBool
	FieldDate
	FieldIdentifier
)

// String returns the lower-case type name.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldNumber:
		return "number"
	case FieldBool:
		return "bool"
	case FieldDate:
		return "date"
	case FieldIdentifier:
		return "identifier"
	default:
		return "value"
	}
}

// FieldSpec describes one canonical field of a kind.
type FieldSpec struct {
	Name       string              // Canonical (storage) field name: "ragione_sociale"
	Label      string              // Template column header: "Ragione Sociale"
	Headers    []string            // Extra accepted header spellings, after Label, Name and camelCase
	Type       FieldType           // Coercion applied to the raw value
	Required   bool                // Mapping fails when blank after coercion
	HasDefault bool                // Omitted when absent so the storage default applies
	Normalizer func(string) string // Optional transformation applied to text values
}

// KeySet lists canonical fields whose combined values identify a record.
type KeySet []string

// ForeignKey links a field to the kind whose identifiers it must reference.
type ForeignKey struct {
	Field      string
	References Kind
}

// Lookup resolves an identifier field from a human-assigned code when the
// identifier itself is not in the row.
type Lookup struct {
	Field       string   // Identifier field to populate: "cliente_id"
	CodeHeaders []string // Row headers carrying the code: "Codice Cliente", ...
	Kind        Kind     // Kind searched by code
	CodeField   string   // Field of Kind matched against the code: "codice_cliente"
}

// KindInfo contains display and storage information about a kind.
type KindInfo struct {
	Kind  Kind   // Registry key
	Table string // Storage table: "clienti"
	Group string // Area of the back office: "Anagrafiche", "Rubrica"
	Label string // Display name: "Clienti"
}

// KindDefinition contains everything needed to import one kind.
type KindDefinition struct {
	Info        KindInfo
	FieldSpecs  []FieldSpec
	KeySets     []KeySet     // Checked in order; earlier key-sets win
	ForeignKeys []ForeignKey // Validated in order; first failure wins
	Lookups     []Lookup
}

// Field returns the spec for a canonical field name.
func (d KindDefinition) Field(name string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Labels returns the template header row for the kind.
func (d KindDefinition) Labels() []string {
	labels := make([]string, len(d.FieldSpecs))
	for i, spec := range d.FieldSpecs {
		labels[i] = spec.Label
	}
	return labels
}

// RawRow maps spreadsheet column headers to scalar cell values.
type RawRow map[string]any

// Record maps canonical field names to typed values.
type Record = storage.Record

// Canonical bookkeeping fields maintained by the importer, never by the row.
const (
	FieldID        = storage.IDColumn
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Mode selects between dry-run analysis and applying writes.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeCommit  Mode = "commit"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePreview:
		return ModePreview, nil
	case ModeCommit:
		return ModeCommit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Status is the outcome classification of one row.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusUpdate    Status = "UPDATE"
	StatusDuplicate Status = "DUPLICATE"
	StatusError     Status = "ERROR"
	StatusInvalidFK Status = "INVALID_FK"
)

// RowReport describes what happened (or would happen) to one input row.
type RowReport struct {
	Row           int      `json:"row"` // 1-based position in the input
	OriginalRow   RawRow   `json:"originalRow"`
	ProcessedData Record   `json:"processedData"`
	Status        Status   `json:"status"`
	Message       string   `json:"message"`
	UpdatedFields []string `json:"updatedFields"`
	ID            string   `json:"id,omitempty"`
}

// PreviewSummary contains per-status counts for a preview.
type PreviewSummary struct {
	TotalRows     int `json:"totalRows"`
	NewRows       int `json:"newRows"`
	UpdateRows    int `json:"updateRows"`
	DuplicateRows int `json:"duplicateRows"`
	ErrorRows     int `json:"errorRows"`
	InvalidFKRows int `json:"invalidFkRows"`
}

// PreviewReport is the complete dry-run result.
type PreviewReport struct {
	Kind             Kind           `json:"recordKind"`
	Report           []RowReport    `json:"report"`
	Summary          PreviewSummary `json:"summary"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

// RunResult aggregates the outcome of a commit run.
type RunResult struct {
	Kind          Kind     `json:"recordKind"`
	Message       string   `json:"message"`
	Inserted      int      `json:"successCount"`
	Updated       int      `json:"updateCount"`
	Duplicates    int      `json:"duplicateCount"`
	Errors        int      `json:"errorCount"`
	ErrorMessages []string `json:"errors"`
}

// HasErrors reports whether any row failed.
func (r *RunResult) HasErrors() bool {
	return r.Errors > 0
}

// Request is the shared payload of preview and commit calls.
type Request struct {
	RecordKind string   `json:"recordKind"`
	Rows       []RawRow `json:"rows"`
	Mode       string   `json:"mode"`
}

// Outcome holds the result of Run: Preview in preview mode, Result in commit mode.
type Outcome struct {
	Mode    Mode
	Preview *PreviewReport
	Result  *RunResult
}
