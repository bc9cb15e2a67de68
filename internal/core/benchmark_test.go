package core

import (
	"context"
	"fmt"
	"testing"
)

// ============================================================================
// Conversion Function Benchmarks
// ============================================================================

// BenchmarkToNumber covers the number spellings found in exported spreadsheets.
func BenchmarkToNumber(b *testing.B) {
	testCases := []any{
		"123",
		"-456,78",
		"€ 1.234,56",
		"(123,45)",
		"1.234.567",
		"  999.99  ",
		42.5,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToNumber(tc)
		}
	}
}

// BenchmarkToDate covers ISO, Italian and serial dates.
func BenchmarkToDate(b *testing.B) {
	testCases := []any{
		"2024-01-15",
		"15/01/2024",
		"15.01.2024",
		"2024-01-15T10:30:00Z",
		45306.0,
		"45306",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToDate(tc)
		}
	}
}

// BenchmarkFoldHeader measures the loose header normalization used once per raw column.
func BenchmarkFoldHeader(b *testing.B) {
	headers := []string{"Ragione Sociale", "Città", "ID Cliente (UUID)", "Unità di Misura", "P.IVA"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, h := range headers {
			FoldHeader(h)
		}
	}
}

// ============================================================================
// Row Pipeline Benchmarks
// ============================================================================

func benchDefinition() KindDefinition {
	specs := []FieldSpec{
		{Name: FieldID, Label: "ID (UUID)", Type: FieldIdentifier, HasDefault: true},
		{Name: "codice", Label: "Codice", Type: FieldText},
		{Name: "ragione_sociale", Label: "Ragione Sociale", Type: FieldText, Required: true},
		{Name: "telefono", Label: "Telefono", Type: FieldText},
		{Name: "importo", Label: "Importo", Type: FieldNumber},
		{Name: "valida_dal", Label: "Valida Dal", Type: FieldDate},
		{Name: "attivo", Label: "Attivo", Type: FieldBool, HasDefault: true},
	}
	for i := range specs {
		specs[i].Headers = headerSpellings(specs[i].Label, specs[i].Name, nil)
	}
	return KindDefinition{
		Info:       KindInfo{Kind: KindClients, Table: "clienti"},
		FieldSpecs: specs,
		KeySets:    []KeySet{{FieldID}, {"codice"}, {"ragione_sociale"}},
	}
}

// BenchmarkMapRow measures header resolution and coercion of one typical row.
func BenchmarkMapRow(b *testing.B) {
	def := benchDefinition()
	raw := RawRow{
		"Codice":           "C001",
		"RAGIONE SOCIALE ": "Acme Srl",
		"telefono":         "02 1234567",
		"Importo":          "1.234,50",
		"Valida Dal":       "15/01/2024",
		"Attivo":           "1",
		"Colonna Extra":    "ignored",
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MapRow(ctx, def, raw, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkClassify measures key lookup and field comparison against a
// snapshot of 10k stored records.
func BenchmarkClassify(b *testing.B) {
	def := benchDefinition()
	snap := &Snapshot{Kind: KindClients, Existing: make(map[string]Record)}
	for i := 0; i < 10000; i++ {
		rec := Record{
			FieldID:           fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			"codice":          fmt.Sprintf("C%05d", i),
			"ragione_sociale": fmt.Sprintf("Cliente %d Srl", i),
			"telefono":        "02 000",
		}
		for _, ks := range def.KeySets {
			if key, ok := CompositeKey(ks, rec); ok {
				snap.Existing[key] = rec
			}
		}
	}

	rec := Record{"codice": "C05000", "ragione_sociale": "cliente 5000 srl", "telefono": "02 111", "importo": nil}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(def, rec, snap)
	}
}
