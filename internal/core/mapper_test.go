package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/secops/internal/core"
	"github.com/JonMunkholm/secops/internal/storage"
)

// ----------------------------------------------------------------------------
// Field Mapping Tests
// ----------------------------------------------------------------------------

func TestMapRow_HeaderSpellingInvariance(t *testing.T) {
	def := definition(t, core.KindClients)
	ctx := context.Background()

	spellings := map[string][]string{
		"ragione_sociale": {"Ragione Sociale", "ragione_sociale", "ragioneSociale", "RAGIONE SOCIALE"},
		"partita_iva":     {"Partita IVA", "partita_iva", "partitaIva", "P.IVA"},
		"telefono":        {"Telefono", "telefono", "Tel."},
	}
	values := map[string]any{
		"ragione_sociale": "Acme Srl",
		"partita_iva":     "IT01234567890",
		"telefono":        "02 1234567",
	}

	var want core.Record
	for i := 0; i < 4; i++ {
		raw := core.RawRow{}
		for field, options := range spellings {
			raw[options[i%len(options)]] = values[field]
		}

		got, err := core.MapRow(ctx, def, raw, nil)
		require.NoError(t, err)

		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "spelling set %d", i)
	}

	assert.Equal(t, "Acme Srl", want["ragione_sociale"])
	assert.Equal(t, "01234567890", want["partita_iva"])
}

func TestMapRow_Coercion(t *testing.T) {
	def := definition(t, core.KindServicePoints)

	rec, err := core.MapRow(context.Background(), def, core.RawRow{
		"Nome Punto":             "  Magazzino Nord ",
		"CAP":                    184.0,
		"Provincia":              "roma",
		"Latitudine":             "41,902782",
		"Tempo Intervento (min)": 15,
		"Attivo":                 "0",
		"Sconosciuta":            "ignored",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Magazzino Nord", rec["nome_punto"])
	assert.Equal(t, "00184", rec["cap"])
	assert.Equal(t, "RM", rec["provincia"])
	assert.InDelta(t, 41.902782, rec["latitudine"], 1e-9)
	assert.Equal(t, 15.0, rec["tempo_intervento"])
	assert.Equal(t, false, rec["attivo"])
	assert.Nil(t, rec["longitudine"])
	assert.NotContains(t, rec, "Sconosciuta")
}

func TestMapRow_DefaultedFieldsOmittedWhenAbsent(t *testing.T) {
	def := definition(t, core.KindClients)

	tests := []struct {
		name     string
		attivo   any
		present  bool
		expected any
	}{
		{"absent", nil, false, nil},
		{"blank", "  ", false, nil},
		{"unparseable", "forse", false, nil},
		{"true", "TRUE", true, true},
		{"zero", 0.0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := core.RawRow{"Ragione Sociale": "Acme Srl"}
			if tt.attivo != nil {
				raw["Attivo"] = tt.attivo
			}

			rec, err := core.MapRow(context.Background(), def, raw, nil)
			require.NoError(t, err)

			v, ok := rec["attivo"]
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestMapRow_OnlyColumnsInRowAreMapped(t *testing.T) {
	def := definition(t, core.KindClients)

	rec, err := core.MapRow(context.Background(), def, core.RawRow{
		"Ragione Sociale": "Acme Srl",
		"Telefono":        "  ",
		"EMAIL":           nil,
	}, nil)
	require.NoError(t, err)

	assert.NotContains(t, rec, "codice_cliente")
	assert.NotContains(t, rec, "indirizzo")

	// a column that is present but blank clears the value
	for _, field := range []string{"telefono", "email"} {
		v, ok := rec[field]
		assert.True(t, ok, field)
		assert.Nil(t, v, field)
	}
}

func TestMapRow_MissingRequiredField(t *testing.T) {
	def := definition(t, core.KindPersonnel)

	_, err := core.MapRow(context.Background(), def, core.RawRow{"Nome": "Mario", "Cognome": "  "}, nil)

	var missing *core.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "cognome", missing.Field)
}

func TestMapRow_InvalidIdentifierTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("own id", func(t *testing.T) {
		rec, err := core.MapRow(ctx, definition(t, core.KindClients), core.RawRow{
			"ID (UUID)":       "not-a-uuid",
			"Ragione Sociale": "Acme Srl",
		}, nil)
		require.NoError(t, err)
		assert.NotContains(t, rec, "id")
	})

	t.Run("optional foreign key", func(t *testing.T) {
		rec, err := core.MapRow(ctx, definition(t, core.KindServicePoints), core.RawRow{
			"ID Cliente (UUID)": "not-a-uuid",
			"Nome Punto":        "Cancello",
		}, nil)
		require.NoError(t, err)
		assert.Nil(t, rec["cliente_id"])
	})

	t.Run("required foreign key without code", func(t *testing.T) {
		_, err := core.MapRow(ctx, definition(t, core.KindClientContacts), core.RawRow{
			"ID Cliente (UUID)": "not-a-uuid",
			"Nome":              "Mario Rossi",
		}, storage.NewMemoryStore())

		var missing *core.MissingRequiredFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "cliente_id", missing.Field)
	})
}

// ----------------------------------------------------------------------------
// Secondary Lookup Tests
// ----------------------------------------------------------------------------

func TestMapRow_LookupResolvesCode(t *testing.T) {
	store := newClientStore()
	clientID := seedOne(t, store, "clienti", storage.Record{"codice_cliente": "C001", "ragione_sociale": "Acme Srl"})
	def := definition(t, core.KindClientContacts)

	rec, err := core.MapRow(context.Background(), def, core.RawRow{
		"Codice Cliente": " c001 ",
		"Nome":           "Mario Rossi",
	}, store)
	require.NoError(t, err)
	assert.Equal(t, clientID, rec["cliente_id"])
}

func TestMapRow_LookupSkippedWhenIdentifierPresent(t *testing.T) {
	const direct = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	def := definition(t, core.KindClientContacts)

	rec, err := core.MapRow(context.Background(), def, core.RawRow{
		"ID Cliente (UUID)": direct,
		"Codice Cliente":    "C001",
		"Nome":              "Mario Rossi",
	}, failingFinder{})
	require.NoError(t, err)
	assert.Equal(t, direct, rec["cliente_id"])
}

func TestMapRow_LookupMiss(t *testing.T) {
	def := definition(t, core.KindRates)

	_, err := core.MapRow(context.Background(), def, core.RawRow{
		"Codice Cliente": "C404",
		"Tipo Servizio":  "Ronda notturna",
		"Importo":        "12,50",
	}, newClientStore())

	var notFound *core.ReferenceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "C404", notFound.Code)
	assert.Equal(t, core.KindClients, notFound.Kind)
}

func TestMapRow_LookupStorageFailure(t *testing.T) {
	def := definition(t, core.KindPersonnel)

	_, err := core.MapRow(context.Background(), def, core.RawRow{
		"Nome":             "Mario",
		"Cognome":          "Rossi",
		"Codice Fornitore": "F01",
	}, failingFinder{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorageDown)
}
