package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/secops/internal/core"
	"github.com/JonMunkholm/secops/internal/storage"
)

func TestCompositeKey(t *testing.T) {
	tests := []struct {
		name   string
		ks     core.KeySet
		rec    core.Record
		want   string
		wantOK bool
	}{
		{
			name:   "single field is folded",
			ks:     core.KeySet{"ragione_sociale"},
			rec:    core.Record{"ragione_sociale": "  ACME Srl "},
			want:   "ragione_sociale:acme srl",
			wantOK: true,
		},
		{
			name:   "multiple fields",
			ks:     core.KeySet{"cliente_id", "nome"},
			rec:    core.Record{"cliente_id": "ABC", "nome": "Mario Rossi"},
			want:   "cliente_id+nome:abc|mario rossi",
			wantOK: true,
		},
		{
			name:   "dates and numbers",
			ks:     core.KeySet{"tipo_servizio", "valida_dal", "importo"},
			rec:    core.Record{"tipo_servizio": "Ronda", "valida_dal": time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), "importo": 12.5},
			want:   "tipo_servizio+valida_dal+importo:ronda|2024-01-02|12.5",
			wantOK: true,
		},
		{
			name:   "blank field",
			ks:     core.KeySet{"cliente_id", "nome"},
			rec:    core.Record{"cliente_id": "ABC", "nome": " "},
			wantOK: false,
		},
		{
			name:   "missing field",
			ks:     core.KeySet{"codice_cliente"},
			rec:    core.Record{"ragione_sociale": "Acme"},
			wantOK: false,
		},
		{
			name:   "empty key-set",
			ks:     core.KeySet{},
			rec:    core.Record{"nome": "x"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := core.CompositeKey(tt.ks, tt.rec)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLoadSnapshot_IndexesEverySatisfiedKeySet(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Seed("clienti",
		storage.Record{"id": "11111111-1111-1111-1111-111111111111", "codice_cliente": "C001", "ragione_sociale": "Acme Srl"},
		storage.Record{"id": "22222222-2222-2222-2222-222222222222", "partita_iva": "01234567890", "ragione_sociale": "Beta Spa"},
	)

	snap, err := core.LoadSnapshot(context.Background(), store, definition(t, core.KindClients))
	require.NoError(t, err)

	assert.Equal(t, core.KindClients, snap.Kind)
	assert.Len(t, snap.Existing, 6)
	assert.Contains(t, snap.Existing, "codice_cliente:c001")
	assert.Contains(t, snap.Existing, "ragione_sociale:acme srl")
	assert.Contains(t, snap.Existing, "partita_iva:01234567890")
	assert.Contains(t, snap.Existing, "id:22222222-2222-2222-2222-222222222222")
	assert.NotContains(t, snap.Existing, "partita_iva:")
	assert.Empty(t, snap.ForeignIDs)
}

func TestLoadSnapshot_QueryCount(t *testing.T) {
	tests := []struct {
		kind        core.Kind
		selectAll   []string
		identifiers []string
	}{
		{core.KindClients, []string{"clienti"}, nil},
		{core.KindPersonnel, []string{"personale"}, []string{"fornitori"}},
		{core.KindServicePoints, []string{"punti_servizio"}, []string{"clienti", "operatori_rete", "procedure_operative"}},
		{core.KindRates, []string{"tariffe"}, []string{"clienti"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			src := &countingSource{Store: storage.NewMemoryStore()}

			_, err := core.LoadSnapshot(context.Background(), src, definition(t, tt.kind))
			require.NoError(t, err)

			assert.Equal(t, tt.selectAll, src.selectAll)
			assert.Equal(t, tt.identifiers, src.identifiers)
		})
	}
}

func TestLoadSnapshot_ForeignIDsAreLowerCased(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Seed("fornitori", storage.Record{"id": "AAAAAAAA-0000-0000-0000-000000000001", "ragione_sociale": "Vigilanza Srl"})

	snap, err := core.LoadSnapshot(context.Background(), store, definition(t, core.KindSupplierContacts))
	require.NoError(t, err)

	assert.Contains(t, snap.ForeignIDs[core.KindSuppliers], "aaaaaaaa-0000-0000-0000-000000000001")
}

func TestLoadSnapshot_Failure(t *testing.T) {
	tests := []struct {
		name      string
		kind      core.Kind
		failTable string
	}{
		{"own table", core.KindServicePoints, "punti_servizio"},
		{"referenced table", core.KindServicePoints, "operatori_rete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{Store: storage.NewMemoryStore(), failTable: tt.failTable}

			snap, err := core.LoadSnapshot(context.Background(), src, definition(t, tt.kind))
			assert.Nil(t, snap)

			var loadErr *core.SnapshotLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.kind, loadErr.Kind)
			assert.ErrorIs(t, err, errStorageDown)
		})
	}
}
