package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/secops/internal/config"
	"github.com/JonMunkholm/secops/internal/core"
	"github.com/JonMunkholm/secops/internal/storage"
)

func clientRows() []core.RawRow {
	return []core.RawRow{
		{"Codice Cliente": "C001", "Ragione Sociale": "Acme Srl", "Telefono": "02 111"},
		{"Codice Cliente": "C002", "Ragione Sociale": "Beta Spa", "Partita IVA": "IT01234567890"},
		{"Codice Cliente": "C003", "ragioneSociale": "Gamma Sicurezza", "Attivo": "false"},
	}
}

// ----------------------------------------------------------------------------
// Preview Tests
// ----------------------------------------------------------------------------

func TestPreview_DoesNotWrite(t *testing.T) {
	store := newClientStore()
	store.Seed("clienti", storage.Record{"id": acmeID, "codice_cliente": "C001", "ragione_sociale": "Acme Srl", "telefono": "02 000"})
	before := store.Rows("clienti")

	svc := newService(store)
	preview, err := svc.Preview(context.Background(), core.KindClients, clientRows())
	require.NoError(t, err)

	assert.Equal(t, 0, store.Writes())
	assert.Equal(t, before, store.Rows("clienti"))

	assert.Equal(t, core.KindClients, preview.Kind)
	assert.Equal(t, core.PreviewSummary{TotalRows: 3, NewRows: 2, UpdateRows: 1}, preview.Summary)
	require.Len(t, preview.Report, 3)

	update := preview.Report[0]
	assert.Equal(t, 1, update.Row)
	assert.Equal(t, core.StatusUpdate, update.Status)
	assert.Equal(t, []string{"telefono"}, update.UpdatedFields)
	assert.Equal(t, acmeID, update.ID)
	assert.Equal(t, clientRows()[0], update.OriginalRow)

	assert.Equal(t, core.StatusNew, preview.Report[1].Status)
	assert.Equal(t, "01234567890", preview.Report[1].ProcessedData["partita_iva"])
	assert.Equal(t, []string{}, preview.Report[1].UpdatedFields)
}

func TestPreview_ErrorRowsKeepRawData(t *testing.T) {
	svc := newService(newClientStore())

	preview, err := svc.Preview(context.Background(), core.KindClientContacts, []core.RawRow{
		{"Nome": "Mario Rossi"},
		{"ID Cliente (UUID)": unknownID, "Nome": "Luca Bianchi"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, preview.Summary.ErrorRows)
	assert.Equal(t, 1, preview.Summary.InvalidFKRows)

	missing := preview.Report[0]
	assert.Equal(t, core.StatusError, missing.Status)
	assert.Equal(t, `required field "cliente_id" is missing`, missing.Message)
	assert.Nil(t, missing.ProcessedData)
	assert.Equal(t, "Mario Rossi", missing.OriginalRow["Nome"])

	invalid := preview.Report[1]
	assert.Equal(t, core.StatusInvalidFK, invalid.Status)
	assert.Contains(t, invalid.Message, "does not exist in clients")
	assert.Equal(t, unknownID, invalid.ProcessedData["cliente_id"])
}

// ----------------------------------------------------------------------------
// Commit Tests
// ----------------------------------------------------------------------------

func TestCommit_InsertsAndIsIdempotent(t *testing.T) {
	store := newClientStore()
	svc := newService(store)
	ctx := context.Background()

	first, err := svc.Commit(ctx, core.KindClients, clientRows())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.False(t, first.HasErrors())
	assert.Equal(t, "Import completed: 3 inserted, 0 updated, 0 duplicates, 0 errors", first.Message)
	assert.Equal(t, []string{}, first.ErrorMessages)

	rows := store.Rows("clienti")
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, fixedNow, row["created_at"])
		assert.Equal(t, fixedNow, row["updated_at"])
		_, err := uuid.Parse(fmt.Sprint(row["id"]))
		assert.NoError(t, err)
	}
	assert.Equal(t, false, rows[2]["attivo"])
	assert.NotContains(t, rows[0], "attivo")

	writes := store.Writes()
	second, err := svc.Commit(ctx, core.KindClients, clientRows())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Duplicates)
	assert.Equal(t, writes, store.Writes())
}

func TestCommit_AppliesUpdates(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newClientStore()
	store.Seed("clienti", storage.Record{
		"id":              acmeID,
		"codice_cliente":  "C001",
		"ragione_sociale": "Acme Srl",
		"telefono":        "02 000",
		"created_at":      created,
		"updated_at":      created,
	})

	result, err := newService(store).Commit(context.Background(), core.KindClients, clientRows()[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	rows := store.Rows("clienti")
	require.Len(t, rows, 1)
	assert.Equal(t, acmeID, rows[0]["id"])
	assert.Equal(t, "02 111", rows[0]["telefono"])
	assert.Equal(t, created, rows[0]["created_at"])
	assert.Equal(t, fixedNow, rows[0]["updated_at"])
}

func TestCommit_PartialColumnsKeepStoredValues(t *testing.T) {
	store := newClientStore()
	store.Seed("clienti", storage.Record{
		"id":              acmeID,
		"codice_cliente":  "C001",
		"ragione_sociale": "Acme Srl",
		"telefono":        "02 000",
		"email":           "info@acme.it",
		"note":            "cliente storico",
	})

	result, err := newService(store).Commit(context.Background(), core.KindClients, []core.RawRow{
		{"Codice Cliente": "C001", "Ragione Sociale": "Acme Srl", "Telefono": "02 111", "Note": ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	rows := store.Rows("clienti")
	require.Len(t, rows, 1)
	assert.Equal(t, "02 111", rows[0]["telefono"])
	assert.Equal(t, "info@acme.it", rows[0]["email"])
	assert.Nil(t, rows[0]["note"])
}

func TestCommit_RatesAreIdempotent(t *testing.T) {
	store := newClientStore()
	clientID := seedOne(t, store, "clienti", storage.Record{"codice_cliente": "C001", "ragione_sociale": "Acme Srl"})
	svc := newService(store)
	ctx := context.Background()

	rate := []core.RawRow{{
		"ID Cliente (UUID)": clientID,
		"Tipo Servizio":     "Vigilanza",
		"Importo":           "12,50",
		"Valida Dal":        "01/01/2026",
	}}

	first, err := svc.Commit(ctx, core.KindRates, rate)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	second, err := svc.Commit(ctx, core.KindRates, rate)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 1, second.Duplicates)
	assert.Len(t, store.Rows("tariffe"), 1)

	// without a validity start the rate could never be matched again
	delete(rate[0], "Valida Dal")
	undated, err := svc.Commit(ctx, core.KindRates, rate)
	require.NoError(t, err)
	assert.Equal(t, 0, undated.Inserted)
	assert.Equal(t, []string{`row 1: required field "valida_dal" is missing`}, undated.ErrorMessages)
	assert.Len(t, store.Rows("tariffe"), 1)
}

func TestCommit_PartialFailure(t *testing.T) {
	store := newClientStore()
	clientID := seedOne(t, store, "clienti", storage.Record{"codice_cliente": "C001", "ragione_sociale": "Acme Srl"})
	missingClient := uuid.NewString()

	rows := make([]core.RawRow, 500)
	for i := range rows {
		rows[i] = core.RawRow{"ID Cliente (UUID)": clientID, "Nome": fmt.Sprintf("Contatto %03d", i+1)}
	}
	rows[9]["Nome"] = ""
	rows[19]["Nome"] = "  "
	rows[29]["ID Cliente (UUID)"] = missingClient

	result, err := newService(store).Commit(context.Background(), core.KindClientContacts, rows)
	require.NoError(t, err)

	assert.Equal(t, 497, result.Inserted)
	assert.Equal(t, 3, result.Errors)
	assert.True(t, result.HasErrors())
	assert.Equal(t, []string{
		`row 10: required field "nome" is missing`,
		`row 20: required field "nome" is missing`,
		fmt.Sprintf(`row 30: invalid reference: cliente_id %q does not exist in clients`, missingClient),
	}, result.ErrorMessages)
	assert.Len(t, store.Rows("rubrica_clienti"), 497)
}

func TestCommit_ErrorMessagesAreCapped(t *testing.T) {
	rows := make([]core.RawRow, 30)
	for i := range rows {
		rows[i] = core.RawRow{"Telefono": "02 000"}
	}

	tests := []struct {
		name    string
		max     int
		entries int
		last    string
	}{
		{"default cap", 0, 21, "... and 10 more errors"},
		{"custom cap", 5, 6, "... and 25 more errors"},
		{"cap above count", 50, 30, `row 30: required field "ragione_sociale" is missing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(newClientStore(), func(c *config.ImportConfig) { c.MaxErrorMessages = tt.max })

			result, err := svc.Commit(context.Background(), core.KindClients, rows)
			require.NoError(t, err)

			assert.Equal(t, 30, result.Errors)
			require.Len(t, result.ErrorMessages, tt.entries)
			assert.Equal(t, tt.last, result.ErrorMessages[len(result.ErrorMessages)-1])
		})
	}
}

func TestCommit_WriteFailureIsRowError(t *testing.T) {
	store := newClientStore()

	// Both rows classify as NEW against the initial snapshot; the second
	// collides with the first on partita_iva at write time.
	result, err := newService(store).Commit(context.Background(), core.KindClients, []core.RawRow{
		{"Ragione Sociale": "Acme Srl", "Partita IVA": "01234567890"},
		{"Ragione Sociale": "Acme Sicurezza", "Partita IVA": "IT 01234567890"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, result.ErrorMessages, 1)
	assert.Contains(t, result.ErrorMessages[0], "row 2: write failed:")
	assert.Contains(t, result.ErrorMessages[0], "unique constraint violation")
	assert.Len(t, store.Rows("clienti"), 1)
}

func TestCommit_SnapshotFailure(t *testing.T) {
	src := &countingSource{Store: storage.NewMemoryStore(), failTable: "clienti"}
	svc := core.NewService(src, config.Defaults())

	result, err := svc.Commit(context.Background(), core.KindClients, clientRows())
	assert.Nil(t, result)

	var loadErr *core.SnapshotLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
}

func TestCommit_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newClientStore()
	_, err := newService(store).Commit(ctx, core.KindClients, clientRows())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, store.Writes())
}

// ----------------------------------------------------------------------------
// Request Validation Tests
// ----------------------------------------------------------------------------

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("empty mode previews", func(t *testing.T) {
		store := newClientStore()
		out, err := newService(store).Run(ctx, core.Request{RecordKind: "clients", Rows: clientRows()})
		require.NoError(t, err)

		assert.Equal(t, core.ModePreview, out.Mode)
		require.NotNil(t, out.Preview)
		assert.Nil(t, out.Result)
		assert.Equal(t, 0, store.Writes())
	})

	t.Run("commit", func(t *testing.T) {
		store := newClientStore()
		out, err := newService(store).Run(ctx, core.Request{RecordKind: "clients", Rows: clientRows(), Mode: "commit"})
		require.NoError(t, err)

		assert.Equal(t, core.ModeCommit, out.Mode)
		require.NotNil(t, out.Result)
		assert.Equal(t, 3, out.Result.Inserted)
	})

	errorTests := []struct {
		name string
		req  core.Request
		max  int
		want error
	}{
		{"unknown kind", core.Request{RecordKind: "widgets", Rows: clientRows()}, 0, core.ErrUnknownKind},
		{"invalid mode", core.Request{RecordKind: "clients", Rows: clientRows(), Mode: "apply"}, 0, core.ErrInvalidMode},
		{"no rows", core.Request{RecordKind: "clients", Mode: "preview"}, 0, core.ErrNoRows},
		{"too many rows", core.Request{RecordKind: "clients", Rows: clientRows(), Mode: "commit"}, 2, core.ErrTooManyRows},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			store := newClientStore()
			svc := newService(store, func(c *config.ImportConfig) {
				if tt.max > 0 {
					c.MaxRows = tt.max
				}
			})

			out, err := svc.Run(ctx, tt.req)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, store.Writes())
		})
	}
}

func TestService_LimiterIsReleased(t *testing.T) {
	svc := newService(newClientStore())

	for i := 0; i < 10; i++ {
		_, err := svc.Preview(context.Background(), core.KindClients, clientRows())
		require.NoError(t, err)
	}
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
	assert.Equal(t, svc.Limiter().MaxConcurrent(), svc.Limiter().Available())
}

func TestService_RejectsWhenBusy(t *testing.T) {
	limiter := core.NewRunLimiter(1, 10*time.Millisecond)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	svc := core.NewService(newClientStore(), config.Defaults(), core.WithLimiter(limiter))
	_, err := svc.Preview(context.Background(), core.KindClients, clientRows())
	assert.ErrorIs(t, err, core.ErrTooManyRuns)
}

func TestService_ListKinds(t *testing.T) {
	kinds := newService(newClientStore()).ListKinds()
	assert.Len(t, kinds, len(core.Kinds()))
}
