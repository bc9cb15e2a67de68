package kinds

import "github.com/JonMunkholm/secops/internal/core"

func init() {
	registerRates()
}

// Rates are per-client service prices. The export template has no id column,
// so rows are matched on client, service type and validity start only. The
// validity start is required: a rate without one could never be matched again.
func registerRates() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindRates,
			Table: "tariffe",
			Group: "Configurazione",
			Label: "Tariffe",
		},
		FieldSpecs: []core.FieldSpec{
			required(reference("cliente_id", "ID Cliente (UUID)", "ID Cliente")),
			required(text("tipo_servizio", "Tipo Servizio", "Servizio")),
			required(number("importo", "Importo", "Prezzo", "Tariffa", "Importo (€)")),
			text("unita_misura", "Unità di Misura", "Unita Misura", "UM"),
			required(date("valida_dal", "Valida Dal", "Dal", "Decorrenza")),
			date("valida_al", "Valida Al", "Al", "Scadenza"),
			note(),
		},
		KeySets: []core.KeySet{
			{"cliente_id", "tipo_servizio", "valida_dal"},
		},
		ForeignKeys: []core.ForeignKey{
			{Field: "cliente_id", References: core.KindClients},
		},
		Lookups: []core.Lookup{
			clienteLookup(),
		},
	})
}
