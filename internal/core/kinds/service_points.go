package kinds

import "github.com/JonMunkholm/secops/internal/core"

func init() {
	registerServicePoints()
}

// Service points are the guarded sites of a client: alarm panels, patrol stops,
// fixed posts.
func registerServicePoints() {
	fields := []core.FieldSpec{
		idField(),
		text("codice_punto", "Codice Punto", "Cod. Punto", "Codice"),
		required(text("nome_punto", "Nome Punto", "Punto Servizio", "Denominazione")),
		reference("cliente_id", "ID Cliente (UUID)", "ID Cliente"),
	}
	fields = append(fields, addressFields()...)
	fields = append(fields,
		number("latitudine", "Latitudine", "Lat"),
		number("longitudine", "Longitudine", "Lon", "Lng"),
		reference("operatore_rete_id", "ID Operatore Rete (UUID)", "ID Operatore Rete"),
		reference("procedura_id", "ID Procedura (UUID)", "ID Procedura"),
		text("codice_impianto", "Codice Impianto", "Impianto", "Codice Centrale"),
		number("tempo_intervento", "Tempo Intervento (min)", "Tempo Intervento"),
		flag("attivo", "Attivo", "Active"),
		note(),
	)

	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindServicePoints,
			Table: "punti_servizio",
			Group: "Anagrafiche",
			Label: "Punti Servizio",
		},
		FieldSpecs: fields,
		KeySets: []core.KeySet{
			{"id"},
			{"codice_punto"},
			{"cliente_id", "nome_punto"},
		},
		ForeignKeys: []core.ForeignKey{
			{Field: "cliente_id", References: core.KindClients},
			{Field: "operatore_rete_id", References: core.KindNetworkOperators},
			{Field: "procedura_id", References: core.KindProcedures},
		},
		Lookups: []core.Lookup{
			clienteLookup(),
			{
				Field:       "procedura_id",
				CodeHeaders: []string{"Codice Procedura", "codice_procedura", "codiceProcedura"},
				Kind:        core.KindProcedures,
				CodeField:   "codice_procedura",
			},
		},
	})
}
