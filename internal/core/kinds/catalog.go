package kinds

import "github.com/JonMunkholm/secops/internal/core"

// Reference catalogs used by service points.

func init() {
	registerNetworkOperators()
	registerProcedures()
}

func registerNetworkOperators() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindNetworkOperators,
			Table: "operatori_rete",
			Group: "Configurazione",
			Label: "Operatori di Rete",
		},
		FieldSpecs: []core.FieldSpec{
			idField(),
			required(text("nome", "Nome", "Operatore", "Nome Operatore")),
			text("ragione_sociale", "Ragione Sociale", "Denominazione"),
			telefono(),
			email(),
			text("referente", "Referente", "Contatto"),
			flag("attivo", "Attivo", "Active"),
			note(),
		},
		KeySets: []core.KeySet{
			{"id"},
			{"nome"},
		},
	})
}

func registerProcedures() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindProcedures,
			Table: "procedure_operative",
			Group: "Configurazione",
			Label: "Procedure Operative",
		},
		FieldSpecs: []core.FieldSpec{
			idField(),
			required(text("codice_procedura", "Codice Procedura", "Cod. Procedura", "Codice")),
			required(text("nome_procedura", "Nome Procedura", "Procedura", "Nome")),
			text("descrizione", "Descrizione"),
			text("versione", "Versione", "Rev", "Revisione"),
			date("data_revisione", "Data Revisione", "Data Rev."),
			flag("attiva", "Attiva", "Attivo", "Active"),
		},
		KeySets: []core.KeySet{
			{"id"},
			{"codice_procedura"},
		},
	})
}
