package kinds

import "github.com/JonMunkholm/secops/internal/core"

func init() {
	registerPersonnel()
}

// Personnel are guards and operators; those employed through a subcontractor
// reference it as fornitore_id.
func registerPersonnel() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindPersonnel,
			Table: "personale",
			Group: "Anagrafiche",
			Label: "Personale",
		},
		FieldSpecs: []core.FieldSpec{
			idField(),
			text("matricola", "Matricola", "Badge", "N. Matricola"),
			required(text("nome", "Nome", "First Name")),
			required(text("cognome", "Cognome", "Last Name")),
			codiceFiscale(),
			date("data_nascita", "Data di Nascita", "Data Nascita"),
			email(),
			telefono(),
			text("ruolo", "Ruolo", "Mansione"),
			text("qualifica", "Qualifica", "Livello"),
			date("data_assunzione", "Data Assunzione", "Assunto il"),
			reference("fornitore_id", "ID Fornitore (UUID)", "ID Fornitore"),
			text("numero_decreto", "Numero Decreto", "Decreto GPG", "N. Decreto"),
			date("scadenza_decreto", "Scadenza Decreto", "Scadenza GPG"),
			flag("attivo", "Attivo", "Active"),
			note(),
		},
		KeySets: []core.KeySet{
			{"id"},
			{"matricola"},
			{"codice_fiscale"},
		},
		ForeignKeys: []core.ForeignKey{
			{Field: "fornitore_id", References: core.KindSuppliers},
		},
		Lookups: []core.Lookup{
			fornitoreLookup(),
		},
	})
}
