package kinds

import "github.com/JonMunkholm/secops/internal/core"

func init() {
	registerClients()
	registerSuppliers()
}

func registerClients() {
	fields := []core.FieldSpec{
		idField(),
		text("codice_cliente", "Codice Cliente", "Cod. Cliente", "Codice"),
		required(text("ragione_sociale", "Ragione Sociale", "Denominazione", "Cliente", "Nome Cliente")),
		partitaIVA(),
		codiceFiscale(),
	}
	fields = append(fields, addressFields()...)
	fields = append(fields,
		telefono(),
		email(),
		normalized(text("pec", "PEC", "Email PEC"), NormalizeEmail),
		text("codice_sdi", "Codice SDI", "SDI", "Codice Destinatario"),
		text("referente", "Referente", "Contatto"),
		flag("attivo", "Attivo", "Active"),
		note(),
	)

	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindClients,
			Table: "clienti",
			Group: "Anagrafiche",
			Label: "Clienti",
		},
		FieldSpecs: fields,
		KeySets: []core.KeySet{
			{"id"},
			{"codice_cliente"},
			{"partita_iva"},
			{"ragione_sociale"},
		},
	})
}

func registerSuppliers() {
	fields := []core.FieldSpec{
		idField(),
		text("codice_fornitore", "Codice Fornitore", "Cod. Fornitore", "Codice"),
		required(text("ragione_sociale", "Ragione Sociale", "Denominazione", "Fornitore", "Nome Fornitore")),
		partitaIVA(),
		codiceFiscale(),
	}
	fields = append(fields, addressFields()...)
	fields = append(fields,
		telefono(),
		email(),
		normalized(text("pec", "PEC", "Email PEC"), NormalizeEmail),
		text("categoria", "Categoria", "Tipologia"),
		flag("attivo", "Attivo", "Active"),
		note(),
	)

	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindSuppliers,
			Table: "fornitori",
			Group: "Anagrafiche",
			Label: "Fornitori",
		},
		FieldSpecs: fields,
		KeySets: []core.KeySet{
			{"id"},
			{"codice_fornitore"},
			{"partita_iva"},
			{"ragione_sociale"},
		},
	})
}
