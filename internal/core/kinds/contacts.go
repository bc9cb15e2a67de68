package kinds

import "github.com/JonMunkholm/secops/internal/core"

func init() {
	registerClientContacts()
	registerSupplierContacts()
}

func registerClientContacts() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindClientContacts,
			Table: "rubrica_clienti",
			Group: "Rubrica",
			Label: "Rubrica Clienti",
		},
		FieldSpecs: []core.FieldSpec{
			idField(),
			required(reference("cliente_id", "ID Cliente (UUID)", "ID Cliente")),
			required(text("nome", "Nome", "Nominativo", "Contatto")),
			text("ruolo", "Ruolo", "Qualifica"),
			telefono(),
			text("cellulare", "Cellulare", "Cell", "Mobile"),
			email(),
			flag("reperibile", "Reperibile", "Reperibilità"),
			note(),
		},
		KeySets: []core.KeySet{
			{"id"},
			{"cliente_id", "nome"},
		},
		ForeignKeys: []core.ForeignKey{
			{Field: "cliente_id", References: core.KindClients},
		},
		Lookups: []core.Lookup{
			clienteLookup(),
		},
	})
}

func registerSupplierContacts() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindSupplierContacts,
			Table: "rubrica_fornitori",
			Group: "Rubrica",
			Label: "Rubrica Fornitori",
		},
		FieldSpecs: []core.FieldSpec{
			idField(),
			required(reference("fornitore_id", "ID Fornitore (UUID)", "ID Fornitore")),
			required(text("nome", "Nome", "Nominativo", "Contatto")),
			text("ruolo", "Ruolo", "Qualifica"),
			telefono(),
			text("cellulare", "Cellulare", "Cell", "Mobile"),
			email(),
			note(),
		},
		KeySets: []core.KeySet{
			{"id"},
			{"fornitore_id", "nome"},
		},
		ForeignKeys: []core.ForeignKey{
			{Field: "fornitore_id", References: core.KindSuppliers},
		},
		Lookups: []core.Lookup{
			fornitoreLookup(),
		},
	})
}
