package kinds

import "github.com/JonMunkholm/secops/internal/core"

// Field builders shared by several kinds.

func idField() core.FieldSpec {
	return core.FieldSpec{
		Name:       core.FieldID,
		Label:      "ID (UUID)",
		Headers:    []string{"ID", "UUID"},
		Type:       core.FieldIdentifier,
		HasDefault: true,
	}
}

func text(name, label string, headers ...string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Headers: headers, Type: core.FieldText}
}

func required(spec core.FieldSpec) core.FieldSpec {
	spec.Required = true
	return spec
}

func normalized(spec core.FieldSpec, fn func(string) string) core.FieldSpec {
	spec.Normalizer = fn
	return spec
}

func number(name, label string, headers ...string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Headers: headers, Type: core.FieldNumber}
}

func date(name, label string, headers ...string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Headers: headers, Type: core.FieldDate}
}

// flag is a boolean column with a storage default; absent means "keep the default".
func flag(name, label string, headers ...string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Headers: headers, Type: core.FieldBool, HasDefault: true}
}

func reference(name, label string, headers ...string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Headers: headers, Type: core.FieldIdentifier}
}

// Address and contact columns repeated across the registries.

func addressFields() []core.FieldSpec {
	return []core.FieldSpec{
		text("indirizzo", "Indirizzo", "Via", "Address"),
		text("citta", "Città", "Citta", "Comune", "City"),
		normalized(text("cap", "CAP", "C.A.P.", "Codice Postale"), NormalizeCAP),
		normalized(text("provincia", "Provincia", "Prov", "Prov."), NormalizeProvincia),
	}
}

func telefono() core.FieldSpec {
	return text("telefono", "Telefono", "Tel", "Tel.", "Phone")
}

func email() core.FieldSpec {
	return normalized(text("email", "Email", "E-mail", "Mail"), NormalizeEmail)
}

func partitaIVA() core.FieldSpec {
	return normalized(text("partita_iva", "Partita IVA", "P.IVA", "P. IVA", "PIVA", "VAT"), NormalizePartitaIVA)
}

func codiceFiscale(headers ...string) core.FieldSpec {
	return normalized(text("codice_fiscale", "Codice Fiscale", append([]string{"CF", "C.F."}, headers...)...), NormalizeCodiceFiscale)
}

func note() core.FieldSpec {
	return text("note", "Note", "Annotazioni", "Notes")
}

// Lookup builders: resolve an identifier field from the referenced kind's code.

func clienteLookup() core.Lookup {
	return core.Lookup{
		Field:       "cliente_id",
		CodeHeaders: []string{"Codice Cliente", "codice_cliente", "codiceCliente", "Cod. Cliente"},
		Kind:        core.KindClients,
		CodeField:   "codice_cliente",
	}
}

func fornitoreLookup() core.Lookup {
	return core.Lookup{
		Field:       "fornitore_id",
		CodeHeaders: []string{"Codice Fornitore", "codice_fornitore", "codiceFornitore", "Cod. Fornitore"},
		Kind:        core.KindSuppliers,
		CodeField:   "codice_fornitore",
	}
}
