package sales

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Column describes one report column for the rendering layer.
type Column struct {
	Label     string `json:"label"`
	Fieldname string `json:"fieldname"`
	Fieldtype string `json:"fieldtype"`
	Options   string `json:"options,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
}

var columnDefs = []Column{
	{Label: "Sales Order", Fieldname: "name", Fieldtype: "Link", Options: "Sales Order"},
	{Label: "Posting Date", Fieldname: "submitted", Fieldtype: "Date"},
	{Label: "Payment Term", Fieldname: "payment_term", Fieldtype: "Data"},
	{Label: "Description", Fieldname: "description", Fieldtype: "Data"},
	{Label: "Due Date", Fieldname: "due_date", Fieldtype: "Date"},
	{Label: "Invoice Portion", Fieldname: "invoice_portion", Fieldtype: "Percent"},
	{Label: "Payment Amount", Fieldname: "base_payment_amount", Fieldtype: "Currency", Options: "currency"},
	{Label: "Paid Amount", Fieldname: "paid_amount", Fieldtype: "Currency", Options: "currency"},
	{Label: "Invoices", Fieldname: "invoices", Fieldtype: "Link", Options: "Sales Invoice"},
	{Label: "Status", Fieldname: "status", Fieldtype: "Data"},
	{Label: "Currency", Fieldname: "currency", Fieldtype: "Currency", Hidden: true},
}

// =============================================================================
// LABEL TRANSLATIONS
// =============================================================================

var supported = []language.Tag{language.English, language.German, language.French}

var matcher = language.NewMatcher(supported)

func init() {
	translations := map[language.Tag]map[string]string{
		language.German: {
			"Sales Order":     "Kundenauftrag",
			"Posting Date":    "Buchungsdatum",
			"Payment Term":    "Zahlungsbedingung",
			"Description":     "Beschreibung",
			"Due Date":        "Fälligkeitsdatum",
			"Invoice Portion": "Rechnungsanteil",
			"Payment Amount":  "Zahlungsbetrag",
			"Paid Amount":     "Gezahlter Betrag",
			"Invoices":        "Rechnungen",
			"Status":          "Status",
			"Currency":        "Währung",
		},
		language.French: {
			"Sales Order":     "Commande client",
			"Posting Date":    "Date de comptabilisation",
			"Payment Term":    "Terme de paiement",
			"Description":     "Description",
			"Due Date":        "Date d'échéance",
			"Invoice Portion": "Pourcentage de facturation",
			"Payment Amount":  "Montant du paiement",
			"Paid Amount":     "Montant payé",
			"Invoices":        "Factures",
			"Status":          "Statut",
			"Currency":        "Devise",
		},
	}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = message.SetString(tag, key, msg)
		}
	}
}

// printer returns a message printer for the closest supported language.
// Unknown or empty languages fall back to English.
func printer(lang string) *message.Printer {
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()
	for _, t := range supported {
		if b, _ := t.Base(); b == base {
			return message.NewPrinter(t)
		}
	}
	return message.NewPrinter(language.English)
}

func translate(p *message.Printer, label string) string {
	return p.Sprintf(message.Key(label, label))
}

// Columns returns the report columns with labels in lang.
func Columns(lang string) []Column {
	p := printer(lang)
	cols := make([]Column, len(columnDefs))
	for i, c := range columnDefs {
		c.Label = translate(p, c.Label)
		cols[i] = c
	}
	return cols
}
