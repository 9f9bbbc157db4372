package domain

import (
	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/fields"
	"github.com/orderlink/importer/internal/normalize"
)

var (
	customerCodeAliases = []string{
		"Κωδικός Πελάτη", "Κωδικός", "ΚΩΔΙΚΟΣ", "Customer Code", "Code",
		"Êùäéêüò ÐåëÜôç", "Êùäéêüò",
	}
	customerNameAliases = []string{
		"Επωνυμία", "ΕΠΩΝΥΜΙΑ", "Όνομα", "Name", "Åðùíõìßá",
	}

	streetAliases     = []string{"Διεύθυνση", "ΔΙΕΥΘΥΝΣΗ", "Address", "Äéåýèõíóç"}
	cityAliases       = []string{"Πόλη", "ΠΟΛΗ", "City", "Ðüëç"}
	postalCodeAliases = []string{"Τ.Κ.", "ΤΚ", "Postal Code", "Zip"}
	areaAliases       = []string{"Περιοχή", "ΠΕΡΙΟΧΗ", "Area", "Ðåñéï÷Þ"}

	phoneAliases  = []string{"Τηλέφωνο", "ΤΗΛΕΦΩΝΟ", "Phone", "ÔçëÝöùíï"}
	mobileAliases = []string{"Κινητό", "ΚΙΝΗΤΟ", "Mobile", "Êéíçôü"}
	emailAliases  = []string{"Email", "EMAIL", "E-mail", "e-mail"}
	faxAliases    = []string{"Fax", "FAX", "Φαξ"}

	vatNumberAliases  = []string{"ΑΦΜ", "Α.Φ.Μ.", "VAT", "ÁÖÌ"}
	taxOfficeAliases  = []string{"ΔΟΥ", "Δ.Ο.Υ.", "Tax Office", "ÄÏÕ"}
	professionAliases = []string{"Επάγγελμα", "ΕΠΑΓΓΕΛΜΑ", "Profession", "ÅðÜããåëìá"}

	salesmanAliases = []string{"Πωλητής", "ΠΩΛΗΤΗΣ", "Salesman", "ÐùëçôÞò"}
	merchAliases    = []string{"Merch", "MERCH", "Μέρτς"}
	routeAliases    = []string{"Δρομολόγιο", "Route", "Äñïìïëüãéï"}

	zoneAliases     = []string{"Ζώνη", "ΖΩΝΗ", "Zone", "Æþíç"}
	regionAliases   = []string{"Νομός", "ΝΟΜΟΣ", "Region", "Íïìüò"}
	carrierAliases  = []string{"Μεταφορική", "ΜΕΤΑΦΟΡΙΚΗ", "Carrier", "ÌåôáöïñéêÞ"}
	shipNoteAliases = []string{"Σημειώσεις Αποστολής", "Shipping Notes"}

	balanceAliases        = []string{"Υπόλοιπο", "ΥΠΟΛΟΙΠΟ", "Balance", "Õðüëïéðï"}
	discountAliases       = []string{"Έκπτωση", "ΕΚΠΤΩΣΗ", "Discount", "¸êðôùóç"}
	customerActiveAliases = []string{"Ενεργός", "ΕΝΕΡΓΟΣ", "Active", "Åíåñãüò"}
)

// BuildCustomer turns one raw row into a canonical customer document keyed
// by customer code.
//
// Unlike products, customers always carry the nested groups (address,
// contact, vatInfo, salesInfo, region, transportation) with individually
// nullable leaves: the ordering UI binds to those paths and needs a stable
// shape even when a leaf is unknown.
func BuildCustomer(row fields.Row, brand BrandContext) (string, docstore.Doc, error) {
	code, ok := fields.Pick(row, customerCodeAliases...)
	if !ok {
		return "", nil, ErrMissingKey
	}

	doc := docstore.Doc{
		"customerCode": code,
		"brand":        brand.Key,
	}

	putText(doc, "name", row, customerNameAliases)

	doc["address"] = group(row, map[string][]string{
		"street":     streetAliases,
		"city":       cityAliases,
		"postalCode": postalCodeAliases,
		"area":       areaAliases,
	})
	doc["contact"] = group(row, map[string][]string{
		"phone":  phoneAliases,
		"mobile": mobileAliases,
		"email":  emailAliases,
		"fax":    faxAliases,
	})
	doc["vatInfo"] = group(row, map[string][]string{
		"vatNumber":  vatNumberAliases,
		"taxOffice":  taxOfficeAliases,
		"profession": professionAliases,
	})
	doc["salesInfo"] = group(row, map[string][]string{
		"salesman": salesmanAliases,
		"merch":    merchAliases,
		"route":    routeAliases,
	})
	doc["region"] = group(row, map[string][]string{
		"zone": zoneAliases,
		"name": regionAliases,
	})
	doc["transportation"] = group(row, map[string][]string{
		"carrier": carrierAliases,
		"notes":   shipNoteAliases,
	})

	putPrice(doc, "balance", row, balanceAliases)
	putDecimal(doc, "discount", row, discountAliases)

	// Customers are inactive unless the export says otherwise.
	if v, ok := fields.Pick(row, customerActiveAliases...); ok {
		doc["active"] = normalize.Bool(v)
	} else {
		doc["active"] = false
	}

	return code, doc, nil
}

// group builds a fixed-shape nested object: every leaf is present, unknown
// leaves are null.
func group(row fields.Row, leaves map[string][]string) map[string]any {
	out := make(map[string]any, len(leaves))
	for leaf, aliases := range leaves {
		out[leaf] = nil
		if v, ok := fields.Pick(row, aliases...); ok {
			if s, ok := normalize.Text(v); ok {
				out[leaf] = s
			}
		}
	}
	return out
}
