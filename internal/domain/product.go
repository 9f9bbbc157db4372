package domain

import (
	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/fields"
	"github.com/orderlink/importer/internal/normalize"
)

// Alias lists are ordered by preference: the current header name first,
// transliterated and mojibake variants (Windows-1253 exports read as
// Latin-1) last. Do not reorder without checking live exports.
var (
	productCodeAliases = []string{
		"Κωδικός", "ΚΩΔΙΚΟΣ", "Κωδ.", "Code", "CODE", "sku",
		"Êùäéêüò", "ÊÙÄÉÊÏÓ",
	}
	productNameAliases = []string{
		"Περιγραφή", "ΠΕΡΙΓΡΑΦΗ", "Όνομα", "Description", "Name",
		"ÐåñéãñáöÞ", "ÐÅÑÉÃÑÁÖÇ",
	}
	productCategoryAliases = []string{
		"Κατηγορία", "ΚΑΤΗΓΟΡΙΑ", "Category", "Êáôçãïñßá",
	}
	wholesalePriceAliases = []string{
		"Τιμή Χονδρικής", "ΤΙΜΗ ΧΟΝΔΡΙΚΗΣ", "Χονδρική", "Wholesale",
		"ÔéìÞ ×ïíäñéêÞò",
	}
	retailPriceAliases = []string{
		"Τιμή Λιανικής", "ΤΙΜΗ ΛΙΑΝΙΚΗΣ", "Λιανική", "Retail",
		"ÔéìÞ ËéáíéêÞò",
	}
	vatAliases = []string{
		"ΦΠΑ", "Φ.Π.Α.", "VAT", "ÖÐÁ",
	}
	unitAliases = []string{
		"Μονάδα Μέτρησης", "Μ.Μ.", "Unit", "ÌïíÜäá ÌÝôñçóçò",
	}
	barcodeAliases = []string{
		"Barcode", "BARCODE", "Γραμμωτός Κώδικας",
	}
	imageAliases = []string{
		"Εικόνα", "Φωτογραφία", "Image", "Photo", "Åéêüíá",
	}
	stockAliases = []string{
		"Απόθεμα", "Υπόλοιπο", "Stock", "Áðüèåìá",
	}
	productActiveAliases = []string{
		"Ενεργό", "ΕΝΕΡΓΟ", "Active", "Åíåñãü",
	}
)

// BuildProduct turns one raw row into a canonical product document keyed by
// product code. sheet is the source worksheet name for workbook imports and
// serves as the category fallback; it is empty for CSV imports.
//
// The document is sparse: optional fields appear only when the source
// supplies a non-empty, non-sentinel value.
func BuildProduct(row fields.Row, sheet string, brand BrandContext) (string, docstore.Doc, error) {
	code, ok := fields.Pick(row, productCodeAliases...)
	if !ok {
		return "", nil, ErrMissingKey
	}

	doc := docstore.Doc{
		"productCode": code,
		"brand":       brand.Key,
	}

	putText(doc, "description", row, productNameAliases)
	putText(doc, "unit", row, unitAliases)
	putText(doc, "barcode", row, barcodeAliases)

	if v, ok := fields.Pick(row, productCategoryAliases...); ok {
		if s, ok := normalize.Text(v); ok {
			doc["category"] = s
		}
	} else if s, ok := normalize.Text(sheet); ok {
		doc["category"] = s
	}

	putPrice(doc, "wholesalePrice", row, wholesalePriceAliases)
	putPrice(doc, "retailPrice", row, retailPriceAliases)
	putDecimal(doc, "vat", row, vatAliases)
	putDecimal(doc, "stock", row, stockAliases)

	if v, ok := fields.Pick(row, imageAliases...); ok {
		if u, ok := normalize.URL(v); ok {
			doc["imageUrl"] = u
		}
	}

	// Legacy exports have no active column at all; those products stay
	// sellable. An explicit empty or negative cell deactivates.
	if fields.Has(row, productActiveAliases...) {
		v, _ := fields.Pick(row, productActiveAliases...)
		doc["active"] = normalize.Bool(v)
	} else {
		doc["active"] = true
	}

	return code, doc, nil
}

func putText(doc docstore.Doc, field string, row fields.Row, aliases []string) {
	if v, ok := fields.Pick(row, aliases...); ok {
		if s, ok := normalize.Text(v); ok {
			doc[field] = s
		}
	}
}

func putDecimal(doc docstore.Doc, field string, row fields.Row, aliases []string) {
	if v, ok := fields.Pick(row, aliases...); ok {
		if f, ok := normalize.Decimal(v); ok {
			doc[field] = f
		}
	}
}

func putPrice(doc docstore.Doc, field string, row fields.Row, aliases []string) {
	if v, ok := fields.Pick(row, aliases...); ok {
		if f, ok := normalize.Decimal(v); ok {
			doc[field] = normalize.Currency(f)
		}
	}
}
