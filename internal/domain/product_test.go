package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlink/importer/internal/fields"
)

var testBrand = BrandContext{
	Key:                "bazaar",
	ProductCollection:  "products_bazaar",
	CustomerCollection: "customers_bazaar",
}

func TestBuildProduct(t *testing.T) {
	row := fields.Row{
		"Κωδικός":        " P-100 ",
		"Περιγραφή":      "Φέτα ΠΟΠ 400γρ",
		"Τιμή Χονδρικής": "3,456",
		"Τιμή Λιανικής":  "4,90",
		"ΦΠΑ":            "13",
		"Εικόνα":         `=IMAGE("https://cdn.example.com/feta.jpg")`,
	}

	key, doc, err := BuildProduct(row, "Τυριά", testBrand)
	require.NoError(t, err)
	assert.Equal(t, "P-100", key)

	assert.Equal(t, "P-100", doc["productCode"])
	assert.Equal(t, "bazaar", doc["brand"])
	assert.Equal(t, "Φέτα ΠΟΠ 400γρ", doc["description"])
	assert.Equal(t, 3.46, doc["wholesalePrice"])
	assert.Equal(t, 4.9, doc["retailPrice"])
	assert.Equal(t, 13.0, doc["vat"])
	assert.Equal(t, "https://cdn.example.com/feta.jpg", doc["imageUrl"])

	// Sheet name backfills a missing category column.
	assert.Equal(t, "Τυριά", doc["category"])

	// Sparse document: absent columns stay absent.
	_, hasBarcode := doc["barcode"]
	assert.False(t, hasBarcode)
	_, hasStock := doc["stock"]
	assert.False(t, hasStock)
}

func TestBuildProductActiveDefaultsTrue(t *testing.T) {
	// Legacy exports carry no active column; those products stay active.
	_, doc, err := BuildProduct(fields.Row{"Κωδικός": "P-1"}, "", testBrand)
	require.NoError(t, err)
	assert.Equal(t, true, doc["active"])

	// An explicit empty cell deactivates.
	_, doc, err = BuildProduct(fields.Row{"Κωδικός": "P-2", "Ενεργό": ""}, "", testBrand)
	require.NoError(t, err)
	assert.Equal(t, false, doc["active"])

	_, doc, err = BuildProduct(fields.Row{"Κωδικός": "P-3", "Ενεργό": "yes"}, "", testBrand)
	require.NoError(t, err)
	assert.Equal(t, true, doc["active"])
}

func TestBuildProductMissingKey(t *testing.T) {
	_, _, err := BuildProduct(fields.Row{"Περιγραφή": "ορφανό προϊόν"}, "", testBrand)
	assert.ErrorIs(t, err, ErrMissingKey)

	_, _, err = BuildProduct(fields.Row{"Κωδικός": "   "}, "", testBrand)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestBuildProductSentinelValuesDropped(t *testing.T) {
	row := fields.Row{
		"Κωδικός":   "P-9",
		"Περιγραφή": "#REF!",
	}

	_, doc, err := BuildProduct(row, "", testBrand)
	require.NoError(t, err)
	_, hasDescription := doc["description"]
	assert.False(t, hasDescription)
}

func TestBuildProductMojibakeHeaders(t *testing.T) {
	row := fields.Row{
		"Êùäéêüò":   "P-77",
		"ÐåñéãñáöÞ": "Ελιές Καλαμών",
	}

	key, doc, err := BuildProduct(row, "", testBrand)
	require.NoError(t, err)
	assert.Equal(t, "P-77", key)
	assert.Equal(t, "Ελιές Καλαμών", doc["description"])
}
