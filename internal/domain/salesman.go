package domain

import (
	"github.com/orderlink/importer/internal/docstore"
	"github.com/orderlink/importer/internal/normalize"
)

// Salesman is a fully derived entity: it is rebuilt from customer documents
// and never carries data of its own. One per unique case-folded name per
// brand.
type Salesman struct {
	ID         string
	Name       string
	Normalized string
	Brand      string
}

// NewSalesman builds the salesman entity for a display name as it appeared
// on a customer. The ID embeds the normalized form so re-imports of the
// same name land on the same document.
func NewSalesman(brand, displayName string) Salesman {
	name := normalize.CollapseSpace(displayName)
	norm := normalize.FoldKey(name)
	return Salesman{
		ID:         brand + "_" + norm,
		Name:       name,
		Normalized: norm,
		Brand:      brand,
	}
}

func (s Salesman) Doc() docstore.Doc {
	return docstore.Doc{
		"name":       s.Name,
		"normalized": s.Normalized,
		"brand":      s.Brand,
	}
}
