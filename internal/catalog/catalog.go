// Package catalog is the static, role-keyed checklist of document types a
// user can upload for verification.
//
// Catalogs are defined at compile time and never mutated. For returns deep
// copies so callers may hold and reorder results freely.
package catalog

import (
	id "propverify/pkg/domain"
)

// CategoryKey groups document types for display and progress reporting.
type CategoryKey string

const (
	CategoryPersonal  CategoryKey = "personal"
	CategoryFinancial CategoryKey = "financial"
	CategoryProperty  CategoryKey = "property"
	CategoryLegal     CategoryKey = "legal"
)

// ParseCategoryKey constructs a CategoryKey from external input.
func ParseCategoryKey(s string) (CategoryKey, bool) {
	switch k := CategoryKey(s); k {
	case CategoryPersonal, CategoryFinancial, CategoryProperty, CategoryLegal:
		return k, true
	default:
		return "", false
	}
}

// DocumentType describes one uploadable document. ID is unique within its category.
type DocumentType struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Category is an ordered group of document types. Slice order is display order.
type Category struct {
	Key   CategoryKey    `json:"key"`
	Name  string         `json:"name"`
	Types []DocumentType `json:"types"`
}

// Slot is a (category, docType) pair a single document can fill.
type Slot struct {
	Category CategoryKey `json:"category"`
	DocType  string      `json:"doc_type"`
}

// Catalog is the ordered checklist for one role.
type Catalog struct {
	Role       id.Role    `json:"role"`
	Categories []Category `json:"categories"`
}

// For returns the catalog for role. Unknown roles get an empty catalog,
// meaning nothing is required.
func For(role id.Role) Catalog {
	def, ok := definitions[role]
	if !ok {
		return Catalog{Role: role}
	}
	out := Catalog{Role: role, Categories: make([]Category, len(def))}
	for i, cat := range def {
		out.Categories[i] = Category{
			Key:   cat.Key,
			Name:  cat.Name,
			Types: append([]DocumentType(nil), cat.Types...),
		}
	}
	return out
}

// IsEmpty reports whether the catalog has no document types.
func (c Catalog) IsEmpty() bool {
	for _, cat := range c.Categories {
		if len(cat.Types) > 0 {
			return false
		}
	}
	return true
}

// Category returns the category with key.
func (c Catalog) Category(key CategoryKey) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}

// Lookup returns the descriptor for a slot.
func (c Catalog) Lookup(key CategoryKey, docType string) (DocumentType, bool) {
	cat, ok := c.Category(key)
	if !ok {
		return DocumentType{}, false
	}
	for _, t := range cat.Types {
		if t.ID == docType {
			return t, true
		}
	}
	return DocumentType{}, false
}

// Slots lists every slot in display order.
func (c Catalog) Slots() []Slot {
	var slots []Slot
	for _, cat := range c.Categories {
		for _, t := range cat.Types {
			slots = append(slots, Slot{Category: cat.Key, DocType: t.ID})
		}
	}
	return slots
}

// RequiredSlots lists the slots that must be verified for full completion.
func (c Catalog) RequiredSlots() []Slot {
	var slots []Slot
	for _, cat := range c.Categories {
		for _, t := range cat.Types {
			if t.Required {
				slots = append(slots, Slot{Category: cat.Key, DocType: t.ID})
			}
		}
	}
	return slots
}
