package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "propverify/pkg/domain"
)

func TestFor_AgentRequiresLicenseIDAndPhoto(t *testing.T) {
	cat := For(id.RoleAgent)

	required := map[string]bool{}
	for _, slot := range cat.RequiredSlots() {
		required[slot.DocType] = true
	}
	assert.Equal(t, map[string]bool{
		"prc_license":   true,
		"government_id": true,
		"profile_photo": true,
	}, required)
}

func TestFor_DeveloperRequiresBusinessDocuments(t *testing.T) {
	cat := For(id.RoleDeveloper)

	var required []string
	for _, slot := range cat.RequiredSlots() {
		required = append(required, slot.DocType)
	}
	assert.ElementsMatch(t, []string{
		"business_permit", "sec_registration", "license_to_sell",
		"audited_financials", "representative_id",
	}, required)

	_, ok := cat.Lookup(CategoryLegal, "prc_license")
	assert.False(t, ok, "developer catalog has no PRC license slot")
}

func TestFor_UnknownRoleIsEmpty(t *testing.T) {
	cat := For(id.Role("broker"))
	assert.True(t, cat.IsEmpty())
	assert.Empty(t, cat.Slots())
	assert.Empty(t, cat.RequiredSlots())
}

func TestFor_ReturnsCopies(t *testing.T) {
	first := For(id.RoleAgent)
	first.Categories[0].Types[0].Required = false
	first.Categories[0].Name = "mutated"

	second := For(id.RoleAgent)
	assert.True(t, second.Categories[0].Types[0].Required)
	assert.NotEqual(t, "mutated", second.Categories[0].Name)
}

func TestFor_DocTypesUniqueWithinCategory(t *testing.T) {
	for _, role := range []id.Role{id.RoleAgent, id.RoleDeveloper} {
		for _, cat := range For(role).Categories {
			seen := map[string]bool{}
			for _, dt := range cat.Types {
				require.False(t, seen[dt.ID], "%s/%s/%s duplicated", role, cat.Key, dt.ID)
				seen[dt.ID] = true
			}
		}
	}
}

func TestLookup(t *testing.T) {
	cat := For(id.RoleAgent)

	dt, ok := cat.Lookup(CategoryLegal, "prc_license")
	require.True(t, ok)
	assert.True(t, dt.Required)

	_, ok = cat.Lookup(CategoryProperty, "land_title")
	assert.False(t, ok)

	_, ok = cat.Lookup(CategoryPersonal, "prc_license")
	assert.False(t, ok, "doc type must match its own category")
}

func TestParseCategoryKey(t *testing.T) {
	k, ok := ParseCategoryKey("financial")
	assert.True(t, ok)
	assert.Equal(t, CategoryFinancial, k)

	_, ok = ParseCategoryKey("misc")
	assert.False(t, ok)
}
