package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	id "propverify/pkg/domain"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func doc(category catalog.CategoryKey, docType string, status models.Status, score int) *models.Document {
	return &models.Document{
		ID:         id.NewDocumentID(),
		OwnerID:    "agent-1",
		Role:       id.RoleAgent,
		Category:   category,
		DocType:    docType,
		Status:     status,
		Score:      score,
		Verified:   status == models.StatusVerified,
		UploadedAt: base,
	}
}

func TestCompute_Empty(t *testing.T) {
	for _, role := range []id.Role{id.RoleAgent, id.RoleDeveloper, id.Role("buyer")} {
		stats := Compute(nil, catalog.For(role), nil)
		assert.Zero(t, stats.CompletionPercentage, role)
		assert.Zero(t, stats.AverageScore, role)
		assert.Zero(t, stats.Uploaded, role)
	}
}

func TestCompute_NoRequiredTypesIsZero(t *testing.T) {
	agent := catalog.For(id.RoleAgent)
	financial := catalog.CategoryFinancial
	stats := Compute([]*models.Document{
		doc(catalog.CategoryFinancial, "tin_certificate", models.StatusVerified, 90),
	}, agent, &financial)

	assert.Equal(t, 0, stats.TotalRequired)
	assert.Equal(t, 2, stats.TotalOptional)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 0, stats.CompletionPercentage)
	assert.Equal(t, 90, stats.AverageScore)
}

func TestCompute_AgentTwoOfThreeVerified(t *testing.T) {
	docs := []*models.Document{
		doc(catalog.CategoryLegal, "prc_license", models.StatusVerified, 0),
		doc(catalog.CategoryPersonal, "government_id", models.StatusVerified, 0),
	}
	stats := Compute(docs, catalog.For(id.RoleAgent), nil)

	assert.Equal(t, 67, stats.CompletionPercentage)
	assert.Equal(t, 3, stats.TotalRequired)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 2, stats.Uploaded)
	assert.Equal(t, 2, stats.Verified)
}

func TestCompute_Counts(t *testing.T) {
	docs := []*models.Document{
		doc(catalog.CategoryPersonal, "government_id", models.StatusVerified, 80),
		doc(catalog.CategoryPersonal, "profile_photo", models.StatusProcessing, 0),
		doc(catalog.CategoryPersonal, "proof_of_address", models.StatusRejected, 45),
		doc(catalog.CategoryLegal, "prc_license", models.StatusPending, 0),
		doc(catalog.CategoryLegal, "not_in_catalog", models.StatusVerified, 100),
	}
	stats := Compute(docs, catalog.For(id.RoleAgent), nil)

	assert.Equal(t, Stats{
		Total:                7,
		TotalRequired:        3,
		TotalOptional:        4,
		Uploaded:             4,
		Verified:             1,
		Processing:           1,
		Rejected:             1,
		Pending:              1,
		CompletionPercentage: 33,
		AverageScore:         63,
	}, stats)
}

func TestCompute_LatestUploadPerSlotCounts(t *testing.T) {
	old := doc(catalog.CategoryLegal, "prc_license", models.StatusRejected, 20)
	fresh := doc(catalog.CategoryLegal, "prc_license", models.StatusVerified, 0)
	fresh.UploadedAt = base.Add(time.Hour)

	legal := catalog.CategoryLegal
	stats := Compute([]*models.Document{fresh, old}, catalog.For(id.RoleAgent), &legal)

	assert.Equal(t, 1, stats.Uploaded)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 100, stats.CompletionPercentage)
	assert.Equal(t, 0, stats.AverageScore)
}

func TestCompute_PercentageBounds(t *testing.T) {
	for _, role := range []id.Role{id.RoleAgent, id.RoleDeveloper} {
		cat := catalog.For(role)
		var docs []*models.Document
		for _, slot := range cat.Slots() {
			docs = append(docs, doc(slot.Category, slot.DocType, models.StatusVerified, 100))
			stats := Compute(docs, cat, nil)
			assert.GreaterOrEqual(t, stats.CompletionPercentage, 0)
			assert.LessOrEqual(t, stats.CompletionPercentage, 100)
		}
		assert.Equal(t, 100, Compute(docs, cat, nil).CompletionPercentage, role)
	}
}

func TestByCategory(t *testing.T) {
	cat := catalog.For(id.RoleAgent)
	docs := []*models.Document{
		doc(catalog.CategoryPersonal, "government_id", models.StatusVerified, 0),
	}
	got := ByCategory(docs, cat)

	require.Len(t, got, len(cat.Categories))
	for i, c := range cat.Categories {
		assert.Equal(t, c.Key, got[i].Key)
		assert.Equal(t, c.Name, got[i].Name)
	}
	assert.Equal(t, 50, got[0].Stats.CompletionPercentage)
	assert.Equal(t, 0, got[1].Stats.CompletionPercentage)
}
