// Package progress derives checklist completion statistics from a user's
// documents and the catalog for their role. Everything here is pure.
package progress

import (
	"math"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
)

// Stats summarises one category, or the whole catalog.
type Stats struct {
	Total                int `json:"total"`
	TotalRequired        int `json:"total_required"`
	TotalOptional        int `json:"total_optional"`
	Uploaded             int `json:"uploaded"`
	Verified             int `json:"verified"`
	Processing           int `json:"processing"`
	Rejected             int `json:"rejected"`
	Pending              int `json:"pending"`
	CompletionPercentage int `json:"completion_percentage"`
	AverageScore         int `json:"average_score"`
}

// CategoryStats pairs a category with its stats.
type CategoryStats struct {
	Key   catalog.CategoryKey `json:"key"`
	Name  string              `json:"name"`
	Stats Stats               `json:"stats"`
}

// Compute returns stats for category, or for the whole catalog when
// category is nil. Documents outside the catalog are ignored; when a slot
// holds several records the most recently uploaded one counts.
func Compute(docs []*models.Document, cat catalog.Catalog, category *catalog.CategoryKey) Stats {
	latest := latestBySlot(docs)

	var (
		stats            Stats
		verifiedRequired int
		scoreSum         int
		scored           int
	)
	for _, c := range cat.Categories {
		if category != nil && c.Key != *category {
			continue
		}
		for _, t := range c.Types {
			stats.Total++
			if t.Required {
				stats.TotalRequired++
			} else {
				stats.TotalOptional++
			}

			doc, ok := latest[catalog.Slot{Category: c.Key, DocType: t.ID}]
			if !ok {
				continue
			}
			stats.Uploaded++
			if doc.Score > 0 {
				scoreSum += doc.Score
				scored++
			}
			switch {
			case isVerified(doc):
				stats.Verified++
				if t.Required {
					verifiedRequired++
				}
			case doc.Status == models.StatusProcessing:
				stats.Processing++
			case doc.Status == models.StatusRejected:
				stats.Rejected++
			default:
				stats.Pending++
			}
		}
	}

	if stats.TotalRequired > 0 {
		stats.CompletionPercentage = percent(verifiedRequired, stats.TotalRequired)
	}
	if scored > 0 {
		stats.AverageScore = int(math.Round(float64(scoreSum) / float64(scored)))
	}
	return stats
}

// ByCategory returns stats for every category in catalog order.
func ByCategory(docs []*models.Document, cat catalog.Catalog) []CategoryStats {
	out := make([]CategoryStats, 0, len(cat.Categories))
	for _, c := range cat.Categories {
		key := c.Key
		out = append(out, CategoryStats{Key: key, Name: c.Name, Stats: Compute(docs, cat, &key)})
	}
	return out
}

func latestBySlot(docs []*models.Document) map[catalog.Slot]*models.Document {
	latest := make(map[catalog.Slot]*models.Document, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		slot := doc.Slot()
		if prev, ok := latest[slot]; ok && !doc.UploadedAt.After(prev.UploadedAt) {
			continue
		}
		latest[slot] = doc
	}
	return latest
}

func isVerified(doc *models.Document) bool {
	return doc.Verified || doc.Status == models.StatusVerified
}

func percent(part, whole int) int {
	p := int(math.Round(100 * float64(part) / float64(whole)))
	return min(max(p, 0), 100)
}
