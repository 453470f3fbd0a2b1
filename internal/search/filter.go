package search

import (
	"sort"
	"strings"

	"listing-portal/internal/models"
)

// matches evaluates every criteria predicate against one record in
// memory. Records with missing numeric or text fields never satisfy the
// corresponding predicate; they are excluded, not an error.
func matches(c Criteria, record models.CatalogRecord) bool {
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		title := strings.ToLower(record.Title)
		description := strings.ToLower(record.Description)
		if !strings.Contains(title, q) && !strings.Contains(description, q) {
			return false
		}
	}

	if c.CityID != nil && record.CityID != *c.CityID {
		return false
	}
	if c.CategoryID != nil && record.CategoryID != *c.CategoryID {
		return false
	}
	if c.MaxPrice != nil && (record.Price == nil || *record.Price > *c.MaxPrice) {
		return false
	}
	if c.MinPrice != nil && (record.Price == nil || *record.Price < *c.MinPrice) {
		return false
	}
	if c.MinBedrooms != nil && (record.Bedrooms == nil || *record.Bedrooms < *c.MinBedrooms) {
		return false
	}
	if c.MinBathrooms != nil && (record.Bathrooms == nil || *record.Bathrooms < *c.MinBathrooms) {
		return false
	}

	return true
}

// applyCriteria filters a snapshot in memory
func applyCriteria(c Criteria, records []models.CatalogRecord) []models.CatalogRecord {
	matched := make([]models.CatalogRecord, 0, len(records))
	for _, record := range records {
		if matches(c, record) {
			matched = append(matched, record)
		}
	}
	return matched
}

// sortRecords orders records newest first, ties broken by identifier
// ascending, so pagination stays stable across repeated calls against an
// unchanging snapshot.
func sortRecords(records []models.CatalogRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// paginate slices one page out of the sorted result set. An out-of-range
// index yields an empty slice, never an error.
func paginate(records []models.CatalogRecord, page PageRequest) []models.CatalogRecord {
	total := len(records)
	if page.Size <= 0 || page.Index < 0 {
		return nil
	}
	// Compare by division so an absurdly large index cannot overflow
	// the start offset
	if page.Index > total/page.Size {
		return nil
	}
	start := page.Index * page.Size
	if start >= total {
		return nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return records[start:end]
}
