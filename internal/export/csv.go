// Package export renders read-only inventory snapshots as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"labstock/pkg/domain"
)

// ScopeAll selects the combined cross-category listing.
const ScopeAll = "all"

func formatQuantity(q float64) string {
	return fmt.Sprintf("%g", q)
}

// WriteCategory writes the CSV listing for a single category. Chemical rows
// carry unit/purchase/expiry columns; the other categories carry specs and
// status instead.
func WriteCategory(w io.Writer, c domain.Category, items []domain.Item) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if c == domain.CategoryChemicals {
		if err := writer.Write([]string{"Name", "Quantity", "Unit", "Purchase", "Expiry", "Location"}); err != nil {
			return err
		}
		for _, it := range items {
			record := []string{it.Name, formatQuantity(it.Quantity), string(it.Unit), it.Purchase, it.Expiry, it.Location}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	} else {
		if err := writer.Write([]string{"Name", "Specifications", "Quantity", "Status", "Purchase", "Location"}); err != nil {
			return err
		}
		for _, it := range items {
			record := []string{it.Name, it.Specs, formatQuantity(it.Quantity), string(it.Status), it.Purchase, it.Location}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteAll writes the combined listing across every category in display
// order, with one shared column set.
func WriteAll(w io.Writer, snap domain.Snapshot) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Category", "Name", "Quantity", "Unit/Specs", "Location", "Purchased", "Expiry", "Status"}); err != nil {
		return err
	}
	for _, c := range domain.Categories {
		for _, it := range snap.Collection(c) {
			var record []string
			if c == domain.CategoryChemicals {
				record = []string{string(c), it.Name, formatQuantity(it.Quantity), string(it.Unit), it.Location, it.Purchase, it.Expiry, ""}
			} else {
				record = []string{string(c), it.Name, formatQuantity(it.Quantity), it.Specs, it.Location, it.Purchase, "", string(it.Status)}
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
