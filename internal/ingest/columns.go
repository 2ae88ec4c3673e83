package ingest

import (
	"strings"
)

// Canonical column names. These are also the header names written by the
// exporter, so a previously exported file re-ingests without aliasing.
const (
	ColProductID       = "Product_ID"
	ColDescription     = "Description"
	ColCurrentStock    = "Current_Stock"
	ColSalesLast30Days = "Sales_Last_30_Days"
	ColUnitCost        = "Unit_Cost"
	ColLeadTimeDays    = "Lead_Time_Days"
)

// RequiredColumns lists the columns every upload must provide, in the
// order they are reported when missing.
var RequiredColumns = []string{
	ColProductID,
	ColDescription,
	ColCurrentStock,
	ColSalesLast30Days,
	ColUnitCost,
}

// columnAliases maps each canonical column to the header spellings seen in
// common ERP exports. Keys and values are compared in normalized form.
var columnAliases = map[string][]string{
	ColProductID:       {"item no", "item no.", "sku", "item id", "product code", "product id"},
	ColDescription:     {"product name", "item name", "product", "item description"},
	ColCurrentStock:    {"inventory", "stock", "quantity", "qty", "on hand", "qty on hand", "current qty"},
	ColSalesLast30Days: {"sales (qty.)", "sales", "sold", "units sold", "monthly sales", "last 30 days"},
	ColUnitCost:        {"average cost", "cost", "unit price", "cost per unit", "avg cost"},
	ColLeadTimeDays:    {"ldc", "lead time", "lead time (days)", "leadtime"},
}

// normalizeHeader folds a header cell into its comparison form: lower case,
// trimmed, underscores treated as spaces, internal runs of spaces collapsed.
func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

// columnMap resolves header cells to canonical column indices.
type columnMap map[string]int

// resolveColumns maps the header row to canonical columns. It returns the
// resolved map and the list of required columns that could not be matched.
func resolveColumns(headers []string) (columnMap, []string) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	cm := make(columnMap)
	all := append(append([]string{}, RequiredColumns...), ColLeadTimeDays)
	for _, canonical := range all {
		want := normalizeHeader(canonical)
		for i, h := range normalized {
			if h == want {
				cm[canonical] = i
				break
			}
		}
		if _, ok := cm[canonical]; ok {
			continue
		}
		for _, alias := range columnAliases[canonical] {
			found := false
			for i, h := range normalized {
				if h == normalizeHeader(alias) {
					cm[canonical] = i
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	var missing []string
	for _, canonical := range RequiredColumns {
		if _, ok := cm[canonical]; !ok {
			missing = append(missing, canonical)
		}
	}

	return cm, missing
}

// suggestColumns proposes headers from the file that resemble the missing
// canonical columns, to help the user fix their export.
func suggestColumns(missing []string, headers []string) map[string][]string {
	suggestions := make(map[string][]string)
	for _, canonical := range missing {
		var matches []string
		for _, header := range headers {
			nh := normalizeHeader(header)
			if nh == "" {
				continue
			}
			for _, alias := range columnAliases[canonical] {
				if strings.Contains(nh, normalizeHeader(alias)) || strings.Contains(normalizeHeader(alias), nh) {
					matches = append(matches, strings.TrimSpace(header))
					break
				}
			}
		}
		if len(matches) > 0 {
			suggestions[canonical] = matches
		}
	}
	if len(suggestions) == 0 {
		return nil
	}
	return suggestions
}
