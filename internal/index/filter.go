// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/pdiddy/dailymed/pkg/types"
)

// Filter returns the records whose title contains keyword, ignoring case,
// in their original order. An empty keyword matches every record.
func Filter(records []types.Record, keyword string) []types.Record {
	fold := cases.Fold()
	needle := fold.String(keyword)

	matched := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if strings.Contains(fold.String(rec.Title), needle) {
			matched = append(matched, rec)
		}
	}
	return matched
}
