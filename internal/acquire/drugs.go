// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dailymed/internal/index"
	"github.com/pdiddy/dailymed/pkg/types"
)

// DefaultLimitPerDrug is the per-name download cap used when none is given.
const DefaultLimitPerDrug = 3

// defaultDrugNames lists common drug names downloaded when the caller names
// none.
var defaultDrugNames = [...]string{
	"ibuprofen",
	"acetaminophen",
	"naproxen",
	"aspirin",
	"amoxicillin",
	"prednisone",
	"metformin",
	"simvastatin",
	"atorvastatin",
	"levothyroxine",
	"losartan",
	"sertraline",
	"omeprazole",
	"lisinopril",
	"gabapentin",
	"hydrochlorothiazide",
}

// DefaultDrugNames returns a fresh copy of the built-in drug name list.
func DefaultDrugNames() []string {
	return append([]string(nil), defaultDrugNames[:]...)
}

// DrugsSummary totals a ByDrugNames run.
type DrugsSummary struct {
	BatchResult

	// Names is the number of drug names processed.
	Names int

	// Unmatched lists names no record title contained.
	Unmatched []string
}

// ByDrugNames filters records by each name in turn and downloads up to
// limitPerDrug matches per name. A name with no match is logged and
// skipped. Names are processed in order; a record matching several names
// is downloaded once and skipped afterwards.
func (d *Downloader) ByDrugNames(ctx context.Context, records []types.Record, names []string, limitPerDrug int) DrugsSummary {
	var summary DrugsSummary
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		summary.Names++

		d.logger.Info("searching", "drug", name)
		matched := index.Filter(records, name)
		if len(matched) == 0 {
			d.logger.Warn("no match found", "drug", name)
			summary.Unmatched = append(summary.Unmatched, name)
			continue
		}

		d.logger.Info("found entries", "drug", name, "matches", len(matched), "limit", limitPerDrug)
		summary.add(d.batch(ctx, name, matched, limitPerDrug))
	}

	d.logger.Info("finished",
		"drugs", summary.Names, "downloaded", summary.Downloaded,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary
}

// drugFile is the YAML layout accepted by LoadDrugNames.
type drugFile struct {
	Drugs []string `yaml:"drugs"`
}

// LoadDrugNames reads drug names from a YAML file. The file is either a
// plain sequence of names or a mapping with a "drugs" sequence. Names are
// trimmed; blanks and case-insensitive duplicates are dropped.
func LoadDrugNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading drug list: %w", err)
	}

	var names []string
	var df drugFile
	if err := yaml.Unmarshal(data, &df); err == nil && df.Drugs != nil {
		names = df.Drugs
	} else if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parsing drug list %s: %w", path, err)
	}

	return NormalizeDrugNames(names), nil
}

// NormalizeDrugNames trims names and drops blanks and case-insensitive
// duplicates, keeping the first occurrence.
func NormalizeDrugNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
