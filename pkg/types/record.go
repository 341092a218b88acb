// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"strings"
)

// ErrEmptyID is returned when a record is built without a set identifier.
var ErrEmptyID = errors.New("record id is empty")

// Record identifies one Structured Product Labelling (SPL) document in the
// DailyMed index. Records are built from index entries and never modified.
type Record struct {
	// ID is the setid assigned by DailyMed. It is the sole key used to name
	// the downloaded file.
	ID string `json:"setid" yaml:"setid"`

	// Title is the human-readable label title used for keyword filtering.
	// It may be empty.
	Title string `json:"title" yaml:"title"`
}

// NewRecord validates id and returns a Record. The identifier is opaque and
// kept exactly as issued; an empty or whitespace-only id is rejected.
func NewRecord(id, title string) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, ErrEmptyID
	}
	return Record{ID: id, Title: title}, nil
}

// FileName returns the on-disk name for the record's XML document.
func (r Record) FileName() string {
	return r.ID + ".xml"
}
