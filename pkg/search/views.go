package search

import (
	"slices"

	"github.com/Sternrassler/openmart-client/pkg/model"
)

// ExtractRecords returns the record of every match, in order.
func ExtractRecords(matches []model.Match) []model.Record {
	out := make([]model.Record, len(matches))
	for i, m := range matches {
		out[i] = m.Content
	}
	return out
}

// StaffEntry is one staff member together with the business it works for.
type StaffEntry struct {
	Business string      `json:"business"`
	Staff    model.Staff `json:"staff"`
}

// ExtractStaff flattens the staff of all matches. Matches without staff
// contribute nothing.
func ExtractStaff(matches []model.Match) []StaffEntry {
	var out []StaffEntry
	for _, m := range matches {
		if len(m.Content.Staffs) == 0 {
			continue
		}
		name := m.Content.DisplayName()
		for _, s := range m.Content.Staffs {
			out = append(out, StaffEntry{Business: name, Staff: s})
		}
	}
	return out
}

// FilterByFeatures keeps the matches whose record has at least one of the
// given feature keys. Matches without features are dropped.
func FilterByFeatures(matches []model.Match, features []string) []model.Match {
	var out []model.Match
	for _, m := range matches {
		if len(m.Content.Features) == 0 {
			continue
		}
		if slices.ContainsFunc(features, func(f string) bool {
			_, ok := m.Content.Features[f]
			return ok
		}) {
			out = append(out, m)
		}
	}
	return out
}
