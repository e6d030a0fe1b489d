package model

import (
	"encoding/json"
	"maps"
	"reflect"
	"strconv"
	"time"
)

// OwnershipType is the ownership category of a business.
type OwnershipType string

const (
	OwnershipIndependent OwnershipType = "INDEPENDENT"
	OwnershipFamily      OwnershipType = "FAMILY"
	OwnershipFranchise   OwnershipType = "FRANCHISE"
	OwnershipChain       OwnershipType = "CHAIN"
)

// Filter is a search request. Every predicate is optional; see Opt for the
// difference between omitted and null.
type Filter struct {
	Query    Opt[string]   `json:"query,omitzero"`
	Location Opt[Location] `json:"location,omitzero"`

	MinLocations Opt[int] `json:"min_locations,omitzero"`
	MaxLocations Opt[int] `json:"max_locations,omitzero"`

	HasContactInfo Opt[bool] `json:"has_contact_info,omitzero"`

	MinTotalReviews Opt[int] `json:"min_total_reviews,omitzero"`
	MaxTotalReviews Opt[int] `json:"max_total_reviews,omitzero"`

	OwnershipType Opt[OwnershipType] `json:"ownership_type,omitzero"`

	MinPriceTier Opt[int] `json:"min_price_tier,omitzero"`
	MaxPriceTier Opt[int] `json:"max_price_tier,omitzero"`

	MinOverallRating Opt[float64] `json:"min_overall_rating,omitzero"`
	MaxOverallRating Opt[float64] `json:"max_overall_rating,omitzero"`

	// Limit is the page size. Defaults to 50 when omitted.
	Limit  Opt[int]    `json:"limit,omitzero"`
	Cursor Opt[Cursor] `json:"cursor,omitzero"`

	HasWebsite      Opt[bool] `json:"has_website,omitzero"`
	HasValidWebsite Opt[bool] `json:"has_valid_website,omitzero"`

	// EstimateTotal asks the service to wrap results with an approximate
	// total count. An explicit false is sent as given.
	EstimateTotal Opt[bool] `json:"estimate_total,omitzero"`

	ExcludeRootDomains []string `json:"exclude_root_domains,omitzero"` // max 10000
	ExcludeKeywords    []string `json:"exclude_keywords,omitzero"`     // max 64
	IncludeKeywords    []string `json:"include_keywords,omitzero"`     // max 64

	// Unix timestamps, as strings.
	OpenDateBefore    Opt[string] `json:"open_date_before,omitzero"`
	OpenDateAfter     Opt[string] `json:"open_date_after,omitzero"`
	InfoUpdatedBefore Opt[string] `json:"info_updated_before,omitzero"`
	InfoUpdatedAfter  Opt[string] `json:"info_updated_after,omitzero"`

	StoreName Opt[string] `json:"store_name,omitzero"`

	// Extra carries predicates this version does not model. Members whose
	// key collides with a modelled field are ignored when marshaling.
	Extra map[string]json.RawMessage `json:"-"`
}

var filterKeys = jsonKeys(reflect.TypeOf(Filter{}))

// IsFilterKey reports whether key is a modelled filter field.
func IsFilterKey(key string) bool {
	_, ok := filterKeys[key]
	return ok
}

// Clone returns a copy that shares no mutable state with f.
func (f Filter) Clone() Filter {
	out := f
	out.ExcludeRootDomains = cloneStrings(f.ExcludeRootDomains)
	out.ExcludeKeywords = cloneStrings(f.ExcludeKeywords)
	out.IncludeKeywords = cloneStrings(f.IncludeKeywords)
	if f.Extra != nil {
		out.Extra = maps.Clone(f.Extra)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

type filterFields Filter

// MarshalJSON implements json.Marshaler.
func (f Filter) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(filterFields(f))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, f.Extra, filterKeys)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown keys land in Extra.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var fields filterFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitExtra(data, filterKeys)
	if err != nil {
		return err
	}
	fields.Extra = extra
	*f = Filter(fields)
	return nil
}

// UnixTimestamp formats t the way date predicates expect it.
func UnixTimestamp(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
