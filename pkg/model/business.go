package model

import (
	"encoding/json"
	"reflect"
	"slices"
)

// BizCategory is a top-level business category.
type BizCategory string

const (
	CategoryRestaurantsDining         BizCategory = "RESTAURANTS_DINING"
	CategoryBarsNightlife             BizCategory = "BARS_NIGHTLIFE"
	CategoryGroceryConvenienceStores  BizCategory = "GROCERY_CONVENIENCE_STORES"
	CategoryPharmaciesDrugstores      BizCategory = "PHARMACIES_DRUGSTORES"
	CategoryBeautyPersonalCare        BizCategory = "BEAUTY_PERSONAL_CARE"
	CategoryFitnessRecreation         BizCategory = "FITNESS_RECREATION"
	CategoryAutoServices              BizCategory = "AUTO_SERVICES"
	CategoryHotelsAccommodations      BizCategory = "HOTELS_ACCOMMODATIONS"
	CategoryEventPlanningServices     BizCategory = "EVENT_PLANNING_SERVICES"
	CategoryFinancialServices         BizCategory = "FINANCIAL_SERVICES"
	CategoryRealEstatePropertyMgmt    BizCategory = "REAL_ESTATE_PROPERTY_MANAGEMENT"
	CategoryLegalProfessionalServices BizCategory = "LEGAL_PROFESSIONAL_SERVICES"
	CategoryHealthWellness            BizCategory = "HEALTH_WELLNESS"
	CategoryHomeServicesContractors   BizCategory = "HOME_SERVICES_CONTRACTORS"
	CategoryChildCareEducation        BizCategory = "CHILD_CARE_EDUCATION"
	CategoryArtsEntertainment         BizCategory = "ARTS_ENTERTAINMENT"
	CategoryShoppingRetail            BizCategory = "SHOPPING_RETAIL"
	CategoryTechnologyElectronics     BizCategory = "TECHNOLOGY_ELECTRONICS"
	CategoryTransportationTravel      BizCategory = "TRANSPORTATION_TRAVEL"
	CategoryPublicServicesGovernment  BizCategory = "PUBLIC_SERVICES_GOVERNMENT"
	CategoryPetServicesSupplies       BizCategory = "PET_SERVICES_SUPPLIES"
	CategoryOther                     BizCategory = "OTHER"
)

// Staff is a named person attached to a business.
type Staff struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// PriceRange is a store's advertised price range.
type PriceRange struct {
	Min      *float64 `json:"min_,omitempty"`
	Max      *float64 `json:"max_,omitempty"`
	Currency *string  `json:"currency,omitempty"`
}

// SourceMeta is the free-form metadata the service keeps per data source.
type SourceMeta map[string]json.RawMessage

// Record is one business location as returned by the service. Brand-level
// fields are optional; store-level fields are always present. Keys this
// version does not know are kept in Extra and written back on marshal.
type Record struct {
	// Brand level
	BrandID                *string             `json:"brand_id,omitempty"`
	BusinessName           *string             `json:"business_name,omitempty"`
	BusinessType           *string             `json:"business_type,omitempty"`
	BusinessCategories     []BizCategory       `json:"business_categories,omitempty"`
	BusinessSpecialty      *string             `json:"business_specialty,omitempty"`
	BusinessKeywords       []string            `json:"business_keywords,omitempty"`
	ProductServicesOffered []string            `json:"product_services_offered,omitempty"`
	BrandDescription       *string             `json:"brand_description,omitempty"`
	WebsiteURL             *string             `json:"website_url,omitempty"`
	BusinessEmails         []string            `json:"business_emails,omitempty"`
	BusinessPhones         []string            `json:"business_phones,omitempty"`
	SocialMediaLinks       map[string][]string `json:"social_media_links,omitempty"`
	OwnershipType          *OwnershipType      `json:"ownership_type,omitempty"`
	Staffs                 []Staff             `json:"staffs,omitempty"`
	SourceURLs             []string            `json:"source_urls,omitempty"`
	RootDomain             *string             `json:"root_domain,omitempty"`
	NumStores              *Count              `json:"num_stores,omitempty"`

	// Store level
	StoreID           ID                    `json:"store_id"`
	SourceID          *string               `json:"source_id,omitempty"`
	StoreName         string                `json:"store_name"`
	StoreEmails       []string              `json:"store_emails"`
	StorePhones       []string              `json:"store_phones"`
	StoreDescription  *string               `json:"store_description,omitempty"`
	Features          map[string][]string   `json:"features,omitempty"`
	PriceRange        *PriceRange           `json:"price_range,omitempty"`
	PriceTier         *Count                `json:"price_tier,omitempty"`
	GoogleReviewCount *Count                `json:"google_reviews_count,omitempty"`
	GoogleRating      *float64              `json:"google_rating,omitempty"`
	YelpReviewCount   *Count                `json:"yelp_reviews_count,omitempty"`
	YelpRating        *float64              `json:"yelp_rating,omitempty"`
	FromSources       map[string]SourceMeta `json:"from_sources"`
	Tags              []string              `json:"tags"`
	PlaceKey          string                `json:"place_key"`
	Latitude          float64               `json:"latitude"`
	Longitude         float64               `json:"longitude"`
	StreetAddress     *string               `json:"street_address,omitempty"`
	City              string                `json:"city"`
	State             string                `json:"state"`
	Zipcode           *string               `json:"zipcode,omitempty"`
	Country           string                `json:"country"`
	OpenDate          *string               `json:"open_date,omitempty"`
	InfoRefreshedAt   *string               `json:"info_refreshed_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var recordKeys = jsonKeys(reflect.TypeOf(Record{}))

type recordFields Record

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields recordFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitExtra(data, recordKeys)
	if err != nil {
		return err
	}
	fields.Extra = extra
	*r = Record(fields)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(recordFields(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(base, r.Extra, recordKeys)
}

// DisplayName is the business name if known, else the store name.
func (r Record) DisplayName() string {
	if r.BusinessName != nil && *r.BusinessName != "" {
		return *r.BusinessName
	}
	return r.StoreName
}

// FeatureKeys returns the record's feature names, sorted.
func (r Record) FeatureKeys() []string {
	keys := make([]string, 0, len(r.Features))
	for k := range r.Features {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
