package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/mmcloughlin/geohash"
)

// The queries below start from the service's base filter, set one group of
// predicates and run Query.

// Simple searches by free text.
func (s *Service) Simple(ctx context.Context, query string) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.Query = model.Some(query)
	return s.Query(ctx, f)
}

// Near searches within radius meters of a point.
func (s *Service) Near(ctx context.Context, lat, lon, radius float64) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.Location = model.Some(model.At(model.LocationParams{
		Coordinates: &model.Coordinates{Latitude: lat, Longitude: lon},
		GeoRadius:   &radius,
	}))
	return s.Query(ctx, f)
}

// NearGeohash searches within radius meters of the center of a geohash cell.
func (s *Service) NearGeohash(ctx context.Context, hash string, radius float64) (model.Envelope[model.Match], error) {
	hash = strings.ToLower(hash)
	if hash == "" {
		return model.Envelope[model.Match]{}, client.NewError(client.CodeValidation, "geohash is required")
	}
	if err := geohash.Validate(hash); err != nil {
		return model.Envelope[model.Match]{}, client.NewError(client.CodeValidation,
			fmt.Sprintf("invalid geohash %q: %v", hash, err))
	}
	lat, lon := geohash.DecodeCenter(hash)
	return s.Near(ctx, lat, lon, radius)
}

// InCity searches one city. Empty state or country are left out.
func (s *Service) InCity(ctx context.Context, city, state, country string) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.Location = model.Some(model.At(model.LocationParams{City: city, State: state, Country: country}))
	return s.Query(ctx, f)
}

// MinRating searches businesses rated at least rating.
func (s *Service) MinRating(ctx context.Context, rating float64) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.MinOverallRating = model.Some(rating)
	return s.Query(ctx, f)
}

// ByPriceRange searches price tiers lo through hi.
func (s *Service) ByPriceRange(ctx context.Context, lo, hi int) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.MinPriceTier = model.Some(lo)
	f.MaxPriceTier = model.Some(hi)
	return s.Query(ctx, f)
}

// ByStoreName searches by store name.
func (s *Service) ByStoreName(ctx context.Context, name string) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.StoreName = model.Some(name)
	return s.Query(ctx, f)
}

// OpenedBetween searches businesses that opened after after and before before.
func (s *Service) OpenedBetween(ctx context.Context, after, before time.Time) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.OpenDateAfter = model.Some(model.UnixTimestamp(after))
	f.OpenDateBefore = model.Some(model.UnixTimestamp(before))
	return s.Query(ctx, f)
}

// UpdatedSince searches businesses whose information changed after t.
func (s *Service) UpdatedSince(ctx context.Context, t time.Time) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.InfoUpdatedAfter = model.Some(model.UnixTimestamp(t))
	return s.Query(ctx, f)
}

// WithContactInfo searches businesses that have contact information.
func (s *Service) WithContactInfo(ctx context.Context) (model.Envelope[model.Match], error) {
	f := s.base.Clone()
	f.HasContactInfo = model.Some(true)
	return s.Query(ctx, f)
}
