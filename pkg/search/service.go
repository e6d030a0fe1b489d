// Package search is the public search surface of the OpenMart client:
// request normalization, response shape resolution, pagination drivers
// and convenience queries.
package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/logging"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/Sternrassler/openmart-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// Codes for failures the transport did not classify.
const (
	CodeSearch    = "SEARCH_ERROR"
	CodeSearchIDs = "SEARCH_IDS_ERROR"
)

// Transport sends a JSON body to an API path. *client.Client implements it.
type Transport interface {
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Service runs searches over a Transport. It is safe for concurrent use.
type Service struct {
	transport Transport
	base      model.Filter
	pageCfg   pagination.Config
	logger    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger.With().Str("component", logging.ComponentSearch).Logger()
		s.pageCfg.Logger = &logger
	}
}

// WithBaseFilter sets the filter convenience queries start from.
func WithBaseFilter(f model.Filter) Option {
	return func(s *Service) {
		s.base = f.Clone()
	}
}

// WithPageTimeout bounds each page request made while paginating.
func WithPageTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.pageCfg.Timeout = d
	}
}

// NewService creates a search service.
func NewService(transport Transport, opts ...Option) *Service {
	s := &Service{
		transport: transport,
		pageCfg:   pagination.DefaultConfig(),
		logger:    logging.NewLogger(logging.ComponentSearch),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query searches full records. The envelope is counted when the filter
// sets EstimateTotal.
func (s *Service) Query(ctx context.Context, filter model.Filter) (model.Envelope[model.Match], error) {
	return run[model.Match](ctx, s, EndpointSearch, filter)
}

// OnlyIDs searches identifiers only. The envelope is counted when the
// filter sets EstimateTotal.
func (s *Service) OnlyIDs(ctx context.Context, filter model.Filter) (model.Envelope[model.IDResult], error) {
	return run[model.IDResult](ctx, s, EndpointOnlyIDs, filter)
}

// Page fetches one page of full records without a total estimate.
func (s *Service) Page(ctx context.Context, filter model.Filter) ([]model.Match, error) {
	filter.EstimateTotal = noEstimate(filter.EstimateTotal)
	env, err := s.Query(ctx, filter)
	return env.Items, err
}

// IDPage fetches one page of identifiers without a total estimate.
func (s *Service) IDPage(ctx context.Context, filter model.Filter) ([]model.IDResult, error) {
	filter.EstimateTotal = noEstimate(filter.EstimateTotal)
	env, err := s.OnlyIDs(ctx, filter)
	return env.Items, err
}

// Paginate returns a lazy pager over full records, starting at the
// filter's cursor.
func (s *Service) Paginate(filter model.Filter, pageSize int) *pagination.Pager[model.Match] {
	return pagination.NewPager[model.Match](pagination.FetchFunc[model.Match](s.Page), filter, pageSize, s.pageCfg)
}

// PaginateIDs returns a lazy pager over identifiers.
func (s *Service) PaginateIDs(filter model.Filter, pageSize int) *pagination.Pager[model.IDResult] {
	return pagination.NewPager[model.IDResult](pagination.FetchFunc[model.IDResult](s.IDPage), filter, pageSize, s.pageCfg)
}

// All fetches up to maxResults full records.
func (s *Service) All(ctx context.Context, filter model.Filter, maxResults int) ([]model.Match, error) {
	return pagination.All[model.Match](ctx, pagination.FetchFunc[model.Match](s.Page), filter, maxResults, s.pageCfg)
}

// AllIDs fetches up to maxResults identifiers.
func (s *Service) AllIDs(ctx context.Context, filter model.Filter, maxResults int) ([]model.IDResult, error) {
	return pagination.All[model.IDResult](ctx, pagination.FetchFunc[model.IDResult](s.IDPage), filter, maxResults, s.pageCfg)
}

// noEstimate turns off a caller-supplied estimate_total without dropping it.
func noEstimate(o model.Opt[bool]) model.Opt[bool] {
	if o.IsZero() {
		return o
	}
	return model.Some(false)
}

func run[T any](ctx context.Context, s *Service, endpoint Endpoint, filter model.Filter) (model.Envelope[T], error) {
	req, err := Normalize(endpoint, filter)
	if err != nil {
		s.logger.Debug().Err(err).Str("endpoint", string(endpoint)).Msg("Rejected search request")
		return model.Envelope[T]{}, err
	}

	raw, err := s.transport.Post(ctx, string(endpoint), req.Filter)
	if err != nil {
		return model.Envelope[T]{}, wrap(endpoint, err)
	}

	env, err := Resolve[T](req.Counted(), raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("endpoint", string(endpoint)).Msg("Unexpected response shape")
		return model.Envelope[T]{}, err
	}

	limit, _ := req.Filter.Limit.Get()
	s.logger.Debug().
		Str("endpoint", string(endpoint)).
		Int("limit", limit).
		Int("results", env.Len()).
		Str("shape", env.Shape.String()).
		Msg("Search complete")

	return env, nil
}

// wrap passes classified errors through and gives everything else the
// endpoint's search code.
func wrap(endpoint Endpoint, err error) error {
	if e, ok := client.AsError(err); ok {
		return e
	}
	code, msg := endpoint.wrapCode()
	return &client.Error{Code: code, Message: msg, Err: err}
}
