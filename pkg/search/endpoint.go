package search

// Endpoint is a search route of the OpenMart API.
type Endpoint string

const (
	// EndpointSearch returns full records.
	EndpointSearch Endpoint = "/api/v1/search"

	// EndpointOnlyIDs returns identifiers and scores only.
	EndpointOnlyIDs Endpoint = "/api/v1/search/only_ids"
)

// MaxLimit is the largest page the endpoint serves.
func (e Endpoint) MaxLimit() int {
	if e == EndpointOnlyIDs {
		return 1000
	}
	return 500
}

// wrapCode is the code given to unclassified failures of the endpoint.
func (e Endpoint) wrapCode() (code, message string) {
	if e == EndpointOnlyIDs {
		return CodeSearchIDs, "An unexpected error occurred during ID search"
	}
	return CodeSearch, "An unexpected error occurred during search"
}
