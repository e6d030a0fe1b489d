package model

// Match is one full-record search result.
type Match struct {
	ID              string   `json:"id"`
	Content         Record   `json:"content"`
	MatchScore      *float64 `json:"match_score,omitempty"`
	MatchHighlights []string `json:"match_highlights"`
	Cursor          Cursor   `json:"cursor,omitzero"`
}

// CursorToken returns the continuation token of this match.
func (m Match) CursorToken() Cursor {
	return m.Cursor
}

// IDResult is one identifiers-only search result.
type IDResult struct {
	ID         ID      `json:"id"`
	PlaceID    *string `json:"place_id"`
	MatchScore float64 `json:"match_score"`
	Cursor     Cursor  `json:"cursor"`
}

// CursorToken returns the continuation token of this result.
func (r IDResult) CursorToken() Cursor {
	return r.Cursor
}
