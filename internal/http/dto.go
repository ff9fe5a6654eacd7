// Package httpapi provides HTTP handlers and data transfer objects for the site search API.
package httpapi

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"` // Index lifecycle state
	DocCount int    `json:"doc_count"`
}

// OpenResponse is returned when the search box is opened
type OpenResponse struct {
	State string `json:"state"`
}

// SearchRequest represents search request
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"` // Default and maximum: 10
}

// SearchResult represents a single matching article
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"` // '<' already escaped
}

// SearchResponse represents search results
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
	Query   string         `json:"query"`
	Message string         `json:"message,omitempty"` // Set when a query matched nothing
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
