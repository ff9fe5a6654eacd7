// Package feed reads and writes the search index resource a site publishes
// (search.xml or search.json) and fetches it from disk or over HTTP.
package feed

// Entry is one article's searchable record
type Entry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"` // Plain body text, used verbatim
}

// Format identifies the wire format of an index resource
type Format int

// Supported index formats
const (
	FormatXML Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "xml"
	}
}
