package feed

import (
	"encoding/xml"
	"fmt"
	"io"
)

type searchDoc struct {
	XMLName xml.Name   `xml:"search"`
	Entries []docEntry `xml:"entry"`
}

type docEntry struct {
	Title   string     `xml:"title"`
	URL     string     `xml:"url"`
	Content docContent `xml:"content"`
}

type docContent struct {
	Type string `xml:"type,attr"`
	Text string `xml:",cdata"`
}

// Encode writes entries as a search.xml document readable by Decode
func Encode(w io.Writer, entries []Entry) error {
	doc := searchDoc{Entries: make([]docEntry, len(entries))}
	for i, e := range entries {
		doc.Entries[i] = docEntry{
			Title:   e.Title,
			URL:     e.URL,
			Content: docContent{Type: "html", Text: e.Content},
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush index: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
