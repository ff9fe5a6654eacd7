package feed

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

// Decode parses an index resource into entries, preserving document order
func Decode(r io.Reader, format Format) ([]Entry, error) {
	if format == FormatJSON {
		return decodeJSON(r)
	}
	return decodeXML(r)
}

// FormatFor picks the decoder for a resource from its name or content type.
// Anything that is not recognisably JSON is treated as XML.
func FormatFor(name, contentType string) Format {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if mt == "application/json" || strings.HasSuffix(mt, "+json") {
				return FormatJSON
			}
		}
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if strings.EqualFold(path.Ext(name), ".json") {
		return FormatJSON
	}
	return FormatXML
}

// entryField captures the text of the first element with a given name
// anywhere below an <entry>, nested elements included, like a DOM
// node's textContent.
type entryField struct {
	name  string
	depth int // depth of the element being captured, 0 when idle
	done  bool
	text  strings.Builder
}

// readEntry consumes tokens up to the end of the <entry> just started.
func readEntry(d *xml.Decoder) (Entry, error) {
	fields := []*entryField{{name: "title"}, {name: "url"}, {name: "content"}}

	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return Entry{}, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			depth++
			for _, f := range fields {
				if !f.done && f.depth == 0 && tok.Name.Local == f.name {
					f.depth = depth
				}
			}
		case xml.EndElement:
			for _, f := range fields {
				if f.depth == depth {
					f.depth = 0
					f.done = true
				}
			}
			depth--
		case xml.CharData:
			for _, f := range fields {
				if f.depth > 0 {
					f.text.Write(tok)
				}
			}
		}
	}

	return Entry{
		Title:   fields[0].text.String(),
		URL:     fields[1].text.String(),
		Content: fields[2].text.String(),
	}, nil
}

func decodeXML(r io.Reader) ([]Entry, error) {
	d := xml.NewDecoder(r)
	d.Strict = true

	entries := make([]Entry, 0)
	sawRoot := false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse index XML: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "entry" {
			continue
		}

		e, err := readEntry(d)
		if err != nil {
			return nil, fmt.Errorf("failed to parse index entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
	}

	if !sawRoot {
		return nil, errors.New("failed to parse index XML: no root element")
	}
	return entries, nil
}

func decodeJSON(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse index JSON: %w", err)
	}
	if entries == nil {
		entries = make([]Entry, 0)
	}
	return entries, nil
}
