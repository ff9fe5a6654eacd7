// Package posts builds search index entries from a directory of Markdown
// posts, the way a static site generator produces search.xml.
package posts

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"gopkg.in/yaml.v3"
)

// Defaults for Options
const (
	DefaultGlob      = "**/*.md"
	DefaultPermalink = ":year/:month/:day/:title/"
	DefaultRoot      = "/"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Options controls which files are read and how URLs are built
type Options struct {
	Glob          string // doublestar pattern relative to the posts dir
	Permalink     string // :year :month :day :title placeholders
	Root          string // URL prefix of the site
	IncludeDrafts bool
}

func (o Options) withDefaults() Options {
	if o.Glob == "" {
		o.Glob = DefaultGlob
	}
	if o.Permalink == "" {
		o.Permalink = DefaultPermalink
	}
	if o.Root == "" {
		o.Root = DefaultRoot
	}
	return o
}

// Post is a parsed Markdown post
type Post struct {
	Path  string
	Title string
	Slug  string
	Date  time.Time
	URL   string
	Draft bool
	Text  string
}

type frontMatter struct {
	Title     string `yaml:"title"`
	Date      string `yaml:"date"`
	Permalink string `yaml:"permalink"`
	Slug      string `yaml:"slug"`
	Draft     bool   `yaml:"draft"`
	Published *bool  `yaml:"published"`
}

// Collect reads every post under dir and returns their entries, newest first
func Collect(dir string, opts Options) ([]feed.Entry, error) {
	posts, err := Load(os.DirFS(dir), opts)
	if err != nil {
		return nil, err
	}

	entries := make([]feed.Entry, len(posts))
	for i, p := range posts {
		entries[i] = feed.Entry{Title: p.Title, URL: p.URL, Content: p.Text}
	}
	return entries, nil
}

// Load parses the posts in fsys matching opts.Glob, newest first.
// Drafts are skipped unless opts.IncludeDrafts is set.
func Load(fsys fs.FS, opts Options) ([]Post, error) {
	opts = opts.withDefaults()

	matches, err := doublestar.Glob(fsys, opts.Glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", opts.Glob, err)
	}
	sort.Strings(matches)

	posts := make([]Post, 0, len(matches))
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read post %s: %w", name, err)
		}

		var modTime time.Time
		if info, err := fs.Stat(fsys, name); err == nil {
			modTime = info.ModTime()
		}

		p, err := Parse(name, data, modTime, opts)
		if err != nil {
			return nil, err
		}
		if p.Draft && !opts.IncludeDrafts {
			continue
		}
		posts = append(posts, p)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, nil
}

// Parse builds a Post from one file's contents. modTime is used when the
// front matter carries no date.
func Parse(name string, data []byte, modTime time.Time, opts Options) (Post, error) {
	opts = opts.withDefaults()

	fmData, body := splitFrontMatter(data)

	var fm frontMatter
	if len(fmData) > 0 {
		if err := yaml.Unmarshal(fmData, &fm); err != nil {
			return Post{}, fmt.Errorf("invalid front matter in %s: %w", name, err)
		}
	}

	base := strings.TrimSuffix(path.Base(name), path.Ext(name))

	p := Post{
		Path:  name,
		Title: fm.Title,
		Slug:  fm.Slug,
		Date:  modTime,
		Draft: fm.Draft || (fm.Published != nil && !*fm.Published),
	}
	if p.Title == "" {
		p.Title = base
	}
	if p.Slug == "" {
		p.Slug = base
	}
	if fm.Date != "" {
		d, err := parseDate(fm.Date)
		if err != nil {
			return Post{}, fmt.Errorf("invalid date in %s: %w", name, err)
		}
		p.Date = d
	}

	text, err := PlainText(body)
	if err != nil {
		return Post{}, fmt.Errorf("failed to render %s: %w", name, err)
	}
	p.Text = text

	if fm.Permalink != "" {
		p.URL = joinURL(opts.Root, fm.Permalink)
	} else {
		p.URL = joinURL(opts.Root, expandPermalink(opts.Permalink, p))
	}

	return p, nil
}

func splitFrontMatter(data []byte) (fm, body []byte) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	const delim = "---"

	first, rest, ok := bytes.Cut(data, []byte("\n"))
	if !ok || string(bytes.TrimRight(first, " \r")) != delim {
		return nil, data
	}

	for off := 0; off <= len(rest); {
		line := rest[off:]
		end := bytes.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
		}
		if string(bytes.TrimRight(line, " \r")) == delim {
			if end < 0 {
				return rest[:off], nil
			}
			return rest[:off], rest[off+end+1:]
		}
		if end < 0 {
			break
		}
		off += end + 1
	}

	// Unterminated block: treat the whole file as body
	return nil, data
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func expandPermalink(pattern string, p Post) string {
	r := strings.NewReplacer(
		":year", p.Date.Format("2006"),
		":month", p.Date.Format("01"),
		":day", p.Date.Format("02"),
		":title", p.Slug,
	)
	return r.Replace(pattern)
}

func joinURL(root, rel string) string {
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(rel, "/")
}
