package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dsjohal14/sitesearch/internal/libs/config"
	"github.com/dsjohal14/sitesearch/internal/libs/obs"
	"github.com/dsjohal14/sitesearch/internal/scope/db"
	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"github.com/dsjohal14/sitesearch/internal/scope/search"
	"github.com/spf13/cobra"
)

type sourceFlags struct {
	site  string
	path  string
	file  string
	useDB bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.site, "site", "", "Site base URL (overrides SITE_URL)")
	cmd.Flags().StringVar(&f.path, "path", "", "Index path on the site (overrides INDEX_PATH)")
	cmd.Flags().StringVar(&f.file, "file", "", "Local index file (overrides INDEX_FILE)")
	cmd.Flags().BoolVar(&f.useDB, "db", false, "Read entries from DATABASE_URL")
}

func newSearchCmd(root *rootFlags) *cobra.Command {
	src := &sourceFlags{}
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "search <term...>",
		Short: "Print the articles matching a term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, closeSrc, err := loadIndex(cmd.Context(), root, src)
			if err != nil {
				return err
			}
			defer closeSrc()

			matches := index.Search(strings.Join(args, " "))
			if asHTML {
				if err := search.RenderHTML(cmd.OutOrStdout(), matches); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout())
				return err
			}
			printMatches(cmd, matches)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the results as the HTML fragment the theme renders")
	return cmd
}

func newEntriesCmd(root *rootFlags) *cobra.Command {
	src := &sourceFlags{}

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List every entry in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			index, closeSrc, err := loadIndex(cmd.Context(), root, src)
			if err != nil {
				return err
			}
			defer closeSrc()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tURL\tCHARS")
			for _, e := range index.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Title, e.URL, len([]rune(e.Content)))
			}
			return tw.Flush()
		},
	}
	src.register(cmd)
	return cmd
}

// loadIndex resolves the source from config and flags and loads it once.
// A failed load is reported as an error here, unlike the API which keeps
// serving an empty index.
func loadIndex(ctx context.Context, root *rootFlags, f *sourceFlags) (*search.Index, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(root.config)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load config: %w", err)
	}
	level := cfg.LogLevel
	if root.logLevel != "" {
		level = root.logLevel
	}
	obs.InitLogger(level)
	logger := obs.Logger("cli")

	var src search.Source
	closeSrc := func() {}

	switch {
	case f.useDB:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("--db requires DATABASE_URL")
		}
		conn, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		entries, err := conn.Entries(cfg.DBTable)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		src, closeSrc = entries, conn.Close
	case f.file != "":
		src = &feed.FileSource{Path: f.file}
	case f.site == "" && cfg.IndexFile != "":
		src = &feed.FileSource{Path: cfg.IndexFile}
	default:
		site, path := cfg.SiteURL, cfg.IndexPath
		if f.site != "" {
			site = f.site
		}
		if f.path != "" {
			path = f.path
		}
		indexURL, err := feed.ResolveIndexURL(site, path)
		if err != nil {
			return nil, nil, err
		}
		src = feed.NewHTTPSource(indexURL, cfg.FetchTimeout)
	}

	index := search.NewIndex(src, logger)
	if err := index.Load(ctx); err != nil {
		closeSrc()
		return nil, nil, fmt.Errorf("search index unavailable: %w", err)
	}
	return index, closeSrc, nil
}

func printMatches(cmd *cobra.Command, matches []search.Match) {
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, search.EmptyMessage)
		return
	}
	for i, m := range matches {
		fmt.Fprintf(out, "%d. %s\n   %s\n   %s\n", i+1, m.Title, m.URL, m.Snippet)
	}
}
