package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"github.com/dsjohal14/sitesearch/internal/scope/posts"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		output string
		opts   posts.Options
	)

	cmd := &cobra.Command{
		Use:   "generate <posts-dir>",
		Short: "Build search.xml from a directory of Markdown posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := posts.Collect(args[0], opts)
			if err != nil {
				return err
			}

			if output == "-" {
				return feed.Encode(cmd.OutOrStdout(), entries)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("cannot create %s: %w", output, err)
			}
			w := bufio.NewWriter(f)
			if err := feed.Encode(w, entries); err != nil {
				_ = f.Close()
				return err
			}
			if err := w.Flush(); err != nil {
				_ = f.Close()
				return fmt.Errorf("cannot write %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("cannot write %s: %w", output, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "search.xml", "Output file, - for stdout")
	cmd.Flags().StringVar(&opts.Glob, "glob", posts.DefaultGlob, "Posts to include, relative to posts-dir")
	cmd.Flags().StringVar(&opts.Permalink, "permalink", posts.DefaultPermalink, "URL pattern for posts without a permalink")
	cmd.Flags().StringVar(&opts.Root, "root", posts.DefaultRoot, "URL prefix of the site")
	cmd.Flags().BoolVar(&opts.IncludeDrafts, "drafts", false, "Include draft posts")
	return cmd
}
