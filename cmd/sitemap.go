package cmd

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
)

func sitemapCmd() *cobra.Command {
	var (
		output  string
		content string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Write the XML sitemap",
		Long: `Write the sitemap the site serves at /sitemap.xml: the static pages and
posts of every locale and one dataset page per entity.

  sola sitemap -o public/sitemap.xml --url https://sola.acdh.oeaw.ac.at`,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			if content != "" {
				e.config.Site.ContentDir = content
			}
			if baseURL != "" {
				e.config.Site.URL = baseURL
			}
			srv, err := newServer(e)
			if err != nil {
				fail("%v", err)
			}

			var buf bytes.Buffer
			if err := srv.WriteSitemap(context.Background(), &buf); err != nil {
				fail("sitemap: %v", err)
			}
			writeOutput(output, &buf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&content, "content", "", "Content directory (default from config)")
	cmd.Flags().StringVar(&baseURL, "url", "", "Public base URL")
	return cmd
}
