package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/cms"
	"github.com/solaproject/sola/internal/site"
	"github.com/solaproject/sola/internal/ui"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		content string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the SOLA web site",
		Long: `Serve the bilingual web site: content pages, the dataset page with its
timeline, the JSON/SVG API and the sitemap.

  sola serve                          # Listen on the configured address
  sola serve --addr :8080 --content ./content
  sola serve --cache redis            # Share the query cache between instances`,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			if addr != "" {
				e.config.Site.Addr = addr
			}
			if content != "" {
				e.config.Site.ContentDir = content
			}
			if baseURL != "" {
				e.config.Site.URL = baseURL
			}
			if _, err := os.Stat(e.config.Site.ContentDir); err != nil {
				fail("content directory: %v", err)
			}

			srv, err := newServer(e)
			if err != nil {
				fail("%v", err)
			}

			ui.Banner("serve")
			fmt.Printf("  Address:  %s\n", ui.Brand.Sprint(e.config.Site.Addr))
			fmt.Printf("  Backend:  %s\n", e.config.API.BaseURL)
			fmt.Printf("  Content:  %s\n", e.config.Site.ContentDir)
			fmt.Printf("  Cache:    %s\n", e.config.Cache.Backend)
			fmt.Println()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ListenAndServe(ctx); err != nil {
				fail("server: %v", err)
			}
			fmt.Println("  Stopped.")
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&content, "content", "", "Content directory (default from config)")
	cmd.Flags().StringVar(&baseURL, "url", "", "Public base URL used in the sitemap")
	return cmd
}

// newServer builds the site from the environment.
func newServer(e *env) (*site.Server, error) {
	return site.New(
		e.config.SiteServer(),
		e.data,
		cms.NewStore(e.config.Site.ContentDir),
		e.config.Imprint(),
		e.logger,
	)
}
