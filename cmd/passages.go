package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/ui"
)

// filterFlags are the passage filter and search flags shared by commands.
type filterFlags struct {
	name         string
	authors      []int
	publications []int
	topics       []int
	types        []int
	search       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Passage name contains")
	cmd.Flags().IntSliceVar(&f.authors, "authors", nil, "Author (person) ids")
	cmd.Flags().IntSliceVar(&f.publications, "publications", nil, "Publication ids")
	cmd.Flags().IntSliceVar(&f.topics, "topics", nil, "Passage topic ids")
	cmd.Flags().IntSliceVar(&f.types, "types", nil, "Passage type ids")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Free-text search")
}

func (f *filterFlags) filter() dataset.Filter {
	return dataset.Filter{
		Name:         strings.TrimSpace(f.name),
		Authors:      f.authors,
		Publications: f.publications,
		Topics:       f.topics,
		Types:        f.types,
	}
}

func passagesCmd() *cobra.Command {
	var (
		flags  filterFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "passages",
		Short: "Filter and search passages",
		Long: `Run the passage filter and the free-text search and print the passages
matching both.

  sola passages --types 5
  sola passages --authors 12,14 --search sermo
  sola passages --topics 3 --json`,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			f := flags.filter()
			passages, err := e.data.FilteredPassages(context.Background(), e.locale, f, flags.search)
			if err != nil {
				fail("%v", err)
			}
			if passages == nil {
				if asJSON {
					printJSON(nil)
					return
				}
				ui.Warn.Printf("  %s No filter or search given; every passage matches.\n", ui.WarnIcon())
				return
			}
			if asJSON {
				printJSON(passages.Sorted())
				return
			}
			printEntities(i18n.For(e.locale).Passages, passages.Sorted())
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func optionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show the passage filter options",
		Long:  "Show the author and publication counts and the topic and type trees the passage filter offers.",
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			opts, err := e.data.FilterOptions(context.Background(), e.locale)
			if err != nil {
				fail("%v", err)
			}
			labels := i18n.For(e.locale)
			tree := opts.Tree(labels.Other)

			ui.Banner("filter options")
			fmt.Printf("  %s:  %d\n", labels.Authors, len(opts.Authors))
			fmt.Printf("  %s:  %d\n", labels.EntityType(sola.Publication, true), len(opts.Publications))

			fmt.Printf("\n  %s\n", ui.Info.Sprint(labels.Topics))
			printTree(tree.Topics)
			fmt.Printf("\n  %s\n", ui.Info.Sprint(labels.Types))
			printTree(tree.Types)
		},
	}
	return cmd
}

func printTree(roots []*dataset.OptionNode) {
	dataset.Walk(roots, func(n *dataset.OptionNode, depth int) {
		id := strconv.Itoa(n.ID)
		if n.Synthetic {
			id = ui.Subtle.Sprint(id)
		}
		fmt.Printf("  %s%s %s\n", strings.Repeat("  ", depth+1), n.Item.Name, id)
	})
}
