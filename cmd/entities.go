package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/ui"
)

func entitiesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "entities [type]",
		Short: "Load the entity collections",
		Long: `Without an argument, load all six collections concurrently and show how
many entities each holds. With a type, list the entities of that type.

  sola entities
  sola entities person --locale en
  sola entities passage --json`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: typeNames(),
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()
			ctx := context.Background()

			if len(args) == 1 {
				t := parseType(args[0])
				entities, err := e.data.EntitiesOfType(ctx, t, e.locale)
				if err != nil {
					fail("load %s: %v", t, err)
				}
				if asJSON {
					printJSON(entities.Sorted())
					return
				}
				printEntities(i18n.For(e.locale).EntityType(t, true), entities.Sorted())
				return
			}

			if !asJSON {
				ui.Banner("entities")
			}
			collections, err := e.data.EntitiesWithProgress(ctx, e.locale, func(t sola.EntityType, state dataset.QueryState) {
				if asJSON {
					return
				}
				if state.Err != nil {
					fmt.Printf("  %s %s: %v\n", ui.StatusIcon(false), t, state.Err)
					return
				}
				fmt.Printf("  %s %s\n", ui.StatusIcon(true), t)
			})
			if asJSON {
				out := make(map[string][]sola.Entity, sola.EntityTypeCount)
				for _, t := range sola.EntityTypes() {
					out[t.String()] = collections.Of(t).Sorted()
				}
				printJSON(out)
				if err != nil {
					os.Exit(1)
				}
				return
			}

			labels := i18n.For(e.locale)
			colors := e.config.Visualization().Colors
			var rows [][]string
			for _, t := range sola.EntityTypes() {
				state := collections.States[t]
				rows = append(rows, []string{
					ui.Swatch(colors.For(t)) + " " + labels.EntityType(t, true),
					strconv.Itoa(len(collections.Of(t))),
					ui.StatusIcon(state.Err == nil) + " " + state.Status.String(),
				})
			}
			fmt.Println()
			ui.Table([]string{"TYPE", "COUNT", "STATUS"}, rows)
			fmt.Printf("\n  %d entities\n", collections.Len())
			if err != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func entityCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "entity <type> <id>",
		Short:             "Show one entity with its relations, texts and bibliography",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: entityArgsCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()
			ctx := context.Background()

			sel, ok := dataset.ParseSelection(map[string][]string{"type": {args[0]}, "id": {args[1]}})
			if !ok {
				fail("invalid entity %s %s", args[0], args[1])
			}
			details, err := e.data.Entity(ctx, e.locale, sel)
			if err != nil {
				fail("load entity: %v", err)
			}
			texts, err := e.data.Texts(ctx, e.locale, details)
			if err != nil {
				fail("load texts: %v", err)
			}
			refs, err := e.data.Bibliography(ctx, e.locale, sel.Ref())
			if err != nil {
				fail("load bibliography: %v", err)
			}

			if asJSON {
				printJSON(map[string]any{"entity": details, "texts": texts, "bibliography": refs})
				return
			}

			labels := i18n.For(e.locale)
			ui.Banner(labels.EntityType(details.Type, false) + " " + strconv.Itoa(details.ID))
			fmt.Printf("  Name:     %s\n", ui.Brand.Sprint(details.Name))
			fmt.Printf("  Date:     %s\n", deref(details.PrimaryDate))
			if details.StartDate != nil || details.EndDate != nil {
				fmt.Printf("  Span:     %s – %s\n", deref(details.StartDate), deref(details.EndDate))
			}
			if details.AssignedUser != nil {
				fmt.Printf("  Editor:   %s\n", details.AssignedUser.Label)
			}

			for t, relations := range dataset.RelationsByType(details) {
				if len(relations) == 0 {
					continue
				}
				fmt.Printf("\n  %s\n", ui.Info.Sprint(labels.EntityType(sola.EntityType(t), true)))
				var rows [][]string
				for _, r := range relations {
					rows = append(rows, []string{strconv.Itoa(r.RelatedEntity.ID), r.RelatedEntity.Label, r.RelationType.Label})
				}
				ui.Table([]string{"ID", "NAME", "RELATION"}, rows)
			}

			for _, text := range texts {
				fmt.Printf("\n  %s\n  %s\n", ui.Info.Sprint(text.Label), text.Text)
			}

			if len(refs) > 0 {
				fmt.Printf("\n  %s\n", ui.Info.Sprint(labels.Bibliography))
				for _, r := range refs {
					fmt.Printf("  • %s: %s (%s)\n", r.Author, r.Title, r.Year)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printEntities(title string, entities []sola.Entity) {
	ui.Banner(title)
	if len(entities) == 0 {
		fmt.Println("  None.")
		return
	}
	var rows [][]string
	for _, e := range entities {
		rows = append(rows, []string{strconv.Itoa(e.ID), e.Name, deref(e.PrimaryDate)})
	}
	ui.Table([]string{"ID", "NAME", "DATE"}, rows)
	fmt.Printf("\n  %d total\n", len(entities))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("encode: %v", err)
	}
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func typeNames() []string {
	names := make([]string, 0, sola.EntityTypeCount)
	for _, t := range sola.EntityTypes() {
		names = append(names, t.Path())
	}
	return names
}
