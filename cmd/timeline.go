package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/site"
	"github.com/solaproject/sola/internal/ui"
	"github.com/solaproject/sola/internal/visualization"
)

func timelineCmd() *cobra.Command {
	var (
		flags         filterFlags
		output        string
		width, height float64
		ticks         int
		selectID      int
		selectType    string
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Render the entity timeline as SVG",
		Long: `Lay out every dated entity on the timeline and write it as SVG. Passages
outside the filter and search are dimmed; an optional selection keeps its
own relations highlighted.

  sola timeline -o timeline.svg
  sola timeline --types 5 --select-type person --select-id 7 > timeline.svg`,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			req := site.TimelineRequest{
				Locale: e.locale,
				Filter: flags.filter(),
				Term:   flags.search,
				Width:  width,
				Height: height,
				Ticks:  ticks,
			}
			if ticks == 0 {
				req.Ticks = e.config.Site.TimelineTicks
			}
			if selectID > 0 {
				req.Selection = &dataset.Selection{ID: selectID, Type: parseType(selectType)}
			}

			view, err := site.BuildTimeline(context.Background(), e.data, e.config.Visualization(), e.logger, req)
			if err != nil {
				fail("%v", err)
			}
			if view.Partial {
				ui.Warn.Fprintf(os.Stderr, "  %s Some entity types failed to load; the timeline is incomplete.\n", ui.WarnIcon())
			}
			if n := len(view.Anomalies); n > 0 {
				ui.Warn.Fprintf(os.Stderr, "  %s %d entities have no usable date.\n", ui.WarnIcon(), n)
			}

			var buf bytes.Buffer
			if err := view.Render(&buf); err != nil {
				fail("render: %v", err)
			}
			writeOutput(output, &buf)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Float64Var(&width, "width", site.DefaultTimelineWidth, "Canvas width")
	cmd.Flags().Float64Var(&height, "height", site.DefaultTimelineHeight, "Canvas height")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Simulation tick budget (default from config)")
	cmd.Flags().IntVar(&selectID, "select-id", 0, "Id of the selected entity")
	cmd.Flags().StringVar(&selectType, "select-type", "passage", "Type of the selected entity")
	return cmd
}

func durationCmd() *cobra.Command {
	var (
		output string
		width  float64
	)

	cmd := &cobra.Command{
		Use:               "duration <type> <id>",
		Short:             "Render the duration timeline of one entity as SVG",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: entityArgsCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			e := mustSetup()
			defer e.Close()

			sel, ok := dataset.ParseSelection(map[string][]string{"type": {args[0]}, "id": {args[1]}})
			if !ok {
				fail("invalid entity %s %s", args[0], args[1])
			}
			details, err := e.data.Entity(context.Background(), e.locale, sel)
			if err != nil {
				fail("load entity: %v", err)
			}

			var buf bytes.Buffer
			if err := visualization.RenderDuration(&buf, details.Entity, width, e.config.Visualization(), e.locale); err != nil {
				fail("render: %v", err)
			}
			if buf.Len() == 0 {
				ui.Warn.Fprintf(os.Stderr, "  %s %s %d has no primary date.\n", ui.WarnIcon(), sel.Type, sel.ID)
				return
			}
			writeOutput(output, &buf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Float64Var(&width, "width", site.DurationWidth, "Canvas width")
	return cmd
}

// writeOutput writes r to path, or to stdout when path is empty.
func writeOutput(path string, r io.Reader) {
	if path == "" {
		if _, err := io.Copy(os.Stdout, r); err != nil {
			fail("%v", err)
		}
		return
	}
	f, err := os.Create(path)
	if err != nil {
		fail("%v", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		fail("write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		fail("write %s: %v", path, err)
	}
	fmt.Fprintf(os.Stderr, "  %s Wrote %s\n", ui.StatusIcon(true), path)
}
