package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"aags-annotator/cmd/aags/globals"
	"aags-annotator/internal/annotate"
	"aags-annotator/internal/catalog"
	"aags-annotator/internal/pagesource"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

func init() {
	annotateCmd.Flags().StringP("out", "o", "", "write the annotated page to this file instead of stdout")
	annotateCmd.Flags().Bool("render", false, "load URLs in a headless browser so scripted content is annotated")
	annotateCmd.Flags().Bool("watch", false, "re-annotate every time the input file changes")
	annotateCmd.Flags().Bool("highlight", false, "highlight existing mentions of AAGS")
	annotateCmd.Flags().Bool("table", false, "add an AAGS column to the teaching assignments table instead of inline markers")
	annotateCmd.Flags().Int("subject-column", -1, "index of the subject cell in table rows (default from config)")
	rootCmd.AddCommand(annotateCmd)
}

var annotateCmd = &cobra.Command{
	Use:   "annotate <file or url>",
	Short: "Mark the AAGS subjects on a catalog page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := globals.Get(cmd.Context())
		flags := cmd.Flags()

		out, _ := flags.GetString("out")
		render, _ := flags.GetBool("render")
		watch, _ := flags.GetBool("watch")
		highlight, _ := flags.GetBool("highlight")
		useTable, _ := flags.GetBool("table")
		subjectColumn, _ := flags.GetInt("subject-column")

		src, err := pagesource.Resolve(args[0], g.Config.PageOptions(render), g.Tel)
		if err != nil {
			return err
		}

		opts := catalog.Options{
			Marker:            g.Config.Marker,
			HighlightMentions: highlight || g.Config.HighlightMentions,
		}
		if useTable {
			table := g.Config.Table
			if subjectColumn >= 0 {
				table.SubjectColumn = subjectColumn
			}
			opts.Table = &table
		}

		run := annotateRun{
			src:       src,
			processor: catalog.NewProcessor(g.List, opts, g.Tel),
			out:       out,
			stdout:    cmd.OutOrStdout(),
		}

		if !watch {
			_, err := run.once(cmd.Context())
			return err
		}

		file, ok := src.(pagesource.File)
		if !ok {
			return fmt.Errorf("--watch needs a file, got %s", src.Location())
		}
		if out != "" && sameFile(out, file.Path) {
			return errors.New("--watch cannot write over its own input")
		}

		if _, err := run.once(cmd.Context()); err != nil {
			slog.Error("annotate failed", "err", err)
		}
		return pagesource.Watch(cmd.Context(), file.Path, pagesource.DefaultDebounce, g.Tel, func(ctx context.Context) {
			if _, err := run.once(ctx); err != nil {
				slog.Error("annotate failed", "err", err)
			}
		})
	},
}

type annotateRun struct {
	src       pagesource.Source
	processor catalog.Processor
	out       string
	stdout    io.Writer
}

func (r annotateRun) once(ctx context.Context) (catalog.Outcome, error) {
	root, err := pagesource.Load(ctx, r.src)
	if err != nil {
		return catalog.Outcome{}, err
	}

	outcome, err := r.processor.Process(ctx, root)
	if err != nil {
		return outcome, err
	}

	var rendered bytes.Buffer
	err = html.Render(&rendered, root)
	if err != nil {
		return outcome, err
	}

	if r.out == "" {
		_, err = r.stdout.Write(rendered.Bytes())
	} else {
		err = os.WriteFile(r.out, rendered.Bytes(), 0644)
	}
	if err != nil {
		return outcome, err
	}

	logOutcome(r.src.Location(), outcome)
	return outcome, nil
}

func logOutcome(location string, outcome catalog.Outcome) {
	if outcome.ListErr != nil {
		slog.Warn("page left unannotated", "page", location, "reason", outcome.ListErr)
		return
	}
	attrs := []any{"page", location, "mentions", outcome.Mentions}
	if outcome.Table != (annotate.TableReport{}) {
		attrs = append(attrs, "rows", outcome.Table.Rows, "flagged", outcome.Table.Flagged)
	} else {
		attrs = append(
			attrs,
			"markers", outcome.Annotation.Markers,
			"subjects", outcome.Annotation.Subjects,
		)
	}
	slog.Info("annotated page", attrs...)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
