package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lepinkainen/catalogue/internal/pipeline"
	"github.com/lepinkainen/catalogue/internal/stats"
	"github.com/lepinkainen/catalogue/internal/store"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = text.Bold.Sprint(c)
	}
	return row
}

func printSummary(w io.Writer, s *pipeline.Summary) {
	t := newTable(w, "Run "+s.RunID)
	t.AppendHeader(header("Source", "Records", "Duration", "Status"))
	for _, r := range s.PerSource {
		status := "ok"
		if r.Err != nil {
			status = text.FgRed.Sprint(r.Err.Error())
		}
		t.AppendRow(table.Row{r.Source, r.Count, r.Duration.Round(time.Millisecond), status})
	}
	t.AppendFooter(table.Row{"Added", s.Added, "Skipped", s.Skipped})
	t.AppendFooter(table.Row{"Total", s.Total, "", dryRunLabel(s.DryRun)})
	t.Render()

	if s.BackupPath != "" {
		_, _ = fmt.Fprintf(w, "Backup: %s\n", s.BackupPath)
	}
	for _, e := range s.Errors {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", e.Error())
	}
}

func dryRunLabel(dry bool) string {
	if dry {
		return "dry run, not saved"
	}
	return ""
}

func printStats(w io.Writer, s stats.Stats) {
	t := newTable(w, "Collection")
	t.AppendRows([]table.Row{
		{"Records", s.Total},
		{"With ISBN", s.WithISBN},
		{"With DOI", s.WithDOI},
	})
	t.Render()

	breakdowns := []struct {
		title  string
		counts []stats.Count
	}{
		{"Material type", s.ByMaterialType},
		{"Language", s.ByLanguage},
		{"Source", s.BySource},
		{"Access", s.ByAccessType},
		{"Decade", s.ByDecade},
	}
	for _, b := range breakdowns {
		if len(b.counts) == 0 {
			continue
		}
		t := newTable(w, b.title)
		t.AppendHeader(header("Value", "Records"))
		for _, c := range b.counts {
			t.AppendRow(table.Row{c.Key, c.Count})
		}
		t.Render()
	}
}

func printBackups(w io.Writer, backups []store.Backup) {
	t := newTable(w, "Backups")
	t.AppendHeader(header("Created", "Size", "Path"))
	for _, b := range backups {
		t.AppendRow(table.Row{b.CreatedAt.Local().Format(time.DateTime), b.Size, b.Path})
	}
	t.Render()
}
