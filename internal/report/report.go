// Package report renders planning results for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"workplanner/internal/config"
	"workplanner/internal/pipeline"
	"workplanner/internal/planner"
)

const timeLayout = "Mon 2006-01-02 15:04"

// Printer writes styled reports. Colors are only emitted when the writer is
// a terminal.
type Printer struct {
	w io.Writer

	title   lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	deficit lipgloss.Style
	border  lipgloss.Style
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#565f89")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#e0af68")),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		deficit: r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#f7768e")),
		border:  r.NewStyle().Foreground(lipgloss.Color("#414868")),
	}
}

// Outcome prints the entries of a run followed by its deficits and a
// summary line.
func (p *Printer) Outcome(out *pipeline.Outcome) {
	if len(out.Entries) > 0 {
		rows := make([][]string, 0, len(out.Entries))
		for _, e := range out.Entries {
			rows = append(rows, []string{
				e.Start.Format(timeLayout),
				e.End.Format(timeLayout),
				strconv.Itoa(int(e.End.Sub(e.Start) / time.Hour)),
				e.Label,
			})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(p.border).
			Headers("START", "END", "H", "ENTRY").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return p.header
				case row >= 0 && row < len(out.Entries) && out.Entries[row].Deficit:
					return p.deficit
				default:
					return p.cell
				}
			})
		fmt.Fprintln(p.w, t.Render())
	}

	for _, d := range out.Deficits {
		fmt.Fprintln(p.w, p.warn.Render(fmt.Sprintf("Missing vacancy (%dh) for %s %s",
			d.Hours, d.Task, d.EventStart.Format(timeLayout))))
	}

	s := out.Stats
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(
		"%d events (%d confirmed), %d matched, %dh allocated, %dh missing, %d/%d sources failed",
		s.Events, s.Confirmed, s.Links, s.AllocatedHours, s.DeficitHours, out.FailedSources, out.Sources)))

	if out.Output != "" {
		fmt.Fprintln(p.w, p.title.Render("Events have been calculated and stored in "+out.Output))
	} else {
		fmt.Fprintln(p.w, p.title.Render("Events have been calculated (dry run, nothing written)"))
	}
}

// Plan prints the typed configuration: vacancies in the order they are
// tried and the hours every assignment needs per matched event.
func (p *Printer) Plan(cfg *config.Config, plan *config.Plan) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("%s (%s)", cfg.Name, plan.Location)))

	vrows := make([][]string, 0, len(plan.Vacancies))
	for i, v := range plan.Vacancies {
		prio := "-"
		if v.Priority != planner.DefaultPriority {
			prio = strconv.Itoa(v.Priority)
		}
		vrows = append(vrows, []string{strconv.Itoa(i + 1), v.String(), prio})
	}
	fmt.Fprintln(p.w, p.table([]string{"#", "VACANCY", "PRIORITY"}, vrows))

	arows := make([][]string, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		arows = append(arows, []string{
			a.Pattern,
			strconv.Itoa(a.TravelHours),
			strconv.Itoa(a.BeforeHours()),
			strconv.Itoa(a.AfterHours()),
		})
	}
	fmt.Fprintln(p.w, p.table([]string{"PATTERN", "TRAVEL", "BEFORE", "AFTER"}, arows))

	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("%d sources, output %s", len(plan.Sources), cfg.Output)))
}

func (p *Printer) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			return p.cell
		}).
		Render()
}
