package console

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/labstack/gommon/color"
	"github.com/mattn/go-isatty"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

// DueLayout is how due dates are shown in the table.
const DueLayout = "Jan 2, 2006, 3:04 PM"

// Renderer draws the task table and notices.
type Renderer struct {
	color *color.Color
	loc   *time.Location
	theme Theme
}

// NewRenderer colours output only when w is a terminal.
func NewRenderer(w io.Writer, theme Theme) *Renderer {
	c := color.New()
	c.SetOutput(w)
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		c.Enable()
	} else {
		c.Disable()
	}
	return &Renderer{color: c, loc: time.Local, theme: theme}
}

func (r *Renderer) SetTheme(t Theme) { r.theme = t }

// FormatDue renders t in loc.
func FormatDue(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(DueLayout)
}

func (r *Renderer) badge(p domain.Priority) string {
	label := " " + string(p) + " "
	switch p {
	case domain.P1:
		return r.color.Red(label, color.B)
	case domain.P2:
		return r.color.Blue(label, color.B)
	case domain.P4:
		return r.color.Green(label, color.B)
	default:
		return r.color.Grey(label)
	}
}

func (r *Renderer) heading(s string) string {
	if r.theme == ThemeDark {
		return r.color.Cyan(s, color.B)
	}
	return r.color.Blue(s, color.B)
}

// Table writes rows numbered from 1. The row matching edit shows the draft.
func (r *Renderer) Table(w io.Writer, rows []domain.Task, edit *Draft) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, r.color.Dim("No tasks yet. Add one with: add <description>"))
		return err
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTask\tAssigned To\tDue Date/Time\tPriority")
	for i, t := range rows {
		n := strconv.Itoa(i + 1)
		if edit != nil && edit.ID == t.ID {
			fmt.Fprintf(tw, "%s*\t%s\t%s\t%s\t[%s] (editing)\n", n, edit.TaskName, edit.Assignee, edit.DueDate, edit.Priority)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n, t.TaskName, t.Assignee, FormatDue(t.DueDate, r.loc), r.badge(t.Priority))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	lines := strings.SplitAfterN(buf.String(), "\n", 2)
	if _, err := io.WriteString(w, r.heading(strings.TrimSuffix(lines[0], "\n"))+"\n"); err != nil {
		return err
	}
	if len(lines) > 1 {
		_, err := io.WriteString(w, lines[1])
		return err
	}
	return nil
}

// Notices writes one line per notice.
func (r *Renderer) Notices(w io.Writer, notices []Notice) {
	for _, n := range notices {
		if n.Kind == NoticeError {
			fmt.Fprintln(w, r.color.Red("✗ "+n.Message))
			continue
		}
		fmt.Fprintln(w, r.color.Green("✓ "+n.Message))
	}
}
