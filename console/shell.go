package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

const helpText = `Commands:
  add <description>    create a task from free text
  list                 show all tasks
  edit <n>             edit row n
  set <field> <value>  change task, assignee, due (YYYY-MM-DDTHH:MM, local time) or priority
  save                 save the row being edited
  cancel               stop editing without saving
  rm <n>               delete row n
  theme                toggle light/dark
  help                 show this help
  quit                 exit`

// Shell runs the line-oriented command loop.
type Shell struct {
	console *Console
	render  *Renderer
	themes  *ThemeStore
	theme   Theme
}

// NewShell builds a shell. themes may be nil, in which case theme changes are not saved.
func NewShell(c *Console, r *Renderer, themes *ThemeStore, theme Theme) *Shell {
	r.SetTheme(theme)
	return &Shell{console: c, render: r, themes: themes, theme: theme}
}

// Run reads commands from in until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	s.list(ctx, out)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if quit := s.exec(ctx, strings.TrimSpace(sc.Text()), out); quit {
			return nil
		}
	}
}

func (s *Shell) exec(ctx context.Context, line string, out io.Writer) bool {
	if line == "" {
		return false
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(out, helpText)
		return false
	case "list", "ls":
		s.list(ctx, out)
		return false
	case "add":
		if _, err = s.console.Submit(ctx, rest); err == nil {
			s.list(ctx, out)
		}
	case "edit":
		err = s.edit(ctx, rest, out)
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		if err = s.console.SetField(field, strings.TrimSpace(value)); err == nil {
			s.list(ctx, out)
		}
	case "save":
		if _, err = s.console.SaveEdit(ctx); err == nil {
			s.list(ctx, out)
		}
	case "cancel":
		s.console.CancelEdit()
		s.list(ctx, out)
	case "rm", "delete":
		var t domain.Task
		if t, err = s.row(ctx, rest); err == nil {
			if err = s.console.Delete(ctx, t.ID); err == nil {
				s.list(ctx, out)
			}
		}
	case "theme":
		err = s.toggleTheme(out)
	default:
		err = fmt.Errorf("unknown command %q, type help", cmd)
	}

	notices := s.console.Notices()
	s.render.Notices(out, notices)
	if err != nil && len(notices) == 0 {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	return false
}

func (s *Shell) row(ctx context.Context, arg string) (domain.Task, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return domain.Task{}, fmt.Errorf("expected a row number, got %q", arg)
	}
	return s.console.Row(ctx, n)
}

func (s *Shell) edit(ctx context.Context, arg string, out io.Writer) error {
	t, err := s.row(ctx, arg)
	if err != nil {
		return err
	}
	s.console.StartEdit(t)
	s.list(ctx, out)
	fmt.Fprintln(out, "editing row "+arg+"; use set <field> <value>, then save or cancel")
	return nil
}

func (s *Shell) list(ctx context.Context, out io.Writer) {
	rows, err := s.console.Rows(ctx)
	if err != nil {
		fmt.Fprintf(out, "error: could not load tasks: %v\n", err)
		return
	}
	var edit *Draft
	if d, ok := s.console.Editing(); ok {
		edit = &d
	}
	if err := s.render.Table(out, rows, edit); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
}

func (s *Shell) toggleTheme(out io.Writer) error {
	s.theme = s.theme.Toggle()
	s.render.SetTheme(s.theme)
	fmt.Fprintf(out, "theme: %s\n", s.theme)
	if s.themes == nil {
		return nil
	}
	return s.themes.Save(s.theme)
}
