// Package menu is the interactive console front end: view, add and delete
// tasks, and save-and-exit. It talks to the same store the scheduler watches,
// so an added deadline is armed the moment the prompt returns.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"remindd/internal/task"
	logx "remindd/pkg/logx"
)

type Menu struct {
	in    *bufio.Reader
	out   io.Writer
	store *task.Store
	log   logx.Logger
}

func New(in io.Reader, out io.Writer, store *task.Store, log logx.Logger) *Menu {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Menu{
		in:    bufio.NewReader(in),
		out:   out,
		store: store,
		log:   log,
	}
}

// Run drives the prompt loop until the user picks save-and-exit, input hits
// EOF, or ctx is canceled. It returns nil on a normal exit.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, "==== Deadline Reminder ====")
		fmt.Fprintln(m.out, "1. View tasks")
		fmt.Fprintln(m.out, "2. Add task")
		fmt.Fprintln(m.out, "3. Delete task")
		fmt.Fprintln(m.out, "4. Save & exit")

		choice, err := m.prompt("Choice: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(m.out)
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			m.view()
		case "2":
			if err := m.add(ctx); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				fmt.Fprintf(m.out, "Could not add task: %v\n", err)
			}
		case "3":
			if err := m.remove(ctx); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				fmt.Fprintf(m.out, "Could not delete task: %v\n", err)
			}
		case "4":
			if err := m.store.Save(ctx); err != nil {
				fmt.Fprintf(m.out, "Warning: tasks could not be saved: %v\n", err)
			} else {
				fmt.Fprintln(m.out, "Tasks saved. Bye.")
			}
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid choice.")
		}
	}
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (m *Menu) view() {
	tasks := m.store.List()
	if len(tasks) == 0 {
		fmt.Fprintln(m.out, "No pending tasks.")
		return
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Deadline.Before(tasks[j].Deadline) })

	fmt.Fprintf(m.out, "%-5s | %-16s | %-3s | %-12s | %s\n", "ID", "Deadline", "Pri", "Category", "Title")
	for _, t := range tasks {
		fmt.Fprintf(m.out, "%-5d | %-16s | %-3d | %-12s | %s\n",
			t.ID, t.Deadline.Format(task.DeadlineFormat), t.Priority, t.Category, t.Title)
	}
}

func (m *Menu) add(ctx context.Context) error {
	title, err := m.prompt("Title: ")
	if err != nil {
		return err
	}
	if title == "" {
		return errors.New("title is required")
	}

	category, err := m.prompt("Category: ")
	if err != nil {
		return err
	}

	prioStr, err := m.prompt("Priority (1-5): ")
	if err != nil {
		return err
	}
	priority, err := strconv.Atoi(prioStr)
	if err != nil || priority < 1 || priority > 5 {
		return errors.New("priority must be a number between 1 and 5")
	}

	deadlineStr, err := m.prompt("Deadline (YYYY-MM-DD HH:MM): ")
	if err != nil {
		return err
	}
	deadline, err := time.ParseInLocation(task.DeadlineFormat, deadlineStr, time.Local)
	if err != nil {
		return fmt.Errorf("%w: expected YYYY-MM-DD HH:MM", task.ErrInvalidDeadline)
	}

	id, err := m.store.Add(ctx, title, category, priority, deadline)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "Task %d added; due %s.\n", id, deadline.Format(task.DeadlineFormat))
	if !deadline.After(time.Now()) {
		fmt.Fprintln(m.out, "Note: that deadline is already due; the reminder will fire immediately.")
	}
	return nil
}

func (m *Menu) remove(ctx context.Context) error {
	idStr, err := m.prompt("Task ID to delete: ")
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return errors.New("task id must be a number")
	}
	if !m.store.Remove(ctx, id) {
		return fmt.Errorf("%w: no task with id %d", task.ErrNotFound, id)
	}
	fmt.Fprintf(m.out, "Task %d deleted.\n", id)
	return nil
}
