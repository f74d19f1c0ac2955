// Package main implements the notevault CLI: note operations against the
// configured backend, plus the cross-backend conformance and benchmark
// run.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/erizov/notevault/internal/harness"
	"github.com/erizov/notevault/internal/libs/config"
	"github.com/erizov/notevault/internal/libs/obs"
	"github.com/erizov/notevault/internal/note"
	"github.com/erizov/notevault/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:   "notevault",
		Short: "Note storage across interchangeable backends",
	}

	root.AddCommand(
		addCmd(),
		getCmd(),
		updateCmd(),
		deleteCmd(),
		searchCmd(),
		recentCmd(),
		remindersCmd(),
		statsCmd(),
		benchCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore loads config and connects the selected backend. Every
// subcommand shares this path so they all honor NOTES_BACKEND.
func openStore(ctx context.Context) (note.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	obs.InitLogger(cfg.LogLevel)
	return store.Open(ctx, cfg, obs.Logger("cli"))
}

func withStore(run func(ctx context.Context, s note.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		return run(ctx, s, args)
	}
}

func addCmd() *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "add <title> <content>",
		Short: "Create a note",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			var dueAt *time.Time
			if due != "" {
				t, err := time.Parse(time.RFC3339, due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				dueAt = &t
			}
			id, err := s.Add(ctx, args[0], args[1], dueAt)
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&due, "due", "", "reminder time, RFC 3339")
	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			n, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if n == nil {
				fmt.Println("not found")
				return nil
			}
			printNote(*n)
			return nil
		}),
	}
}

func updateCmd() *cobra.Command {
	var title, content, due string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the supplied fields of a note",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			var fields note.Update
			if title != "" {
				fields.Title = &title
			}
			if content != "" {
				fields.Content = &content
			}
			if due != "" {
				t, err := time.Parse(time.RFC3339, due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				fields.DueAt = &t
			}
			updated, err := s.Update(ctx, args[0], fields)
			if err != nil {
				return err
			}
			if !updated {
				fmt.Println("not found")
				return nil
			}
			fmt.Println("updated")
			return nil
		}),
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&due, "due", "", "new reminder time, RFC 3339")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a note",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			deleted, err := s.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Println("not found")
				return nil
			}
			fmt.Println("deleted")
			return nil
		}),
	}
}

func searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find notes containing the query in title or content",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			notes, err := s.Search(ctx, args[0], limit)
			if err != nil {
				return err
			}
			printNotes(notes)
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}

func recentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently created notes",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			notes, err := s.Recent(ctx, limit)
			if err != nil {
				return err
			}
			printNotes(notes)
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}

func remindersCmd() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List notes due within the window",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			notes, err := s.UpcomingReminders(ctx, hours)
			if err != nil {
				return err
			}
			printNotes(notes)
			return nil
		}),
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "look-ahead window in hours")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show backend statistics",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, s note.Store, args []string) error {
			st, err := s.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("backend:          %s\n", s.Name())
			fmt.Printf("total notes:      %d\n", st.Total)
			fmt.Printf("with reminder:    %d\n", st.WithReminder)
			fmt.Printf("without reminder: %d\n", st.WithoutReminder)
			fmt.Printf("created last 7d:  %d\n", st.RecentCount)
			return nil
		}),
	}
}

func benchCmd() *cobra.Command {
	var backends []string
	var size int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the conformance scenarios and benchmark across backends",
		Long: "Runs an identical scenario suite and a fixed-size benchmark against " +
			"each named backend. A backend that cannot be reached is reported as " +
			"failed; the run continues with the rest. Every backend is truncated.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			obs.InitLogger(cfg.LogLevel)
			logger := obs.Logger("bench")

			ctx := cmd.Context()
			runner := harness.New(logger, size)

			results := make([]harness.Result, 0, len(backends))
			for _, name := range backends {
				benchCfg := *cfg
				benchCfg.Backend = name

				openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				s, err := store.Open(openCtx, &benchCfg, logger)
				cancel()
				if err != nil {
					// Unreachable engines fail on their own; the rest
					// still run
					results = append(results, harness.Result{Backend: name, Err: err})
					continue
				}

				results = append(results, runner.Run(ctx, []note.Store{s})...)
				_ = s.Close()
			}

			fmt.Print(harness.FormatReport(results))

			for _, res := range results {
				if !res.OK() {
					return fmt.Errorf("%d of %d backends failed", countFailed(results), len(results))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&backends, "backends", []string{config.BackendMemory}, "backends to exercise")
	cmd.Flags().IntVar(&size, "size", harness.DefaultBenchSize, "benchmark record count")
	return cmd
}

func countFailed(results []harness.Result) int {
	n := 0
	for _, res := range results {
		if !res.OK() {
			n++
		}
	}
	return n
}

func printNote(n note.Note) {
	fmt.Printf("id:      %s\n", n.ID)
	fmt.Printf("title:   %s\n", n.Title)
	fmt.Printf("content: %s\n", n.Content)
	fmt.Printf("created: %s\n", n.CreatedAt.Format(time.RFC3339))
	if n.DueAt != nil {
		fmt.Printf("due:     %s\n", n.DueAt.Format(time.RFC3339))
	}
}

func printNotes(notes []note.Note) {
	if len(notes) == 0 {
		fmt.Println("no notes")
		return
	}
	for _, n := range notes {
		due := ""
		if n.DueAt != nil {
			due = "  due " + n.DueAt.Format(time.RFC3339)
		}
		fmt.Printf("%s  %s  %s%s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, due)
	}
}
