package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coachd/learning-coach-mcp/internal/journal"
)

var (
	progressWeek   int
	progressTopics []string
	progressGoals  string
)

func init() {
	progressSetCmd.Flags().IntVar(&progressWeek, "week", 1, "Current week in the learning plan")
	progressSetCmd.Flags().StringSliceVar(&progressTopics, "topics", nil, "Topics being studied (comma-separated)")
	progressSetCmd.Flags().StringVar(&progressGoals, "goals", "", "Learning goals")
	progressCmd.AddCommand(progressSetCmd, progressShowCmd)
	rootCmd.AddCommand(progressCmd)
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Track learner progress",
}

var progressSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record the current week, topics and goals",
	Long: `Replaces the recorded progress. Digest generation retrieves and
ranks content against these topics.

Example:
  coachctl progress set --week 4 --topics transformers,attention --goals "build a small GPT"`,
	RunE: runProgressSet,
}

func runProgressSet(cmd *cobra.Command, args []string) error {
	if progressWeek < 1 {
		return fmt.Errorf("--week must be at least 1")
	}

	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	p, err := journalStore.SetProgress(context.Background(), progressWeek, progressTopics, progressGoals)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}

	printProgress(p)
	return nil
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the recorded progress",
	RunE:  runProgressShow,
}

func runProgressShow(cmd *cobra.Command, args []string) error {
	journalStore, err := openJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	p, err := journalStore.Progress(context.Background())
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			fmt.Println("No progress recorded. Use 'coachctl progress set' to get started.")
			return nil
		}
		return fmt.Errorf("load progress: %w", err)
	}

	printProgress(p)
	fmt.Printf("Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04 MST"))
	return nil
}

func printProgress(p *journal.Progress) {
	topics := "(none)"
	if len(p.Topics) > 0 {
		topics = strings.Join(p.Topics, ", ")
	}
	fmt.Printf("Week %d: %s\n", p.Week, topics)
	if p.Goals != "" {
		fmt.Printf("Goals: %s\n", p.Goals)
	}
}
