package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mnemohq/mnemo/internal/store"
	"github.com/spf13/cobra"
)

var (
	saveTopic     string
	saveReasoning string
	listLimit     int
)

var saveCmd = &cobra.Command{
	Use:   "save <decision text>",
	Short: "Persist a decision",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSave,
}

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search stored decisions by meaning",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecall,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent decisions",
	RunE:  runList,
}

var outcomeCmd = &cobra.Command{
	Use:   "outcome <id> <text>",
	Short: "Record how a decision worked out",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runOutcome,
}

func init() {
	saveCmd.Flags().StringVarP(&saveTopic, "topic", "t", "", "Topic name (required)")
	saveCmd.Flags().StringVarP(&saveReasoning, "reasoning", "r", "", "Why this decision was made")
	_ = saveCmd.MarkFlagRequired("topic")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "Maximum rows to show")

	rootCmd.AddCommand(saveCmd, recallCmd, listCmd, outcomeCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	s, err := openStore(cfg, loadTier(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	d := &store.Decision{
		Topic:     saveTopic,
		Decision:  strings.Join(args, " "),
		Reasoning: saveReasoning,
	}
	if err := s.SaveDecision(context.Background(), d); err != nil {
		return err
	}

	fmt.Printf("saved %s (topic %s)\n", d.ID, d.Topic)
	return nil
}

func runRecall(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	s, err := openStore(cfg, loadTier(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	query := strings.Join(args, " ")
	decisions, err := s.SemanticSearch(context.Background(), query, cfg.Store.MaxResults)
	if err != nil {
		return err
	}

	if len(decisions) == 0 {
		fmt.Println("no matching decisions")
		return nil
	}
	printDecisions(decisions)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	s, err := openStore(cfg, loadTier(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	decisions, err := s.RecentDecisions(context.Background(), listLimit)
	if err != nil {
		return err
	}
	printDecisions(decisions)
	return nil
}

func runOutcome(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	s, err := openStore(cfg, loadTier(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return s.UpdateOutcome(context.Background(), args[0], strings.Join(args[1:], " "))
}

func printDecisions(decisions []*store.Decision) {
	for _, d := range decisions {
		fmt.Printf("%s  [%s] %s\n", d.CreatedAt.Format("2006-01-02"), d.Topic, d.Decision)
		if d.Reasoning != "" {
			fmt.Printf("    reasoning: %s\n", d.Reasoning)
		}
		if d.Outcome != "" {
			fmt.Printf("    outcome: %s\n", d.Outcome)
		}
		fmt.Printf("    id: %s\n", d.ID)
	}
}
