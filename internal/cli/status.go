package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mnemohq/mnemo/internal/session"
	"github.com/mnemohq/mnemo/internal/warmup"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tier, warmup, and store status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	tierRes := loadTier(cfg)
	if tierRes == nil {
		fmt.Println("Tier: not installed (run `mnemo install`)")
	} else {
		fmt.Printf("Tier: %s (detected %s)\n", tierRes.Name, tierRes.DetectedAt.Format("2006-01-02 15:04"))
		fmt.Printf("  store: %v, embedding: %v\n", tierRes.StoreAvailable, tierRes.EmbeddingAvailable)
	}

	// Warmup state comes from the session record via the environment,
	// so this reflects the session that spawned this process.
	cache := session.New(sessionFilePath(cfg))
	var ok bool
	if cache.Get(warmup.KeyOK, &ok) {
		var at, total int64
		cache.Get(warmup.KeyAt, &at)
		cache.Get(warmup.KeyTotalMs, &total)
		fmt.Printf("Warmup: success=%v, %d ms, at %s\n", ok, total,
			time.Unix(at, 0).Format("15:04:05"))
	} else {
		fmt.Println("Warmup: no result in this session")
	}

	s, err := openStore(cfg, tierRes)
	if err != nil {
		fmt.Printf("Store: unavailable (%v)\n", err)
		return nil
	}
	defer func() { _ = s.Close() }()

	count, err := s.Count(context.Background())
	if err != nil {
		fmt.Printf("Store: open, count failed (%v)\n", err)
		return nil
	}
	fmt.Printf("Store: %d decisions\n", count)
	return nil
}
