package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mnemohq/mnemo/internal/embed"
	"github.com/mnemohq/mnemo/internal/tier"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Detect capabilities and write the tier record",
	Long: `Detect capabilities and write the tier record.

Probes the host runtime, free disk space, the native store driver, and
the embedding runtime. Runtime and disk failures are fatal; driver and
embedding failures downgrade the tier but leave the tool usable with
exact-match search only.

The result is written once and reused by every later run. Re-run this
command after changing the environment.`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	stateDir, err := cfg.StateDir()
	if err != nil {
		return fmt.Errorf("cannot resolve state directory: %w", err)
	}

	embedder := embed.NewCommandEmbedder(cfg.Embedder)
	detector := tier.NewDetector(stateDir, embedder)

	res, err := detector.Detect(context.Background())
	if err != nil {
		var fatal *tier.FatalError
		if errors.As(err, &fatal) {
			fmt.Fprintf(os.Stderr, "mnemo cannot run here: %s\n", fatal.Reason)
			fmt.Fprintf(os.Stderr, "  remediation: %s\n", fatal.Remediation)
		}
		return err
	}

	tierPath, err := cfg.TierPath()
	if err != nil {
		return err
	}
	if err := tier.Save(tierPath, res); err != nil {
		return err
	}

	tier.WriteReport(os.Stdout, res)
	return nil
}
