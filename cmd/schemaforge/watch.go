package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/schemaforge/schemaforge/internal/watch"
)

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 250*time.Millisecond, "Delay before regenerating after a change")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever a schema document changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadGenerateConfig()
		if err != nil {
			return err
		}

		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()

		regenerate := func() {
			n, err := runGeneration(cfg)
			if err != nil {
				color.New(color.FgRed).Printf("generation failed: %v\n", err)
				return
			}
			color.New(color.FgGreen).Printf("regenerated %d file(s)\n", n)
		}

		// Initial run so the output tree exists before the first change.
		regenerate()

		w, err := watch.New(cfg.Schema.Dir, watchDebounce, logger, regenerate)
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()

		color.New(color.FgCyan).Printf("Watching %s for changes (Ctrl+C to stop)\n", cfg.Schema.Dir)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		fmt.Println("\nStopping watcher")
		return nil
	},
}
