package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/assockit/pkg/watch"
)

func watchCmd() *cobra.Command {
	options := &validateOptions{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-validate a local annotation file whenever it changes",
		Long: `Validate FILE once, then again every time it is written or replaced.
Stops on interrupt.

Example:
  assoc watch mgi.gpad --gpi mgi.gpi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if strings.Contains(path, "://") && !strings.HasPrefix(path, "file://") {
				return fmt.Errorf("watch needs a local file, got %s", path)
			}
			path = strings.TrimPrefix(path, "file://")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			if err := runValidate(cmd, options, path, cmd.OutOrStdout()); err != nil {
				logger.Error("validation failed", "path", path, "error", err)
			}

			watcher, err := watch.New([]string{path}, func(_ context.Context, changed string) {
				logger.Info("file changed, re-validating", "path", changed)
				if err := runValidate(cmd, options, changed, cmd.OutOrStdout()); err != nil {
					logger.Error("validation failed", "path", changed, "error", err)
				}
			}, logger)
			if err != nil {
				return err
			}
			watcher.SetDebounce(debounce)

			logger.Info("watching for changes", "path", path)
			return watcher.Run(ctx)
		},
	}
	options.bind(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-validating")
	return cmd
}
