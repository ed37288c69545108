package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/afmt/internal/scanner"
	"github.com/conneroisu/afmt/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [dir]",
	Aliases: []string{"w"},
	Short:   "Regenerate when stub files change",
	Long: `Generate every package below dir that holds stub files, then watch it
and regenerate the stub packages whose Go files change. Diagnostics are
printed and watching continues.

Examples:
  afmt watch                     # Watch the current directory
  afmt watch ./internal          # Watch a subtree
  afmt watch --debounce 1s       # Wait longer for editors to settle`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addGenerateFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 300*time.Millisecond, "Quiet period before regenerating")
	watchCmd.Flags().StringSlice("ignore", nil, "Directory globs not to watch")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.close()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	root = abs

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	sc := scanner.New(env.cfg.Generate.Tag)
	files, errs := sc.ScanDirectory(root, env.cfg.Watch.Ignore)
	reportScanErrors(out, errs)
	if dirs := scanner.Dirs(files); len(dirs) > 0 {
		if err := generate(ctx, out, env, false, dirs); err != nil {
			fmt.Fprintf(out, "initial generation failed: %v\n", err)
		}
	} else {
		fmt.Fprintf(out, "no stub files below %s\n", root)
	}

	fileWatcher, err := watcher.NewFileWatcher(env.cfg.Watch.Debounce, env.logger)
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.GoFilter)
	fileWatcher.AddFilter(watcher.NoTestFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoOutputFilter(env.cfg.Generate.Output))
	fileWatcher.Ignore(env.cfg.Watch.Ignore...)

	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		changed := watcher.Dirs(events)
		dirs, errs := stubDirs(sc, changed, env.cfg.Watch.Ignore)
		reportScanErrors(out, errs)
		env.logger.Info(ctx, "Files changed", "files", len(events), "dirs", len(changed), "packages", len(dirs))
		if len(dirs) == 0 {
			return nil
		}
		return generate(ctx, out, env, false, dirs)
	})

	if err := fileWatcher.AddRecursive(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", root)
	<-ctx.Done()
	return nil
}

// stubDirs keeps the directories of dirs that directly hold stub files and
// are not ignored.
func stubDirs(sc *scanner.Scanner, dirs, ignore []string) ([]string, []error) {
	var kept []string
	var errs []error
	for _, dir := range dirs {
		if scanner.SkipDir(filepath.Base(dir), ignore) {
			continue
		}
		files, ferrs := sc.ScanDir(dir)
		errs = append(errs, ferrs...)
		if len(files) > 0 {
			kept = append(kept, dir)
		}
	}
	return kept, errs
}

func reportScanErrors(out io.Writer, errs []error) {
	for _, err := range errs {
		fmt.Fprintf(out, "scan: %v\n", err)
	}
}
