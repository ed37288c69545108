package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/afmt/internal/errors"
	"github.com/conneroisu/afmt/internal/generator"
)

var generateDryRun bool

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate [packages]",
	Aliases: []string{"gen", "g"},
	Short:   "Implement the stub functions of the matched packages",
	Long: `Load the matched packages with the stub build tag, check every //afmt:
directive and write one generated file per package that has stubs.

A package with any diagnostic gets no file written and the command fails.

Examples:
  afmt generate                  # Current package
  afmt generate ./...            # Every package below the current directory
  afmt generate --dry-run ./pkg  # Print the generated source instead of writing it`,
	RunE: runGenerateCommand,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addGenerateFlags(generateCmd)
	generateCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "Print generated files instead of writing them")
}

func runGenerateCommand(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return generate(ctx, cmd.OutOrStdout(), env, generateDryRun, patterns(args))
}

func generate(ctx context.Context, out io.Writer, env *environment, dryRun bool, pkgs []string) error {
	g, err := generatorFor(env, dryRun)
	if err != nil {
		return err
	}

	results, err := g.Run(ctx, pkgs...)
	reportDiagnostics(out, results)
	if err != nil {
		return err
	}

	written := 0
	for _, r := range results {
		switch {
		case dryRun:
			fmt.Fprintf(out, "// %s\n%s\n", r.Output, r.Content)
		case r.Written:
			written++
			fmt.Fprintf(out, "wrote %s (%d functions)\n", r.Output, len(r.Plans))
		}
	}
	if !dryRun {
		fmt.Fprintf(out, "%d packages, %d files updated\n", len(results), written)
	}
	return nil
}

// reportDiagnostics prints every diagnostic with its suggestions.
func reportDiagnostics(out io.Writer, results []*generator.PackageResult) {
	for _, d := range generator.Diagnostics(results) {
		fmt.Fprintln(out, errors.FormatErrorWithSuggestions(d))
	}
}
