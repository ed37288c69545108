package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/conneroisu/afmt/internal/fingerprint"
	"github.com/conneroisu/afmt/internal/generator"
)

var checkDiff bool

var checkCmd = &cobra.Command{
	Use:   "check [packages]",
	Short: "Report packages whose generated file is missing or stale",
	Long: `Generate the matched packages in memory and compare the result with the
files on disk. Nothing is written. The command fails if any file is missing,
stale, or if any stub has a diagnostic.

Examples:
  afmt check ./...               # Verify every package
  afmt check --diff ./pkg        # Show what would change`,
	RunE: runCheckCommand,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addGenerateFlags(checkCmd)
	checkCmd.Flags().BoolVarP(&checkDiff, "diff", "d", false, "Print a diff for stale files")
}

// Status is the state of a generated file relative to its stubs.
type Status string

const (
	StatusCurrent Status = "up to date"
	StatusMissing Status = "missing"
	StatusStale   Status = "stale"
	// StatusEdited means the fingerprint matches but the content does not.
	StatusEdited Status = "edited"
)

// compare checks the file on disk against a dry-run result and returns its
// status and, for stale files, a diff.
func compare(r *generator.PackageResult) (Status, string, error) {
	existing, err := os.ReadFile(r.Output)
	if os.IsNotExist(err) {
		return StatusMissing, "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", r.Output, err)
	}
	if bytes.Equal(existing, r.Content) {
		return StatusCurrent, "", nil
	}

	diff := cmp.Diff(lines(existing), lines(r.Content))
	if fp, ok := fingerprint.Read(existing); ok && fp == r.Fingerprint {
		return StatusEdited, diff, nil
	}
	return StatusStale, diff, nil
}

func lines(b []byte) []string {
	return strings.Split(string(b), "\n")
}

func runCheckCommand(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.close()

	return check(cmd, env, patterns(args))
}

func check(cmd *cobra.Command, env *environment, pkgs []string) error {
	out := cmd.OutOrStdout()
	g, err := generatorFor(env, true)
	if err != nil {
		return err
	}

	results, err := g.Run(cmd.Context(), pkgs...)
	reportDiagnostics(out, results)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		status, diff, err := compare(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", r.Output, status)
		if status == StatusCurrent {
			continue
		}
		failed++
		printDiff(out, diff)
	}
	if failed > 0 {
		return fmt.Errorf("%d generated files out of date; run afmt generate", failed)
	}
	return nil
}

func printDiff(out io.Writer, diff string) {
	if checkDiff && diff != "" {
		fmt.Fprintln(out, diff)
	}
}

func generatorFor(env *environment, dryRun bool) (*generator.Generator, error) {
	return generator.New(generatorOptions(env.cfg, dryRun), env.logger)
}
