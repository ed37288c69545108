package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/afmt/internal/generator"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect [packages]",
	Short: "Show the computed bound of every stub",
	Long: `Bind and resolve every stub without writing anything, then print the
literal length, the maximum length of each argument and the resulting bound.

Examples:
  afmt inspect ./...             # Table of every stub
  afmt inspect -o json ./pkg     # Machine readable
  afmt inspect -o yaml ./pkg`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return ValidateFormat(inspectFormat)
	},
	RunE: runInspectCommand,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	addGenerateFlags(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectFormat, "output", "o", "table", "Output format (table|json|yaml)")
}

func runInspectCommand(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.close()

	g, err := generatorFor(env, true)
	if err != nil {
		return err
	}
	results, err := g.Run(cmd.Context(), patterns(args)...)
	if err != nil {
		reportDiagnostics(cmd.ErrOrStderr(), results)
		return err
	}
	return writeResults(cmd.OutOrStdout(), inspectFormat, results)
}

// writeResults renders results in the given format.
func writeResults(w io.Writer, format string, results []*generator.PackageResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "table":
		return writeTable(w, results)
	}
	return ValidateFormat(format)
}

func writeTable(w io.Writer, results []*generator.PackageResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tFUNC\tMODE\tLITERAL\tARGS\tBOUND\tCAPACITY")
	for _, r := range results {
		for _, p := range r.Plans {
			args := 0
			for _, t := range p.Terms {
				args += t.MaxLen
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				r.PkgPath, p.Func, p.Mode, p.Literal, args, p.Bound, p.Capacity)
		}
	}
	return tw.Flush()
}
