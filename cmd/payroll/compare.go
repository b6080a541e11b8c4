package main

import (
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/compare"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/config"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [request-file]",
	Short: "Compare one pay calculation against what-if variants",
	Long: `Calculate one request as given and under each variant, against the same
rule snapshot, and report the differences annualized.

Variants:
  date:YYYY-MM-DD   the rules in force on another pay date
  province:XX       the same pay in another province or territory
  frequency:NAME    the same annual pay on another pay frequency`,
	Example: `  payroll compare employee.yaml --with date:2026-01-16,province:AB
  payroll compare employee.yaml --with frequency:weekly --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, _ := cmd.Flags().GetStringSlice("with")
		if len(specs) == 0 {
			return fmt.Errorf("--with is required (for example --with date:2026-01-16,province:AB)")
		}
		variants, err := compare.ParseVariants(specs)
		if err != nil {
			return err
		}

		requests, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		if len(requests) != 1 {
			return fmt.Errorf("%s holds %d requests; compare takes exactly one", args[0], len(requests))
		}

		engine, store, err := newEngine(cmd)
		if err != nil {
			return err
		}
		set, err := compare.NewCompareEngine(engine, store).Compare(cmd.Context(), requests[0], variants)
		if err != nil {
			return err
		}
		set.RequestPath = args[0]

		format, _ := cmd.Flags().GetString("format")
		var out string
		switch format {
		case "table", "":
			out = (&compare.TableFormatter{}).Format(set)
		case "compact":
			out = (&compare.TableFormatter{}).FormatCompact(set) + "\n"
		case "csv":
			out, err = (&compare.CSVFormatter{}).Format(set)
		case "json":
			out, err = (&compare.JSONFormatter{Pretty: true}).Format(set)
		case "yaml":
			out, err = (&compare.YAMLFormatter{}).Format(set)
		default:
			return fmt.Errorf("unknown format %q for compare (table, compact, csv, json, yaml)", format)
		}
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	compareCmd.Flags().StringSlice("with", nil, "Comma-separated variants (date:..., province:..., frequency:...)")
	compareCmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json, yaml)")
	rootCmd.AddCommand(compareCmd)
}
