package main

import (
	"fmt"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/domain"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var validateRulesCmd = &cobra.Command{
	Use:   "validate-rules [dir]",
	Short: "Load a rules directory, check its integrity and summarize the editions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := appConfig.RulesDir
		if len(args) == 1 {
			dir = args[0]
		}

		loader, err := rules.NewLoader(newLogger(cmd.ErrOrStderr(), appConfig.Debug))
		if err != nil {
			return err
		}
		editions, err := loader.LoadDir(dir)
		if err != nil {
			return err
		}
		snapshot, err := rules.NewSnapshot(editions)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-4s %-18s %8s  %-10s  %-10s\n", "JUR", "FAMILY", "EDITIONS", "FROM", "UNTIL")
		for _, j := range domain.Jurisdictions {
			for _, f := range domain.Families {
				series := snapshot.Series(j, f)
				if len(series) == 0 {
					continue
				}
				fmt.Fprintf(out, "%-4s %-18s %8d  %-10s  %-10s\n",
					j, f, len(series), series[0].Start, series[len(series)-1].End)
			}
		}
		fmt.Fprintf(out, "\nRules directory %s is valid: %d editions\n", dir, snapshot.Len())
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the rule edition in force for a jurisdiction, family and date",
	Example: `  payroll resolve --jurisdiction ON --family provincial_tax --date 2025-03-15
  payroll resolve -j CA -F cpp_ei -d 2026-01-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jFlag, _ := cmd.Flags().GetString("jurisdiction")
		fFlag, _ := cmd.Flags().GetString("family")
		dFlag, _ := cmd.Flags().GetString("date")

		jurisdiction, err := domain.ParseJurisdiction(jFlag)
		if err != nil {
			return err
		}
		family := domain.Family(fFlag)
		if !family.IsValid() {
			return fmt.Errorf("unknown family %q (expected one of %v)", fFlag, domain.Families)
		}
		on, err := domain.ParseDate(dFlag)
		if err != nil {
			return err
		}

		_, store, err := loadStore(newLogger(cmd.ErrOrStderr(), appConfig.Debug))
		if err != nil {
			return err
		}
		edition, err := store.Resolve(jurisdiction, family, on)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, edition.String())
		if edition.Source != "" {
			fmt.Fprintf(out, "source: %s\n", edition.Source)
		}
		payload, err := yaml.Marshal(payloadOf(edition))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "---\n%s", payload)
		return nil
	},
}

func payloadOf(e domain.RuleEdition) any {
	switch {
	case e.Contributions != nil:
		return e.Contributions
	case e.Tax != nil:
		return e.Tax
	case e.Vacation != nil:
		return e.Vacation
	default:
		return e.Holiday
	}
}

func init() {
	resolveCmd.Flags().StringP("jurisdiction", "j", "", "Jurisdiction code (CA for federal)")
	resolveCmd.Flags().StringP("family", "F", "", "Rule family (cpp_ei, federal_tax, provincial_tax, vacation_minimum, holiday_pay)")
	resolveCmd.Flags().StringP("date", "d", "", "Effective date (YYYY-MM-DD)")
	resolveCmd.MarkFlagRequired("jurisdiction")
	resolveCmd.MarkFlagRequired("family")
	resolveCmd.MarkFlagRequired("date")
}
