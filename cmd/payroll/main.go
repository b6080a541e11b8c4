package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/calculation"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/config"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/output"
	"github.com/beanflowai/Beanflow-Payroll-sub011/internal/rules"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Effective configuration, filled in by loadConfig before every command runs
var appConfig = config.DefaultAppConfig()

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "payroll %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// newLogger writes text logs to w, at debug level when debug is set
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var rootCmd = &cobra.Command{
	Use:   "payroll",
	Short: "Canadian payroll deductions and entitlements",
	Long: `Calculates CPP, CPP2, EI, federal and provincial income tax, vacation pay and
statutory holiday pay for one pay period, using date-effective rule tables
for the federal government and every province and territory except Quebec.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// loadConfig layers payroll.yaml, .env and PAYROLL_* variables, then applies
// any flag the user set explicitly
func loadConfig(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" && fileExists("payroll.yaml") {
		configFile = "payroll.yaml"
	}
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.LoadAppConfig(configFile, envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("rules") {
		cfg.RulesDir, _ = flags.GetString("rules")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if f := flags.Lookup("format"); f != nil && f.Changed {
		cfg.Format = f.Value.String()
	}
	if f := flags.Lookup("workers"); f != nil && f.Changed {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	appConfig = cfg
	return nil
}

// loadStore reads and installs the rules directory
func loadStore(logger *slog.Logger) (*rules.Loader, *rules.Store, error) {
	loader, err := rules.NewLoader(logger)
	if err != nil {
		return nil, nil, err
	}
	editions, err := loader.LoadDir(appConfig.RulesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading rules from %s: %w", appConfig.RulesDir, err)
	}
	store, err := rules.NewStore(editions)
	if err != nil {
		return nil, nil, fmt.Errorf("installing rules from %s: %w", appConfig.RulesDir, err)
	}
	logger.Debug("Rules loaded", "dir", appConfig.RulesDir, "editions", store.Snapshot().Len())
	return loader, store, nil
}

func newEngine(cmd *cobra.Command) (*calculation.Engine, *rules.Store, error) {
	logger := newLogger(cmd.ErrOrStderr(), appConfig.Debug)
	_, store, err := loadStore(logger)
	if err != nil {
		return nil, nil, err
	}
	engine := calculation.NewEngine(store)
	if appConfig.Debug {
		engine.SetLogger(calculation.NewSlogLogger(logger))
	}
	engine.Debug = appConfig.Debug
	return engine, store, nil
}

// emit formats report and prints it, or saves it to a timestamped file
func emit(cmd *cobra.Command, report *output.Report) error {
	f := output.GetFormatterByName(appConfig.Format)
	if f == nil {
		return fmt.Errorf("unknown format %q (available: %s; aliases: %s)", appConfig.Format,
			strings.Join(output.AvailableFormatterNames(), ", "),
			strings.Join(output.AvailableFormatAliases(), ", "))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		path, err := output.WriteFormatted(f, report, extension(f.Name()))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
		return nil
	}

	data, err := f.Format(report)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func extension(formatter string) string {
	switch formatter {
	case "csv", "detailed-csv":
		return "csv"
	case "json", "yaml", "html":
		return formatter
	default:
		return "txt"
	}
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [request-file]",
	Short: "Calculate deductions and entitlements for one pay period",
	Long: `Calculate deductions and entitlements from a YAML or JSON request file.
A file with several requests is calculated in order on a single worker; use
"batch" for parallel runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requests, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		engine, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		if len(requests) == 1 {
			result, err := engine.Calculate(requests[0])
			if err != nil {
				return err
			}
			return emit(cmd, output.NewResultReport(result))
		}

		batch, err := engine.RunBatch(cmd.Context(), requests, 1)
		if err != nil {
			return err
		}
		if err := emit(cmd, output.NewBatchReport(batch)); err != nil {
			return err
		}
		if batch.Failed > 0 {
			return fmt.Errorf("%d of %d calculations failed", batch.Failed, len(requests))
		}
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [request-file]",
	Short: "Calculate many employees in parallel against one rule snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requests, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		engine, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		batch, err := engine.RunBatch(cmd.Context(), requests, appConfig.Workers)
		if err != nil {
			return err
		}
		if err := emit(cmd, output.NewBatchReport(batch)); err != nil {
			return err
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict && batch.Failed > 0 {
			return fmt.Errorf("%d of %d calculations failed", batch.Failed, len(requests))
		}
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project [request-file]",
	Short: "Run one request through every remaining pay date of its year",
	Long: `Calculate the request's pay period and each later pay date in the same
calendar year, carrying year-to-date totals and wage history forward. Holidays
listed in the request are paid on the first pay date on or after them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requests, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}
		if len(requests) != 1 {
			return fmt.Errorf("%s holds %d requests; project takes exactly one", args[0], len(requests))
		}
		engine, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		proj, err := engine.ProjectYear(requests[0])
		if err != nil {
			return err
		}
		return emit(cmd, output.NewProjectionReport(proj))
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to payroll.yaml (default: ./payroll.yaml if it exists)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file with PAYROLL_* overrides")
	rootCmd.PersistentFlags().String("rules", "", "Rules directory (overrides rules_dir)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output for detailed calculations")

	formatHelp := fmt.Sprintf("Output format (%s); defaults to the configured format",
		strings.Join(output.AvailableFormatterNames(), ", "))
	calculateCmd.Flags().StringP("format", "f", "", formatHelp)
	calculateCmd.Flags().Bool("save", false, "Write the report to a timestamped file instead of stdout")

	projectCmd.Flags().StringP("format", "f", "", formatHelp)
	projectCmd.Flags().Bool("save", false, "Write the report to a timestamped file instead of stdout")

	batchCmd.Flags().StringP("format", "f", "", formatHelp)
	batchCmd.Flags().IntP("workers", "w", 4, "Parallel workers")
	batchCmd.Flags().Bool("save", false, "Write the report to a timestamped file instead of stdout")
	batchCmd.Flags().Bool("strict", false, "Exit non-zero when any employee fails")

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(validateRulesCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
