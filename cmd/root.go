// Package cmd provides the root command and CLI setup for mutants.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutants/internal/adapter"
	"gooze.dev/pkg/mutants/internal/controller"
	"gooze.dev/pkg/mutants/internal/domain"
)

var goFileAdapter adapter.GoFileAdapter
var sourceFSAdapter adapter.SourceFSAdapter
var reportStore adapter.ReportStore
var testAdapter adapter.TestRunnerAdapter
var packageLister adapter.PackageLister
var mutagen domain.Mutagen
var analyzer domain.Analyzer
var workflow domain.Workflow
var ui controller.UI

// configFlag names a config file read instead of ./mutants.yaml.
var configFlag string

var logFileFlag string

var verboseFlag bool

func init() {
	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	sourceFSAdapter = adapter.NewLocalSourceFSAdapter()
	reportStore = adapter.NewReportStore()
	testAdapter = adapter.NewLocalTestRunnerAdapter()
	packageLister = adapter.NewGoPackagesLister()
	mutagen = domain.NewMutagen(goFileAdapter)
	analyzer = domain.NewAnalyzer(sourceFSAdapter, goFileAdapter, packageLister, mutagen)
	workflow = domain.NewWorkflow(
		sourceFSAdapter,
		reportStore,
		ui,
		analyzer,
		testAdapter,
	)
}

const patternsHelp = `Package patterns are relative to the module root, as for go test:
  ./...            every package of the module (default)
  ./internal/...   packages below internal
  ./cmd ./pkg      several packages`

const rootLongDescription = `Mutants is a mutation testing tool for Go. It rewrites small pieces of
your code into plausible bugs, rebuilds and retests each variant, and reports
the mutants your tests did not catch.

` + patternsHelp

const runLongDescription = `Build and test every selected mutant and report the ones that were missed.

Outcomes are written to mutants.out below --output (default: the module root).
The exit code is 2 when mutants were missed and 3 when some timed out.

` + patternsHelp

const listLongDescription = `List the mutants a run with the same filters would test.

` + patternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mutants",
		Short:        "Go mutation testing tool",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configFlag != "" {
				if err := readConfigFile(configFlag); err != nil {
					return err
				}
			}

			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &domain.UsageError{Err: err}
	})

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ./"+configFileName+")")

	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", defaultLogFilename, "rotating log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", defaultLogVerbose, "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute runs the root command until it completes or the process is
// interrupted, then exits with the code of the outcome.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(domain.ExitCode(err))
	}
}
