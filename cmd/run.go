package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/mutants/internal/domain"
	m "gooze.dev/pkg/mutants/internal/model"
)

const (
	dirFlagName               = "dir"
	fileFlagName              = "file"
	excludeFlagName           = "exclude"
	reFlagName                = "re"
	excludeReFlagName         = "exclude-re"
	inDiffFlagName            = "in-diff"
	shardFlagName             = "shard"
	errorFlagName             = "error"
	skipCallsFlagName         = "skip-calls"
	skipCallsDefaultsFlagName = "skip-calls-defaults"
	noOperatorsFlagName       = "no-operators"
	includeUnsafeFlagName     = "include-unsafe"
	followImportsFlagName     = "follow-imports"

	outputFlagName                 = "output"
	jobsFlagName                   = "jobs"
	jobserverTasksFlagName         = "jobserver-tasks"
	inPlaceFlagName                = "in-place"
	noShuffleFlagName              = "no-shuffle"
	shuffleSeedFlagName            = "shuffle-seed"
	baselineFlagName               = "baseline"
	timeoutFlagName                = "timeout"
	timeoutMultiplierFlagName      = "timeout-multiplier"
	timeoutCapFlagName             = "timeout-cap"
	minimumTestTimeoutFlagName     = "minimum-test-timeout"
	buildTimeoutFlagName           = "build-timeout"
	buildTimeoutMultiplierFlagName = "build-timeout-multiplier"
	iterateFlagName                = "iterate"
	testWorkspaceFlagName          = "test-workspace"
	testArgFlagName                = "test-arg"
	envFlagName                    = "env"
	copyCacheFlagName              = "copy-cache"
	isolateCacheFlagName           = "isolate-cache"
	gitignoreFlagName              = "gitignore"
	leakDirsFlagName               = "leak-dirs"
	failfastFlagName               = "failfast"
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [packages...]",
		Short: "Run mutation testing",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := workflow.Test(cmd.Context(), testArgs(cmd, args))
			return err
		},
	}

	configureFilterFlags(cmd)
	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// configureFilterFlags adds the flags that select mutants. Their list values
// are appended to the ones from the config file, so they are not bound to it.
func configureFilterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP(dirFlagName, "d", "", "directory inside the module to mutate (default: current directory)")
	flags.StringArrayP(fileFlagName, "f", nil, "mutate only files matching this glob (can be repeated)")
	flags.StringArrayP(excludeFlagName, "e", nil, "do not mutate files matching this glob (can be repeated)")
	flags.StringArrayP(reFlagName, "F", nil, "test only mutants whose name matches this regexp (can be repeated)")
	flags.StringArrayP(excludeReFlagName, "E", nil, "skip mutants whose name matches this regexp (can be repeated)")
	flags.String(inDiffFlagName, "", "test only mutants on lines added by this unified diff")
	flags.String(shardFlagName, "", "test one shard of the mutants, as k/n with 0 <= k < n")
	flags.StringArray(errorFlagName, nil, "error value returned by mutated functions returning error (can be repeated)")
	flags.StringArray(skipCallsFlagName, nil, "do not mutate arguments of calls to this function (can be repeated)")
	flags.Bool(skipCallsDefaultsFlagName, true, "also skip the default calls (make)")
	flags.Bool(noOperatorsFlagName, false, "do not generate operator mutants")
	flags.Bool(includeUnsafeFlagName, false, "mutate functions using unsafe or compiler directives")
	flags.Bool(followImportsFlagName, false, "also mutate module packages imported by the selected ones")
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP(outputFlagName, "o", "", "directory that receives mutants.out (default: the module root)")
	bindFlagToConfig(flags.Lookup(outputFlagName), outputConfigKey)

	flags.IntP(jobsFlagName, "j", defaultJobs, "number of mutants built and tested in parallel")
	bindFlagToConfig(flags.Lookup(jobsFlagName), jobsConfigKey)

	flags.Int(jobserverTasksFlagName, 0, "go processes allowed at once across jobs (default: number of CPUs)")
	bindFlagToConfig(flags.Lookup(jobserverTasksFlagName), jobserverTasksConfigKey)

	flags.String(baselineFlagName, defaultBaseline, "run or skip the baseline test of the unmutated tree")
	bindFlagToConfig(flags.Lookup(baselineFlagName), baselineConfigKey)

	flags.Duration(timeoutFlagName, 0, "test timeout per mutant (default: derived from the baseline)")
	bindFlagToConfig(flags.Lookup(timeoutFlagName), timeoutConfigKey)

	flags.Float64(timeoutMultiplierFlagName, domain.DefaultTimeoutMultiplier, "test timeout as a multiple of the baseline test time")
	bindFlagToConfig(flags.Lookup(timeoutMultiplierFlagName), timeoutMultiplierConfigKey)

	flags.Duration(timeoutCapFlagName, 0, "upper bound of the derived test timeout")
	bindFlagToConfig(flags.Lookup(timeoutCapFlagName), timeoutCapConfigKey)

	flags.Duration(minimumTestTimeoutFlagName, domain.DefaultMinimumTestTimeout, "lower bound of the derived test timeout")
	bindFlagToConfig(flags.Lookup(minimumTestTimeoutFlagName), minimumTestTimeoutConfigKey)

	flags.Duration(buildTimeoutFlagName, 0, "build timeout per mutant (default: none)")
	bindFlagToConfig(flags.Lookup(buildTimeoutFlagName), buildTimeoutConfigKey)

	flags.Float64(buildTimeoutMultiplierFlagName, 0, "build timeout as a multiple of the baseline build time")
	bindFlagToConfig(flags.Lookup(buildTimeoutMultiplierFlagName), buildTimeoutMultiplierConfigKey)

	flags.Bool(testWorkspaceFlagName, false, "test every package of the module instead of the mutated one")
	bindFlagToConfig(flags.Lookup(testWorkspaceFlagName), testWorkspaceConfigKey)

	flags.Bool(copyCacheFlagName, false, "copy the .gocache directory into scratch trees")
	bindFlagToConfig(flags.Lookup(copyCacheFlagName), copyCacheConfigKey)

	flags.Bool(isolateCacheFlagName, false, "give each scratch tree its own GOCACHE")
	bindFlagToConfig(flags.Lookup(isolateCacheFlagName), isolateCacheConfigKey)

	flags.Bool(gitignoreFlagName, defaultGitignore, "skip files matched by .gitignore when copying the tree")
	bindFlagToConfig(flags.Lookup(gitignoreFlagName), gitignoreConfigKey)

	flags.Bool(failfastFlagName, false, "pass -failfast to go test")
	bindFlagToConfig(flags.Lookup(failfastFlagName), failfastConfigKey)

	flags.StringArray(testArgFlagName, nil, "extra argument for go test (can be repeated)")
	flags.StringArray(envFlagName, nil, "KEY=VALUE added to the environment of go (can be repeated)")

	flags.Bool(inPlaceFlagName, false, "mutate the source tree itself instead of a copy")
	flags.Bool(noShuffleFlagName, false, "test mutants in catalog order")
	flags.Uint64(shuffleSeedFlagName, 0, "seed of the mutant order (default: from the clock)")
	flags.Bool(iterateFlagName, false, "skip mutants caught or unviable in the previous run")
	flags.Bool(leakDirsFlagName, false, "keep scratch trees after the run")
}

// estimateArgs collects the mutant selection of a list or run command.
func estimateArgs(cmd *cobra.Command, patterns []string) domain.EstimateArgs {
	flags := cmd.Flags()

	dir, _ := flags.GetString(dirFlagName)
	inDiff, _ := flags.GetString(inDiffFlagName)
	shard, _ := flags.GetString(shardFlagName)

	return domain.EstimateArgs{
		Dir:                m.Path(dir),
		Patterns:           patterns,
		Examine:            stringsOption(cmd, fileFlagName, examineConfigKey),
		Exclude:            stringsOption(cmd, excludeFlagName, excludeConfigKey),
		Re:                 stringsOption(cmd, reFlagName, reConfigKey),
		ExcludeRe:          stringsOption(cmd, excludeReFlagName, excludeReConfigKey),
		FollowImports:      boolOption(cmd, followImportsFlagName, followImportsConfigKey),
		NoOperators:        boolOption(cmd, noOperatorsFlagName, noOperatorsConfigKey),
		IncludeUnsafe:      boolOption(cmd, includeUnsafeFlagName, includeUnsafeConfigKey),
		SkipCalls:          stringsOption(cmd, skipCallsFlagName, skipCallsConfigKey),
		NoDefaultSkipCalls: !boolOption(cmd, skipCallsDefaultsFlagName, skipCallsDefaultsConfigKey),
		ErrorValues:        stringsOption(cmd, errorFlagName, errorValuesConfigKey),
		InDiff:             m.Path(inDiff),
		Shard:              shard,
	}
}

func testArgs(cmd *cobra.Command, patterns []string) domain.TestArgs {
	flags := cmd.Flags()

	inPlace, _ := flags.GetBool(inPlaceFlagName)
	noShuffle, _ := flags.GetBool(noShuffleFlagName)
	seed, _ := flags.GetUint64(shuffleSeedFlagName)
	iterate, _ := flags.GetBool(iterateFlagName)
	leakDirs, _ := flags.GetBool(leakDirsFlagName)

	return domain.TestArgs{
		EstimateArgs:   estimateArgs(cmd, patterns),
		Output:         m.Path(viper.GetString(outputConfigKey)),
		Jobs:           viper.GetInt(jobsConfigKey),
		JobserverTasks: viper.GetInt(jobserverTasksConfigKey),
		InPlace:        inPlace,
		NoShuffle:      noShuffle,
		ShuffleSeed:    seed,
		Baseline:       viper.GetString(baselineConfigKey),
		Timeouts: domain.TimeoutOptions{
			Test:            viper.GetDuration(timeoutConfigKey),
			TestMultiplier:  viper.GetFloat64(timeoutMultiplierConfigKey),
			Cap:             viper.GetDuration(timeoutCapConfigKey),
			Minimum:         viper.GetDuration(minimumTestTimeoutConfigKey),
			Build:           viper.GetDuration(buildTimeoutConfigKey),
			BuildMultiplier: viper.GetFloat64(buildTimeoutMultiplierConfigKey),
		},
		Iterate:       iterate,
		TestWorkspace: viper.GetBool(testWorkspaceConfigKey),
		Failfast:      viper.GetBool(failfastConfigKey),
		TestArgs:      stringsOption(cmd, testArgFlagName, testArgsConfigKey),
		Env:           stringsOption(cmd, envFlagName, envConfigKey),
		CopyCache:     viper.GetBool(copyCacheConfigKey),
		IsolateCache:  viper.GetBool(isolateCacheConfigKey),
		Gitignore:     viper.GetBool(gitignoreConfigKey),
		LeakDirs:      leakDirs,
		Version:       buildVersion(),
	}
}
