package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/mutants/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mutants"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "MUTANTS"

	// Filter keys are shared by run, list and list-files.
	examineConfigKey           = "filters.examine_globs"
	excludeConfigKey           = "filters.exclude_globs"
	reConfigKey                = "filters.examine_re"
	excludeReConfigKey         = "filters.exclude_re"
	errorValuesConfigKey       = "filters.error_values"
	skipCallsConfigKey         = "filters.skip_calls"
	skipCallsDefaultsConfigKey = "filters.skip_calls_defaults"
	noOperatorsConfigKey       = "filters.no_operators"
	includeUnsafeConfigKey     = "filters.include_unsafe"
	followImportsConfigKey     = "filters.follow_imports"

	outputConfigKey                 = "run.output"
	jobsConfigKey                   = "run.jobs"
	jobserverTasksConfigKey         = "run.jobserver_tasks"
	baselineConfigKey               = "run.baseline"
	timeoutConfigKey                = "run.timeout"
	timeoutMultiplierConfigKey      = "run.timeout_multiplier"
	timeoutCapConfigKey             = "run.timeout_cap"
	minimumTestTimeoutConfigKey     = "run.minimum_test_timeout"
	buildTimeoutConfigKey           = "run.build_timeout"
	buildTimeoutMultiplierConfigKey = "run.build_timeout_multiplier"
	testWorkspaceConfigKey          = "run.test_workspace"
	testArgsConfigKey               = "run.test_args"
	envConfigKey                    = "run.env"
	copyCacheConfigKey              = "run.copy_cache"
	isolateCacheConfigKey           = "run.isolate_cache"
	gitignoreConfigKey              = "run.gitignore"
	failfastConfigKey               = "run.failfast"

	defaultJobs      = 1
	defaultBaseline  = domain.BaselineRun
	defaultGitignore = true

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = "mutants.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	initConfig()
}

// initConfig points viper at ./mutants.yaml and the MUTANTS_ environment.
func initConfig() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()

	// A missing default config file is not an error.
	_ = viper.ReadInConfig()
}

func setConfigDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)

	viper.SetDefault(examineConfigKey, []string{})
	viper.SetDefault(excludeConfigKey, []string{})
	viper.SetDefault(reConfigKey, []string{})
	viper.SetDefault(excludeReConfigKey, []string{})
	viper.SetDefault(errorValuesConfigKey, []string{})
	viper.SetDefault(skipCallsConfigKey, []string{})
	viper.SetDefault(skipCallsDefaultsConfigKey, true)
	viper.SetDefault(noOperatorsConfigKey, false)
	viper.SetDefault(includeUnsafeConfigKey, false)
	viper.SetDefault(followImportsConfigKey, false)

	viper.SetDefault(outputConfigKey, "")
	viper.SetDefault(jobsConfigKey, defaultJobs)
	viper.SetDefault(jobserverTasksConfigKey, 0)
	viper.SetDefault(baselineConfigKey, defaultBaseline)
	viper.SetDefault(timeoutConfigKey, time.Duration(0))
	viper.SetDefault(timeoutMultiplierConfigKey, domain.DefaultTimeoutMultiplier)
	viper.SetDefault(timeoutCapConfigKey, time.Duration(0))
	viper.SetDefault(minimumTestTimeoutConfigKey, domain.DefaultMinimumTestTimeout)
	viper.SetDefault(buildTimeoutConfigKey, time.Duration(0))
	viper.SetDefault(buildTimeoutMultiplierConfigKey, 0.0)
	viper.SetDefault(testWorkspaceConfigKey, false)
	viper.SetDefault(testArgsConfigKey, []string{})
	viper.SetDefault(envConfigKey, []string{})
	viper.SetDefault(copyCacheConfigKey, false)
	viper.SetDefault(isolateCacheConfigKey, false)
	viper.SetDefault(gitignoreConfigKey, defaultGitignore)
	viper.SetDefault(failfastConfigKey, false)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// readConfigFile replaces the default config file with path.
func readConfigFile(path string) error {
	viper.SetConfigFile(path)

	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Failed to read config file", "path", path, "error", err)
		return &domain.UsageError{Err: fmt.Errorf("read config %s: %w", path, err)}
	}

	if version := viper.GetInt(configVersionKey); version != currentConfigVersion {
		return &domain.UsageError{Err: fmt.Errorf("config %s: unsupported version %d", path, version)}
	}

	return nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the global slog logger at a rotating log file.
//
// It logs at the configured level, or at Debug when verbose is set.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// stringsOption concatenates the config value of key with the values given on
// the command line.
func stringsOption(cmd *cobra.Command, flagName, key string) []string {
	values := viper.GetStringSlice(key)

	if flag := cmd.Flags().Lookup(flagName); flag != nil && flag.Changed {
		cli, err := cmd.Flags().GetStringArray(flagName)
		if err == nil {
			values = append(values, cli...)
		}
	}

	return values
}

// boolOption returns the command line value of flagName when given, the config
// value of key otherwise.
func boolOption(cmd *cobra.Command, flagName, key string) bool {
	if flag := cmd.Flags().Lookup(flagName); flag != nil && flag.Changed {
		value, err := cmd.Flags().GetBool(flagName)
		if err == nil {
			return value
		}
	}

	return viper.GetBool(key)
}
