package domain

import (
	"errors"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
	"gooze.dev/pkg/mutants/internal/controller"
	m "gooze.dev/pkg/mutants/internal/model"
)

// Baseline policies.
const (
	BaselineRun  = "run"
	BaselineSkip = "skip"
)

// argsValidate checks workflow arguments before any work is done.
var argsValidate *validator.Validate

func init() {
	argsValidate = validator.New()

	_ = argsValidate.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return validateGlobs([]string{fl.Field().String()}) == nil
	})
	_ = argsValidate.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
}

// EstimateArgs select the mutants of a tree.
type EstimateArgs struct {
	// Dir is any directory inside the module; its go.mod is the tree root.
	Dir m.Path
	// Patterns are go package patterns relative to the tree root.
	Patterns []string
	Examine  []string `validate:"dive,glob"`
	Exclude  []string `validate:"dive,glob"`
	// Re and ExcludeRe filter mutant names.
	Re                 []string `validate:"dive,regexp"`
	ExcludeRe          []string `validate:"dive,regexp"`
	FollowImports      bool
	NoOperators        bool
	IncludeUnsafe      bool
	SkipCalls          []string `validate:"dive,required"`
	NoDefaultSkipCalls bool
	ErrorValues        []string `validate:"dive,required"`
	// InDiff is a unified diff file; only mutants on added lines are kept.
	InDiff m.Path
	Shard  string
}

func (a EstimateArgs) generateOptions() GenerateOptions {
	var skipCalls []string
	if !a.NoDefaultSkipCalls {
		skipCalls = slices.Clone(DefaultSkipCalls)
	}

	return GenerateOptions{
		Operators:   !a.NoOperators,
		SkipUnsafe:  !a.IncludeUnsafe,
		SkipCalls:   append(skipCalls, a.SkipCalls...),
		ErrorValues: a.ErrorValues,
	}
}

// ListArgs are the arguments of list and list-files.
type ListArgs struct {
	EstimateArgs
	Format controller.OutputFormat `validate:"omitempty,oneof=text json yaml"`
	// Diff adds each mutant's unified diff to the listing.
	Diff bool
}

// TestArgs contains the arguments for running mutation tests.
type TestArgs struct {
	EstimateArgs
	// Output is the directory that receives mutants.out, the tree root by default.
	Output         m.Path
	Jobs           int `validate:"gte=0"`
	JobserverTasks int `validate:"gte=0"`
	InPlace        bool
	NoShuffle      bool
	ShuffleSeed    uint64
	Baseline       string `validate:"omitempty,oneof=run skip"`
	Timeouts       TimeoutOptions
	Iterate        bool
	TestWorkspace  bool
	Failfast       bool
	TestArgs       []string
	Env            []string `validate:"dive,contains=="`
	CopyCache      bool
	IsolateCache   bool
	Gitignore      bool
	LeakDirs       bool
	Version        string
}

// validateArgs reports the first invalid field as a usage error.
func validateArgs(args any) error {
	err := argsValidate.Struct(args)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return usageErrorf("invalid %s %q: failed %q check", fe.Field(), fe.Value(), fe.Tag())
	}

	return usageErrorf("invalid arguments: %w", err)
}
