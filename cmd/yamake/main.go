// Command yamake is a small, make-compatible build tool: it parses a
// makefile, determines which targets are stale, and runs their recipes in
// dependency order.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/op/go-logging.v1"

	"github.com/yamake/yamake/cli"
	"github.com/yamake/yamake/config"
	"github.com/yamake/yamake/core"
	"github.com/yamake/yamake/parse"
	"github.com/yamake/yamake/runner"
)

var log = logging.MustGetLogger("main")

var opts struct {
	Usage      string `usage:"yamake [options] [target]"`
	File       string `short:"f" long:"file" description:"Makefile to read" default:"Makefile"`
	DryRun     bool   `short:"n" long:"dry_run" description:"Print commands instead of running them"`
	KeepGoing  bool   `short:"k" long:"keep_going" description:"Keep building independent targets after one fails"`
	Silent     bool   `short:"s" long:"silent" description:"Don't echo commands before running them"`
	Verbosity  string `short:"v" long:"verbosity" description:"Log verbosity" default:"notice"`
	Positional struct {
		Target string `positional-arg-name:"target" description:"Target to build; defaults to the first target in the makefile"`
	} `positional-args:"yes"`
}

func main() {
	cli.ParseFlagsOrDie("yamake", "1.0.0", &opts)

	dir, err := os.Getwd()
	if err != nil {
		log.Fatalf("can't determine working directory: %s", err)
	}
	cfg, err := config.ReadConfigFiles(config.DefaultConfigFiles(dir))
	if err != nil {
		log.Fatalf("reading config: %s", err)
	}
	if opts.KeepGoing {
		cfg.Build.KeepGoing = true
	}
	if opts.DryRun {
		cfg.Build.DryRun = true
	}
	if opts.Verbosity != "notice" {
		cfg.Log.Level = opts.Verbosity
	}

	cli.InitLogging(cli.ParseVerbosity(cfg.Log.Level))
	if cfg.Log.File != "" {
		if err := cli.InitFileLogging(cfg.Log.File, cli.ParseVerbosity(cfg.Log.Level)); err != nil {
			log.Fatalf("opening log file %s: %s", cfg.Log.File, err)
		}
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Configuration) int {
	ctx := core.NewContext()
	p := parse.NewParser(ctx)

	makefilePath := opts.File
	if !filepath.IsAbs(makefilePath) {
		wd, _ := os.Getwd()
		makefilePath = filepath.Join(wd, makefilePath)
	}

	scope, err := p.ParseFile(makefilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yamake: %s\n", err)
		return 1
	}
	if err := core.CloseScope(ctx, scope); err != nil {
		fmt.Fprintf(os.Stderr, "yamake: %s\n", err)
		return 1
	}

	target, err := selectTarget(ctx, scope)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yamake: %s\n", err)
		return 1
	}
	if err := core.DetermineDependenciesForTarget(ctx, target); err != nil {
		fmt.Fprintf(os.Stderr, "yamake: %s\n", err)
		return 1
	}
	if ctx.ErrorTermination {
		return 1
	}

	runner.Shell = cfg.Build.Shell
	err = runner.Run(ctx, runner.Options{
		DryRun:    cfg.Build.DryRun,
		KeepGoing: cfg.Build.KeepGoing,
		Silent:    opts.Silent,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "yamake: %s\n", err)
		return 1
	}
	return 0
}

// selectTarget resolves the positional target argument against ctx, falling
// back to the engine's own default-target selection when none was given.
func selectTarget(ctx *core.Context, scope *core.Scope) (*core.Target, error) {
	if opts.Positional.Target == "" {
		return ctx.DefaultTarget()
	}
	return ctx.LookupOrCreateTarget(scope, opts.Positional.Target)
}
