package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/chazu/jbridge/assets"
	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/generate"
	"github.com/chazu/jbridge/manifest"
	"github.com/chazu/jbridge/model"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/tliron/commonlog"
)

func run(cfg *Config, cc *cli.Context, args []string) error {
	args, err := cfg.Command.Parse(cc, args)
	if err != nil {
		return err
	}
	verbosity := 0
	switch {
	case cfg.Debug:
		verbosity = 2
	case cfg.Verbose:
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	if !isatty.IsTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = execute(ctx, cfg, args, cc.Out)
	if err != nil && !errors.Is(err, cli.ErrUsage) {
		report(os.Stderr, err)
	}
	return err
}

func loadManifest(cfg *Config) (*manifest.Manifest, error) {
	if cfg.Config != "" {
		return manifest.Load(cfg.Config)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil || m != nil {
		return m, err
	}
	return manifest.Default(".")
}

func execute(ctx context.Context, cfg *Config, args []string, out io.Writer) error {
	if cfg.DryRun && cfg.Symbols {
		return fmt.Errorf("%w: -n and -symbols are exclusive", cli.ErrUsage)
	}
	m, err := loadManifest(cfg)
	if err != nil {
		return err
	}
	if cfg.Package != "" {
		m.Project.Package = cfg.Package
	}
	files := make([]string, len(args))
	for i, a := range args {
		if files[i], err = filepath.Abs(a); err != nil {
			return err
		}
	}
	gcfg := generate.Config{Manifest: m, Files: files, DumpModel: cfg.DumpModel}

	if !cfg.DryRun && !cfg.Symbols {
		res, err := generate.Run(ctx, gcfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %d files for %d classes (model %s)\n",
			color.GreenString("generated"), len(res.Artifacts), len(res.Unit.Classes), res.Fingerprint)
		return nil
	}

	res, err := generate.Build(ctx, gcfg)
	if err != nil {
		return err
	}
	if cfg.Symbols {
		for _, c := range res.Unit.Classes {
			for _, sym := range bridge.Symbols(res.Unit, c) {
				fmt.Fprintln(out, sym)
			}
		}
		if !m.Output.NoSupport {
			for _, sym := range assets.Symbols(res.Unit.Package) {
				fmt.Fprintln(out, sym)
			}
		}
		return nil
	}
	for _, a := range res.Artifacts {
		rel, err := filepath.Rel(m.Dir, a.Path)
		if err != nil {
			rel = a.Path
		}
		fmt.Fprintf(out, "%s (%d bytes)\n", rel, len(a.Data))
	}
	return nil
}

// report prints err, highlighting the class and member of a model error.
func report(w io.Writer, err error) {
	var me *model.Error
	if errors.As(err, &me) {
		where := me.Class
		if me.Member != "" {
			where += "." + me.Member
		}
		fmt.Fprintf(w, "%s %s: %s\n", color.RedString("error:"), color.New(color.Bold).Sprint(where), me.Err)
		if me.Detail != "" {
			fmt.Fprintf(w, "  %s\n", me.Detail)
		}
		return
	}
	fmt.Fprintf(w, "%s %v\n", color.RedString("error:"), err)
}
