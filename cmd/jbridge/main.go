package main

import (
	"context"

	"github.com/scott-cotton/cli"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

func MainCommand() *cli.Command {
	cfg := &Config{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Command, "jbridge").
		WithSynopsis("jbridge [opts] [unit files]").
		WithDescription("jbridge generates a Rust JNI bridge and the matching Java wrapper classes from class declarations.\n\nSettings come from jbridge.toml, found by walking up from the working directory. Unit files given as arguments replace the [input] globs.").
		WithOpts(sOpts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

type Config struct {
	Config    string `cli:"name=config desc='directory holding jbridge.toml (default: search upward from the working directory)'"`
	Verbose   bool   `cli:"name=v desc='log progress'"`
	Debug     bool   `cli:"name=debug desc='log every class and file'"`
	DryRun    bool   `cli:"name=n desc='build everything but only list the files that would be written'"`
	Symbols   bool   `cli:"name=symbols desc='print the exported bridge symbols instead of writing files'"`
	DumpModel string `cli:"name=dump-model desc='also write the normalized model as canonical CBOR to this file'"`
	Package   string `cli:"name=package desc='override [project] package'"`

	Command *cli.Command
}
