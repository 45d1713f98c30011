package main

import (
	"github.com/scott-cotton/cli"

	"github.com/signadot/lyb-format/go-lyb/format"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, []*cli.Opt{
		&cli.Opt{
			Name:        "o",
			Description: "output file (default stdout)",
			Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
		},
		&cli.Opt{
			Name:        "O",
			Aliases:     []string{"ofmt"},
			Description: "output format: " + format.Usage(),
			Type:        cli.NamedFuncOpt(cfg.fmtFunc(&cfg.OutFormat), "(format)"),
		}}...)

	return cli.NewCommandAt(&cfg.Main, "lybdump").
		WithSynopsis("lybdump [opts] command [opts]").
		WithDescription("lybdump inspects LYB binary data trees.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return lybMain(cfg, cc, args)
		}).
		WithSubs(
			ViewCommand(cfg),
			ModulesCommand(cfg),
			DiffCommand(cfg),
			HashesCommand(cfg))
}

func ViewCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ViewConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("view").
		WithAliases("v").
		WithOpts(opts...).
		WithSynopsis("view [files]").
		WithDescription("parse LYB files, plain or .lz4/.sz compressed, and print their data trees").
		WithRun(func(cc *cli.Context, args []string) error {
			return view(cfg, cc, args)
		})
	cfg.View = cmd
	return cmd
}

func ModulesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ModulesConfig{MainConfig: mainCfg}
	cmd := cli.NewCommand("modules").
		WithAliases("m", "mod").
		WithSynopsis("modules [files]").
		WithDescription("list the module table of LYB files").
		WithRun(func(cc *cli.Context, args []string) error {
			return modules(cfg, cc, args)
		})
	cfg.Modules = cmd
	return cmd
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("diff").
		WithAliases("d").
		WithOpts(opts...).
		WithSynopsis("diff <file1> <file2>").
		WithDescription("compare the data trees of two LYB files").
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
	cfg.Diff = cmd
	return cmd
}

func HashesCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &HashesConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	cmd := cli.NewCommand("hashes").
		WithAliases("h").
		WithOpts(opts...).
		WithSynopsis("hashes [schema paths]").
		WithDescription("show the schema hash chains of sibling nodes").
		WithRun(func(cc *cli.Context, args []string) error {
			return hashes(cfg, cc, args)
		})
	cfg.Hashes = cmd
	return cmd
}
