package main

import (
	"fmt"
	"io"

	"github.com/signadot/lyb-format/go-lyb"

	"github.com/scott-cotton/cli"
)

func modules(cfg *ModulesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Modules.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, file := range args {
		if err := modulesFile(cfg.MainConfig, cc.Out, file); err != nil {
			return err
		}
	}
	return nil
}

func modulesFile(cfg *MainConfig, w io.Writer, file string) error {
	sctx, err := cfg.schemaContext()
	if err != nil {
		return err
	}
	in, err := openInput(file)
	if err != nil {
		return err
	}
	defer in.Free(false)
	mods, err := lyb.ModuleTable(sctx, in)
	if err != nil {
		return fmt.Errorf("error reading module table of %s: %w", file, err)
	}
	for i, m := range mods {
		rev := m.Revision
		if rev == "" {
			rev = "-"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", i, m.Name, rev); err != nil {
			return err
		}
	}
	return nil
}
