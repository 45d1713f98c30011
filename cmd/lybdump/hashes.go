package main

import (
	"fmt"
	"io"

	"github.com/signadot/lyb-format/go-lyb"
	"github.com/signadot/lyb-format/go-lyb/schema"

	"github.com/scott-cotton/cli"
)

func hashes(cfg *HashesConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Hashes.Parse(cc, args)
	if err != nil {
		return err
	}
	return hashesFor(cfg, cc.Out, args)
}

// hashesFor prints the chains of the children of every schema path, or of
// the top-level nodes of every module without paths.
func hashesFor(cfg *HashesConfig, w io.Writer, paths []string) error {
	sctx, err := cfg.schemaContext()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		for _, m := range sctx.Modules() {
			hs, err := lyb.HashChains(sctx, nil, m, false)
			if err != nil {
				return err
			}
			if err := writeHashes(w, "/"+m.Name+":", hs); err != nil {
				return err
			}
		}
		return nil
	}
	for _, p := range paths {
		n, err := sctx.FindNode(p)
		if err != nil {
			return err
		}
		hs, err := lyb.HashChains(sctx, n, nil, cfg.Output)
		if err != nil {
			return err
		}
		if err := writeHashes(w, n.Path(), hs); err != nil {
			return err
		}
	}
	return nil
}

func writeHashes(w io.Writer, where string, hs []lyb.NodeHash) error {
	if _, err := fmt.Fprintf(w, "%s\n", where); err != nil {
		return err
	}
	for _, h := range hs {
		if _, err := fmt.Fprintf(w, "  %-24s %s %x\n", qualified(h.Node), h.Node.Kind, h.Chain); err != nil {
			return err
		}
	}
	return nil
}

func qualified(n *schema.Node) string {
	return n.Module.Name + ":" + n.Name
}
