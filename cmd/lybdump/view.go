package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/scott-cotton/cli"
	"golang.org/x/sync/errgroup"

	"github.com/signadot/lyb-format/go-lyb/encode"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

func view(cfg *ViewConfig, cc *cli.Context, args []string) error {
	args, err := cfg.View.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	return viewFiles(cfg, cc.Out, args)
}

type fileDocs struct {
	docs [][]*tree.Node
	size int
}

// viewFiles decodes files concurrently and encodes them in order.
func viewFiles(cfg *ViewConfig, w io.Writer, files []string) error {
	sctx, err := cfg.schemaContext()
	if err != nil {
		return err
	}
	parse, err := docParser(cfg.Type)
	if err != nil {
		return err
	}
	res := make([]fileDocs, len(files))
	g := &errgroup.Group{}
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			docs, size, err := readDocs(sctx, file, parse, cfg.parseOpts())
			res[i] = fileDocs{docs: docs, size: size}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, file := range files {
		if err := writeDocs(cfg, w, file, res[i]); err != nil {
			return err
		}
		if i < len(files)-1 {
			if _, err := w.Write([]byte("\n---\n")); err != nil {
				return err
			}
		}
	}
	return nil
}

func viewFile(cfg *ViewConfig, w io.Writer, file string) error {
	return viewFiles(cfg, w, []string{file})
}

func writeDocs(cfg *ViewConfig, w io.Writer, file string, fd fileDocs) error {
	opts := cfg.encOpts(w)
	for i, doc := range fd.docs {
		if err := encode.Encode(doc, w, opts...); err != nil {
			return fmt.Errorf("error encoding result %d: %w", i, err)
		}
		if i < len(fd.docs)-1 {
			if _, err := w.Write([]byte("\n---\n")); err != nil {
				return fmt.Errorf("error writing document %d: %w", i, err)
			}
		}
	}
	if !cfg.Stats {
		return nil
	}
	_, err := fmt.Fprintf(w, "# %s: %d documents, %s\n", file, len(fd.docs), humanize.IBytes(uint64(fd.size)))
	return err
}
