package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/signadot/lyb-format/go-lyb/encode"
	"github.com/signadot/lyb-format/go-lyb/tree"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	differs, err := diffFiles(cfg, cc.Out, args[0], args[1])
	if err != nil {
		return err
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func diffFiles(cfg *DiffConfig, w io.Writer, a, b string) (bool, error) {
	sctx, err := cfg.schemaContext()
	if err != nil {
		return false, err
	}
	parse, err := docParser(cfg.Type)
	if err != nil {
		return false, err
	}
	var texts [2]string
	for i, file := range []string{a, b} {
		docs, _, err := readDocs(sctx, file, parse, cfg.parseOpts())
		if err != nil {
			return false, err
		}
		// metadata and default flags take part in the comparison
		var forest []*tree.Node
		for _, d := range docs {
			forest = append(forest, d...)
		}
		texts[i] = encode.MustString(forest) + "\n"
	}
	return writeLineDiff(w, texts[0], texts[1], cfg.Color)
}

// writeLineDiff prints the lines of from and to prefixed by "-", "+" or a
// space and reports whether they differ.
func writeLineDiff(w io.Writer, from, to string, colored bool) (bool, error) {
	dmp := diffpatch.New()
	fc, tc, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(fc, tc, false), lines)
	del, ins := fmt.Sprint, fmt.Sprint
	if colored {
		del, ins = color.New(color.FgRed).Sprint, color.New(color.FgGreen).Sprint
	}
	differs := false
	for _, d := range diffs {
		prefix, paint := " ", fmt.Sprint
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix, paint, differs = "-", del, true
		case diffpatch.DiffInsert:
			prefix, paint, differs = "+", ins, true
		}
		for _, ln := range strings.SplitAfter(d.Text, "\n") {
			if ln == "" {
				continue
			}
			if _, err := io.WriteString(w, paint(prefix+ln)); err != nil {
				return false, err
			}
		}
	}
	return differs, nil
}
