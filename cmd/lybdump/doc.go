package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/signadot/lyb-format/go-lyb"
	"github.com/signadot/lyb-format/go-lyb/input"
	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
	"github.com/scott-cotton/cli"
)

type parseFunc func(*schema.Context, *input.In, ...lyb.ParseOption) ([]*tree.Node, error)

func opParser(f func(*schema.Context, *input.In, ...lyb.ParseOption) ([]*tree.Node, *tree.Node, error)) parseFunc {
	return func(sctx *schema.Context, in *input.In, opts ...lyb.ParseOption) ([]*tree.Node, error) {
		forest, _, err := f(sctx, in, opts...)
		return forest, err
	}
}

func docParser(typ string) (parseFunc, error) {
	switch typ {
	case "", "data":
		return lyb.ParseData, nil
	case "rpc":
		return opParser(lyb.ParseRPC), nil
	case "reply":
		return opParser(lyb.ParseReply), nil
	case "notif", "notification":
		return opParser(lyb.ParseNotification), nil
	}
	return nil, fmt.Errorf("%w: unknown document type %q", cli.ErrUsage, typ)
}

// openInput opens file, "-" being stdin. Files ending in .lz4 or .sz are
// decompressed into memory first.
func openInput(file string) (*input.In, error) {
	if file == "-" {
		return input.NewFile(os.Stdin)
	}
	var unzip func(io.Reader) io.Reader
	switch filepath.Ext(file) {
	case ".lz4":
		unzip = func(r io.Reader) io.Reader { return lz4.NewReader(r) }
	case ".sz":
		unzip = func(r io.Reader) io.Reader { return snappy.NewReader(r) }
	default:
		in, err := input.NewFilePath(file)
		if err != nil {
			return nil, fmt.Errorf("could not open %q: %w", file, err)
		}
		return in, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", file, err)
	}
	defer f.Close()
	d, err := io.ReadAll(unzip(f))
	if err != nil {
		return nil, fmt.Errorf("could not decompress %q: %w", file, err)
	}
	return input.NewMemory(d)
}

// readDocs parses every document of file and returns them with the number
// of bytes they took. Streams hold a single document.
func readDocs(sctx *schema.Context, file string, parse parseFunc, opts []lyb.ParseOption) ([][]*tree.Node, int, error) {
	in, err := openInput(file)
	if err != nil {
		return nil, 0, err
	}
	defer in.Free(false)
	var (
		docs [][]*tree.Node
		size int
	)
	for {
		forest, err := parse(sctx, in, opts...)
		if err != nil {
			return nil, 0, fmt.Errorf("error decoding document %d of %s: %w", len(docs), file, err)
		}
		docs = append(docs, forest)
		size += in.Parsed()
		if in.Remaining() <= 0 {
			return docs, size, nil
		}
	}
}
