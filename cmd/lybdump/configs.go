package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/signadot/lyb-format/go-lyb"
	"github.com/signadot/lyb-format/go-lyb/diag"
	"github.com/signadot/lyb-format/go-lyb/encode"
	"github.com/signadot/lyb-format/go-lyb/format"
	"github.com/signadot/lyb-format/go-lyb/schema"

	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Schema string `cli:"name=schema aliases=s desc='comma separated YAML schema module files, in load order'"`
	Color  bool   `cli:"name=color desc='encode with color'"`
	Gops   bool   `cli:"name=gops desc='start a gops diagnostics agent'"`

	OutFormat *format.Format

	Out      string
	CloseOut func() error

	Main *cli.Command

	sctx *schema.Context
}

func (cfg *MainConfig) fmtFunc(fps ...**format.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, err := format.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		for _, fp := range fps {
			*fp = &f
		}
		return f, nil
	})
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// schemaContext loads the -schema files once.
func (cfg *MainConfig) schemaContext() (*schema.Context, error) {
	if cfg.sctx != nil {
		return cfg.sctx, nil
	}
	if cfg.Schema == "" {
		return nil, fmt.Errorf("%w: -schema is required", cli.ErrUsage)
	}
	sctx := schema.NewContext()
	for _, p := range strings.Split(cfg.Schema, ",") {
		if _, err := schema.LoadYAMLFile(sctx, strings.TrimSpace(p)); err != nil {
			return nil, err
		}
	}
	cfg.sctx = sctx
	return sctx, nil
}

func (cfg *MainConfig) encOpts(w io.Writer) []encode.EncodeOption {
	var fmt format.Format
	if cfg.OutFormat != nil {
		fmt = *cfg.OutFormat
	}
	res := []encode.EncodeOption{
		encode.EncodeFormat(fmt),
	}
	if cfg.Color {
		res = append(res, encode.EncodeColors(encode.NewColors()))
		return res
	}
	colorsSet := false
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		colorsSet = opt.Value != nil
		break
	}
	if colorsSet {
		return res
	}
	f, ok := w.(*os.File)
	if !ok {
		return res
	}
	if isatty.IsTerminal(f.Fd()) {
		res = append(res, encode.EncodeColors(encode.NewColors()))
		return res
	}
	return res
}

func parseOpts(parseOnly, noState bool) []lyb.ParseOption {
	res := []lyb.ParseOption{lyb.WithParseLogger(diag.NewText(os.Stderr))}
	if parseOnly {
		res = append(res, lyb.ParseOnly())
	}
	if noState {
		res = append(res, lyb.NoState())
	}
	return res
}

type ViewConfig struct {
	*MainConfig
	Type      string `cli:"name=type aliases=t desc='document type: data, rpc, reply or notif'"`
	ParseOnly bool   `cli:"name=parse-only desc='do not resolve values or check when conditions'"`
	NoState   bool   `cli:"name=no-state desc='reject state data'"`
	Depth     int    `cli:"name=depth desc='maximum depth of text and tree output'"`
	NoMeta    bool   `cli:"name=no-meta desc='omit metadata'"`
	Stats     bool   `cli:"name=stats desc='report document count and size per file'"`

	View *cli.Command
}

func (cfg *ViewConfig) encOpts(w io.Writer) []encode.EncodeOption {
	return append(cfg.MainConfig.encOpts(w),
		encode.Depth(cfg.Depth),
		encode.EncodeMeta(!cfg.NoMeta))
}

type ModulesConfig struct {
	*MainConfig

	Modules *cli.Command
}

func (cfg *ViewConfig) parseOpts() []lyb.ParseOption {
	return parseOpts(cfg.ParseOnly, cfg.NoState)
}

type DiffConfig struct {
	*MainConfig
	Type      string `cli:"name=type aliases=t desc='document type: data, rpc, reply or notif'"`
	ParseOnly bool   `cli:"name=parse-only desc='do not resolve values or check when conditions'"`
	NoState   bool   `cli:"name=no-state desc='reject state data'"`

	Diff *cli.Command
}

func (cfg *DiffConfig) parseOpts() []lyb.ParseOption {
	return parseOpts(cfg.ParseOnly, cfg.NoState)
}

type HashesConfig struct {
	*MainConfig
	Output bool `cli:"name=output desc='show rpc and action output parameters'"`

	Hashes *cli.Command
}
