package encode

import "github.com/signadot/lyb-format/go-lyb/format"

type EncodeOption func(*EncState)

func EncodeFormat(f format.Format) EncodeOption {
	return func(es *EncState) { es.format = f }
}

// FormatFromOpts extracts the format from encode options.
func FormatFromOpts(opts ...EncodeOption) format.Format {
	es := &EncState{}
	for _, opt := range opts {
		opt(es)
	}
	return es.format
}

// Depth limits text output to n levels; 0 prints everything.
func Depth(n int) EncodeOption {
	return func(es *EncState) { es.depth = n }
}
func Indent(n int) EncodeOption {
	return func(es *EncState) { es.indent = n }
}
func EncodeMeta(v bool) EncodeOption {
	return func(es *EncState) { es.meta = v }
}
func EncodeColors(c *Colors) EncodeOption {
	return func(es *EncState) { es.Color = c.Color }
}
