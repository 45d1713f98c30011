// Package lyb implements LYB, a compact binary encoding of schema-typed data
// trees.
//
// An LYB document is
//
//	"lyb" version module-table root-chunk
//
// The module table lists every module whose nodes or metadata appear in the
// document, so the reader and writer identify schema nodes against the same
// candidate set. Data nodes are identified by short collision-aware hashes
// of their schema node within its sibling set, and every subtree is a chunk:
// a 2-byte header holding the number of chunks nested in it and the length
// of its content, followed by the content. Chunks longer than a single
// length byte can describe are chained, see frame.go.
//
// Values that need the complete tree to be validated (identityref, leafref,
// instance-identifier) and when conditions are checked once parsing is done.
package lyb

import (
	"github.com/signadot/lyb-format/go-lyb/diag"
	"github.com/signadot/lyb-format/go-lyb/when"
)

const (
	magic = "lyb"

	// versionNum is the format revision in the high nibble of the header
	// byte; the low nibble is reserved.
	versionNum  = 0x10
	versionMask = 0xf0

	hashBits        = 8
	hashMask        = 0x7f
	hashCollisionID = 0x80

	// sizeMax is the largest chunk segment length.
	sizeMax = 255
	// metaBytes is the size of a chunk header.
	metaBytes = 2
	// contLen is the smallest segment length that is followed by a
	// continuation header.
	contLen = sizeMax - 1

	// nodeFlagDefault is bit 0 of the node flags byte.
	nodeFlagDefault = 0x01
)

// ParseConfig holds parser options.
type ParseConfig struct {
	ParseOnly bool
	NoState   bool
	When      when.Evaluator
	Log       *diag.Sink
}

type ParseOption func(*ParseConfig)

// ParseOnly skips the post-parse resolution of incomplete values and when
// conditions.
func ParseOnly() ParseOption {
	return func(c *ParseConfig) { c.ParseOnly = true }
}

// NoState rejects state (config false) data nodes.
func NoState() ParseOption {
	return func(c *ParseConfig) { c.NoState = true }
}

// WithWhenEvaluator sets the evaluator of when conditions. The default is
// when.ExprEvaluator.
func WithWhenEvaluator(e when.Evaluator) ParseOption {
	return func(c *ParseConfig) { c.When = e }
}

// WithParseLogger sets the sink parse errors are reported to.
func WithParseLogger(s *diag.Sink) ParseOption {
	return func(c *ParseConfig) { c.Log = s }
}

func parseConfig(opts []ParseOption) *ParseConfig {
	c := &ParseConfig{}
	for _, o := range opts {
		o(c)
	}
	if c.When == nil {
		c.When = when.NewExprEvaluator()
	}
	if c.Log == nil {
		c.Log = diag.Default()
	}
	return c
}

// Defaults selects which default nodes are printed.
type Defaults int

const (
	// DefaultsAll prints every node of the tree.
	DefaultsAll Defaults = iota
	// DefaultsTrim omits nodes flagged as defaults.
	DefaultsTrim
)

// PrintConfig holds printer options.
type PrintConfig struct {
	Defaults Defaults
	Log      *diag.Sink
}

type PrintOption func(*PrintConfig)

func WithDefaults(d Defaults) PrintOption {
	return func(c *PrintConfig) { c.Defaults = d }
}

// WithPrintLogger sets the sink print errors are reported to.
func WithPrintLogger(s *diag.Sink) PrintOption {
	return func(c *PrintConfig) { c.Log = s }
}

func printConfig(opts []PrintOption) *PrintConfig {
	c := &PrintConfig{}
	for _, o := range opts {
		o(c)
	}
	if c.Log == nil {
		c.Log = diag.Default()
	}
	return c
}
