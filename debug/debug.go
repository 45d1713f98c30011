// Package debug exposes environment driven debug switches for the LYB codec.
//
//	LYB_DEBUG_FRAME  chunk headers opened, continued and closed
//	LYB_DEBUG_HASH   sibling hash tables and hash chains
//	LYB_DEBUG_UNRES  deferred value and when resolution
package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Frame bool
	Hash  bool
	Unres bool
}

var d *debug

func init() {
	d = &debug{}
	Reload()
}

// Reload rereads the environment.
func Reload() {
	d.Frame = boolEnv("LYB_DEBUG_FRAME")
	d.Hash = boolEnv("LYB_DEBUG_HASH")
	d.Unres = boolEnv("LYB_DEBUG_UNRES")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Frame() bool {
	return d.Frame
}
func Hash() bool {
	return d.Hash
}
func Unres() bool {
	return d.Unres
}

// Logf writes a debug line to stderr. Maps and slices are rendered as JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch a.(type) {
		case map[string]any, []any, []string, map[string]string:
			d, err := json.Marshal(a)
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		default:
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
