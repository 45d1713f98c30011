// Package format names the renderings of a data tree the tools in this
// module can produce.
//
// # Usage
//
//	f, err := format.ParseFormat("yaml")
//	if err != nil {
//	    return err
//	}
//	err = encode.Encode(forest, os.Stdout, encode.EncodeFormat(f))
//
// # Related Packages
//
//   - github.com/signadot/lyb-format/go-lyb/encode - Render data trees
package format
