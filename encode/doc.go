// Package encode renders data trees for humans and for other tools.
//
// # Usage
//
//	// indented text, one node per line
//	err := encode.Encode(forest, os.Stdout)
//
//	// colored text
//	err := encode.Encode(forest, os.Stdout, encode.EncodeColors(encode.NewColors()))
//
//	// JSON shaped after RFC 7951 member naming
//	err := encode.Encode(forest, os.Stdout, encode.EncodeFormat(format.JSONFormat))
//
// # Related Packages
//
//   - github.com/signadot/lyb-format/go-lyb/format - Output format names
//   - github.com/signadot/lyb-format/go-lyb/tree - Data tree model
package encode
