package encode

import (
	"bytes"
	"strings"

	"github.com/signadot/lyb-format/go-lyb/tree"
)

func MustString(forest []*tree.Node, opts ...EncodeOption) string {
	buf := bytes.NewBuffer(nil)
	if err := Encode(forest, buf, opts...); err != nil {
		panic(err)
	}
	return strings.TrimSpace(buf.String())
}
