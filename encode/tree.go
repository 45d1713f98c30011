package encode

import (
	"io"

	"github.com/xlab/treeprint"

	"github.com/signadot/lyb-format/go-lyb/tree"
)

// encodeTree draws every top-level node of forest with its subtree.
func encodeTree(forest []*tree.Node, w io.Writer, es *EncState) error {
	for _, n := range forest {
		t := treeprint.NewWithRoot(label(n, es))
		addBranches(t, n, es, 0)
		if _, err := io.WriteString(w, t.String()); err != nil {
			return err
		}
	}
	return nil
}

func addBranches(t treeprint.Tree, n *tree.Node, es *EncState, depth int) {
	if es.pruned(depth) {
		if len(n.Children) > 0 {
			t.AddNode(es.color(n.Schema.Kind, SepColor, "..."))
		}
		return
	}
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			t.AddNode(label(c, es))
			continue
		}
		addBranches(t.AddBranch(label(c, es)), c, es, depth+1)
	}
}
