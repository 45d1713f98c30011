package lyb

import (
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/signadot/lyb-format/go-lyb/debug"
	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/schema"
)

// nodeHash returns the hash of n for collision ID colID. The position of
// the highest set bit encodes colID, the bits below it the hash.
//
// The low byte of an FNV-1a state only depends on the low byte before each
// step, so names agreeing there stay equal under any common suffix. mix
// folds the whole state into the byte that is kept.
func nodeHash(n *schema.Node, colID int) byte {
	h := fnv1a.Init32
	h = fnv1a.AddString32(h, n.Module.Name)
	h = fnv1a.AddString32(h, n.Name)
	if colID > 0 {
		l := colID
		if l > len(n.Module.Name) {
			l = len(n.Module.Name)
		}
		h = fnv1a.AddString32(h, n.Module.Name[:l])
	}
	return byte(mix(h))&(hashMask>>colID) | (hashCollisionID >> colID)
}

// mix is the murmur3 32-bit finalizer.
func mix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// chainColID returns the collision ID encoded in the first byte of a hash
// chain, or -1 for 0.
func chainColID(b byte) int {
	for c := 0; c < hashBits; c++ {
		if b&(hashCollisionID>>c) != 0 {
			return c
		}
	}
	return -1
}

// sibTable assigns every node of a sibling set the collision ID its hash
// chain is printed with.
type sibTable struct {
	nodes []*schema.Node
	col   map[*schema.Node]int
	// byHash holds the nodes inserted under each hash value. Hash values
	// of different collision IDs never coincide.
	byHash map[byte][]*schema.Node
}

func newSibTable(siblings []*schema.Node) (*sibTable, error) {
	t := &sibTable{
		nodes:  siblings,
		col:    make(map[*schema.Node]int, len(siblings)),
		byHash: make(map[byte][]*schema.Node, len(siblings)),
	}
	for _, n := range siblings {
		if err := t.insert(n); err != nil {
			return nil, err
		}
	}
	if debug.Hash() {
		for _, n := range siblings {
			debug.Logf("lyb hash %s col %d chain %x\n", n.Path(), t.col[n], t.chain(n))
		}
	}
	return t, nil
}

func (t *sibTable) insert(n *schema.Node) error {
	for i := 0; i < hashBits; i++ {
		// no node inserted with a lower collision ID may share our
		// whole sequence up to i
		j := i - 1
		for ; j >= 0; j-- {
			if t.collides(n, j, i) {
				break
			}
		}
		if j >= 0 {
			continue
		}
		h := nodeHash(n, i)
		if len(t.byHash[h]) == 0 || (i > 0 && !t.collides(n, i, i)) {
			t.byHash[h] = append(t.byHash[h], n)
			t.col[n] = i
			return nil
		}
	}
	return lyerr.New(lyerr.ErrInternal, "no collision-free hash for schema node %s", n.Path())
}

// collides reports whether a node inserted with collision ID htCol under
// the same htCol hash as n has the same hashes as n for every collision ID
// from cmpCol down to 0.
func (t *sibTable) collides(n *schema.Node, htCol, cmpCol int) bool {
	for _, other := range t.byHash[nodeHash(n, htCol)] {
		k := cmpCol
		for ; k >= 0; k-- {
			if nodeHash(n, k) != nodeHash(other, k) {
				break
			}
		}
		if k < 0 {
			return true
		}
	}
	return false
}

// chain returns the printed hash sequence of n: its hash at its collision
// ID followed by the hashes for every lower collision ID.
func (t *sibTable) chain(n *schema.Node) []byte {
	c, ok := t.col[n]
	if !ok {
		return nil
	}
	res := make([]byte, 0, c+1)
	for i := c; i >= 0; i-- {
		res = append(res, nodeHash(n, i))
	}
	return res
}

// lookup returns the nodes printed with chain. A table built by
// newSibTable never yields more than one.
func (t *sibTable) lookup(chain []byte) []*schema.Node {
	c := len(chain) - 1
	var res []*schema.Node
	for _, n := range t.byHash[chain[0]] {
		if t.col[n] != c {
			continue
		}
		match := true
		for i, h := range chain {
			if nodeHash(n, c-i) != h {
				match = false
				break
			}
		}
		if match {
			res = append(res, n)
		}
	}
	return res
}
