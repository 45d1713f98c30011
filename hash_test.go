package lyb

import (
	"fmt"
	"testing"

	"github.com/signadot/lyb-format/go-lyb/schema"
)

func leaves(t *testing.T, mod string, count int) []*schema.Node {
	t.Helper()
	ctx := schema.NewContext()
	m, err := ctx.AddModule(mod, "")
	if err != nil {
		t.Fatal(err)
	}
	var res []*schema.Node
	for i := 0; i < count; i++ {
		l := schema.Leaf(fmt.Sprintf("n%d", i), schema.Simple(schema.BaseString))
		m.Add(l)
		res = append(res, l)
	}
	return res
}

// colliding returns at least min leaves sharing the same hash for
// collision ID 0.
func colliding(t *testing.T, min int) []*schema.Node {
	t.Helper()
	buckets := map[byte][]*schema.Node{}
	for _, l := range leaves(t, "col", 128*min) {
		h := nodeHash(l, 0)
		buckets[h] = append(buckets[h], l)
		if len(buckets[h]) == min {
			return buckets[h]
		}
	}
	t.Fatalf("no %d colliding leaves", min)
	return nil
}

func TestNodeHashShape(t *testing.T) {
	l := leaves(t, "ex", 1)[0]
	for c := 0; c < hashBits; c++ {
		h := nodeHash(l, c)
		if h>>(hashBits-1-c) != 1 {
			t.Errorf("hash %08b for collision id %d", h, c)
		}
		if chainColID(h) != c {
			t.Errorf("collision id of %08b is %d, want %d", h, chainColID(h), c)
		}
	}
	if chainColID(0) != -1 {
		t.Errorf("0 has no collision id")
	}
}

func TestSibTableNoCollision(t *testing.T) {
	// one leaf per base hash value
	seen := map[byte]bool{}
	var sibs []*schema.Node
	for _, l := range leaves(t, "ex", 400) {
		if h := nodeHash(l, 0); !seen[h] {
			seen[h] = true
			sibs = append(sibs, l)
		}
	}
	tbl, err := newSibTable(sibs)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sibs {
		if c := len(tbl.chain(s)); c != 1 {
			t.Errorf("%s has a chain of %d without collisions", s.Name, c)
		}
	}
}

func TestSibTableCollisions(t *testing.T) {
	sibs := colliding(t, 3)
	tbl, err := newSibTable(sibs)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.col[sibs[0]] != 0 {
		t.Errorf("first sibling must keep collision id 0")
	}
	for _, s := range sibs[1:] {
		if tbl.col[s] == 0 {
			t.Errorf("%s collides with %s and must get a higher collision id", s.Name, sibs[0].Name)
		}
	}
	for _, s := range sibs {
		chain := tbl.chain(s)
		if len(chain) != tbl.col[s]+1 {
			t.Errorf("chain %x of %s for collision id %d", chain, s.Name, tbl.col[s])
		}
		ms := tbl.lookup(chain)
		if len(ms) != 1 || ms[0] != s {
			t.Errorf("chain %x of %s resolves to %v", chain, s.Name, ms)
		}
	}
}

func TestSibTableChainGrowsAsNeeded(t *testing.T) {
	sibs := colliding(t, 8)
	// a pair colliding at 0 but not at 1 needs exactly one more hash
	var a, b *schema.Node
	for i := 0; i < len(sibs) && a == nil; i++ {
		for j := i + 1; j < len(sibs); j++ {
			if nodeHash(sibs[i], 1) != nodeHash(sibs[j], 1) {
				a, b = sibs[i], sibs[j]
				break
			}
		}
	}
	if a == nil {
		t.Fatal("no pair differing at collision id 1")
	}
	tbl, err := newSibTable([]*schema.Node{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.chain(a)) != 1 || len(tbl.chain(b)) != 2 {
		t.Errorf("chains %x %x", tbl.chain(a), tbl.chain(b))
	}
}

func TestSibTableLarge(t *testing.T) {
	sibs := leaves(t, "large-sibling-set", 1000)
	tbl, err := newSibTable(sibs)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sibs {
		ms := tbl.lookup(tbl.chain(s))
		if len(ms) != 1 || ms[0] != s {
			t.Fatalf("%s resolves to %v", s.Name, ms)
		}
	}
}

func TestNodeHashSeparatesCollisions(t *testing.T) {
	sibs := colliding(t, 8)
	for i, a := range sibs {
		for _, b := range sibs[i+1:] {
			separated := false
			for c := 1; c < hashBits && !separated; c++ {
				separated = nodeHash(a, c) != nodeHash(b, c)
			}
			if !separated {
				t.Errorf("%s and %s share every hash", a.Name, b.Name)
			}
		}
	}
}

func TestSibTableInterfaceNames(t *testing.T) {
	ctx := schema.NewContext()
	m, err := ctx.AddModule("ietf-interfaces", "2018-02-20")
	if err != nil {
		t.Fatal(err)
	}
	names := []string{
		"name", "description", "type", "enabled", "link-up-down-trap-enable",
		"admin-status", "oper-status", "last-change", "if-index", "phys-address",
		"higher-layer-if", "lower-layer-if", "speed", "discontinuity-time",
		"in-octets", "in-unicast-pkts", "in-broadcast-pkts", "in-multicast-pkts",
		"in-discards", "in-errors", "in-unknown-protos", "out-octets", "out-unicast-pkts",
	}
	var sibs []*schema.Node
	for _, name := range names {
		l := schema.Leaf(name, schema.Simple(schema.BaseString))
		m.Add(l)
		sibs = append(sibs, l)
	}
	tbl, err := newSibTable(sibs)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sibs {
		ms := tbl.lookup(tbl.chain(s))
		if len(ms) != 1 || ms[0] != s {
			t.Errorf("%s resolves to %v", s.Name, ms)
		}
	}
}
