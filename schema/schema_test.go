package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func names(ns []*Node) []string {
	res := make([]string, len(ns))
	for i, n := range ns {
		res[i] = n.Name
	}
	return res
}

func TestDataChildrenFlattensChoice(t *testing.T) {
	ctx := NewContext()
	m, err := ctx.AddModule("ex", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	top := Container("top",
		Leaf("a", Simple(BaseString)),
		Choice("ch",
			Case("one", Leaf("b", Simple(BaseInt8))),
			Case("two", Leaf("c", Simple(BaseBool)), Leaf("d", Simple(BaseEmpty))),
		),
		Leaf("e", Simple(BaseString)),
	)
	m.Add(top)
	got := names(DataChildren(top, nil, false))
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, got); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
	d := top.Child("d", m, false)
	if d == nil {
		t.Fatal("no d")
	}
	if d.DataParent() != top {
		t.Errorf("data parent of d is %v", d.DataParent())
	}
	if p := d.Path(); p != "/ex:top/d" {
		t.Errorf("path %q", p)
	}
}

func TestOperationChildren(t *testing.T) {
	ctx := NewContext()
	m, _ := ctx.AddModule("ex", "")
	rpc := RPC("reboot",
		[]*Node{Leaf("delay", Simple(BaseUint32))},
		[]*Node{Leaf("status", Simple(BaseString))},
	)
	m.Add(rpc)
	if got := names(DataChildren(rpc, nil, false)); !cmp.Equal(got, []string{"delay"}) {
		t.Errorf("input %v", got)
	}
	if got := names(DataChildren(rpc, nil, true)); !cmp.Equal(got, []string{"status"}) {
		t.Errorf("output %v", got)
	}
	status := rpc.Child("status", nil, true)
	if status.DataParent() != rpc {
		t.Errorf("output leaf must have the rpc as data parent")
	}
	if status.Path() != "/ex:reboot/status" {
		t.Errorf("path %q", status.Path())
	}
}

func TestIsState(t *testing.T) {
	ctx := NewContext()
	m, _ := ctx.AddModule("ex", "")
	leaf := Leaf("counter", Simple(BaseUint64))
	stats := Container("stats", leaf).State()
	notifLeaf := Leaf("x", Simple(BaseString))
	m.Add(Container("top", stats), Notification("ev", notifLeaf))
	if !leaf.IsState() {
		t.Errorf("leaf under config false container must be state")
	}
	if notifLeaf.IsState() {
		t.Errorf("notification content is not state")
	}
}

func TestConditions(t *testing.T) {
	leaf := Leaf("b", Simple(BaseString)).WithWhen("a == 'x'")
	cs := Case("one", leaf).WithWhen("enabled")
	Container("top", Choice("ch", cs))
	if diff := cmp.Diff([]string{"a == 'x'", "enabled"}, leaf.Conditions()); diff != "" {
		t.Errorf("conditions (-want +got):\n%s", diff)
	}
}

func TestAugmentPath(t *testing.T) {
	ctx := NewContext()
	base, _ := ctx.AddModule("base", "")
	ext, _ := ctx.AddModule("ext", "")
	top := Container("top")
	base.Add(top)
	x := Leaf("x", Simple(BaseString))
	if err := ext.Augment(top, x); err != nil {
		t.Fatal(err)
	}
	if x.Module != ext {
		t.Errorf("augmenting node must belong to the augmenting module")
	}
	if x.Path() != "/base:top/ext:x" {
		t.Errorf("path %q", x.Path())
	}
	if top.Child("x", base, false) != nil {
		t.Errorf("x must not be found in module base")
	}
	if err := ext.Augment(x, Leaf("y", Simple(BaseString))); err == nil {
		t.Errorf("augmenting a leaf must fail")
	}
}

func TestTypeCheck(t *testing.T) {
	cases := []struct {
		t   *Type
		v   string
		bad bool
	}{
		{Simple(BaseInt8), "127", false},
		{Simple(BaseInt8), "128", true},
		{Simple(BaseUint16), "-1", true},
		{Simple(BaseBool), "true", false},
		{Simple(BaseBool), "yes", true},
		{Simple(BaseEmpty), "", false},
		{Enum("up", "down"), "down", false},
		{Enum("up", "down"), "left", true},
		{Bits("a", "b"), "a b", false},
		{Bits("a", "b"), "a c", true},
		{Decimal64(2), "-3.14", false},
		{Decimal64(2), "3.141", true},
		{Simple(BaseBinary), "aGVsbG8=", false},
		{Simple(BaseBinary), "!!", true},
		{Union(Simple(BaseInt8), Enum("auto")), "auto", false},
		{Union(Simple(BaseInt8), Enum("auto")), "manual", true},
		{InstanceID(), "relative", true},
	}
	for _, c := range cases {
		err := c.t.Check(c.v)
		if (err != nil) != c.bad {
			t.Errorf("%s %q: got err %v", c.t, c.v, err)
		}
	}
	if !Union(Simple(BaseString), IdentityRef()).NeedsTree() {
		t.Errorf("union with identityref member needs the tree")
	}
	if Simple(BaseString).NeedsTree() {
		t.Errorf("string does not need the tree")
	}
}

const baseYAML = `
module: base
revision: 2024-01-01
prefix: b
identities:
  - name: iface-type
  - name: eth
    bases: [iface-type]
annotations:
  - name: origin
    type: string
nodes:
  - kind: container
    name: top
    children:
      - kind: list
        name: iface
        keys: [name]
        children:
          - kind: leaf
            name: name
            type: string
          - kind: leaf
            name: type
            type: {base: identityref, bases: [iface-type]}
      - kind: container
        name: stats
        config: false
        children:
          - kind: leaf
            name: up
            type: {base: union, members: [uint8, {base: enumeration, enums: [unknown]}]}
`

const extYAML = `
module: ext
augments:
  - target: /base:top
    nodes:
      - kind: leaf
        name: mtu
        type: uint16
        when: "type == 'base:eth'"
`

func TestLoadYAML(t *testing.T) {
	ctx := NewContext()
	base, err := LoadYAML(ctx, []byte(baseYAML))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := LoadYAML(ctx, []byte(extYAML)); err != nil {
		t.Fatal(err)
	}
	if base.Prefix != "b" || base.Revision != "2024-01-01" {
		t.Errorf("module header %+v", base)
	}
	eth := ctx.FindIdentity("b:eth", nil)
	if eth == nil || !eth.DerivedFrom(base.Identity("iface-type")) {
		t.Fatalf("eth identity %v", eth)
	}
	if base.Annotation("origin") == nil {
		t.Errorf("origin annotation missing")
	}
	iface, err := ctx.FindNode("/base:top/iface")
	if err != nil {
		t.Fatal(err)
	}
	if iface.Kind != KindList || iface.Child("name", nil, false).Flags&FlagKey == 0 {
		t.Errorf("iface list keys %v", iface.Keys)
	}
	up, err := ctx.FindNode("/base:top/stats/up")
	if err != nil {
		t.Fatal(err)
	}
	if !up.IsState() || up.Type.Base != BaseUnion || len(up.Type.Members) != 2 {
		t.Errorf("up leaf %+v", up)
	}
	mtu, err := ctx.FindNode("/base:top/ext:mtu")
	if err != nil {
		t.Fatal(err)
	}
	if mtu.Module.Name != "ext" || mtu.When == "" {
		t.Errorf("mtu %+v", mtu)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	ctx := NewContext()
	for _, doc := range []string{
		"revision: x\n",
		"module: a\nnodes:\n  - kind: bogus\n    name: x\n",
		"module: b\nnodes:\n  - kind: leaf\n    name: x\n",
		"module: c\nidentities:\n  - name: x\n    bases: [nope]\n",
		"module: d\naugments:\n  - target: /none:top\n",
	} {
		if _, err := LoadYAML(ctx, []byte(doc)); err == nil {
			t.Errorf("expected error loading %q", doc)
		}
	}
}

func TestLoadYAMLFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/schema/base.yaml", []byte(baseYAML), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := NewContext()
	m, err := LoadYAMLFS(ctx, fs, "/schema/base.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Module(m.Name, "2024-01-01") != m {
		t.Errorf("%s not registered", m.Name)
	}
	if _, err := LoadYAMLFS(ctx, fs, "/schema/missing.yaml"); err == nil {
		t.Errorf("missing descriptor loaded")
	}
}
