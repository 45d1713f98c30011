package encode

import (
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

// Value returns forest as an ordered mapping named the way RFC 7951 names
// JSON members: module-qualified where the module changes, lists and
// leaf-lists as sequences, metadata under "@" for inner nodes and under
// "@name" beside terms. Only EncodeMeta applies.
func Value(forest []*tree.Node, opts ...EncodeOption) yaml.MapSlice {
	es := &EncState{meta: true}
	for _, opt := range opts {
		opt(es)
	}
	return members(forest, es.meta)
}

func members(ns []*tree.Node, meta bool) yaml.MapSlice {
	res := yaml.MapSlice{}
	index := map[string]int{}
	// sibling "@name" members of terms with metadata
	metaIndex := map[string]int{}
	for _, n := range ns {
		key := memberName(n)
		v := value(n, meta)
		multi := n.Schema.Kind == schema.KindList || n.Schema.Kind == schema.KindLeafList
		pos := 0
		if !multi {
			res = append(res, yaml.MapItem{Key: key, Value: v})
		} else if i, ok := index[key]; ok {
			l := res[i].Value.([]any)
			pos = len(l)
			res[i].Value = append(l, v)
		} else {
			index[key] = len(res)
			res = append(res, yaml.MapItem{Key: key, Value: []any{v}})
		}
		if !meta || n.Schema.Kind == schema.KindContainer || n.Schema.Kind == schema.KindList || n.Schema.IsOperation() {
			continue
		}
		if len(n.Meta) == 0 && !multi {
			continue
		}
		mkey := "@" + key
		if !multi {
			res = append(res, yaml.MapItem{Key: mkey, Value: metaValue(n)})
			continue
		}
		// leaf-list metadata is a sequence aligned with the entries
		i, ok := metaIndex[mkey]
		if !ok {
			if len(n.Meta) == 0 {
				continue
			}
			i = len(res)
			metaIndex[mkey] = i
			res = append(res, yaml.MapItem{Key: mkey, Value: make([]any, pos)})
		}
		l := res[i].Value.([]any)
		for len(l) < pos {
			l = append(l, nil)
		}
		var mv any
		if len(n.Meta) > 0 {
			mv = metaValue(n)
		}
		res[i].Value = append(l, mv)
	}
	return res
}

func metaValue(n *tree.Node) yaml.MapSlice {
	res := yaml.MapSlice{}
	for _, m := range n.Meta {
		res = append(res, yaml.MapItem{Key: metaName(m), Value: m.Value})
	}
	return res
}

func value(n *tree.Node, meta bool) any {
	switch {
	case n.Schema.IsTerm():
		return scalar(n.Schema.Type, n.Value)
	case n.Schema.IsAny():
		if n.Any.Kind == tree.AnyJSON {
			var v any
			if err := yaml.Unmarshal([]byte(n.Any.Value), &v); err == nil {
				return v
			}
		}
		return n.Any.Value
	}
	res := members(n.Children, meta)
	if meta && len(n.Meta) > 0 {
		res = append(res, yaml.MapItem{Key: "@", Value: metaValue(n)})
	}
	return res
}

// scalar converts the lexical value of a term to a number or boolean where
// RFC 7951 encodes it as one; 64-bit numbers and decimals stay strings.
func scalar(t *schema.Type, v string) any {
	switch t.Base {
	case schema.BaseInt8, schema.BaseInt16, schema.BaseInt32:
		if i, err := strconv.ParseInt(v, 10, 32); err == nil {
			return i
		}
	case schema.BaseUint8, schema.BaseUint16, schema.BaseUint32:
		if u, err := strconv.ParseUint(v, 10, 32); err == nil {
			return u
		}
	case schema.BaseBool:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case schema.BaseEmpty:
		return []any{nil}
	}
	return v
}
