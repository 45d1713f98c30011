package encode

import (
	"strings"

	"github.com/signadot/lyb-format/go-lyb/schema"

	"github.com/fatih/color"
)

type Colorable struct {
	Kind schema.Kind
	Attr ColorAttr
}

type ColorAttr int

const (
	NameColor ColorAttr = iota
	ValueColor
	MetaColor
	FlagColor
	SepColor
)

type Colors struct {
	Default func(string, ...any) string
	Map     map[Colorable]func(string, ...any) string
}

func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map:     map[Colorable]func(string, ...any) string{},
	}
	for k := schema.KindContainer; k <= schema.KindOutput; k++ {
		able := Colorable{Kind: k, Attr: NameColor}
		colors.Map[able] = color.RGB(128, 168, 196).SprintfFunc()
		able.Attr = MetaColor
		colors.Map[able] = color.RGB(74, 92, 138).SprintfFunc()
		able.Attr = FlagColor
		colors.Map[able] = color.RGB(96, 96, 96).SprintfFunc()
		able.Attr = SepColor
		colors.Map[able] = color.RGB(255, 0, 196).SprintfFunc()
	}
	able := Colorable{Attr: NameColor}
	able.Kind = schema.KindList
	colors.Map[able] = color.RGB(196, 96, 16).SprintfFunc()
	for _, k := range []schema.Kind{schema.KindRPC, schema.KindAction, schema.KindNotification} {
		able.Kind = k
		colors.Map[able] = color.RGB(196, 168, 128).SprintfFunc()
	}

	able.Attr = ValueColor
	able.Kind = schema.KindLeaf
	colors.Map[able] = color.RGB(8, 196, 16).SprintfFunc()
	able.Kind = schema.KindLeafList
	colors.Map[able] = color.RGB(88, 158, 86).SprintfFunc()
	able.Kind = schema.KindAnydata
	colors.Map[able] = color.RGB(198, 198, 46).SprintfFunc()
	able.Kind = schema.KindAnyxml
	colors.Map[able] = color.RGB(198, 198, 46).SprintfFunc()
	for k, f := range colors.Map {
		colors.Map[k] = func(v string, _ ...any) string {
			return f(strings.Replace(v, "%", "%%", -1))
		}
	}
	return colors
}

func colorDefault(v string, _ ...any) string { return v }

func (c *Colors) Color(k schema.Kind, a ColorAttr, s string) string {
	return c.Get(k, a)(s)
}

func (c *Colors) Get(k schema.Kind, a ColorAttr) func(string, ...any) string {
	f := c.Map[Colorable{Kind: k, Attr: a}]
	if f == nil {
		return c.Default
	}
	return f
}
