package schema

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// BaseType is a built-in type.
type BaseType int

const (
	BaseString BaseType = iota
	BaseInt8
	BaseInt16
	BaseInt32
	BaseInt64
	BaseUint8
	BaseUint16
	BaseUint32
	BaseUint64
	BaseBool
	BaseEmpty
	BaseEnum
	BaseBits
	BaseBinary
	BaseDecimal64
	BaseIdentityRef
	BaseLeafRef
	BaseInstanceID
	BaseUnion
)

var baseNames = [...]string{
	BaseString:      "string",
	BaseInt8:        "int8",
	BaseInt16:       "int16",
	BaseInt32:       "int32",
	BaseInt64:       "int64",
	BaseUint8:       "uint8",
	BaseUint16:      "uint16",
	BaseUint32:      "uint32",
	BaseUint64:      "uint64",
	BaseBool:        "boolean",
	BaseEmpty:       "empty",
	BaseEnum:        "enumeration",
	BaseBits:        "bits",
	BaseBinary:      "binary",
	BaseDecimal64:   "decimal64",
	BaseIdentityRef: "identityref",
	BaseLeafRef:     "leafref",
	BaseInstanceID:  "instance-identifier",
	BaseUnion:       "union",
}

func (b BaseType) String() string {
	if b < 0 || int(b) >= len(baseNames) {
		return "unknown"
	}
	return baseNames[b]
}

// ParseBaseType is the inverse of BaseType.String.
func ParseBaseType(s string) (BaseType, bool) {
	for b, n := range baseNames {
		if n == s {
			return BaseType(b), true
		}
	}
	return 0, false
}

// Type is the type of a leaf, leaf-list or annotation value.
type Type struct {
	Base BaseType

	Enums          []string
	Bits           []string
	FractionDigits int
	// Bases restricts identityref values.
	Bases []*Identity
	// Path is the leafref target, absolute or relative to the leaf.
	Path    string
	Members []*Type
}

func Simple(b BaseType) *Type {
	return &Type{Base: b}
}

func Enum(names ...string) *Type {
	return &Type{Base: BaseEnum, Enums: names}
}

func Bits(names ...string) *Type {
	return &Type{Base: BaseBits, Bits: names}
}

func Decimal64(fractionDigits int) *Type {
	return &Type{Base: BaseDecimal64, FractionDigits: fractionDigits}
}

func IdentityRef(bases ...*Identity) *Type {
	return &Type{Base: BaseIdentityRef, Bases: bases}
}

func LeafRef(path string) *Type {
	return &Type{Base: BaseLeafRef, Path: path}
}

func InstanceID() *Type {
	return &Type{Base: BaseInstanceID}
}

func Union(members ...*Type) *Type {
	return &Type{Base: BaseUnion, Members: members}
}

// NeedsTree reports whether values of t can only be validated against the
// schema context or the complete data tree.
func (t *Type) NeedsTree() bool {
	switch t.Base {
	case BaseIdentityRef, BaseLeafRef, BaseInstanceID:
		return true
	case BaseUnion:
		for _, m := range t.Members {
			if m.NeedsTree() {
				return true
			}
		}
	}
	return false
}

// Check validates the lexical form of v. Types for which NeedsTree is true
// only get their syntax checked here.
func (t *Type) Check(v string) error {
	switch t.Base {
	case BaseString, BaseLeafRef:
		return nil
	case BaseInt8, BaseInt16, BaseInt32, BaseInt64:
		_, err := strconv.ParseInt(v, 10, t.bitSize())
		if err != nil {
			return fmt.Errorf("invalid %s value %q", t.Base, v)
		}
	case BaseUint8, BaseUint16, BaseUint32, BaseUint64:
		_, err := strconv.ParseUint(v, 10, t.bitSize())
		if err != nil {
			return fmt.Errorf("invalid %s value %q", t.Base, v)
		}
	case BaseBool:
		if v != "true" && v != "false" {
			return fmt.Errorf("invalid boolean value %q", v)
		}
	case BaseEmpty:
		if v != "" {
			return fmt.Errorf("invalid empty value %q", v)
		}
	case BaseEnum:
		for _, e := range t.Enums {
			if e == v {
				return nil
			}
		}
		return fmt.Errorf("invalid enumeration value %q", v)
	case BaseBits:
		for _, b := range strings.Fields(v) {
			found := false
			for _, name := range t.Bits {
				if name == b {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("invalid bit %q", b)
			}
		}
	case BaseBinary:
		if _, err := base64.StdEncoding.DecodeString(v); err != nil {
			return fmt.Errorf("invalid binary value: %w", err)
		}
	case BaseDecimal64:
		return t.checkDecimal(v)
	case BaseIdentityRef:
		if _, name := splitQName(v); name == "" {
			return fmt.Errorf("invalid identityref value %q", v)
		}
	case BaseInstanceID:
		if !strings.HasPrefix(v, "/") {
			return fmt.Errorf("invalid instance-identifier value %q", v)
		}
	case BaseUnion:
		for _, m := range t.Members {
			if m.Check(v) == nil {
				return nil
			}
		}
		return fmt.Errorf("value %q matches no union member", v)
	default:
		return fmt.Errorf("unknown type %d", int(t.Base))
	}
	return nil
}

func (t *Type) bitSize() int {
	switch t.Base {
	case BaseInt8, BaseUint8:
		return 8
	case BaseInt16, BaseUint16:
		return 16
	case BaseInt32, BaseUint32:
		return 32
	}
	return 64
}

func (t *Type) checkDecimal(v string) error {
	s := strings.TrimPrefix(v, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || strings.Trim(whole, "0123456789") != "" || strings.Trim(frac, "0123456789") != "" {
		return fmt.Errorf("invalid decimal64 value %q", v)
	}
	if len(frac) > t.FractionDigits {
		return fmt.Errorf("decimal64 value %q has more than %d fraction digits", v, t.FractionDigits)
	}
	return nil
}

func (t *Type) String() string {
	if t.Base != BaseUnion {
		return t.Base.String()
	}
	ms := make([]string, len(t.Members))
	for i, m := range t.Members {
		ms[i] = m.String()
	}
	return "union(" + strings.Join(ms, "|") + ")"
}
