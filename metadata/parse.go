package metadata

import (
	"fmt"
	"strings"
)

var primitives = map[string]bool{
	"void": true, "bool": true, "char": true, "string": true, "object": true, "typedref": true,
	"int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"float32": true, "float64": true,
	"native int": true, "native unsigned int": true,
}

// ParseType parses a type written in ILAsm notation, for example
// "int32", "string[]", "class [mscorlib]System.Exception" or
// "valuetype [System.Runtime]System.DateTime&". A type without a keyword
// is a reference type.
func ParseType(s string) (*TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse type: empty")
	}
	switch {
	case strings.HasSuffix(s, "[]"):
		elem, err := ParseType(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return nil, err
		}
		return &TypeRef{Elem: elem, Array: true}, nil
	case strings.HasSuffix(s, "&"):
		elem, err := ParseType(strings.TrimSuffix(s, "&"))
		if err != nil {
			return nil, err
		}
		return &TypeRef{Elem: elem, ByRef: true}, nil
	}
	if primitives[s] {
		return &TypeRef{Primitive: s}, nil
	}
	t := &TypeRef{}
	switch {
	case strings.HasPrefix(s, "valuetype "):
		t.ValueType = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "valuetype "))
	case strings.HasPrefix(s, "class "):
		s = strings.TrimSpace(strings.TrimPrefix(s, "class "))
	}
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("parse type %q: unterminated assembly scope", s)
		}
		t.Assembly = s[1:end]
		s = s[end+1:]
	}
	if s == "" || strings.ContainsAny(s, " []") {
		return nil, fmt.Errorf("parse type %q: invalid type name", s)
	}
	// The namespace ends at the last dot of the outermost type.
	outer := s
	if i := strings.IndexByte(s, '/'); i >= 0 {
		outer = s[:i]
	}
	if i := strings.LastIndexByte(outer, '.'); i >= 0 {
		t.Namespace = s[:i]
		t.Name = s[i+1:]
	} else {
		t.Name = s
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(s string) *TypeRef {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}
