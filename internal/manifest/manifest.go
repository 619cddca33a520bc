// Package manifest loads method bodies and the metadata they reference
// from YAML files. A manifest stands in for a PE reader: it lists the
// tokens a method body refers to and the raw IL of each method.
//
//	assembly: App
//	members:
//	  - token: 0x0A000001
//	    kind: method
//	    type: "[System.Console]System.Console"
//	    name: WriteLine
//	    params: [string]
//	strings:
//	  0x70000001: "Hello, World"
//	methods:
//	  - name: Main
//	    type: "[App]App.Program"
//	    static: true
//	    code: "72 01 00 00 70 28 01 00 00 0A 2A"
package manifest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/metadata"
	"gopkg.in/yaml.v3"
)

// ErrNoMethod is returned when a method name matches nothing in the
// manifest.
var ErrNoMethod = errors.New("method not found")

// Token is a metadata token written as a number, usually in hex.
type Token metadata.Token

// UnmarshalYAML accepts decimal, hex (0x) and octal (0o) scalars.
func (t *Token) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: token must be a scalar", node.Line)
	}
	v, err := strconv.ParseUint(node.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid token %q", node.Line, node.Value)
	}
	*t = Token(v)
	return nil
}

// File is the YAML document layout.
type File struct {
	Assembly string           `yaml:"assembly"`
	Members  []Member         `yaml:"members"`
	Strings  map[Token]string `yaml:"strings"`
	Methods  []Method         `yaml:"methods"`
}

// Member describes one resolvable token.
type Member struct {
	Token    Token    `yaml:"token"`
	Kind     string   `yaml:"kind"` // type, method, field or signature
	Type     string   `yaml:"type"` // declaring type, or the type itself for kind type
	Name     string   `yaml:"name"`
	Instance bool     `yaml:"instance"`
	Return   string   `yaml:"return"`
	Params   []string `yaml:"params"`
	CallConv string   `yaml:"callConv"`
	Field    string   `yaml:"fieldType"`
}

// Method describes one method and its body.
type Method struct {
	Token      Token       `yaml:"token"`
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Flags      string      `yaml:"flags"`
	ImplFlags  string      `yaml:"implFlags"`
	Static     bool        `yaml:"static"`
	Return     string      `yaml:"return"`
	Params     []Param     `yaml:"params"`
	EntryPoint bool        `yaml:"entryPoint"`
	VTableSlot int         `yaml:"vtableSlot"`
	Override   Token       `yaml:"override"`
	Attributes []Attribute `yaml:"attributes"`

	MaxStack   int      `yaml:"maxStack"`
	InitLocals bool     `yaml:"initLocals"`
	Locals     []Local  `yaml:"locals"`
	Code       string   `yaml:"code"`
	Regions    []Region `yaml:"regions"`
	Source     []Source `yaml:"source"`
}

// Param describes a method parameter. Default is set only when the key
// is present, so an explicit null yields a null default.
type Param struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

// Attribute is a custom attribute on a method.
type Attribute struct {
	Constructor Token  `yaml:"ctor"`
	Blob        string `yaml:"blob"`
}

// Local is a local variable declaration.
type Local struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Pinned bool   `yaml:"pinned"`
}

// Region is an exception region. Try, Handler and Filter are
// [offset, length] pairs; Filter holds only the filter offset.
type Region struct {
	Kind      string `yaml:"kind"` // catch, filter, finally or fault
	Try       []int  `yaml:"try"`
	Handler   []int  `yaml:"handler"`
	Filter    int    `yaml:"filter"`
	CatchType string `yaml:"catchType"`
}

// Source maps a line of source text to an IL offset.
type Source struct {
	Offset int    `yaml:"offset"`
	Text   string `yaml:"text"`
}

// Entry is one loaded method.
type Entry struct {
	Method *metadata.Method
	Body   *bytecode.Body
	Source []bytecode.SourceFragment
}

// Manifest is a loaded manifest. It is safe for concurrent use once
// loaded.
type Manifest struct {
	assembly string
	table    *metadata.Table
	entries  []*Entry
	byMethod map[*metadata.Method]*Entry
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(&f)
}

// New builds a manifest from an already decoded File.
func New(f *File) (*Manifest, error) {
	m := &Manifest{
		assembly: f.Assembly,
		table:    metadata.NewTable(),
		byMethod: map[*metadata.Method]*Entry{},
	}
	for i, spec := range f.Members {
		member, err := buildMember(spec)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		m.table.Add(member)
	}
	for tok, s := range f.Strings {
		m.table.AddString(metadata.Token(tok), s)
	}
	for _, spec := range f.Methods {
		e, err := m.buildEntry(spec)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", spec.Name, err)
		}
		m.entries = append(m.entries, e)
		m.byMethod[e.Method] = e
	}
	return m, nil
}

// Assembly returns the name of the assembly the methods belong to.
func (m *Manifest) Assembly() string {
	return m.assembly
}

// Table returns the resolver holding the manifest's members and strings.
func (m *Manifest) Table() *metadata.Table {
	return m.table
}

// Entries returns the loaded methods in document order.
func (m *Manifest) Entries() []*Entry {
	return m.entries
}

// Lookup finds a method by name. The name may be qualified with its
// declaring type as Type::Name; otherwise the first method with that
// name wins.
func (m *Manifest) Lookup(name string) (*Entry, error) {
	typeName, method, qualified := strings.Cut(name, "::")
	if !qualified {
		method = typeName
	}
	for _, e := range m.entries {
		if e.Method.Name != method {
			continue
		}
		if qualified && (e.Method.DeclaringType == nil || e.Method.DeclaringType.FullName() != typeName) {
			continue
		}
		return e, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNoMethod)
}

// SourceFragments returns the source lines recorded for meth. It
// satisfies the disassembler's source provider interface.
func (m *Manifest) SourceFragments(meth *metadata.Method) ([]bytecode.SourceFragment, error) {
	e, ok := m.byMethod[meth]
	if !ok {
		return nil, fmt.Errorf("%s: %w", meth.Name, ErrNoMethod)
	}
	return e.Source, nil
}

// Resolver returns a resolver scoped to the entry's parameters and
// locals, backed by r.
func (e *Entry) Resolver(r metadata.Resolver) metadata.Resolver {
	return metadata.Scope(r, e.Method, e.Body.Locals())
}

func buildMember(spec Member) (metadata.Member, error) {
	tok := metadata.Token(spec.Token)
	switch spec.Kind {
	case "type":
		t, err := metadata.ParseType(spec.Type)
		if err != nil {
			return nil, err
		}
		t.Token = tok
		return t, nil
	case "method":
		declaring, err := optionalType(spec.Type)
		if err != nil {
			return nil, err
		}
		ret, err := optionalType(spec.Return)
		if err != nil {
			return nil, err
		}
		params, err := types(spec.Params)
		if err != nil {
			return nil, err
		}
		return &metadata.MethodRef{
			Token:         tok,
			DeclaringType: declaring,
			Name:          spec.Name,
			Instance:      spec.Instance,
			Return:        ret,
			Params:        params,
		}, nil
	case "field":
		declaring, err := optionalType(spec.Type)
		if err != nil {
			return nil, err
		}
		typ, err := optionalType(spec.Field)
		if err != nil {
			return nil, err
		}
		return &metadata.FieldRef{Token: tok, DeclaringType: declaring, Name: spec.Name, Type: typ}, nil
	case "signature":
		ret, err := optionalType(spec.Return)
		if err != nil {
			return nil, err
		}
		params, err := types(spec.Params)
		if err != nil {
			return nil, err
		}
		return &metadata.Signature{
			Token:    tok,
			CallConv: spec.CallConv,
			Instance: spec.Instance,
			Return:   ret,
			Params:   params,
		}, nil
	default:
		return nil, fmt.Errorf("unknown member kind %q", spec.Kind)
	}
}

func (m *Manifest) buildEntry(spec Method) (*Entry, error) {
	declaring, err := optionalType(spec.Type)
	if err != nil {
		return nil, err
	}
	ret, err := optionalType(spec.Return)
	if err != nil {
		return nil, err
	}
	meth := &metadata.Method{
		Token:         metadata.Token(spec.Token),
		Name:          spec.Name,
		DeclaringType: declaring,
		Assembly:      m.assembly,
		Flags:         spec.Flags,
		ImplFlags:     spec.ImplFlags,
		Static:        spec.Static,
		Return:        ret,
		EntryPoint:    spec.EntryPoint,
		VTableSlot:    spec.VTableSlot,
	}
	for i, p := range spec.Params {
		param, err := buildParam(i, p)
		if err != nil {
			return nil, err
		}
		meth.Params = append(meth.Params, param)
	}
	if spec.Override != 0 {
		member, err := m.table.ResolveMember(metadata.Token(spec.Override))
		if err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
		ref, ok := member.(*metadata.MethodRef)
		if !ok {
			return nil, fmt.Errorf("override %s is a %s", metadata.Token(spec.Override), member.Kind())
		}
		meth.Override = ref
	}
	for _, a := range spec.Attributes {
		attr, err := m.buildAttribute(a)
		if err != nil {
			return nil, err
		}
		meth.Attributes = append(meth.Attributes, attr)
	}

	code, err := parseHex(spec.Code)
	if err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}
	locals := make([]*metadata.Local, 0, len(spec.Locals))
	for i, l := range spec.Locals {
		typ, err := optionalType(l.Type)
		if err != nil {
			return nil, fmt.Errorf("local %d: %w", i, err)
		}
		locals = append(locals, &metadata.Local{Index: i, Name: l.Name, Type: typ, Pinned: l.Pinned})
	}
	regions := make([]bytecode.ExceptionRegion, 0, len(spec.Regions))
	for i, r := range spec.Regions {
		region, err := buildRegion(r)
		if err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		regions = append(regions, region)
	}
	body := bytecode.NewBody(bytecode.BodyParams{
		Code:       code,
		MaxStack:   spec.MaxStack,
		InitLocals: spec.InitLocals,
		Locals:     locals,
		Regions:    regions,
	})
	e := &Entry{Method: meth, Body: body}
	for _, s := range spec.Source {
		e.Source = append(e.Source, bytecode.SourceFragment{Offset: s.Offset, Text: s.Text})
	}
	return e, nil
}

func buildParam(i int, p Param) (*metadata.Param, error) {
	typ, err := optionalType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("param %d: %w", i, err)
	}
	param := &metadata.Param{Index: i, Sequence: i + 1, Name: p.Name, Type: typ}
	if p.Default.Kind != 0 {
		param.HasDefault = true
		if err := p.Default.Decode(&param.Default); err != nil {
			return nil, fmt.Errorf("param %d default: %w", i, err)
		}
	}
	return param, nil
}

func (m *Manifest) buildAttribute(a Attribute) (metadata.CustomAttribute, error) {
	blob, err := parseHex(a.Blob)
	if err != nil {
		return metadata.CustomAttribute{}, fmt.Errorf("attribute blob: %w", err)
	}
	attr := metadata.CustomAttribute{Blob: blob}
	if a.Constructor == 0 {
		return attr, nil
	}
	member, err := m.table.ResolveMember(metadata.Token(a.Constructor))
	if err != nil {
		return attr, fmt.Errorf("attribute constructor: %w", err)
	}
	if ctor, ok := member.(*metadata.MethodRef); ok {
		attr.Constructor = ctor
	}
	return attr, nil
}

func buildRegion(r Region) (bytecode.ExceptionRegion, error) {
	var out bytecode.ExceptionRegion
	switch r.Kind {
	case "catch":
		out.Kind = bytecode.RegionClause
	case "filter":
		out.Kind = bytecode.RegionFilter
		out.FilterOffset = r.Filter
	case "finally":
		out.Kind = bytecode.RegionFinally
	case "fault":
		out.Kind = bytecode.RegionFault
	default:
		return out, fmt.Errorf("unknown region kind %q", r.Kind)
	}
	if len(r.Try) != 2 || len(r.Handler) != 2 {
		return out, errors.New("try and handler must be [offset, length] pairs")
	}
	out.TryOffset, out.TryLength = r.Try[0], r.Try[1]
	out.HandlerOffset, out.HandlerLength = r.Handler[0], r.Handler[1]
	if r.CatchType != "" {
		if out.Kind != bytecode.RegionClause {
			return out, fmt.Errorf("catchType on a %s region", r.Kind)
		}
		t, err := metadata.ParseType(r.CatchType)
		if err != nil {
			return out, err
		}
		out.CatchType = t
	}
	return out, nil
}

func optionalType(s string) (*metadata.TypeRef, error) {
	if s == "" {
		return nil, nil
	}
	return metadata.ParseType(s)
}

func types(in []string) ([]*metadata.TypeRef, error) {
	out := make([]*metadata.TypeRef, 0, len(in))
	for _, s := range in {
		t, err := metadata.ParseType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// parseHex decodes hex bytes, ignoring whitespace between them.
func parseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}
