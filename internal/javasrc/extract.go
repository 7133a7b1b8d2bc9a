package javasrc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/smalisig"
)

type scopeKind int

const (
	scopeFile scopeKind = iota
	scopeType
	scopeMethod
)

// scope tracks the naming context while walking the tree: the binary name of
// the enclosing type and the type variables visible at this point.
type scope struct {
	kind     scopeKind
	owner    string
	typeVars map[string]smalisig.TypeRef
	parent   *scope

	// recordParams is the component list of an enclosing record, used by
	// compact constructors.
	recordParams *sitter.Node
}

func (s *scope) lookupTypeVar(name string) (smalisig.TypeRef, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if t, ok := sc.typeVars[name]; ok {
			return t, true
		}
	}
	return smalisig.TypeRef{}, false
}

type extractor struct {
	src     []byte
	file    *File
	imports map[string]string // simple name -> binary name
	local   map[string]string // simple name -> binary name of a type declared in this file
}

func newExtractor(src []byte) *extractor {
	return &extractor{
		src:     src,
		file:    &File{},
		imports: make(map[string]string),
		local:   make(map[string]string),
	}
}

func (x *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.src)
}

var typeDeclarations = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

var methodDeclarations = map[string]bool{
	"method_declaration":                  true,
	"constructor_declaration":             true,
	"compact_constructor_declaration":     true,
	"annotation_type_element_declaration": true,
}

// readHeader records the package name and import declarations.
func (x *extractor) readHeader(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			x.file.Package = x.dottedName(n)
		case "import_declaration":
			imp := Import{Path: x.dottedName(n)}
			for j := 0; j < int(n.ChildCount()); j++ {
				switch n.Child(j).Type() {
				case "static":
					imp.Static = true
				case "asterisk":
					imp.OnDemand = true
				}
			}
			x.file.Imports = append(x.file.Imports, imp)
			if !imp.Static && !imp.OnDemand && imp.Path != "" {
				x.imports[lastSegment(imp.Path)] = binaryFromDotted(imp.Path)
			}
		}
	}
}

// dottedName returns the first identifier or scoped_identifier child's text.
func (x *extractor) dottedName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			return x.text(c)
		}
	}
	return ""
}

// collectTypes records every named member type so references to them can be
// resolved regardless of declaration order.
func (x *extractor) collectTypes(n *sitter.Node, outer string, topLevel bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case typeDeclarations[c.Type()]:
			name := x.text(c.ChildByFieldName("name"))
			if name == "" {
				continue
			}
			bin := outer + "$" + name
			if topLevel {
				bin = x.qualify(name)
			}
			if _, ok := x.local[name]; !ok {
				x.local[name] = bin
			}
			x.file.Types = append(x.file.Types, bin)
			if body := c.ChildByFieldName("body"); body != nil {
				x.collectTypes(body, bin, false)
			}
		case c.Type() == "enum_body_declarations":
			x.collectTypes(c, outer, topLevel)
		}
	}
}

func (x *extractor) walk(n *sitter.Node, sc *scope) {
	switch t := n.Type(); {
	case typeDeclarations[t]:
		x.walkType(n, sc)
		return
	case methodDeclarations[t]:
		x.walkMethod(n, sc)
		return
	case t == "object_creation_expression" || t == "enum_constant":
		// A class body here declares an anonymous class.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "class_body" {
				x.walkChildren(c, &scope{kind: scopeType, owner: smalisig.UnknownOwner, parent: sc})
				continue
			}
			x.walk(c, sc)
		}
		return
	}
	x.walkChildren(n, sc)
}

func (x *extractor) walkChildren(n *sitter.Node, sc *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		x.walk(n.NamedChild(i), sc)
	}
}

func (x *extractor) walkType(n *sitter.Node, sc *scope) {
	name := x.text(n.ChildByFieldName("name"))

	owner := smalisig.UnknownOwner
	switch {
	case name == "":
	case sc.kind == scopeFile:
		owner = x.qualify(name)
	case sc.kind == scopeType && sc.owner != smalisig.UnknownOwner:
		owner = sc.owner + "$" + name
	}

	inner := &scope{kind: scopeType, owner: owner, parent: sc}
	x.bindTypeParams(inner, n.ChildByFieldName("type_parameters"))
	if n.Type() == "record_declaration" {
		inner.recordParams = n.ChildByFieldName("parameters")
	}
	if body := n.ChildByFieldName("body"); body != nil {
		x.walkChildren(body, inner)
	}
}

func (x *extractor) walkMethod(n *sitter.Node, sc *scope) {
	owner := sc.owner
	if owner == "" {
		owner = smalisig.UnknownOwner
	}
	msc := &scope{kind: scopeMethod, owner: owner, parent: sc}
	x.bindTypeParams(msc, n.ChildByFieldName("type_parameters"))

	m := Method{
		Descriptor: smalisig.MethodDescriptor{OwnerClass: owner},
		StartLine:  int(n.StartPoint().Row),
		StartCol:   int(n.StartPoint().Column),
		EndLine:    int(n.EndPoint().Row),
		EndCol:     int(n.EndPoint().Column),
	}

	switch n.Type() {
	case "method_declaration", "annotation_type_element_declaration":
		m.Descriptor.MethodName = x.text(n.ChildByFieldName("name"))
		ret := x.resolveType(n.ChildByFieldName("type"), msc)
		m.Descriptor.ReturnType = smalisig.ArrayN(ret, countDims(n.ChildByFieldName("dimensions")))
		m.Descriptor.Parameters = x.params(n.ChildByFieldName("parameters"), msc)
	case "constructor_declaration":
		m.Constructor = true
		m.Descriptor.MethodName = smalisig.ConstructorName
		m.Descriptor.ReturnType = smalisig.Primitive(smalisig.Void)
		m.Descriptor.Parameters = x.params(n.ChildByFieldName("parameters"), msc)
	case "compact_constructor_declaration":
		m.Constructor = true
		m.Descriptor.MethodName = smalisig.ConstructorName
		m.Descriptor.ReturnType = smalisig.Primitive(smalisig.Void)
		m.Descriptor.Parameters = x.params(sc.recordParams, msc)
	}
	if m.Descriptor.Parameters == nil {
		m.Descriptor.Parameters = []smalisig.TypeRef{}
	}
	x.file.Methods = append(x.file.Methods, m)

	if body := n.ChildByFieldName("body"); body != nil {
		x.walkChildren(body, msc)
	}
}

// params resolves a formal_parameters list. Receiver parameters are not
// part of the descriptor and are skipped.
func (x *extractor) params(list *sitter.Node, sc *scope) []smalisig.TypeRef {
	if list == nil {
		return nil
	}
	var out []smalisig.TypeRef
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			t := x.resolveType(p.ChildByFieldName("type"), sc)
			out = append(out, smalisig.ArrayN(t, countDims(p.ChildByFieldName("dimensions"))))
		case "spread_parameter":
			var t smalisig.TypeRef
			dims := 1
			for j := 0; j < int(p.NamedChildCount()); j++ {
				c := p.NamedChild(j)
				switch {
				case typeNodes[c.Type()]:
					t = x.resolveType(c, sc)
				case c.Type() == "variable_declarator":
					dims += countDims(c.ChildByFieldName("dimensions"))
				}
			}
			out = append(out, smalisig.ArrayN(t, dims))
		}
	}
	return out
}

// bindTypeParams declares the type variables of a generic type or method,
// each erased to its first bound.
func (x *extractor) bindTypeParams(sc *scope, list *sitter.Node) {
	if list == nil {
		return
	}
	sc.typeVars = make(map[string]smalisig.TypeRef)
	var params []*sitter.Node
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		if p.Type() != "type_parameter" {
			continue
		}
		name := x.typeParamName(p)
		if name == "" {
			continue
		}
		sc.typeVars[name] = smalisig.Reference(objectClass)
		params = append(params, p)
	}
	// Bounds may mention other variables of the same list.
	for _, p := range params {
		for j := 0; j < int(p.NamedChildCount()); j++ {
			bound := p.NamedChild(j)
			if bound.Type() != "type_bound" {
				continue
			}
			for k := 0; k < int(bound.NamedChildCount()); k++ {
				if b := bound.NamedChild(k); typeNodes[b.Type()] {
					sc.typeVars[x.typeParamName(p)] = x.resolveType(b, sc)
					break
				}
			}
		}
	}
}

func (x *extractor) typeParamName(p *sitter.Node) string {
	for i := 0; i < int(p.NamedChildCount()); i++ {
		if c := p.NamedChild(i); c.Type() == "type_identifier" || c.Type() == "identifier" {
			return x.text(c)
		}
	}
	return ""
}

// countDims counts the bracket pairs in a dimensions node.
func countDims(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "[" {
			count++
		}
	}
	return count
}
