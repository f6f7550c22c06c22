package model

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/xmldoc/core/cache"
	"github.com/FocuswithJustin/xmldoc/core/errors"
)

// Selector grammar, a CSS subset over node types, ids and properties:
//
//	p
//	body > p
//	sec title, #abstract
//	ext-link[href^="https:"]
//	*[specific-use~=print]
//	[ href = "x" ]
type selectorGroup struct {
	Selectors []*complexSelector `@@ ( Comma @@ )*`
}

type complexSelector struct {
	Head *compound `@@`
	Tail []*step   `@@*`
}

type step struct {
	Combinator string    `@( Child | Whitespace )`
	Compound   *compound `@@`
}

type compound struct {
	Parts []*part `@@+`
}

type part struct {
	Type *string       `  @( Ident | "*" )`
	ID   *string       `| "#" @( Ident | Number )`
	Attr *attrSelector `| "[" @@ "]"`
}

// Whitespace is the descendant combinator outside brackets and is skipped
// inside them.
type attrSelector struct {
	Name  string  `Whitespace? @Ident Whitespace?`
	Op    *string `( @( "=" | "~=" | "^=" ) Whitespace?`
	Value *string `  @( Ident | String | Number ) Whitespace? )?`
}

var selectorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_:.\-]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Number", Pattern: `[0-9][A-Za-z0-9_\-]*`},
	{Name: "Child", Pattern: `\s*>\s*`},
	{Name: "Comma", Pattern: `\s*,\s*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `~=|\^=|[#\[\]=*]`},
})

var selectorParser = participle.MustBuild[selectorGroup](
	participle.Lexer(selectorLexer),
	participle.Unquote("String"),
)

// compiledSelectors holds recently used selectors. Compiled selectors are
// immutable and shared between documents.
var compiledSelectors = cache.New[string, *Selector](256)

// Selector is a compiled structural selector.
type Selector struct {
	source string
	group  *selectorGroup
}

// CompileSelector parses a selector expression.
func CompileSelector(expr string) (*Selector, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, errors.NewParse("selector", "", "empty selector")
	}
	group, err := selectorParser.ParseString("", trimmed)
	if err != nil {
		return nil, &errors.ParseError{Format: "selector", Message: err.Error(), Err: errors.ErrInvalidInput}
	}
	return &Selector{source: trimmed, group: group}, nil
}

func (s *Selector) String() string {
	return s.source
}

// Match reports whether node matches given its ancestors, outermost first.
func (s *Selector) Match(node *Node, ancestors []*Node) bool {
	for _, sel := range s.group.Selectors {
		compounds := []*compound{sel.Head}
		child := make([]bool, 0, len(sel.Tail))
		for _, st := range sel.Tail {
			compounds = append(compounds, st.Compound)
			child = append(child, strings.Contains(st.Combinator, ">"))
		}
		if matchFrom(compounds, child, len(compounds)-1, node, ancestors) {
			return true
		}
	}
	return false
}

func matchFrom(compounds []*compound, child []bool, i int, node *Node, ancestors []*Node) bool {
	if !compounds[i].match(node) {
		return false
	}
	if i == 0 {
		return true
	}
	if child[i-1] {
		last := len(ancestors) - 1
		if last < 0 {
			return false
		}
		return matchFrom(compounds, child, i-1, ancestors[last], ancestors[:last])
	}
	for j := len(ancestors) - 1; j >= 0; j-- {
		if matchFrom(compounds, child, i-1, ancestors[j], ancestors[:j]) {
			return true
		}
	}
	return false
}

func (c *compound) match(n *Node) bool {
	for _, p := range c.Parts {
		switch {
		case p.Type != nil:
			if *p.Type != "*" && *p.Type != n.Type {
				return false
			}
		case p.ID != nil:
			if *p.ID != n.ID {
				return false
			}
		case p.Attr != nil:
			if !p.Attr.match(n) {
				return false
			}
		}
	}
	return true
}

func (a *attrSelector) match(n *Node) bool {
	if !n.Has(a.Name) {
		return false
	}
	value := FormatValue(n.Get(a.Name))
	if a.Op == nil {
		return value != ""
	}
	want := ""
	if a.Value != nil {
		want = *a.Value
	}
	switch *a.Op {
	case "=":
		return value == want
	case "~=":
		for _, word := range strings.Fields(value) {
			if word == want {
				return true
			}
		}
		return false
	case "^=":
		return strings.HasPrefix(value, want)
	}
	return false
}

// Find returns the first node below the root, in document order, matching
// selector. It returns nil when nothing matches.
func (d *Document) Find(selector string) (*Node, error) {
	var found *Node
	err := d.walkSelector(selector, func(n *Node) bool {
		found = n
		return false
	})
	return found, err
}

// FindAll returns every node below the root, in document order, matching
// selector.
func (d *Document) FindAll(selector string) ([]*Node, error) {
	var found []*Node
	err := d.walkSelector(selector, func(n *Node) bool {
		found = append(found, n)
		return true
	})
	return found, err
}

func (d *Document) walkSelector(selector string, visit func(*Node) bool) error {
	sel, err := compiledSelectors.GetOrCompute(selector, func() (*Selector, error) {
		return CompileSelector(selector)
	})
	if err != nil {
		return err
	}
	return d.walkLive(func(n *Node, ancestors []*Node) bool {
		if sel.Match(n, ancestors) {
			return visit(n.clone())
		}
		return true
	})
}

// Walk visits the nodes reachable from the root's container content depth
// first, in document order. The root itself is not visited but is passed as
// the outermost ancestor. A node already on the current path is skipped.
// Returning false from fn stops the walk.
func (d *Document) Walk(fn func(n *Node, ancestors []*Node) bool) error {
	return d.walkLive(func(n *Node, ancestors []*Node) bool {
		snapshot := make([]*Node, len(ancestors))
		for i, a := range ancestors {
			snapshot[i] = a.clone()
		}
		return fn(n.clone(), snapshot)
	})
}

func (d *Document) walkLive(fn func(*Node, []*Node) bool) error {
	root, ok := d.data.get(d.root)
	if !ok {
		return errors.NewNotFound("root node", d.root)
	}
	onPath := map[string]bool{root.ID: true}
	d.walk(root, []*Node{root}, onPath, fn)
	return nil
}

func (d *Document) walk(parent *Node, ancestors []*Node, onPath map[string]bool, fn func(*Node, []*Node) bool) bool {
	t, _ := d.schema.Type(parent.Type)
	if !t.IsContainer() {
		return true
	}
	children, _ := parent.props[t.Container].([]string)
	for _, id := range children {
		if onPath[id] {
			continue
		}
		node, ok := d.data.get(id)
		if !ok {
			continue
		}
		if !fn(node, ancestors) {
			return false
		}
		onPath[id] = true
		ok = d.walk(node, append(ancestors[:len(ancestors):len(ancestors)], node), onPath, fn)
		delete(onPath, id)
		if !ok {
			return false
		}
	}
	return true
}
