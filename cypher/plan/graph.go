// Copyright 2025 ClickGraph, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

import (
	"fmt"
	"strings"

	"github.com/genezhang/clickgraph/cypher"
)

// Direction is the arrow direction of the relationship as written in
// the query. Endpoint normalisation means joins never depend on it;
// it is kept for diagnostics and undirected-pattern warnings.
type Direction int

const (
	// Outgoing is ()-[]->().
	Outgoing Direction = iota
	// Incoming is ()<-[]-().
	Incoming
	// Undirected is ()-[]-().
	Undirected
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "->"
	case Incoming:
		return "<-"
	default:
		return "--"
	}
}

// ShortestMode marks a shortest-path wrapped pattern.
type ShortestMode int

const (
	// NoShortest is an ordinary pattern.
	NoShortest ShortestMode = iota
	// ShortestPath keeps one minimum-length path per source.
	ShortestPath
	// AllShortestPaths keeps every minimum-length path.
	AllShortestPaths
)

func (m ShortestMode) String() string {
	switch m {
	case ShortestPath:
		return "shortestPath"
	case AllShortestPaths:
		return "allShortestPaths"
	default:
		return "none"
	}
}

// VarLength holds normalised variable-length bounds. Max nil means
// unbounded; the CTE manager applies the default hop cap.
type VarLength struct {
	Min int64
	Max *int64
}

// Fixed reports whether the bounds pin an exact hop count >= 1, which
// the CTE manager turns into chained joins instead of recursion.
func (v *VarLength) Fixed() bool {
	return v.Max != nil && *v.Max == v.Min && v.Min >= 1
}

func (v *VarLength) String() string {
	if v.Max == nil {
		return fmt.Sprintf("*%d..", v.Min)
	}
	return fmt.Sprintf("*%d..%d", v.Min, *v.Max)
}

// GraphNode is one node pattern: an alias over a scan of the node's
// underlying table, or a Union of candidate scans before type
// inference has pruned them.
type GraphNode struct {
	Alias string
	// Label is the resolved node label; empty while unresolved.
	Label string
	// Input scans the node's table.
	Input cypher.Node
	// Denormalized marks a node whose properties live on an edge row.
	Denormalized bool
}

// NewGraphNode creates a new graph node pattern.
func NewGraphNode(alias, label string, input cypher.Node) *GraphNode {
	return &GraphNode{Alias: alias, Label: label, Input: input}
}

// Name implements cypher.Nameable.
func (n *GraphNode) Name() string { return n.Alias }

func (n *GraphNode) Children() []cypher.Node { return []cypher.Node{n.Input} }

func (n *GraphNode) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(n, len(children), 1)
	}
	nn := *n
	nn.Input = children[0]
	return &nn, nil
}

func (n *GraphNode) String() string {
	p := cypher.NewTreePrinter()
	label := n.Label
	if label == "" {
		label = "?"
	}
	_ = p.WriteNode("GraphNode(%s:%s)", n.Alias, label)
	_ = p.WriteChildren(n.Input.String())
	return p.String()
}

// GraphRel is one relationship pattern together with its two endpoint
// nodes. After parse normalisation Left always connects to the edge
// table's from column and Right to the to column, regardless of the
// arrow direction in the source text.
type GraphRel struct {
	Alias string
	// Left and Right are the endpoint GraphNodes; Center scans the
	// relationship table.
	Left   cypher.Node
	Center cypher.Node
	Right  cypher.Node

	Direction Direction
	// LeftConnection and RightConnection name the endpoint aliases that
	// join the edge's from and to columns. When an endpoint child is a
	// nested GraphRel subtree, the connection says which alias inside it
	// this edge attaches to.
	LeftConnection  string
	RightConnection string

	// Labels holds the relationship types; several before inference
	// prunes them, or for polymorphic patterns.
	Labels []string

	VarLength    *VarLength
	Shortest     ShortestMode
	PathVariable string

	// Where is a predicate scoped to this pattern element,
	// `-[r:T WHERE ...]-`.
	Where cypher.Expr

	// Optional marks relationships introduced by OPTIONAL MATCH;
	// AnchorConnection names the alias from the preceding required
	// pattern the optional part attaches to.
	Optional         bool
	AnchorConnection string
}

// Name implements cypher.Nameable.
func (r *GraphRel) Name() string { return r.Alias }

// Type returns the single resolved relationship type, or "".
func (r *GraphRel) Type() string {
	if len(r.Labels) == 1 {
		return r.Labels[0]
	}
	return ""
}

// LeftNode returns the GraphNode for the left connection alias,
// searching nested subtrees, or nil.
func (r *GraphRel) LeftNode() *GraphNode {
	return FindGraphNode(r.Left, r.LeftConnection)
}

// RightNode returns the GraphNode for the right connection alias,
// searching nested subtrees, or nil.
func (r *GraphRel) RightNode() *GraphNode {
	return FindGraphNode(r.Right, r.RightConnection)
}

// FindGraphNode returns the GraphNode with the given alias anywhere in
// the subtree, or nil.
func FindGraphNode(n cypher.Node, alias string) *GraphNode {
	if n == nil {
		return nil
	}
	if gn, ok := n.(*GraphNode); ok {
		if gn.Alias == alias {
			return gn
		}
		return nil
	}
	for _, c := range n.Children() {
		if found := FindGraphNode(c, alias); found != nil {
			return found
		}
	}
	return nil
}

// PatternAliases collects every node and relationship alias in the
// subtree, in traversal order.
func PatternAliases(n cypher.Node) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	var walk func(n cypher.Node)
	walk = func(n cypher.Node) {
		if n == nil {
			return
		}
		switch n := n.(type) {
		case *GraphNode:
			add(n.Alias)
		case *GraphRel:
			add(n.Alias)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}

func (r *GraphRel) Children() []cypher.Node {
	return []cypher.Node{r.Left, r.Center, r.Right}
}

func (r *GraphRel) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 3 {
		return nil, cypher.ErrInvalidChildrenNumber(r, len(children), 3)
	}
	nr := *r
	nr.Left, nr.Center, nr.Right = children[0], children[1], children[2]
	return &nr, nil
}

// Expressions implements cypher.Expressioner.
func (r *GraphRel) Expressions() []cypher.Expr {
	if r.Where == nil {
		return nil
	}
	return []cypher.Expr{r.Where}
}

// WithExpressions implements cypher.Expressioner.
func (r *GraphRel) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	expected := 0
	if r.Where != nil {
		expected = 1
	}
	if len(exprs) != expected {
		return nil, cypher.ErrInvalidChildrenNumber(r, len(exprs), expected)
	}
	nr := *r
	if expected == 1 {
		nr.Where = exprs[0]
	}
	return &nr, nil
}

func (r *GraphRel) String() string {
	p := cypher.NewTreePrinter()
	var details []string
	if len(r.Labels) > 0 {
		details = append(details, strings.Join(r.Labels, "|"))
	}
	if r.VarLength != nil {
		details = append(details, r.VarLength.String())
	}
	if r.Shortest != NoShortest {
		details = append(details, r.Shortest.String())
	}
	if r.Optional {
		details = append(details, "optional")
	}
	_ = p.WriteNode("GraphRel(%s %s)", r.Alias, strings.Join(details, " "))
	_ = p.WriteChildren(r.Left.String(), r.Center.String(), r.Right.String())
	return p.String()
}
