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

// JoinType is the SQL join kind chosen by join inference.
type JoinType int

const (
	// InnerJoin is the default for required patterns.
	InnerJoin JoinType = iota
	// LeftJoin is used for OPTIONAL MATCH.
	LeftJoin
	// RightJoin is kept for completeness; inference never emits it.
	RightJoin
	// CrossJoin joins disconnected patterns.
	CrossJoin
)

func (t JoinType) String() string {
	switch t {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	default:
		return "INNER JOIN"
	}
}

// JoinEdge is one join emitted by graph-join inference. A JoinEdge
// with no On conditions is the FROM marker: it names the anchor table
// instead of joining one.
type JoinEdge struct {
	TableName  string
	TableAlias string
	On         []cypher.Expr
	Kind       JoinType
	// PreFilter, when set on a LEFT join, is pushed into a subquery
	// around the joined table so the filter does not defeat the outer
	// join.
	PreFilter cypher.Expr
}

// IsFromMarker reports whether this edge names the FROM anchor.
func (j *JoinEdge) IsFromMarker() bool { return len(j.On) == 0 && j.Kind != CrossJoin && j.Kind != LeftJoin }

func (j *JoinEdge) String() string {
	if j.IsFromMarker() {
		return fmt.Sprintf("FROM %s AS %s", j.TableName, j.TableAlias)
	}
	conds := make([]string, len(j.On))
	for i, c := range j.On {
		conds[i] = c.String()
	}
	return fmt.Sprintf("%s %s AS %s ON %s", j.Kind, j.TableName, j.TableAlias, strings.Join(conds, " AND "))
}

// GraphJoins carries the concrete join list produced by join
// inference, replacing the GraphRel subtrees it was derived from.
type GraphJoins struct {
	UnaryNode
	Joins []*JoinEdge
	// OptionalAliases are the aliases introduced under OPTIONAL MATCH.
	OptionalAliases []string
	// AnchorTable is the chosen FROM anchor's alias.
	AnchorTable string
}

// NewGraphJoins creates a new join plan over the child.
func NewGraphJoins(joins []*JoinEdge, anchor string, child cypher.Node) *GraphJoins {
	return &GraphJoins{UnaryNode: UnaryNode{Child: child}, Joins: joins, AnchorTable: anchor}
}

// FromMarker returns the FROM marker join, or nil when the plan has no
// anchor (pure CTE-driven FROM).
func (g *GraphJoins) FromMarker() *JoinEdge {
	for _, j := range g.Joins {
		if j.IsFromMarker() {
			return j
		}
	}
	return nil
}

func (g *GraphJoins) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(g, len(children), 1)
	}
	ng := *g
	ng.Child = children[0]
	return &ng, nil
}

// Expressions implements cypher.Expressioner, exposing every join
// condition and pre-filter for alias rewriting.
func (g *GraphJoins) Expressions() []cypher.Expr {
	var exprs []cypher.Expr
	for _, j := range g.Joins {
		exprs = append(exprs, j.On...)
		if j.PreFilter != nil {
			exprs = append(exprs, j.PreFilter)
		}
	}
	return exprs
}

// WithExpressions implements cypher.Expressioner.
func (g *GraphJoins) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	expected := 0
	for _, j := range g.Joins {
		expected += len(j.On)
		if j.PreFilter != nil {
			expected++
		}
	}
	if len(exprs) != expected {
		return nil, cypher.ErrInvalidChildrenNumber(g, len(exprs), expected)
	}
	ng := *g
	ng.Joins = make([]*JoinEdge, len(g.Joins))
	i := 0
	for jIdx, j := range g.Joins {
		nj := *j
		nj.On = exprs[i : i+len(j.On)]
		i += len(j.On)
		if j.PreFilter != nil {
			nj.PreFilter = exprs[i]
			i++
		}
		ng.Joins[jIdx] = &nj
	}
	return &ng, nil
}

func (g *GraphJoins) String() string {
	joins := make([]string, len(g.Joins))
	for i, j := range g.Joins {
		joins[i] = j.String()
	}
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("GraphJoins(anchor %s)", g.AnchorTable)
	_ = p.WriteChildren(append(joins, g.Child.String())...)
	return p.String()
}
