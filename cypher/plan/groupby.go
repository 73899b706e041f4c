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
	"strings"

	"github.com/genezhang/clickgraph/cypher"
)

// GroupBy aggregates its child rows. Items carries the full output
// projection (aggregates included); Keys the grouping expressions.
// Having holds any post-aggregation predicate.
type GroupBy struct {
	UnaryNode
	Items  []cypher.Expr
	Keys   []cypher.Expr
	Having cypher.Expr
}

// NewGroupBy creates a new aggregation node.
func NewGroupBy(items, keys []cypher.Expr, child cypher.Node) *GroupBy {
	return &GroupBy{UnaryNode: UnaryNode{Child: child}, Items: items, Keys: keys}
}

func (g *GroupBy) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(g, len(children), 1)
	}
	ng := *g
	ng.Child = children[0]
	return &ng, nil
}

// Expressions implements cypher.Expressioner. The order is items,
// keys, then having when present.
func (g *GroupBy) Expressions() []cypher.Expr {
	exprs := make([]cypher.Expr, 0, len(g.Items)+len(g.Keys)+1)
	exprs = append(exprs, g.Items...)
	exprs = append(exprs, g.Keys...)
	if g.Having != nil {
		exprs = append(exprs, g.Having)
	}
	return exprs
}

// WithExpressions implements cypher.Expressioner.
func (g *GroupBy) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	expected := len(g.Items) + len(g.Keys)
	if g.Having != nil {
		expected++
	}
	if len(exprs) != expected {
		return nil, cypher.ErrInvalidChildrenNumber(g, len(exprs), expected)
	}
	ng := *g
	ng.Items = exprs[:len(g.Items)]
	ng.Keys = exprs[len(g.Items) : len(g.Items)+len(g.Keys)]
	if g.Having != nil {
		ng.Having = exprs[len(exprs)-1]
	}
	return &ng, nil
}

func (g *GroupBy) String() string {
	items := make([]string, len(g.Items))
	for i, e := range g.Items {
		items[i] = e.String()
	}
	keys := make([]string, len(g.Keys))
	for i, e := range g.Keys {
		keys[i] = e.String()
	}
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("GroupBy(%s grouped by %s)", strings.Join(items, ", "), strings.Join(keys, ", "))
	_ = p.WriteChildren(g.Child.String())
	return p.String()
}
