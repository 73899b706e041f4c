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

// WithClause is a scope boundary: only ExportedAliases are visible to
// downstream clauses. WHERE after WITH lives in Where; ORDER BY, SKIP
// and LIMIT after WITH live here rather than as wrapping nodes.
type WithClause struct {
	UnaryNode
	Items    []cypher.Expr
	Distinct bool
	OrderBy  []SortField
	Skip     *int64
	Limit    *int64
	Where    cypher.Expr
	// ExportedAliases are the aliases visible downstream, in item
	// order: the explicit AS alias when present, else the base
	// variable.
	ExportedAliases []string
}

// NewWithClause creates a new scope boundary over the child plan.
func NewWithClause(items []cypher.Expr, exported []string, child cypher.Node) *WithClause {
	return &WithClause{
		UnaryNode:       UnaryNode{Child: child},
		Items:           items,
		ExportedAliases: exported,
	}
}

// Exports reports whether the alias is visible downstream.
func (w *WithClause) Exports(alias string) bool {
	for _, a := range w.ExportedAliases {
		if a == alias {
			return true
		}
	}
	return false
}

// HasPagination reports whether the clause carries ORDER BY, SKIP or
// LIMIT.
func (w *WithClause) HasPagination() bool {
	return len(w.OrderBy) > 0 || w.Skip != nil || w.Limit != nil
}

func (w *WithClause) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(w, len(children), 1)
	}
	nw := *w
	nw.Child = children[0]
	return &nw, nil
}

// Expressions implements cypher.Expressioner. Order: items, order-by
// keys, then where when present.
func (w *WithClause) Expressions() []cypher.Expr {
	exprs := make([]cypher.Expr, 0, len(w.Items)+len(w.OrderBy)+1)
	exprs = append(exprs, w.Items...)
	for _, f := range w.OrderBy {
		exprs = append(exprs, f.Expr)
	}
	if w.Where != nil {
		exprs = append(exprs, w.Where)
	}
	return exprs
}

// WithExpressions implements cypher.Expressioner.
func (w *WithClause) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	expected := len(w.Items) + len(w.OrderBy)
	if w.Where != nil {
		expected++
	}
	if len(exprs) != expected {
		return nil, cypher.ErrInvalidChildrenNumber(w, len(exprs), expected)
	}
	nw := *w
	nw.Items = exprs[:len(w.Items)]
	nw.OrderBy = make([]SortField, len(w.OrderBy))
	for i, f := range w.OrderBy {
		nw.OrderBy[i] = SortField{Expr: exprs[len(w.Items)+i], Descending: f.Descending}
	}
	if w.Where != nil {
		nw.Where = exprs[len(exprs)-1]
	}
	return &nw, nil
}

func (w *WithClause) String() string {
	items := make([]string, len(w.Items))
	for i, item := range w.Items {
		items[i] = item.String()
	}
	p := cypher.NewTreePrinter()
	distinct := ""
	if w.Distinct {
		distinct = "DISTINCT "
	}
	_ = p.WriteNode("With(%s%s exports %s)", distinct, strings.Join(items, ", "), strings.Join(w.ExportedAliases, ", "))
	_ = p.WriteChildren(w.Child.String())
	return p.String()
}
