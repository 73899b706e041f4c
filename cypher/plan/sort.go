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

// OrderBy sorts its child rows.
type OrderBy struct {
	UnaryNode
	Fields []SortField
}

// NewOrderBy creates a new sort over the child plan.
func NewOrderBy(fields []SortField, child cypher.Node) *OrderBy {
	return &OrderBy{UnaryNode: UnaryNode{Child: child}, Fields: fields}
}

func (o *OrderBy) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(o, len(children), 1)
	}
	return NewOrderBy(o.Fields, children[0]), nil
}

// Expressions implements cypher.Expressioner.
func (o *OrderBy) Expressions() []cypher.Expr {
	exprs := make([]cypher.Expr, len(o.Fields))
	for i, f := range o.Fields {
		exprs[i] = f.Expr
	}
	return exprs
}

// WithExpressions implements cypher.Expressioner.
func (o *OrderBy) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	if len(exprs) != len(o.Fields) {
		return nil, cypher.ErrInvalidChildrenNumber(o, len(exprs), len(o.Fields))
	}
	fields := make([]SortField, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = SortField{Expr: exprs[i], Descending: f.Descending}
	}
	return NewOrderBy(fields, o.Child), nil
}

func (o *OrderBy) String() string {
	fields := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = f.String()
	}
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("OrderBy(%s)", strings.Join(fields, ", "))
	_ = p.WriteChildren(o.Child.String())
	return p.String()
}

// Skip drops the first N child rows.
type Skip struct {
	UnaryNode
	N int64
}

// NewSkip creates a new row offset.
func NewSkip(n int64, child cypher.Node) *Skip {
	return &Skip{UnaryNode: UnaryNode{Child: child}, N: n}
}

func (s *Skip) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(s, len(children), 1)
	}
	return NewSkip(s.N, children[0]), nil
}

func (s *Skip) String() string {
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("Skip(%d)", s.N)
	_ = p.WriteChildren(s.Child.String())
	return p.String()
}

// Limit keeps the first N child rows.
type Limit struct {
	UnaryNode
	N int64
}

// NewLimit creates a new row limit.
func NewLimit(n int64, child cypher.Node) *Limit {
	return &Limit{UnaryNode: UnaryNode{Child: child}, N: n}
}

func (l *Limit) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(l, len(children), 1)
	}
	return NewLimit(l.N, children[0]), nil
}

func (l *Limit) String() string {
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("Limit(%d)", l.N)
	_ = p.WriteChildren(l.Child.String())
	return p.String()
}
