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
	"github.com/genezhang/clickgraph/cypher"
)

// Filter keeps the rows of its child matching the predicate.
type Filter struct {
	UnaryNode
	Predicate cypher.Expr
}

// NewFilter creates a new filter over the child plan.
func NewFilter(predicate cypher.Expr, child cypher.Node) *Filter {
	return &Filter{UnaryNode: UnaryNode{Child: child}, Predicate: predicate}
}

func (f *Filter) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(f, len(children), 1)
	}
	return NewFilter(f.Predicate, children[0]), nil
}

// Expressions implements cypher.Expressioner.
func (f *Filter) Expressions() []cypher.Expr {
	return []cypher.Expr{f.Predicate}
}

// WithExpressions implements cypher.Expressioner.
func (f *Filter) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	if len(exprs) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(f, len(exprs), 1)
	}
	return NewFilter(exprs[0], f.Child), nil
}

func (f *Filter) String() string {
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("Filter(%s)", f.Predicate)
	_ = p.WriteChildren(f.Child.String())
	return p.String()
}
