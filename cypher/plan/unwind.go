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

// Unwind expands a list expression into one row per element, bound to
// Alias downstream.
type Unwind struct {
	UnaryNode
	Expression cypher.Expr
	Alias      string
}

// NewUnwind creates a new UNWIND over the child plan.
func NewUnwind(expr cypher.Expr, alias string, child cypher.Node) *Unwind {
	return &Unwind{UnaryNode: UnaryNode{Child: child}, Expression: expr, Alias: alias}
}

// Name implements cypher.Nameable.
func (u *Unwind) Name() string { return u.Alias }

func (u *Unwind) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(u, len(children), 1)
	}
	return NewUnwind(u.Expression, u.Alias, children[0]), nil
}

// Expressions implements cypher.Expressioner.
func (u *Unwind) Expressions() []cypher.Expr {
	return []cypher.Expr{u.Expression}
}

// WithExpressions implements cypher.Expressioner.
func (u *Unwind) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	if len(exprs) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(u, len(exprs), 1)
	}
	return NewUnwind(exprs[0], u.Alias, u.Child), nil
}

func (u *Unwind) String() string {
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("Unwind(%s AS %s)", u.Expression, u.Alias)
	_ = p.WriteChildren(u.Child.String())
	return p.String()
}
