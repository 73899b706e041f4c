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

// CartesianProduct joins two disconnected patterns. Optional marks a
// product introduced by OPTIONAL MATCH; a non-nil JoinCondition turns
// it into a conditioned join at render time.
type CartesianProduct struct {
	BinaryNode
	Optional      bool
	JoinCondition cypher.Expr
}

// NewCartesianProduct creates a new cross product of two plans.
func NewCartesianProduct(left, right cypher.Node) *CartesianProduct {
	return &CartesianProduct{BinaryNode: BinaryNode{left: left, right: right}}
}

func (c *CartesianProduct) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 2 {
		return nil, cypher.ErrInvalidChildrenNumber(c, len(children), 2)
	}
	nc := *c
	nc.left, nc.right = children[0], children[1]
	return &nc, nil
}

// Expressions implements cypher.Expressioner.
func (c *CartesianProduct) Expressions() []cypher.Expr {
	if c.JoinCondition == nil {
		return nil
	}
	return []cypher.Expr{c.JoinCondition}
}

// WithExpressions implements cypher.Expressioner.
func (c *CartesianProduct) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	expected := 0
	if c.JoinCondition != nil {
		expected = 1
	}
	if len(exprs) != expected {
		return nil, cypher.ErrInvalidChildrenNumber(c, len(exprs), expected)
	}
	nc := *c
	if expected == 1 {
		nc.JoinCondition = exprs[0]
	}
	return &nc, nil
}

func (c *CartesianProduct) String() string {
	p := cypher.NewTreePrinter()
	if c.Optional {
		_ = p.WriteNode("CartesianProduct(optional)")
	} else {
		_ = p.WriteNode("CartesianProduct")
	}
	_ = p.WriteChildren(c.left.String(), c.right.String())
	return p.String()
}
