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

// Package transform rewrites logical plan and expression trees from
// the bottom up. Every callback reports a TreeIdentity so unchanged
// subtrees keep their identity and are shared between the input and
// output trees.
package transform

import (
	"errors"

	"github.com/genezhang/clickgraph/cypher"
)

// TreeIdentity tracks whether a transformation rebuilt its subtree.
type TreeIdentity bool

const (
	// SameTree is returned when the subtree was left untouched.
	SameTree TreeIdentity = true
	// NewTree is returned when the subtree was rebuilt.
	NewTree TreeIdentity = false
)

// NodeFunc is a transformation applied to one plan node.
type NodeFunc func(n cypher.Node) (cypher.Node, TreeIdentity, error)

// ExprFunc is a transformation applied to one expression node.
type ExprFunc func(e cypher.Expr) (cypher.Expr, TreeIdentity, error)

// Node applies f to the given plan tree from the bottom up.
func Node(n cypher.Node, f NodeFunc) (cypher.Node, TreeIdentity, error) {
	children := n.Children()
	if len(children) == 0 {
		return f(n)
	}

	var newChildren []cypher.Node
	for i := 0; i < len(children); i++ {
		c, same, err := Node(children[i], f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]cypher.Node, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = c
		}
	}

	sameC := SameTree
	if len(newChildren) > 0 {
		sameC = NewTree
		var err error
		n, err = n.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
	}

	n, sameN, err := f(n)
	if err != nil {
		return nil, SameTree, err
	}
	return n, sameC && sameN, nil
}

// Expr applies f to the given expression tree from the bottom up.
func Expr(e cypher.Expr, f ExprFunc) (cypher.Expr, TreeIdentity, error) {
	children := e.Children()
	if len(children) == 0 {
		return f(e)
	}

	var newChildren []cypher.Expr
	for i := 0; i < len(children); i++ {
		c, same, err := Expr(children[i], f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]cypher.Expr, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = c
		}
	}

	sameC := SameTree
	if len(newChildren) > 0 {
		sameC = NewTree
		var err error
		e, err = e.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
	}

	e, sameN, err := f(e)
	if err != nil {
		return nil, SameTree, err
	}
	return e, sameC && sameN, nil
}

// NodeExprs applies f to every expression of every Expressioner node
// in the plan, bottom up.
func NodeExprs(n cypher.Node, f ExprFunc) (cypher.Node, TreeIdentity, error) {
	return Node(n, func(n cypher.Node) (cypher.Node, TreeIdentity, error) {
		ex, ok := n.(cypher.Expressioner)
		if !ok {
			return n, SameTree, nil
		}
		exprs := ex.Expressions()
		if len(exprs) == 0 {
			return n, SameTree, nil
		}

		var newExprs []cypher.Expr
		for i := 0; i < len(exprs); i++ {
			e, same, err := Expr(exprs[i], f)
			if err != nil {
				return nil, SameTree, err
			}
			if !same {
				if newExprs == nil {
					newExprs = make([]cypher.Expr, len(exprs))
					copy(newExprs, exprs)
				}
				newExprs[i] = e
			}
		}
		if newExprs == nil {
			return n, SameTree, nil
		}
		nn, err := ex.WithExpressions(newExprs...)
		if err != nil {
			return nil, SameTree, err
		}
		return nn, NewTree, nil
	})
}

// Inspect performs a pre-order traversal of the plan; when f returns
// false the subtree below the node is skipped.
func Inspect(n cypher.Node, f func(cypher.Node) bool) bool {
	if !f(n) {
		return false
	}
	for _, child := range n.Children() {
		if !Inspect(child, f) {
			return false
		}
	}
	return true
}

// InspectExpr traverses the expression tree bottom up, stopping when f
// returns true. It reports whether traversal was interrupted.
func InspectExpr(e cypher.Expr, f func(cypher.Expr) bool) bool {
	stop := errors.New("stop")
	_, _, err := Expr(e, func(e cypher.Expr) (cypher.Expr, TreeIdentity, error) {
		if f(e) {
			return nil, SameTree, stop
		}
		return e, SameTree, nil
	})
	return errors.Is(err, stop)
}

// InspectExpressions calls f on every expression of every
// Expressioner in the plan, in pre-order; returning false from f stops
// descent into that expression.
func InspectExpressions(n cypher.Node, f func(cypher.Expr) bool) {
	Inspect(n, func(n cypher.Node) bool {
		if ex, ok := n.(cypher.Expressioner); ok {
			for _, e := range ex.Expressions() {
				inspectExprTopDown(e, f)
			}
		}
		return true
	})
}

func inspectExprTopDown(e cypher.Expr, f func(cypher.Expr) bool) {
	if !f(e) {
		return
	}
	for _, c := range e.Children() {
		inspectExprTopDown(c, f)
	}
}
