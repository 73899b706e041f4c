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

package cypher

import (
	"fmt"
)

// Node is a node in the logical query plan. Nodes are immutable once
// constructed; rewrites produce new nodes via WithChildren, sharing
// unchanged subtrees.
type Node interface {
	fmt.Stringer
	// Children returns the immediate children of this node.
	Children() []Node
	// WithChildren returns a copy of this node with the children replaced.
	// It returns an error if the number of children is wrong for the node
	// type.
	WithChildren(children ...Node) (Node, error)
}

// Expr is a node in the logical expression tree. Like plan nodes,
// expressions are immutable and rewritten via WithChildren.
type Expr interface {
	fmt.Stringer
	Children() []Expr
	WithChildren(children ...Expr) (Expr, error)
}

// Nameable is anything in the plan that has a name.
type Nameable interface {
	Name() string
}

// Tableable is anything that is bound to an underlying table.
type Tableable interface {
	Table() string
}

// Expressioner is a plan node that holds expressions. Tree transforms
// use it to rewrite expressions in place across the whole plan.
type Expressioner interface {
	// Expressions returns the node's expressions in a fixed order.
	Expressions() []Expr
	// WithExpressions returns a copy of the node with the expressions
	// replaced, in the same order Expressions returned them.
	WithExpressions(exprs ...Expr) (Node, error)
}

// ErrInvalidChildrenNumber is raised by WithChildren implementations when
// handed the wrong number of children for the node type.
func ErrInvalidChildrenNumber(node interface{}, got, expected int) error {
	return ErrInternal.New(fmt.Sprintf("%T: invalid children number, got %d, expected %d", node, got, expected))
}
