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

// Package plan holds the logical plan operators built from a Cypher
// query. The tree is immutable; analyzer passes rewrite it through
// the transform package, sharing unchanged subtrees.
package plan

import (
	"github.com/genezhang/clickgraph/cypher"
)

// UnaryNode is a node with one child.
type UnaryNode struct {
	Child cypher.Node
}

// Children implements cypher.Node.
func (n UnaryNode) Children() []cypher.Node {
	return []cypher.Node{n.Child}
}

// BinaryNode is a node with two children.
type BinaryNode struct {
	left, right cypher.Node
}

// Left returns the left child.
func (n BinaryNode) Left() cypher.Node { return n.left }

// Right returns the right child.
func (n BinaryNode) Right() cypher.Node { return n.right }

// Children implements cypher.Node.
func (n BinaryNode) Children() []cypher.Node {
	return []cypher.Node{n.left, n.right}
}

// SortField is one ORDER BY key.
type SortField struct {
	Expr       cypher.Expr
	Descending bool
}

func (s SortField) String() string {
	if s.Descending {
		return s.Expr.String() + " DESC"
	}
	return s.Expr.String() + " ASC"
}
