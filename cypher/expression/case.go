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

package expression

import (
	"strings"

	"github.com/genezhang/clickgraph/cypher"
)

// CaseBranch is one WHEN/THEN arm of a CASE expression.
type CaseBranch struct {
	When cypher.Expr
	Then cypher.Expr
}

// Case is a CASE expression. Operand is nil for the searched form.
// The children are flattened as [operand?] when1 then1 ... [else?] so
// tree transforms reach every subexpression.
type Case struct {
	Operand  cypher.Expr
	Branches []CaseBranch
	Else     cypher.Expr
}

// NewCase creates a new CASE expression.
func NewCase(operand cypher.Expr, branches []CaseBranch, elseExpr cypher.Expr) *Case {
	return &Case{Operand: operand, Branches: branches, Else: elseExpr}
}

func (c *Case) Children() []cypher.Expr {
	var children []cypher.Expr
	if c.Operand != nil {
		children = append(children, c.Operand)
	}
	for _, b := range c.Branches {
		children = append(children, b.When, b.Then)
	}
	if c.Else != nil {
		children = append(children, c.Else)
	}
	return children
}

func (c *Case) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	expected := len(c.Branches) * 2
	if c.Operand != nil {
		expected++
	}
	if c.Else != nil {
		expected++
	}
	if len(children) != expected {
		return nil, cypher.ErrInvalidChildrenNumber(c, len(children), expected)
	}

	i := 0
	nc := &Case{}
	if c.Operand != nil {
		nc.Operand = children[i]
		i++
	}
	for range c.Branches {
		nc.Branches = append(nc.Branches, CaseBranch{When: children[i], Then: children[i+1]})
		i += 2
	}
	if c.Else != nil {
		nc.Else = children[i]
	}
	return nc, nil
}

func (c *Case) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if c.Operand != nil {
		sb.WriteString(" " + c.Operand.String())
	}
	for _, b := range c.Branches {
		sb.WriteString(" WHEN " + b.When.String() + " THEN " + b.Then.String())
	}
	if c.Else != nil {
		sb.WriteString(" ELSE " + c.Else.String())
	}
	sb.WriteString(" END")
	return sb.String()
}
