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

// Operator tokens. The render layer maps these one-to-one onto SQL
// tokens, except Pow which becomes the pow() builtin.
const (
	OpEq        = "="
	OpNotEq     = "<>"
	OpLt        = "<"
	OpGt        = ">"
	OpLtEq      = "<="
	OpGtEq      = ">="
	OpPlus      = "+"
	OpMinus     = "-"
	OpMult      = "*"
	OpDiv       = "/"
	OpMod       = "%"
	OpPow       = "^"
	OpAnd       = "AND"
	OpOr        = "OR"
	OpNot       = "NOT"
	OpIn        = "IN"
	OpNotIn     = "NOT IN"
	OpIsNull    = "IS NULL"
	OpIsNotNull = "IS NOT NULL"
	OpDistinct  = "DISTINCT"
)

// Op is an operator application: unary with one operand, binary with
// two, or an n-ary AND/OR chain that the render layer folds into a
// left-associative chain.
type Op struct {
	Operator string
	Operands []cypher.Expr
}

// NewOp creates an operator application.
func NewOp(operator string, operands ...cypher.Expr) *Op {
	return &Op{Operator: operator, Operands: operands}
}

// NewAnd chains the given predicates with AND, flattening singletons.
func NewAnd(preds ...cypher.Expr) cypher.Expr {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return NewOp(OpAnd, preds...)
}

// NewNot negates the given predicate.
func NewNot(pred cypher.Expr) *Op {
	return NewOp(OpNot, pred)
}

// IsUnary reports whether the operator applies to one operand.
func (o *Op) IsUnary() bool {
	return len(o.Operands) == 1
}

func (o *Op) Children() []cypher.Expr { return o.Operands }

func (o *Op) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != len(o.Operands) {
		return nil, cypher.ErrInvalidChildrenNumber(o, len(children), len(o.Operands))
	}
	return NewOp(o.Operator, children...), nil
}

func (o *Op) String() string {
	switch len(o.Operands) {
	case 1:
		switch o.Operator {
		case OpIsNull, OpIsNotNull:
			return "(" + o.Operands[0].String() + " " + o.Operator + ")"
		}
		return "(" + o.Operator + " " + o.Operands[0].String() + ")"
	default:
		parts := make([]string, len(o.Operands))
		for i, op := range o.Operands {
			parts[i] = op.String()
		}
		return "(" + strings.Join(parts, " "+o.Operator+" ") + ")"
	}
}

// SplitConjunction breaks an AND chain into its leaf predicates. Any
// non-AND expression is returned as a single-element slice.
func SplitConjunction(expr cypher.Expr) []cypher.Expr {
	if expr == nil {
		return nil
	}
	op, ok := expr.(*Op)
	if !ok || op.Operator != OpAnd {
		return []cypher.Expr{expr}
	}
	var out []cypher.Expr
	for _, operand := range op.Operands {
		out = append(out, SplitConjunction(operand)...)
	}
	return out
}

// JoinAnd is the inverse of SplitConjunction: nil for no predicates,
// the predicate itself for one, an AND chain otherwise.
func JoinAnd(preds ...cypher.Expr) cypher.Expr {
	var nonNil []cypher.Expr
	for _, p := range preds {
		if p != nil {
			nonNil = append(nonNil, p)
		}
	}
	return NewAnd(nonNil...)
}

// ReferencedAliases collects, in first-seen order, every alias that
// the expression reads via property access, bare variable, or
// qualified star.
func ReferencedAliases(expr cypher.Expr) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(alias string) {
		if alias == "" {
			return
		}
		if _, ok := seen[alias]; ok {
			return
		}
		seen[alias] = struct{}{}
		out = append(out, alias)
	}
	var walk func(e cypher.Expr)
	walk = func(e cypher.Expr) {
		if e == nil {
			return
		}
		switch e := e.(type) {
		case *Property:
			add(e.Alias)
		case *Var:
			add(e.VarName)
		case *Star:
			add(e.Alias)
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(expr)
	return out
}
