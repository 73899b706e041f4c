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

package render

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/genezhang/clickgraph/cypher/expression"
)

// RenderExpr is a fully resolved SQL expression: every column carries
// its final table alias and physical column name, and rendering is a
// pure string operation.
type RenderExpr interface {
	SQL() string
}

// Literal renders a constant. Strings escape single quotes by
// doubling; booleans render as the ClickHouse literals true/false.
type Literal struct {
	Value interface{}
}

func (l *Literal) SQL() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float32, float64:
		return cast.ToString(v)
	default:
		return cast.ToString(v)
	}
}

// Column is a table-qualified column reference. An empty Table renders
// a bare column, for projected aliases of an enclosing scope.
type Column struct {
	Table string
	Name  string
}

func (c *Column) SQL() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// Param is a named query parameter, rendered in ClickHouse client
// placeholder form.
type Param struct {
	Name string
}

func (p *Param) SQL() string { return "$" + p.Name }

// Raw is a pre-rendered SQL fragment, used for algorithm CTE bodies
// and subqueries emitted out of band.
type Raw struct {
	Text string
}

func (r *Raw) SQL() string { return r.Text }

// Star renders `*`.
type Star struct{}

func (Star) SQL() string { return "*" }

// List renders a ClickHouse array literal.
type List struct {
	Items []RenderExpr
}

func (l *List) SQL() string {
	items := make([]string, len(l.Items))
	for i, it := range l.Items {
		items[i] = it.SQL()
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// FuncExpr is a function call over rendered arguments.
type FuncExpr struct {
	Name     string
	Distinct bool
	Args     []RenderExpr
}

func (f *FuncExpr) SQL() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.SQL()
	}
	distinct := ""
	if f.Distinct {
		distinct = "DISTINCT "
	}
	return fmt.Sprintf("%s(%s%s)", f.Name, distinct, strings.Join(args, ", "))
}

// Op applies an operator to rendered operands. AND and OR fold their
// operand lists into left-associative chains; OR operands nested under
// an AND are parenthesised.
type Op struct {
	Operator string
	Operands []RenderExpr
}

func (o *Op) SQL() string {
	switch o.Operator {
	case expression.OpAnd:
		parts := make([]string, len(o.Operands))
		for i, op := range o.Operands {
			parts[i] = parenIfOr(op)
		}
		return strings.Join(parts, " AND ")
	case expression.OpOr:
		parts := make([]string, len(o.Operands))
		for i, op := range o.Operands {
			parts[i] = op.SQL()
		}
		return strings.Join(parts, " OR ")
	case expression.OpNot:
		return "NOT (" + o.Operands[0].SQL() + ")"
	case expression.OpIsNull:
		return o.Operands[0].SQL() + " IS NULL"
	case expression.OpIsNotNull:
		return o.Operands[0].SQL() + " IS NOT NULL"
	case expression.OpPow:
		return fmt.Sprintf("pow(%s, %s)", o.Operands[0].SQL(), o.Operands[1].SQL())
	case expression.OpIn, expression.OpNotIn:
		return fmt.Sprintf("%s %s %s", o.Operands[0].SQL(), o.Operator, inOperand(o.Operands[1]))
	default:
		if len(o.Operands) == 2 {
			return fmt.Sprintf("%s %s %s", o.Operands[0].SQL(), o.Operator, o.Operands[1].SQL())
		}
		parts := make([]string, len(o.Operands))
		for i, op := range o.Operands {
			parts[i] = op.SQL()
		}
		return strings.Join(parts, " "+o.Operator+" ")
	}
}

func parenIfOr(e RenderExpr) string {
	if op, ok := e.(*Op); ok && op.Operator == expression.OpOr {
		return "(" + op.SQL() + ")"
	}
	return e.SQL()
}

// inOperand renders the right side of IN: lists become value tuples,
// anything else (a subquery) is taken as already parenthesised.
func inOperand(e RenderExpr) string {
	if l, ok := e.(*List); ok {
		items := make([]string, len(l.Items))
		for i, it := range l.Items {
			items[i] = it.SQL()
		}
		return "(" + strings.Join(items, ", ") + ")"
	}
	return e.SQL()
}

// CaseBranch is one WHEN/THEN pair of a Case.
type CaseBranch struct {
	When RenderExpr
	Then RenderExpr
}

// Case renders CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type Case struct {
	Operand  RenderExpr
	Branches []CaseBranch
	Else     RenderExpr
}

func (c *Case) SQL() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if c.Operand != nil {
		sb.WriteString(" " + c.Operand.SQL())
	}
	for _, b := range c.Branches {
		sb.WriteString(" WHEN " + b.When.SQL() + " THEN " + b.Then.SQL())
	}
	if c.Else != nil {
		sb.WriteString(" ELSE " + c.Else.SQL())
	}
	sb.WriteString(" END")
	return sb.String()
}
