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

package planbuilder

import (
	"sort"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/ast"
	"github.com/genezhang/clickgraph/cypher/expression"
)

// buildExpr converts a parsed expression to a logical expression.
func (b *Builder) buildExpr(e ast.Expr) (cypher.Expr, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return expression.NewLiteral(e.Value), nil

	case *ast.Variable:
		return expression.NewVar(e.Name), nil

	case *ast.Property:
		return expression.NewProperty(e.Subject, e.Key), nil

	case *ast.Parameter:
		b.ctx.AddParameter(e.Name)
		return expression.NewParameter(e.Name), nil

	case *ast.Star:
		return expression.NewStar(), nil

	case *ast.FuncCall:
		args := make([]cypher.Expr, len(e.Args))
		for i, a := range e.Args {
			var err error
			args[i], err = b.buildExpr(a)
			if err != nil {
				return nil, err
			}
		}
		f := expression.NewFuncCall(e.Name, args...)
		f.Distinct = e.Distinct
		return f, nil

	case *ast.Op:
		operands := make([]cypher.Expr, len(e.Operands))
		for i, o := range e.Operands {
			var err error
			operands[i], err = b.buildExpr(o)
			if err != nil {
				return nil, err
			}
		}
		return expression.NewOp(e.Operator, operands...), nil

	case *ast.List:
		items := make([]cypher.Expr, len(e.Items))
		for i, item := range e.Items {
			var err error
			items[i], err = b.buildExpr(item)
			if err != nil {
				return nil, err
			}
		}
		return expression.NewList(items...), nil

	case *ast.Case:
		return b.buildCase(e)

	case *ast.InSubquery:
		left, err := b.buildExpr(e.Left)
		if err != nil {
			return nil, err
		}
		sub, err := newSubBuilder(b).BuildStatement(e.Query)
		if err != nil {
			return nil, err
		}
		return expression.NewInSubquery(left, sub), nil

	case *ast.ExistsSubquery:
		sub, err := newSubBuilder(b).BuildStatement(e.Query)
		if err != nil {
			return nil, err
		}
		return expression.NewExistsSubquery(sub), nil

	default:
		return nil, cypher.ErrMalformedClause.New("expression", "unknown expression type")
	}
}

func (b *Builder) buildCase(e *ast.Case) (cypher.Expr, error) {
	var operand cypher.Expr
	var err error
	if e.Operand != nil {
		operand, err = b.buildExpr(e.Operand)
		if err != nil {
			return nil, err
		}
	}
	branches := make([]expression.CaseBranch, len(e.Whens))
	for i, w := range e.Whens {
		when, err := b.buildExpr(w.When)
		if err != nil {
			return nil, err
		}
		then, err := b.buildExpr(w.Then)
		if err != nil {
			return nil, err
		}
		branches[i] = expression.CaseBranch{When: when, Then: then}
	}
	var elseExpr cypher.Expr
	if e.Else != nil {
		elseExpr, err = b.buildExpr(e.Else)
		if err != nil {
			return nil, err
		}
	}
	return expression.NewCase(operand, branches, elseExpr), nil
}

func sortedPropKeys(props map[string]ast.Expr) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
