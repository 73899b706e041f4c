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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genezhang/clickgraph/cypher/expression"
)

func TestLiteralRendering(t *testing.T) {
	cases := []struct {
		value    interface{}
		expected string
	}{
		{nil, "NULL"},
		{"alice", "'alice'"},
		{"O'Brien", "'O''Brien'"},
		{true, "true"},
		{false, "false"},
		{int64(42), "42"},
		{3.5, "3.5"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, (&Literal{Value: c.value}).SQL())
	}
}

func TestColumnAndParam(t *testing.T) {
	require.Equal(t, "u.full_name", (&Column{Table: "u", Name: "full_name"}).SQL())
	require.Equal(t, "full_name", (&Column{Name: "full_name"}).SQL())
	require.Equal(t, "$minAge", (&Param{Name: "minAge"}).SQL())
}

func TestOpAndParenthesisesOr(t *testing.T) {
	age := &Column{Table: "u", Name: "age"}
	name := &Column{Table: "u", Name: "full_name"}
	or := &Op{Operator: expression.OpOr, Operands: []RenderExpr{
		&Op{Operator: "=", Operands: []RenderExpr{name, &Literal{Value: "alice"}}},
		&Op{Operator: "=", Operands: []RenderExpr{name, &Literal{Value: "bob"}}},
	}}
	and := &Op{Operator: expression.OpAnd, Operands: []RenderExpr{
		&Op{Operator: ">", Operands: []RenderExpr{age, &Literal{Value: 30}}},
		or,
	}}
	require.Equal(t,
		"u.age > 30 AND (u.full_name = 'alice' OR u.full_name = 'bob')",
		and.SQL())
}

func TestOpSpecialForms(t *testing.T) {
	col := &Column{Table: "u", Name: "age"}

	require.Equal(t, "NOT (u.age > 1)",
		(&Op{Operator: expression.OpNot, Operands: []RenderExpr{
			&Op{Operator: ">", Operands: []RenderExpr{col, &Literal{Value: 1}}},
		}}).SQL())

	require.Equal(t, "u.age IS NULL",
		(&Op{Operator: expression.OpIsNull, Operands: []RenderExpr{col}}).SQL())

	require.Equal(t, "pow(u.age, 2)",
		(&Op{Operator: expression.OpPow, Operands: []RenderExpr{col, &Literal{Value: 2}}}).SQL())

	require.Equal(t, "u.age IN (1, 2, 3)",
		(&Op{Operator: expression.OpIn, Operands: []RenderExpr{
			col,
			&List{Items: []RenderExpr{&Literal{Value: 1}, &Literal{Value: 2}, &Literal{Value: 3}}},
		}}).SQL())
}

func TestFuncExprDistinct(t *testing.T) {
	f := &FuncExpr{Name: "count", Distinct: true, Args: []RenderExpr{&Column{Table: "u", Name: "user_id"}}}
	require.Equal(t, "count(DISTINCT u.user_id)", f.SQL())
}

func TestCaseRendering(t *testing.T) {
	c := &Case{
		Branches: []CaseBranch{
			{
				When: &Op{Operator: "<", Operands: []RenderExpr{&Column{Table: "u", Name: "age"}, &Literal{Value: 18}}},
				Then: &Literal{Value: "minor"},
			},
		},
		Else: &Literal{Value: "adult"},
	}
	require.Equal(t,
		"CASE WHEN u.age < 18 THEN 'minor' ELSE 'adult' END",
		c.SQL())
}
