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

	"github.com/genezhang/clickgraph/cypher/plan"
)

func i64(n int64) *int64 { return &n }

func TestEmitSimpleSelect(t *testing.T) {
	p := &RenderPlan{
		Select: []SelectItem{
			{Expr: &Column{Table: "u", Name: "full_name"}, Alias: "u.name"},
		},
		From: &ViewTableRef{Name: "social.users", Alias: "u"},
	}
	require.Equal(t,
		`SELECT u.full_name AS "u.name" FROM social.users AS u`,
		p.SQL())
}

func TestEmitJoinsSortedByConditionCount(t *testing.T) {
	eq := func(lt, ln, rt, rn string) RenderExpr {
		return &Op{Operator: "=", Operands: []RenderExpr{
			&Column{Table: lt, Name: ln},
			&Column{Table: rt, Name: rn},
		}}
	}
	p := &RenderPlan{
		Select: []SelectItem{{Expr: Star{}}},
		From:   &ViewTableRef{Name: "users", Alias: "a"},
		Joins: []*Join{
			{TableName: "x", TableAlias: "x", Kind: plan.InnerJoin,
				On: []RenderExpr{eq("x", "a", "a", "id"), eq("x", "b", "b", "id")}},
			{TableName: "f", TableAlias: "f", Kind: plan.InnerJoin,
				On: []RenderExpr{eq("f", "follower_id", "a", "user_id")}},
		},
	}
	sql := p.SQL()
	require.Equal(t,
		"SELECT * FROM users AS a"+
			" INNER JOIN f AS f ON f.follower_id = a.user_id"+
			" INNER JOIN x AS x ON x.a = a.id AND x.b = b.id",
		sql)
}

func TestEmitLeftJoinWithPreFilter(t *testing.T) {
	p := &RenderPlan{
		Select: []SelectItem{{Expr: Star{}}},
		From:   &ViewTableRef{Name: "users", Alias: "u"},
		Joins: []*Join{
			{
				TableName:  "posts",
				TableAlias: "p",
				Kind:       plan.LeftJoin,
				On: []RenderExpr{&Op{Operator: "=", Operands: []RenderExpr{
					&Column{Table: "p", Name: "author_id"},
					&Column{Table: "u", Name: "user_id"},
				}}},
				PreFilter: &Op{Operator: ">", Operands: []RenderExpr{
					&Column{Table: "posts", Name: "score"},
					&Literal{Value: 10},
				}},
			},
		},
	}
	require.Contains(t, p.SQL(),
		"LEFT JOIN (SELECT * FROM posts WHERE posts.score > 10) AS p ON p.author_id = u.user_id")
}

func TestEmitLimitForms(t *testing.T) {
	base := func() *RenderPlan {
		return &RenderPlan{
			Select: []SelectItem{{Expr: Star{}}},
			From:   &ViewTableRef{Name: "users"},
		}
	}

	p := base()
	p.Limit = i64(10)
	require.Equal(t, "SELECT * FROM users LIMIT 10", p.SQL())

	p = base()
	p.Skip = i64(5)
	require.Equal(t, "SELECT * FROM users OFFSET 5", p.SQL())

	p = base()
	p.Skip = i64(5)
	p.Limit = i64(10)
	require.Equal(t, "SELECT * FROM users LIMIT 5, 10", p.SQL())
}

func TestEmitUnionChainWithTrailingLimit(t *testing.T) {
	second := &RenderPlan{
		Select: []SelectItem{{Expr: &Column{Table: "p", Name: "title"}, Alias: "name"}},
		From:   &ViewTableRef{Name: "posts", Alias: "p"},
	}
	p := &RenderPlan{
		Select: []SelectItem{{Expr: &Column{Table: "u", Name: "full_name"}, Alias: "name"}},
		From:   &ViewTableRef{Name: "users", Alias: "u"},
		Union:  &UnionTail{Type: plan.UnionAll, Plan: second},
		Limit:  i64(3),
	}
	require.Equal(t,
		`SELECT u.full_name AS "name" FROM users AS u`+
			` UNION ALL SELECT p.title AS "name" FROM posts AS p LIMIT 3`,
		p.SQL())
}

func TestEmitRecursiveCteKeyword(t *testing.T) {
	p := &RenderPlan{
		Ctes: []*Cte{
			{Name: "vlp_a_b", RawSQL: "SELECT 1", Recursive: true},
			{Name: "cte1", Structured: &RenderPlan{
				Select: []SelectItem{{Expr: Star{}}},
				From:   &ViewTableRef{Name: "vlp_a_b"},
			}},
		},
		Select: []SelectItem{{Expr: Star{}}},
		From:   &ViewTableRef{Name: "cte1"},
	}
	require.Equal(t,
		"WITH RECURSIVE vlp_a_b AS (SELECT 1), cte1 AS (SELECT * FROM vlp_a_b) SELECT * FROM cte1",
		p.SQL())
}

func TestEmitGroupByHavingOrderBy(t *testing.T) {
	p := &RenderPlan{
		Select: []SelectItem{
			{Expr: &Column{Table: "u", Name: "city"}, Alias: "city"},
			{Expr: &FuncExpr{Name: "count", Args: []RenderExpr{Star{}}}, Alias: "n"},
		},
		From:    &ViewTableRef{Name: "users", Alias: "u"},
		GroupBy: []RenderExpr{&Column{Table: "u", Name: "city"}},
		Having: &Op{Operator: ">", Operands: []RenderExpr{
			&FuncExpr{Name: "count", Args: []RenderExpr{Star{}}},
			&Literal{Value: 2},
		}},
		OrderBy: []OrderByItem{{Expr: &Column{Name: `"n"`}, Descending: true}},
	}
	require.Equal(t,
		`SELECT u.city AS "city", count(*) AS "n" FROM users AS u`+
			` GROUP BY u.city HAVING count(*) > 2 ORDER BY "n" DESC`,
		p.SQL())
}

func TestEmitFinalModifier(t *testing.T) {
	p := &RenderPlan{
		Select: []SelectItem{{Expr: Star{}}},
		From:   &ViewTableRef{Name: "users_view", Alias: "u", UseFinal: true},
	}
	require.Equal(t, "SELECT * FROM users_view AS u FINAL", p.SQL())
}
