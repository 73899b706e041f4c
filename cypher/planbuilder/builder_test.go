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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/ast"
	"github.com/genezhang/clickgraph/cypher/plan"
)

func testSchema() *cypher.GraphSchema {
	return &cypher.GraphSchema{
		Nodes: map[string]*cypher.NodeSchema{
			"User": {
				Label:     "User",
				TableName: "users",
				NodeID:    []string{"user_id"},
				PropertyMappings: map[string]string{
					"id":   "user_id",
					"name": "full_name",
				},
			},
			"Post": {
				Label:     "Post",
				TableName: "posts",
				NodeID:    []string{"post_id"},
				PropertyMappings: map[string]string{
					"id":    "post_id",
					"title": "title",
				},
			},
		},
		Relationships: map[string]*cypher.RelationshipSchema{
			"FOLLOWS": {
				TypeName:   "FOLLOWS",
				TableName:  "user_follows",
				FromNode:   "User",
				ToNode:     "User",
				FromColumn: "follower_id",
				ToColumn:   "followed_id",
			},
		},
	}
}

func userNode(v string) *ast.NodePattern {
	return &ast.NodePattern{Variable: v, Labels: []string{"User"}}
}

func follows(v string, dir ast.Direction) *ast.RelPattern {
	return &ast.RelPattern{Variable: v, Types: []string{"FOLLOWS"}, Direction: dir}
}

func returnProp(alias, key string) *ast.Return {
	return &ast.Return{Items: []*ast.Item{{
		Expr: &ast.Property{Subject: alias, Key: key},
	}}}
}

func intp(n int64) *int64 { return &n }

func TestBuildMatchReturnShape(t *testing.T) {
	b := New(testSchema())
	n, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{
			userNode("a"), follows("r", ast.Outgoing), userNode("b"),
		}}}},
		returnProp("b", "name"),
	}}})
	require.NoError(t, err)

	proj, ok := n.(*plan.Projection)
	require.True(t, ok)
	require.Equal(t, plan.ReturnProjection, proj.Kind)

	rel, ok := proj.Child.(*plan.GraphRel)
	require.True(t, ok)
	require.Equal(t, "r", rel.Alias)
	require.Equal(t, "a", rel.LeftConnection)
	require.Equal(t, "b", rel.RightConnection)
	require.Equal(t, "FOLLOWS", rel.Type())

	require.Equal(t, cypher.NodeAlias, b.Ctx().Binding("a").Kind)
	require.Equal(t, cypher.RelAlias, b.Ctx().Binding("r").Kind)
}

func TestBuildIncomingNormalisesEndpoints(t *testing.T) {
	b := New(testSchema())
	n, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{
			userNode("a"), follows("r", ast.Incoming), userNode("b"),
		}}}},
		returnProp("a", "name"),
	}}})
	require.NoError(t, err)

	rel := n.(*plan.Projection).Child.(*plan.GraphRel)
	// The textual right node writes the edge; connections are stored
	// from-side first.
	require.Equal(t, "b", rel.LeftConnection)
	require.Equal(t, "a", rel.RightConnection)
	require.Equal(t, plan.Incoming, rel.Direction)
}

func TestBuildInvalidVarLengthBounds(t *testing.T) {
	b := New(testSchema())
	_, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{
			userNode("a"),
			&ast.RelPattern{Types: []string{"FOLLOWS"}, Direction: ast.Outgoing,
				VarLength: &ast.VarLength{Min: intp(3), Max: intp(1)}},
			userNode("b"),
		}}}},
		returnProp("b", "name"),
	}}})
	require.Error(t, err)
	require.True(t, cypher.ErrInvalidVariableLengthBounds.Is(err))
}

func TestBuildReturnPaginationWrapping(t *testing.T) {
	b := New(testSchema())
	n, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{userNode("u")}}}},
		&ast.Return{
			Items:   []*ast.Item{{Expr: &ast.Property{Subject: "u", Key: "name"}}},
			OrderBy: []ast.SortItem{{Expr: &ast.Property{Subject: "u", Key: "name"}}},
			Skip:    intp(2),
			Limit:   intp(5),
		},
	}}})
	require.NoError(t, err)

	limit, ok := n.(*plan.Limit)
	require.True(t, ok)
	require.Equal(t, int64(5), limit.N)
	skip, ok := limit.Child.(*plan.Skip)
	require.True(t, ok)
	require.Equal(t, int64(2), skip.N)
	_, ok = skip.Child.(*plan.OrderBy)
	require.True(t, ok)
}

func TestBuildUnionHoistsTrailingPagination(t *testing.T) {
	seg := func(alias string, limit *int64) *ast.Query {
		return &ast.Query{Clauses: []ast.Clause{
			&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{userNode(alias)}}}},
			&ast.Return{
				Items: []*ast.Item{{Expr: &ast.Property{Subject: alias, Key: "name"}, Alias: "name"}},
				Limit: limit,
			},
		}}
	}

	b := New(testSchema())
	n, err := b.BuildStatement(&ast.Statement{
		Query:     seg("a", nil),
		UnionTail: []ast.UnionSegment{{Type: ast.UnionAll, Query: seg("b", intp(7))}},
	})
	require.NoError(t, err)

	limit, ok := n.(*plan.Limit)
	require.True(t, ok)
	require.Equal(t, int64(7), limit.N)
	u, ok := limit.Child.(*plan.Union)
	require.True(t, ok)
	require.Len(t, u.Inputs, 2)
	require.Equal(t, plan.UnionAll, u.Type)
}

func TestBuildMixedUnionTypesRejected(t *testing.T) {
	seg := func(alias string) *ast.Query {
		return &ast.Query{Clauses: []ast.Clause{
			&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{userNode(alias)}}}},
			returnProp(alias, "name"),
		}}
	}

	b := New(testSchema())
	_, err := b.BuildStatement(&ast.Statement{
		Query: seg("a"),
		UnionTail: []ast.UnionSegment{
			{Type: ast.UnionAll, Query: seg("b")},
			{Type: ast.UnionDistinct, Query: seg("c")},
		},
	})
	require.Error(t, err)
	require.True(t, cypher.ErrMalformedClause.Is(err))
}

func TestBuildWithBindsExportedAliases(t *testing.T) {
	b := New(testSchema())
	n, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{userNode("u")}}}},
		&ast.With{Items: []*ast.Item{{Expr: &ast.Property{Subject: "u", Key: "name"}, Alias: "n"}}},
		&ast.Return{Items: []*ast.Item{{Expr: &ast.Variable{Name: "n"}}}},
	}}})
	require.NoError(t, err)

	w := n.(*plan.Projection).Child.(*plan.WithClause)
	require.Equal(t, []string{"n"}, w.ExportedAliases)
	require.Equal(t, cypher.ValueAlias, b.Ctx().Binding("n").Kind)
}

func TestBuildUnwindLinksCollectedSource(t *testing.T) {
	b := New(testSchema())
	_, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{userNode("u")}}}},
		&ast.With{Items: []*ast.Item{{
			Expr:  &ast.FuncCall{Name: "collect", Args: []ast.Expr{&ast.Variable{Name: "u"}}},
			Alias: "xs",
		}}},
		&ast.Unwind{Expr: &ast.Variable{Name: "xs"}, Alias: "y"},
		returnProp("y", "name"),
	}}})
	require.NoError(t, err)

	src, ok := b.Ctx().UnwindSource("y")
	require.True(t, ok)
	require.Equal(t, "u", src)
}

func TestBuildParameterOrderAndDedupe(t *testing.T) {
	param := func(name string) ast.Expr { return &ast.Parameter{Name: name} }
	cmp := func(alias, key string, v ast.Expr) ast.Expr {
		return &ast.Op{Operator: "=", Operands: []ast.Expr{
			&ast.Property{Subject: alias, Key: key}, v,
		}}
	}

	b := New(testSchema())
	_, err := b.BuildStatement(&ast.Statement{Query: &ast.Query{Clauses: []ast.Clause{
		&ast.Match{
			Patterns: []*ast.Pattern{{Elements: []ast.PatternElement{userNode("u")}}},
			Where: &ast.Op{Operator: "AND", Operands: []ast.Expr{
				cmp("u", "id", param("x")),
				cmp("u", "name", param("y")),
				cmp("u", "id", param("x")),
			}},
		},
		returnProp("u", "name"),
	}}})
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, b.Ctx().Parameters)
}
