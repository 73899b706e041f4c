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

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/ast"
	"github.com/genezhang/clickgraph/cypher/plan"
	"github.com/genezhang/clickgraph/cypher/planbuilder"
	"github.com/genezhang/clickgraph/cypher/transform"
)

func testSchema() *cypher.GraphSchema {
	return &cypher.GraphSchema{
		Database: "test_graph",
		Nodes: map[string]*cypher.NodeSchema{
			"User": {
				Label:     "User",
				Database:  "test_graph",
				TableName: "users",
				NodeID:    []string{"user_id"},
				PropertyMappings: map[string]string{
					"id":   "user_id",
					"name": "full_name",
					"age":  "age",
				},
			},
			"Post": {
				Label:     "Post",
				Database:  "test_graph",
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
				Database:   "test_graph",
				TableName:  "user_follows",
				FromNode:   "User",
				ToNode:     "User",
				FromColumn: "follower_id",
				ToColumn:   "followed_id",
				PropertyMappings: map[string]string{
					"since": "since",
				},
			},
			"WROTE": {
				TypeName:   "WROTE",
				Database:   "test_graph",
				TableName:  "user_posts",
				FromNode:   "User",
				ToNode:     "Post",
				FromColumn: "author_id",
				ToColumn:   "post_id",
			},
		},
	}
}

func buildPlan(t *testing.T, schema *cypher.GraphSchema, stmt *ast.Statement) (cypher.Node, *cypher.PlanCtx) {
	t.Helper()
	b := planbuilder.New(schema)
	n, err := b.BuildStatement(stmt)
	require.NoError(t, err)
	return n, b.Ctx()
}

func matchReturn(patterns []*ast.Pattern, items ...*ast.Item) *ast.Statement {
	return &ast.Statement{
		Query: &ast.Query{
			Clauses: []ast.Clause{
				&ast.Match{Patterns: patterns},
				&ast.Return{Items: items},
			},
		},
	}
}

func nodePattern(variable string, labels ...string) *ast.NodePattern {
	return &ast.NodePattern{Variable: variable, Labels: labels}
}

func propItem(alias, key string) *ast.Item {
	return &ast.Item{Expr: &ast.Property{Subject: alias, Key: key}}
}

func TestResolveSchemaInfersEndpointAndType(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("a", "User"),
				&ast.RelPattern{Variable: "r", Direction: ast.Outgoing},
				nodePattern("b"),
			},
		}},
		propItem("b", "title"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := resolveSchema(NewDefault(), ctx, n)
	require.NoError(t, err)

	// b.title only exists on Post, so r must be WROTE and b a Post.
	var rel *plan.GraphRel
	transform.Inspect(n, func(n cypher.Node) bool {
		if r, ok := n.(*plan.GraphRel); ok {
			rel = r
		}
		return true
	})
	require.NotNil(t, rel)
	require.Equal(t, "WROTE", rel.Type())
	require.Equal(t, "Post", rel.RightNode().Label)
}

func TestResolveSchemaErrorsOnUnresolvableVarLength(t *testing.T) {
	one := int64(1)
	three := int64(3)
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("a"),
				&ast.RelPattern{Variable: "r", Direction: ast.Outgoing, VarLength: &ast.VarLength{Min: &one, Max: &three}},
				nodePattern("b"),
			},
		}},
		propItem("a", "name"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	_, _, err := resolveSchema(NewDefault(), ctx, n)
	require.Error(t, err)
	require.True(t, cypher.ErrNotEnoughLabels.Is(err))
}

func TestResolvePatternsUnionsUntypedNode(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{Elements: []ast.PatternElement{nodePattern("n")}}},
		propItem("n", "id"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := resolvePatterns(NewDefault(), ctx, n)
	require.NoError(t, err)

	// id exists on both User and Post, so the plan splits per label.
	union, ok := n.(*plan.Union)
	require.True(t, ok, "expected a union, got %T", n)
	require.Len(t, union.Inputs, 2)
}

func TestResolvePatternsEmptyWhenNoCandidate(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("p", "Post"),
				&ast.RelPattern{Variable: "r", Direction: ast.Outgoing},
				nodePattern("u", "User"),
			},
		}},
		propItem("u", "name"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	// No relationship runs Post -> User.
	n, _, err := resolvePatterns(NewDefault(), ctx, n)
	require.NoError(t, err)
	require.IsType(t, &plan.Empty{}, n)
	require.NotEmpty(t, ctx.Warnings)
}

func TestCollapseScopingWith(t *testing.T) {
	stmt := &ast.Statement{
		Query: &ast.Query{
			Clauses: []ast.Clause{
				&ast.Match{Patterns: []*ast.Pattern{{
					Elements: []ast.PatternElement{
						nodePattern("a", "User"),
						&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
						nodePattern("b", "User"),
					},
				}}},
				&ast.With{Items: []*ast.Item{
					{Expr: &ast.Variable{Name: "a"}},
					{Expr: &ast.Variable{Name: "b"}},
				}},
				&ast.Return{Items: []*ast.Item{propItem("a", "name"), propItem("b", "name")}},
			},
		},
	}
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, identity, err := collapseScopingWith(NewDefault(), ctx, n)
	require.NoError(t, err)
	require.Equal(t, transform.NewTree, identity)
	transform.Inspect(n, func(n cypher.Node) bool {
		_, isWith := n.(*plan.WithClause)
		require.False(t, isWith, "scoping WITH should have been collapsed")
		return true
	})
}

func TestCollapseScopingWithMixedAliasForms(t *testing.T) {
	stmt := &ast.Statement{
		Query: &ast.Query{
			Clauses: []ast.Clause{
				&ast.Match{Patterns: []*ast.Pattern{{
					Elements: []ast.PatternElement{
						nodePattern("a", "User"),
						&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
						nodePattern("b", "User"),
					},
				}}},
				&ast.With{Items: []*ast.Item{
					{Expr: &ast.Variable{Name: "a"}, Alias: "a"},
					{Expr: &ast.Variable{Name: "b"}},
				}},
				&ast.Return{Items: []*ast.Item{propItem("a", "name"), propItem("b", "name")}},
			},
		},
	}
	n, ctx := buildPlan(t, testSchema(), stmt)

	// Self-aliased and bare passthrough items collapse the same way.
	n, identity, err := collapseScopingWith(NewDefault(), ctx, n)
	require.NoError(t, err)
	require.Equal(t, transform.NewTree, identity)
	transform.Inspect(n, func(n cypher.Node) bool {
		_, isWith := n.(*plan.WithClause)
		require.False(t, isWith, "scoping WITH should have been collapsed")
		return true
	})
}

func TestCollapseScopingWithKeepsRenames(t *testing.T) {
	stmt := &ast.Statement{
		Query: &ast.Query{
			Clauses: []ast.Clause{
				&ast.Match{Patterns: []*ast.Pattern{{
					Elements: []ast.PatternElement{
						nodePattern("a", "User"),
						&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
						nodePattern("b", "User"),
					},
				}}},
				&ast.With{Items: []*ast.Item{
					{Expr: &ast.Variable{Name: "a"}, Alias: "x"},
					{Expr: &ast.Variable{Name: "b"}},
				}},
				&ast.Return{Items: []*ast.Item{propItem("x", "name"), propItem("b", "name")}},
			},
		},
	}
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, identity, err := collapseScopingWith(NewDefault(), ctx, n)
	require.NoError(t, err)
	require.Equal(t, transform.SameTree, identity)
	var with *plan.WithClause
	transform.Inspect(n, func(n cypher.Node) bool {
		if w, ok := n.(*plan.WithClause); ok {
			with = w
		}
		return true
	})
	require.NotNil(t, with, "renaming WITH must survive")
}

func TestGroupByInsertedForMixedReturn(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("a", "User"),
				&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
				nodePattern("b", "User"),
			},
		}},
		propItem("a", "name"),
		&ast.Item{
			Expr:  &ast.FuncCall{Name: "count", Args: []ast.Expr{&ast.Variable{Name: "b"}}},
			Alias: "followers",
		},
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := buildGroupBy(NewDefault(), ctx, n)
	require.NoError(t, err)

	var gb *plan.GroupBy
	transform.Inspect(n, func(n cypher.Node) bool {
		if g, ok := n.(*plan.GroupBy); ok {
			gb = g
		}
		return true
	})
	require.NotNil(t, gb)
	require.Len(t, gb.Keys, 1)
	require.Len(t, gb.Items, 2)
}

func TestInferGraphJoinsSimpleChain(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("a", "User"),
				&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
				nodePattern("b", "User"),
			},
		}},
		propItem("b", "name"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := inferGraphJoins(NewDefault(), ctx, n)
	require.NoError(t, err)

	var gj *plan.GraphJoins
	transform.Inspect(n, func(n cypher.Node) bool {
		if g, ok := n.(*plan.GraphJoins); ok {
			gj = g
		}
		return true
	})
	require.NotNil(t, gj)
	require.Len(t, gj.Joins, 3)
	require.Equal(t, "a", gj.AnchorTable)
	require.True(t, gj.Joins[0].IsFromMarker())
	require.Equal(t, "test_graph.users", gj.Joins[0].TableName)
	require.Equal(t, "r", gj.Joins[1].TableAlias)
	require.Len(t, gj.Joins[1].On, 1)
	require.Equal(t, "b", gj.Joins[2].TableAlias)
}

func TestInferGraphJoinsAnchorsOnReferencedEndpoint(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("a", "User"),
				&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
				nodePattern("b", "User"),
			},
		}},
		propItem("b", "name"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := analyzePropertyRequirements(NewDefault(), ctx, n)
	require.NoError(t, err)
	n, _, err = inferGraphJoins(NewDefault(), ctx, n)
	require.NoError(t, err)

	var gj *plan.GraphJoins
	transform.Inspect(n, func(n cypher.Node) bool {
		if g, ok := n.(*plan.GraphJoins); ok {
			gj = g
		}
		return true
	})
	require.NotNil(t, gj)
	// Only b is read downstream, so b drives the query even though a
	// comes first in the pattern.
	require.Equal(t, "b", gj.AnchorTable)
	require.True(t, gj.Joins[0].IsFromMarker())
	require.Equal(t, "b", gj.Joins[0].TableAlias)
	require.Equal(t, "r", gj.Joins[1].TableAlias)
	require.Equal(t, "a", gj.Joins[2].TableAlias)
}

func TestInferGraphJoinsOptionalMatchIsLeftJoin(t *testing.T) {
	stmt := &ast.Statement{
		Query: &ast.Query{
			Clauses: []ast.Clause{
				&ast.Match{Patterns: []*ast.Pattern{{
					Elements: []ast.PatternElement{nodePattern("a", "User")},
				}}},
				&ast.Match{Optional: true, Patterns: []*ast.Pattern{{
					Elements: []ast.PatternElement{
						nodePattern("a", "User"),
						&ast.RelPattern{Variable: "r", Types: []string{"WROTE"}, Direction: ast.Outgoing},
						nodePattern("p", "Post"),
					},
				}}},
				&ast.Return{Items: []*ast.Item{propItem("a", "name"), propItem("p", "title")}},
			},
		},
	}
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := inferGraphJoins(NewDefault(), ctx, n)
	require.NoError(t, err)

	var gj *plan.GraphJoins
	transform.Inspect(n, func(n cypher.Node) bool {
		if g, ok := n.(*plan.GraphJoins); ok {
			gj = g
		}
		return true
	})
	require.NotNil(t, gj)
	require.Equal(t, "a", gj.AnchorTable)
	kinds := make(map[string]plan.JoinType)
	for _, j := range gj.Joins {
		kinds[j.TableAlias] = j.Kind
	}
	require.Equal(t, plan.LeftJoin, kinds["r"])
	require.Equal(t, plan.LeftJoin, kinds["p"])
	require.ElementsMatch(t, []string{"r", "p"}, gj.OptionalAliases)
}

func TestCteResolutionMaterialisesAggregatingWith(t *testing.T) {
	cypher.ResetCounters()
	stmt := &ast.Statement{
		Query: &ast.Query{
			Clauses: []ast.Clause{
				&ast.Match{Patterns: []*ast.Pattern{{
					Elements: []ast.PatternElement{
						nodePattern("a", "User"),
						&ast.RelPattern{Variable: "r", Types: []string{"FOLLOWS"}, Direction: ast.Outgoing},
						nodePattern("b", "User"),
					},
				}}},
				&ast.With{Items: []*ast.Item{
					{Expr: &ast.Variable{Name: "a"}},
					{Expr: &ast.FuncCall{Name: "count", Args: []ast.Expr{&ast.Variable{Name: "b"}}}, Alias: "cnt"},
				}},
				&ast.Return{Items: []*ast.Item{propItem("a", "name"), {Expr: &ast.Variable{Name: "cnt"}}}},
			},
		},
	}
	n, ctx := buildPlan(t, testSchema(), stmt)

	n, _, err := resolveCteSchemas(NewDefault(), ctx, n)
	require.NoError(t, err)

	var cte *plan.Cte
	transform.Inspect(n, func(n cypher.Node) bool {
		if c, ok := n.(*plan.Cte); ok {
			cte = c
		}
		return true
	})
	require.NotNil(t, cte)
	require.Equal(t, "cte1", cte.CteName)
	require.Equal(t, "cte1", ctx.CteFor("a"))
	require.Equal(t, "cte1", ctx.CteFor("cnt"))
}

func TestAnalyzeRunsFullPipeline(t *testing.T) {
	stmt := matchReturn(
		[]*ast.Pattern{{
			Elements: []ast.PatternElement{
				nodePattern("a", "User"),
				&ast.RelPattern{Variable: "r", Direction: ast.Outgoing},
				nodePattern("b", "Post"),
			},
		}},
		propItem("a", "name"),
		propItem("b", "title"),
	)
	n, ctx := buildPlan(t, testSchema(), stmt)

	analyzed, err := NewDefault().Analyze(ctx, n)
	require.NoError(t, err)

	var gj *plan.GraphJoins
	transform.Inspect(analyzed, func(n cypher.Node) bool {
		if g, ok := n.(*plan.GraphJoins); ok {
			gj = g
		}
		return true
	})
	require.NotNil(t, gj, "pipeline should end with inferred joins")
	require.Equal(t, 3, len(gj.Joins))
}
