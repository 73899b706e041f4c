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

// Package planbuilder constructs the logical plan from the parsed
// query, clause by clause in source order. It resolves nothing beyond
// direct label lookups; the analyzer passes finish the job.
package planbuilder

import (
	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/ast"
	"github.com/genezhang/clickgraph/cypher/expression"
	"github.com/genezhang/clickgraph/cypher/plan"
)

// Builder builds a logical plan for one statement.
type Builder struct {
	schema *cypher.GraphSchema
	ctx    *cypher.PlanCtx
}

// New creates a builder with a fresh plan context.
func New(schema *cypher.GraphSchema) *Builder {
	return &Builder{schema: schema, ctx: cypher.NewPlanCtx(schema)}
}

// newSubBuilder creates a builder for a subquery that shares the outer
// context.
func newSubBuilder(b *Builder) *Builder {
	return &Builder{schema: b.schema, ctx: b.ctx}
}

// Ctx returns the plan context populated during building.
func (b *Builder) Ctx() *cypher.PlanCtx { return b.ctx }

// BuildStatement builds the head query and all UNION continuations.
func (b *Builder) BuildStatement(stmt *ast.Statement) (cypher.Node, error) {
	head, err := b.buildQuery(stmt.Query)
	if err != nil {
		return nil, err
	}
	if len(stmt.UnionTail) == 0 {
		return head, nil
	}

	unionType := stmt.UnionTail[0].Type
	inputs := []cypher.Node{head}
	for _, seg := range stmt.UnionTail {
		if seg.Type != unionType {
			return nil, cypher.ErrMalformedClause.New("UNION", "mixed UNION ALL and UNION DISTINCT in one statement")
		}
		segPlan, err := b.buildQuery(seg.Query)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, segPlan)
	}

	// Trailing pagination parses onto the last segment but applies to
	// the combined result, so hoist it above the Union.
	var orderBy *plan.OrderBy
	var skip *plan.Skip
	var limit *plan.Limit
	last := inputs[len(inputs)-1]
	for {
		switch n := last.(type) {
		case *plan.Limit:
			limit, last = n, n.Child
			continue
		case *plan.Skip:
			skip, last = n, n.Child
			continue
		case *plan.OrderBy:
			orderBy, last = n, n.Child
			continue
		}
		break
	}
	inputs[len(inputs)-1] = last

	var unionPlanType plan.UnionType
	if unionType == ast.UnionDistinct {
		unionPlanType = plan.UnionDistinct
	}
	var node cypher.Node = plan.NewUnion(unionPlanType, inputs...)
	if orderBy != nil {
		node = plan.NewOrderBy(orderBy.Fields, node)
	}
	if skip != nil {
		node = plan.NewSkip(skip.N, node)
	}
	if limit != nil {
		node = plan.NewLimit(limit.N, node)
	}
	return node, nil
}

func (b *Builder) buildQuery(q *ast.Query) (cypher.Node, error) {
	if q == nil || len(q.Clauses) == 0 {
		return nil, cypher.ErrMalformedClause.New("query", "no clauses")
	}

	var node cypher.Node
	var err error
	for _, clause := range q.Clauses {
		switch c := clause.(type) {
		case *ast.Match:
			node, err = b.buildMatch(node, c)
		case *ast.With:
			node, err = b.buildWith(node, c)
		case *ast.Unwind:
			node, err = b.buildUnwind(node, c)
		case *ast.Return:
			node, err = b.buildReturn(node, c)
		case *ast.CallAlgorithm:
			node, err = b.buildCall(node, c)
		default:
			err = cypher.ErrMalformedClause.New("query", "unknown clause type")
		}
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (b *Builder) buildMatch(input cypher.Node, m *ast.Match) (cypher.Node, error) {
	node := input
	for _, pattern := range m.Patterns {
		var err error
		node, err = b.buildPattern(node, pattern, m.Optional)
		if err != nil {
			return nil, err
		}
	}

	if m.Where != nil {
		pred, err := b.buildExpr(m.Where)
		if err != nil {
			return nil, err
		}
		node = plan.NewFilter(pred, node)
	}
	return node, nil
}

func (b *Builder) buildWith(input cypher.Node, w *ast.With) (cypher.Node, error) {
	if input == nil {
		return nil, cypher.ErrMalformedClause.New("WITH", "no preceding clause")
	}

	items, exported, err := b.buildItems(w.Items)
	if err != nil {
		return nil, err
	}

	wc := plan.NewWithClause(items, exported, input)
	wc.Distinct = w.Distinct
	wc.Skip = w.Skip
	wc.Limit = w.Limit
	if w.Where != nil {
		wc.Where, err = b.buildExpr(w.Where)
		if err != nil {
			return nil, err
		}
	}
	wc.OrderBy, err = b.buildSortFields(w.OrderBy)
	if err != nil {
		return nil, err
	}
	return wc, nil
}

func (b *Builder) buildUnwind(input cypher.Node, u *ast.Unwind) (cypher.Node, error) {
	if input == nil {
		return nil, cypher.ErrMalformedClause.New("UNWIND", "no preceding clause")
	}
	if u.Alias == "" {
		return nil, cypher.ErrMalformedClause.New("UNWIND", "missing AS alias")
	}

	expr, err := b.buildExpr(u.Expr)
	if err != nil {
		return nil, err
	}

	// Keep the y -> x link of `UNWIND collect(x) AS y` (directly or via
	// a WITH item) for property-requirement propagation.
	switch e := expr.(type) {
	case *expression.FuncCall:
		if len(e.Args) == 1 {
			if v, ok := e.Args[0].(*expression.Var); ok && e.FuncName == "collect" {
				b.ctx.LinkUnwind(u.Alias, v.VarName)
			}
		}
	case *expression.Var:
		if src, ok := b.ctx.CollectSource(e.VarName); ok {
			b.ctx.LinkUnwind(u.Alias, src)
		}
	}

	b.ctx.Bind(u.Alias, &cypher.AliasBinding{Kind: cypher.ValueAlias})
	return plan.NewUnwind(expr, u.Alias, input), nil
}

func (b *Builder) buildReturn(input cypher.Node, r *ast.Return) (cypher.Node, error) {
	if input == nil {
		return nil, cypher.ErrMalformedClause.New("RETURN", "no preceding clause")
	}

	items, _, err := b.buildItems(r.Items)
	if err != nil {
		return nil, err
	}

	proj := plan.NewProjection(items, input)
	proj.Distinct = r.Distinct
	proj.Kind = plan.ReturnProjection

	var node cypher.Node = proj
	if len(r.OrderBy) > 0 {
		fields, err := b.buildSortFields(r.OrderBy)
		if err != nil {
			return nil, err
		}
		node = plan.NewOrderBy(fields, node)
	}
	if r.Skip != nil {
		node = plan.NewSkip(*r.Skip, node)
	}
	if r.Limit != nil {
		node = plan.NewLimit(*r.Limit, node)
	}
	return node, nil
}

func (b *Builder) buildCall(input cypher.Node, c *ast.CallAlgorithm) (cypher.Node, error) {
	args := make([]cypher.Expr, len(c.Args))
	for i, a := range c.Args {
		var err error
		args[i], err = b.buildExpr(a)
		if err != nil {
			return nil, err
		}
	}
	alg := plan.NewPageRank(c.Name, args)
	if input == nil {
		return alg, nil
	}
	return plan.NewCartesianProduct(input, alg), nil
}

// buildItems converts projection items and derives the exported alias
// of each: the explicit AS alias when given, else the base variable or
// the expression text.
func (b *Builder) buildItems(items []*ast.Item) ([]cypher.Expr, []string, error) {
	if len(items) == 0 {
		return nil, nil, cypher.ErrMalformedClause.New("projection", "no items")
	}

	exprs := make([]cypher.Expr, len(items))
	exported := make([]string, len(items))
	for i, item := range items {
		e, err := b.buildExpr(item.Expr)
		if err != nil {
			return nil, nil, err
		}

		name := item.Alias
		if name == "" {
			if v, ok := e.(*expression.Var); ok {
				name = v.VarName
			} else {
				name = e.String()
			}
		}
		exported[i] = name

		if item.Alias != "" {
			if f, ok := e.(*expression.FuncCall); ok && f.FuncName == "collect" && len(f.Args) == 1 {
				if v, ok := f.Args[0].(*expression.Var); ok {
					b.ctx.LinkCollect(item.Alias, v.VarName)
				}
			}
			if b.ctx.Binding(item.Alias) == nil {
				b.ctx.Bind(item.Alias, &cypher.AliasBinding{Kind: cypher.ValueAlias})
			}
			e = expression.NewAlias(e, item.Alias)
		}
		exprs[i] = e
	}
	return exprs, exported, nil
}

func (b *Builder) buildSortFields(items []ast.SortItem) ([]plan.SortField, error) {
	if len(items) == 0 {
		return nil, nil
	}
	fields := make([]plan.SortField, len(items))
	for i, item := range items {
		e, err := b.buildExpr(item.Expr)
		if err != nil {
			return nil, err
		}
		fields[i] = plan.SortField{Expr: e, Descending: item.Descending}
	}
	return fields, nil
}
