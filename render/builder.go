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
	"sort"
	"strings"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/expression"
	"github.com/genezhang/clickgraph/cypher/plan"
	"github.com/genezhang/clickgraph/cypher/transform"
	"github.com/genezhang/clickgraph/render/cte"
)

// AlgorithmEmitter produces the raw CTE body for one graph algorithm
// invoked through CALL.
type AlgorithmEmitter func(ctx *cypher.PlanCtx, args []cypher.Expr) (string, error)

// Builder flattens an analyzed logical plan into a RenderPlan. One
// Builder serves one compilation; nested subquery plans get their own
// Builder sharing the same context and resolver.
type Builder struct {
	ctx      *cypher.PlanCtx
	resolver *AliasResolver
	lowerer  *Lowerer

	// Algorithms maps lowercased CALL names to their emitters. Unknown
	// names are rejected.
	Algorithms map[string]AlgorithmEmitter
}

// NewBuilder creates a builder over the compilation state.
func NewBuilder(ctx *cypher.PlanCtx) *Builder {
	return &Builder{ctx: ctx}
}

// scope accumulates the clause material of one SELECT while the walk
// descends through the wrapper nodes above the pattern.
type scope struct {
	items      []cypher.Expr
	haveSelect bool
	distinct   bool

	orderBy []plan.SortField
	skip    *int64
	limit   *int64

	groupKeys []cypher.Expr
	having    cypher.Expr

	filters []cypher.Expr

	// defs holds inline (non-materialised) WITH and UNWIND
	// definitions, substituted into downstream expressions.
	defs map[string]cypher.Expr

	empty      bool
	isUnion    bool
	unionType  plan.UnionType
	branchSel  []SelectItem
	vlpFinal   string
	algoCte    string
	branchLow  *Lowerer
}

// Build flattens the plan.
func (b *Builder) Build(n cypher.Node) (*RenderPlan, error) {
	if b.resolver == nil {
		b.resolver = NewAliasResolver(b.ctx, n)
	}
	if b.lowerer == nil {
		b.lowerer = NewLowerer(b.ctx, b.resolver)
	}
	return b.buildScope(n)
}

func (b *Builder) buildScope(n cypher.Node) (*RenderPlan, error) {
	rp := &RenderPlan{}
	sc := &scope{defs: make(map[string]cypher.Expr)}
	if err := b.descend(n, rp, sc); err != nil {
		return nil, err
	}
	if err := b.finalize(rp, sc); err != nil {
		return nil, err
	}
	return rp, nil
}

func (b *Builder) descend(n cypher.Node, rp *RenderPlan, sc *scope) error {
	switch n := n.(type) {
	case *plan.Limit:
		if sc.limit == nil {
			v := n.N
			sc.limit = &v
		}
		return b.descend(n.Child, rp, sc)

	case *plan.Skip:
		if sc.skip == nil {
			v := n.N
			sc.skip = &v
		}
		return b.descend(n.Child, rp, sc)

	case *plan.OrderBy:
		if len(sc.orderBy) == 0 {
			sc.orderBy = n.Fields
		}
		return b.descend(n.Child, rp, sc)

	case *plan.Projection:
		if !sc.haveSelect {
			sc.items = n.Items
			sc.distinct = n.Distinct
			sc.haveSelect = true
		}
		return b.descend(n.Child, rp, sc)

	case *plan.GroupBy:
		sc.groupKeys = n.Keys
		sc.having = n.Having
		if !sc.haveSelect {
			sc.items = n.Items
			sc.haveSelect = true
		}
		return b.descend(n.Child, rp, sc)

	case *plan.Filter:
		sc.filters = append(sc.filters, expression.SplitConjunction(n.Predicate)...)
		return b.descend(n.Child, rp, sc)

	case *plan.WithClause:
		// A WithClause reached outside a Cte wrapper carries no
		// aggregation, distinct, or pagination; its items are pure
		// renames inlined into downstream expressions.
		for i, item := range n.Items {
			if a, ok := item.(*expression.Alias); ok && i < len(n.ExportedAliases) {
				if v, isVar := a.Child.(*expression.Var); !isVar || v.VarName != n.ExportedAliases[i] {
					sc.defs[n.ExportedAliases[i]] = a.Child
				}
			}
		}
		if n.Where != nil {
			sc.filters = append(sc.filters, expression.SplitConjunction(n.Where)...)
		}
		return b.descend(n.Child, rp, sc)

	case *plan.Unwind:
		sc.defs[n.Alias] = &expression.FuncCall{FuncName: "arrayJoin", Args: []cypher.Expr{n.Expression}}
		return b.descend(n.Child, rp, sc)

	case *plan.Cte:
		return b.buildCteScope(n, rp, sc)

	case *plan.GraphJoins:
		return b.buildGraphJoins(n, rp, sc)

	case *plan.Union:
		return b.buildUnion(n, rp, sc)

	case *plan.Empty:
		sc.empty = true
		return nil

	case *plan.PageRank:
		name, err := b.emitAlgorithm(n, rp)
		if err != nil {
			return err
		}
		if rp.From == nil {
			rp.From = &ViewTableRef{Name: name}
		}
		return nil

	case *plan.Scan:
		if rp.From == nil {
			rp.From = &ViewTableRef{Name: qualifiedName(n.Database, n.TableName), Alias: n.Alias}
		}
		return nil

	case *plan.ViewScan:
		if rp.From == nil {
			rp.From = &ViewTableRef{Name: n.View, Alias: n.Alias, UseFinal: true}
		}
		return nil

	default:
		for _, c := range n.Children() {
			if err := b.descend(c, rp, sc); err != nil {
				return err
			}
		}
		return nil
	}
}

// buildCteScope materialises a WITH boundary as a structured CTE and
// roots the outer query on it.
func (b *Builder) buildCteScope(c *plan.Cte, rp *RenderPlan, sc *scope) error {
	inner := &RenderPlan{}
	isc := &scope{defs: make(map[string]cypher.Expr)}

	// The body lowers through its own lowerer: references to the CTE's
	// exported aliases must hit the underlying tables, not the CTE.
	ib := &Builder{ctx: b.ctx, resolver: b.resolver, Algorithms: b.Algorithms}
	ib.lowerer = NewLowerer(b.ctx, b.resolver)
	ib.lowerer.definingCte = c.CteName

	if w, ok := c.Child.(*plan.WithClause); ok {
		isc.items = w.Items
		isc.haveSelect = true
		isc.distinct = w.Distinct
		isc.orderBy = w.OrderBy
		isc.skip = w.Skip
		isc.limit = w.Limit
		if w.Where != nil {
			isc.filters = append(isc.filters, expression.SplitConjunction(w.Where)...)
		}
		if err := ib.descend(w.Child, inner, isc); err != nil {
			return err
		}
	} else if err := ib.descend(c.Child, inner, isc); err != nil {
		return err
	}
	if err := ib.finalize(inner, isc); err != nil {
		return err
	}

	// Hoist nested CTEs so the whole statement carries one WITH list.
	rp.Ctes = append(rp.Ctes, inner.Ctes...)
	inner.Ctes = nil
	rp.Ctes = append(rp.Ctes, &Cte{Name: c.CteName, Structured: inner})
	if rp.From == nil {
		rp.From = &ViewTableRef{Name: c.CteName}
	}
	return nil
}

// buildGraphJoins roots the query: variable-length patterns become
// CTEs, the flat join set becomes FROM plus JOIN clauses.
func (b *Builder) buildGraphJoins(g *plan.GraphJoins, rp *RenderPlan, sc *scope) error {
	var vlpRels []*plan.GraphRel
	var algos []*plan.PageRank
	transform.Inspect(g.Child, func(n cypher.Node) bool {
		switch n := n.(type) {
		case *plan.GraphRel:
			if n.VarLength != nil {
				vlpRels = append(vlpRels, n)
			}
		case *plan.PageRank:
			algos = append(algos, n)
		}
		return true
	})

	for _, a := range algos {
		name, err := b.emitAlgorithm(a, rp)
		if err != nil {
			return err
		}
		sc.algoCte = name
	}

	var bindings []*cypher.VLPBinding
	for _, rel := range vlpRels {
		bind, err := b.buildVLP(rel, rp, sc)
		if err != nil {
			return err
		}
		bindings = append(bindings, bind)
	}

	marker := g.FromMarker()
	seen := make(map[string]bool)
	if marker != nil {
		alias := b.resolver.TableAlias(marker.TableAlias)
		rp.From = &ViewTableRef{Name: marker.TableName, Alias: alias}
		seen[alias] = true
	}
	for _, j := range g.Joins {
		if j == marker {
			continue
		}
		alias := b.resolver.TableAlias(j.TableAlias)
		if seen[alias] {
			continue
		}
		seen[alias] = true
		out := &Join{TableName: j.TableName, TableAlias: alias, Kind: j.Kind}
		for _, cond := range j.On {
			le, err := b.lowerer.Lower(cond)
			if err != nil {
				return err
			}
			out.On = append(out.On, le)
		}
		if j.PreFilter != nil {
			le, err := b.lowerer.Lower(j.PreFilter)
			if err != nil {
				return err
			}
			out.PreFilter = le
		}
		rp.Joins = append(rp.Joins, out)
	}

	if rp.From == nil {
		switch {
		case sc.vlpFinal != "":
			rp.From = &ViewTableRef{Name: sc.vlpFinal, Alias: "t"}
		case sc.algoCte != "":
			rp.From = &ViewTableRef{Name: sc.algoCte}
		case b.ctx.LatestCte() != "":
			rp.From = &ViewTableRef{Name: b.ctx.LatestCte()}
		}
	} else {
		// A fixed-length anchor plus a path CTE: join the CTE on its
		// endpoint ids wherever the endpoints have their own tables.
		for _, bind := range bindings {
			join := &Join{TableName: bind.CteName, TableAlias: bind.TableAlias, Kind: plan.InnerJoin}
			if on := b.vlpEndpointCondition(bind.StartAlias, bind.TableAlias, "start_id", seen); on != nil {
				join.On = append(join.On, on)
			}
			if on := b.vlpEndpointCondition(bind.EndAlias, bind.TableAlias, "end_id", seen); on != nil {
				join.On = append(join.On, on)
			}
			if len(join.On) > 0 {
				rp.Joins = append(rp.Joins, join)
			}
		}
	}
	return nil
}

func (b *Builder) vlpEndpointCondition(alias, cteAlias, col string, seen map[string]bool) RenderExpr {
	if alias == "" || !seen[b.resolver.TableAlias(alias)] {
		return nil
	}
	bind := b.ctx.Binding(alias)
	if bind == nil || bind.Kind != cypher.NodeAlias {
		return nil
	}
	ns, err := b.ctx.Schema.Node(bind.Label())
	if err != nil {
		return nil
	}
	return &Op{Operator: "=", Operands: []RenderExpr{
		&Column{Table: cteAlias, Name: col},
		&Column{Table: b.resolver.TableAlias(alias), Name: ns.IDColumn()},
	}}
}

// buildVLP generates the path CTE chain for one variable-length
// relationship and registers its binding. Filters over the endpoints
// and the relationship are consumed from the scope; the remainder
// stays for the outer WHERE.
func (b *Builder) buildVLP(rel *plan.GraphRel, rp *RenderPlan, sc *scope) (*cypher.VLPBinding, error) {
	rs, err := b.ctx.Schema.Relationship(rel.Type())
	if err != nil {
		return nil, err
	}

	startAlias := rel.LeftConnection
	endAlias := rel.RightConnection
	name := "vlp_" + startAlias + "_" + endAlias

	bind := &cypher.VLPBinding{
		CteName:    name,
		StartAlias: startAlias,
		EndAlias:   endAlias,
		RelAlias:   rel.Alias,
		PathVar:    rel.PathVariable,
		TableAlias: "t",
	}

	buckets := ClassifyFilters(expression.NewAnd(sc.filters...), bind)
	if rel.Where != nil {
		buckets.Rel = append(buckets.Rel, expression.SplitConjunction(rel.Where)...)
	}

	coupled := b.resolver.TableAlias(rel.Alias) != rel.Alias
	strategy := cte.SelectStrategy(b.ctx.Schema, rs, coupled)

	startNS, _ := b.ctx.Schema.Node(rs.FromNode)
	endNS, _ := b.ctx.Schema.Node(rs.ToNode)

	startSQL, err := b.renderFilters(buckets.Start)
	if err != nil {
		return nil, err
	}
	relSQL, err := b.renderFilters(buckets.Rel)
	if err != nil {
		return nil, err
	}

	// End filter placement: shortest modes apply them after traversal
	// over CTE columns; denormalised endpoints fall through to the
	// outer query; otherwise they prune the base case.
	var endSQL []string
	endDenorm := (endNS != nil && endNS.IsDenormalized) || len(rs.ToNodeProperties) > 0
	switch {
	case rel.Shortest != plan.NoShortest:
		endSQL, err = b.renderEndFiltersOverCte(buckets.End, endAlias, endNS)
		if err != nil {
			return nil, err
		}
	case endDenorm:
		buckets.Outer = append(buckets.Outer, buckets.End...)
	default:
		endSQL, err = b.renderFilters(buckets.End)
		if err != nil {
			return nil, err
		}
	}

	startEmbedded := (startNS != nil && startNS.IsDenormalized) || len(rs.FromNodeProperties) > 0
	startProps, err := b.vlpProps(startAlias, rs.FromNode, rs.TypeName, cypher.RoleFrom, startEmbedded)
	if err != nil {
		return nil, err
	}
	endProps, err := b.vlpProps(endAlias, rs.ToNode, rs.TypeName, cypher.RoleTo, endDenorm)
	if err != nil {
		return nil, err
	}

	var maxHops *int64
	var minHops int64
	if rel.VarLength != nil {
		minHops = rel.VarLength.Min
		maxHops = rel.VarLength.Max
	}

	psc := &cte.PatternSchemaContext{
		Name:         name,
		StartAlias:   startAlias,
		EndAlias:     endAlias,
		RelAlias:     rel.Alias,
		PathVar:      rel.PathVariable,
		Start:        startNS,
		End:          endNS,
		Rel:          rs,
		Strategy:     strategy,
		MinHops:      minHops,
		MaxHops:      maxHops,
		Shortest:     rel.Shortest,
		ZeroHop:      minHops == 0 && rel.Shortest == plan.NoShortest,
		StartProps:   startProps,
		EndProps:     endProps,
		StartFilters: startSQL,
		EndFilters:   endSQL,
		RelFilters:   relSQL,
	}
	b.ctx.Log().WithField("strategy", strategy.String()).Debugf("generating path CTE %s", name)

	gens, err := cte.Generate(psc)
	if err != nil {
		return nil, err
	}
	for _, g := range gens {
		rp.Ctes = append(rp.Ctes, &Cte{
			Name:       g.Name,
			RawSQL:     g.SQL,
			Recursive:  g.Recursive,
			StartAlias: startAlias,
			EndAlias:   endAlias,
		})
	}
	sc.vlpFinal = name

	// Everything not folded into the CTE survives as outer filters,
	// lowered after the binding is visible.
	sc.filters = append(buckets.Outer, buckets.Path...)
	b.ctx.AddVLP(bind)
	return bind, nil
}

// vlpProps lists the properties the CTE must project for one endpoint.
func (b *Builder) vlpProps(alias, label, relType string, role cypher.EndpointRole, embedded bool) ([]cte.PropertyColumn, error) {
	req := b.ctx.Requirements(alias)
	if req == nil {
		return nil, nil
	}
	var props []string
	if req.All {
		ns, err := b.ctx.Schema.Node(label)
		if err != nil {
			return nil, err
		}
		for p := range ns.PropertyMappings {
			props = append(props, p)
		}
		sort.Strings(props)
	} else {
		props = req.Properties()
	}
	if !embedded {
		relType, role = "", cypher.RoleNone
	}
	out := make([]cte.PropertyColumn, 0, len(props))
	for _, p := range props {
		// The endpoint ids are always projected as start_id/end_id; a
		// property named id would collide with them.
		if p == "id" {
			continue
		}
		col, err := b.ctx.Schema.PropertyColumn(label, p, relType, role)
		if err != nil {
			return nil, err
		}
		out = append(out, cte.PropertyColumn{Prop: p, Column: col})
	}
	return out, nil
}

func (b *Builder) renderFilters(exprs []cypher.Expr) ([]string, error) {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		le, err := b.lowerer.Lower(e)
		if err != nil {
			return nil, err
		}
		out = append(out, le.SQL())
	}
	return out, nil
}

// renderEndFiltersOverCte rewrites end-node references onto the CTE's
// own columns before lowering, for placement in the _to_target layer.
func (b *Builder) renderEndFiltersOverCte(exprs []cypher.Expr, endAlias string, endNS *cypher.NodeSchema) ([]string, error) {
	out := make([]string, 0, len(exprs))
	for _, e := range exprs {
		rewritten, _, err := transform.Expr(e, func(x cypher.Expr) (cypher.Expr, transform.TreeIdentity, error) {
			switch x := x.(type) {
			case *expression.Property:
				if x.Alias == endAlias {
					return expression.NewColumnRef("", "end_"+x.Key), transform.NewTree, nil
				}
			case *expression.Var:
				if x.VarName == endAlias {
					return expression.NewColumnRef("", "end_id"), transform.NewTree, nil
				}
			}
			return x, transform.SameTree, nil
		})
		if err != nil {
			return nil, err
		}
		le, err := b.lowerer.Lower(rewritten)
		if err != nil {
			return nil, err
		}
		out = append(out, le.SQL())
	}
	return out, nil
}

// buildUnion builds each branch as an independent plan and chains
// them. Branch-local labels are pinned so shared aliases resolve per
// branch.
func (b *Builder) buildUnion(u *plan.Union, rp *RenderPlan, sc *scope) error {
	var branches []*RenderPlan
	var firstLow *Lowerer
	for _, in := range u.Inputs {
		low := NewLowerer(b.ctx, b.resolver)
		transform.Inspect(in, func(n cypher.Node) bool {
			if gn, ok := n.(*plan.GraphNode); ok && gn.Label != "" {
				low.SetLabel(gn.Alias, gn.Label)
			}
			return true
		})
		sub := &Builder{ctx: b.ctx, resolver: b.resolver, lowerer: low, Algorithms: b.Algorithms}
		bp, err := sub.buildScope(in)
		if err != nil {
			return err
		}
		if firstLow == nil {
			firstLow = low
		}
		branches = append(branches, bp)
	}
	if len(branches) == 0 {
		sc.empty = true
		return nil
	}

	first := branches[0]
	rp.Ctes = append(rp.Ctes, first.Ctes...)
	rp.Select = first.Select
	rp.Distinct = first.Distinct
	rp.From = first.From
	rp.Joins = first.Joins
	rp.Filters = first.Filters
	rp.GroupBy = first.GroupBy
	rp.Having = first.Having

	cur := rp
	for _, bp := range branches[1:] {
		cur.Union = &UnionTail{Type: u.Type, Plan: bp}
		cur = bp
	}

	sc.isUnion = true
	sc.unionType = u.Type
	sc.branchSel = first.Select
	sc.branchLow = firstLow
	sc.haveSelect = true
	return nil
}

func (b *Builder) emitAlgorithm(p *plan.PageRank, rp *RenderPlan) (string, error) {
	name := strings.ToLower(p.Algorithm)
	em, ok := b.Algorithms[name]
	if !ok {
		return "", cypher.ErrUnsupportedFeature.New("graph algorithm " + p.Algorithm)
	}
	sql, err := em(b.ctx, p.Args)
	if err != nil {
		return "", err
	}
	rp.Ctes = append(rp.Ctes, &Cte{Name: name, RawSQL: sql})
	return name, nil
}

// finalize lowers everything the scope accumulated, after the pattern
// handling registered any path CTE bindings.
func (b *Builder) finalize(rp *RenderPlan, sc *scope) error {
	if sc.empty {
		rp.Select = []SelectItem{{Expr: &Raw{Text: "1"}}}
		rp.From = nil
		rp.Joins = nil
		rp.Filters = &Raw{Text: "0=1"}
		return nil
	}

	if !sc.isUnion {
		items, err := b.buildSelectItems(sc)
		if err != nil {
			return err
		}
		rp.Select = items
		rp.Distinct = sc.distinct
	}

	if len(sc.filters) > 0 {
		le, err := b.lowerer.Lower(sc.substitute(expression.NewAnd(sc.filters...)))
		if err != nil {
			return err
		}
		if rp.Filters != nil {
			rp.Filters = &Op{Operator: "AND", Operands: []RenderExpr{rp.Filters, le}}
		} else {
			rp.Filters = le
		}
	}

	for _, k := range sc.groupKeys {
		lowered, err := b.lowerGroupKey(sc.substitute(k))
		if err != nil {
			return err
		}
		rp.GroupBy = append(rp.GroupBy, lowered...)
	}
	if sc.having != nil {
		le, err := b.lowerer.Lower(sc.substitute(sc.having))
		if err != nil {
			return err
		}
		rp.Having = le
	}

	for _, f := range sc.orderBy {
		item, err := b.lowerOrderField(f, sc)
		if err != nil {
			return err
		}
		rp.OrderBy = append(rp.OrderBy, item)
	}

	rp.Skip = sc.skip
	rp.Limit = sc.limit
	return nil
}

// lowerOrderField handles the union restriction: sort keys over a
// union must name projected columns; computed keys are rejected under
// UNION DISTINCT.
func (b *Builder) lowerOrderField(f plan.SortField, sc *scope) (OrderByItem, error) {
	if sc.isUnion {
		if name, ok := projectedName(f.Expr, sc.branchSel); ok {
			return OrderByItem{Expr: &Column{Name: name}, Descending: f.Descending}, nil
		}
		if sc.unionType == plan.UnionDistinct {
			return OrderByItem{}, cypher.ErrUnsupportedFeature.New(
				"ORDER BY over a computed expression combined with UNION DISTINCT")
		}
		low := sc.branchLow
		if low == nil {
			low = b.lowerer
		}
		le, err := low.Lower(sc.substitute(f.Expr))
		if err != nil {
			return OrderByItem{}, err
		}
		return OrderByItem{Expr: le, Descending: f.Descending}, nil
	}
	le, err := b.lowerer.Lower(sc.substitute(f.Expr))
	if err != nil {
		return OrderByItem{}, err
	}
	return OrderByItem{Expr: le, Descending: f.Descending}, nil
}

// projectedName matches a sort expression against the projected output
// columns of the first union branch.
func projectedName(e cypher.Expr, items []SelectItem) (string, bool) {
	var want string
	switch e := e.(type) {
	case *expression.Var:
		want = e.VarName
	case *expression.Property:
		want = e.Alias + "." + e.Key
	default:
		return "", false
	}
	for _, it := range items {
		if it.Alias == want {
			if strings.Contains(want, ".") {
				return quoteNeeded(want), true
			}
			return want, true
		}
	}
	return "", false
}

// substitute inlines WITH and UNWIND definitions. Chained renames
// resolve over a few rounds; cycles cannot occur because each WITH
// introduces fresh scope names.
func (sc *scope) substitute(e cypher.Expr) cypher.Expr {
	if len(sc.defs) == 0 {
		return e
	}
	for i := 0; i < 8; i++ {
		out, same, err := transform.Expr(e, func(x cypher.Expr) (cypher.Expr, transform.TreeIdentity, error) {
			if v, ok := x.(*expression.Var); ok {
				if def, found := sc.defs[v.VarName]; found {
					return def, transform.NewTree, nil
				}
			}
			return x, transform.SameTree, nil
		})
		if err != nil || same == transform.SameTree {
			return e
		}
		e = out
	}
	return e
}

// buildSelectItems turns projection items into output columns. A bare
// node variable expands to one column per required property.
func (b *Builder) buildSelectItems(sc *scope) ([]SelectItem, error) {
	var out []SelectItem
	for _, item := range sc.items {
		if _, ok := item.(*expression.Star); ok {
			out = append(out, SelectItem{Expr: Star{}})
			continue
		}

		child := item
		outName := item.String()
		if a, ok := item.(*expression.Alias); ok {
			child = a.Child
			outName = a.AliasName
		}
		child = sc.substitute(child)

		if v, ok := child.(*expression.Var); ok {
			expanded, err := b.expandEntity(v.VarName, outName)
			if err != nil {
				return nil, err
			}
			if expanded != nil {
				out = append(out, expanded...)
				continue
			}
		}
		le, err := b.lowerer.Lower(child)
		if err != nil {
			return nil, err
		}
		out = append(out, SelectItem{Expr: le, Alias: outName})
	}
	return out, nil
}

// expandEntity expands a bare node or path reference. Nil with no
// error means the variable is not an expandable entity and lowers as a
// plain expression.
func (b *Builder) expandEntity(alias, outName string) ([]SelectItem, error) {
	if vlp := b.ctx.VLPForAlias(alias); vlp != nil {
		if alias == vlp.PathVar {
			return nil, nil
		}
		prefix := "start_"
		if alias == vlp.EndAlias {
			prefix = "end_"
		}
		props, err := b.requiredProps(alias)
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			return []SelectItem{{
				Expr:  &Column{Table: vlp.TableAlias, Name: prefix + "id"},
				Alias: outName,
			}}, nil
		}
		out := make([]SelectItem, 0, len(props))
		for _, p := range props {
			out = append(out, SelectItem{
				Expr:  &Column{Table: vlp.TableAlias, Name: prefix + p},
				Alias: outName + "." + p,
			})
		}
		return out, nil
	}

	bind := b.ctx.Binding(alias)
	if bind == nil || bind.Kind != cypher.NodeAlias {
		return nil, nil
	}

	props, err := b.requiredProps(alias)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, nil
	}

	// Node projected out of a materialised WITH: its columns are the
	// quoted names the CTE exported.
	if cteName := b.ctx.CteFor(alias); cteName != "" && cteName != b.lowerer.definingCte {
		out := make([]SelectItem, 0, len(props))
		for _, p := range props {
			out = append(out, SelectItem{
				Expr:  &Column{Name: quoteNeeded(alias + "." + p)},
				Alias: outName + "." + p,
			})
		}
		return out, nil
	}

	label := b.lowerer.labelOf(alias)
	if label == "" {
		return nil, cypher.ErrInternal.New("unresolved label for projected alias " + alias)
	}
	relType, role := "", cypher.RoleNone
	if res, ok := b.resolver.Resolve(alias); ok && res.Kind == DenormalizedNode {
		relType, role = res.RelType, res.Role
	}
	out := make([]SelectItem, 0, len(props))
	for _, p := range props {
		col, err := b.ctx.Schema.PropertyColumn(label, p, relType, role)
		if err != nil {
			return nil, err
		}
		out = append(out, SelectItem{
			Expr:  &Column{Table: b.resolver.TableAlias(alias), Name: col},
			Alias: outName + "." + p,
		})
	}
	return out, nil
}

// requiredProps returns the deterministic property list for an alias,
// expanding the all-properties sentinel through the schema.
func (b *Builder) requiredProps(alias string) ([]string, error) {
	req := b.ctx.Requirements(alias)
	if req == nil {
		return nil, nil
	}
	if !req.All {
		return req.Properties(), nil
	}
	label := b.lowerer.labelOf(alias)
	if label == "" {
		if bind := b.ctx.Binding(alias); bind != nil {
			label = bind.Label()
		}
	}
	ns, err := b.ctx.Schema.Node(label)
	if err != nil {
		return nil, err
	}
	props := make([]string, 0, len(ns.PropertyMappings))
	for p := range ns.PropertyMappings {
		props = append(props, p)
	}
	sort.Strings(props)
	return props, nil
}

// lowerGroupKey lowers one grouping key. A node variable groups by its
// id column plus every projected property column so the select list
// stays valid under strict GROUP BY checking.
func (b *Builder) lowerGroupKey(k cypher.Expr) ([]RenderExpr, error) {
	v, ok := k.(*expression.Var)
	if !ok || b.ctx.Binding(v.VarName) == nil ||
		b.ctx.Binding(v.VarName).Kind != cypher.NodeAlias ||
		b.ctx.VLPForAlias(v.VarName) != nil ||
		b.ctx.CteFor(v.VarName) != "" {
		le, err := b.lowerer.Lower(k)
		if err != nil {
			return nil, err
		}
		return []RenderExpr{le}, nil
	}

	le, err := b.lowerer.Lower(k)
	if err != nil {
		return nil, err
	}
	out := []RenderExpr{le}
	seen := map[string]bool{le.SQL(): true}
	props, err := b.requiredProps(v.VarName)
	if err != nil {
		return nil, err
	}
	for _, p := range props {
		pe, err := b.lowerer.Lower(expression.NewProperty(v.VarName, p))
		if err != nil {
			return nil, err
		}
		if seen[pe.SQL()] {
			continue
		}
		seen[pe.SQL()] = true
		out = append(out, pe)
	}
	return out, nil
}

func qualifiedName(db, table string) string {
	if db == "" {
		return table
	}
	return db + "." + table
}
