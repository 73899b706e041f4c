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
	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/expression"
	"github.com/genezhang/clickgraph/cypher/plan"
	"github.com/genezhang/clickgraph/cypher/transform"
)

// inferGraphJoins turns each pattern subtree into a GraphJoins node: an
// ordered join list over concrete tables, with one FROM marker naming
// the anchor. The pattern subtree stays as the child, so lowering can
// still read endpoint labels and variable-length metadata off it.
// Variable-length relationships contribute no join edges here; they
// arrive in the outer query as a CTE reference.
func inferGraphJoins(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	var convert func(node cypher.Node) (cypher.Node, transform.TreeIdentity, error)
	convert = func(node cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
		if isPatternRoot(node) {
			gj, err := buildJoins(a, ctx, node)
			if err != nil {
				return nil, transform.SameTree, err
			}
			return gj, transform.NewTree, nil
		}
		children := node.Children()
		if len(children) == 0 {
			return node, transform.SameTree, nil
		}
		same := transform.SameTree
		newChildren := make([]cypher.Node, len(children))
		for i, c := range children {
			nc, sameC, err := convert(c)
			if err != nil {
				return nil, transform.SameTree, err
			}
			newChildren[i] = nc
			same = same && sameC
		}
		if same {
			return node, transform.SameTree, nil
		}
		nn, err := node.WithChildren(newChildren...)
		if err != nil {
			return nil, transform.SameTree, err
		}
		return nn, transform.NewTree, nil
	}
	return convert(n)
}

func isPatternRoot(n cypher.Node) bool {
	switch n.(type) {
	case *plan.GraphRel, *plan.GraphNode, *plan.CartesianProduct:
		return true
	}
	return false
}

// joinState accumulates the table list while walking one pattern.
type joinState struct {
	ctx    *cypher.PlanCtx
	joins  []*plan.JoinEdge
	placed map[string]bool
	rels   []*plan.GraphRel
	// anchor is the first placed required alias.
	anchor   string
	optional []string
}

func (s *joinState) isPlaced(alias string) bool { return s.placed[alias] }

func (s *joinState) place(alias, table string, on []cypher.Expr, kind plan.JoinType, preFilter cypher.Expr) {
	if s.placed[alias] {
		return
	}
	s.placed[alias] = true
	if len(s.joins) == 0 && kind == plan.InnerJoin {
		// First table is the FROM marker.
		on = nil
		s.anchor = alias
	}
	s.joins = append(s.joins, &plan.JoinEdge{
		TableName:  table,
		TableAlias: alias,
		On:         on,
		Kind:       kind,
		PreFilter:  preFilter,
	})
	if kind == plan.LeftJoin {
		s.optional = append(s.optional, alias)
	}
}

func buildJoins(a *Analyzer, ctx *cypher.PlanCtx, root cypher.Node) (*plan.GraphJoins, error) {
	s := &joinState{ctx: ctx, placed: make(map[string]bool)}

	// An endpoint that later clauses read makes the best driving table,
	// so it is seated before the walk; the leftmost endpoint the walk
	// reaches is only the fallback.
	if gn := preferredAnchor(ctx, root); gn != nil {
		if err := placeNode(s, gn, plan.InnerJoin, nil, nil); err != nil {
			return nil, err
		}
	}

	// Required relationships first so an OPTIONAL MATCH written before a
	// later required chain cannot capture the anchor.
	if err := walkPattern(s, root, false); err != nil {
		return nil, err
	}
	if err := walkPattern(s, root, true); err != nil {
		return nil, err
	}

	gj := plan.NewGraphJoins(s.joins, s.anchor, root)
	gj.OptionalAliases = s.optional
	a.Log("inferred %d joins, anchor %q", len(s.joins), s.anchor)
	return gj, nil
}

// preferredAnchor returns the first non-optional, non-denormalised
// endpoint whose properties WHERE or RETURN actually read, in source
// order, or nil when no endpoint qualifies. Variable-length subtrees
// are skipped; their endpoints live inside the recursive CTE.
// Disconnected patterns pick only from the first one, so cross-join
// marking keeps working off the walk order.
func preferredAnchor(ctx *cypher.PlanCtx, n cypher.Node) *plan.GraphNode {
	switch n := n.(type) {
	case *plan.GraphNode:
		if !n.Denormalized && n.Label != "" && ctx.Requirements(n.Alias) != nil {
			return n
		}
	case *plan.GraphRel:
		if n.VarLength != nil {
			return nil
		}
		if n.Optional {
			return preferredAnchor(ctx, n.Left)
		}
		if gn := preferredAnchor(ctx, n.Left); gn != nil {
			return gn
		}
		return preferredAnchor(ctx, n.Right)
	case *plan.CartesianProduct:
		return preferredAnchor(ctx, n.Left())
	}
	return nil
}

// walkPattern visits the pattern in source order, emitting join edges
// for relationships whose Optional flag matches the requested phase.
func walkPattern(s *joinState, n cypher.Node, optionalPhase bool) error {
	switch n := n.(type) {
	case *plan.GraphNode:
		if optionalPhase {
			return nil
		}
		return placeNode(s, n, plan.InnerJoin, nil, nil)
	case *plan.CartesianProduct:
		if err := walkPattern(s, n.Left(), optionalPhase); err != nil {
			return err
		}
		if err := walkPattern(s, n.Right(), optionalPhase); err != nil {
			return err
		}
		if optionalPhase == n.Optional {
			markDisconnected(s, n)
		}
		return nil
	case *plan.GraphRel:
		// Chains are left-deep; the right child is always this rel's far
		// endpoint, which placeRel positions with the right join kind.
		if _, chained := n.Left.(*plan.GraphNode); !chained {
			if err := walkPattern(s, n.Left, optionalPhase); err != nil {
				return err
			}
		}
		if n.Optional != optionalPhase {
			return nil
		}
		return placeRel(s, n)
	default:
		for _, c := range n.Children() {
			if err := walkPattern(s, c, optionalPhase); err != nil {
				return err
			}
		}
		return nil
	}
}

// markDisconnected converts the first table of the cartesian product's
// right side into a cross join (or a conditional join when the product
// carries one), if both sides placed tables.
func markDisconnected(s *joinState, cp *plan.CartesianProduct) {
	rightAliases := plan.PatternAliases(cp.Right())
	for _, alias := range rightAliases {
		for _, j := range s.joins {
			if j.TableAlias != alias || !j.IsFromMarker() || alias == s.anchor {
				continue
			}
			if cp.JoinCondition != nil {
				j.On = expression.SplitConjunction(cp.JoinCondition)
				if cp.Optional {
					j.Kind = plan.LeftJoin
					s.optional = append(s.optional, alias)
				}
			} else if cp.Optional {
				j.Kind = plan.LeftJoin
				s.optional = append(s.optional, alias)
			} else {
				j.Kind = plan.CrossJoin
			}
			return
		}
	}
}

// placeNode emits the table for one endpoint. Denormalised nodes have
// no table of their own; their edge row carries them.
func placeNode(s *joinState, gn *plan.GraphNode, kind plan.JoinType, on []cypher.Expr, preFilter cypher.Expr) error {
	if gn == nil || s.isPlaced(gn.Alias) || gn.Denormalized {
		return nil
	}
	if gn.Label == "" {
		return cypher.ErrInternal.New("join inference reached unresolved node " + gn.Alias)
	}
	ns, err := s.ctx.Schema.Node(gn.Label)
	if err != nil {
		return err
	}
	s.place(gn.Alias, qualifiedTable(ns.Database, ns.TableName), on, kind, preFilter)
	return nil
}

// placeRel emits the edge table and the far endpoint for one
// relationship, joined against whatever side is already placed.
func placeRel(s *joinState, rel *plan.GraphRel) error {
	if rel.VarLength != nil {
		// Endpoints and hops live in a recursive CTE.
		return nil
	}
	typ := rel.Type()
	if typ == "" {
		return cypher.ErrInternal.New("join inference reached unresolved relationship " + rel.Alias)
	}
	rs, err := s.ctx.Schema.Relationship(typ)
	if err != nil {
		return err
	}

	kind := plan.InnerJoin
	if rel.Optional {
		kind = plan.LeftJoin
	}
	var preFilter cypher.Expr
	if rel.Optional {
		preFilter = rel.Where
	}

	left, right := rel.LeftNode(), rel.RightNode()

	if s.ctx.Schema.IsDenormalized(rs) {
		// Single-table pattern: the edge row carries both endpoints.
		on := denormalizedChainConditions(s, rel, rs)
		s.place(rel.Alias, qualifiedTable(rs.Database, rs.TableName), on, kind, preFilter)
		s.rels = append(s.rels, rel)
		return nil
	}

	// Seed the FROM anchor from whichever endpoint is already placed,
	// else from the left endpoint.
	if !s.isPlaced(rel.LeftConnection) && !s.isPlaced(rel.RightConnection) {
		seedKind := kind
		if rel.Optional && rel.AnchorConnection == rel.LeftConnection {
			seedKind = plan.InnerJoin
		}
		if err := placeNode(s, left, seedKind, nil, nil); err != nil {
			return err
		}
	}

	// Edge table joins the placed endpoint.
	var on []cypher.Expr
	if s.isPlaced(rel.LeftConnection) {
		on = append(on, endpointCondition(s.ctx, rel.Alias, rs.FromColumn, rel.LeftConnection, left))
	}
	if s.isPlaced(rel.RightConnection) {
		on = append(on, endpointCondition(s.ctx, rel.Alias, rs.ToColumn, rel.RightConnection, right))
	}
	s.place(rel.Alias, qualifiedTable(rs.Database, rs.TableName), on, kind, preFilter)
	s.rels = append(s.rels, rel)

	// Far endpoint joins the edge.
	if !s.isPlaced(rel.LeftConnection) {
		if err := placeNode(s, left, kind, []cypher.Expr{endpointCondition(s.ctx, rel.Alias, rs.FromColumn, rel.LeftConnection, left)}, nil); err != nil {
			return err
		}
	}
	if !s.isPlaced(rel.RightConnection) {
		if err := placeNode(s, right, kind, []cypher.Expr{endpointCondition(s.ctx, rel.Alias, rs.ToColumn, rel.RightConnection, right)}, nil); err != nil {
			return err
		}
	}
	return nil
}

// endpointCondition builds `edge.col = node.id`.
func endpointCondition(ctx *cypher.PlanCtx, edgeAlias, edgeColumn, nodeAlias string, gn *plan.GraphNode) cypher.Expr {
	idCol := ""
	if gn != nil && gn.Label != "" {
		if ns, err := ctx.Schema.Node(gn.Label); err == nil {
			idCol = ns.IDColumn()
		}
	}
	return expression.NewOp(expression.OpEq,
		expression.NewColumnRef(edgeAlias, edgeColumn),
		expression.NewColumnRef(nodeAlias, idCol),
	)
}

// denormalizedChainConditions connects a denormalised edge to
// previously placed edges that share one of its endpoint aliases,
// producing edge-to-edge id equalities.
func denormalizedChainConditions(s *joinState, rel *plan.GraphRel, rs *cypher.RelationshipSchema) []cypher.Expr {
	var on []cypher.Expr
	for _, j := range s.joins {
		otherRel := findPlacedRel(s, j.TableAlias)
		if otherRel == nil {
			continue
		}
		otherRS, err := s.ctx.Schema.Relationship(otherRel.Type())
		if err != nil {
			continue
		}
		for _, pair := range sharedEndpointColumns(rel, rs, otherRel, otherRS) {
			on = append(on, expression.NewOp(expression.OpEq,
				expression.NewColumnRef(rel.Alias, pair[0]),
				expression.NewColumnRef(otherRel.Alias, pair[1]),
			))
		}
	}
	return on
}

// relsByAlias caches nothing; the pattern trees are small.
func findPlacedRel(s *joinState, alias string) *plan.GraphRel {
	if !s.placed[alias] {
		return nil
	}
	var found *plan.GraphRel
	for _, r := range s.rels {
		if r.Alias == alias {
			found = r
			break
		}
	}
	return found
}

// sharedEndpointColumns returns (myColumn, otherColumn) pairs for every
// endpoint alias the two relationships share.
func sharedEndpointColumns(rel *plan.GraphRel, rs *cypher.RelationshipSchema, other *plan.GraphRel, otherRS *cypher.RelationshipSchema) [][2]string {
	myCol := func(alias string) (string, bool) {
		switch alias {
		case rel.LeftConnection:
			return rs.FromColumn, true
		case rel.RightConnection:
			return rs.ToColumn, true
		}
		return "", false
	}
	otherCol := func(alias string) (string, bool) {
		switch alias {
		case other.LeftConnection:
			return otherRS.FromColumn, true
		case other.RightConnection:
			return otherRS.ToColumn, true
		}
		return "", false
	}
	var out [][2]string
	for _, alias := range []string{rel.LeftConnection, rel.RightConnection} {
		mc, ok1 := myCol(alias)
		oc, ok2 := otherCol(alias)
		if ok1 && ok2 {
			out = append(out, [2]string{mc, oc})
		}
	}
	return out
}

func qualifiedTable(database, table string) string {
	if database == "" {
		return table
	}
	return database + "." + table
}
