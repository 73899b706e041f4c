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
	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/ast"
	"github.com/genezhang/clickgraph/cypher/expression"
	"github.com/genezhang/clickgraph/cypher/plan"
)

// buildPattern appends one path pattern to the plan built so far.
// Patterns that share an alias with the existing plan are chained onto
// it; disconnected patterns become a CartesianProduct.
func (b *Builder) buildPattern(current cypher.Node, p *ast.Pattern, optional bool) (cypher.Node, error) {
	nodes, rels, err := splitPattern(p)
	if err != nil {
		return nil, err
	}
	if p.Shortest != ast.NoShortest && len(rels) != 1 {
		return nil, cypher.ErrUnsupportedFeature.New("shortest path over a multi-relationship pattern")
	}

	currentAliases := make(map[string]struct{})
	for _, a := range plan.PatternAliases(current) {
		currentAliases[a] = struct{}{}
	}

	var preds []cypher.Expr
	attached := false
	anchor := ""

	// endpointChild returns the plan subtree standing for one endpoint:
	// the existing plan when the alias is shared with it (first share
	// wins), else a fresh GraphNode.
	endpointChild := func(np *ast.NodePattern, alias string, chain cypher.Node, chainAliases map[string]struct{}) (cypher.Node, error) {
		if _, inChain := chainAliases[alias]; inChain && chain != nil {
			// A cycle inside this pattern; the node is already in the
			// chain, so reference it with a bare GraphNode carrying the
			// same alias. Join inference folds it onto the existing
			// table alias.
			return b.buildGraphNode(np, alias, optional, &preds)
		}
		if current != nil && !attached {
			if _, shared := currentAliases[alias]; shared {
				attached = true
				anchor = alias
				return current, nil
			}
		}
		return b.buildGraphNode(np, alias, optional, &preds)
	}

	// Single node pattern.
	if len(rels) == 0 {
		alias := b.nodeAlias(nodes[0])
		if _, shared := currentAliases[alias]; shared && current != nil {
			node := current
			if err := b.collectNodeProps(nodes[0], alias, &preds); err != nil {
				return nil, err
			}
			return wrapPreds(preds, node), nil
		}
		gn, err := b.buildGraphNode(nodes[0], alias, optional, &preds)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return wrapPreds(preds, gn), nil
		}
		cp := plan.NewCartesianProduct(current, gn)
		cp.Optional = optional
		return wrapPreds(preds, cp), nil
	}

	chainAliases := make(map[string]struct{})
	var chain cypher.Node
	leftAlias := b.nodeAlias(nodes[0])

	for i, rp := range rels {
		rightAlias := b.nodeAlias(nodes[i+1])

		var leftChild cypher.Node
		if chain != nil {
			leftChild = chain
		} else {
			leftChild, err = endpointChild(nodes[i], leftAlias, chain, chainAliases)
			if err != nil {
				return nil, err
			}
		}
		rightChild, err := endpointChild(nodes[i+1], rightAlias, chain, chainAliases)
		if err != nil {
			return nil, err
		}

		rel, err := b.buildGraphRel(rp, p, leftChild, rightChild, leftAlias, rightAlias, optional, &preds)
		if err != nil {
			return nil, err
		}
		chain = rel
		chainAliases[leftAlias] = struct{}{}
		chainAliases[rightAlias] = struct{}{}
		chainAliases[rel.Alias] = struct{}{}
		leftAlias = rightAlias
	}

	if p.Variable != "" {
		b.ctx.Bind(p.Variable, &cypher.AliasBinding{Kind: cypher.PathAlias})
	}

	if current != nil && !attached {
		cp := plan.NewCartesianProduct(current, chain)
		cp.Optional = optional
		return wrapPreds(preds, cp), nil
	}
	if optional && anchor != "" {
		// Record the required-pattern alias the optional part hangs off.
		setAnchor(chain, anchor)
	}
	return wrapPreds(preds, chain), nil
}

// splitPattern checks node/relationship alternation and separates the
// two element kinds.
func splitPattern(p *ast.Pattern) ([]*ast.NodePattern, []*ast.RelPattern, error) {
	if len(p.Elements) == 0 || len(p.Elements)%2 == 0 {
		return nil, nil, cypher.ErrMalformedClause.New("MATCH", "pattern must alternate nodes and relationships")
	}
	var nodes []*ast.NodePattern
	var rels []*ast.RelPattern
	for i, el := range p.Elements {
		if i%2 == 0 {
			n, ok := el.(*ast.NodePattern)
			if !ok {
				return nil, nil, cypher.ErrMalformedClause.New("MATCH", "expected node pattern")
			}
			nodes = append(nodes, n)
		} else {
			r, ok := el.(*ast.RelPattern)
			if !ok {
				return nil, nil, cypher.ErrMalformedClause.New("MATCH", "expected relationship pattern")
			}
			rels = append(rels, r)
		}
	}
	return nodes, rels, nil
}

// nodeAlias returns the declared variable or mints an anonymous one.
// Anonymous aliases are remembered per node pattern so repeated calls
// agree.
func (b *Builder) nodeAlias(np *ast.NodePattern) string {
	if np.Variable == "" {
		np.Variable = cypher.NextAlias()
	}
	return np.Variable
}

// buildGraphNode creates the GraphNode for one node pattern, binds its
// alias, and collects inline property predicates.
func (b *Builder) buildGraphNode(np *ast.NodePattern, alias string, optional bool, preds *[]cypher.Expr) (cypher.Node, error) {
	var label string
	var input cypher.Node
	var labels []string

	switch {
	case len(np.Labels) == 1 && np.Labels[0] != cypher.AnyLabel:
		label = np.Labels[0]
		ns, err := b.schema.Node(label)
		if err != nil {
			return nil, err
		}
		labels = []string{label}
		input = plan.NewScan(ns.Database, ns.TableName, alias)
	case len(np.Labels) > 1:
		return nil, cypher.ErrUnsupportedFeature.New("multiple labels on one node pattern")
	default:
		// Untyped node or the $any wildcard: scan every candidate table
		// under a Union for the pattern resolver to prune.
		var scans []cypher.Node
		for _, l := range b.schema.Labels() {
			ns := b.schema.Nodes[l]
			scans = append(scans, plan.NewScan(ns.Database, ns.TableName, alias))
		}
		if len(scans) == 0 {
			return nil, cypher.ErrUnknownLabel.New("(empty schema)")
		}
		input = plan.NewUnion(plan.UnionAll, scans...)
	}

	if existing := b.ctx.Binding(alias); existing == nil {
		b.ctx.Bind(alias, &cypher.AliasBinding{
			Kind:     cypher.NodeAlias,
			Labels:   labels,
			Optional: optional,
		})
	}

	if err := b.collectNodeProps(np, alias, preds); err != nil {
		return nil, err
	}

	gn := plan.NewGraphNode(alias, label, input)
	return gn, nil
}

func (b *Builder) collectNodeProps(np *ast.NodePattern, alias string, preds *[]cypher.Expr) error {
	for _, key := range sortedPropKeys(np.Properties) {
		val, err := b.buildExpr(np.Properties[key])
		if err != nil {
			return err
		}
		*preds = append(*preds, expression.NewOp(expression.OpEq, expression.NewProperty(alias, key), val))
	}
	return nil
}

// buildGraphRel creates the GraphRel for one relationship pattern,
// normalising endpoint order so the left side always connects to the
// edge table's from column.
func (b *Builder) buildGraphRel(
	rp *ast.RelPattern,
	p *ast.Pattern,
	leftChild, rightChild cypher.Node,
	leftAlias, rightAlias string,
	optional bool,
	preds *[]cypher.Expr,
) (*plan.GraphRel, error) {
	alias := rp.Variable
	if alias == "" {
		alias = cypher.NextAlias()
	}

	var table, database string
	for _, t := range rp.Types {
		rs, err := b.schema.Relationship(t)
		if err != nil {
			return nil, err
		}
		if table == "" {
			table, database = rs.TableName, rs.Database
		}
	}

	varLength, err := normalizeVarLength(rp.VarLength, p.Shortest)
	if err != nil {
		return nil, err
	}

	rel := &plan.GraphRel{
		Alias:           alias,
		Center:          plan.NewScan(database, table, alias),
		Labels:          rp.Types,
		VarLength:       varLength,
		PathVariable:    p.Variable,
		Optional:        optional,
		LeftConnection:  leftAlias,
		RightConnection: rightAlias,
	}

	switch p.Shortest {
	case ast.ShortestPath:
		rel.Shortest = plan.ShortestPath
	case ast.AllShortestPaths:
		rel.Shortest = plan.AllShortestPaths
	}

	switch rp.Direction {
	case ast.Outgoing:
		rel.Direction = plan.Outgoing
		rel.Left, rel.Right = leftChild, rightChild
	case ast.Incoming:
		// Normalise: the textual right node is the edge's from side.
		rel.Direction = plan.Incoming
		rel.Left, rel.Right = rightChild, leftChild
		rel.LeftConnection, rel.RightConnection = rightAlias, leftAlias
	case ast.Undirected:
		rel.Direction = plan.Undirected
		rel.Left, rel.Right = leftChild, rightChild
		if varLength == nil {
			b.ctx.Warn("undirected relationship %s planned as directed (from %s to %s)", alias, leftAlias, rightAlias)
		}
	}

	if existing := b.ctx.Binding(alias); existing == nil {
		b.ctx.Bind(alias, &cypher.AliasBinding{
			Kind:     cypher.RelAlias,
			RelTypes: rp.Types,
			Optional: optional,
		})
	}

	for _, key := range sortedPropKeys(rp.Properties) {
		val, err := b.buildExpr(rp.Properties[key])
		if err != nil {
			return nil, err
		}
		*preds = append(*preds, expression.NewOp(expression.OpEq, expression.NewProperty(alias, key), val))
	}
	if rp.Where != nil {
		rel.Where, err = b.buildExpr(rp.Where)
		if err != nil {
			return nil, err
		}
	}

	return rel, nil
}

// normalizeVarLength turns parser bounds into plan bounds: `*` is
// 1..unbounded, `*n` is n..n, `*m..n` validates m <= n. A bare
// shortest-path pattern without explicit bounds is variable length by
// definition.
func normalizeVarLength(v *ast.VarLength, shortest ast.ShortestMode) (*plan.VarLength, error) {
	if v == nil {
		if shortest != ast.NoShortest {
			return &plan.VarLength{Min: 1}, nil
		}
		return nil, nil
	}

	min := int64(1)
	if v.Min != nil {
		min = *v.Min
	}
	if min < 0 {
		maxStr := int64(-1)
		if v.Max != nil {
			maxStr = *v.Max
		}
		return nil, cypher.ErrInvalidVariableLengthBounds.New(min, maxStr)
	}
	out := &plan.VarLength{Min: min}
	if v.Max != nil {
		max := *v.Max
		if max < min || max == 0 {
			return nil, cypher.ErrInvalidVariableLengthBounds.New(min, max)
		}
		out.Max = &max
	}
	return out, nil
}

func wrapPreds(preds []cypher.Expr, node cypher.Node) cypher.Node {
	if len(preds) == 0 {
		return node
	}
	return plan.NewFilter(expression.JoinAnd(preds...), node)
}

// setAnchor marks every optional GraphRel in the subtree with the
// required-pattern alias it attaches to.
func setAnchor(n cypher.Node, anchor string) {
	if rel, ok := n.(*plan.GraphRel); ok && rel.Optional && rel.AnchorConnection == "" {
		rel.AnchorConnection = anchor
	}
	for _, c := range n.Children() {
		setAnchor(c, anchor)
	}
}
