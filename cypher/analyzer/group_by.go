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

// buildGroupBy inserts aggregation nodes. Cypher has no GROUP BY: any
// projection mixing aggregates with plain expressions groups implicitly
// by the plain ones. A WHERE after an aggregating WITH becomes HAVING
// when it reads an aggregated alias, and stays a plain filter
// otherwise.
func buildGroupBy(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	return transform.Node(n, func(node cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
		switch node := node.(type) {
		case *plan.Projection:
			keys, agg := groupingKeys(node.Items)
			if !agg {
				return node, transform.SameTree, nil
			}
			gb := plan.NewGroupBy(node.Items, keys, node.Child)
			np := *node
			np.Child = gb
			a.Log("grouping RETURN by %d keys", len(keys))
			return &np, transform.NewTree, nil
		case *plan.WithClause:
			keys, agg := groupingKeys(node.Items)
			if !agg {
				return node, transform.SameTree, nil
			}
			gb := plan.NewGroupBy(node.Items, keys, node.Child)
			nw := *node
			if nw.Where != nil && referencesAggregatedAlias(nw.Where, node, ctx) {
				gb.Having = nw.Where
				nw.Where = nil
			}
			nw.Child = gb
			a.Log("grouping WITH by %d keys", len(keys))
			return &nw, transform.NewTree, nil
		default:
			return node, transform.SameTree, nil
		}
	})
}

// groupingKeys returns the non-aggregate items as grouping keys and
// whether any item aggregates. Aliases are unwrapped: the key is the
// underlying expression.
func groupingKeys(items []cypher.Expr) ([]cypher.Expr, bool) {
	var keys []cypher.Expr
	agg := false
	for _, item := range items {
		e := item
		if al, ok := e.(*expression.Alias); ok {
			e = al.Child
		}
		if expression.ContainsAggregate(e) {
			agg = true
			continue
		}
		keys = append(keys, e)
	}
	return keys, agg
}

// referencesAggregatedAlias reports whether the predicate reads an
// alias that the WITH clause computed with an aggregate.
func referencesAggregatedAlias(pred cypher.Expr, w *plan.WithClause, ctx *cypher.PlanCtx) bool {
	aggregated := make(map[string]struct{})
	for i, item := range w.Items {
		if expression.ContainsAggregate(item) && i < len(w.ExportedAliases) {
			aggregated[w.ExportedAliases[i]] = struct{}{}
		}
	}
	if len(aggregated) == 0 {
		return false
	}
	found := false
	transform.InspectExpr(pred, func(e cypher.Expr) bool {
		if v, ok := e.(*expression.Var); ok {
			if _, ok := aggregated[v.VarName]; ok {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
