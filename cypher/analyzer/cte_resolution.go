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

// resolveCteSchemas decides which WITH boundaries must materialise as
// CTEs. A boundary needs one when it changes the row set: DISTINCT,
// aggregation, pagination, or a post-WITH WHERE. Pure projections ran
// through collapse or stay inline. Each materialised boundary wraps its
// subtree in a Cte node and binds the exported aliases to the CTE name
// so downstream lowering redirects references.
func resolveCteSchemas(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	return transform.Node(n, func(node cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
		w, ok := node.(*plan.WithClause)
		if !ok {
			return node, transform.SameTree, nil
		}
		if !withNeedsCte(w) {
			return node, transform.SameTree, nil
		}
		name := cypher.NextCteName()
		for _, alias := range w.ExportedAliases {
			ctx.BindCte(alias, name)
		}
		a.Log("materialising WITH boundary as %s (exports %v)", name, w.ExportedAliases)
		return plan.NewCte(name, w), transform.NewTree, nil
	})
}

func withNeedsCte(w *plan.WithClause) bool {
	if w.Distinct || w.Where != nil || w.HasPagination() {
		return true
	}
	for _, item := range w.Items {
		if expression.ContainsAggregate(item) {
			return true
		}
	}
	return false
}
