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

// collapseScopingWith removes WITH clauses that only rename scope:
// every item a bare variable passed through under its own name, no
// DISTINCT, WHERE, or pagination. Such clauses would otherwise force a
// pointless CTE. Variable-length paths keep their WITH boundaries;
// the CTE they anchor is load-bearing there.
func collapseScopingWith(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	if hasVariableLengthPath(n) {
		return n, transform.SameTree, nil
	}

	return transform.Node(n, func(node cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
		w, ok := node.(*plan.WithClause)
		if !ok {
			return node, transform.SameTree, nil
		}
		if w.Distinct || w.Where != nil || w.HasPagination() {
			return node, transform.SameTree, nil
		}
		if len(w.Items) < 2 {
			// A single passthrough item usually scopes an aggregate
			// pipeline upstream; leave it for CTE resolution to judge.
			return node, transform.SameTree, nil
		}
		for i, item := range w.Items {
			// `WITH a` and `WITH a AS a` both pass the variable through.
			e := item
			if al, ok := item.(*expression.Alias); ok {
				e = al.Child
			}
			v, ok := e.(*expression.Var)
			if !ok || v.VarName != w.ExportedAliases[i] {
				return node, transform.SameTree, nil
			}
		}
		a.Log("collapsing pure scoping WITH over %v", w.ExportedAliases)
		return w.Child, transform.NewTree, nil
	})
}
