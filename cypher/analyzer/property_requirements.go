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
	"github.com/genezhang/clickgraph/cypher/transform"
)

// analyzePropertyRequirements records, per pattern alias, which
// properties later clauses actually read. CTE generation and column
// pruning consult these sets; an alias that is only joined through
// never pays for its property columns. The pass mutates the context,
// never the tree.
func analyzePropertyRequirements(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	transform.InspectExpressions(n, func(e cypher.Expr) bool {
		switch e := e.(type) {
		case *expression.Property:
			ctx.Require(e.Alias, e.Key)
		case *expression.Var:
			// Projecting a whole node or relationship needs all of its
			// mapped properties.
			if b := ctx.Binding(e.VarName); b != nil && (b.Kind == cypher.NodeAlias || b.Kind == cypher.RelAlias) {
				ctx.RequireAll(e.VarName)
			}
		case *expression.Star:
			if e.Alias != "" {
				ctx.RequireAll(e.Alias)
			}
		}
		return true
	})

	// `WITH collect(x) AS xs ... UNWIND xs AS y` reads of y.p are really
	// reads of x.p; fold them back onto the collected alias.
	for _, alias := range ctx.Aliases() {
		src, ok := ctx.UnwindSource(alias)
		if !ok {
			continue
		}
		if collected, ok := ctx.CollectSource(src); ok {
			src = collected
		}
		if req := ctx.Requirements(alias); req != nil {
			if b := ctx.Binding(src); b != nil {
				a.Log("propagating %d requirements from unwind alias %s to %s", len(req.Properties()), alias, src)
				mergeReq(ctx, src, req)
			}
		}
	}

	return n, transform.SameTree, nil
}

func mergeReq(ctx *cypher.PlanCtx, alias string, req *cypher.PropertySet) {
	if req.All {
		ctx.RequireAll(alias)
		return
	}
	for _, p := range req.Properties() {
		ctx.Require(alias, p)
	}
}
