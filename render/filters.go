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
	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/expression"
)

// FilterBuckets is the outcome of classifying a WHERE conjunction
// against one variable-length path: each leaf predicate lands in the
// bucket named by the aliases it touches. Mixed-bucket predicates stay
// in Outer.
type FilterBuckets struct {
	Start []cypher.Expr
	End   []cypher.Expr
	Rel   []cypher.Expr
	// Path holds predicates over the whole path variable, kept for the
	// outer query.
	Path  []cypher.Expr
	Outer []cypher.Expr
}

// ClassifyFilters splits the predicate into per-bucket conjuncts for
// the given VLP. A nil vlp sends everything to Outer.
func ClassifyFilters(pred cypher.Expr, vlp *cypher.VLPBinding) *FilterBuckets {
	b := &FilterBuckets{}
	for _, leaf := range expression.SplitConjunction(pred) {
		b.add(leaf, vlp)
	}
	return b
}

func (b *FilterBuckets) add(leaf cypher.Expr, vlp *cypher.VLPBinding) {
	if vlp == nil {
		b.Outer = append(b.Outer, leaf)
		return
	}
	refs := expression.ReferencedAliases(leaf)
	if len(refs) == 0 {
		b.Outer = append(b.Outer, leaf)
		return
	}
	bucket := ""
	for _, alias := range refs {
		var this string
		switch alias {
		case vlp.StartAlias:
			this = "start"
		case vlp.EndAlias:
			this = "end"
		case vlp.RelAlias:
			this = "rel"
		case vlp.PathVar:
			this = "path"
		default:
			this = "outer"
		}
		if bucket == "" {
			bucket = this
		} else if bucket != this {
			bucket = "outer"
			break
		}
	}
	switch bucket {
	case "start":
		b.Start = append(b.Start, leaf)
	case "end":
		b.End = append(b.End, leaf)
	case "rel":
		b.Rel = append(b.Rel, leaf)
	case "path":
		b.Path = append(b.Path, leaf)
	default:
		b.Outer = append(b.Outer, leaf)
	}
}
