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

// resolveSchema infers missing node labels and relationship types.
// For a single (a)-[r]-(b), any two of (label(a), type(r), label(b))
// determine the third through the relationship catalog; ties between
// candidates are broken by looking for a filtered or projected
// property that belongs to exactly one candidate. Runs to a fixpoint
// so chains propagate.
func resolveSchema(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	props := collectReferencedProps(n)

	identity := transform.SameTree
	for iter := 0; iter < maxInferenceIterations; iter++ {
		changed := false
		var err error
		transform.Inspect(n, func(node cypher.Node) bool {
			rel, ok := node.(*plan.GraphRel)
			if !ok {
				return true
			}
			var c bool
			c, err = inferRel(a, ctx, rel, props)
			if err != nil {
				return false
			}
			changed = changed || c
			return true
		})
		if err != nil {
			return nil, transform.SameTree, err
		}
		if !changed {
			break
		}
		identity = transform.NewTree
	}

	// With a variable-length path the pattern resolver is bypassed, so
	// everything must be resolved here.
	if hasVariableLengthPath(n) {
		var err error
		transform.Inspect(n, func(node cypher.Node) bool {
			rel, ok := node.(*plan.GraphRel)
			if !ok {
				return true
			}
			left, right := rel.LeftNode(), rel.RightNode()
			leftLabel, rightLabel := nodeLabel(left), nodeLabel(right)
			if len(rel.Labels) == 0 {
				if leftLabel != "" && rightLabel != "" {
					err = cypher.ErrMissingRelationLabel.New(leftLabel, rightLabel)
				} else {
					err = cypher.ErrNotEnoughLabels.New(rel.LeftConnection, rel.Alias, rel.RightConnection)
				}
				return false
			}
			if leftLabel == "" || rightLabel == "" {
				err = cypher.ErrNotEnoughLabels.New(rel.LeftConnection, rel.Alias, rel.RightConnection)
				return false
			}
			return true
		})
		if err != nil {
			return nil, transform.SameTree, err
		}
	}

	return n, identity, nil
}

const maxInferenceIterations = 32

func nodeLabel(gn *plan.GraphNode) string {
	if gn == nil {
		return ""
	}
	return gn.Label
}

// inferRel tries to complete one relationship's triple. It mutates the
// pattern nodes in place; the tree is not shared until analysis ends.
func inferRel(a *Analyzer, ctx *cypher.PlanCtx, rel *plan.GraphRel, props map[string]map[string]struct{}) (bool, error) {
	left, right := rel.LeftNode(), rel.RightNode()
	leftLabel, rightLabel := nodeLabel(left), nodeLabel(right)
	schema := ctx.Schema

	// Relationship type known: endpoints follow its declaration.
	if typ := rel.Type(); typ != "" {
		rs, err := schema.Relationship(typ)
		if err != nil {
			return false, err
		}
		changed := false
		if leftLabel == "" && left != nil {
			if err := assignNodeLabel(ctx, left, rs.FromNode); err != nil {
				return false, err
			}
			changed = true
		}
		if rightLabel == "" && right != nil {
			if err := assignNodeLabel(ctx, right, rs.ToNode); err != nil {
				return false, err
			}
			changed = true
		}
		if changed {
			a.Log("resolved endpoints of %s from relationship %s", rel.Alias, typ)
		}
		return changed, nil
	}

	if len(rel.Labels) > 1 {
		// Polymorphic pattern; nothing to infer deterministically.
		return false, nil
	}

	// Type unknown. Candidates come from whichever endpoint labels are
	// known; property inspection breaks ties.
	cands := schema.RelationshipsBetween(leftLabel, rightLabel)
	if leftLabel == "" && rightLabel == "" {
		return false, nil
	}
	if len(cands) == 0 {
		return false, cypher.ErrMissingRelationLabel.New(orUnknown(leftLabel), orUnknown(rightLabel))
	}
	if len(cands) > 1 {
		cands = narrowByProps(schema, cands, rel, props)
	}
	if len(cands) != 1 {
		return false, nil
	}

	rs := cands[0]
	if err := assignRelType(ctx, rel, rs); err != nil {
		return false, err
	}
	if leftLabel == "" && left != nil {
		if err := assignNodeLabel(ctx, left, rs.FromNode); err != nil {
			return false, err
		}
	}
	if rightLabel == "" && right != nil {
		if err := assignNodeLabel(ctx, right, rs.ToNode); err != nil {
			return false, err
		}
	}
	a.Log("resolved relationship %s to type %s", rel.Alias, rs.TypeName)
	return true, nil
}

// narrowByProps drops candidates whose relationship or unknown
// endpoint cannot carry the properties the query references.
func narrowByProps(schema *cypher.GraphSchema, cands []*cypher.RelationshipSchema, rel *plan.GraphRel, props map[string]map[string]struct{}) []*cypher.RelationshipSchema {
	keep := func(rs *cypher.RelationshipSchema) bool {
		for p := range props[rel.Alias] {
			if _, ok := rs.PropertyMappings[p]; !ok {
				return false
			}
		}
		for _, side := range []struct {
			alias string
			label string
		}{
			{rel.LeftConnection, rs.FromNode},
			{rel.RightConnection, rs.ToNode},
		} {
			ns, ok := schema.Nodes[side.label]
			if !ok {
				return false
			}
			for p := range props[side.alias] {
				if !ns.HasProperty(p) {
					if _, onEdge := rs.FromNodeProperties[p]; side.label == rs.FromNode && onEdge {
						continue
					}
					if _, onEdge := rs.ToNodeProperties[p]; side.label == rs.ToNode && onEdge {
						continue
					}
					return false
				}
			}
		}
		return true
	}

	var out []*cypher.RelationshipSchema
	for _, rs := range cands {
		if keep(rs) {
			out = append(out, rs)
		}
	}
	return out
}

func assignNodeLabel(ctx *cypher.PlanCtx, gn *plan.GraphNode, label string) error {
	ns, err := ctx.Schema.Node(label)
	if err != nil {
		return err
	}
	gn.Label = label
	gn.Denormalized = ns.IsDenormalized
	gn.Input = plan.NewScan(ns.Database, ns.TableName, gn.Alias)
	if b := ctx.Binding(gn.Alias); b != nil {
		b.Labels = []string{label}
		b.Denormalized = ns.IsDenormalized
	}
	return nil
}

func assignRelType(ctx *cypher.PlanCtx, rel *plan.GraphRel, rs *cypher.RelationshipSchema) error {
	rel.Labels = []string{rs.TypeName}
	rel.Center = plan.NewScan(rs.Database, rs.TableName, rel.Alias)
	if b := ctx.Binding(rel.Alias); b != nil {
		b.RelTypes = []string{rs.TypeName}
	}
	return nil
}

func orUnknown(label string) string {
	if label == "" {
		return "?"
	}
	return label
}

// collectReferencedProps gathers, per alias, every property the query
// filters or projects, for inference tie-breaking.
func collectReferencedProps(n cypher.Node) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	transform.InspectExpressions(n, func(e cypher.Expr) bool {
		if p, ok := e.(*expression.Property); ok {
			if out[p.Alias] == nil {
				out[p.Alias] = make(map[string]struct{})
			}
			out[p.Alias][p.Key] = struct{}{}
		}
		return true
	})
	return out
}
