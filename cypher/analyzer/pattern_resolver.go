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
	"sort"

	"github.com/mitchellh/hashstructure"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/plan"
	"github.com/genezhang/clickgraph/cypher/transform"
)

// maxPatternCombinations caps resolver fan-out. A query whose untyped
// pattern admits more concrete interpretations keeps the first cap's
// worth and records a warning.
const maxPatternCombinations = 64

// resolvePatterns grounds the patterns schema inference could not:
// untyped nodes and polymorphic relationships. Every schema-consistent
// assignment of labels and types becomes one clone of the plan with the
// assignment burned in; multiple clones are unioned. Zero consistent
// assignments compiles to the empty plan with a warning.
func resolvePatterns(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
	if hasVariableLengthPath(n) {
		// resolve_schema guarantees full resolution on this path.
		return n, transform.SameTree, nil
	}

	unresolved := unresolvedAliases(n)
	if len(unresolved) == 0 {
		return n, transform.SameTree, nil
	}

	props := collectReferencedProps(n)
	candidates := make(map[string][]string, len(unresolved))
	for _, u := range unresolved {
		var cands []string
		if u.node != nil {
			cands = nodeLabelCandidates(ctx.Schema, u.alias, props)
		} else {
			cands = relTypeCandidates(ctx.Schema, u.rel)
		}
		if len(cands) == 0 {
			ctx.Warn("no schema interpretation for pattern alias %s", u.alias)
			return plan.NewEmpty(), transform.NewTree, nil
		}
		candidates[u.alias] = cands
	}

	assignments, truncated, err := enumerateAssignments(ctx, n, unresolved, candidates)
	if err != nil {
		return nil, transform.SameTree, err
	}
	if truncated {
		ctx.Warn("pattern admits more than %d schema interpretations; keeping the first %d", maxPatternCombinations, maxPatternCombinations)
	}
	a.Log("pattern resolver found %d consistent assignments for %d unresolved aliases", len(assignments), len(unresolved))

	switch len(assignments) {
	case 0:
		ctx.Warn("pattern matches no relationship declared in the schema")
		return plan.NewEmpty(), transform.NewTree, nil
	case 1:
		out, _, err := applyAssignment(ctx, n, assignments[0])
		if err != nil {
			return nil, transform.SameTree, err
		}
		return out, transform.NewTree, nil
	}

	// ORDER BY, SKIP and LIMIT stay outside the union so they apply to
	// the combined rows.
	inner, rewrap := peelPagination(n)
	branches := make([]cypher.Node, 0, len(assignments))
	for _, assign := range assignments {
		branch, _, err := applyAssignment(ctx, inner, assign)
		if err != nil {
			return nil, transform.SameTree, err
		}
		branches = append(branches, branch)
	}
	return rewrap(plan.NewUnion(plan.UnionAll, branches...)), transform.NewTree, nil
}

type unresolvedAlias struct {
	alias string
	node  *plan.GraphNode
	rel   *plan.GraphRel
}

// unresolvedAliases returns unlabeled nodes and un- or multi-typed
// relationships, in deterministic alias order, one entry per alias.
func unresolvedAliases(n cypher.Node) []unresolvedAlias {
	byAlias := make(map[string]unresolvedAlias)
	transform.Inspect(n, func(node cypher.Node) bool {
		switch node := node.(type) {
		case *plan.GraphNode:
			if node.Label == "" {
				byAlias[node.Alias] = unresolvedAlias{alias: node.Alias, node: node}
			}
		case *plan.GraphRel:
			if len(node.Labels) != 1 {
				byAlias[node.Alias] = unresolvedAlias{alias: node.Alias, rel: node}
			}
		}
		return true
	})
	aliases := make([]string, 0, len(byAlias))
	for a := range byAlias {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	out := make([]unresolvedAlias, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, byAlias[a])
	}
	return out
}

// nodeLabelCandidates narrows the schema's labels by the properties the
// query reads off the alias.
func nodeLabelCandidates(schema *cypher.GraphSchema, alias string, props map[string]map[string]struct{}) []string {
	cands := schema.Labels()
	for p := range props[alias] {
		with := schema.LabelsWithProperty(p)
		cands = intersect(cands, with)
	}
	return cands
}

func relTypeCandidates(schema *cypher.GraphSchema, rel *plan.GraphRel) []string {
	if len(rel.Labels) > 1 {
		declared := make([]string, len(rel.Labels))
		copy(declared, rel.Labels)
		sort.Strings(declared)
		return declared
	}
	return schema.RelationshipTypes()
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// enumerateAssignments walks the candidate cross product depth first,
// keeping only assignments under which every relationship in the plan
// connects endpoint labels the schema declares for its type. Duplicate
// assignments (possible when an alias appears in several pattern
// elements) are hashed away.
func enumerateAssignments(ctx *cypher.PlanCtx, n cypher.Node, unresolved []unresolvedAlias, candidates map[string][]string) ([]map[string]string, bool, error) {
	var out []map[string]string
	truncated := false
	seen := make(map[uint64]struct{})
	assign := make(map[string]string, len(unresolved))

	var recurse func(i int) error
	recurse = func(i int) error {
		if i == len(unresolved) {
			if !assignmentConsistent(ctx.Schema, n, assign) {
				return nil
			}
			h, err := hashstructure.Hash(assign, nil)
			if err != nil {
				return cypher.ErrInternal.New("hashing pattern assignment: " + err.Error())
			}
			if _, dup := seen[h]; dup {
				return nil
			}
			seen[h] = struct{}{}
			if len(out) >= maxPatternCombinations {
				truncated = true
				return nil
			}
			cp := make(map[string]string, len(assign))
			for k, v := range assign {
				cp[k] = v
			}
			out = append(out, cp)
			return nil
		}
		u := unresolved[i]
		for _, cand := range candidates[u.alias] {
			if truncated {
				return nil
			}
			assign[u.alias] = cand
			if err := recurse(i + 1); err != nil {
				return err
			}
		}
		delete(assign, u.alias)
		return nil
	}
	if err := recurse(0); err != nil {
		return nil, false, err
	}
	return out, truncated, nil
}

// assignmentConsistent checks every relationship against the schema
// under the proposed assignment.
func assignmentConsistent(schema *cypher.GraphSchema, n cypher.Node, assign map[string]string) bool {
	ok := true
	transform.Inspect(n, func(node cypher.Node) bool {
		rel, isRel := node.(*plan.GraphRel)
		if !isRel {
			return true
		}
		typ := rel.Type()
		if t, assigned := assign[rel.Alias]; assigned {
			typ = t
		}
		if typ == "" {
			ok = false
			return false
		}
		rs, err := schema.Relationship(typ)
		if err != nil {
			ok = false
			return false
		}
		left := resolvedLabel(rel.LeftNode(), assign)
		right := resolvedLabel(rel.RightNode(), assign)
		if left != rs.FromNode || right != rs.ToNode {
			ok = false
			return false
		}
		return true
	})
	return ok
}

func resolvedLabel(gn *plan.GraphNode, assign map[string]string) string {
	if gn == nil {
		return ""
	}
	if l, ok := assign[gn.Alias]; ok {
		return l
	}
	return gn.Label
}

// applyAssignment rewrites one clone of the plan with the assignment's
// labels and types burned into the pattern nodes. Later lowering reads
// labels from the plan, not the shared alias bindings, so branches stay
// independent.
func applyAssignment(ctx *cypher.PlanCtx, n cypher.Node, assign map[string]string) (cypher.Node, transform.TreeIdentity, error) {
	return transform.Node(n, func(node cypher.Node) (cypher.Node, transform.TreeIdentity, error) {
		switch node := node.(type) {
		case *plan.GraphNode:
			label, ok := assign[node.Alias]
			if !ok {
				return node, transform.SameTree, nil
			}
			ns, err := ctx.Schema.Node(label)
			if err != nil {
				return nil, transform.SameTree, err
			}
			nn := *node
			nn.Label = label
			nn.Denormalized = ns.IsDenormalized
			nn.Input = plan.NewScan(ns.Database, ns.TableName, node.Alias)
			return &nn, transform.NewTree, nil
		case *plan.GraphRel:
			typ, ok := assign[node.Alias]
			if !ok {
				return node, transform.SameTree, nil
			}
			rs, err := ctx.Schema.Relationship(typ)
			if err != nil {
				return nil, transform.SameTree, err
			}
			nr := *node
			nr.Labels = []string{typ}
			nr.Center = plan.NewScan(rs.Database, rs.TableName, node.Alias)
			return &nr, transform.NewTree, nil
		default:
			return node, transform.SameTree, nil
		}
	})
}

// peelPagination strips Limit, Skip and OrderBy wrappers off the top of
// the plan and returns a function that puts them back.
func peelPagination(n cypher.Node) (cypher.Node, func(cypher.Node) cypher.Node) {
	type wrap func(cypher.Node) cypher.Node
	var wraps []wrap
	for {
		switch top := n.(type) {
		case *plan.Limit:
			l := top
			wraps = append(wraps, func(c cypher.Node) cypher.Node { return plan.NewLimit(l.N, c) })
			n = l.Child
		case *plan.Skip:
			s := top
			wraps = append(wraps, func(c cypher.Node) cypher.Node { return plan.NewSkip(s.N, c) })
			n = s.Child
		case *plan.OrderBy:
			o := top
			wraps = append(wraps, func(c cypher.Node) cypher.Node { return plan.NewOrderBy(o.Fields, c) })
			n = o.Child
		default:
			return n, func(c cypher.Node) cypher.Node {
				for i := len(wraps) - 1; i >= 0; i-- {
					c = wraps[i](c)
				}
				return c
			}
		}
	}
}
