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

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/plan"
	"github.com/genezhang/clickgraph/cypher/transform"
)

// ResolutionKind says how a Cypher alias reaches its columns.
type ResolutionKind int

const (
	// StandardTable reads columns off the alias's own table.
	StandardTable ResolutionKind = iota
	// DenormalizedNode reads node columns off a relationship's row.
	DenormalizedNode
)

// Resolution is the SQL-side identity of one Cypher alias.
type Resolution struct {
	Kind ResolutionKind
	// TableAlias is the SQL alias to qualify columns with. For
	// DenormalizedNode it is the relationship's alias.
	TableAlias string
	// Role says which endpoint of the edge row a denormalised node
	// occupies.
	Role cypher.EndpointRole
	// RelType is the owning relationship type for DenormalizedNode.
	RelType string
}

// AliasResolver maps Cypher aliases to SQL aliases, unifying coupled
// edges: distinct relationship aliases over the same physical table
// with disjoint type sets collapse onto the first alias.
type AliasResolver struct {
	resolutions map[string]Resolution
}

// NewAliasResolver builds the map by walking the analyzed plan's
// pattern nodes.
func NewAliasResolver(ctx *cypher.PlanCtx, n cypher.Node) *AliasResolver {
	r := &AliasResolver{resolutions: make(map[string]Resolution)}

	var rels []relInfo

	transform.Inspect(n, func(node cypher.Node) bool {
		switch node := node.(type) {
		case *plan.GraphNode:
			if _, seen := r.resolutions[node.Alias]; !seen && !node.Denormalized {
				r.resolutions[node.Alias] = Resolution{Kind: StandardTable, TableAlias: node.Alias}
			}
		case *plan.GraphRel:
			if typ := node.Type(); typ != "" {
				if rs, err := ctx.Schema.Relationship(typ); err == nil {
					rels = append(rels, relInfo{node, rs})
				}
			}
			if _, seen := r.resolutions[node.Alias]; !seen {
				r.resolutions[node.Alias] = Resolution{Kind: StandardTable, TableAlias: node.Alias}
			}
		}
		return true
	})

	// Denormalised endpoints resolve through their edge row.
	for _, ri := range rels {
		if !ctx.Schema.IsDenormalized(ri.rs) {
			continue
		}
		if gn := ri.rel.LeftNode(); gn != nil && gn.Denormalized {
			r.resolutions[gn.Alias] = Resolution{
				Kind:       DenormalizedNode,
				TableAlias: ri.rel.Alias,
				Role:       cypher.RoleFrom,
				RelType:    ri.rs.TypeName,
			}
		}
		if gn := ri.rel.RightNode(); gn != nil && gn.Denormalized {
			r.resolutions[gn.Alias] = Resolution{
				Kind:       DenormalizedNode,
				TableAlias: ri.rel.Alias,
				Role:       cypher.RoleTo,
				RelType:    ri.rs.TypeName,
			}
		}
	}

	// Coupled edges: group by physical table, unify when the type sets
	// are disjoint (true polymorphism). Multi-hop over one type keeps
	// per-hop aliases.
	byTable := make(map[string][]relInfo)
	for _, ri := range rels {
		key := ri.rs.Database + "." + ri.rs.TableName
		byTable[key] = append(byTable[key], ri)
	}
	tables := make([]string, 0, len(byTable))
	for t := range byTable {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		group := byTable[t]
		if len(group) < 2 || !disjointTypes(group) {
			continue
		}
		first := group[0].rel.Alias
		for _, ri := range group[1:] {
			r.rebind(ri.rel.Alias, first)
		}
	}

	return r
}

type relInfo struct {
	rel *plan.GraphRel
	rs  *cypher.RelationshipSchema
}

func disjointTypes(group []relInfo) bool {
	seen := make(map[string]struct{}, len(group))
	for _, ri := range group {
		if _, dup := seen[ri.rs.TypeName]; dup {
			return false
		}
		seen[ri.rs.TypeName] = struct{}{}
	}
	return true
}

// rebind redirects an alias (and everything resolving through it) to
// the unified SQL alias.
func (r *AliasResolver) rebind(from, to string) {
	for alias, res := range r.resolutions {
		if res.TableAlias == from {
			res.TableAlias = to
			r.resolutions[alias] = res
		}
	}
}

// Resolve returns the SQL-side identity of the alias.
func (r *AliasResolver) Resolve(alias string) (Resolution, bool) {
	res, ok := r.resolutions[alias]
	return res, ok
}

// TableAlias returns the SQL alias for the Cypher alias, falling back
// to the alias itself for scope-projected names.
func (r *AliasResolver) TableAlias(alias string) string {
	if res, ok := r.resolutions[alias]; ok {
		return res.TableAlias
	}
	return alias
}
