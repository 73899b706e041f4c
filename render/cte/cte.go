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

// Package cte generates the recursive common table expressions that
// implement variable-length path traversal, choosing one of six
// physical strategies from the schema shape of the pattern.
package cte

import (
	"fmt"
	"strings"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/plan"
)

// Strategy is the physical traversal shape of one variable-length
// pattern.
type Strategy int

const (
	// Traditional joins node table, edge table, node table per hop.
	Traditional Strategy = iota
	// Denormalized walks a single edge table carrying both endpoints.
	Denormalized
	// FKEdge follows a foreign-key column inside a node row.
	FKEdge
	// Mixed has one endpoint in its own table, the other embedded in
	// the edge row.
	Mixed
	// EdgeToEdge chains a shared edge table without an intermediate
	// node table.
	EdgeToEdge
	// CoupledSameRow reads multiple edges off columns of one row and
	// degenerates to a single SELECT.
	CoupledSameRow
)

func (s Strategy) String() string {
	switch s {
	case Denormalized:
		return "denormalized"
	case FKEdge:
		return "fk-edge"
	case Mixed:
		return "mixed"
	case EdgeToEdge:
		return "edge-to-edge"
	case CoupledSameRow:
		return "coupled-same-row"
	default:
		return "traditional"
	}
}

// DefaultMaxHops caps unbounded traversals.
const DefaultMaxHops = int64(10)

// ShortestSelfMaxHops is the tighter cap applied when both endpoints
// are the same alias under a shortest-path mode.
const ShortestSelfMaxHops = int64(3)

// PropertyColumn binds one required Cypher property to its physical
// column for projection into the CTE.
type PropertyColumn struct {
	Prop   string
	Column string
}

// PatternSchemaContext describes a single variable-length pattern
// (start)-[rel*]-(end) with everything generation needs: schemas,
// bounds, required properties, and pre-rendered filter fragments.
type PatternSchemaContext struct {
	Name string

	StartAlias string
	EndAlias   string
	RelAlias   string
	PathVar    string

	Start *cypher.NodeSchema
	End   *cypher.NodeSchema
	Rel   *cypher.RelationshipSchema

	Strategy Strategy

	MinHops  int64
	MaxHops  *int64
	Shortest plan.ShortestMode
	// ZeroHop adds the hop_count = 0 self-row base case.
	ZeroHop bool

	// StartProps and EndProps are projected as start_<prop> and
	// end_<prop> columns. For embedded endpoints the columns already
	// point at edge-row columns.
	StartProps []PropertyColumn
	EndProps   []PropertyColumn

	// Filter fragments are pre-rendered SQL over the base-case table
	// aliases. EndFilters are rendered over CTE columns (end_<prop>)
	// when a shortest mode routes them to the _to_target layer.
	StartFilters []string
	EndFilters   []string
	RelFilters   []string

	// IDType types the empty path_nodes array of the zero-hop row.
	IDType string
}

// SelectStrategy picks the physical strategy for a relationship.
// Coupled marks edges whose alias was unified over one physical row.
func SelectStrategy(schema *cypher.GraphSchema, rel *cypher.RelationshipSchema, coupled bool) Strategy {
	if coupled {
		return CoupledSameRow
	}
	start, startOK := schema.Nodes[rel.FromNode]
	end, endOK := schema.Nodes[rel.ToNode]
	startEmbedded := (startOK && start.IsDenormalized) || len(rel.FromNodeProperties) > 0
	endEmbedded := (endOK && end.IsDenormalized) || len(rel.ToNodeProperties) > 0
	switch {
	case startEmbedded && endEmbedded:
		return Denormalized
	case startEmbedded != endEmbedded:
		return Mixed
	case startOK && rel.TableName == start.TableName,
		endOK && rel.TableName == end.TableName:
		return FKEdge
	default:
		return Traditional
	}
}

// Generated is one emitted CTE. Shortest-path patterns yield several
// (inner, optional _to_target, selector); the last entry carries the
// pattern's outer-facing name.
type Generated struct {
	Name      string
	SQL       string
	Recursive bool
}

// EffectiveMaxHops resolves the hop cap.
func (c *PatternSchemaContext) EffectiveMaxHops() int64 {
	if c.MaxHops != nil {
		return *c.MaxHops
	}
	if c.Shortest != plan.NoShortest && c.StartAlias == c.EndAlias {
		return ShortestSelfMaxHops
	}
	return DefaultMaxHops
}

func (c *PatternSchemaContext) fixedLength() bool {
	return c.MaxHops != nil && *c.MaxHops == c.MinHops && c.MinHops >= 1
}

func (c *PatternSchemaContext) relType() string {
	return c.Rel.TypeName
}

func (c *PatternSchemaContext) idType() string {
	if c.IDType == "" {
		return "UInt64"
	}
	return c.IDType
}

// Generate emits the CTE chain for the pattern.
func Generate(c *PatternSchemaContext) ([]Generated, error) {
	if c.Name == "" || c.Rel == nil {
		return nil, cypher.ErrInternal.New("variable-length generation without name or relationship schema")
	}

	if c.Strategy == CoupledSameRow {
		return []Generated{{Name: c.Name, SQL: c.coupledSelect()}}, nil
	}
	if c.fixedLength() {
		sql, err := chainedJoinSQL(c)
		if err != nil {
			return nil, err
		}
		return []Generated{{Name: c.Name, SQL: sql}}, nil
	}

	body := c.recursiveBody()

	if c.Shortest == plan.NoShortest {
		if c.MinHops > 1 {
			// The recursive body keeps shorter paths alive so they can
			// still be extended; the lower bound filters on the way out.
			inner := c.Name + "_inner"
			return []Generated{
				{Name: inner, SQL: strings.ReplaceAll(body, selfRef(c.Name), selfRef(inner)), Recursive: true},
				{Name: c.Name, SQL: fmt.Sprintf("SELECT * FROM %s WHERE hop_count >= %d", inner, c.MinHops)},
			}, nil
		}
		return []Generated{{Name: c.Name, SQL: body, Recursive: true}}, nil
	}

	// Shortest-path patterns layer the selector over the raw traversal:
	// inner holds every path, _to_target applies end filters and hop
	// bounds before the minimum is chosen.
	var out []Generated
	inner := c.Name + "_inner"
	out = append(out, Generated{Name: inner, SQL: strings.ReplaceAll(body, selfRef(c.Name), selfRef(inner)), Recursive: true})

	src := inner
	if len(c.EndFilters) > 0 || c.MinHops > 1 {
		target := c.Name + "_to_target"
		conds := append([]string{}, c.EndFilters...)
		if c.MinHops > 1 {
			conds = append(conds, fmt.Sprintf("hop_count >= %d", c.MinHops))
		}
		if c.MaxHops != nil {
			conds = append(conds, fmt.Sprintf("hop_count <= %d", *c.MaxHops))
		}
		out = append(out, Generated{
			Name: target,
			SQL:  fmt.Sprintf("SELECT * FROM %s WHERE %s", src, strings.Join(conds, " AND ")),
		})
		src = target
	}

	switch c.Shortest {
	case plan.ShortestPath:
		out = append(out, Generated{
			Name: c.Name,
			SQL: fmt.Sprintf(
				"SELECT * FROM (SELECT *, ROW_NUMBER() OVER (PARTITION BY start_id ORDER BY hop_count ASC) AS rn FROM %s) WHERE rn = 1",
				src),
		})
	case plan.AllShortestPaths:
		out = append(out, Generated{
			Name: c.Name,
			SQL: fmt.Sprintf(
				"SELECT * FROM %s WHERE hop_count = (SELECT MIN(hop_count) FROM %s)",
				src, src),
		})
	}
	return out, nil
}

// selfRef is the token the recursive case uses to name its own CTE.
func selfRef(name string) string {
	return name + " AS vp"
}

// recursiveBody emits base case(s) UNION ALL recursive case for the
// non-fixed strategies.
func (c *PatternSchemaContext) recursiveBody() string {
	var parts []string
	if c.ZeroHop && c.MinHops == 0 && c.Shortest == plan.NoShortest {
		parts = append(parts, c.zeroHopCase())
	}
	parts = append(parts, c.baseCase(), c.recursiveCase())
	return strings.Join(parts, " UNION ALL ")
}

// singleTable reports whether the strategy reads everything off the
// edge table.
func (c *PatternSchemaContext) singleTable() bool {
	switch c.Strategy {
	case Denormalized, FKEdge, EdgeToEdge, CoupledSameRow:
		return true
	}
	return false
}

func (c *PatternSchemaContext) edgeTable() string {
	if c.Rel.Database != "" {
		return c.Rel.Database + "." + c.Rel.TableName
	}
	return c.Rel.TableName
}

func nodeTable(n *cypher.NodeSchema) string {
	if n.Database != "" {
		return n.Database + "." + n.TableName
	}
	return n.TableName
}

// startEmbedded reports whether start properties live on the edge row.
func (c *PatternSchemaContext) startEmbedded() bool {
	if c.singleTable() {
		return true
	}
	return c.Strategy == Mixed && (c.Start == nil || c.Start.IsDenormalized || len(c.Rel.FromNodeProperties) > 0)
}

func (c *PatternSchemaContext) endEmbedded() bool {
	if c.singleTable() {
		return true
	}
	return c.Strategy == Mixed && (c.End == nil || c.End.IsDenormalized || len(c.Rel.ToNodeProperties) > 0)
}

// baseCase emits the hop_count = 1 seed.
func (c *PatternSchemaContext) baseCase() string {
	r := c.RelAlias
	var sb strings.Builder
	sb.WriteString("SELECT ")

	cols := []string{}
	if c.startEmbedded() {
		cols = append(cols, fmt.Sprintf("%s.%s AS start_id", r, c.Rel.FromColumn))
	} else {
		cols = append(cols, fmt.Sprintf("%s.%s AS start_id", c.StartAlias, c.Start.IDColumn()))
	}
	if c.endEmbedded() {
		cols = append(cols, fmt.Sprintf("%s.%s AS end_id", r, c.Rel.ToColumn))
	} else {
		cols = append(cols, fmt.Sprintf("%s.%s AS end_id", c.EndAlias, c.End.IDColumn()))
	}
	cols = append(cols, "1 AS hop_count")
	if c.startEmbedded() {
		cols = append(cols, fmt.Sprintf("[%s.%s] AS path_nodes", r, c.Rel.FromColumn))
	} else {
		cols = append(cols, fmt.Sprintf("[%s.%s] AS path_nodes", c.StartAlias, c.Start.IDColumn()))
	}
	cols = append(cols, fmt.Sprintf("['%s'] AS path_relationships", c.relType()))
	for _, p := range c.StartProps {
		owner := c.StartAlias
		if c.startEmbedded() {
			owner = r
		}
		cols = append(cols, fmt.Sprintf("%s.%s AS start_%s", owner, p.Column, p.Prop))
	}
	for _, p := range c.EndProps {
		owner := c.EndAlias
		if c.endEmbedded() {
			owner = r
		}
		cols = append(cols, fmt.Sprintf("%s.%s AS end_%s", owner, p.Column, p.Prop))
	}
	sb.WriteString(strings.Join(cols, ", "))

	sb.WriteString(" FROM ")
	if c.singleTable() {
		sb.WriteString(fmt.Sprintf("%s AS %s", c.edgeTable(), r))
	} else if c.startEmbedded() {
		// Mixed with the start side embedded: edge drives, end joins.
		sb.WriteString(fmt.Sprintf("%s AS %s INNER JOIN %s AS %s ON %s.%s = %s.%s",
			c.edgeTable(), r,
			nodeTable(c.End), c.EndAlias,
			c.EndAlias, c.End.IDColumn(), r, c.Rel.ToColumn))
	} else if c.endEmbedded() {
		sb.WriteString(fmt.Sprintf("%s AS %s INNER JOIN %s AS %s ON %s.%s = %s.%s",
			nodeTable(c.Start), c.StartAlias,
			c.edgeTable(), r,
			r, c.Rel.FromColumn, c.StartAlias, c.Start.IDColumn()))
	} else {
		sb.WriteString(fmt.Sprintf("%s AS %s INNER JOIN %s AS %s ON %s.%s = %s.%s INNER JOIN %s AS %s ON %s.%s = %s.%s",
			nodeTable(c.Start), c.StartAlias,
			c.edgeTable(), r,
			r, c.Rel.FromColumn, c.StartAlias, c.Start.IDColumn(),
			nodeTable(c.End), c.EndAlias,
			c.EndAlias, c.End.IDColumn(), r, c.Rel.ToColumn))
	}

	conds := append([]string{}, c.StartFilters...)
	conds = append(conds, c.RelFilters...)
	if c.Shortest == plan.NoShortest && !c.singleTable() {
		conds = append(conds, c.EndFilters...)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	return sb.String()
}

// recursiveCase extends paths by one hop, guarding the cap and
// preventing cycles.
func (c *PatternSchemaContext) recursiveCase() string {
	r := c.RelAlias
	endID := fmt.Sprintf("%s.%s", r, c.Rel.ToColumn)
	if !c.endEmbedded() {
		endID = fmt.Sprintf("%s.%s", c.EndAlias, c.End.IDColumn())
	}

	cols := []string{
		"vp.start_id",
		endID + " AS end_id",
		"vp.hop_count + 1 AS hop_count",
		fmt.Sprintf("arrayConcat(vp.path_nodes, [%s]) AS path_nodes", endID),
		fmt.Sprintf("arrayConcat(vp.path_relationships, ['%s']) AS path_relationships", c.relType()),
	}
	for _, p := range c.StartProps {
		cols = append(cols, fmt.Sprintf("vp.start_%s AS start_%s", p.Prop, p.Prop))
	}
	for _, p := range c.EndProps {
		owner := c.EndAlias
		if c.endEmbedded() {
			owner = r
		}
		cols = append(cols, fmt.Sprintf("%s.%s AS end_%s", owner, p.Column, p.Prop))
	}

	var from string
	if c.singleTable() || c.endEmbedded() {
		from = fmt.Sprintf("%s INNER JOIN %s AS %s ON %s.%s = vp.end_id",
			selfRef(c.Name), c.edgeTable(), r, r, c.Rel.FromColumn)
	} else {
		from = fmt.Sprintf("%s INNER JOIN %s AS %s ON %s.%s = vp.end_id INNER JOIN %s AS %s ON %s.%s = %s.%s",
			selfRef(c.Name), c.edgeTable(), r, r, c.Rel.FromColumn,
			nodeTable(c.End), c.EndAlias,
			c.EndAlias, c.End.IDColumn(), r, c.Rel.ToColumn)
	}

	conds := []string{
		fmt.Sprintf("vp.hop_count < %d", c.EffectiveMaxHops()),
	}
	conds = append(conds, c.RelFilters...)
	conds = append(conds, fmt.Sprintf("NOT has(vp.path_nodes, %s)", endID))

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(cols, ", "), from, strings.Join(conds, " AND "))
}

// zeroHopCase emits the self-row with empty, typed path arrays.
func (c *PatternSchemaContext) zeroHopCase() string {
	var idExpr, from, owner string
	if c.singleTable() || c.startEmbedded() {
		owner = c.RelAlias
		idExpr = fmt.Sprintf("%s.%s", owner, c.Rel.FromColumn)
		from = fmt.Sprintf("%s AS %s", c.edgeTable(), owner)
	} else {
		owner = c.StartAlias
		idExpr = fmt.Sprintf("%s.%s", owner, c.Start.IDColumn())
		from = fmt.Sprintf("%s AS %s", nodeTable(c.Start), owner)
	}

	cols := []string{
		idExpr + " AS start_id",
		idExpr + " AS end_id",
		"0 AS hop_count",
		fmt.Sprintf("CAST([] AS Array(%s)) AS path_nodes", c.idType()),
		"CAST([] AS Array(String)) AS path_relationships",
	}
	for _, p := range c.StartProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS start_%s", owner, p.Column, p.Prop))
	}
	for _, p := range c.EndProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS end_%s", owner, p.Column, p.Prop))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), from)
	if len(c.StartFilters) > 0 {
		sql += " WHERE " + strings.Join(c.StartFilters, " AND ")
	}
	return sql
}

// coupledSelect degenerates the pattern to one SELECT over one row.
func (c *PatternSchemaContext) coupledSelect() string {
	r := c.RelAlias
	cols := []string{
		fmt.Sprintf("%s.%s AS start_id", r, c.Rel.FromColumn),
		fmt.Sprintf("%s.%s AS end_id", r, c.Rel.ToColumn),
		"1 AS hop_count",
		fmt.Sprintf("[%s.%s] AS path_nodes", r, c.Rel.FromColumn),
		fmt.Sprintf("['%s'] AS path_relationships", c.relType()),
	}
	for _, p := range c.StartProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS start_%s", r, p.Column, p.Prop))
	}
	for _, p := range c.EndProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS end_%s", r, p.Column, p.Prop))
	}
	conds := append([]string{}, c.StartFilters...)
	conds = append(conds, c.RelFilters...)
	conds = append(conds, c.EndFilters...)
	sql := fmt.Sprintf("SELECT %s FROM %s AS %s", strings.Join(cols, ", "), c.edgeTable(), r)
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	return sql
}
