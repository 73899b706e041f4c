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

package cte

import (
	"fmt"
	"strings"

	"github.com/genezhang/clickgraph/cypher/plan"
)

// chainedJoinSQL handles exact-length patterns (*n with min = max) as a
// flat self-join chain instead of a recursive CTE. Node distinctness is
// enforced with pairwise inequality constraints.
func chainedJoinSQL(c *PatternSchemaContext) (string, error) {
	n := int(c.MinHops)

	if c.singleTable() {
		return chainedEdgeSQL(c, n), nil
	}

	// n hops needs n+1 node scans and n edge scans.
	nodeAlias := func(i int) string { return fmt.Sprintf("n%d", i) }
	edgeAlias := func(i int) string { return fmt.Sprintf("r%d", i) }

	nodeIDs := make([]string, n+1)
	for i := 0; i <= n; i++ {
		tbl := c.End
		if i == 0 {
			tbl = c.Start
		}
		nodeIDs[i] = fmt.Sprintf("%s.%s", nodeAlias(i), tbl.IDColumn())
	}

	cols := []string{
		nodeIDs[0] + " AS start_id",
		nodeIDs[n] + " AS end_id",
		fmt.Sprintf("%d AS hop_count", n),
		fmt.Sprintf("[%s] AS path_nodes", strings.Join(nodeIDs[:n], ", ")),
		fmt.Sprintf("[%s] AS path_relationships", repeatType(c.relType(), n)),
	}
	for _, p := range c.StartProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS start_%s", nodeAlias(0), p.Column, p.Prop))
	}
	for _, p := range c.EndProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS end_%s", nodeAlias(n), p.Column, p.Prop))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(fmt.Sprintf(" FROM %s AS %s", nodeTable(c.Start), nodeAlias(0)))
	for i := 1; i <= n; i++ {
		sb.WriteString(fmt.Sprintf(" INNER JOIN %s AS %s ON %s.%s = %s",
			c.edgeTable(), edgeAlias(i), edgeAlias(i), c.Rel.FromColumn, nodeIDs[i-1]))
		sb.WriteString(fmt.Sprintf(" INNER JOIN %s AS %s ON %s = %s.%s",
			nodeTable(c.End), nodeAlias(i), nodeIDs[i], edgeAlias(i), c.Rel.ToColumn))
	}

	conds := append([]string{}, c.StartFilters...)
	conds = append(conds, c.RelFilters...)
	if c.Shortest == plan.NoShortest {
		conds = append(conds, c.EndFilters...)
	}
	for i := 0; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			conds = append(conds, fmt.Sprintf("%s <> %s", nodeIDs[i], nodeIDs[j]))
		}
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	return sb.String(), nil
}

// chainedEdgeSQL is the single-table variant: edges link row to row
// through their endpoint columns.
func chainedEdgeSQL(c *PatternSchemaContext, n int) string {
	edgeAlias := func(i int) string { return fmt.Sprintf("r%d", i) }

	froms := make([]string, n)
	for i := 0; i < n; i++ {
		froms[i] = fmt.Sprintf("%s.%s", edgeAlias(i+1), c.Rel.FromColumn)
	}
	endID := fmt.Sprintf("%s.%s", edgeAlias(n), c.Rel.ToColumn)

	cols := []string{
		froms[0] + " AS start_id",
		endID + " AS end_id",
		fmt.Sprintf("%d AS hop_count", n),
		fmt.Sprintf("[%s] AS path_nodes", strings.Join(froms, ", ")),
		fmt.Sprintf("[%s] AS path_relationships", repeatType(c.relType(), n)),
	}
	for _, p := range c.StartProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS start_%s", edgeAlias(1), p.Column, p.Prop))
	}
	for _, p := range c.EndProps {
		cols = append(cols, fmt.Sprintf("%s.%s AS end_%s", edgeAlias(n), p.Column, p.Prop))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(fmt.Sprintf(" FROM %s AS %s", c.edgeTable(), edgeAlias(1)))
	for i := 2; i <= n; i++ {
		sb.WriteString(fmt.Sprintf(" INNER JOIN %s AS %s ON %s.%s = %s.%s",
			c.edgeTable(), edgeAlias(i),
			edgeAlias(i), c.Rel.FromColumn,
			edgeAlias(i-1), c.Rel.ToColumn))
	}

	conds := append([]string{}, c.StartFilters...)
	conds = append(conds, c.RelFilters...)
	conds = append(conds, c.EndFilters...)
	ids := append(append([]string{}, froms...), endID)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			conds = append(conds, fmt.Sprintf("%s <> %s", ids[i], ids[j]))
		}
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	return sb.String()
}

func repeatType(t string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "'" + t + "'"
	}
	return strings.Join(parts, ", ")
}
