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
	"strconv"
	"strings"
)

// SQL serialises the plan. Emission is purely syntactic and
// deterministic: joins are stable-sorted by condition count, clause
// order is fixed, and no state outside the plan is consulted.
func (p *RenderPlan) SQL() string {
	var sb strings.Builder

	if len(p.Ctes) > 0 {
		sb.WriteString("WITH ")
		if hasRecursiveCte(p.Ctes) {
			sb.WriteString("RECURSIVE ")
		}
		parts := make([]string, len(p.Ctes))
		for i, cte := range p.Ctes {
			parts[i] = emitCte(cte)
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString(" ")
	}

	sb.WriteString("SELECT ")
	if p.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(emitSelectItems(p.Select))

	if p.From != nil {
		sb.WriteString(" FROM " + p.From.Name)
		if p.From.Alias != "" {
			sb.WriteString(" AS " + p.From.Alias)
		}
		if p.From.UseFinal {
			sb.WriteString(" FINAL")
		}
	}

	for _, j := range sortedJoins(p.Joins) {
		sb.WriteString(" " + emitJoin(j))
	}

	if p.Filters != nil {
		sb.WriteString(" WHERE " + p.Filters.SQL())
	}

	if len(p.GroupBy) > 0 {
		keys := make([]string, len(p.GroupBy))
		for i, k := range p.GroupBy {
			keys[i] = k.SQL()
		}
		sb.WriteString(" GROUP BY " + strings.Join(keys, ", "))
	}

	if p.Having != nil {
		sb.WriteString(" HAVING " + p.Having.SQL())
	}

	if len(p.OrderBy) > 0 {
		items := make([]string, len(p.OrderBy))
		for i, o := range p.OrderBy {
			items[i] = o.Expr.SQL()
			if o.Descending {
				items[i] += " DESC"
			}
		}
		sb.WriteString(" ORDER BY " + strings.Join(items, ", "))
	}

	if p.Union != nil {
		sb.WriteString(" " + p.Union.Type.String() + " " + p.Union.Plan.SQL())
	}

	// LIMIT trails the whole union chain; ClickHouse spells skip as
	// `LIMIT skip, limit`.
	switch {
	case p.Limit != nil && p.Skip != nil:
		sb.WriteString(" LIMIT " + formatInt(*p.Skip) + ", " + formatInt(*p.Limit))
	case p.Limit != nil:
		sb.WriteString(" LIMIT " + formatInt(*p.Limit))
	case p.Skip != nil:
		sb.WriteString(" OFFSET " + formatInt(*p.Skip))
	}

	return sb.String()
}

func hasRecursiveCte(ctes []*Cte) bool {
	for _, c := range ctes {
		if c.Recursive {
			return true
		}
	}
	return false
}

func emitCte(c *Cte) string {
	if c.Structured != nil {
		return c.Name + " AS (" + c.Structured.SQL() + ")"
	}
	return c.Name + " AS (" + c.RawSQL + ")"
}

func emitSelectItems(items []SelectItem) string {
	if len(items) == 0 {
		return "*"
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Expr.SQL()
		if it.Alias != "" {
			parts[i] += " AS \"" + it.Alias + "\""
		}
	}
	return strings.Join(parts, ", ")
}

// sortedJoins orders joins by condition count ascending; the stable
// sort preserves input order among ties so emission never flaps.
func sortedJoins(joins []*Join) []*Join {
	out := make([]*Join, len(joins))
	copy(out, joins)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].On) < len(out[j].On)
	})
	return out
}

func emitJoin(j *Join) string {
	var sb strings.Builder
	sb.WriteString(j.Kind.String() + " ")
	if j.PreFilter != nil {
		sb.WriteString("(SELECT * FROM " + j.TableName + " WHERE " + j.PreFilter.SQL() + ")")
	} else {
		sb.WriteString(j.TableName)
	}
	sb.WriteString(" AS " + j.TableAlias)
	if len(j.On) > 0 {
		conds := make([]string, len(j.On))
		for i, c := range j.On {
			conds[i] = c.SQL()
		}
		sb.WriteString(" ON " + strings.Join(conds, " AND "))
	}
	return sb.String()
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
