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
	"github.com/genezhang/clickgraph/cypher/plan"
)

// Cte is one WITH-list entry. Exactly one of Structured and RawSQL is
// set: structured bodies are nested RenderPlans, raw bodies come from
// the variable-length path generators and algorithm emitters.
type Cte struct {
	Name       string
	Structured *RenderPlan
	RawSQL     string
	Recursive  bool
	// StartAlias and EndAlias carry the VLP endpoint aliases when this
	// CTE materialises a variable-length path.
	StartAlias string
	EndAlias   string
}

// Join is one join clause of the flat relational plan.
type Join struct {
	TableName  string
	TableAlias string
	On         []RenderExpr
	Kind       plan.JoinType
	// PreFilter wraps the joined table in a filtered subquery, used
	// for LEFT joins whose predicate must not defeat the outer join.
	PreFilter RenderExpr
}

// ViewTableRef names the FROM source: a base table, a qualified
// table, or a CTE name. UseFinal appends ClickHouse's FINAL keyword.
type ViewTableRef struct {
	Name     string
	Alias    string
	UseFinal bool
}

// SelectItem is one output column.
type SelectItem struct {
	Expr RenderExpr
	// Alias is emitted double-quoted; Cypher projection names like
	// `u.name` are not valid bare SQL identifiers.
	Alias string
}

// OrderByItem is one sort key.
type OrderByItem struct {
	Expr       RenderExpr
	Descending bool
}

// UnionTail chains another RenderPlan onto this one.
type UnionTail struct {
	Type plan.UnionType
	Plan *RenderPlan
}

// RenderPlan is the flat relational form the emitter serialises. It
// carries no graph semantics; everything has been resolved to tables,
// aliases, and rendered expressions.
type RenderPlan struct {
	Ctes     []*Cte
	Select   []SelectItem
	Distinct bool
	From     *ViewTableRef
	Joins    []*Join
	Filters  RenderExpr
	GroupBy  []RenderExpr
	Having   RenderExpr
	OrderBy  []OrderByItem
	Skip     *int64
	Limit    *int64
	Union    *UnionTail
}
