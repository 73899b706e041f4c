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

package expression

import (
	"github.com/genezhang/clickgraph/cypher"
)

// InSubquery is `left IN (subquery)`. The subquery is a full logical
// plan compiled alongside the outer query.
type InSubquery struct {
	Left cypher.Expr
	Plan cypher.Node
}

// NewInSubquery creates a new IN-subquery predicate.
func NewInSubquery(left cypher.Expr, plan cypher.Node) *InSubquery {
	return &InSubquery{Left: left, Plan: plan}
}

func (s *InSubquery) Children() []cypher.Expr { return []cypher.Expr{s.Left} }

func (s *InSubquery) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(s, len(children), 1)
	}
	return NewInSubquery(children[0], s.Plan), nil
}

func (s *InSubquery) String() string {
	return s.Left.String() + " IN (subquery)"
}

// ExistsSubquery is `EXISTS (subquery)`.
type ExistsSubquery struct {
	Plan cypher.Node
}

// NewExistsSubquery creates a new EXISTS-subquery predicate.
func NewExistsSubquery(plan cypher.Node) *ExistsSubquery {
	return &ExistsSubquery{Plan: plan}
}

func (s *ExistsSubquery) Children() []cypher.Expr { return nil }

func (s *ExistsSubquery) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(s, len(children), 0)
	}
	return s, nil
}

func (s *ExistsSubquery) String() string {
	return "EXISTS (subquery)"
}
