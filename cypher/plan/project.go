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

package plan

import (
	"strings"

	"github.com/genezhang/clickgraph/cypher"
)

// ProjectionKind distinguishes the clause the projection came from.
type ProjectionKind int

const (
	// ReturnProjection comes from RETURN.
	ReturnProjection ProjectionKind = iota
	// WithProjection comes from WITH.
	WithProjection
)

// Projection evaluates the given items over its child rows.
type Projection struct {
	UnaryNode
	Items    []cypher.Expr
	Distinct bool
	Kind     ProjectionKind
}

// NewProjection creates a new RETURN projection.
func NewProjection(items []cypher.Expr, child cypher.Node) *Projection {
	return &Projection{UnaryNode: UnaryNode{Child: child}, Items: items}
}

func (p *Projection) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(p, len(children), 1)
	}
	np := *p
	np.Child = children[0]
	return &np, nil
}

// Expressions implements cypher.Expressioner.
func (p *Projection) Expressions() []cypher.Expr { return p.Items }

// WithExpressions implements cypher.Expressioner.
func (p *Projection) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	if len(exprs) != len(p.Items) {
		return nil, cypher.ErrInvalidChildrenNumber(p, len(exprs), len(p.Items))
	}
	np := *p
	np.Items = exprs
	return &np, nil
}

func (p *Projection) String() string {
	items := make([]string, len(p.Items))
	for i, item := range p.Items {
		items[i] = item.String()
	}
	tp := cypher.NewTreePrinter()
	distinct := ""
	if p.Distinct {
		distinct = "DISTINCT "
	}
	_ = tp.WriteNode("Projection(%s%s)", distinct, strings.Join(items, ", "))
	_ = tp.WriteChildren(p.Child.String())
	return tp.String()
}
