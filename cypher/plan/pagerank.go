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

// PageRank is an opaque graph-algorithm leaf, built from a CALL
// clause. The compiler never looks inside it; SQL emission is
// delegated to the algorithm emitter registered under Algorithm.
type PageRank struct {
	Algorithm string
	Args      []cypher.Expr
}

// NewPageRank creates a new algorithm leaf.
func NewPageRank(algorithm string, args []cypher.Expr) *PageRank {
	return &PageRank{Algorithm: algorithm, Args: args}
}

// Name implements cypher.Nameable.
func (p *PageRank) Name() string { return p.Algorithm }

func (p *PageRank) Children() []cypher.Node { return nil }

func (p *PageRank) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(p, len(children), 0)
	}
	return p, nil
}

// Expressions implements cypher.Expressioner.
func (p *PageRank) Expressions() []cypher.Expr { return p.Args }

// WithExpressions implements cypher.Expressioner.
func (p *PageRank) WithExpressions(exprs ...cypher.Expr) (cypher.Node, error) {
	if len(exprs) != len(p.Args) {
		return nil, cypher.ErrInvalidChildrenNumber(p, len(exprs), len(p.Args))
	}
	return NewPageRank(p.Algorithm, exprs), nil
}

func (p *PageRank) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.String()
	}
	return "Algorithm(" + p.Algorithm + "(" + strings.Join(args, ", ") + "))"
}
