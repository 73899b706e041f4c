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
	"github.com/genezhang/clickgraph/cypher"
)

// UnionType distinguishes UNION ALL from UNION DISTINCT.
type UnionType int

const (
	// UnionAll keeps duplicates.
	UnionAll UnionType = iota
	// UnionDistinct removes duplicates.
	UnionDistinct
)

func (t UnionType) String() string {
	if t == UnionAll {
		return "UNION ALL"
	}
	return "UNION DISTINCT"
}

// Union combines full per-segment plans. Outer pagination wraps the
// Union node itself, never its inputs.
type Union struct {
	Inputs []cypher.Node
	Type   UnionType
}

// NewUnion creates a new union of the given plans.
func NewUnion(unionType UnionType, inputs ...cypher.Node) *Union {
	return &Union{Inputs: inputs, Type: unionType}
}

func (u *Union) Children() []cypher.Node { return u.Inputs }

func (u *Union) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != len(u.Inputs) {
		return nil, cypher.ErrInvalidChildrenNumber(u, len(children), len(u.Inputs))
	}
	return NewUnion(u.Type, children...), nil
}

func (u *Union) String() string {
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("Union(%s)", u.Type)
	inputs := make([]string, len(u.Inputs))
	for i, in := range u.Inputs {
		inputs[i] = in.String()
	}
	_ = p.WriteChildren(inputs...)
	return p.String()
}
