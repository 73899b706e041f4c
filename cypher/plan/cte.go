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

// Cte names a materialisation boundary. The render builder turns it
// into a WITH-list entry and rewrites downstream references to the
// CTE name.
type Cte struct {
	UnaryNode
	CteName   string
	Recursive bool
}

// NewCte wraps the child plan under a CTE name.
func NewCte(name string, child cypher.Node) *Cte {
	return &Cte{UnaryNode: UnaryNode{Child: child}, CteName: name}
}

// Name implements cypher.Nameable.
func (c *Cte) Name() string { return c.CteName }

func (c *Cte) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(c, len(children), 1)
	}
	nc := *c
	nc.Child = children[0]
	return &nc, nil
}

func (c *Cte) String() string {
	p := cypher.NewTreePrinter()
	_ = p.WriteNode("Cte(%s)", c.CteName)
	_ = p.WriteChildren(c.Child.String())
	return p.String()
}
