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

package cypher

import (
	"bytes"
	"fmt"
	"strings"
)

// TreePrinter pretty-prints a plan node and its children as an indented
// tree, one node per call to WriteNode followed by one WriteChildren.
type TreePrinter struct {
	buf           bytes.Buffer
	nodeWritten   bool
	childrenDone  bool
}

// NewTreePrinter returns a new empty TreePrinter.
func NewTreePrinter() *TreePrinter {
	return new(TreePrinter)
}

// WriteNode writes the header line of the node. It may only be called
// once, before WriteChildren.
func (p *TreePrinter) WriteNode(format string, args ...interface{}) error {
	if p.nodeWritten {
		return ErrInternal.New("tree printer: node written twice")
	}
	p.nodeWritten = true
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteRune('\n')
	return nil
}

// WriteChildren writes the given children, one per line, indented under
// the node header. Multi-line children keep their own indentation.
func (p *TreePrinter) WriteChildren(children ...string) error {
	if !p.nodeWritten {
		return ErrInternal.New("tree printer: children written before node")
	}
	if p.childrenDone {
		return ErrInternal.New("tree printer: children written twice")
	}
	p.childrenDone = true

	for i, child := range children {
		last := i == len(children)-1
		p.writeChild(child, last)
	}
	return nil
}

func (p *TreePrinter) writeChild(child string, last bool) {
	lines := strings.Split(strings.TrimRight(child, "\n"), "\n")
	for i, line := range lines {
		if i == 0 {
			if last {
				p.buf.WriteString(" └─ ")
			} else {
				p.buf.WriteString(" ├─ ")
			}
		} else {
			if last {
				p.buf.WriteString("     ")
			} else {
				p.buf.WriteString(" │   ")
			}
		}
		p.buf.WriteString(line)
		p.buf.WriteRune('\n')
	}
}

// String returns the printed tree.
func (p *TreePrinter) String() string {
	return p.buf.String()
}
