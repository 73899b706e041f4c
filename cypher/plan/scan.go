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
	"fmt"

	"github.com/genezhang/clickgraph/cypher"
)

// Empty is a plan that yields no rows. It is also the sentinel the
// pattern resolver leaves behind when no valid label combination
// exists; the emitter turns it into `SELECT 1 WHERE 0=1`.
type Empty struct{}

// NewEmpty creates a new empty plan.
func NewEmpty() *Empty { return &Empty{} }

func (*Empty) Children() []cypher.Node { return nil }

func (e *Empty) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(e, len(children), 0)
	}
	return e, nil
}

func (*Empty) String() string { return "Empty" }

// Scan reads a base table under a SQL alias.
type Scan struct {
	Database  string
	TableName string
	Alias     string
}

// NewScan creates a new table scan.
func NewScan(database, table, alias string) *Scan {
	return &Scan{Database: database, TableName: table, Alias: alias}
}

// Table implements cypher.Tableable.
func (s *Scan) Table() string { return s.TableName }

// QualifiedTable returns database.table, or just the table when no
// database is set.
func (s *Scan) QualifiedTable() string {
	if s.Database != "" {
		return s.Database + "." + s.TableName
	}
	return s.TableName
}

func (s *Scan) Children() []cypher.Node { return nil }

func (s *Scan) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(s, len(children), 0)
	}
	return s, nil
}

func (s *Scan) String() string {
	return fmt.Sprintf("Scan(%s AS %s)", s.QualifiedTable(), s.Alias)
}

// ViewScan reads a named view or CTE under a SQL alias.
type ViewScan struct {
	View  string
	Alias string
}

// NewViewScan creates a new view scan.
func NewViewScan(view, alias string) *ViewScan {
	return &ViewScan{View: view, Alias: alias}
}

func (s *ViewScan) Children() []cypher.Node { return nil }

func (s *ViewScan) WithChildren(children ...cypher.Node) (cypher.Node, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(s, len(children), 0)
	}
	return s, nil
}

func (s *ViewScan) String() string {
	return fmt.Sprintf("ViewScan(%s AS %s)", s.View, s.Alias)
}
