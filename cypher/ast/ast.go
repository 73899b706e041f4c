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

// Package ast declares the parse-tree contract between the external
// Cypher parser and the planner. The tokeniser and grammar live
// outside this module; any parser producing these values can drive the
// compiler.
package ast

// UnionType distinguishes UNION ALL from plain UNION.
type UnionType int

const (
	// UnionAll keeps duplicate rows.
	UnionAll UnionType = iota
	// UnionDistinct removes duplicate rows.
	UnionDistinct
)

func (u UnionType) String() string {
	if u == UnionAll {
		return "UNION ALL"
	}
	return "UNION DISTINCT"
}

// Statement is one full query: a head query plus any UNION
// continuations.
type Statement struct {
	Query     *Query
	UnionTail []UnionSegment
}

// UnionSegment is one `UNION [ALL|DISTINCT] <query>` continuation.
type UnionSegment struct {
	Type  UnionType
	Query *Query
}

// Query is an ordered list of clauses.
type Query struct {
	Clauses []Clause
}

// Clause is a single Cypher clause. The closed set of implementations
// is Match, With, Unwind, Return, and CallAlgorithm.
type Clause interface {
	clause()
}

// Match is a MATCH or OPTIONAL MATCH clause.
type Match struct {
	Optional bool
	Patterns []*Pattern
	Where    Expr
}

// With is a WITH clause, optionally followed by WHERE and pagination.
type With struct {
	Items    []*Item
	Distinct bool
	OrderBy  []SortItem
	Skip     *int64
	Limit    *int64
	Where    Expr
}

// Unwind is an UNWIND <expr> AS <alias> clause.
type Unwind struct {
	Expr  Expr
	Alias string
}

// Return is a RETURN clause with optional pagination.
type Return struct {
	Items    []*Item
	Distinct bool
	OrderBy  []SortItem
	Skip     *int64
	Limit    *int64
}

// CallAlgorithm is a call to a graph algorithm such as pagerank. The
// compiler treats it as an opaque leaf whose SQL emission is delegated
// to a registered emitter.
type CallAlgorithm struct {
	Name string
	Args []Expr
}

func (*Match) clause()         {}
func (*With) clause()          {}
func (*Unwind) clause()        {}
func (*Return) clause()        {}
func (*CallAlgorithm) clause() {}

// Item is one projection item, `expr [AS alias]`.
type Item struct {
	Expr  Expr
	Alias string
}

// SortItem is one ORDER BY key.
type SortItem struct {
	Expr       Expr
	Descending bool
}

// ShortestMode marks a pattern wrapped in a shortest-path function.
type ShortestMode int

const (
	// NoShortest is an ordinary pattern.
	NoShortest ShortestMode = iota
	// ShortestPath wraps shortestPath(...): one path per source.
	ShortestPath
	// AllShortestPaths wraps allShortestPaths(...): every path of
	// minimum length.
	AllShortestPaths
)

// Direction is the arrow direction of a relationship pattern as
// written in the source text.
type Direction int

const (
	// Outgoing is ()-[]->().
	Outgoing Direction = iota
	// Incoming is ()<-[]-().
	Incoming
	// Undirected is ()-[]-().
	Undirected
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "->"
	case Incoming:
		return "<-"
	default:
		return "--"
	}
}

// Pattern is one path pattern: alternating node and relationship
// elements starting and ending with a node. Variable is the path
// variable of `p = (...)`, when bound.
type Pattern struct {
	Variable string
	Shortest ShortestMode
	Elements []PatternElement
}

// PatternElement is either a *NodePattern or a *RelPattern.
type PatternElement interface {
	patternElement()
}

// NodePattern is one `(v:Label {prop: expr})` element.
type NodePattern struct {
	Variable   string
	Labels     []string
	Properties map[string]Expr
}

// VarLength holds the bounds of a variable-length relationship,
// `*`, `*n`, or `*m..n`. Nil fields are unspecified.
type VarLength struct {
	Min *int64
	Max *int64
}

// RelPattern is one `-[v:TYPE*m..n {prop: expr} WHERE expr]-` element.
// For an exact-length pattern `*n` the parser sets Min == Max; for an
// open lower bound `*m..` it leaves Max nil.
type RelPattern struct {
	Variable   string
	Types      []string
	Direction  Direction
	Properties map[string]Expr
	VarLength  *VarLength
	Where      Expr
}

func (*NodePattern) patternElement() {}
func (*RelPattern) patternElement()  {}
