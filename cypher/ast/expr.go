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

package ast

// Expr is a parsed Cypher expression.
type Expr interface {
	expr()
}

// Literal is a constant: string, int64, float64, bool, or nil.
type Literal struct {
	Value interface{}
}

// Variable is a bare variable reference.
type Variable struct {
	Name string
}

// Property is a property access, `subject.key`.
type Property struct {
	Subject string
	Key     string
}

// FuncCall is a scalar or aggregate function call.
type FuncCall struct {
	Name     string
	Distinct bool
	Args     []Expr
}

// Op is an operator application: unary with one operand, binary with
// two, or an n-ary AND/OR chain.
type Op struct {
	Operator string
	Operands []Expr
}

// List is a list literal.
type List struct {
	Items []Expr
}

// CaseWhen is one WHEN ... THEN ... arm.
type CaseWhen struct {
	When Expr
	Then Expr
}

// Case is a CASE expression, searched (Operand nil) or simple.
type Case struct {
	Operand Expr
	Whens   []CaseWhen
	Else    Expr
}

// InSubquery is `expr IN { subquery }`.
type InSubquery struct {
	Left  Expr
	Query *Statement
}

// ExistsSubquery is `EXISTS { subquery }`.
type ExistsSubquery struct {
	Query *Statement
}

// Parameter is a named query parameter, `$name`.
type Parameter struct {
	Name string
}

// Star is `*`, valid in RETURN items and count(*).
type Star struct{}

func (*Literal) expr()        {}
func (*Variable) expr()       {}
func (*Property) expr()       {}
func (*FuncCall) expr()       {}
func (*Op) expr()             {}
func (*List) expr()           {}
func (*Case) expr()           {}
func (*InSubquery) expr()     {}
func (*ExistsSubquery) expr() {}
func (*Parameter) expr()      {}
func (*Star) expr()           {}
