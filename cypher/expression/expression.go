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

// Package expression holds the logical expression nodes produced by the
// plan builder. Logical expressions still speak in graph terms (alias
// and Cypher property names); lowering to SQL columns happens in the
// render layer.
package expression

import (
	"fmt"
	"strings"

	"github.com/genezhang/clickgraph/cypher"
)

// Literal is a constant value.
type Literal struct {
	Value interface{}
}

// NewLiteral creates a new literal expression.
func NewLiteral(value interface{}) *Literal {
	return &Literal{Value: value}
}

func (l *Literal) Children() []cypher.Expr { return nil }

func (l *Literal) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(l, len(children), 0)
	}
	return l, nil
}

func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	if l.Value == nil {
		return "null"
	}
	return fmt.Sprintf("%v", l.Value)
}

// Var is a bare variable reference, e.g. `n` in `RETURN n`.
type Var struct {
	VarName string
}

// NewVar creates a new variable reference.
func NewVar(name string) *Var {
	return &Var{VarName: name}
}

// Name implements cypher.Nameable.
func (v *Var) Name() string { return v.VarName }

func (v *Var) Children() []cypher.Expr { return nil }

func (v *Var) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(v, len(children), 0)
	}
	return v, nil
}

func (v *Var) String() string { return v.VarName }

// Property is a property access, `alias.key`. Key is the Cypher
// property name; the render layer maps it to a column.
type Property struct {
	Alias string
	Key   string
}

// NewProperty creates a new property access.
func NewProperty(alias, key string) *Property {
	return &Property{Alias: alias, Key: key}
}

// Name implements cypher.Nameable.
func (p *Property) Name() string { return p.Key }

// Table implements cypher.Tableable.
func (p *Property) Table() string { return p.Alias }

func (p *Property) Children() []cypher.Expr { return nil }

func (p *Property) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(p, len(children), 0)
	}
	return p, nil
}

func (p *Property) String() string { return p.Alias + "." + p.Key }

// ColumnRef is a raw table-column reference produced by join inference
// and the render layer. Unlike Property, its Column is already a DB
// column name and passes through property mapping untouched.
type ColumnRef struct {
	TableAlias string
	Column     string
}

// NewColumnRef creates a raw column reference.
func NewColumnRef(tableAlias, column string) *ColumnRef {
	return &ColumnRef{TableAlias: tableAlias, Column: column}
}

// Name implements cypher.Nameable.
func (c *ColumnRef) Name() string { return c.Column }

// Table implements cypher.Tableable.
func (c *ColumnRef) Table() string { return c.TableAlias }

func (c *ColumnRef) Children() []cypher.Expr { return nil }

func (c *ColumnRef) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(c, len(children), 0)
	}
	return c, nil
}

func (c *ColumnRef) String() string { return c.TableAlias + "." + c.Column }

// Alias renames an expression, `expr AS name`.
type Alias struct {
	Child     cypher.Expr
	AliasName string
}

// NewAlias creates a new alias around the given expression.
func NewAlias(child cypher.Expr, name string) *Alias {
	return &Alias{Child: child, AliasName: name}
}

// Name implements cypher.Nameable.
func (a *Alias) Name() string { return a.AliasName }

func (a *Alias) Children() []cypher.Expr { return []cypher.Expr{a.Child} }

func (a *Alias) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 1 {
		return nil, cypher.ErrInvalidChildrenNumber(a, len(children), 1)
	}
	return NewAlias(children[0], a.AliasName), nil
}

func (a *Alias) String() string {
	return fmt.Sprintf("%s AS %s", a.Child, a.AliasName)
}

// Parameter is a named query parameter, preserved by name through the
// whole pipeline.
type Parameter struct {
	ParamName string
}

// NewParameter creates a new named parameter.
func NewParameter(name string) *Parameter {
	return &Parameter{ParamName: name}
}

// Name implements cypher.Nameable.
func (p *Parameter) Name() string { return p.ParamName }

func (p *Parameter) Children() []cypher.Expr { return nil }

func (p *Parameter) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(p, len(children), 0)
	}
	return p, nil
}

func (p *Parameter) String() string { return "$" + p.ParamName }

// Star is `*`. Qualified as `alias.*` when Alias is set.
type Star struct {
	Alias string
}

// NewStar creates an unqualified star.
func NewStar() *Star { return &Star{} }

// NewQualifiedStar creates `alias.*`.
func NewQualifiedStar(alias string) *Star { return &Star{Alias: alias} }

func (s *Star) Children() []cypher.Expr { return nil }

func (s *Star) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != 0 {
		return nil, cypher.ErrInvalidChildrenNumber(s, len(children), 0)
	}
	return s, nil
}

func (s *Star) String() string {
	if s.Alias != "" {
		return s.Alias + ".*"
	}
	return "*"
}

// List is a list literal.
type List struct {
	Items []cypher.Expr
}

// NewList creates a new list literal.
func NewList(items ...cypher.Expr) *List {
	return &List{Items: items}
}

func (l *List) Children() []cypher.Expr { return l.Items }

func (l *List) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != len(l.Items) {
		return nil, cypher.ErrInvalidChildrenNumber(l, len(children), len(l.Items))
	}
	return NewList(children...), nil
}

func (l *List) String() string {
	items := make([]string, len(l.Items))
	for i, item := range l.Items {
		items[i] = item.String()
	}
	return "[" + strings.Join(items, ", ") + "]"
}
