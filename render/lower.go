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

package render

import (
	"fmt"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/expression"
)

// cypherFunctions maps Cypher builtins onto ClickHouse equivalents.
// Names not listed pass through unchanged.
var cypherFunctions = map[string]string{
	"collect":        "groupArray",
	"size":           "length",
	"tolower":        "lower",
	"toupper":        "upper",
	"tostring":       "toString",
	"tointeger":      "toInt64",
	"tofloat":        "toFloat64",
	"coalesce":       "coalesce",
	"stddev":         "stddevSamp",
	"stddevp":        "stddevPop",
	"percentilecont": "quantile",
	"percentiledisc": "quantileExact",
}

// Lowerer converts logical expressions to rendered SQL expressions:
// property accesses resolve through the schema's column mappings and
// the alias resolver, and references into a variable-length path
// redirect to the path CTE's columns.
type Lowerer struct {
	ctx      *cypher.PlanCtx
	resolver *AliasResolver
	// labels overrides per-branch labels when the pattern resolver
	// unioned the plan; keyed by alias.
	labels map[string]string
	// definingCte is the CTE whose body is being lowered. References
	// to its own exported aliases must resolve against the underlying
	// tables, not the CTE's projected columns.
	definingCte string
}

// NewLowerer creates a lowerer over the given compilation state.
func NewLowerer(ctx *cypher.PlanCtx, resolver *AliasResolver) *Lowerer {
	return &Lowerer{ctx: ctx, resolver: resolver, labels: make(map[string]string)}
}

// SetLabel pins the label used for an alias, overriding the shared
// binding. Union branches produced by the pattern resolver need this.
func (l *Lowerer) SetLabel(alias, label string) {
	l.labels[alias] = label
}

func (l *Lowerer) labelOf(alias string) string {
	if lbl, ok := l.labels[alias]; ok {
		return lbl
	}
	if b := l.ctx.Binding(alias); b != nil {
		return b.Label()
	}
	return ""
}

// Lower converts one expression.
func (l *Lowerer) Lower(e cypher.Expr) (RenderExpr, error) {
	switch e := e.(type) {
	case *expression.Literal:
		return &Literal{Value: e.Value}, nil

	case *expression.Parameter:
		return &Param{Name: e.ParamName}, nil

	case *expression.Star:
		if e.Alias != "" {
			return &Column{Table: l.resolver.TableAlias(e.Alias), Name: "*"}, nil
		}
		return Star{}, nil

	case *expression.Property:
		return l.lowerProperty(e)

	case *expression.ColumnRef:
		return &Column{Table: l.resolver.TableAlias(e.TableAlias), Name: e.Column}, nil

	case *expression.Var:
		return l.lowerVar(e)

	case *expression.Alias:
		return l.Lower(e.Child)

	case *expression.List:
		items := make([]RenderExpr, len(e.Items))
		for i, it := range e.Items {
			li, err := l.Lower(it)
			if err != nil {
				return nil, err
			}
			items[i] = li
		}
		return &List{Items: items}, nil

	case *expression.Op:
		operands := make([]RenderExpr, len(e.Operands))
		for i, op := range e.Operands {
			lo, err := l.Lower(op)
			if err != nil {
				return nil, err
			}
			operands[i] = lo
		}
		return &Op{Operator: e.Operator, Operands: operands}, nil

	case *expression.FuncCall:
		return l.lowerFunc(e)

	case *expression.Case:
		return l.lowerCase(e)

	case *expression.InSubquery:
		left, err := l.Lower(e.Left)
		if err != nil {
			return nil, err
		}
		sub, err := l.lowerSubqueryPlan(e.Plan)
		if err != nil {
			return nil, err
		}
		return &Op{Operator: expression.OpIn, Operands: []RenderExpr{left, sub}}, nil

	case *expression.ExistsSubquery:
		sub, err := l.lowerSubqueryPlan(e.Plan)
		if err != nil {
			return nil, err
		}
		return &Raw{Text: "EXISTS " + sub.SQL()}, nil

	default:
		return nil, cypher.ErrInternal.New(fmt.Sprintf("cannot lower expression %T", e))
	}
}

// lowerProperty resolves alias.prop to a table-qualified column.
// Endpoints of a variable-length path read the CTE's start_/end_
// columns instead of node tables.
func (l *Lowerer) lowerProperty(p *expression.Property) (RenderExpr, error) {
	if vlp := l.ctx.VLPForAlias(p.Alias); vlp != nil {
		switch p.Alias {
		case vlp.StartAlias:
			return &Column{Table: vlp.TableAlias, Name: "start_" + p.Key}, nil
		case vlp.EndAlias:
			return &Column{Table: vlp.TableAlias, Name: "end_" + p.Key}, nil
		case vlp.RelAlias:
			return nil, cypher.ErrUnsupportedFeature.New(
				"property access on a variable-length relationship " + p.Alias)
		}
	}

	// Aliases exported through a materialised WITH read the CTE's
	// projected column names.
	if cte := l.ctx.CteFor(p.Alias); cte != "" && cte != l.definingCte {
		return &Column{Name: quoteNeeded(p.Alias + "." + p.Key)}, nil
	}

	b := l.ctx.Binding(p.Alias)
	if b == nil {
		return nil, cypher.ErrInternal.New("property access on unbound alias " + p.Alias)
	}

	switch b.Kind {
	case cypher.RelAlias:
		relType := b.RelType()
		rs, err := l.ctx.Schema.Relationship(relType)
		if err != nil {
			return nil, err
		}
		col, err := rs.Column(p.Key)
		if err != nil {
			return nil, err
		}
		return &Column{Table: l.resolver.TableAlias(p.Alias), Name: col}, nil

	case cypher.ValueAlias:
		// Scope-projected value; the enclosing scope projected it under
		// its Cypher name.
		return &Column{Name: quoteNeeded(p.Alias + "." + p.Key)}, nil

	default:
		label := l.labelOf(p.Alias)
		if label == "" {
			return nil, cypher.ErrInternal.New("unresolved label for alias " + p.Alias)
		}
		relType, role := "", cypher.RoleNone
		if res, ok := l.resolver.Resolve(p.Alias); ok && res.Kind == DenormalizedNode {
			relType, role = res.RelType, res.Role
		}
		col, err := l.ctx.Schema.PropertyColumn(label, p.Key, relType, role)
		if err != nil {
			return nil, err
		}
		return &Column{Table: l.resolver.TableAlias(p.Alias), Name: col}, nil
	}
}

// lowerVar handles bare variable references: path variables become the
// path map, node and relationship aliases read their id column, and
// value aliases read the projected column.
func (l *Lowerer) lowerVar(v *expression.Var) (RenderExpr, error) {
	if vlp := l.ctx.VLPForAlias(v.VarName); vlp != nil && v.VarName == vlp.PathVar {
		return &Raw{Text: fmt.Sprintf(
			"map('nodes', %s.path_nodes, 'length', %s.hop_count, 'relationships', %s.path_relationships)",
			vlp.TableAlias, vlp.TableAlias, vlp.TableAlias)}, nil
	}
	if vlp := l.ctx.VLPForAlias(v.VarName); vlp != nil {
		switch v.VarName {
		case vlp.StartAlias:
			return &Column{Table: vlp.TableAlias, Name: "start_id"}, nil
		case vlp.EndAlias:
			return &Column{Table: vlp.TableAlias, Name: "end_id"}, nil
		}
	}

	b := l.ctx.Binding(v.VarName)
	if b == nil {
		return &Column{Name: v.VarName}, nil
	}
	switch b.Kind {
	case cypher.NodeAlias:
		label := l.labelOf(v.VarName)
		ns, err := l.ctx.Schema.Node(label)
		if err != nil {
			return nil, err
		}
		return &Column{Table: l.resolver.TableAlias(v.VarName), Name: ns.IDColumn()}, nil
	default:
		// Value alias projected by an enclosing scope or UNWIND.
		return &Column{Name: v.VarName}, nil
	}
}

func (l *Lowerer) lowerFunc(f *expression.FuncCall) (RenderExpr, error) {
	// length(p) over a path variable is the hop count.
	if f.FuncName == "length" && len(f.Args) == 1 {
		if v, ok := f.Args[0].(*expression.Var); ok {
			if vlp := l.ctx.VLPForAlias(v.VarName); vlp != nil && v.VarName == vlp.PathVar {
				return &Column{Table: vlp.TableAlias, Name: "hop_count"}, nil
			}
		}
	}
	// id(n) is the node's id column.
	if f.FuncName == "id" && len(f.Args) == 1 {
		if v, ok := f.Args[0].(*expression.Var); ok {
			return l.lowerVar(v)
		}
	}

	name := f.FuncName
	if mapped, ok := cypherFunctions[name]; ok {
		name = mapped
	}
	args := make([]RenderExpr, len(f.Args))
	for i, a := range f.Args {
		// count(n) over a bound entity counts rows, not ids.
		if f.FuncName == "count" {
			if _, ok := a.(*expression.Star); ok {
				args[i] = Star{}
				continue
			}
		}
		la, err := l.Lower(a)
		if err != nil {
			return nil, err
		}
		args[i] = la
	}
	return &FuncExpr{Name: name, Distinct: f.Distinct, Args: args}, nil
}

func (l *Lowerer) lowerCase(c *expression.Case) (RenderExpr, error) {
	out := &Case{}
	var err error
	if c.Operand != nil {
		if out.Operand, err = l.Lower(c.Operand); err != nil {
			return nil, err
		}
	}
	for _, b := range c.Branches {
		when, err := l.Lower(b.When)
		if err != nil {
			return nil, err
		}
		then, err := l.Lower(b.Then)
		if err != nil {
			return nil, err
		}
		out.Branches = append(out.Branches, CaseBranch{When: when, Then: then})
	}
	if c.Else != nil {
		if out.Else, err = l.Lower(c.Else); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// lowerSubqueryPlan renders a nested plan to parenthesised SQL.
func (l *Lowerer) lowerSubqueryPlan(n cypher.Node) (RenderExpr, error) {
	b := &Builder{ctx: l.ctx, resolver: l.resolver}
	rp, err := b.Build(n)
	if err != nil {
		return nil, err
	}
	return &Raw{Text: "(" + rp.SQL() + ")"}, nil
}

// quoteNeeded wraps projected Cypher names containing dots in double
// quotes so they reference the projected column, not a table.
func quoteNeeded(name string) string {
	return "\"" + name + "\""
}
