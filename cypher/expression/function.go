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

package expression

import (
	"strings"

	"github.com/genezhang/clickgraph/cypher"
)

// aggregates is the set of Cypher aggregate function names, lowercase.
var aggregates = map[string]struct{}{
	"count":        {},
	"sum":          {},
	"avg":          {},
	"min":          {},
	"max":          {},
	"collect":      {},
	"stddev":       {},
	"stddevp":      {},
	"percentilecont": {},
	"percentiledisc": {},
}

// FuncCall is a scalar or aggregate function call.
type FuncCall struct {
	FuncName string
	Distinct bool
	Args     []cypher.Expr
}

// NewFuncCall creates a new function call.
func NewFuncCall(name string, args ...cypher.Expr) *FuncCall {
	return &FuncCall{FuncName: name, Args: args}
}

// NewDistinctFuncCall creates fn(DISTINCT args...).
func NewDistinctFuncCall(name string, args ...cypher.Expr) *FuncCall {
	return &FuncCall{FuncName: name, Distinct: true, Args: args}
}

// Name implements cypher.Nameable.
func (f *FuncCall) Name() string { return f.FuncName }

// IsAggregate reports whether the call is an aggregate function.
func (f *FuncCall) IsAggregate() bool {
	_, ok := aggregates[strings.ToLower(f.FuncName)]
	return ok
}

func (f *FuncCall) Children() []cypher.Expr { return f.Args }

func (f *FuncCall) WithChildren(children ...cypher.Expr) (cypher.Expr, error) {
	if len(children) != len(f.Args) {
		return nil, cypher.ErrInvalidChildrenNumber(f, len(children), len(f.Args))
	}
	nf := *f
	nf.Args = children
	return &nf, nil
}

func (f *FuncCall) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	distinct := ""
	if f.Distinct {
		distinct = "DISTINCT "
	}
	return f.FuncName + "(" + distinct + strings.Join(args, ", ") + ")"
}

// ContainsAggregate reports whether any subexpression is an aggregate
// function call.
func ContainsAggregate(expr cypher.Expr) bool {
	if expr == nil {
		return false
	}
	if f, ok := expr.(*FuncCall); ok && f.IsAggregate() {
		return true
	}
	for _, c := range expr.Children() {
		if ContainsAggregate(c) {
			return true
		}
	}
	return false
}
