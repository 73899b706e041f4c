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

// Package analyzer rewrites the logical plan through a fixed sequence
// of passes: schema inference, property-requirement analysis,
// scoping-WITH collapse, pattern resolution, graph-join inference, CTE
// schema resolution, and group-by building. Each pass is synchronous
// and CPU-bound; the driver owns the PlanCtx and passes borrow it in
// order.
package analyzer

import (
	"strings"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/plan"
	"github.com/genezhang/clickgraph/cypher/transform"
)

// RuleFunc is one analyzer pass.
type RuleFunc func(a *Analyzer, ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, transform.TreeIdentity, error)

// Rule is a named analyzer pass.
type Rule struct {
	Name  string
	Apply RuleFunc
}

// DefaultRules is the fixed pass order. Reordering them is not
// supported: collapse must precede join inference, and the resolver
// relies on inference having filled deterministic gaps.
var DefaultRules = []Rule{
	{"resolve_schema", resolveSchema},
	{"analyze_property_requirements", analyzePropertyRequirements},
	{"collapse_scoping_with", collapseScopingWith},
	{"resolve_patterns", resolvePatterns},
	{"infer_graph_joins", inferGraphJoins},
	{"resolve_cte_schemas", resolveCteSchemas},
	{"build_group_by", buildGroupBy},
}

// Analyzer applies the rule sequence to a logical plan.
type Analyzer struct {
	// Debug enables rule-level logging.
	Debug    bool
	Rules    []Rule
	debugCtx []string
}

// NewDefault creates an analyzer with the default rules.
func NewDefault() *Analyzer {
	return &Analyzer{Rules: DefaultRules}
}

// Log prints a debug message prefixed with the current rule context.
func (a *Analyzer) Log(msg string, args ...interface{}) {
	if a != nil && a.Debug {
		if len(a.debugCtx) > 0 {
			ctx := strings.Join(a.debugCtx, "/")
			logrus.Infof("%s: "+msg, append([]interface{}{ctx}, args...)...)
		} else {
			logrus.Infof(msg, args...)
		}
	}
}

// PushDebugContext pushes a context string for debug logging.
func (a *Analyzer) PushDebugContext(msg string) {
	if a != nil {
		a.debugCtx = append(a.debugCtx, msg)
	}
}

// PopDebugContext pops the last context string.
func (a *Analyzer) PopDebugContext() {
	if a != nil && len(a.debugCtx) > 0 {
		a.debugCtx = a.debugCtx[:len(a.debugCtx)-1]
	}
}

// Analyze runs every rule once, in order.
func (a *Analyzer) Analyze(ctx *cypher.PlanCtx, n cypher.Node) (cypher.Node, error) {
	span := opentracing.StartSpan("analyze")
	defer span.Finish()

	prev := n
	for _, rule := range a.Rules {
		a.PushDebugContext(rule.Name)
		next, same, err := rule.Apply(a, ctx, prev)
		a.PopDebugContext()
		if err != nil {
			return nil, err
		}
		if !same {
			a.Log("rule %s rewrote the plan:\n%s", rule.Name, next.String())
		}
		prev = next
	}
	span.SetTag("plan", prev.String())
	return prev, nil
}

// hasVariableLengthPath reports whether any relationship in the plan
// is variable length.
func hasVariableLengthPath(n cypher.Node) bool {
	found := false
	transform.Inspect(n, func(n cypher.Node) bool {
		if rel, ok := n.(*plan.GraphRel); ok && rel.VarLength != nil {
			found = true
			return false
		}
		return true
	})
	return found
}
