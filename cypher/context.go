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
	"fmt"
	"sort"

	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// AliasKind says what kind of graph entity a Cypher alias names.
type AliasKind int

const (
	// NodeAlias is an alias introduced by a node pattern.
	NodeAlias AliasKind = iota
	// RelAlias is an alias introduced by a relationship pattern.
	RelAlias
	// ValueAlias is an alias introduced by WITH, UNWIND, or RETURN items.
	ValueAlias
	// PathAlias is a path variable bound with `p = (...)`.
	PathAlias
)

func (k AliasKind) String() string {
	switch k {
	case NodeAlias:
		return "node"
	case RelAlias:
		return "relationship"
	case ValueAlias:
		return "value"
	case PathAlias:
		return "path"
	default:
		return "unknown"
	}
}

// AliasBinding records what the planner knows about one Cypher alias.
type AliasBinding struct {
	Kind AliasKind
	// Labels holds the resolved node labels; more than one before type
	// inference has pruned the candidates.
	Labels []string
	// RelTypes holds the relationship types for a RelAlias.
	RelTypes []string
	// Denormalized marks a node alias whose properties live on an edge
	// row rather than a node table.
	Denormalized bool
	// Optional marks aliases introduced by OPTIONAL MATCH.
	Optional bool
}

// Label returns the single resolved label, or "" when unresolved or
// still ambiguous.
func (b *AliasBinding) Label() string {
	if len(b.Labels) == 1 {
		return b.Labels[0]
	}
	return ""
}

// RelType returns the single resolved relationship type, or "".
func (b *AliasBinding) RelType() string {
	if len(b.RelTypes) == 1 {
		return b.RelTypes[0]
	}
	return ""
}

// PropertySet is the set of properties that must be materialised for
// one alias, as computed by property-requirement analysis. All is a
// sentinel meaning every mapped property.
type PropertySet struct {
	All   bool
	props map[string]struct{}
}

// Add records one required property.
func (p *PropertySet) Add(property string) {
	if p.props == nil {
		p.props = make(map[string]struct{})
	}
	p.props[property] = struct{}{}
}

// Has reports whether the property is required.
func (p *PropertySet) Has(property string) bool {
	if p.All {
		return true
	}
	_, ok := p.props[property]
	return ok
}

// Properties returns the required properties in deterministic order.
// Empty for the All sentinel; callers check All first.
func (p *PropertySet) Properties() []string {
	out := make([]string, 0, len(p.props))
	for prop := range p.props {
		out = append(out, prop)
	}
	sort.Strings(out)
	return out
}

// Merge folds other into p.
func (p *PropertySet) Merge(other *PropertySet) {
	if other == nil {
		return
	}
	if other.All {
		p.All = true
	}
	for prop := range other.props {
		p.Add(prop)
	}
}

// VLPBinding records the CTE generated for one variable-length path so
// that expression lowering can redirect endpoint and path-variable
// references into CTE columns.
type VLPBinding struct {
	CteName    string
	StartAlias string
	EndAlias   string
	RelAlias   string
	PathVar    string
	// TableAlias is the alias of the CTE in the outer FROM clause.
	TableAlias string
}

// PlanCtx is the per-compilation mutable state. It is owned by the
// pipeline driver; analyzer passes borrow it in sequence, never
// concurrently.
type PlanCtx struct {
	ID     uuid.UUID
	Schema *GraphSchema

	bindings     map[string]*AliasBinding
	requirements map[string]*PropertySet
	// unwindLinks maps an UNWIND alias to the alias collected into it,
	// for `UNWIND collect(x) AS y` requirement propagation.
	unwindLinks map[string]string
	// collectSources maps a projected alias to the alias inside its
	// collect() call, so `WITH collect(x) AS xs UNWIND xs AS y` links
	// y back to x.
	collectSources map[string]string
	// cteBindings maps Cypher aliases to the CTE that materialises them.
	cteBindings map[string]string
	// cteOrder keeps CTE names in creation order; the last one is the
	// FROM fallback after a WITH boundary cleared the anchor.
	cteOrder []string

	vlps []*VLPBinding

	Parameters []string
	Warnings   []string

	log *logrus.Entry
}

// NewPlanCtx returns an empty context bound to the given schema.
func NewPlanCtx(schema *GraphSchema) *PlanCtx {
	id := uuid.NewV4()
	return &PlanCtx{
		ID:           id,
		Schema:       schema,
		bindings:     make(map[string]*AliasBinding),
		requirements: make(map[string]*PropertySet),
		unwindLinks:  make(map[string]string),
		collectSources: make(map[string]string),
		cteBindings:  make(map[string]string),
		log:          logrus.WithField("compilation", id.String()),
	}
}

// Log returns the compilation-scoped logger.
func (c *PlanCtx) Log() *logrus.Entry {
	return c.log
}

// Warn attaches a non-fatal warning to the compilation.
func (c *PlanCtx) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	c.log.Debug(msg)
}

// Bind records or replaces the binding for an alias.
func (c *PlanCtx) Bind(alias string, b *AliasBinding) {
	c.bindings[alias] = b
}

// Binding returns the binding for an alias, or nil.
func (c *PlanCtx) Binding(alias string) *AliasBinding {
	return c.bindings[alias]
}

// Aliases returns all bound aliases in deterministic order.
func (c *PlanCtx) Aliases() []string {
	out := make([]string, 0, len(c.bindings))
	for a := range c.bindings {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Require records that the alias needs the given property materialised.
func (c *PlanCtx) Require(alias, property string) {
	c.requirement(alias).Add(property)
}

// RequireAll records that the alias needs every property materialised.
func (c *PlanCtx) RequireAll(alias string) {
	c.requirement(alias).All = true
}

func (c *PlanCtx) requirement(alias string) *PropertySet {
	r, ok := c.requirements[alias]
	if !ok {
		r = new(PropertySet)
		c.requirements[alias] = r
	}
	return r
}

// Requirements returns the property set for the alias, or nil when the
// alias never flows into a projection.
func (c *PlanCtx) Requirements(alias string) *PropertySet {
	return c.requirements[alias]
}

// LinkUnwind records `UNWIND collect(src) AS target`.
func (c *PlanCtx) LinkUnwind(target, src string) {
	c.unwindLinks[target] = src
}

// UnwindSource returns the collected alias behind an UNWIND alias.
func (c *PlanCtx) UnwindSource(target string) (string, bool) {
	src, ok := c.unwindLinks[target]
	return src, ok
}

// LinkCollect records `collect(src) AS alias` in a projection.
func (c *PlanCtx) LinkCollect(alias, src string) {
	c.collectSources[alias] = src
}

// CollectSource returns the alias collected under the projected alias.
func (c *PlanCtx) CollectSource(alias string) (string, bool) {
	src, ok := c.collectSources[alias]
	return src, ok
}

// BindCte records that the alias is materialised by the named CTE.
func (c *PlanCtx) BindCte(alias, cteName string) {
	c.cteBindings[alias] = cteName
	for _, n := range c.cteOrder {
		if n == cteName {
			return
		}
	}
	c.cteOrder = append(c.cteOrder, cteName)
}

// CteFor returns the CTE materialising the alias, or "".
func (c *PlanCtx) CteFor(alias string) string {
	return c.cteBindings[alias]
}

// LatestCte returns the most recently created CTE name, or "".
func (c *PlanCtx) LatestCte() string {
	if len(c.cteOrder) == 0 {
		return ""
	}
	return c.cteOrder[len(c.cteOrder)-1]
}

// AddVLP registers the CTE binding for a variable-length path.
func (c *PlanCtx) AddVLP(v *VLPBinding) {
	c.vlps = append(c.vlps, v)
}

// VLPs returns all registered variable-length path bindings.
func (c *PlanCtx) VLPs() []*VLPBinding {
	return c.vlps
}

// VLPForAlias returns the VLP binding in which the alias plays a role
// (endpoint, relationship, or path variable), or nil.
func (c *PlanCtx) VLPForAlias(alias string) *VLPBinding {
	for _, v := range c.vlps {
		if v.StartAlias == alias || v.EndAlias == alias || v.RelAlias == alias || v.PathVar == alias {
			return v
		}
	}
	return nil
}

// AddParameter records a named query parameter, preserving first-seen
// order and ignoring duplicates.
func (c *PlanCtx) AddParameter(name string) {
	for _, p := range c.Parameters {
		if p == name {
			return
		}
	}
	c.Parameters = append(c.Parameters, name)
}
