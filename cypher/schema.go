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
	"sort"

	"github.com/genezhang/clickgraph/internal/similartext"
)

// AnyLabel is the polymorphic wildcard label. A node declared with it
// matches every node schema in the catalog.
const AnyLabel = "$any"

// EndpointRole distinguishes which end of a relationship an alias plays
// when its properties are read off the relationship row.
type EndpointRole int

const (
	// RoleNone means the alias is not a denormalised endpoint.
	RoleNone EndpointRole = iota
	// RoleFrom means the alias is the from-side endpoint.
	RoleFrom
	// RoleTo means the alias is the to-side endpoint.
	RoleTo
)

func (r EndpointRole) String() string {
	switch r {
	case RoleFrom:
		return "from"
	case RoleTo:
		return "to"
	default:
		return "none"
	}
}

// NodeSchema maps one node label onto a relational table.
type NodeSchema struct {
	Label     string
	Database  string
	TableName string
	// NodeID is the id column, or an ordered composite of columns.
	NodeID []string
	// PropertyMappings maps Cypher property names to table columns.
	PropertyMappings map[string]string
	// IsDenormalized marks a node whose rows live inside edge tables
	// rather than a table of its own.
	IsDenormalized bool
	// FromProperties and ToProperties map Cypher properties to the edge
	// columns that hold them when this node is embedded as the from or to
	// endpoint of a denormalised relationship.
	FromProperties map[string]string
	ToProperties   map[string]string
}

// IDColumn returns the first id column. Composite ids keep their order
// in NodeID; most call sites only need the leading column.
func (n *NodeSchema) IDColumn() string {
	if len(n.NodeID) == 0 {
		return ""
	}
	return n.NodeID[0]
}

// Column resolves a Cypher property to this node's table column.
func (n *NodeSchema) Column(property string) (string, error) {
	if col, ok := n.PropertyMappings[property]; ok {
		return col, nil
	}
	return "", ErrUnknownProperty.New(property,
		"label "+n.Label+similartext.FindFromMap(n.PropertyMappings, property))
}

// HasProperty reports whether the property maps to a column.
func (n *NodeSchema) HasProperty(property string) bool {
	_, ok := n.PropertyMappings[property]
	return ok
}

// RelationshipSchema maps one relationship type onto an edge table.
type RelationshipSchema struct {
	TypeName   string
	Database   string
	TableName  string
	FromNode   string
	ToNode     string
	FromColumn string
	ToColumn   string
	// PropertyMappings maps the relationship's own Cypher properties to
	// edge-table columns.
	PropertyMappings map[string]string
	// FromNodeProperties and ToNodeProperties record that the endpoint
	// nodes' properties live inside the edge row, keyed by Cypher
	// property name.
	FromNodeProperties map[string]string
	ToNodeProperties   map[string]string
}

// Column resolves one of the relationship's own properties.
func (r *RelationshipSchema) Column(property string) (string, error) {
	if col, ok := r.PropertyMappings[property]; ok {
		return col, nil
	}
	return "", ErrUnknownProperty.New(property,
		"relationship "+r.TypeName+similartext.FindFromMap(r.PropertyMappings, property))
}

// EndpointColumn resolves an endpoint node property declared on the edge
// row for the given role. The boolean is false when the edge does not
// carry the property for that role.
func (r *RelationshipSchema) EndpointColumn(role EndpointRole, property string) (string, bool) {
	switch role {
	case RoleFrom:
		col, ok := r.FromNodeProperties[property]
		return col, ok
	case RoleTo:
		col, ok := r.ToNodeProperties[property]
		return col, ok
	}
	return "", false
}

// GraphSchema is the user-declared mapping from graph concepts onto
// relational tables. It is read-only for the duration of a compilation;
// concurrent compilations may share one instance.
type GraphSchema struct {
	Database      string
	Nodes         map[string]*NodeSchema
	Relationships map[string]*RelationshipSchema
}

// Node resolves a label to its schema. AnyLabel does not resolve here;
// callers expand wildcards against Labels().
func (s *GraphSchema) Node(label string) (*NodeSchema, error) {
	if n, ok := s.Nodes[label]; ok {
		return n, nil
	}
	return nil, ErrUnknownLabel.New(label + similartext.FindFromMap(s.Nodes, label))
}

// Relationship resolves a relationship type key to its schema.
func (s *GraphSchema) Relationship(typeName string) (*RelationshipSchema, error) {
	if r, ok := s.Relationships[typeName]; ok {
		return r, nil
	}
	return nil, ErrUnknownRelType.New(typeName + similartext.FindFromMap(s.Relationships, typeName))
}

// Labels returns all node labels in deterministic order.
func (s *GraphSchema) Labels() []string {
	labels := make([]string, 0, len(s.Nodes))
	for l := range s.Nodes {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// RelationshipTypes returns all relationship type keys in deterministic
// order.
func (s *GraphSchema) RelationshipTypes() []string {
	types := make([]string, 0, len(s.Relationships))
	for t := range s.Relationships {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// RelationshipsBetween returns every relationship whose endpoints match
// the given labels. AnyLabel or the empty string matches any endpoint.
// Results are in deterministic order.
func (s *GraphSchema) RelationshipsBetween(fromLabel, toLabel string) []*RelationshipSchema {
	var out []*RelationshipSchema
	for _, t := range s.RelationshipTypes() {
		r := s.Relationships[t]
		if labelMatches(fromLabel, r.FromNode) && labelMatches(toLabel, r.ToNode) {
			out = append(out, r)
		}
	}
	return out
}

func labelMatches(queried, declared string) bool {
	return queried == "" || queried == AnyLabel || queried == declared
}

// IsDenormalized reports whether the relationship carries endpoint
// properties on its own rows, either because the schema declares
// from/to node properties on the edge or because an endpoint label is
// flagged denormalised.
func (s *GraphSchema) IsDenormalized(r *RelationshipSchema) bool {
	if len(r.FromNodeProperties) > 0 || len(r.ToNodeProperties) > 0 {
		return true
	}
	if n, ok := s.Nodes[r.FromNode]; ok && n.IsDenormalized {
		return true
	}
	if n, ok := s.Nodes[r.ToNode]; ok && n.IsDenormalized {
		return true
	}
	return false
}

// PropertyColumn resolves a property for an alias bound to the given
// label. When the alias is an endpoint of a denormalised relationship,
// relType and role select the edge columns that shadow the node table.
func (s *GraphSchema) PropertyColumn(label, property, relType string, role EndpointRole) (string, error) {
	if relType != "" && role != RoleNone {
		if r, ok := s.Relationships[relType]; ok {
			if col, ok := r.EndpointColumn(role, property); ok {
				return col, nil
			}
		}
	}
	n, err := s.Node(label)
	if err != nil {
		return "", err
	}
	if n.IsDenormalized && role != RoleNone {
		side := n.FromProperties
		if role == RoleTo {
			side = n.ToProperties
		}
		if col, ok := side[property]; ok {
			return col, nil
		}
	}
	return n.Column(property)
}

// LabelsWithProperty returns the node labels whose schema maps the
// given property, in deterministic order. Used by schema inference to
// break ties between candidate labels.
func (s *GraphSchema) LabelsWithProperty(property string) []string {
	var out []string
	for _, l := range s.Labels() {
		if s.Nodes[l].HasProperty(property) {
			out = append(out, l)
		}
	}
	return out
}
