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

// Package catalog loads graph schema declarations from YAML and
// validates their referential integrity before handing them to the
// compiler.
package catalog

import (
	"io"
	"os"

	"gopkg.in/src-d/go-errors.v1"
	"gopkg.in/yaml.v2"

	"github.com/genezhang/clickgraph/cypher"
)

var (
	// ErrInvalidSchema is returned when a declaration fails validation.
	ErrInvalidSchema = errors.NewKind("invalid schema: %s")
	// ErrDuplicateLabel is returned when two node declarations share a label.
	ErrDuplicateLabel = errors.NewKind("duplicate node label: %s")
	// ErrDuplicateType is returned when two relationship declarations
	// share a type name.
	ErrDuplicateType = errors.NewKind("duplicate relationship type: %s")
	// ErrDanglingEndpoint is returned when a relationship references an
	// undeclared node label.
	ErrDanglingEndpoint = errors.NewKind("relationship %s references undeclared label %s")
)

type nodeDecl struct {
	Label          string            `yaml:"label"`
	Database       string            `yaml:"database"`
	Table          string            `yaml:"table"`
	ID             []string          `yaml:"id"`
	Properties     map[string]string `yaml:"properties"`
	Denormalized   bool              `yaml:"denormalized"`
	FromProperties map[string]string `yaml:"from_properties"`
	ToProperties   map[string]string `yaml:"to_properties"`
}

type relDecl struct {
	Type               string            `yaml:"type"`
	Database           string            `yaml:"database"`
	Table              string            `yaml:"table"`
	From               string            `yaml:"from"`
	To                 string            `yaml:"to"`
	FromColumn         string            `yaml:"from_column"`
	ToColumn           string            `yaml:"to_column"`
	Properties         map[string]string `yaml:"properties"`
	FromNodeProperties map[string]string `yaml:"from_node_properties"`
	ToNodeProperties   map[string]string `yaml:"to_node_properties"`
}

type schemaDecl struct {
	Database      string     `yaml:"database"`
	Nodes         []nodeDecl `yaml:"nodes"`
	Relationships []relDecl  `yaml:"relationships"`
}

// LoadFile reads a schema declaration from the named YAML file.
func LoadFile(path string) (*cypher.GraphSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load reads a schema declaration from the reader.
func Load(r io.Reader) (*cypher.GraphSchema, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML schema declaration.
func Parse(raw []byte) (*cypher.GraphSchema, error) {
	var decl schemaDecl
	if err := yaml.UnmarshalStrict(raw, &decl); err != nil {
		return nil, ErrInvalidSchema.New(err.Error())
	}

	s := &cypher.GraphSchema{
		Database:      decl.Database,
		Nodes:         make(map[string]*cypher.NodeSchema, len(decl.Nodes)),
		Relationships: make(map[string]*cypher.RelationshipSchema, len(decl.Relationships)),
	}

	for _, n := range decl.Nodes {
		if n.Label == "" {
			return nil, ErrInvalidSchema.New("node declaration without a label")
		}
		if _, dup := s.Nodes[n.Label]; dup {
			return nil, ErrDuplicateLabel.New(n.Label)
		}
		if !n.Denormalized && n.Table == "" {
			return nil, ErrInvalidSchema.New("node " + n.Label + " has no table and is not denormalized")
		}
		if len(n.ID) == 0 {
			return nil, ErrInvalidSchema.New("node " + n.Label + " has no id column")
		}
		db := n.Database
		if db == "" {
			db = decl.Database
		}
		s.Nodes[n.Label] = &cypher.NodeSchema{
			Label:            n.Label,
			Database:         db,
			TableName:        n.Table,
			NodeID:           n.ID,
			PropertyMappings: n.Properties,
			IsDenormalized:   n.Denormalized,
			FromProperties:   n.FromProperties,
			ToProperties:     n.ToProperties,
		}
	}

	for _, r := range decl.Relationships {
		if r.Type == "" {
			return nil, ErrInvalidSchema.New("relationship declaration without a type")
		}
		if _, dup := s.Relationships[r.Type]; dup {
			return nil, ErrDuplicateType.New(r.Type)
		}
		if r.Table == "" {
			return nil, ErrInvalidSchema.New("relationship " + r.Type + " has no table")
		}
		if r.FromColumn == "" || r.ToColumn == "" {
			return nil, ErrInvalidSchema.New("relationship " + r.Type + " is missing endpoint columns")
		}
		if _, ok := s.Nodes[r.From]; !ok {
			return nil, ErrDanglingEndpoint.New(r.Type, r.From)
		}
		if _, ok := s.Nodes[r.To]; !ok {
			return nil, ErrDanglingEndpoint.New(r.Type, r.To)
		}
		db := r.Database
		if db == "" {
			db = decl.Database
		}
		s.Relationships[r.Type] = &cypher.RelationshipSchema{
			TypeName:           r.Type,
			Database:           db,
			TableName:          r.Table,
			FromNode:           r.From,
			ToNode:             r.To,
			FromColumn:         r.FromColumn,
			ToColumn:           r.ToColumn,
			PropertyMappings:   r.Properties,
			FromNodeProperties: r.FromNodeProperties,
			ToNodeProperties:   r.ToNodeProperties,
		}
	}

	// Denormalized nodes must be reachable through at least one edge
	// that carries their rows.
	for label, n := range s.Nodes {
		if !n.IsDenormalized {
			continue
		}
		carried := len(n.FromProperties) > 0 || len(n.ToProperties) > 0
		for _, r := range s.Relationships {
			if r.FromNode == label && len(r.FromNodeProperties) > 0 {
				carried = true
			}
			if r.ToNode == label && len(r.ToNodeProperties) > 0 {
				carried = true
			}
		}
		if !carried {
			return nil, ErrInvalidSchema.New("denormalized node " + label + " has no edge carrying its properties")
		}
	}

	return s, nil
}
