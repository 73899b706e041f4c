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
	"testing"

	"github.com/stretchr/testify/require"
)

func flightSchema() *GraphSchema {
	return &GraphSchema{
		Nodes: map[string]*NodeSchema{
			"User": {
				Label:     "User",
				TableName: "users",
				NodeID:    []string{"user_id"},
				PropertyMappings: map[string]string{
					"id":   "user_id",
					"name": "full_name",
				},
			},
			"Airport": {
				Label:          "Airport",
				TableName:      "flights",
				NodeID:         []string{"code"},
				IsDenormalized: true,
				PropertyMappings: map[string]string{
					"code": "code",
					"city": "city",
				},
				FromProperties: map[string]string{"city": "OriginCity"},
				ToProperties:   map[string]string{"city": "DestCity"},
			},
		},
		Relationships: map[string]*RelationshipSchema{
			"FOLLOWS": {
				TypeName:   "FOLLOWS",
				TableName:  "user_follows",
				FromNode:   "User",
				ToNode:     "User",
				FromColumn: "follower_id",
				ToColumn:   "followed_id",
			},
			"FLIGHT": {
				TypeName:           "FLIGHT",
				TableName:          "flights",
				FromNode:           "Airport",
				ToNode:             "Airport",
				FromColumn:         "Origin",
				ToColumn:           "Dest",
				FromNodeProperties: map[string]string{"city": "OriginCity"},
				ToNodeProperties:   map[string]string{"city": "DestCity"},
			},
		},
	}
}

func TestPropertyColumnDenormalizedRoles(t *testing.T) {
	s := flightSchema()

	col, err := s.PropertyColumn("Airport", "city", "FLIGHT", RoleFrom)
	require.NoError(t, err)
	require.Equal(t, "OriginCity", col)

	col, err = s.PropertyColumn("Airport", "city", "FLIGHT", RoleTo)
	require.NoError(t, err)
	require.Equal(t, "DestCity", col)

	// Without a role the node's own mapping answers.
	col, err = s.PropertyColumn("Airport", "city", "", RoleNone)
	require.NoError(t, err)
	require.Equal(t, "city", col)
}

func TestNodeLookupSuggestsCloseLabel(t *testing.T) {
	s := flightSchema()
	_, err := s.Node("Userz")
	require.Error(t, err)
	require.True(t, ErrUnknownLabel.Is(err))
	require.Contains(t, err.Error(), "maybe you mean User?")
}

func TestColumnLookupSuggestsCloseProperty(t *testing.T) {
	s := flightSchema()
	_, err := s.Nodes["User"].Column("nam")
	require.Error(t, err)
	require.True(t, ErrUnknownProperty.Is(err))
	require.Contains(t, err.Error(), "maybe you mean name?")
}

func TestRelationshipsBetween(t *testing.T) {
	s := flightSchema()

	rels := s.RelationshipsBetween("User", "User")
	require.Len(t, rels, 1)
	require.Equal(t, "FOLLOWS", rels[0].TypeName)

	require.Empty(t, s.RelationshipsBetween("User", "Airport"))

	// Wildcards match either endpoint.
	rels = s.RelationshipsBetween(AnyLabel, "Airport")
	require.Len(t, rels, 1)
	require.Equal(t, "FLIGHT", rels[0].TypeName)
}

func TestIsDenormalized(t *testing.T) {
	s := flightSchema()
	require.True(t, s.IsDenormalized(s.Relationships["FLIGHT"]))
	require.False(t, s.IsDenormalized(s.Relationships["FOLLOWS"]))
}

func TestLabelsDeterministicOrder(t *testing.T) {
	s := flightSchema()
	require.Equal(t, []string{"Airport", "User"}, s.Labels())
	require.Equal(t, []string{"FLIGHT", "FOLLOWS"}, s.RelationshipTypes())
}
