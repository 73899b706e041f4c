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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSchema = `
database: social
nodes:
  - label: User
    table: users
    id: [user_id]
    properties:
      name: full_name
      age: age
  - label: Post
    table: posts
    id: [post_id]
    properties:
      title: title
relationships:
  - type: FOLLOWS
    table: user_follows
    from: User
    to: User
    from_column: follower_id
    to_column: followed_id
  - type: WROTE
    table: user_posts
    from: User
    to: Post
    from_column: author_id
    to_column: post_id
`

func TestParseSampleSchema(t *testing.T) {
	require := require.New(t)

	s, err := Parse([]byte(sampleSchema))
	require.NoError(err)

	require.Equal("social", s.Database)
	require.Len(s.Nodes, 2)
	require.Len(s.Relationships, 2)

	u, err := s.Node("User")
	require.NoError(err)
	require.Equal("users", u.TableName)
	require.Equal("social", u.Database)
	require.Equal("user_id", u.IDColumn())
	require.Equal("full_name", u.PropertyMappings["name"])

	f, err := s.Relationship("FOLLOWS")
	require.NoError(err)
	require.Equal("follower_id", f.FromColumn)
	require.Equal("User", f.ToNode)
}

func TestParseDuplicateLabel(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - label: User
    table: users
    id: [id]
  - label: User
    table: users2
    id: [id]
`))
	require.Error(t, err)
	require.True(t, ErrDuplicateLabel.Is(err))
}

func TestParseDanglingEndpoint(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - label: User
    table: users
    id: [id]
relationships:
  - type: WROTE
    table: user_posts
    from: User
    to: Post
    from_column: a
    to_column: b
`))
	require.Error(t, err)
	require.True(t, ErrDanglingEndpoint.Is(err))
}

func TestParseMissingID(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - label: User
    table: users
`))
	require.Error(t, err)
	require.True(t, ErrInvalidSchema.Is(err))
}

func TestParseDenormalizedRequiresCarrier(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - label: IP
    denormalized: true
    id: [ip]
`))
	require.Error(t, err)
	require.True(t, ErrInvalidSchema.Is(err))
}

func TestParseDenormalizedCarriedByEdge(t *testing.T) {
	s, err := Parse([]byte(`
nodes:
  - label: IP
    denormalized: true
    id: [ip]
  - label: Domain
    table: domains
    id: [domain]
relationships:
  - type: RESOLVES
    table: dns_log
    from: Domain
    to: IP
    from_column: domain
    to_column: ip
    to_node_properties:
      country: ip_country
`))
	require.NoError(t, err)
	r, err := s.Relationship("RESOLVES")
	require.NoError(t, err)
	require.True(t, s.IsDenormalized(r))
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  - label: User
    table: users
    id: [id]
    colour: blue
`))
	require.Error(t, err)
	require.True(t, ErrInvalidSchema.Is(err))
}
