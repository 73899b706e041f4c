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

package cte

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/plan"
)

func i64(n int64) *int64 { return &n }

func testUsers() *cypher.NodeSchema {
	return &cypher.NodeSchema{
		Label:            "User",
		TableName:        "users",
		NodeID:           []string{"user_id"},
		PropertyMappings: map[string]string{"name": "full_name"},
	}
}

func testFollows() *cypher.RelationshipSchema {
	return &cypher.RelationshipSchema{
		TypeName:   "FOLLOWS",
		TableName:  "user_follows",
		FromNode:   "User",
		ToNode:     "User",
		FromColumn: "follower_id",
		ToColumn:   "followed_id",
	}
}

func traditionalCtx() *PatternSchemaContext {
	return &PatternSchemaContext{
		Name:       "vlp_a_b",
		StartAlias: "a",
		EndAlias:   "b",
		RelAlias:   "r",
		Start:      testUsers(),
		End:        testUsers(),
		Rel:        testFollows(),
		Strategy:   Traditional,
		MinHops:    1,
	}
}

func TestTraditionalRecursiveShape(t *testing.T) {
	require := require.New(t)

	c := traditionalCtx()
	c.StartProps = []PropertyColumn{{Prop: "name", Column: "full_name"}}
	c.StartFilters = []string{"a.full_name = 'alice'"}

	gens, err := Generate(c)
	require.NoError(err)
	require.Len(gens, 1)
	require.True(gens[0].Recursive)
	require.Equal("vlp_a_b", gens[0].Name)

	sql := gens[0].SQL
	require.Contains(sql, "1 AS hop_count")
	require.Contains(sql, "[a.user_id] AS path_nodes")
	require.Contains(sql, "['FOLLOWS'] AS path_relationships")
	require.Contains(sql, "a.full_name AS start_name")
	require.Contains(sql, "WHERE a.full_name = 'alice'")
	require.Contains(sql, "UNION ALL")
	require.Contains(sql, "FROM vlp_a_b AS vp")
	require.Contains(sql, "vp.hop_count + 1 AS hop_count")
	require.Contains(sql, "arrayConcat(vp.path_nodes, [b.user_id])")
	require.Contains(sql, "vp.hop_count < 10")
	require.Contains(sql, "NOT has(vp.path_nodes, b.user_id)")
	require.NotContains(sql, "FROM FROM")
}

func TestLowerBoundLayersOverRecursion(t *testing.T) {
	require := require.New(t)

	c := traditionalCtx()
	c.MinHops = 2
	c.MaxHops = i64(3)

	gens, err := Generate(c)
	require.NoError(err)
	require.Len(gens, 2)

	require.Equal("vlp_a_b_inner", gens[0].Name)
	require.True(gens[0].Recursive)
	require.Equal(
		"SELECT a.user_id AS start_id, b.user_id AS end_id, 1 AS hop_count, "+
			"[a.user_id] AS path_nodes, ['FOLLOWS'] AS path_relationships "+
			"FROM users AS a "+
			"INNER JOIN user_follows AS r ON r.follower_id = a.user_id "+
			"INNER JOIN users AS b ON b.user_id = r.followed_id "+
			"UNION ALL "+
			"SELECT vp.start_id, b.user_id AS end_id, vp.hop_count + 1 AS hop_count, "+
			"arrayConcat(vp.path_nodes, [b.user_id]) AS path_nodes, "+
			"arrayConcat(vp.path_relationships, ['FOLLOWS']) AS path_relationships "+
			"FROM vlp_a_b_inner AS vp "+
			"INNER JOIN user_follows AS r ON r.follower_id = vp.end_id "+
			"INNER JOIN users AS b ON b.user_id = r.followed_id "+
			"WHERE vp.hop_count < 3 AND NOT has(vp.path_nodes, b.user_id)",
		gens[0].SQL)

	require.Equal("vlp_a_b", gens[1].Name)
	require.False(gens[1].Recursive)
	require.Equal("SELECT * FROM vlp_a_b_inner WHERE hop_count >= 2", gens[1].SQL)
}

func TestBoundedMaxHops(t *testing.T) {
	c := traditionalCtx()
	c.MaxHops = i64(3)
	gens, err := Generate(c)
	require.NoError(t, err)
	require.Contains(t, gens[0].SQL, "vp.hop_count < 3")
}

func TestZeroHopBaseCase(t *testing.T) {
	require := require.New(t)

	c := traditionalCtx()
	c.MinHops = 0
	c.ZeroHop = true

	gens, err := Generate(c)
	require.NoError(err)
	sql := gens[0].SQL
	require.Contains(sql, "0 AS hop_count")
	require.Contains(sql, "CAST([] AS Array(UInt64)) AS path_nodes")
	require.Contains(sql, "CAST([] AS Array(String)) AS path_relationships")
	require.Contains(sql, "a.user_id AS start_id, a.user_id AS end_id")
}

func TestShortestPathLayersSelector(t *testing.T) {
	require := require.New(t)

	c := traditionalCtx()
	c.Shortest = plan.ShortestPath
	c.EndFilters = []string{"end_name = 'bob'"}

	gens, err := Generate(c)
	require.NoError(err)
	require.Len(gens, 3)

	require.Equal("vlp_a_b_inner", gens[0].Name)
	require.True(gens[0].Recursive)
	require.Contains(gens[0].SQL, "FROM vlp_a_b_inner AS vp")

	require.Equal("vlp_a_b_to_target", gens[1].Name)
	require.Contains(gens[1].SQL, "FROM vlp_a_b_inner WHERE end_name = 'bob'")

	require.Equal("vlp_a_b", gens[2].Name)
	require.Contains(gens[2].SQL,
		"ROW_NUMBER() OVER (PARTITION BY start_id ORDER BY hop_count ASC) AS rn")
	require.Contains(gens[2].SQL, "WHERE rn = 1")
	require.Contains(gens[2].SQL, "FROM vlp_a_b_to_target")
}

func TestAllShortestPathsUsesMinSubquery(t *testing.T) {
	c := traditionalCtx()
	c.Shortest = plan.AllShortestPaths
	gens, err := Generate(c)
	require.NoError(t, err)
	final := gens[len(gens)-1]
	require.Contains(t, final.SQL,
		"WHERE hop_count = (SELECT MIN(hop_count) FROM vlp_a_b_inner)")
}

func TestShortestSelfLoopTightensCap(t *testing.T) {
	c := traditionalCtx()
	c.EndAlias = "a"
	c.Name = "vlp_a_a"
	c.Shortest = plan.ShortestPath
	gens, err := Generate(c)
	require.NoError(t, err)
	require.Contains(t, gens[0].SQL, "vp.hop_count < 3")
}

func TestDenormalizedSingleTable(t *testing.T) {
	require := require.New(t)

	rel := &cypher.RelationshipSchema{
		TypeName:           "RESOLVES",
		TableName:          "dns_log",
		FromNode:           "Domain",
		ToNode:             "IP",
		FromColumn:         "domain",
		ToColumn:           "ip",
		FromNodeProperties: map[string]string{"tld": "domain_tld"},
		ToNodeProperties:   map[string]string{"country": "ip_country"},
	}
	c := &PatternSchemaContext{
		Name:       "vlp_d_i",
		StartAlias: "d",
		EndAlias:   "i",
		RelAlias:   "r",
		Rel:        rel,
		Strategy:   Denormalized,
		MinHops:    1,
		EndProps:   []PropertyColumn{{Prop: "country", Column: "ip_country"}},
	}

	gens, err := Generate(c)
	require.NoError(err)
	sql := gens[0].SQL
	require.Contains(sql, "r.domain AS start_id")
	require.Contains(sql, "r.ip AS end_id")
	require.Contains(sql, "FROM dns_log AS r")
	require.Contains(sql, "r.ip_country AS end_country")
	require.Contains(sql, "ON r.domain = vp.end_id")
	require.NotContains(sql, "INNER JOIN domains")
}

func TestFixedLengthUsesChainedJoins(t *testing.T) {
	require := require.New(t)

	c := traditionalCtx()
	c.MinHops = 3
	c.MaxHops = i64(3)

	gens, err := Generate(c)
	require.NoError(err)
	require.Len(gens, 1)
	require.False(gens[0].Recursive)

	sql := gens[0].SQL
	require.Contains(sql, "3 AS hop_count")
	require.Contains(sql, "FROM users AS n0")
	require.Contains(sql, "INNER JOIN user_follows AS r1 ON r1.follower_id = n0.user_id")
	require.Contains(sql, "INNER JOIN users AS n3")
	// Pairwise distinctness over 4 nodes yields 6 inequality checks.
	require.Equal(6, countOccurrences(sql, "<>"))
	require.NotContains(sql, "UNION ALL")
}

func TestCoupledSameRowDegeneratesToSelect(t *testing.T) {
	c := traditionalCtx()
	c.Strategy = CoupledSameRow
	c.MinHops = 1

	gens, err := Generate(c)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	require.False(t, gens[0].Recursive)
	require.NotContains(t, gens[0].SQL, "UNION ALL")
	require.Contains(t, gens[0].SQL, "r.follower_id AS start_id")
}

func TestSelectStrategy(t *testing.T) {
	schema := &cypher.GraphSchema{
		Nodes: map[string]*cypher.NodeSchema{
			"User":   testUsers(),
			"IP":     {Label: "IP", IsDenormalized: true, NodeID: []string{"ip"}},
			"Domain": {Label: "Domain", TableName: "domains", NodeID: []string{"domain"}},
		},
		Relationships: map[string]*cypher.RelationshipSchema{},
	}

	follows := testFollows()
	require.Equal(t, Traditional, SelectStrategy(schema, follows, false))
	require.Equal(t, CoupledSameRow, SelectStrategy(schema, follows, true))

	resolves := &cypher.RelationshipSchema{
		TypeName: "RESOLVES", TableName: "dns_log",
		FromNode: "Domain", ToNode: "IP",
		FromColumn: "domain", ToColumn: "ip",
	}
	require.Equal(t, Mixed, SelectStrategy(schema, resolves, false))

	resolves.FromNodeProperties = map[string]string{"tld": "domain_tld"}
	require.Equal(t, Denormalized, SelectStrategy(schema, resolves, false))

	manager := &cypher.RelationshipSchema{
		TypeName: "MANAGES", TableName: "users",
		FromNode: "User", ToNode: "User",
		FromColumn: "user_id", ToColumn: "manager_id",
	}
	require.Equal(t, FKEdge, SelectStrategy(schema, manager, false))
}

func countOccurrences(s, sub string) int {
	count, idx := 0, 0
	for {
		i := indexFrom(s, sub, idx)
		if i < 0 {
			return count
		}
		count++
		idx = i + len(sub)
	}
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
