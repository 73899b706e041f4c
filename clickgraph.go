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

// Package clickgraph compiles Cypher-style graph queries into
// ClickHouse SQL, given a schema that maps labels and relationship
// types onto relational tables.
package clickgraph

import (
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/analyzer"
	"github.com/genezhang/clickgraph/cypher/ast"
	"github.com/genezhang/clickgraph/cypher/planbuilder"
	"github.com/genezhang/clickgraph/render"
)

// CompiledQuery is the result of one compilation: the SQL text, the
// named parameters it references in first-seen order, and any
// non-fatal warnings raised along the way.
type CompiledQuery struct {
	SQL        string
	Parameters []string
	Warnings   []string
}

// Compiler turns parsed statements into SQL. It is stateless across
// compilations apart from the schema and the algorithm registry, and
// safe for concurrent use once configured.
type Compiler struct {
	schema     *cypher.GraphSchema
	analyzer   *analyzer.Analyzer
	algorithms map[string]render.AlgorithmEmitter
}

// New creates a compiler over the given schema.
func New(schema *cypher.GraphSchema) *Compiler {
	return &Compiler{
		schema:     schema,
		analyzer:   analyzer.NewDefault(),
		algorithms: make(map[string]render.AlgorithmEmitter),
	}
}

// RegisterAlgorithm installs the SQL emitter for a CALL-able graph
// algorithm. Names are case-insensitive. Algorithm bodies are opaque
// to the compiler; the emitter returns the raw CTE body.
func (c *Compiler) RegisterAlgorithm(name string, emitter render.AlgorithmEmitter) {
	c.algorithms[strings.ToLower(name)] = emitter
}

// Compile runs the full pipeline: logical planning, analysis, render
// lowering, and emission.
func (c *Compiler) Compile(stmt *ast.Statement) (*CompiledQuery, error) {
	span := opentracing.StartSpan("clickgraph.Compile")
	defer span.Finish()

	pb := planbuilder.New(c.schema)
	ctx := pb.Ctx()
	log := ctx.Log()

	n, err := pb.BuildStatement(stmt)
	if err != nil {
		return nil, err
	}
	log.Debug("logical plan built")

	analyzed, err := c.analyzer.Analyze(ctx, n)
	if err != nil {
		return nil, err
	}
	log.Debug("analysis complete")

	b := render.NewBuilder(ctx)
	b.Algorithms = c.algorithms
	rp, err := b.Build(analyzed)
	if err != nil {
		return nil, err
	}

	sql := rp.SQL()
	span.SetTag("sql.length", len(sql))
	log.WithField("warnings", len(ctx.Warnings)).Debug("compilation finished")

	return &CompiledQuery{
		SQL:        sql,
		Parameters: ctx.Parameters,
		Warnings:   ctx.Warnings,
	}, nil
}
