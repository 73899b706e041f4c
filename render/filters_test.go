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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genezhang/clickgraph/cypher"
	"github.com/genezhang/clickgraph/cypher/expression"
)

func TestClassifyFiltersBuckets(t *testing.T) {
	require := require.New(t)

	vlp := &cypher.VLPBinding{
		StartAlias: "a",
		EndAlias:   "b",
		RelAlias:   "r",
		PathVar:    "p",
		TableAlias: "t",
	}

	startPred := expression.NewOp("=", expression.NewProperty("a", "name"), expression.NewLiteral("alice"))
	endPred := expression.NewOp(">", expression.NewProperty("b", "age"), expression.NewLiteral(30))
	relPred := expression.NewOp(">", expression.NewProperty("r", "since"), expression.NewLiteral(2020))
	pathPred := expression.NewOp(">", expression.NewFuncCall("length", expression.NewVar("p")), expression.NewLiteral(2))
	mixedPred := expression.NewOp("=", expression.NewProperty("a", "city"), expression.NewProperty("b", "city"))
	otherPred := expression.NewOp("=", expression.NewProperty("c", "kind"), expression.NewLiteral("x"))

	pred := expression.NewAnd(startPred, endPred, relPred, pathPred, mixedPred, otherPred)
	b := ClassifyFilters(pred, vlp)

	require.Len(b.Start, 1)
	require.Len(b.End, 1)
	require.Len(b.Rel, 1)
	require.Len(b.Path, 1)
	require.Len(b.Outer, 2)
}

func TestClassifyFiltersWithoutBinding(t *testing.T) {
	pred := expression.NewAnd(
		expression.NewOp("=", expression.NewProperty("a", "name"), expression.NewLiteral("alice")),
		expression.NewOp(">", expression.NewProperty("b", "age"), expression.NewLiteral(30)),
	)
	b := ClassifyFilters(pred, nil)
	require.Empty(t, b.Start)
	require.Empty(t, b.End)
	require.Len(t, b.Outer, 2)
}

func TestClassifyFiltersAliasFreeLeafStaysOuter(t *testing.T) {
	vlp := &cypher.VLPBinding{StartAlias: "a", EndAlias: "b"}
	pred := expression.NewOp("=", expression.NewLiteral(1), expression.NewLiteral(1))
	b := ClassifyFilters(pred, vlp)
	require.Len(t, b.Outer, 1)
}
