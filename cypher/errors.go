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
	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrUnknownLabel is returned when a node label has no entry in the
	// graph schema.
	ErrUnknownLabel = errors.NewKind("unknown node label: %s")

	// ErrUnknownRelType is returned when a relationship type has no entry
	// in the graph schema.
	ErrUnknownRelType = errors.NewKind("unknown relationship type: %s")

	// ErrUnknownProperty is returned when a property has no column mapping
	// for the given label or relationship type.
	ErrUnknownProperty = errors.NewKind("unknown property %q on %s")

	// ErrAmbiguousPattern is returned when a pattern admits more than one
	// schema interpretation and none can be chosen deterministically.
	ErrAmbiguousPattern = errors.NewKind("ambiguous pattern: %s")

	// ErrMalformedClause is returned for clauses the planner cannot build,
	// such as a pattern with mismatched nodes and relationships.
	ErrMalformedClause = errors.NewKind("malformed %s clause: %s")

	// ErrNotEnoughLabels is returned by schema inference when fewer than
	// two of (left label, relationship type, right label) are known and the
	// remainder cannot be determined.
	ErrNotEnoughLabels = errors.NewKind("cannot infer labels for pattern (%s)-[%s]-(%s): not enough labels known")

	// ErrMissingRelationLabel is returned by schema inference when the
	// known endpoint labels match no relationship in the schema.
	ErrMissingRelationLabel = errors.NewKind("no relationship in schema connects (%s) to (%s)")

	// ErrInvalidVariableLengthBounds is returned for a variable-length
	// pattern whose bounds are inverted or zero-width.
	ErrInvalidVariableLengthBounds = errors.NewKind("invalid variable-length bounds *%d..%d")

	// ErrUnsupportedFeature is returned for query shapes the compiler
	// recognises but deliberately does not translate.
	ErrUnsupportedFeature = errors.NewKind("unsupported feature: %s")

	// ErrInternal is returned on broken compiler invariants. The message
	// must carry the plan discriminant and alias involved so the failure
	// can be diagnosed from logs alone.
	ErrInternal = errors.NewKind("internal: %s")
)
