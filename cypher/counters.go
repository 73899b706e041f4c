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
	"sync/atomic"
)

// Process-wide monotonic sequences for anonymous table aliases and CTE
// names. Correctness only requires uniqueness within one compilation,
// so a relaxed fetch-add is enough for concurrent compilations. Tests
// reset them for byte-identical SQL.
var (
	aliasSeq uint64
	cteSeq   uint64
)

// NextAlias returns the next anonymous table alias: t1, t2, ...
func NextAlias() string {
	return fmt.Sprintf("t%d", atomic.AddUint64(&aliasSeq, 1))
}

// NextCteName returns the next CTE name: cte1, cte2, ...
func NextCteName() string {
	return fmt.Sprintf("cte%d", atomic.AddUint64(&cteSeq, 1))
}

// ResetCounters resets both sequences to zero. Only for tests that
// assert exact SQL output; never call it while a compilation is in
// flight.
func ResetCounters() {
	atomic.StoreUint64(&aliasSeq, 0)
	atomic.StoreUint64(&cteSeq, 0)
}
