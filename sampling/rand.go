/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sampling

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mathext/prng"
)

// Generator is a raw 64-bit pseudo-random stream. The generators in
// gonum's mathext/prng and in x/exp/rand all satisfy it.
type Generator interface {
	// Uint64 returns a random number in [0, MaxUint64] and advances
	// the generator's state.
	Uint64() uint64
}

// FromGenerator adapts a Generator into a Source. Generators mutate
// internal state on every draw, so the adapter serializes access with
// a mutex; the resulting Source is safe for concurrent use.
func FromGenerator(g Generator) Source {
	return &lockedSource{gen: g}
}

type lockedSource struct {
	mu  sync.Mutex
	gen Generator
}

// Uniform returns a value in [0, upper) built from the top 53 bits of
// one generator word, the full mantissa width of a float64.
func (s *lockedSource) Uniform(upper float64) float64 {
	s.mu.Lock()
	v := s.gen.Uint64()
	s.mu.Unlock()
	return upper * float64(v>>11) * 0x1p-53
}

// NewSource returns a Source backed by an MT19937 generator seeded
// from the system clock. Sampling has no need for a cryptographically
// secure stream.
func NewSource() Source {
	return NewSeededSource(uint64(time.Now().UnixNano()))
}

// NewSeededSource returns a deterministic MT19937-backed Source: two
// sources built from the same seed produce identical draw sequences.
func NewSeededSource(seed uint64) Source {
	gen := prng.NewMT19937()
	gen.Seed(seed)
	return FromGenerator(gen)
}

// NewKeyedSource derives the seed by hashing an arbitrary string key,
// so tests and simulations can name their streams instead of managing
// numeric seeds. Equal keys yield identical sources.
func NewKeyedSource(key string) Source {
	return NewSeededSource(xxhash.Sum64String(key))
}

// NewPCGSource returns a Source backed by the PCG XSL-RR generator
// from x/exp/rand, a smaller-state alternative to MT19937.
func NewPCGSource(seed uint64) Source {
	var gen exprand.PCGSource
	gen.Seed(seed)
	return FromGenerator(&gen)
}
