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

// Package sampling implements stochastic universal sampling (SUS):
// weighted selection of n indices from a population using one shared
// random offset and n evenly spaced pointers over the cumulative
// weights, rather than one independent draw per selection.
//
// Each index is selected with expected count n*w/W, where w is its
// weight and W the total, and no index can be selected more than
// ceil(w / (W/n)) + 1 times in a single call. Naive weighted sampling
// with replacement has the same expectation but no such bound: a
// single dominant weight can claim every selection.
//
// Reference: Baker, "Reducing Bias and Inefficiency in the Selection
// Algorithm", Proc. 2nd Int. Conf. on Genetic Algorithms, 1987.
package sampling

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Errors reported by Sample and its variants. All of them indicate bad
// caller input and are detected before any randomness is consumed.
var (
	ErrEmptyPopulation    = errors.New("population must not be empty")
	ErrZeroTotalWeight    = errors.New("total weight must be greater than zero")
	ErrInvalidSampleCount = errors.New("sample count must not be negative")
	ErrLengthMismatch     = errors.New("items and weights must have the same length")

	errTotalOverflow = errors.New("total weight overflows float64")
)

// InvalidWeightError reports a weight that is negative, NaN or infinite.
type InvalidWeightError struct {
	Index  int
	Weight float64
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("weight at index %d must be finite and nonnegative, got %v", e.Index, e.Weight)
}

// Source is the randomness capability the sampler consumes: one
// uniformly distributed value in the half-open interval [0, upper).
// Seeding and reproducibility are the caller's concern; see
// NewSeededSource and friends for ready-made implementations.
type Source interface {
	Uniform(upper float64) float64
}

type Option func(*config)

type config struct {
	uniformFallback bool
	shuffle         bool
}

// WithUniformFallback degrades an all-zero weight vector to uniform
// selection instead of failing with ErrZeroTotalWeight: the population
// is covered with full round-robin passes while at least one full pass
// of selections remains, and the remainder is drawn uniformly without
// replacement. Draws from the Source only for the remainder.
func WithUniformFallback() Option {
	return func(c *config) {
		c.uniformFallback = true
	}
}

// WithShuffle randomizes the order of the result, breaking up the runs
// of repeated indices that pointer order produces for heavy weights.
// The multiset of selected indices is unchanged. The shuffle consumes
// additional draws from the Source beyond the single offset draw.
func WithShuffle() Option {
	return func(c *config) {
		c.shuffle = true
	}
}

// Sample selects n indices into weights, each with probability
// proportional to its weight. The population is read only; the result
// is in pointer order (equivalently population order), may contain
// repeats, and never contains an index whose weight is zero.
//
// Exactly one value is drawn from src per call (options excepted), and
// every error is detected before that draw. n == 0 yields an empty
// result with no error.
func Sample(weights []float64, n int, src Source, opts ...Option) ([]int, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if n < 0 {
		return nil, ErrInvalidSampleCount
	}
	if n == 0 {
		return []int{}, nil
	}

	cum, err := cumulativeWeights(weights)
	if err != nil {
		return nil, err
	}

	var out []int
	switch total := cum[len(cum)-1]; {
	case total > 0:
		step := total / float64(n)
		out = selectIndices(cum, n, src.Uniform(step), step)
	case cfg.uniformFallback:
		out = uniformCoverage(len(weights), n, src)
	default:
		return nil, ErrZeroTotalWeight
	}

	if cfg.shuffle {
		shuffle(out, src)
	}
	return out, nil
}

// Select is the item-returning form of Sample for populations kept as
// parallel item and weight slices.
func Select[T any](items []T, weights []float64, n int, src Source, opts ...Option) ([]T, error) {
	if len(items) != len(weights) {
		return nil, ErrLengthMismatch
	}
	idxs, err := Sample(weights, n, src, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(idxs))
	for i, idx := range idxs {
		out[i] = items[idx]
	}
	return out, nil
}

// Indices is the lazy form of Sample. Validation and the single random
// draw happen before it returns, so the sequence is restartable: every
// range over it replays the same n indices in pointer order.
func Indices(weights []float64, n int, src Source) (iter.Seq[int], error) {
	if n < 0 {
		return nil, ErrInvalidSampleCount
	}
	if n == 0 {
		return func(yield func(int) bool) {}, nil
	}

	cum, err := cumulativeWeights(weights)
	if err != nil {
		return nil, err
	}
	total := cum[len(cum)-1]
	if total == 0 {
		return nil, ErrZeroTotalWeight
	}

	step := total / float64(n)
	offset := src.Uniform(step)
	return func(yield func(int) bool) {
		idx := 0
		for k := 0; k < n; k++ {
			p := offset + float64(k)*step
			for idx+1 < len(cum) && cum[idx] <= p {
				idx++
			}
			if !yield(idx) {
				return
			}
		}
	}, nil
}

// cumulativeWeights validates weights and returns their running sums.
// The last entry is the total weight W.
func cumulativeWeights(weights []float64) ([]float64, error) {
	if len(weights) == 0 {
		return nil, ErrEmptyPopulation
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, &InvalidWeightError{Index: i, Weight: w}
		}
	}
	cum := floats.CumSum(make([]float64, len(weights)), weights)
	if math.IsInf(cum[len(cum)-1], 1) {
		return nil, errTotalOverflow
	}
	return cum, nil
}

// selectIndices walks the cumulative sums with n pointers spaced step
// apart, advancing one shared forward cursor. A pointer selects the
// smallest index whose cumulative weight strictly exceeds it, so a
// zero-width interval (a zero weight) can never be selected, even when
// a pointer lands exactly on its boundary.
func selectIndices(cum []float64, n int, offset, step float64) []int {
	out := make([]int, n)
	idx := 0
	for k := range out {
		p := offset + float64(k)*step
		for idx+1 < len(cum) && cum[idx] <= p {
			idx++
		}
		out[k] = idx
	}
	return out
}

// uniformCoverage selects n indices from a population of the given
// size as if all weights were equal: whole round-robin passes first,
// then a uniform without-replacement draw for the remainder.
func uniformCoverage(size, n int, src Source) []int {
	out := make([]int, 0, n)
	for n-len(out) >= size {
		for i := 0; i < size; i++ {
			out = append(out, i)
		}
	}
	if rem := n - len(out); rem > 0 {
		out = append(out, sampleWithoutReplacement(size, rem, src)...)
	}
	return out
}

// sampleWithoutReplacement draws k distinct indices from [0, size)
// with a partial Fisher-Yates pass, k <= size.
func sampleWithoutReplacement(size, k int, src Source) []int {
	idxs := make([]int, size)
	for i := range idxs {
		idxs[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + drawInt(src, size-i)
		idxs[i], idxs[j] = idxs[j], idxs[i]
	}
	return idxs[:k]
}

func shuffle(out []int, src Source) {
	for i := len(out) - 1; i > 0; i-- {
		j := drawInt(src, i+1)
		out[i], out[j] = out[j], out[i]
	}
}

// drawInt maps one Source draw to an integer in [0, n). The clamp
// guards against upper-boundary rounding in the float conversion.
func drawInt(src Source, n int) int {
	v := int(src.Uniform(float64(n)))
	if v >= n {
		v = n - 1
	}
	return v
}
