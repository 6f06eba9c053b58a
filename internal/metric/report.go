// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metric

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jszwec/csvutil"
)

// Summary aggregates payload sizes and encode times of a run.
type Summary struct {
	Frames        int
	PayloadTotal  float64
	PayloadMean   float64
	PayloadStdDev float64
	PayloadMin    float64
	PayloadMax    float64
	EncodeMean    time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"frames=%d payload total=%.0fB mean=%.1fB stdev=%.1fB min=%.0fB max=%.0fB encode mean=%s",
		s.Frames, s.PayloadTotal, s.PayloadMean, s.PayloadStdDev, s.PayloadMin, s.PayloadMax, s.EncodeMean,
	)
}

// Accumulator computes Summary in constant memory, one frame at a time.
type Accumulator struct {
	n int
	// Running mean and sum of squared deviations of payload size.
	mean, m2   float64
	total      float64
	min, max   float64
	encodeTime time.Duration
}

// Add accounts a frame with given payload size and encode time.
func (a *Accumulator) Add(payload int, encode time.Duration) {
	v := float64(payload)
	a.n++
	if a.n == 1 || v < a.min {
		a.min = v
	}
	if a.n == 1 || v > a.max {
		a.max = v
	}
	a.total += v
	d := v - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (v - a.mean)
	a.encodeTime += encode
}

// Summary returns statistics of frames added so far. No frames give zero
// Summary.
func (a *Accumulator) Summary() Summary {
	if a.n == 0 {
		return Summary{}
	}
	sum := Summary{
		Frames:       a.n,
		PayloadTotal: a.total,
		PayloadMean:  a.mean,
		PayloadMin:   a.min,
		PayloadMax:   a.max,
		EncodeMean:   a.encodeTime / time.Duration(a.n),
	}
	// Sample deviation is undefined for single observation.
	if a.n > 1 {
		sum.PayloadStdDev = math.Sqrt(a.m2 / float64(a.n-1))
	}
	return sum
}

// WriteCSV writes header and one row per record in insertion order.
func (s *Store) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(Record{}); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range s.Records() {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("csv record %s: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
