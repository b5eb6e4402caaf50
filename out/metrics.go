// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/gocarina/gocsv"
)

// MetricsRow is one CSV record of the metrics.csv time series, one row
// per reporting interval (§6 "Console logs report per-interval...").
type MetricsRow struct {
	Iteration  int     `csv:"iteration"`
	Species    string  `csv:"species"`
	Min        float64 `csv:"min"`
	Avg        float64 `csv:"avg"`
	Max        float64 `csv:"max"`
	CATriggers int     `csv:"ca_triggers"`
	ElapsedSec float64 `csv:"elapsed_s"`
}

// MetricsWriter appends Report snapshots to metrics.csv incrementally,
// writing the header only once (grounded on pthm-soup's
// telemetry.OutputManager, which marshals the first record with
// headers via gocsv.Marshal and every subsequent one with
// gocsv.MarshalWithoutHeaders).
type MetricsWriter struct {
	f             *os.File
	headerWritten bool
}

// NewMetricsWriter creates (or truncates) dir/metrics.csv.
func NewMetricsWriter(dir string) *MetricsWriter {
	if err := os.MkdirAll(dir, 0777); err != nil {
		chk.Panic("out: cannot create output directory %q: %v", dir, err)
	}
	f, err := os.Create(filepath.Join(dir, "metrics.csv"))
	if err != nil {
		chk.Panic("out: cannot create metrics.csv: %v", err)
	}
	return &MetricsWriter{f: f}
}

// Write appends one Report's species rows to the CSV.
func (o *MetricsWriter) Write(r Report) {
	rows := make([]MetricsRow, len(r.Species))
	for i, s := range r.Species {
		rows[i] = MetricsRow{
			Iteration: r.Iteration, Species: s.Name,
			Min: s.Min, Avg: s.Avg, Max: s.Max,
			CATriggers: r.CATriggers, ElapsedSec: r.Elapsed.Seconds(),
		}
	}
	var err error
	if !o.headerWritten {
		err = gocsv.Marshal(rows, o.f)
		o.headerWritten = true
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, o.f)
	}
	if err != nil {
		chk.Panic("out: cannot write metrics.csv: %v", err)
	}
}

// Close flushes and closes the underlying file.
func (o *MetricsWriter) Close() error {
	return o.f.Close()
}
