// Copyright 2026 The gVisor Authors.
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

// Package metric provides primitives for collecting metrics.
package metric

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/comeintostout/pintos/pkg/prometheus"
)

var (
	// ErrNameInUse indicates that another metric is already defined for
	// the given name.
	ErrNameInUse = errors.New("metric name already in use")

	// ErrFieldHasNoAllowedValues indicates that the field needs to define some
	// allowed values to be a valid and useful field.
	ErrFieldHasNoAllowedValues = errors.New("metric field does not define any allowed values")

	// ErrTooManyFieldCombinations indicates that the number of all possible
	// field combinations is too large to be tracked.
	ErrTooManyFieldCombinations = errors.New("metric has too many combinations of allowed field values")
)

// ExporterPrefix is prepended to every metric name on export.
const ExporterPrefix = "pintos_"

// Field contains the field name and allowed values for the metric which is
// used in registration of the metric.
type Field struct {
	// name is the metric field name.
	name string

	// allowedValues is the list of allowed values for the field.
	allowedValues []string
}

// NewField defines a new Field that can be used to break down a metric.
func NewField(name string, allowedValues []string) Field {
	return Field{
		name:          name,
		allowedValues: allowedValues,
	}
}

// fieldMapper maps multi-dimensional field values to a single integer key.
type fieldMapper struct {
	fields []Field

	// numFieldCombinations is the number of unique keys for all possible field
	// combinations.
	numFieldCombinations int
}

func newFieldMapper(fields ...Field) (fieldMapper, error) {
	numFieldCombinations := 1
	for _, f := range fields {
		// Disallow fields with no possible values. Passing in a
		// no-allowed-values field is probably a mistake.
		if len(f.allowedValues) == 0 {
			return fieldMapper{}, ErrFieldHasNoAllowedValues
		}
		numFieldCombinations *= len(f.allowedValues)
		if numFieldCombinations > math.MaxUint32 {
			return fieldMapper{}, ErrTooManyFieldCombinations
		}
	}
	return fieldMapper{
		fields:               fields,
		numFieldCombinations: numFieldCombinations,
	}, nil
}

// lookup returns the key for the given field values.
// This *must* be called with the correct number of fields, or it will panic.
func (m fieldMapper) lookup(fields ...string) int {
	if len(fields) != len(m.fields) {
		panic("invalid field lookup depth")
	}
	idx := 0
	remaining := m.numFieldCombinations
IdxLookup:
	for i, val := range fields {
		for valIdx, allowedVal := range m.fields[i].allowedValues {
			if val == allowedVal {
				remaining /= len(m.fields[i].allowedValues)
				idx += remaining * valIdx
				continue IdxLookup
			}
		}
		panic(fmt.Sprintf("disallowed value %q for field %q", val, m.fields[i].name))
	}
	return idx
}

// keyToMultiField is the inverse of lookup: it returns the field values for
// the given key, keyed by field name.
func (m fieldMapper) keyToMultiField(key int) map[string]string {
	if len(m.fields) == 0 {
		return nil
	}
	labels := make(map[string]string, len(m.fields))
	remaining := m.numFieldCombinations
	for _, f := range m.fields {
		remaining /= len(f.allowedValues)
		labels[f.name] = f.allowedValues[key/remaining]
		key %= remaining
	}
	return labels
}

// Uint64Metric encapsulates a uint64 that represents some kind of metric to be
// monitored.
type Uint64Metric struct {
	metadata prometheus.Metric

	// fields is the map of field-value combination index keys to counters.
	fields []atomic.Uint64

	fieldMapper fieldMapper
}

// metricSet holds every registered metric, in registration order.
type metricSet struct {
	mu      sync.Mutex
	byName  map[string]*Uint64Metric
	ordered []*Uint64Metric
}

// allMetrics are the registered metrics.
var allMetrics = metricSet{byName: make(map[string]*Uint64Metric)}

// NewUint64Metric creates and registers a new cumulative metric with the
// given name.
//
// Metrics must be statically defined (i.e., at init).
func NewUint64Metric(name, description string, fields ...Field) (*Uint64Metric, error) {
	f, err := newFieldMapper(fields...)
	if err != nil {
		return nil, err
	}
	allMetrics.mu.Lock()
	defer allMetrics.mu.Unlock()
	if _, ok := allMetrics.byName[name]; ok {
		return nil, ErrNameInUse
	}
	m := &Uint64Metric{
		metadata: prometheus.Metric{
			Name: name,
			Type: prometheus.TypeCounter,
			Help: description,
		},
		fields:      make([]atomic.Uint64, f.numFieldCombinations),
		fieldMapper: f,
	}
	allMetrics.byName[name] = m
	allMetrics.ordered = append(allMetrics.ordered, m)
	return m, nil
}

// MustCreateNewUint64Metric calls NewUint64Metric and panics if it returns
// an error.
func MustCreateNewUint64Metric(name, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Metric(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("Unable to create metric %q: %s", name, err))
	}
	return m
}

// Value returns the current value of the metric for the given set of fields.
// This must be called with the correct number of field values or it will panic.
func (m *Uint64Metric) Value(fieldValues ...string) uint64 {
	return m.fields[m.fieldMapper.lookup(fieldValues...)].Load()
}

// Increment increments the metric field by 1.
// This must be called with the correct number of field values or it will panic.
func (m *Uint64Metric) Increment(fieldValues ...string) {
	m.IncrementBy(1, fieldValues...)
}

// IncrementBy increments the metric by v.
// This must be called with the correct number of field values or it will panic.
func (m *Uint64Metric) IncrementBy(v uint64, fieldValues ...string) {
	m.fields[m.fieldMapper.lookup(fieldValues...)].Add(v)
}

// GetSnapshot returns a snapshot of all registered metrics. Fielded metrics
// report every field combination, zero or not.
func GetSnapshot() *prometheus.Snapshot {
	allMetrics.mu.Lock()
	defer allMetrics.mu.Unlock()
	s := prometheus.NewSnapshot()
	for _, m := range allMetrics.ordered {
		for key := range m.fields {
			s.Add(prometheus.LabeledData(&m.metadata, m.fieldMapper.keyToMultiField(key), m.fields[key].Load()))
		}
	}
	return s
}

// WritePrometheus writes all registered metrics to w in Prometheus text
// exposition format.
func WritePrometheus(w io.Writer) error {
	_, err := prometheus.Write(w, prometheus.ExportOptions{ExporterPrefix: ExporterPrefix}, GetSnapshot())
	return err
}

// Names returns the sorted names of all registered metrics.
func Names() []string {
	allMetrics.mu.Lock()
	defer allMetrics.mu.Unlock()
	names := make([]string, 0, len(allMetrics.ordered))
	for _, m := range allMetrics.ordered {
		names = append(names, m.metadata.Name)
	}
	sort.Strings(names)
	return names
}
