// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package preference

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Weights maps names to non-negative affinity scores and remembers the
// order in which names were first added. The zero value is empty and ready to use.
type Weights struct {
	keys   []string
	values map[string]float64
}

// NewWeights builds Weights from pairs in the given order.
func NewWeights(names []string, values []float64) Weights {
	var w Weights
	for i, name := range names {
		w.set(name, values[i])
	}
	return w
}

// Len returns the number of names.
func (w Weights) Len() int { return len(w.keys) }

// Get returns the weight for name, 0 if absent.
func (w Weights) Get(name string) float64 { return w.values[name] }

// Has reports whether name has a weight.
func (w Weights) Has(name string) bool {
	_, ok := w.values[name]
	return ok
}

// Keys returns names in insertion order.
func (w Weights) Keys() []string {
	return append([]string(nil), w.keys...)
}

// Map returns a copy of the weights as a plain map.
func (w Weights) Map() map[string]float64 {
	m := make(map[string]float64, len(w.values))
	for k, v := range w.values {
		m[k] = v
	}
	return m
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	c := Weights{keys: append([]string(nil), w.keys...)}
	if w.values != nil {
		c.values = w.Map()
	}
	return c
}

// Ranked returns names by descending weight; equal weights keep insertion order.
func (w Weights) Ranked() []string {
	ranked := w.Keys()
	sort.SliceStable(ranked, func(i, j int) bool {
		return w.values[ranked[i]] > w.values[ranked[j]]
	})
	return ranked
}

func (w *Weights) set(name string, value float64) {
	if w.values == nil {
		w.values = make(map[string]float64)
	}
	if _, ok := w.values[name]; !ok {
		w.keys = append(w.keys, name)
	}
	w.values[name] = value
}

func (w *Weights) add(name string, delta float64) {
	w.set(name, w.values[name]+delta)
}

// MarshalJSON writes a JSON object with keys in insertion order.
func (w Weights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range w.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(w.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its key order.
func (w *Weights) UnmarshalJSON(data []byte) error {
	*w = Weights{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := stdjson.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(stdjson.Delim); !ok || delim != '{' {
		return fmt.Errorf("weights: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("weights: expected key, got %v", tok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("weights: value for %q: %w", name, err)
		}
		if value < 0 {
			return fmt.Errorf("weights: negative weight %v for %q", value, name)
		}
		w.set(name, value)
	}

	_, err = dec.Token()
	return err
}
