package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/buildorder/pkg/bundle"
	"github.com/matzehuels/buildorder/pkg/order"
)

// OrderReport is the serialized form of a build order.
type OrderReport struct {
	Roots  []string   `json:"roots"`
	Order  []string   `json:"order"`
	Cycles [][]string `json:"cycles,omitempty"`
	Kinds  []string   `json:"kinds,omitempty"`
}

// NewOrderReport converts an order result.
func NewOrderReport(r *order.Result, opts order.Options) OrderReport {
	opts = opts.WithDefaults()
	return OrderReport{
		Roots:  nonNil(r.Roots),
		Order:  nonNil(r.Order),
		Cycles: r.Cycles,
		Kinds:  opts.Kinds.Strings(),
	}
}

// Result converts the report back into an order result.
func (r OrderReport) Result() *order.Result {
	return &order.Result{Roots: r.Roots, Order: r.Order, Cycles: r.Cycles}
}

// ClasspathEntry is one bundle of a classpath.
type ClasspathEntry struct {
	Bundle    string   `json:"bundle"`
	Project   string   `json:"project,omitempty"`
	Locations []string `json:"locations"`
	Fragments []string `json:"fragments,omitempty"`
}

// ClasspathReport is the serialized form of a bundle classpath.
type ClasspathReport struct {
	Root      string           `json:"root"`
	Entries   []ClasspathEntry `json:"entries"`
	Projects  []string         `json:"projects,omitempty"`
	Locations []string         `json:"locations"`
}

// NewClasspathReport converts a resolved classpath.
func NewClasspathReport(cp *bundle.Classpath) ClasspathReport {
	r := ClasspathReport{
		Root:      cp.Root.String(),
		Entries:   make([]ClasspathEntry, 0, len(cp.Entries)),
		Projects:  cp.Projects,
		Locations: nonNil(cp.Locations()),
	}
	for _, e := range cp.Entries {
		ce := ClasspathEntry{
			Bundle:    e.Bundle.String(),
			Project:   e.Project,
			Locations: nonNil(e.Locations),
		}
		for _, f := range e.Fragments {
			ce.Fragments = append(ce.Fragments, f.String())
		}
		r.Entries = append(r.Entries, ce)
	}
	return r
}

// Encode writes v as indented JSON.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
