package cron

import (
	"context"
	"testing"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry := NewRegistry()
	if !registry.Register(namedJob("auto_sync")) || !registry.Register(namedJob("bundle_exclusivity")) {
		t.Fatal("expected both jobs to register")
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0].Name() != "auto_sync" || jobs[1].Name() != "bundle_exclusivity" {
		t.Fatalf("unexpected jobs %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("Jobs must return a copy")
	}
}

func TestRegistryRejectsNilAndDuplicates(t *testing.T) {
	registry := NewRegistry(namedJob("auto_sync"), nil, namedJob("auto_sync"), namedJob("bundle_exclusivity"))
	names := registry.Names()
	if len(names) != 2 || names[0] != "auto_sync" || names[1] != "bundle_exclusivity" {
		t.Fatalf("unexpected names %v", names)
	}
	if registry.Register(nil) {
		t.Fatal("nil job must be rejected")
	}

	var zero Registry
	if !zero.Register(namedJob("auto_sync")) {
		t.Fatal("zero registry should accept jobs")
	}
}
