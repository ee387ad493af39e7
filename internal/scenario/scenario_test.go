package scenario

import "testing"

func TestGetKnownScenario(t *testing.T) {
	def, err := Get("throughput")
	if err != nil {
		t.Fatalf("Get(throughput) error: %v", err)
	}
	if def.TaskCount != 20000 {
		t.Errorf("TaskCount = %d, want 20000", def.TaskCount)
	}
	if !def.Implemented {
		t.Error("throughput should be implemented")
	}
}

func TestGetUnknownScenario(t *testing.T) {
	if _, err := Get("nope"); err == nil {
		t.Fatal("Get(nope) expected error")
	}
}

func TestPlanBuildsUnits(t *testing.T) {
	for _, id := range []string{"throughput", "io-bound", "cpu-bound", "mixed"} {
		def, err := Get(id)
		if err != nil {
			t.Fatalf("Get(%s) error: %v", id, err)
		}
		units, err := def.Plan(1)
		if err != nil {
			t.Fatalf("Plan(%s) error: %v", id, err)
		}
		if len(units) != def.TaskCount {
			t.Errorf("Plan(%s) len = %d, want %d", id, len(units), def.TaskCount)
		}
	}
}

func TestPlanUnimplemented(t *testing.T) {
	def, err := Get("serialization")
	if err != nil {
		t.Fatalf("Get(serialization) error: %v", err)
	}
	if _, err := def.Plan(1); err == nil {
		t.Fatal("Plan on unimplemented scenario expected error")
	}
}

func TestListOrdering(t *testing.T) {
	defs := List()
	if len(defs) != len(registry) {
		t.Fatalf("List() len = %d, want %d", len(defs), len(registry))
	}
	seenUnimplemented := false
	for _, d := range defs {
		if !d.Implemented {
			seenUnimplemented = true
		} else if seenUnimplemented {
			t.Fatal("implemented scenario listed after unimplemented one")
		}
	}
}

func TestImplementedSubset(t *testing.T) {
	for _, d := range Implemented() {
		if !d.Implemented {
			t.Fatalf("Implemented() returned %s which is not runnable", d.ID)
		}
	}
}
