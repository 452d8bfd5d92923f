package call

import "testing"

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	if r.Len() != 0 {
		t.Fatalf("new registry has %d calls", r.Len())
	}
	if _, ok := r.Get("CA1"); ok {
		t.Fatal("Get on empty registry returned a call")
	}

	r.Add(&Active{Session: NewSession("CA1", "MS1", Inbound)})
	r.Add(&Active{Session: NewSession("CA2", "MS2", Outbound)})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	a, ok := r.Get("CA2")
	if !ok || a.Session.Direction != Outbound {
		t.Fatalf("Get(CA2) = %+v, %v", a, ok)
	}
	if got := len(r.All()); got != 2 {
		t.Fatalf("All() returned %d calls", got)
	}

	r.Remove("CA1")
	if _, ok := r.Get("CA1"); ok {
		t.Fatal("removed call still present")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", r.Len())
	}
}
