package call

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	}
}

func TestGreeterSubstitutesName(t *testing.T) {
	g := NewGreeter("Riley", rand.New(rand.NewSource(1)), fixedClock(10))

	for i := 0; i < 20; i++ {
		line := g.Line()
		if !strings.Contains(line, "Riley") {
			t.Fatalf("greeting %q missing agent name", line)
		}
		if strings.Contains(line, "{name}") {
			t.Fatalf("greeting %q has unexpanded placeholder", line)
		}
	}
}

func TestGreeterVariesLines(t *testing.T) {
	g := NewGreeter("Riley", rand.New(rand.NewSource(7)), fixedClock(10))

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		seen[g.Line()] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied greetings, got %d distinct", len(seen))
	}
}

func TestGreeterTimeOfDayPools(t *testing.T) {
	cases := []struct {
		hour int
		want []string
	}{
		{8, greetMorning},
		{14, greetAfternoon},
		{18, greetEvening},
		{2, greetNight},
		{23, greetNight},
	}
	for _, tc := range cases {
		got := poolForHour(tc.hour)
		if len(got) != len(tc.want) || got[0] != tc.want[0] {
			t.Errorf("poolForHour(%d) picked wrong pool, got %q", tc.hour, got[0])
		}
	}
}

func TestGreeterOutboundLine(t *testing.T) {
	g := NewGreeter("Riley", rand.New(rand.NewSource(1)), fixedClock(10))

	line := g.OutboundLine("your package needs a signature")
	if !strings.Contains(line, "I'm calling because your package needs a signature") {
		t.Fatalf("outbound line missing call reason: %q", line)
	}
	if !strings.Contains(line, "Riley") {
		t.Fatalf("outbound line missing agent name: %q", line)
	}
}
