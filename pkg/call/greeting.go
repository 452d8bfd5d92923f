package call

import (
	"math/rand"
	"strings"
	"time"
)

// Greeting pools. {name} is replaced with the configured agent name.
var (
	greetAnytime = []string{
		"Hey, it's {name}",
		"Hi there, {name} here",
		"Hello, this is {name}",
		"{name} here, what's up?",
	}
	greetMorning = []string{
		"Good morning, {name} here",
		"Morning! It's {name}",
	}
	greetAfternoon = []string{
		"Good afternoon, it's {name}",
		"Hey, good afternoon, {name} here",
	}
	greetEvening = []string{
		"Good evening, this is {name}",
		"Evening! {name} here",
	}
	greetNight = []string{
		"Hey, it's late, but {name}'s here",
		"{name} here, burning the midnight oil?",
	}
)

// Greeter selects opening lines. The random source and clock are injected
// so selection is deterministic in tests.
type Greeter struct {
	name string
	rng  *rand.Rand
	now  func() time.Time
}

// NewGreeter creates a greeter for the given agent name.
func NewGreeter(name string, rng *rand.Rand, now func() time.Time) *Greeter {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Greeter{name: name, rng: rng, now: now}
}

// Line picks a greeting appropriate to the time of day.
func (g *Greeter) Line() string {
	pool := append([]string{}, greetAnytime...)
	pool = append(pool, poolForHour(g.now().Hour())...)

	template := pool[g.rng.Intn(len(pool))]
	return strings.ReplaceAll(template, "{name}", g.name)
}

// OutboundLine builds the opening line for an outbound call, stating the
// reason the call is happening.
func (g *Greeter) OutboundLine(reason string) string {
	return g.Line() + ". I'm calling because " + reason
}

func poolForHour(hour int) []string {
	switch {
	case hour >= 5 && hour <= 11:
		return greetMorning
	case hour >= 12 && hour <= 16:
		return greetAfternoon
	case hour >= 17 && hour <= 20:
		return greetEvening
	default:
		return greetNight
	}
}
