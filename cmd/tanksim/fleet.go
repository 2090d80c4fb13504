package main

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/tankwatch/internal/domain"
)

// Simulated tanks are scattered around this point.
const (
	centerLat = 22.5726
	centerLon = 88.3639
	spreadDeg = 0.05
)

// Level is the distance from the water surface to the tank rim, so a falling
// level means rising water.
const (
	redBelow    = 10.0
	yellowBelow = 20.0
	maxStep     = 1.5
	maxRain     = 60.0
)

type simTank struct {
	id       string
	lat, lon float64
	level    float64
	// withUnit tanks report their level as a string such as "12.4cm".
	withUnit bool
}

// fleet is a deterministic random walk over a fixed set of tanks.
type fleet struct {
	mu    sync.Mutex
	rng   *rand.Rand
	tanks []simTank
	rain  float64
}

func newFleet(n int, seed uint64) *fleet {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	f := &fleet{rng: rng, tanks: make([]simTank, n)}
	for i := range f.tanks {
		f.tanks[i] = simTank{
			id:       fmt.Sprintf("Tank-%d", i+1),
			lat:      centerLat + (rng.Float64()*2-1)*spreadDeg,
			lon:      centerLon + (rng.Float64()*2-1)*spreadDeg,
			level:    5 + rng.Float64()*(domain.TankDepth-5),
			withUnit: i%4 == 3,
		}
	}
	return f
}

// step advances every tank and the rain by one random increment.
func (f *fleet) step() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rain = clamp(f.rain+(f.rng.Float64()*2-1)*5, 0, maxRain)
	// Heavier rain biases the walk toward rising water.
	bias := f.rain / maxRain * maxStep / 2
	for i := range f.tanks {
		delta := (f.rng.Float64()*2-1)*maxStep - bias
		f.tanks[i].level = clamp(f.tanks[i].level+delta, 0, domain.TankDepth)
	}
}

// snapshot renders the current fleet in the /get_tanks wire shape.
func (f *fleet) snapshot() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]any, len(f.tanks)+1)
	for _, t := range f.tanks {
		level := decimal.NewFromFloat(t.level).Round(1)
		var reported any = level.InexactFloat64()
		if t.withUnit {
			reported = level.String() + "cm"
		}
		out[t.id] = map[string]any{
			"level":     reported,
			"status":    statusFor(t.level),
			"latitude":  t.lat,
			"longitude": t.lon,
		}
	}
	out[domain.WeatherKey] = map[string]any{
		"rain": decimal.NewFromFloat(f.rain).Round(1).InexactFloat64(),
	}
	return out
}

func statusFor(level float64) domain.Status {
	switch {
	case level < redBelow:
		return domain.StatusRed
	case level < yellowBelow:
		return domain.StatusYellow
	default:
		return domain.StatusGreen
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
