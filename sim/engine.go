package sim

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// TransportEngine binds a geometry, a material registry, and frozen
// settings into a runnable kernel. The engine holds non-owning references:
// geometry and registry outlive it and may be shared with other engines.
type TransportEngine struct {
	geometry Definition
	registry *MaterialRegistry
	settings TransportSettings
}

// NewTransportEngine validates the settings against the geometry, compiles
// the registry's tables for them, and returns a ready engine.
func NewTransportEngine(geometry Definition, registry *MaterialRegistry, settings TransportSettings) (*TransportEngine, error) {
	if geometry == nil || geometry.SectorsLen() == 0 {
		return nil, newConfigError("new engine", fmt.Errorf("geometry has no sectors"))
	}
	if settings.HasBoundary && (settings.Boundary < 0 || settings.Boundary >= geometry.SectorsLen()) {
		return nil, newConfigError("new engine", fmt.Errorf("boundary sector %d out of range [0, %d)", settings.Boundary, geometry.SectorsLen()))
	}
	for i := 0; i < geometry.SectorsLen(); i++ {
		sec := geometry.GetSector(i)
		if sec.MaterialIndex < 0 || sec.MaterialIndex >= registry.Len() {
			return nil, newConfigError("new engine", fmt.Errorf("sector %d references material %d of %d", i, sec.MaterialIndex, registry.Len()))
		}
		if sec.Density == nil {
			return nil, newConfigError("new engine", fmt.Errorf("sector %d has no density model", i))
		}
	}
	if err := registry.Compute(settings); err != nil {
		return nil, err
	}
	return &TransportEngine{geometry: geometry, registry: registry, settings: settings}, nil
}

// Settings returns the engine's frozen configuration.
func (e *TransportEngine) Settings() TransportSettings { return e.settings }

// Transport runs every photon state in the batch to termination, mutating
// states in place and writing each state's terminal code into statuses.
// The batch is partitioned into contiguous slices across workers; each
// worker owns one tracer and derives one RNG substream per state from
// (seed, state index), so results are independent of the worker count;
// moving a state to another position in the batch changes its substream,
// so results are not invariant under reordering the batch. A fatal error stops all workers at their next state
// boundary; statuses left at StatusLive mark states the aborted batch
// never finished.
func (e *TransportEngine) Transport(states []PhotonState, statuses []Status, seed Seed) error {
	if len(states) != len(statuses) {
		return newConfigError("transport", fmt.Errorf("states (%d) and statuses (%d) length mismatch", len(states), len(statuses)))
	}
	if len(states) == 0 {
		return nil
	}
	mode := e.settings.Mode
	if mode == Both {
		return newConfigError("transport", fmt.Errorf("mode %q compiles both table sets but a batch must run forward or backward; set Mode explicitly before Transport", mode))
	}
	for i := range statuses {
		statuses[i] = StatusLive
	}

	workers := e.settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(states) {
		workers = len(states)
	}
	records := e.registry.Records()

	var (
		wg       sync.WaitGroup
		stop     atomic.Bool
		firstErr atomic.Pointer[KernelError]
	)
	chunk := (len(states) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(states) {
			hi = len(states)
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			k := &kernel{
				settings: &e.settings,
				geometry: e.geometry,
				records:  records,
				tracer:   e.geometry.NewTracer(),
				walkSign: 1,
			}
			if mode == Backward {
				k.walkSign = -1
				k.sampler = backwardSampler{}
			} else {
				k.sampler = forwardSampler{discreteAbsorption: e.settings.Absorption == Discrete}
			}
			for i := lo; i < hi; i++ {
				if stop.Load() {
					return
				}
				k.rng = Substream(seed, uint64(i))
				status, err := k.run(&states[i])
				if err != nil {
					var ke *KernelError
					if kerr, ok := err.(*KernelError); ok {
						ke = kerr
					} else {
						ke = &KernelError{Kind: ErrNumerical, Op: "transport", Err: err}
					}
					if firstErr.CompareAndSwap(nil, ke) {
						stop.Store(true)
					}
					return
				}
				statuses[i] = status
			}
		}(lo, hi)
	}
	wg.Wait()

	if ke := firstErr.Load(); ke != nil {
		logrus.Errorf("transport batch aborted: %v", ke)
		return ke
	}
	return nil
}

// StatusCounts tallies a status array into a histogram keyed by Status
// value.
func StatusCounts(statuses []Status) map[Status]int {
	counts := make(map[Status]int)
	for _, s := range statuses {
		counts[s]++
	}
	return counts
}
