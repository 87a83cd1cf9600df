package compton

import (
	sim "github.com/goupil-project/goupil/sim"
)

func init() {
	sim.RegisterComptonModel(sim.KleinNishina,
		func(ctx sim.ModelContext) (sim.ComptonModel, error) {
			return newKleinNishina(ctx, ctx.ComptonMethod)
		},
		adjointBuilder(false))
	sim.RegisterComptonModel(sim.ScatteringFunction,
		func(ctx sim.ModelContext) (sim.ComptonModel, error) {
			return newScatteringFunction(ctx, ctx.ComptonMethod)
		},
		adjointBuilder(false))
	sim.RegisterComptonModel(sim.Penelope,
		func(ctx sim.ModelContext) (sim.ComptonModel, error) {
			return newPenelope(ctx, ctx.ComptonMethod)
		},
		// No closed-form adjoint profile: the inverse-transform request
		// falls back to the weighted rejection sampler.
		adjointBuilder(true))
}

func adjointBuilder(rejectionOnly bool) sim.ComptonAdjointBuilder {
	return func(forward sim.ComptonModel, ctx sim.ModelContext, method sim.ComptonSamplingMethod) (sim.AdjointComptonModel, error) {
		if method == sim.InverseTransform && !rejectionOnly {
			return newAdjointInverse(forward, ctx)
		}
		return newAdjointRejection(forward, ctx), nil
	}
}
