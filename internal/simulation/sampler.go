package simulation

import (
	"gonum.org/v1/gonum/stat/distuv"

	"riskmc/internal/risk"
)

// quantileEps keeps inverse-CDF evaluation away from the open-interval
// endpoints, where normal and lognormal quantiles diverge.
const quantileEps = 1e-12

// Sampler maps a uniform draw in (0,1) onto a realized value of one risk's
// distribution via the inverse CDF. Construction validates nothing beyond
// wiring the quantile function: parameter consistency is enforced once at
// request validation time, so the sampling hot loop never re-checks.
//
// Sampling is a pure function of the draw, which lets the correlation engine
// control the inputs and keeps runs bit-reproducible.
type Sampler struct {
	dist     risk.DistributionType
	quantile func(p float64) float64
}

// NewSampler builds the inverse-CDF sampler for a risk's distribution.
// An unsupported distribution type is a configuration error.
func NewSampler(dist risk.DistributionType, p risk.DistributionParams) (*Sampler, error) {
	s := &Sampler{dist: dist}

	switch dist {
	case risk.DistNormal:
		d := distuv.Normal{Mu: p.Mean, Sigma: p.StdDev}
		s.quantile = d.Quantile
	case risk.DistTriangular:
		d := distuv.NewTriangle(p.Min, p.Max, p.Mode, nil)
		s.quantile = d.Quantile
	case risk.DistUniform:
		d := distuv.Uniform{Min: p.Min, Max: p.Max}
		s.quantile = d.Quantile
	case risk.DistBeta:
		d := distuv.Beta{Alpha: p.Alpha, Beta: p.Beta}
		scale := p.Scale
		s.quantile = func(u float64) float64 { return scale * d.Quantile(u) }
	case risk.DistLognormal:
		d := distuv.LogNormal{Mu: p.Mu, Sigma: p.Sigma}
		s.quantile = d.Quantile
	default:
		return nil, &ConfigurationError{
			Field:   "distribution_type",
			Message: "unsupported distribution type " + string(dist),
		}
	}

	return s, nil
}

// Sample realizes the distribution for one uniform draw.
func (s *Sampler) Sample(u float64) float64 {
	if u < quantileEps {
		u = quantileEps
	} else if u > 1-quantileEps {
		u = 1 - quantileEps
	}
	return s.quantile(u)
}

// Distribution returns the sampled distribution's type.
func (s *Sampler) Distribution() risk.DistributionType {
	return s.dist
}
