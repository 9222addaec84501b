package simulation

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"riskmc/internal/risk"
)

// repairLimit caps how far a nearest-PSD repair may move any coefficient
// before the matrix is rejected as unusable.
const repairLimit = 0.2

// psdFloor is the eigenvalue floor used when repairing a non-PSD matrix.
const psdFloor = 1e-8

// Correlator turns independent standard-normal draws into correlated uniform
// draws via the Cholesky factor of the risk correlation matrix (Gaussian
// copula). Decomposition happens once per simulation run; per iteration the
// transform is a triangular matrix-vector product plus a CDF evaluation.
type Correlator struct {
	n        int
	identity bool
	lower    *mat.TriDense

	// Warnings records any nearest-PSD repair applied, including the largest
	// coefficient adjustment, so callers know statistical fidelity changed.
	Warnings []string

	// MaxAdjustment is the largest absolute coefficient change a repair
	// introduced (0 when no repair was needed).
	MaxAdjustment float64
}

// NewCorrelator assembles the full correlation matrix from the declared
// entries (identity elsewhere) and factorizes it. A matrix that is not
// positive semi-definite is first repaired by eigenvalue clipping; a repair
// larger than repairLimit is a fatal error raised here, before any iteration
// runs.
func NewCorrelator(risks []risk.Risk, entries []risk.CorrelationEntry) (*Correlator, error) {
	n := len(risks)
	c := &Correlator{n: n}

	if len(entries) == 0 {
		c.identity = true
		return c, nil
	}

	index := make(map[string]int, n)
	for i, r := range risks {
		index[r.ID] = i
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	for _, e := range entries {
		a, okA := index[e.RiskA]
		b, okB := index[e.RiskB]
		if !okA || !okB {
			return nil, fmt.Errorf("correlation entry references unknown risk (%s, %s)", e.RiskA, e.RiskB)
		}
		data[a*n+b] = e.Coefficient
		data[b*n+a] = e.Coefficient
	}

	sym := mat.NewSymDense(n, data)

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		repaired, maxAdj, err := nearestPSD(sym)
		if err != nil {
			return nil, err
		}
		if maxAdj > repairLimit {
			return nil, fmt.Errorf("correlation matrix is not positive semi-definite and cannot be repaired within tolerance (max adjustment %.3f exceeds %.3f)", maxAdj, repairLimit)
		}
		if !chol.Factorize(repaired) {
			return nil, fmt.Errorf("correlation matrix could not be factorized even after nearest-PSD repair")
		}
		c.MaxAdjustment = maxAdj
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"correlation matrix was not positive semi-definite; nearest-PSD repair applied (max coefficient adjustment %.4f)", maxAdj))
	}

	lower := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(lower)
	c.lower = lower

	return c, nil
}

// CorrelatedUniforms fills dst with n correlated uniforms for one iteration,
// consuming exactly n standard-normal draws from rng. The identity fast path
// uses the same draw sequence so that adding or removing correlation entries
// never reorders the RNG stream of other risks.
func (c *Correlator) CorrelatedUniforms(rng *rand.Rand, dst []float64) {
	std := distuv.UnitNormal

	if c.identity {
		for i := 0; i < c.n; i++ {
			dst[i] = std.CDF(rng.NormFloat64())
		}
		return
	}

	z := make([]float64, c.n)
	for i := range z {
		z[i] = rng.NormFloat64()
	}

	// y = L z, then map through the standard-normal CDF. Rows of the Cholesky
	// factor of a correlation matrix have unit norm, so each y_i is standard
	// normal and the marginals stay uniform.
	for i := 0; i < c.n; i++ {
		y := 0.0
		for j := 0; j <= i; j++ {
			y += c.lower.At(i, j) * z[j]
		}
		dst[i] = std.CDF(y)
	}
}

// nearestPSD clips negative eigenvalues to a small positive floor and
// rescales the result back to unit diagonal. Returns the repaired matrix and
// the largest absolute coefficient change.
func nearestPSD(sym *mat.SymDense) (*mat.SymDense, float64, error) {
	n := sym.SymmetricDim()

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return nil, 0, fmt.Errorf("eigendecomposition of correlation matrix failed")
	}

	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	for i := range vals {
		if vals[i] < psdFloor {
			vals[i] = psdFloor
		}
	}

	// Reconstruct V diag(vals) V^T.
	raw := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += vecs.At(i, k) * vals[k] * vecs.At(j, k)
			}
			raw[i*n+j] = sum
			raw[j*n+i] = sum
		}
	}

	// Rescale to unit diagonal so the result is a correlation matrix again.
	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		scale[i] = math.Sqrt(raw[i*n+i])
	}

	maxAdj := 0.0
	repaired := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := raw[i*n+j] / (scale[i] * scale[j])
			repaired[i*n+j] = v
			if adj := math.Abs(v - sym.At(i, j)); adj > maxAdj {
				maxAdj = adj
			}
		}
	}

	return mat.NewSymDense(n, repaired), maxAdj, nil
}
