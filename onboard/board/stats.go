package board

import (
	"math"

	"github.com/CodedInternet/mirrorctl/onboard/adc"
)

const (
	// HomeSpread is the sample spread, in volts, above which an encoder is at its zero crossing.
	HomeSpread = 1.0
	// HomeThreshold splits the two quadrature levels seen while at home.
	HomeThreshold = 1.75
)

type HomeState int

const (
	HomeAway HomeState = iota
	HomeAt
	HomeUndetermined
)

func (h HomeState) String() string {
	switch h {
	case HomeAt:
		return "home"
	case HomeUndetermined:
		return "undetermined"
	}
	return "away"
}

// Stats summarises a capture. Sum and SumSq are in raw codes; when at home they have been
// recomputed over the majority side and rescaled to the full sample count.
type Stats struct {
	N    int
	Used int

	Sum   float64
	SumSq float64
	Min   uint16
	Max   uint16

	Mean   float64
	StdDev float64

	MeanV   float64
	StdDevV float64
	MinV    float64
	MaxV    float64

	Home HomeState
	High bool // majority of samples above HomeThreshold, only meaningful at home
}

func accumulate(samples []uint16, keep func(uint16) bool) (sum, sumsq float64, min, max uint16, k int) {
	min = math.MaxUint16
	for _, s := range samples {
		if !keep(s) {
			continue
		}
		v := float64(s)
		sum += v
		sumsq += v * v
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		k++
	}
	return
}

// rescale brings sums over k samples back to n. It refuses k == 0.
func rescale(sum, sumsq float64, n, k int) (float64, float64, bool) {
	if k == 0 {
		return 0, 0, false
	}
	return sum * float64(n) / float64(k), sumsq * float64(n) / float64(k), true
}

// ComputeStats derives the statistics of a capture, applying homing compensation when the
// spread says the encoder is at home.
func ComputeStats(samples []uint16, fullScale float64) Stats {
	n := len(samples)
	st := Stats{N: n, Used: n}
	if n == 0 {
		return st
	}

	all := func(uint16) bool { return true }
	st.Sum, st.SumSq, st.Min, st.Max, _ = accumulate(samples, all)

	if adc.RawToVoltage(st.Max-st.Min, fullScale) > HomeSpread {
		threshold := adc.VoltageToRaw(HomeThreshold, fullScale)
		above := 0
		for _, s := range samples {
			if s > threshold {
				above++
			}
		}
		st.High = above > n-above

		majority := func(s uint16) bool { return (s > threshold) == st.High }
		sum, sumsq, min, max, k := accumulate(samples, majority)
		if sum, sumsq, ok := rescale(sum, sumsq, n, k); ok {
			st.Home = HomeAt
			st.Used = k
			st.Sum, st.SumSq = sum, sumsq
			st.Min, st.Max = min, max
		} else {
			st.Home = HomeUndetermined
		}
	}

	st.Mean = st.Sum / float64(n)
	st.StdDev = math.Sqrt(math.Max(0, st.SumSq/float64(n)-st.Mean*st.Mean))

	st.MeanV = st.Mean * fullScale / adc.FullCode
	st.StdDevV = st.StdDev * fullScale / adc.FullCode
	st.MinV = adc.RawToVoltage(st.Min, fullScale)
	st.MaxV = adc.RawToVoltage(st.Max, fullScale)
	return st
}
