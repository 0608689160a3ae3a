package integrators_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/integrators"
	"github.com/san-kum/orbsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Equal unit masses one unit apart, G = 1: each body circles the origin at
// radius 0.5 with angular rate sqrt(2).
func circularBinary() (dynamo.State, []float64) {
	v := math.Sqrt(0.5)
	return dynamo.State{
		0, -v, 0, 0, v, 0,
		-0.5, 0, 0, 0.5, 0, 0,
	}, []float64{1, 1}
}

var _ = Describe("Fehlberg", func() {
	var (
		y0     dynamo.State
		masses []float64
	)

	BeforeEach(func() {
		y0, masses = circularBinary()
	})

	Describe("the reference binary scenario", func() {
		var res *dynamo.Result

		BeforeEach(func() {
			var err error
			res, err = integrators.Integrate(y0, masses, 0, 1, 0.01, 1, 1e-8, 4, 0.1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns parallel time and state series", func() {
			Expect(res.Times).To(HaveLen(len(res.States)))
			Expect(res.Times).NotTo(BeEmpty())
			Expect(res.Times[0]).To(Equal(0.0))
			Expect(res.States[0]).To(Equal(y0))
		})

		It("records non-decreasing times within the span", func() {
			for i := 1; i < len(res.Times); i++ {
				Expect(res.Times[i]).To(BeNumerically(">=", res.Times[i-1]))
			}
			last, _ := res.Final()
			Expect(last).To(BeNumerically("<=", 1.0))
		})

		It("keeps every state finite", func() {
			for _, s := range res.States {
				Expect(s).To(HaveLen(len(y0)))
				Expect(s.IsValid()).To(BeTrue())
			}
		})

		It("records one point per accepted step", func() {
			Expect(res.Stats.Accepted).To(Equal(len(res.Times)))
			Expect(res.Stats.Evaluations).To(Equal(6 * res.Stats.Iterations))
		})

		It("does not alias the caller's initial state", func() {
			res.States[0][0] = 42
			Expect(y0[0]).To(Equal(0.0))
		})
	})

	Describe("a zero-length interval", func() {
		It("records exactly the initial point", func() {
			res, err := integrators.Integrate(y0, masses, 0.3, 0.3, 0.01, 1, 1e-8, 4, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Times).To(Equal([]float64{0.3}))
			Expect(res.States).To(HaveLen(1))
			Expect(res.States[0]).To(Equal(y0))
		})
	})

	Describe("step-size control", func() {
		DescribeTable("keeps h within the fractions of the initial step",
			func(h0, tol, upper, lower float64) {
				var steps []float64
				integ := integrators.NewFehlberg().WithObserver(func(_, _, next float64, _ bool) {
					steps = append(steps, next)
				})
				ff, err := physics.NewForceField(masses, 1)
				Expect(err).NotTo(HaveOccurred())

				cfg := dynamo.Config{T0: 0, TEnd: 2, Step: h0, Tolerance: tol, UpperBound: upper, LowerBound: lower}
				res, err := integ.Integrate(context.Background(), ff, y0, cfg)
				Expect(err).NotTo(HaveOccurred())

				Expect(steps).To(HaveLen(res.Stats.Iterations))
				for _, h := range steps {
					Expect(h).To(BeNumerically(">=", lower*h0))
					Expect(h).To(BeNumerically("<=", upper*h0))
				}
				Expect(res.Stats.MinStep).To(BeNumerically(">=", lower*h0))
				Expect(res.Stats.MaxStep).To(BeNumerically("<=", upper*h0))
			},
			Entry("loose tolerance hits the ceiling", 0.01, 1e-6, 4.0, 0.1),
			Entry("tight tolerance", 0.05, 1e-13, 2.0, 0.05),
			Entry("pinned step", 0.02, 1e-8, 1.0, 1.0),
		)
	})

	Describe("one full circular period", func() {
		period := math.Pi * math.Sqrt2
		omega := math.Sqrt2

		DescribeTable("tracks the analytic orbit and returns to the start", func(restore bool) {
			ff, err := physics.NewForceField(masses, 1)
			Expect(err).NotTo(HaveOccurred())

			cfg := dynamo.Config{
				T0: 0, TEnd: period, Step: 0.01, Tolerance: 1e-8,
				UpperBound: 4, LowerBound: 0.1, RestoreOnReject: restore,
			}
			res, err := integrators.NewFehlberg().Integrate(context.Background(), ff, y0, cfg)
			Expect(err).NotTo(HaveOccurred())

			for i, tm := range res.Times {
				want := r3.Vec{X: 0.5 * math.Cos(omega*tm), Y: 0.5 * math.Sin(omega*tm)}
				got := physics.Position(res.States[i], 1)
				Expect(r3.Norm(r3.Sub(got, want))).To(BeNumerically("<", 1e-5), "t=%g", tm)
			}

			tf, last := res.Final()
			Expect(period - tf).To(BeNumerically(">=", 0))
			Expect(period - tf).To(BeNumerically("<", 4*0.01))

			// Remaining arc length plus accumulated error.
			slack := omega*0.5*(period-tf) + 1e-5
			for b := 0; b < 2; b++ {
				d := r3.Norm(r3.Sub(physics.Position(last, b), physics.Position(y0, b)))
				Expect(d).To(BeNumerically("<=", slack))
			}

			e0 := ff.Energy(y0)
			Expect(math.Abs(ff.Energy(last)-e0) / math.Abs(e0)).To(BeNumerically("<", 1e-6))
		},
			Entry("advancing on rejected steps", false),
			Entry("restoring on rejected steps", true),
		)
	})
})
