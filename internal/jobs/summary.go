package jobs

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cc0ffee/greensim/internal/models"
	"github.com/cc0ffee/greensim/internal/sim"
)

// Summarize derives the headline statistics for a finished run. Heater energy
// integrates the per-hour power over the outer step size dt, in Joules.
func Summarize(results []sim.Result, dt float64) models.Summary {
	if len(results) == 0 {
		return models.Summary{}
	}

	tin := make([]float64, len(results))
	qThreshold := make([]float64, len(results))
	var heaterEnergy float64
	for i, r := range results {
		tin[i] = r.Tin
		qThreshold[i] = r.QToThreshold
		heaterEnergy += r.QHeater * dt
	}

	var tinStddev float64
	if len(tin) > 1 {
		tinStddev = stat.StdDev(tin, nil)
	}

	return models.Summary{
		Hours:            len(results),
		TinMin:           floats.Min(tin),
		TinMax:           floats.Max(tin),
		TinMean:          stat.Mean(tin, nil),
		TinStddev:        tinStddev,
		HeaterEnergyJ:    heaterEnergy,
		QToThresholdMax:  floats.Max(qThreshold),
		QToThresholdMean: stat.Mean(qThreshold, nil),
	}
}
