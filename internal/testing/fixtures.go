package testing

import (
	"time"

	"github.com/aristath/minesim/internal/modules/decisions"
	"github.com/aristath/minesim/internal/modules/scenarios"
)

// NewSweepFixture returns a small hand-written sweep result with three rows
func NewSweepFixture() *scenarios.SweepResult {
	return &scenarios.SweepResult{
		Trials:     1000,
		Years:      5,
		Seed:       42,
		ReportYear: 5,
		Elapsed:    1500 * time.Millisecond,
		Rows: []scenarios.SweepRow{
			{
				Vector: decisions.Baseline(),
				Label:  decisions.Baseline().Label(),
				Summary: scenarios.Summary{
					Year: 5, Foreclosed: 28, Distressed: 40, Healthy: 932, ForeclosedFraction: 0.028,
					Median: 18_100_000, Mean: 17_400_000, StdDev: 9_800_000, P10: 4_200_000, P90: 29_900_000,
				},
			},
			{
				Vector: decisions.Vector{SellYear: 1},
				Label:  decisions.Vector{SellYear: 1}.Label(),
				Summary: scenarios.Summary{
					Year: 5, Foreclosed: 50, Distressed: 61, Healthy: 889, ForeclosedFraction: 0.05,
					Median: 15_600_000, Mean: 14_900_000, StdDev: 9_700_000, P10: 1_900_000, P90: 27_200_000,
				},
			},
			{
				Vector: decisions.Vector{Levels: []int{0, 2, 2, 2, 2}},
				Label:  decisions.Vector{Levels: []int{0, 2, 2, 2, 2}}.Label(),
				Summary: scenarios.Summary{
					Year: 5, Foreclosed: 31, Distressed: 44, Healthy: 925, ForeclosedFraction: 0.031,
					Median: 17_200_000, Mean: 16_800_000, StdDev: 10_100_000, P10: 3_600_000, P90: 30_100_000,
				},
			},
		},
	}
}
