package stats

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Sample collects observations, such as game lengths, and summarizes them.
// Safe for concurrent Push.
type Sample struct {
	mu     sync.Mutex
	values []float64
}

func (s *Sample) Push(val float64) {
	s.mu.Lock()
	s.values = append(s.values, val)
	s.mu.Unlock()
}

func (s *Sample) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Summary is a snapshot of a Sample.
type Summary struct {
	N      int     `yaml:"n"`
	Mean   float64 `yaml:"mean"`
	Stdev  float64 `yaml:"stdev"`
	StdErr float64 `yaml:"stderr"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

func (s *Sample) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{N: len(s.values)}
	if sum.N == 0 {
		return sum
	}
	sum.Mean, sum.Stdev = stat.MeanStdDev(s.values, nil)
	if sum.N == 1 {
		sum.Stdev = 0
	}
	sum.StdErr = stat.StdErr(sum.Stdev, float64(sum.N))
	sum.Min, sum.Max = s.values[0], s.values[0]
	for _, v := range s.values[1:] {
		sum.Min = math.Min(sum.Min, v)
		sum.Max = math.Max(sum.Max, v)
	}
	return sum
}

// Score is a match score from one side's point of view: wins count 1,
// draws and unfinished games one half.
type Score struct {
	Wins   int `yaml:"wins"`
	Draws  int `yaml:"draws"`
	Losses int `yaml:"losses"`
}

func (s Score) Games() int {
	return s.Wins + s.Draws + s.Losses
}

// Rate is the fraction of available points scored.
func (s Score) Rate() float64 {
	n := s.Games()
	if n == 0 {
		return 0
	}
	return (float64(s.Wins) + 0.5*float64(s.Draws)) / float64(n)
}

// Interval is the normal-approximation confidence interval of Rate at the
// given confidence percentage, clamped to [0, 1].
func (s Score) Interval(confidence float64) (lo, hi float64) {
	n := s.Games()
	if n == 0 {
		return 0, 1
	}
	points := make([]float64, 0, n)
	for i := 0; i < s.Wins; i++ {
		points = append(points, 1)
	}
	for i := 0; i < s.Draws; i++ {
		points = append(points, 0.5)
	}
	for i := 0; i < s.Losses; i++ {
		points = append(points, 0)
	}
	mean := stat.Mean(points, nil)
	// population variance of the points
	variance := stat.MomentAbout(2, points, mean, nil)
	half := ZVal(confidence) * math.Sqrt(variance/float64(n))
	return math.Max(0, mean-half), math.Min(1, mean+half)
}
