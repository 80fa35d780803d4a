package conics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Sample is one sampled state of a chain segment, relative to the segment's parent.
type Sample struct {
	Body, Parent string
	Segment      int
	Time         float64
	ν            float64
	R, V         []float64
}

// TrueAnomaly returns the true anomaly of the sample on its segment.
func (s Sample) TrueAnomaly() float64 {
	return s.ν
}

// SampleChain returns perSegment evenly timed samples of each segment of the body's current chain,
// from the segment's epoch to its end time.
func SampleChain(b *Body, perSegment int) []Sample {
	if perSegment < 2 {
		perSegment = 2
	}
	segs := b.Chain().Orbits()
	samples := make([]Sample, 0, len(segs)*perSegment)
	for i, o := range segs {
		start, end := o.Epoch(), o.OrbitEndTime()
		if math.IsInf(end, 0) || math.IsNaN(end) {
			continue
		}
		step := (end - start) / float64(perSegment-1)
		for k := 0; k < perSegment; k++ {
			t := start + float64(k)*step
			ν := o.TrueAnomalyAtTime(t)
			R, V := o.CartesianAtTrueAnomaly(ν)
			samples = append(samples, Sample{Body: b.Name, Parent: o.Parent().Name, Segment: i, Time: t, ν: ν, R: R, V: V})
		}
	}
	return samples
}

var csvHeader = []string{"body", "parent", "segment", "t", "nu", "x", "y", "z", "vx", "vy", "vz"}

// WriteCSV writes the samples as CSV, with a header.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{s.Body, s.Parent, strconv.Itoa(s.Segment), ftoa(s.Time), ftoa(s.ν)}
		for _, x := range s.R {
			record = append(record, ftoa(x))
		}
		for _, x := range s.V {
			record = append(record, ftoa(x))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// WriteInterpolatedStates writes the samples as "<jd> <x> <y> <z> <vx> <vy> <vz>" records, the
// interpolated states format read by trajectory viewers.
func WriteInterpolatedStates(w io.Writer, samples []Sample, clock *UniversalTime) error {
	header := fmt.Sprintf(`# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Position and velocity relative to each sample's parent
#   Simulation time start (UTC): %s
`, time.Now().UTC(), clock.Epoch.UTC())
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	for _, s := range samples {
		if _, err := fmt.Fprintf(w, "%f %f %f %f %f %f %f\n", clock.JDE(s.Time), s.R[0], s.R[1], s.R[2], s.V[0], s.V[1], s.V[2]); err != nil {
			return err
		}
	}
	return nil
}

// InterpolatedState is one record of the interpolated states format.
type InterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// ParseInterpolatedStates reads back the records written by WriteInterpolatedStates.
func ParseInterpolatedStates(s string) ([]InterpolatedState, error) {
	var states []InterpolatedState
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ' '
	r.Comment = '#'
	r.FieldsPerRecord = 7
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var vals [7]float64
		for i, field := range record {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("line %d: %s", len(states)+1, err)
			}
		}
		states = append(states, InterpolatedState{JD: vals[0], Position: vals[1:4], Velocity: vals[4:7]})
	}
	return states, nil
}
