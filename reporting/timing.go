package reporting

import (
	"fmt"
	"os"

	"github.com/google/pprof/profile"

	"github.com/perfgo/ctsrun/model"
)

// TimingFilename is the name of the timing profile in a run directory.
const TimingFilename = "timing.pb.gz"

// TimingSink writes a pprof profile with one sample per case on completion.
// Each case is a two frame stack below the suite root so that
// "go tool pprof -top" lists the slowest cases.
type TimingSink struct {
	path  string
	suite string
}

// NewTimingSink creates a TimingSink writing to path.
func NewTimingSink(path, suite string) *TimingSink {
	return &TimingSink{path: path, suite: suite}
}

// Consume implements the sink interface; the profile is built on completion.
func (s *TimingSink) Consume(model.Entry) error {
	return nil
}

// Complete writes the profile.
func (s *TimingSink) Complete(r *model.Report) error {
	prof := BuildTimingProfile(s.suite, r)
	if err := prof.CheckValid(); err != nil {
		return fmt.Errorf("invalid timing profile: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create timing profile: %w", err)
	}
	defer f.Close()

	if err := prof.Write(f); err != nil {
		return fmt.Errorf("failed to write timing profile: %w", err)
	}
	return nil
}

// BuildTimingProfile converts the case durations of r into a profile.
func BuildTimingProfile(suite string, r *model.Report) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "cases", Unit: "count"},
			{Type: "wall", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
		Period:     1,
	}

	root := addFrame(prof, suite)
	for _, e := range r.Entries {
		loc := addFrame(prof, e.Name)
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc, root},
			Value:    []int64{1, e.Duration.Nanoseconds()},
			Label:    map[string][]string{"verdict": {string(e.Verdict.Status)}},
			NumLabel: map[string][]int64{"exit_code": {int64(e.ExitCode)}},
		})
	}
	return prof
}

func addFrame(prof *profile.Profile, name string) *profile.Location {
	fn := &profile.Function{
		ID:         uint64(len(prof.Function) + 1),
		Name:       name,
		SystemName: name,
	}
	prof.Function = append(prof.Function, fn)

	loc := &profile.Location{
		ID:   uint64(len(prof.Location) + 1),
		Line: []profile.Line{{Function: fn}},
	}
	prof.Location = append(prof.Location, loc)
	return loc
}
