// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/emitter"
	"github.com/petenewcomb/respool-go/sound"
	"gopkg.in/yaml.v3"
)

type Scenario struct {
	Sounds   []Sound `yaml:"sounds"`
	Bursts   []Burst `yaml:"bursts"`
	Schedule []Step  `yaml:"schedule"`
}

type Sound struct {
	ID      string        `yaml:"id"`
	Clip    string        `yaml:"clip"`
	Length  time.Duration `yaml:"length"`
	Volume  *float64      `yaml:"volume"`
	Pitch   float64       `yaml:"pitch"`
	Loop    bool          `yaml:"loop"`
	Overlap *bool         `yaml:"overlap"`
	Kind    string        `yaml:"kind"`
}

type Burst struct {
	Name     string `yaml:"name"`
	Capacity *int   `yaml:"capacity"`
}

// A Step is one scheduled action. Exactly one of Play, Stop, Pause, Resume
// and Burst must be set.
type Step struct {
	At       time.Duration `yaml:"at"`
	Play     string        `yaml:"play"`
	Position []float64     `yaml:"position"`
	Stop     string        `yaml:"stop"`
	Pause    string        `yaml:"pause"`
	Resume   string        `yaml:"resume"`
	Burst    string        `yaml:"burst"`
	Rate     float64       `yaml:"rate"`
	For      time.Duration `yaml:"for"`
}

// Load decodes and validates a scenario.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile is Load for a named file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that every step refers to something that exists and can
// do what the step asks.
func (sc *Scenario) Validate() error {
	sounds := make(map[string]Sound, len(sc.Sounds))
	for _, s := range sc.Sounds {
		if s.ID == "" {
			return errors.New("sound without id")
		}
		if _, err := sound.ParseKind(s.Kind); err != nil {
			return err
		}
		sounds[s.ID] = s
	}
	bursts := make(map[string]bool, len(sc.Bursts))
	for _, b := range sc.Bursts {
		if b.Name == "" {
			return errors.New("burst without name")
		}
		if b.Capacity != nil && *b.Capacity < 0 {
			return fmt.Errorf("burst %q: negative capacity", b.Name)
		}
		bursts[b.Name] = true
	}

	for i, st := range sc.Schedule {
		if st.At < 0 {
			return fmt.Errorf("step %d: negative time %v", i, st.At)
		}
		actions := 0
		for _, s := range []string{st.Play, st.Stop, st.Pause, st.Resume, st.Burst} {
			if s != "" {
				actions++
			}
		}
		if actions != 1 {
			return fmt.Errorf("step %d: want exactly one action, got %d", i, actions)
		}
		switch {
		case st.Play != "":
			if _, ok := sounds[st.Play]; !ok {
				return fmt.Errorf("step %d: unknown sound %q", i, st.Play)
			}
			if st.Position != nil && len(st.Position) != 3 {
				return fmt.Errorf("step %d: position needs 3 coordinates, got %d", i, len(st.Position))
			}
		case st.Burst != "":
			if !bursts[st.Burst] {
				return fmt.Errorf("step %d: unknown burst %q", i, st.Burst)
			}
			if st.For < 0 {
				return fmt.Errorf("step %d: negative burst length %v", i, st.For)
			}
		default:
			id := st.Stop + st.Pause + st.Resume
			s, ok := sounds[id]
			if !ok {
				return fmt.Errorf("step %d: unknown sound %q", i, id)
			}
			if s.overlap() {
				return fmt.Errorf("step %d: sound %q overlaps and has no dedicated voice", i, id)
			}
		}
	}
	return nil
}

func (s Sound) overlap() bool {
	return s.Overlap == nil || *s.Overlap
}

func (s Sound) bankEntry() sound.Sound {
	volume := 1.0
	if s.Volume != nil {
		volume = *s.Volume
	}
	pitch := s.Pitch
	if pitch == 0 {
		pitch = 1
	}
	kind, _ := sound.ParseKind(s.Kind)
	entry := sound.Sound{
		ID:           s.ID,
		Volume:       volume,
		Pitch:        pitch,
		Loop:         s.Loop,
		AllowOverlap: s.overlap(),
		Kind:         kind,
	}
	if s.Clip != "" {
		entry.Clip = &emitter.Clip{Name: s.Clip, Length: s.Length}
	}
	return entry
}

func (st Step) position() *respool.Vec3 {
	if st.Position == nil {
		return nil
	}
	return &respool.Vec3{X: st.Position[0], Y: st.Position[1], Z: st.Position[2]}
}

// sortedSchedule returns the steps ordered by time, keeping file order for
// steps at the same time.
func (sc *Scenario) sortedSchedule() []Step {
	steps := slices.Clone(sc.Schedule)
	slices.SortStableFunc(steps, func(a, b Step) int {
		return cmp.Compare(a.At, b.At)
	})
	return steps
}
