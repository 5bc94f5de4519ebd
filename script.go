package trellis

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type scriptStep struct {
	Action string `yaml:"action"`
	Label  string `yaml:"label,omitempty"`
	Frames int    `yaml:"frames,omitempty"`
}

type scriptFile struct {
	Steps []scriptStep `yaml:"steps"`
}

// FrameScript sequences screenshots and waits across frames for automated
// visual checks. Attach one to RunConfig.Script.
//
// Scripts are YAML (or JSON) documents:
//
//	steps:
//	  - action: wait
//	    frames: 30
//	  - action: screenshot
//	    label: settled
//	  - action: quit
type FrameScript struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
	quit      bool
}

// LoadFrameScript parses a script. Unknown actions are rejected.
func LoadFrameScript(data []byte) (*FrameScript, error) {
	var f scriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "trellis: parse frame script")
	}
	if len(f.Steps) == 0 {
		return nil, errors.New("trellis: parse frame script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "screenshot", "wait", "quit":
		default:
			return nil, errors.Errorf("trellis: frame script step %d: unknown action %q", i, st.Action)
		}
	}
	return &FrameScript{steps: f.Steps}, nil
}

// Done reports whether every step has run.
func (s *FrameScript) Done() bool { return s.done }

// Quit reports whether a quit step has run.
func (s *FrameScript) Quit() bool { return s.quit }

// step advances the script by one frame.
func (s *FrameScript) step(r *Renderer) {
	if s.done {
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	st := s.steps[s.cursor]
	s.cursor++
	switch st.Action {
	case "screenshot":
		r.Screenshot(st.Label)
	case "wait":
		if st.Frames > 0 {
			// This frame counts as one.
			s.waitCount = st.Frames - 1
		}
	case "quit":
		s.quit = true
		s.done = true
		return
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 {
		s.done = true
	}
}
