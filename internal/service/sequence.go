package service

import "juststart/internal/model"

// Sequence is the repeating phase order [Work, ShortRest] x (N-1) followed by
// [Work, LongRest], walked by a cursor that wraps forever.
type Sequence struct {
	phases    []model.Phase
	durations map[model.Phase]int
	cursor    int
}

// NewSequence builds the block for cfg and positions it at cursor, which is
// normalized into the block (negative values restart it).
func NewSequence(cfg model.PomodoroConfig, cursor int) *Sequence {
	cycles := cfg.CyclesBeforeLongRest
	if cycles < 1 {
		cycles = 1
	}
	phases := make([]model.Phase, 0, 2*cycles)
	for i := 0; i < cycles; i++ {
		phases = append(phases, model.PhaseWork, model.PhaseShortRest)
	}
	phases[len(phases)-1] = model.PhaseLongRest

	seq := &Sequence{
		phases:    phases,
		durations: DurationTable(cfg),
	}
	seq.cursor = seq.normalize(cursor)
	return seq
}

// DurationTable maps each phase to its configured length in seconds.
func DurationTable(cfg model.PomodoroConfig) map[model.Phase]int {
	return map[model.Phase]int{
		model.PhaseWork:      cfg.PomodoroLength * 60,
		model.PhaseShortRest: cfg.ShortRest * 60,
		model.PhaseLongRest:  cfg.LongRest * 60,
	}
}

// Next returns the phase under the cursor with its duration and moves on.
func (s *Sequence) Next() (model.Phase, int) {
	phase := s.phases[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.phases)
	return phase, s.durations[phase]
}

// Cursor is the position Next will read from. It is what gets persisted.
func (s *Sequence) Cursor() int {
	return s.cursor
}

func (s *Sequence) Len() int {
	return len(s.phases)
}

// WorkPerBlock is the number of Work phases in one pass over the block.
func (s *Sequence) WorkPerBlock() int {
	return len(s.phases) / 2
}

// Span splits a run of steps into whole blocks, which leave the cursor where
// it is, and the phases that still have to be walked. At most one whole block
// is folded into walk, so walk stays under two block lengths.
func (s *Sequence) Span(steps int) (blocks, walk int) {
	if steps <= 0 {
		return 0, 0
	}
	blocks, walk = steps/len(s.phases), steps%len(s.phases)
	if blocks > 0 {
		blocks--
		walk += len(s.phases)
	}
	return blocks, walk
}

func (s *Sequence) Duration(phase model.Phase) int {
	return s.durations[phase]
}

func (s *Sequence) Clone() *Sequence {
	clone := *s
	return &clone
}

func (s *Sequence) normalize(cursor int) int {
	if cursor < 0 {
		return 0
	}
	return cursor % len(s.phases)
}
