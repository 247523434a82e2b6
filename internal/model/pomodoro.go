package model

import "time"

type Phase string

const (
	PhaseWork      Phase = "work"
	PhaseShortRest Phase = "short_rest"
	PhaseLongRest  Phase = "long_rest"
)

const (
	StatusRunning = "running"
	StatusPaused  = "paused"
)

const (
	HistoryCompleted = "completed"
	HistorySkipped   = "skipped"
	HistoryCancelled = "cancelled"
)

const (
	DefaultPomodoroMinutes      = 25
	DefaultShortRestMinutes     = 5
	DefaultLongRestMinutes      = 15
	DefaultCyclesBeforeLongRest = 4
)

// Persisted state keys. Each one is readable and writable on its own.
const (
	KeyPomodoroCycle = "pomodoro_cycle"
	KeyPhase         = "phase"
	KeyTimeLeft      = "time_left"
	KeyWorkCount     = "work_count"
	KeySkipEnabled   = "skip_enabled"
)

var SnapshotKeys = []string{KeyPomodoroCycle, KeyPhase, KeyTimeLeft, KeyWorkCount}

func (p Phase) Label() string {
	switch p {
	case PhaseWork:
		return "Work and switch tasks"
	case PhaseShortRest:
		return "Short break"
	case PhaseLongRest:
		return "LONG BREAK!!!"
	default:
		return string(p)
	}
}

func (p Phase) Valid() bool {
	return p == PhaseWork || p == PhaseShortRest || p == PhaseLongRest
}

// PomodoroConfig mirrors the user's settings file. Lengths are in minutes.
type PomodoroConfig struct {
	PomodoroLength       int `yaml:"pomodoro_length" json:"pomodoroLength"`
	ShortRest            int `yaml:"short_rest" json:"shortRest"`
	LongRest             int `yaml:"long_rest" json:"longRest"`
	CyclesBeforeLongRest int `yaml:"cycles_before_long_rest" json:"cyclesBeforeLongRest"`
}

func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		PomodoroLength:       DefaultPomodoroMinutes,
		ShortRest:            DefaultShortRestMinutes,
		LongRest:             DefaultLongRestMinutes,
		CyclesBeforeLongRest: DefaultCyclesBeforeLongRest,
	}
}

// Snapshot is the durable subset of the timer state.
type Snapshot struct {
	PomodoroCycle int   `json:"pomodoroCycle"`
	Phase         Phase `json:"phase"`
	TimeLeft      int   `json:"timeLeft"`
	WorkCount     int   `json:"workCount"`
}

// PartialSnapshot is what the store could read back. Nil fields were missing
// or unreadable.
type PartialSnapshot struct {
	PomodoroCycle *int
	Phase         *Phase
	TimeLeft      *int
	WorkCount     *int
}

func (p PartialSnapshot) Empty() bool {
	return p.PomodoroCycle == nil && p.Phase == nil && p.TimeLeft == nil && p.WorkCount == nil
}

func (s Snapshot) Partial() PartialSnapshot {
	cycle, phase, timeLeft, workCount := s.PomodoroCycle, s.Phase, s.TimeLeft, s.WorkCount
	return PartialSnapshot{
		PomodoroCycle: &cycle,
		Phase:         &phase,
		TimeLeft:      &timeLeft,
		WorkCount:     &workCount,
	}
}

type TimerState struct {
	Phase       Phase      `json:"phase"`
	PhaseLabel  string     `json:"phaseLabel"`
	Status      string     `json:"status"`
	TimeLeft    int        `json:"timeLeft"`
	WorkCount   int        `json:"workCount"`
	Cycle       int        `json:"pomodoroCycle"`
	SkipEnabled bool       `json:"skipEnabled"`
	AtWork      bool       `json:"atWork"`
	Location    string     `json:"location"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
}

type PhaseRecord struct {
	ID                     string    `json:"id"`
	Phase                  Phase     `json:"phase"`
	PlannedDurationSeconds int       `json:"plannedDurationSeconds"`
	ActualDurationSeconds  int       `json:"actualDurationSeconds"`
	WorkCount              int       `json:"workCount"`
	Outcome                string    `json:"outcome"`
	EndedAt                time.Time `json:"endedAt"`
}
