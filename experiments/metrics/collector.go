package metrics

import (
	"time"
)

type EpisodeMetric struct {
	Training  bool
	TimeSteps int
	Updates   int
	// Completed is false for episodes aborted by an error
	Completed bool
	StartTime time.Time
	Duration  time.Duration
}

// StepsPerSecond is the environment throughput of the episode.
func (m EpisodeMetric) StepsPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}
	return float64(m.TimeSteps) / m.Duration.Seconds()
}

type Collector interface {
	Start(training bool)
	AddStep()
	AddUpdate()
	AddEpisode()
	Complete() EpisodeMetric
}

type collector struct {
	training  bool
	startTime time.Time
	steps     int
	updates   int
	completed bool
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(training bool) {
	m.startTime = time.Now()
	m.training = training
	m.steps = 0
	m.updates = 0
	m.completed = false
}

func (m *collector) AddStep() {
	m.steps++
}

func (m *collector) AddUpdate() {
	m.updates++
}

func (m *collector) AddEpisode() {
	m.completed = true
}

func (m *collector) Complete() EpisodeMetric {
	return EpisodeMetric{
		Training:  m.training,
		TimeSteps: m.steps,
		Updates:   m.updates,
		Completed: m.completed,
		StartTime: m.startTime,
		Duration:  time.Since(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(training bool)     {}
func (m *dummyCollector) AddStep()                {}
func (m *dummyCollector) AddUpdate()              {}
func (m *dummyCollector) AddEpisode()             {}
func (m *dummyCollector) Complete() EpisodeMetric { return EpisodeMetric{} }
