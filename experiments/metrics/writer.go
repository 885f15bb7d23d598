package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"vast/config"
)

const (
	ResultsFile  = "results.json"
	SetupFile    = "setup.json"
	ProgressFile = "progress.csv"
	EpisodesFile = "episodes.csv"
)

type Setup struct {
	RunID     string        `json:"runId"`
	Params    config.Params `json:"params"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
}

// ProgressRecord summarizes one evaluation during training.
type ProgressRecord struct {
	TimeStep           int
	DiscountedReturn   float64
	UndiscountedReturn float64
	DomainValue        float64
	WinRate            *float64
	SampledSubteams    *int
	MaxSubteams        *int
	StepsPerSecond     float64
}

type EpisodeRecord struct {
	Episode int
	EpisodeMetric
}

type Writer struct {
	baseDir string
}

func NewWriter(baseDir string) (*Writer, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

// WriteJSON stores v as indented JSON under the writer's directory.
func (w *Writer) WriteJSON(name string, v any) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}

func (w *Writer) WriteSetup(runID string, params config.Params, start, end time.Time) error {
	return w.WriteJSON(SetupFile, Setup{
		RunID:     runID,
		Params:    params,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	})
}

func (w *Writer) WriteProgress(records []ProgressRecord) error {
	header := []string{"time_step", "discounted_return", "undiscounted_return", "domain_value", "win_rate", "sampled_subteams", "max_subteams", "steps_per_second"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			strconv.Itoa(record.TimeStep),
			formatFloat(record.DiscountedReturn),
			formatFloat(record.UndiscountedReturn),
			formatFloat(record.DomainValue),
			formatOptionalFloat(record.WinRate),
			formatOptionalInt(record.SampledSubteams),
			formatOptionalInt(record.MaxSubteams),
			formatFloat(record.StepsPerSecond),
		}
	}
	return w.writeCSV(ProgressFile, header, rows)
}

func (w *Writer) WriteEpisodeRecords(records []EpisodeRecord) error {
	header := []string{"episode", "training", "time_steps", "updates", "start_time", "duration", "completed"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			strconv.Itoa(record.Episode),
			strconv.FormatBool(record.Training),
			strconv.Itoa(record.TimeSteps),
			strconv.Itoa(record.Updates),
			record.StartTime.Format(time.RFC3339Nano),
			record.Duration.String(),
			strconv.FormatBool(record.Completed),
		}
	}
	return w.writeCSV(EpisodesFile, header, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
