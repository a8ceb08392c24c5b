// Package output prints the run report.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Norgate-AV/pbirefresh/internal/errdefs"
	"github.com/Norgate-AV/pbirefresh/internal/monitor"
	"github.com/Norgate-AV/pbirefresh/internal/version"
)

// Format represents the output format.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a --report value
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatNone, FormatYAML, FormatJSON:
		return f, nil
	default:
		return FormatNone, fmt.Errorf("unsupported report format: %q (use yaml or json)", s)
	}
}

// Report is the machine-readable summary of one run.
type Report struct {
	RunID           string        `yaml:"run_id"                      json:"run_id"`
	Target          string        `yaml:"target"                      json:"target"`
	Pid             uint32        `yaml:"pid,omitempty"               json:"pid,omitempty"`
	Outcome         string        `yaml:"outcome"                     json:"outcome"`
	Error           string        `yaml:"error,omitempty"             json:"error,omitempty"`
	State           monitor.State `yaml:"state,omitempty"             json:"state,omitempty"`
	Ticks           int           `yaml:"ticks"                       json:"ticks"`
	ConfirmedAtTick int           `yaml:"confirmed_at_tick,omitempty" json:"confirmed_at_tick,omitempty"`
	AutoClosed      bool          `yaml:"auto_closed"                 json:"auto_closed"`
	CrashRecovered  bool          `yaml:"crash_recovered"             json:"crash_recovered"`
	Saved           bool          `yaml:"saved"                       json:"saved"`
	FinalContent    string        `yaml:"final_content,omitempty"     json:"final_content,omitempty"`
	Elapsed         string        `yaml:"elapsed"                     json:"elapsed"`
	Transitions     []Transition  `yaml:"transitions,omitempty"       json:"transitions,omitempty"`
	Build           version.Info  `yaml:"build"                       json:"build"`
}

// Transition is a state change as reported. At is the time since the run
// started, written as a duration string in every format.
type Transition struct {
	From monitor.State `yaml:"from" json:"from"`
	To   monitor.State `yaml:"to"   json:"to"`
	Tick int           `yaml:"tick" json:"tick"`
	At   string        `yaml:"at"   json:"at"`
}

// NewReport builds a report from a refresh result and the run's error
func NewReport(runID, target string, pid uint32, res monitor.Result, saved bool, err error) Report {
	r := Report{
		RunID:           runID,
		Target:          target,
		Pid:             pid,
		Outcome:         errdefs.Outcome(err),
		State:           res.State,
		Ticks:           len(res.Ticks),
		ConfirmedAtTick: res.ConfirmedAtTick,
		AutoClosed:      res.AutoClosed,
		CrashRecovered:  res.CrashRecovered,
		Saved:           saved,
		FinalContent:    res.FinalContent,
		Elapsed:         res.Elapsed.Round(time.Second).String(),
		Transitions:     transitions(res.Transitions),
		Build:           version.GetInfo(),
	}

	if err != nil {
		r.Error = err.Error()
	}

	return r
}

func transitions(in []monitor.Transition) []Transition {
	if len(in) == 0 {
		return nil
	}

	out := make([]Transition, 0, len(in))
	for _, t := range in {
		out = append(out, Transition{
			From: t.From,
			To:   t.To,
			Tick: t.Tick,
			At:   t.At.Round(time.Millisecond).String(),
		})
	}

	return out
}

// Print serializes v to w in format. FormatNone prints nothing.
func Print(w io.Writer, format Format, v any) error {
	switch format {
	case FormatNone:
		return nil
	case FormatJSON:
		return PrintJSON(w, v)
	case FormatYAML:
		return PrintYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// PrintJSON serializes v to w as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// PrintYAML serializes v to w as YAML.
func PrintYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return enc.Close()
}
