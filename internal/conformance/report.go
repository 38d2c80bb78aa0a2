package conformance

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/numfmt"
)

// Status is the outcome of one case
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Result records a single evaluated case
type Result struct {
	Suite    string
	Case     string
	Function string
	Args     []string
	Status   Status
	Expected formulas.Primitive
	Actual   formulas.Primitive
	Message  string
	Elapsed  time.Duration
}

// Report collects the results of a run
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Skipped   int
	Errored   int
	Results   []Result
}

// OK reports whether no case failed or errored
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

func (r *Report) tally() {
	r.Passed, r.Failed, r.Skipped, r.Errored = 0, 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			r.Passed++
		case StatusFail:
			r.Failed++
		case StatusSkip:
			r.Skipped++
		case StatusError:
			r.Errored++
		}
	}
}

type resultView struct {
	Suite     string   `json:"suite"`
	Case      string   `json:"case"`
	Function  string   `json:"function"`
	Args      []string `json:"args"`
	Status    Status   `json:"status"`
	Expected  string   `json:"expected,omitempty"`
	Actual    string   `json:"actual,omitempty"`
	Message   string   `json:"message,omitempty"`
	ElapsedUS int64    `json:"elapsed_us"`
}

type reportView struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMS int64        `json:"duration_ms"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Errored    int          `json:"errored"`
	Results    []resultView `json:"results"`
}

// WriteJSON writes the report as indented JSON. values are rendered with
// format, or General when format is nil.
func (r *Report) WriteJSON(w io.Writer, format *numfmt.Format) error {
	if format == nil {
		format = numfmt.Compile(numfmt.General)
	}
	view := reportView{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Passed:     r.Passed,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		Errored:    r.Errored,
		Results:    make([]resultView, len(r.Results)),
	}
	for i, res := range r.Results {
		view.Results[i] = resultView{
			Suite:     res.Suite,
			Case:      res.Case,
			Function:  res.Function,
			Args:      res.Args,
			Status:    res.Status,
			Expected:  format.Render(res.Expected),
			Actual:    format.Render(res.Actual),
			Message:   res.Message,
			ElapsedUS: res.Elapsed.Microseconds(),
		}
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteText writes one aligned line per failed or errored case followed by
// a summary line. passing cases are listed when verbose is set.
func (r *Report) WriteText(w io.Writer, format *numfmt.Format, verbose bool) error {
	if format == nil {
		format = numfmt.Compile(numfmt.General)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, res := range r.Results {
		if !verbose && (res.Status == StatusPass || res.Status == StatusSkip) {
			continue
		}
		call := fmt.Sprintf("%s(%s)", res.Function, strings.Join(res.Args, ", "))
		detail := res.Message
		if res.Status == StatusFail {
			detail = fmt.Sprintf("expected %s, got %s", format.Render(res.Expected), format.Render(res.Actual))
		} else if res.Status == StatusPass {
			detail = format.Render(res.Actual)
		}
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%s\n", strings.ToUpper(string(res.Status)), res.Suite, res.Case, call, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d errored, %d skipped in %s (run %s)\n",
		r.Passed, r.Failed, r.Errored, r.Skipped, r.Duration.Round(time.Millisecond), r.RunID)
	return err
}

// displayValue renders a value the way it would be typed into a cell
func displayValue(p formulas.Primitive) string {
	switch v := p.(type) {
	case nil:
		return "<blank>"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return numfmt.Render(v, numfmt.General)
	}
}
