package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"safekill.dev/internal/killer"
	"safekill.dev/internal/pipeline"
	"safekill.dev/internal/policy"
	"safekill.dev/internal/target"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
	headStyle = lipgloss.NewStyle().Bold(true)
)

// printer renders results. Results go to stdout, notices to stderr.
type printer struct {
	out   io.Writer
	err   io.Writer
	color bool
	json  bool
}

func (a *app) newPrinter(asJSON bool) *printer {
	return &printer{out: a.stdout, err: a.stderr, color: a.color && !asJSON, json: asJSON}
}

// style renders text with s when color output is enabled
func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// report prints the outcome of a kill run
func (p *printer) report(r *pipeline.Report) error {
	if p.json {
		return p.writeJSON(r)
	}

	results := r.Summary.Results
	if len(results) == 0 {
		fmt.Fprintf(p.err, "safe-kill: no process found for %s\n", r.Spec)
		p.hint(r.Hint)
		return nil
	}

	if r.Spec.Kind != target.ByPID {
		p.header(r)
	}
	for _, res := range results {
		p.result(res, r)
	}
	p.hint(r.Hint)
	return nil
}

func (p *printer) header(r *pipeline.Report) {
	verb := "killed"
	count := r.Summary.Signaled
	if r.DryRun {
		verb = "would kill"
		count = 0
		for _, res := range r.Summary.Results {
			if res.WouldSignal() {
				count++
			}
		}
	}

	prefix := ""
	if r.Spec.Kind == target.ByPort {
		prefix = fmt.Sprintf("Port %d: ", r.Spec.Port)
	}
	fmt.Fprintln(p.out, p.style(headStyle,
		fmt.Sprintf("%sMatched %d process(es), %s %d:", prefix, len(r.Summary.Results), verb, count)))
}

func (p *printer) result(res killer.Result, r *pipeline.Report) {
	mark := p.style(okStyle, "✓")
	if !res.WouldSignal() {
		mark = p.style(failStyle, "✗")
	}
	fmt.Fprintf(p.out, "%s %s (PID %d): %s\n", mark, res.Name, res.PID, p.message(res, r))
}

// message explains one result in words
func (p *printer) message(res killer.Result, r *pipeline.Report) string {
	switch {
	case res.Outcome == killer.Signaled:
		return fmt.Sprintf("sent %s", r.Signal)
	case res.Cause == killer.CauseDryRun:
		return fmt.Sprintf("would send %s %s", r.Signal, p.style(dimStyle, "("+res.Reason.Describe()+")"))
	case res.Outcome == killer.Skipped:
		return "denied: " + res.Reason.Describe()
	case res.Cause == killer.CauseNoSuchProcess:
		return "process exited before it could be signaled"
	case res.Cause == killer.CausePermissionDenied:
		return "permission denied"
	default:
		return "failed: " + res.Error
	}
}

func (p *printer) hint(h string) {
	if h == "" {
		return
	}
	fmt.Fprintf(p.err, "%s %s\n", p.style(warnStyle, "Hint:"), h)
}

// listing prints the session process table
func (p *printer) listing(l *pipeline.Listing) error {
	if p.json {
		return p.writeJSON(l)
	}

	if len(l.Entries) == 0 {
		fmt.Fprintln(p.out, "No killable processes found.")
		return nil
	}

	killable := 0
	for _, e := range l.Entries {
		if e.Killable() {
			killable++
		}
	}

	fmt.Fprintln(p.out, p.style(headStyle,
		fmt.Sprintf("Session root %d: %d process(es), %d killable", l.Session.RootPID, len(l.Entries), killable)))
	fmt.Fprintf(p.out, "%8s  %-20s  %-30s  %-9s  %s\n", "PID", "NAME", "COMMAND", "STATUS", "REASON")
	fmt.Fprintln(p.out, p.style(dimStyle, strings.Repeat("-", 92)))

	for _, e := range l.Entries {
		status := p.style(okStyle, fmt.Sprintf("%-9s", "killable"))
		if !e.Killable() {
			status = p.style(failStyle, fmt.Sprintf("%-9s", "protected"))
		}
		command := e.Command
		if command == "" {
			command = e.Name
		}
		fmt.Fprintf(p.out, "%8d  %-20s  %-30s  %s  %s\n", e.PID, truncate(e.Name, 20), truncate(command, 30), status, describeEntry(e))
	}
	return nil
}

func describeEntry(e pipeline.Entry) string {
	if e.Reason == policy.ReasonAllowlisted && !e.Descendant {
		return e.Reason.Describe() + " (outside session)"
	}
	return e.Reason.Describe()
}

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
