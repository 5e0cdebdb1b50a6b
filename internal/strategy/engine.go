package strategy

import (
	"errors"
	"fmt"
	"strings"

	"MarketLens/internal/model"
)

// ErrComputation marks an unexpected failure while evaluating rules.
var ErrComputation = errors.New("signal computation failed")

// CompositeColumn is the name of the aggregated per-bar signal.
const CompositeColumn = "Signal"

// Decision holds the per-rule signal columns and the composite column.
type Decision struct {
	// Order lists produced signal columns in priority order.
	Order     []string
	Columns   map[string][]model.Signal
	Composite []model.Signal
	// Skipped lists rules whose inputs were absent.
	Skipped []string
}

// Column returns the signals of one rule column.
func (d *Decision) Column(name string) ([]model.Signal, bool) {
	s, ok := d.Columns[name]
	return s, ok
}

// Actions projects a signal column onto its integer actions (1, -1, 0).
func (d *Decision) Actions(name string) ([]int, bool) {
	sigs, ok := d.Columns[name]
	if name == CompositeColumn {
		sigs, ok = d.Composite, true
	}
	if !ok {
		return nil, false
	}
	out := make([]int, len(sigs))
	for i, s := range sigs {
		out[i] = int(s.Action)
	}
	return out, true
}

// Last returns the composite signal of the final bar.
func (d *Decision) Last() model.Signal {
	if len(d.Composite) == 0 {
		return model.HoldSignal
	}
	return d.Composite[len(d.Composite)-1]
}

// ActiveAt lists the rule signals that fired on bar i, in priority order.
func (d *Decision) ActiveAt(i int) []NamedSignal {
	var out []NamedSignal
	for _, name := range d.Order {
		s := d.Columns[name][i]
		if s.Fired() {
			out = append(out, NamedSignal{Column: name, Signal: s})
		}
	}
	return out
}

// NamedSignal pairs a signal with the column that produced it.
type NamedSignal struct {
	Column string       `json:"column"`
	Signal model.Signal `json:"signal"`
}

// Generate evaluates every applicable rule on every bar of f. Rules whose
// inputs are missing are skipped and their column is absent from the result.
func Generate(f *model.Frame, rules RuleSet) (*Decision, error) {
	if f == nil {
		return nil, errors.New("generate signals: nil frame")
	}
	d := &Decision{Columns: make(map[string][]model.Signal)}
	seen := make(map[string]bool, len(rules))

	for _, r := range rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("generate signals: duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
		if r.Evaluate == nil || !r.Applicable(f) {
			d.Skipped = append(d.Skipped, r.Name)
			continue
		}
		out := make([]model.Signal, f.Len())
		for i := range out {
			out[i] = r.Evaluate(f, i)
		}
		d.Order = append(d.Order, r.Column())
		d.Columns[r.Column()] = out
	}

	d.Composite = make([]model.Signal, f.Len())
	for i := range d.Composite {
		d.Composite[i] = combine(d.ActiveAt(i))
	}
	return d, nil
}

// SafeGenerate runs Generate and converts a panic inside a rule into an error
// wrapping ErrComputation, so callers can report it without losing the frame.
func SafeGenerate(f *model.Frame, rules RuleSet) (d *Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("%w: %v", ErrComputation, r)
		}
	}()
	d, err = Generate(f, rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrComputation, err)
	}
	return d, nil
}

// combine takes the action of the highest-priority firing rule and reports
// every firing reason.
func combine(active []NamedSignal) model.Signal {
	if len(active) == 0 {
		return model.HoldSignal
	}
	reasons := make([]string, 0, len(active))
	for _, a := range active {
		reasons = append(reasons, a.Signal.Reason)
	}
	return model.Signal{
		Action: active[0].Signal.Action,
		Reason: strings.Join(reasons, "; "),
	}
}
