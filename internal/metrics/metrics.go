// Package metrics exposes vault activity as Prometheus counters.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "pdavault"

// Recorder owns a private registry with the vault counters.
type Recorder struct {
	registry *prometheus.Registry

	instructions *prometheus.CounterVec
	moved        *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
	}

	r.instructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Vault instructions processed, by instruction and outcome (ok or error code)",
		},
		[]string{"instruction", "outcome"},
	)

	r.moved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lamports_moved_total",
			Help:      "Lamports moved by committed deposits and withdrawals",
		},
		[]string{"direction"},
	)

	r.registry.MustRegister(r.instructions, r.moved)
	return r
}

// Instruction counts one processed instruction.
func (r *Recorder) Instruction(instruction, outcome string) {
	r.instructions.WithLabelValues(instruction, outcome).Inc()
}

// LamportsMoved adds amount to the counter for direction.
func (r *Recorder) LamportsMoved(direction string, amount uint64) {
	r.moved.WithLabelValues(direction).Add(float64(amount))
}

// Registry returns the registry the counters live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteText writes every metric in the text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the metrics to path for a node-exporter textfile
// collector.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
