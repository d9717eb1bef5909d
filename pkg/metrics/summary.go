package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MutationCount is the number of mutations of one operation that settled with one outcome.
type MutationCount struct {
	Op      string
	Outcome string
	Count   int
}

// SummarizeMutations reads cart_mutations_total from g, sorted by op then outcome.
func SummarizeMutations(g prometheus.Gatherer) ([]MutationCount, error) {
	mfs, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []MutationCount
	for _, mf := range mfs {
		if mf.GetName() != "cart_mutations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			out = append(out, MutationCount{
				Op:      labelValue(m.GetLabel(), "op"),
				Outcome: labelValue(m.GetLabel(), "outcome"),
				Count:   int(m.GetCounter().GetValue()),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out, nil
}

func labelValue(pairs []*dto.LabelPair, name string) string {
	for _, p := range pairs {
		if p.GetName() == name {
			return p.GetValue()
		}
	}
	return ""
}
