package evidence

import (
	"strings"

	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// Decode loosely maps a parsed object onto a bundle. Items without a
// source_ref are dropped and counted.
func Decode(obj map[string]any) (types.EvidenceBundle, int) {
	var b types.EvidenceBundle
	dropped := 0

	for _, m := range llm.Objects(obj, "kpis") {
		k := types.KPI{
			Metric:     llm.String(m, "metric"),
			Value:      llm.String(m, "value"),
			Delta:      llm.String(m, "delta"),
			Period:     llm.String(m, "period"),
			SourceRef:  llm.String(m, "source_ref"),
			Confidence: types.ParseConfidence(llm.String(m, "confidence")),
		}
		if k.Metric == "" {
			continue
		}
		if k.SourceRef == "" {
			dropped++
			continue
		}
		b.KPIs = append(b.KPIs, k)
	}

	claims := func(key string) []types.Claim {
		var out []types.Claim
		for _, m := range llm.Objects(obj, key) {
			c := types.Claim{
				Claim:      llm.String(m, "claim"),
				Context:    llm.String(m, "context"),
				SourceRef:  llm.String(m, "source_ref"),
				Confidence: types.ParseConfidence(llm.String(m, "confidence")),
			}
			if c.Claim == "" {
				continue
			}
			if c.SourceRef == "" {
				dropped++
				continue
			}
			out = append(out, c)
		}
		return out
	}
	b.Wins = claims("wins")
	b.Risks = claims("risks")

	for _, m := range llm.Objects(obj, "movers") {
		mv := types.Mover{
			EntityKind: parseEntityKind(llm.String(m, "entity_kind")),
			Entity:     llm.String(m, "entity"),
			Movement:   llm.String(m, "movement"),
			SourceRef:  llm.String(m, "source_ref"),
			Confidence: types.ParseConfidence(llm.String(m, "confidence")),
		}
		if mv.Entity == "" {
			continue
		}
		if mv.SourceRef == "" {
			dropped++
			continue
		}
		b.Movers = append(b.Movers, mv)
	}

	for _, m := range llm.Objects(obj, "work_to_result_links") {
		w := types.WorkLink{
			WorkItem:          llm.String(m, "work_item"),
			ObservedSignal:    llm.String(m, "observed_signal"),
			SuggestedPhrasing: llm.String(m, "suggested_phrasing"),
			SourceRef:         llm.String(m, "source_ref"),
			Confidence:        types.ParseConfidence(llm.String(m, "confidence")),
		}
		if w.WorkItem == "" {
			continue
		}
		if w.SourceRef == "" {
			dropped++
			continue
		}
		b.WorkLinks = append(b.WorkLinks, w)
	}

	for _, n := range llm.StringSlice(obj, "notes") {
		b.AddNote(n)
	}
	return b, dropped
}

func parseEntityKind(s string) types.EntityKind {
	if strings.EqualFold(strings.TrimSpace(s), string(types.EntityQuery)) {
		return types.EntityQuery
	}
	return types.EntityPage
}
