package evidence

import (
	"strings"

	"github.com/metamendmarketing/reportbuilderv3/internal/ingestion"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

// KnownSources lists every identifier a source_ref may cite.
func KnownSources(sc *ingestion.SupportingContext, images []types.ImageAsset) []string {
	known := []string{NotesSourceRef}
	if sc != nil {
		known = append(known, sc.DocumentIDs()...)
	}
	for _, img := range images {
		known = append(known, img.FileName)
	}
	return known
}

func traceable(ref string, known []string) bool {
	ref = strings.ToLower(ref)
	for _, k := range known {
		if k != "" && strings.Contains(ref, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Ground removes items whose source_ref cites none of the known inputs and
// returns how many were removed.
func Ground(b *types.EvidenceBundle, known []string) int {
	dropped := 0

	kpis := b.KPIs[:0]
	for _, k := range b.KPIs {
		if traceable(k.SourceRef, known) {
			kpis = append(kpis, k)
		} else {
			dropped++
		}
	}
	b.KPIs = kpis

	keepClaims := func(in []types.Claim) []types.Claim {
		out := in[:0]
		for _, c := range in {
			if traceable(c.SourceRef, known) {
				out = append(out, c)
			} else {
				dropped++
			}
		}
		return out
	}
	b.Wins = keepClaims(b.Wins)
	b.Risks = keepClaims(b.Risks)

	movers := b.Movers[:0]
	for _, m := range b.Movers {
		if traceable(m.SourceRef, known) {
			movers = append(movers, m)
		} else {
			dropped++
		}
	}
	b.Movers = movers

	links := b.WorkLinks[:0]
	for _, w := range b.WorkLinks {
		if traceable(w.SourceRef, known) {
			links = append(links, w)
		} else {
			dropped++
		}
	}
	b.WorkLinks = links

	return dropped
}
