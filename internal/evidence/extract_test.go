package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/metamendmarketing/reportbuilderv3/internal/ingestion"
	"github.com/metamendmarketing/reportbuilderv3/internal/llm"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)
	Calls        []llm.Request
}

func (m *MockLLMClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return `{}`, nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	return nil
}

func respond(body string) *MockLLMClient {
	return &MockLLMClient{GenerateFunc: func(context.Context, llm.Request) (string, error) {
		return body, nil
	}}
}

const sampleResponse = "```json\n" + `{
  "kpis": [
    {"metric": "Organic clicks", "value": 1200, "delta": "+12%", "source_ref": "gsc.csv", "confidence": "high"},
    {"metric": "Impressions", "value": "40k", "confidence": "Medium"}
  ],
  "wins": [{"claim": "FAQ page refreshed", "context": "supports long-tail queries", "source_ref": "notes", "confidence": "High"}],
  "risks": [{"claim": "Site speed regressed", "source_ref": "made-up.pdf", "confidence": "Low"}],
  "movers": [{"entity_kind": "query", "entity": "seo agency", "movement": "8 -> 4", "source_ref": "ranks.png", "confidence": "Medium"}],
  "work_to_result_links": [{"work_item": "Fixed broken links", "observed_signal": "crawl errors down", "suggested_phrasing": "likely contributed", "source_ref": "notes"}],
  "notes": ["GA4 export missing"]
}` + "\n```"

func TestExtract_SingleMultimodalRequest(t *testing.T) {
	mock := respond(sampleResponse)
	images := []types.ImageAsset{{FileName: "ranks.png", MIMEType: "image/png", Data: []byte{1, 2, 3}, ContentID: "img1"}}
	sc := &ingestion.SupportingContext{Documents: []ingestion.Document{{Name: "gsc.csv", Kind: ingestion.KindTable, Text: "Columns: page | clicks"}}}

	res := Extract(context.Background(), mock, Input{Notes: "Fixed 3 broken links.", Context: sc, Images: images})
	require.False(t, res.Failed, res.Reason)
	require.Len(t, mock.Calls, 1)

	req := mock.Calls[0]
	assert.Equal(t, Temperature, req.Temperature)
	assert.True(t, req.JSON)
	assert.Contains(t, req.System, "source_ref")
	require.Len(t, req.Parts, 3)
	assert.Contains(t, req.Parts[0].Text, "Fixed 3 broken links.")
	assert.Contains(t, req.Parts[0].Text, "### gsc.csv (table)")
	assert.Contains(t, req.Parts[0].Text, "ranks.png")
	assert.Equal(t, "Screenshot: ranks.png", req.Parts[1].Text)
	assert.True(t, req.Parts[2].IsBlob())
	assert.Equal(t, "image/png", req.Parts[2].MIMEType)
}

func TestExtract_GIFIsNamedNotAttached(t *testing.T) {
	mock := respond(sampleResponse)
	images := []types.ImageAsset{
		{FileName: "anim.gif", MIMEType: "image/gif", Data: []byte("GIF89a"), ContentID: "img1"},
		{FileName: "ranks.png", MIMEType: "image/png", Data: []byte{1, 2, 3}, ContentID: "img2"},
	}

	res := Extract(context.Background(), mock, Input{Notes: "Fixed 3 broken links.", Images: images})
	require.False(t, res.Failed, res.Reason)

	parts := mock.Calls[0].Parts
	require.Len(t, parts, 4)
	assert.Equal(t, "Screenshot: anim.gif (not attached)", parts[1].Text)
	assert.False(t, parts[1].IsBlob())
	assert.Equal(t, "Screenshot: ranks.png", parts[2].Text)
	assert.True(t, parts[3].IsBlob())
}

func TestExtract_DecodesAndDropsUnsourced(t *testing.T) {
	res := Extract(context.Background(), respond(sampleResponse), Input{Notes: "n"})
	require.False(t, res.Failed)

	b := res.Bundle
	require.Len(t, b.KPIs, 1)
	assert.Equal(t, "1200", b.KPIs[0].Value)
	assert.Equal(t, types.ConfidenceHigh, b.KPIs[0].Confidence)
	require.Len(t, b.Wins, 1)
	require.Len(t, b.Risks, 1)
	require.Len(t, b.Movers, 1)
	assert.Equal(t, types.EntityQuery, b.Movers[0].EntityKind)
	require.Len(t, b.WorkLinks, 1)
	assert.Equal(t, types.ConfidenceLow, b.WorkLinks[0].Confidence)
	assert.Contains(t, b.Notes, "GA4 export missing")
	assert.Contains(t, b.Notes, "Dropped 1 evidence item(s) without a source reference")
}

func TestExtract_StrictGrounding(t *testing.T) {
	images := []types.ImageAsset{{FileName: "ranks.png", MIMEType: "image/png", Data: []byte{1}}}
	sc := &ingestion.SupportingContext{Documents: []ingestion.Document{{Name: "gsc.csv"}}}

	res := Extract(context.Background(), respond(sampleResponse), Input{
		Notes: "n", Context: sc, Images: images, StrictGrounding: true,
	})
	require.False(t, res.Failed)
	assert.Empty(t, res.Bundle.Risks, "made-up.pdf is not an input")
	assert.Len(t, res.Bundle.KPIs, 1)
	assert.Len(t, res.Bundle.Movers, 1)
	assert.Contains(t, res.Bundle.Notes, "Dropped 1 evidence item(s) not traceable to the notes or an uploaded file")
}

func TestExtract_CallError(t *testing.T) {
	mock := &MockLLMClient{GenerateFunc: func(context.Context, llm.Request) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	sc := &ingestion.SupportingContext{Notes: []string{"could not parse a.pdf: no extractable text"}}

	res := Extract(context.Background(), mock, Input{Notes: "n", Context: sc})
	assert.True(t, res.Failed)
	assert.True(t, res.Bundle.IsEmpty())
	require.Len(t, res.Bundle.Notes, 2)
	assert.Contains(t, res.Bundle.Notes[0], "quota exceeded")
	assert.Equal(t, "could not parse a.pdf: no extractable text", res.Bundle.Notes[1])
}

func TestExtract_UnparseableOutput(t *testing.T) {
	res := Extract(context.Background(), respond("not json at all"), Input{Notes: "n"})
	assert.True(t, res.Failed)
	assert.Equal(t, "not json at all", res.Raw)
	assert.True(t, res.Bundle.IsEmpty())
	require.Len(t, res.Bundle.Notes, 1)
	assert.True(t, strings.HasPrefix(res.Bundle.Notes[0], "Evidence extraction returned unreadable output"))
}

func TestExtract_NilClient(t *testing.T) {
	res := Extract(context.Background(), nil, Input{Notes: "n"})
	assert.True(t, res.Failed)
	assert.True(t, res.Bundle.IsEmpty())
	assert.NotEmpty(t, res.Bundle.Notes)
}

func TestExtract_SchemaDiagnostics(t *testing.T) {
	res := Extract(context.Background(), respond(sampleResponse), Input{Notes: "n"})
	require.False(t, res.Failed)
	joined := strings.Join(res.Diagnostics, "\n")
	assert.Contains(t, joined, "kpis.0.value", "numeric value is reported but still accepted")
	assert.Contains(t, joined, "kpis.1")
}

func TestGround(t *testing.T) {
	b := types.EvidenceBundle{
		Wins: []types.Claim{
			{Claim: "a", SourceRef: "Notes (line 2)"},
			{Claim: "b", SourceRef: "GSC.csv row 4"},
			{Claim: "c", SourceRef: "intuition"},
		},
	}
	dropped := Ground(&b, []string{"notes", "gsc.csv"})
	assert.Equal(t, 1, dropped)
	assert.Len(t, b.Wins, 2)
}
