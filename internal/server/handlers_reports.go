package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/metamendmarketing/reportbuilderv3/internal/mailer"
	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline"
	"github.com/metamendmarketing/reportbuilderv3/internal/types"
)

const (
	maxFormMemory  = 32 << 20
	maxRequestSize = 64 << 20
	dateLayout     = "2006-01-02"
)

// ReportFields are the client and period fields shared by every report request
type ReportFields struct {
	ClientName   string `json:"client_name"`
	Website      string `json:"website,omitempty"`
	MonthLabel   string `json:"month_label,omitempty"`
	PeriodStart  string `json:"period_start,omitempty"` // YYYY-MM-DD
	PeriodEnd    string `json:"period_end,omitempty"`   // YYYY-MM-DD
	DashboardURL string `json:"dashboard_url,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Tier         string `json:"tier,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
}

// toRequest converts the fields into a report request. Dates must be YYYY-MM-DD.
func (f ReportFields) toRequest() (types.ReportRequest, error) {
	req := types.ReportRequest{
		ClientName:   f.ClientName,
		Website:      f.Website,
		MonthLabel:   f.MonthLabel,
		DashboardURL: f.DashboardURL,
		Notes:        f.Notes,
		Tier:         types.Tier(f.Tier),
		ContactName:  f.ContactName,
	}
	var err error
	if req.PeriodStart, err = parseDate("period_start", f.PeriodStart); err != nil {
		return req, err
	}
	if req.PeriodEnd, err = parseDate("period_end", f.PeriodEnd); err != nil {
		return req, err
	}
	return req, nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ErrValidation{Field: field, Message: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// Screenshot is an inline image supplied to the render endpoint
type Screenshot struct {
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data"` // base64 in JSON
}

// RenderRequest re-renders an edited draft without any model call
type RenderRequest struct {
	ReportFields
	Draft       types.Draft                  `json:"draft"`
	Screenshots []Screenshot                 `json:"screenshots,omitempty"`
	Placement   map[string]types.SectionName `json:"placement,omitempty"`
	Captions    map[string]string            `json:"captions,omitempty"`
	To          string                       `json:"to,omitempty"`
	PDF         bool                         `json:"pdf,omitempty"`
}

// ReportResponse carries every artifact of one report
type ReportResponse struct {
	RunID       string                       `json:"run_id"`
	Subject     string                       `json:"subject"`
	HTML        string                       `json:"html"`
	PreviewHTML string                       `json:"preview_html"`
	EML         []byte                       `json:"eml"`
	PDF         []byte                       `json:"pdf,omitempty"`
	PDFError    string                       `json:"pdf_error,omitempty"`
	Draft       types.Draft                  `json:"draft"`
	Evidence    *types.EvidenceBundle        `json:"evidence,omitempty"`
	Placement   map[string]types.SectionName `json:"placement"`
	Captions    map[string]string            `json:"captions"`
	ContentIDs  []string                     `json:"content_ids"`
	Unresolved  []string                     `json:"unresolved_placeholders,omitempty"`
	Notes       []string                     `json:"notes"`
}

func newReportResponse(s *pipeline.Session, includeEvidence bool) ReportResponse {
	resp := ReportResponse{
		RunID:       s.RunID.String(),
		Subject:     s.Draft.Subject,
		HTML:        s.Output.HTML,
		PreviewHTML: s.Output.PreviewHTML,
		EML:         s.Output.EML,
		PDF:         s.Output.PDF,
		Draft:       s.Draft,
		Placement:   s.Placement,
		Captions:    s.Captions,
		ContentIDs:  s.Output.ContentIDs,
		Notes:       s.Notes(),
	}
	if resp.ContentIDs == nil {
		resp.ContentIDs = []string{}
	}
	if s.Output.PDFError != nil {
		resp.PDFError = s.Output.PDFError.Error()
	}
	for _, tok := range s.Output.Unresolved {
		resp.Unresolved = append(resp.Unresolved, string(tok))
	}
	if includeEvidence {
		bundle := s.Evidence.Bundle
		resp.Evidence = &bundle
	}
	return resp
}

// reportForm is a parsed POST /v1/reports body
type reportForm struct {
	Request         types.ReportRequest
	To              string
	PDF             bool
	StrictGrounding bool
}

// parseReportForm reads the multipart form: report fields as values and
// every uploaded file under "files".
func parseReportForm(r *http.Request) (*reportForm, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "expected multipart/form-data: " + err.Error()}
	}

	fields := ReportFields{
		ClientName:   r.FormValue("client_name"),
		Website:      r.FormValue("website"),
		MonthLabel:   r.FormValue("month_label"),
		PeriodStart:  r.FormValue("period_start"),
		PeriodEnd:    r.FormValue("period_end"),
		DashboardURL: r.FormValue("dashboard_url"),
		Notes:        r.FormValue("notes"),
		Tier:         r.FormValue("tier"),
		ContactName:  r.FormValue("contact_name"),
	}
	req, err := fields.toRequest()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Notes) == "" {
		return nil, &ErrValidation{Field: "notes", Message: "notes are required"}
	}

	for _, fh := range r.MultipartForm.File["files"] {
		upload, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		req.Uploads = append(req.Uploads, upload)
	}

	to := strings.TrimSpace(r.FormValue("to"))
	if err := validateRecipients(to); err != nil {
		return nil, err
	}

	return &reportForm{
		Request:         req,
		To:              to,
		PDF:             cast.ToBool(r.FormValue("pdf")),
		StrictGrounding: cast.ToBool(r.FormValue("strict_grounding")),
	}, nil
}

func validateRecipients(to string) error {
	if to == "" {
		return nil
	}
	if _, err := mail.ParseAddressList(to); err != nil {
		return &ErrValidation{Field: "to", Message: err.Error()}
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) (types.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return types.Upload{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return types.Upload{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = "" // let content sniffing decide
	}
	return types.Upload{Name: filepath.Base(fh.Filename), Data: data, MIMEType: mimeType}, nil
}

// options builds pipeline options from server defaults and per-request overrides.
func (s *Server) options(req types.ReportRequest, to string, pdf, strict bool) pipeline.Options {
	if to == "" {
		to = s.defaults.To
	}
	opts := pipeline.Options{
		Request:         req,
		Limits:          s.defaults.Limits,
		StrictGrounding: strict || s.defaults.StrictGrounding,
		TemplatePath:    s.defaults.TemplatePath,
		Sender:          s.defaults.Sender,
		Mail:            mailer.Options{From: s.defaults.From, To: to},
		PDF:             pdf,
		PDFOptions:      s.defaults.PDFOptions,
		Logger:          s.logger,
		Now:             s.now,
	}
	if s.store != nil {
		opts.Archive = s.store
	}
	return opts
}

// handleCreateReport runs the full pipeline synchronously
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	form, err := parseReportForm(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	opts := s.options(form.Request, form.To, form.PDF, form.StrictGrounding)
	session, err := pipeline.Run(r.Context(), s.client, opts)
	if err != nil {
		s.logger.Error("report failed", "error", err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, newReportResponse(session, true))
}

// handleCreateReportStream runs the pipeline and streams progress via SSE
func (s *Server) handleCreateReportStream(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	form, err := parseReportForm(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.options(form.Request, form.To, form.PDF, form.StrictGrounding)
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		// The final event carries the full report.
		event.Content = nil
		if err := sse.WriteEvent("step", event); err != nil {
			s.logger.Warn("failed to write SSE event", "error", err)
		}
	}

	session, err := pipeline.Run(r.Context(), s.client, opts)
	if err != nil {
		s.logger.Error("report failed", "error", err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(newReportResponse(session, true))
}

// handleRender re-renders an edited draft. No model call is made.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var body RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := body.toRequest()
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	for _, shot := range body.Screenshots {
		name := filepath.Base(strings.TrimSpace(shot.FileName))
		if !types.IsScreenshotName(name) {
			err := &ErrValidation{Field: "screenshots", Message: fmt.Sprintf("%q is not an image file name", shot.FileName)}
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		req.Uploads = append(req.Uploads, types.Upload{Name: name, Data: shot.Data, MIMEType: shot.MIMEType})
	}

	to := strings.TrimSpace(body.To)
	if err := validateRecipients(to); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	opts := s.options(req, to, body.PDF, false)
	session := pipeline.NewSession(req, body.Draft, opts)
	if err := pipeline.Rerender(r.Context(), session, pipeline.Edits{
		Placement: body.Placement,
		Captions:  body.Captions,
	}); err != nil {
		s.logger.Error("render failed", "error", err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, newReportResponse(session, false))
}
