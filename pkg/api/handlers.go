package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/coolbeans/ctlcat/pkg/catalog"
	"github.com/coolbeans/ctlcat/pkg/config"
	"github.com/coolbeans/ctlcat/pkg/controlid"
	"github.com/coolbeans/ctlcat/pkg/outline"
	"github.com/coolbeans/ctlcat/pkg/part"
	"github.com/coolbeans/ctlcat/pkg/source"
)

// statementRequest carries one control statement. StatementID wins over
// ControlID when both are present.
type statementRequest struct {
	ControlID   string `json:"control_id"`
	StatementID string `json:"statement_id"`
	Text        string `json:"text"`
}

type structuralResponse struct {
	Error     string `json:"error"`
	ControlID string `json:"control_id,omitempty"`
	Line      int    `json:"line"`
	Text      string `json:"text"`
	Depth     int    `json:"depth"`
	Missing   int    `json:"missing"`
}

func statementParser(cfg config.Config) *outline.Parser {
	opts := []outline.Option{outline.WithTrimContinuation(cfg.TrimContinuation)}
	if cfg.OnStructuralError == catalog.PolicyProse {
		opts = append(opts, outline.WithOrphanPolicy(outline.OrphanAsProse))
	}
	return outline.NewParser(opts...)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)

	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sid := strings.TrimSpace(req.StatementID)
	if sid == "" && strings.TrimSpace(req.ControlID) != "" {
		sid = controlid.StatementID(req.ControlID)
	}
	if sid == "" {
		jsonError(w, "statement_id or control_id is required", http.StatusBadRequest)
		return
	}

	root, err := s.parser.Parse(req.Text, sid)
	if err != nil {
		var serr *outline.StructuralError
		if errors.As(err, &serr) {
			writeStructural(w, "", serr)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, part.Statement(root, sid))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)

	cfg := s.cfg
	if title := strings.TrimSpace(r.URL.Query().Get("title")); title != "" {
		cfg.Title = title
	}
	if strings.TrimSpace(cfg.Title) == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	reader, err := source.NewReader(cfg.Source)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rows, err := reader.Read(r.Body)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	builder, err := catalog.NewBuilder(cfg.BuilderOptions(s.log))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, report, err := builder.Build(r.Context(), rows)
	if err != nil {
		var cerr *catalog.ControlError
		var serr *outline.StructuralError
		switch {
		case errors.As(err, &serr) && errors.As(err, &cerr):
			writeStructural(w, cerr.ControlID, serr)
		case errors.Is(err, catalog.ErrInvalidRow):
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("X-Ctlcat-Controls", strconv.Itoa(report.Controls))
	w.Header().Set("X-Ctlcat-Skipped", strconv.Itoa(len(report.Skipped)))
	writeJSON(w, http.StatusOK, doc)
}

func writeStructural(w http.ResponseWriter, controlID string, serr *outline.StructuralError) {
	msg := serr.Error()
	if controlID != "" {
		msg = fmt.Sprintf("control %s: %s", controlID, msg)
	}
	writeJSON(w, http.StatusUnprocessableEntity, structuralResponse{
		Error:     msg,
		ControlID: controlID,
		Line:      serr.Line,
		Text:      serr.Text,
		Depth:     serr.Depth,
		Missing:   serr.Missing,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
