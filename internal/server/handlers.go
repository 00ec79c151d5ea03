package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"

	"github.com/cleared-dev/tradeimport/internal/export"
	"github.com/cleared-dev/tradeimport/internal/importer"
	"github.com/cleared-dev/tradeimport/internal/mapping"
	"github.com/cleared-dev/tradeimport/internal/model"
	"github.com/cleared-dev/tradeimport/internal/pipeline"
	"github.com/cleared-dev/tradeimport/internal/source"
)

// APIResponse wraps every JSON reply.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// DetectResponse is the data of POST /v1/detect.
type DetectResponse struct {
	AdapterID  string   `json:"adapter_id"`
	Candidates []string `json:"candidates"`
	Confidence float64  `json:"confidence"`
}

// MappingRequest is the data of a 202 reply: what the client needs to build a mapping.
type MappingRequest struct {
	RequestID       string                 `json:"request_id"`
	Headers         []string               `json:"headers"`
	SampleRows      [][]string             `json:"sample_rows"`
	ProposedMapping model.UniversalMapping `json:"proposed_mapping"`
	Candidates      []string               `json:"candidates"`
	Delimiter       string                 `json:"delimiter"`
}

// MappingSubmission is the body of POST /v1/mapping/{requestID}.
type MappingSubmission struct {
	Mapping model.UniversalMapping `json:"mapping"`
	Locale  string                 `json:"locale,omitempty"`
}

// ProposeRequest is the body of POST /v1/mapping/propose.
type ProposeRequest struct {
	Headers []string `json:"headers"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	text, err := source.Decode(file)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	det := s.engine.Registry().Detect(text.Sample(s.engine.SampleBytes()))
	writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: DetectResponse{
		AdapterID:  det.ID,
		Candidates: nonNil(det.Candidates),
		Confidence: det.Confidence,
	}})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	file, err := s.readUpload(w, r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	q := r.URL.Query()
	loc := q.Get("locale")

	if adapterID := q.Get("adapter"); adapterID != "" {
		res, err := s.engine.Parse(file, loc, adapterID)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: export.NewDocument(res)})
		return
	}

	out, err := s.engine.Import(file, loc)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if out.Result != nil {
		writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: export.NewDocument(out.Result)})
		return
	}

	req := out.Mapping
	session := mapping.NewSession()
	if _, err := session.Resolve(model.UnknownAdapter, req.Headers); err != nil {
		s.writeFailure(w, err)
		return
	}
	id := req.RequestID.String()
	s.pending.Set(id, &pendingImport{file: file, locale: loc, session: session}, cache.DefaultExpiration)
	s.logger.Info("mapping required", "request_id", id, "file", file.Name(), "size", humanize.Bytes(uint64(file.Size())))

	writeJSON(w, http.StatusAccepted, APIResponse{
		Status:  "requires_mapping",
		Message: "format not recognized; submit a column mapping",
		Data: MappingRequest{
			RequestID:       id,
			Headers:         nonNil(req.Headers),
			SampleRows:      req.SampleRows,
			ProposedMapping: req.ProposedMapping,
			Candidates:      nonNil(req.Candidates),
			Delimiter:       string(req.Delimiter),
		},
	})
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["requestID"]
	v, ok := s.pending.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired mapping request")
		return
	}
	p := v.(*pendingImport)

	var sub MappingSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.session.Apply(sub.Mapping); err != nil {
		s.writeFailure(w, err)
		return
	}
	m, err := p.session.Confirm()
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	loc := p.locale
	if sub.Locale != "" {
		loc = sub.Locale
	}
	res, err := s.engine.ParseWithMapping(p.file, m, loc)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.pending.Delete(id)
	writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: export.NewDocument(res)})
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: mapping.Propose(req.Headers)})
}

func (s *Server) handleAdapters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Status: "success", Data: s.engine.Registry().IDs()})
}

// readUpload takes the "file" part of a multipart form, or else the raw body named
// by the "name" query parameter.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (source.File, error) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		part, hdr, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer part.Close()
		return source.FromReader(hdr.Filename, hdr.Header.Get("Content-Type"), part)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}
	return source.FromReader(name, r.Header.Get("Content-Type"), r.Body)
}

// writeFailure maps engine errors onto status codes.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var (
		tooLarge    *http.MaxBytesError
		mimeErr     *source.UnsupportedMIMEError
		unreadable  *source.UnreadableFileError
		unknownFmt  *pipeline.UnknownFormatError
		unknownAdp  *pipeline.UnknownAdapterError
		incomplete  *mapping.IncompleteMappingError
		badHeader   *mapping.UnknownHeaderError
		missingCols *importer.MissingColumnsError
		badLocale   *pipeline.LocaleError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &mimeErr):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, source.ErrEmptyFile), errors.As(err, &unreadable),
		errors.As(err, &incomplete), errors.As(err, &badHeader), errors.As(err, &missingCols):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &unknownFmt), errors.As(err, &unknownAdp), errors.Is(err, http.ErrMissingFile),
		errors.Is(err, mapping.ErrWrongState), errors.Is(err, mapping.ErrUnknownField), errors.As(err, &badLocale):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Status: "error", Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
