// Package service exposes the AAGS list and page annotation over HTTP. It
// takes the place of the browser extension's background message handler.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/annotate"
	"aags-annotator/internal/catalog"
	"aags-annotator/internal/components/assert"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/subject"
	"aags-annotator/lib/htmlutil"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"
)

const (
	report_service_list       = "service.list"
	report_service_annotate   = "service.annotate"
	report_service_check      = "service.check"
	report_service_invalidate = "service.invalidate"
	report_service_encode     = "service.encode"
)

const (
	HeaderMarkers = "X-AAGS-Markers"
	HeaderWarning = "X-AAGS-Warning"
)

const defaultMaxBodyBytes = 10 << 20

// ListCache is the part of *aagslist.Cache the service uses.
//
// note: fault injection point
type ListCache interface {
	catalog.ListLoader
	Result(ctx context.Context) aagslist.Result
	Invalidate()
}

type Options struct {
	Marker            annotate.MarkerOptions
	HighlightMentions bool
	Table             annotate.TableOptions
	// MaxBodyBytes limits the size of pages posted for annotation.
	MaxBodyBytes int64
	// SuggestThreshold is the minimum similarity for check suggestions.
	SuggestThreshold float64
}

type Service struct {
	list     ListCache
	inline   catalog.Processor
	table    catalog.Processor
	maxBody  int64
	suggestT float64
	tel      telemetry.API
}

func NewService(list ListCache, opts Options, tel telemetry.API) Service {
	assert.NotNil(list, "aags list")
	assert.NotNil(tel, "telemetry")

	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.SuggestThreshold <= 0 {
		opts.SuggestThreshold = 0.9
	}
	if opts.Table == (annotate.TableOptions{}) {
		opts.Table = annotate.DefaultTableOptions()
	}

	table := opts.Table
	return Service{
		list: list,
		inline: catalog.NewProcessor(list, catalog.Options{
			Marker:            opts.Marker,
			HighlightMentions: opts.HighlightMentions,
		}, tel),
		table: catalog.NewProcessor(list, catalog.Options{
			Marker:            opts.Marker,
			HighlightMentions: opts.HighlightMentions,
			Table:             &table,
		}, tel),
		maxBody:  opts.MaxBodyBytes,
		suggestT: opts.SuggestThreshold,
		tel:      telemetry.NewScopedAPI("service", tel),
	}
}

// Handler returns the routes of the service wrapped in otel instrumentation.
func (s Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/aags", s.handleList)
	mux.HandleFunc("POST /v1/aags/invalidate", s.handleInvalidate)
	mux.HandleFunc("POST /v1/annotate", s.handleAnnotate)
	mux.HandleFunc("GET /v1/check", s.handleCheck)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return otelhttp.NewHandler(mux, "aags")
}

func (s Service) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		s.tel.ReportBroken(report_service_encode, err)
	}
}

func (s Service) handleList(w http.ResponseWriter, r *http.Request) {
	result := s.list.Result(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
		s.tel.ReportWarning(report_service_list, result.Error)
	}
	s.writeJSON(w, status, result)
}

func (s Service) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.list.Invalidate()
	s.tel.ReportDebug(report_service_invalidate)
	w.WriteHeader(http.StatusNoContent)
}

func (s Service) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	root, err := html.Parse(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	processor := s.inline
	if r.URL.Query().Get("layout") == "table" {
		processor = s.table
	}

	outcome, err := processor.Process(r.Context(), root)
	if err != nil {
		// the client went away
		s.tel.ReportDebug(report_service_annotate, err)
		return
	}

	var out bytes.Buffer
	err = html.Render(&out, root)
	if err != nil {
		s.tel.ReportBroken(report_service_annotate, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	markers := outcome.Annotation.Markers + outcome.Table.Flagged
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Header().Set(HeaderMarkers, strconv.Itoa(markers))
	if warning := outcome.Warning(); warning != "" {
		w.Header().Set(HeaderWarning, htmlutil.CleanText(warning))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

// CheckResponse is the body of GET /v1/check.
type CheckResponse struct {
	Query       string               `json:"query"`
	Subjects    []subject.Canonical  `json:"subjects"`
	Flagged     []subject.Canonical  `json:"flagged"`
	Suggestions []subject.Suggestion `json:"suggestions,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func (s Service) handleCheck(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("subject")
	res := CheckResponse{
		Query:    query,
		Subjects: subject.Parse(query),
		Flagged:  []subject.Canonical{},
	}
	if len(res.Subjects) == 0 {
		res.Subjects = []subject.Canonical{}
		res.Error = "no subject number in query"
		s.writeJSON(w, http.StatusBadRequest, res)
		return
	}

	flagged, err := s.list.Load(r.Context())
	if err != nil {
		s.tel.ReportWarning(report_service_check, err)
		res.Error = err.Error()
		s.writeJSON(w, http.StatusBadGateway, res)
		return
	}

	if matches := subject.Matches(res.Subjects, flagged); len(matches) > 0 {
		res.Flagged = matches
	} else {
		for _, parsed := range res.Subjects {
			res.Suggestions = append(res.Suggestions, subject.Suggest(parsed, flagged, s.suggestT, 3)...)
		}
	}
	s.writeJSON(w, http.StatusOK, res)
}
