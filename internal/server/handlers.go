package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/bubblechart/pkg/buildinfo"
	"github.com/matzehuels/bubblechart/pkg/errors"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// handleRender renders one artifact. The format query parameter selects it
// (default svg).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	opts.Formats = []string{format}

	intents, err := readIntents(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.runner.ExecuteIntents(r.Context(), intents, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache-Layout", hitOrMiss(result.CacheInfo.LayoutHit))
	w.Header().Set("X-Cache-Render", hitOrMiss(result.CacheInfo.RenderHit))
	w.Header().Set("X-Bubble-Count", strconv.Itoa(result.Stats.BubbleCount))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Artifacts[format]); err != nil {
		s.logger.Debug("write render response", "err", err)
	}
}

// handleLayout computes a layout and returns it as JSON.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.parseOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	intents, err := readIntents(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	l, hit, err := s.runner.GenerateLayoutWithCacheInfo(r.Context(), intents, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := pipeline.MarshalLayout(l)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode layout"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache-Layout", hitOrMiss(hit))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("write layout response", "err", err)
	}
}

// parseOptions builds pipeline options from the server defaults and the
// request query string.
func (s *Server) parseOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Formats = nil
	q := r.URL.Query()

	for key, dst := range map[string]*string{
		"viz":    &opts.VizType,
		"policy": &opts.Policy,
		"style":  &opts.Style,
	} {
		if v := q.Get(key); v != "" {
			*dst = v
		}
	}

	for key, dst := range map[string]*float64{
		"width":      &opts.Width,
		"height":     &opts.Height,
		"padding":    &opts.Padding,
		"grid_shift": &opts.GridShift,
		"scale":      &opts.Scale,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", key, v)
		}
		*dst = f
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid seed: %q", v)
		}
		opts.Seed = seed
	}

	for key, apply := range map[string]func(bool){
		"grid":              func(b bool) { opts.NoGrid = !b },
		"no_last_row_shift": func(b bool) { opts.NoLastRowShift = b },
		"detailed":          func(b bool) { opts.Detailed = b },
		"refresh":           func(b bool) { opts.Refresh = b },
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", key, v)
		}
		apply(b)
	}

	return opts, nil
}

// readIntents decodes the request body as an intent document.
func readIntents(w http.ResponseWriter, r *http.Request) ([]intent.Intent, error) {
	format := intent.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = intent.FormatYAML
	}
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	intents, err := intent.Read(body, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode intents")
	}
	return intents, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  string(errors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func hitOrMiss(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
