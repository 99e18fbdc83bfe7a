package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/document"
)

const maxBodyBytes = 1 << 20

// HTTPServer serves the offer form and the JSON API.
type HTTPServer struct {
	svc       *OfferService
	outputDir string
	currency  string
	health    func(context.Context) error
	logger    *zap.Logger
	page      *template.Template
}

// NewHTTPServer builds the handler set. health is called by /healthz and may
// be nil.
func NewHTTPServer(svc *OfferService, outputDir, currency string, health func(context.Context) error, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{
		svc:       svc,
		outputDir: outputDir,
		currency:  currency,
		health:    health,
		logger:    logger,
		page: template.Must(template.New("page").Funcs(template.FuncMap{
			"money": document.FormatMoney,
		}).Parse(pageTemplate)),
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.withRequestLog(mux)
}

func (s *HTTPServer) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /offers", s.handleFormSubmit)
	mux.HandleFunc("POST /api/offers", s.handleGenerate)
	mux.HandleFunc("POST /api/offers/rebuild", s.handleRebuild)
	mux.HandleFunc("GET /api/offers/export", s.handleExport)
	mux.HandleFunc("GET /api/offers/{id}", s.handleGetOffer)
	mux.HandleFunc("GET /api/offers", s.handleListOffers)
	mux.HandleFunc("GET /documents/{name}", s.handleDocument)
	mux.HandleFunc("GET /api/catalog/vehicles", s.handleVehicles)
	mux.HandleFunc("GET /api/catalog/units", s.handleUnits)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// HealthResponse is the response for the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog,omitempty"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Catalog: "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Catalog: "ok"})
}

func (s *HTTPServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var in GenerateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.svc.Generate(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var in RebuildInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.svc.Rebuild(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.GetOffer(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *HTTPServer) handleListOffers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	recs, err := s.svc.ListOffers(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"offers": recs})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	b, err := s.svc.Export(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="offers.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// handleDocument serves a rendered PDF from the output directory only.
func (s *HTTPServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name != filepath.Base(name) || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusNotFound, errors.New("document not found"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, filepath.Join(s.outputDir, name))
}

func (s *HTTPServer) handleVehicles(w http.ResponseWriter, r *http.Request) {
	vs, err := s.svc.ListVehicles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vs})
}

func (s *HTTPServer) handleUnits(w http.ResponseWriter, r *http.Request) {
	us, err := s.svc.ListUnits(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": us})
}

type pageData struct {
	Text        string
	Accessories []accessoryOption
	Result      *OfferResponse
	Error       *errorBody
	Currency    string
}

type accessoryOption struct {
	Key     string
	Label   string
	Checked bool
}

func (s *HTTPServer) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageData{Accessories: accessoryOptions(nil), Currency: s.currency})
}

func (s *HTTPServer) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	in := GenerateInput{Text: r.PostForm.Get("text"), Accessories: r.PostForm["accessory"]}
	data := pageData{Text: in.Text, Accessories: accessoryOptions(in.Accessories), Currency: s.currency}

	out, err := s.svc.Generate(r.Context(), in)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Warn("http.form.failed", zap.Error(err))
		body := newErrorBody(err)
		data.Error = &body
		s.render(w, r, httpStatus(err), data)
		return
	}
	data.Result = out
	s.render(w, r, http.StatusOK, data)
}

func (s *HTTPServer) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("http.render.failed", zap.Error(err))
	}
}

func accessoryOptions(selected []string) []accessoryOption {
	checked := make(map[constants.Accessory]bool, len(selected))
	for _, raw := range selected {
		if a, ok := constants.CanonicalizeAccessory(raw); ok {
			checked[a] = true
		}
	}
	all := constants.Accessories()
	out := make([]accessoryOption, len(all))
	for i, a := range all {
		out[i] = accessoryOption{Key: string(a.Key), Label: a.Label, Checked: checked[a.Key]}
	}
	return out
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	l := common.LoggerFromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		l.Error("http.request.failed", zap.Int("status", status), zap.Error(err))
	} else {
		l.Warn("http.request.rejected", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err)
}

// httpStatus maps error codes and sentinels to HTTP status codes.
func httpStatus(err error) int {
	switch common.ErrorCode(err) {
	case common.CodeEmptyInput, common.CodeRequiredFieldMissing:
		return http.StatusBadRequest
	case common.CodeVehicleNotInCatalog:
		return http.StatusNotFound
	case common.CodeMalformedResponse, common.CodeInvalidJSON:
		return http.StatusUnprocessableEntity
	case common.CodeCompletion:
		return http.StatusBadGateway
	case "":
	default:
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = common.WithRequestID(ctx, id)
		}
		ctx, reqID := common.EnsureRequestID(ctx)
		l := s.logger.With(zap.String("req_id", reqID))
		ctx = common.WithLogger(ctx, l)
		w.Header().Set("X-Request-ID", reqID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(ctx))
		l.Info("http.request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, newErrorBody(err))
}

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Refrigerated van offer</title>
<style>
body { font-family: sans-serif; max-width: 820px; margin: 2em auto; }
textarea { width: 100%; height: 12em; }
table { border-collapse: collapse; margin-top: 1em; }
td { padding: 2px 12px 2px 0; }
.error { color: #a00; }
.warning { color: #a60; }
</style>
</head>
<body>
<h1>Generate offer</h1>
<form method="post" action="/offers">
<textarea name="text" placeholder="Client, vehicle, refrigeration unit...">{{.Text}}</textarea>
<fieldset><legend>Accessories</legend>
{{range .Accessories}}<label><input type="checkbox" name="accessory" value="{{.Key}}"{{if .Checked}} checked{{end}}> {{.Label}}</label><br>
{{end}}</fieldset>
<button type="submit">Generate</button>
</form>
{{with .Error}}<p class="error">{{.Error}}{{with .Code}} ({{.}}){{end}}{{with .Detail}}<br><code>{{.}}</code>{{end}}</p>{{end}}
{{with .Result}}
<h2>Offer {{.Offer.OfferNumber}} ({{.Offer.OfferDate}})</h2>
<table>
{{range .Summary.Lines}}<tr><td>{{.Label}}</td><td>{{money .Amount $.Currency}}</td></tr>
{{end}}<tr><td><b>Net total</b></td><td><b>{{money .Summary.NetTotal $.Currency}}</b></td></tr>
</table>
{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}{{with .DocumentName}}<p><a href="/documents/{{.}}">Download PDF</a></p>{{end}}
{{end}}
</body>
</html>
`
