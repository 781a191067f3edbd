package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogdex/internal/db"
	"github.com/kailas-cloud/catalogdex/internal/domain"
	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/metrics"
	healthuc "github.com/kailas-cloud/catalogdex/internal/usecase/health"
)

// HeaderUserID identifies the calling user for subscription lookups.
const HeaderUserID = "X-User-ID"

const (
	facetParamPrefix = "facet."
	maxBulkBodyBytes = 64 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Config bounds paging on the search routes.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Server serves the catalogdex HTTP API.
type Server struct {
	search        SearchService
	datasets      DatasetService
	indexing      IndexingService
	catalogs      CatalogService
	counts        CountsService
	health        HealthService
	logger        *zap.Logger
	cfg           Config
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search SearchService,
	datasets DatasetService,
	indexing IndexingService,
	catalogs CatalogService,
	counts CountsService,
	health HealthService,
	logger *zap.Logger,
	cfg Config,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = request.DefaultSize
	}
	if cfg.MaxPageSize <= 0 || cfg.MaxPageSize > request.MaxSize {
		cfg.MaxPageSize = request.MaxSize
	}
	s := &Server{
		search:   search,
		datasets: datasets,
		indexing: indexing,
		catalogs: catalogs,
		counts:   counts,
		health:   health,
		logger:   logger,
		cfg:      cfg,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDatasetNotFound, http.StatusNotFound, ErrorCodeDatasetNotFound),
		sentinelHandler(domain.ErrCatalogNotFound, http.StatusNotFound, ErrorCodeCatalogNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidPartition, http.StatusBadRequest, ErrorCodeInvalidPartition),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, ErrorCodeInvalidDocument),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
		storeErrorHandler,
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/partitions/{partition}", func(r gochi.Router) {
		r.Get("/datasets", s.SearchDatasets)
		r.Post("/datasets", s.CreateDataset)
		r.Post("/datasets/search", s.SearchDatasetsBody)
		r.Post("/datasets/bulk", s.CreateDatasetsBulk)
		r.Get("/datasets/{id}", s.GetDataset)
		r.Put("/datasets/{id}", s.UpdateDataset)
		r.Delete("/datasets/{id}", s.DeleteDataset)
		r.Get("/datasets/{id}/subscribers", s.GetSubscribers)
		r.Put("/catalogs/{path}", s.PutCatalog)
		r.Get("/catalogs/{path}", s.GetCatalog)
		r.Get("/counts", s.GetCounts)
	})
}

// Routes returns a bare router with the API mounted.
func (s *Server) Routes() http.Handler {
	r := gochi.NewRouter()
	s.Register(r)
	return r
}

// SearchDatasets handles GET /partitions/{partition}/datasets.
func (s *Server) SearchDatasets(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}

	query := r.URL.Query()
	var params request.Params
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &params.Term},
		{"scope", &params.Scope},
		{"catalog", &params.Catalog},
		{"exclude_id", &params.ExcludeID},
		{"from", &params.From},
		{"size", &params.Size},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter %s", b.name))
			return
		}
	}

	for key, values := range query {
		name, found := strings.CutPrefix(key, facetParamPrefix)
		if !found {
			continue
		}
		if params.Facets == nil {
			params.Facets = make(map[string]request.Selection)
		}
		params.Facets[name] = selectionFromQuery(values)
	}

	s.runSearch(w, r, partition, params)
}

// SearchDatasetsBody handles POST /partitions/{partition}/datasets/search.
func (s *Server) SearchDatasetsBody(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}

	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	params := request.Params{
		Term:      body.Term,
		Scope:     body.Scope,
		Catalog:   body.Catalog,
		ExcludeID: body.ExcludeID,
		From:      derefInt(body.From),
		Size:      derefInt(body.Size),
	}
	if len(body.Facets) > 0 {
		params.Facets = make(map[string]request.Selection, len(body.Facets))
		for name, raw := range body.Facets {
			sel, err := selectionFromJSON(name, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
				return
			}
			params.Facets[name] = sel
		}
	}

	s.runSearch(w, r, partition, params)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, partition string, params request.Params) {
	if params.Size == 0 {
		params.Size = s.cfg.DefaultPageSize
	}
	if params.Size > s.cfg.MaxPageSize {
		params.Size = s.cfg.MaxPageSize
	}

	req, err := request.New(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	env, err := s.search.Search(r.Context(), partition, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelopeToResponse(&env, req.From(), req.Size()))
}

// GetDataset handles GET /partitions/{partition}/datasets/{id}.
func (s *Server) GetDataset(w http.ResponseWriter, r *http.Request) {
	partition, id, ok := s.datasetParams(w, r)
	if !ok {
		return
	}

	view, err := s.datasets.Get(r.Context(), partition, id, r.Header.Get(HeaderUserID))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, viewToResponse(&view))
}

// GetSubscribers handles GET /partitions/{partition}/datasets/{id}/subscribers.
func (s *Server) GetSubscribers(w http.ResponseWriter, r *http.Request) {
	partition, id, ok := s.datasetParams(w, r)
	if !ok {
		return
	}

	ids, err := s.datasets.Subscribers(r.Context(), partition, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SubscribersResponse{SubscriberIDs: ids})
}

// CreateDataset handles POST /partitions/{partition}/datasets.
func (s *Server) CreateDataset(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}

	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	id, err := s.indexing.CreateOne(r.Context(), partition, doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateResponse{ID: id})
}

// CreateDatasetsBulk handles POST /partitions/{partition}/datasets/bulk.
// Responds 200 when the batch became searchable within the wait bound, 202 otherwise.
func (s *Server) CreateDatasetsBulk(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBulkBodyBytes)).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	docs := make([]domds.Document, 0, len(raw))
	for i, item := range raw {
		doc, err := domds.Parse(item)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeInvalidDocument, fmt.Sprintf("document %d: %s", i, err))
			return
		}
		docs = append(docs, doc)
	}

	indexed, err := s.indexing.CreateMany(r.Context(), partition, docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if !indexed {
		status = http.StatusAccepted
	}
	writeJSON(w, status, BulkResponse{Indexed: indexed, Count: len(docs)})
}

// UpdateDataset handles PUT /partitions/{partition}/datasets/{id}.
func (s *Server) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	partition, id, ok := s.datasetParams(w, r)
	if !ok {
		return
	}

	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	if err := s.indexing.UpdateOne(r.Context(), partition, id, doc); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDataset handles DELETE /partitions/{partition}/datasets/{id}.
func (s *Server) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	partition, id, ok := s.datasetParams(w, r)
	if !ok {
		return
	}

	if err := s.indexing.DeleteOne(r.Context(), partition, id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutCatalog handles PUT /partitions/{partition}/catalogs/{path}.
func (s *Server) PutCatalog(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}
	path, ok := s.pathParam(w, r, "path")
	if !ok {
		return
	}

	var body CatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fields, err := fieldsFromRequest(body.Fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	meta, err := s.catalogs.Put(r.Context(), partition, domcat.Path(path), fields, categoriesFromRequest(body.Categories))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, catalogToResponse(meta))
}

// GetCatalog handles GET /partitions/{partition}/catalogs/{path}.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}
	path, ok := s.pathParam(w, r, "path")
	if !ok {
		return
	}

	meta, err := s.catalogs.Get(r.Context(), partition, domcat.Path(path))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, catalogToResponse(meta))
}

// GetCounts handles GET /partitions/{partition}/counts.
func (s *Server) GetCounts(w http.ResponseWriter, r *http.Request) {
	partition, ok := s.pathParam(w, r, "partition")
	if !ok {
		return
	}

	counts, err := s.counts.Counts(r.Context(), partition)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if counts == nil {
		counts = map[string]int64{}
	}

	writeJSON(w, http.StatusOK, CountsResponse{Partition: partition, Counts: counts})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, gochi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter %s", name))
		return "", false
	}
	return value, true
}

func (s *Server) datasetParams(w http.ResponseWriter, r *http.Request) (partition, id string, ok bool) {
	if partition, ok = s.pathParam(w, r, "partition"); !ok {
		return "", "", false
	}
	if id, ok = s.pathParam(w, r, "id"); !ok {
		return "", "", false
	}
	return partition, id, true
}

func readDocument(w http.ResponseWriter, r *http.Request) (domds.Document, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, domds.MaxDocumentSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return domds.Document{}, false
	}
	doc, err := domds.Parse(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidDocument, err.Error())
		return domds.Document{}, false
	}
	return doc, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDatasetNotFound,
		domain.ErrCatalogNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidPartition,
		domain.ErrInvalidDocument,
		domain.ErrInvalidSchema,
		domain.ErrInvalidRequest,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// storeErrorHandler maps driver failures to 503.
func storeErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable, "store unavailable")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
