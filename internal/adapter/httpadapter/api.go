package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/heatwatch-service/internal/dataset"
	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/forecast"
	"github.com/couchcryptid/heatwatch-service/internal/outlook"
	"github.com/couchcryptid/heatwatch-service/internal/search"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 8 << 20

var validate = validator.New()

// OutlookService builds outlooks for a resolved location.
type OutlookService interface {
	Outlook(ctx context.Context, loc domain.LocationCandidate) (outlook.Outlook, error)
}

// ModelService trains and describes the forecast model.
type ModelService interface {
	Train(records []domain.HistoricalRecord) (forecast.TrainReport, error)
	State() forecast.ModelState
	Dataset() []domain.HistoricalRecord
	Classify(tempC float64) domain.RiskTier
}

// WatchlistReader exposes the latest watchlist refresh.
type WatchlistReader interface {
	Snapshot() outlook.Snapshot
}

// RequestService drives the subscriber request lifecycle.
type RequestService interface {
	List() []domain.SubscriberRequest
	Get(id string) (domain.SubscriberRequest, error)
	Create(ctx context.Context, form domain.SubscriptionForm, location domain.LocationCandidate) (domain.SubscriberRequest, error)
	GenerateReply(ctx context.Context, id string, lang domain.Language) (domain.SubscriberRequest, error)
	MarkSent(ctx context.Context, id string) (domain.SubscriberRequest, error)
}

// Services bundles the components served under /api. Reports may be nil when
// no AI provider is configured.
type Services struct {
	Outlook   OutlookService
	Geocoder  domain.Geocoder
	Model     ModelService
	Watchlist WatchlistReader
	Requests  RequestService
	Reports   domain.ReportGenerator
}

type api struct {
	svc    Services
	logger *slog.Logger
}

func newAPI(svc Services, logger *slog.Logger) *api {
	return &api{svc: svc, logger: logger}
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/outlook", a.handleOutlook)
	mux.HandleFunc("GET /api/locations/search", a.handleSearch)
	mux.HandleFunc("GET /api/locations/resolve", a.handleResolve)
	mux.HandleFunc("GET /api/report", a.handleReport)
	mux.HandleFunc("GET /api/model", a.handleModelState)
	mux.HandleFunc("GET /api/model/dataset", a.handleDataset)
	mux.HandleFunc("POST /api/model/train", a.handleTrain)
	mux.HandleFunc("GET /api/watchlist", a.handleWatchlist)
	mux.HandleFunc("GET /api/requests", a.handleListRequests)
	mux.HandleFunc("POST /api/requests", a.handleCreateRequest)
	mux.HandleFunc("GET /api/requests/{id}", a.handleGetRequest)
	mux.HandleFunc("POST /api/requests/{id}/reply", a.handleGenerateReply)
	mux.HandleFunc("POST /api/requests/{id}/send", a.handleMarkSent)
}

// --- request bodies ---

type locationBody struct {
	Name    string  `json:"name" validate:"required"`
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

func (l locationBody) candidate() domain.LocationCandidate {
	return domain.LocationCandidate{
		DisplayName: strings.TrimSpace(l.Name),
		Latitude:    l.Lat,
		Longitude:   l.Lon,
		Country:     strings.TrimSpace(l.Country),
		Region:      strings.TrimSpace(l.State),
	}
}

type outlookBody struct {
	Query    string        `json:"query"`
	Location *locationBody `json:"location"`
}

type subscriptionBody struct {
	Name     string       `json:"name" validate:"required,max=200"`
	Contact  string       `json:"contact" validate:"required,max=200"`
	Question string       `json:"question" validate:"max=2000"`
	Location locationBody `json:"location"`
}

type replyBody struct {
	Language string `json:"language"`
}

// decode reads a JSON body. An empty body leaves v untouched when optional is set.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

// --- handlers ---

func (a *api) handleOutlook(w http.ResponseWriter, r *http.Request) {
	var body outlookBody
	if err := decode(w, r, &body, false); err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	var loc domain.LocationCandidate
	switch {
	case body.Location != nil:
		if err := check(body.Location); err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		loc = body.Location.candidate()
	case strings.TrimSpace(body.Query) != "":
		resolved, ok, err := a.svc.Geocoder.ResolveOne(r.Context(), strings.TrimSpace(body.Query))
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		if !ok {
			writeError(w, r, a.logger, fmt.Errorf("%w: no place matches %q", domain.ErrNotFound, body.Query))
			return
		}
		loc = resolved
	default:
		writeError(w, r, a.logger, fmt.Errorf("%w: query or location is required", domain.ErrValidation))
		return
	}

	result, err := a.svc.Outlook.Outlook(r.Context(), loc)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) < search.MinQueryLength {
		sharedobs.WriteJSON(w, http.StatusOK, []domain.LocationCandidate{})
		return
	}

	results, err := a.svc.Geocoder.Search(r.Context(), q, search.ResultLimit)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	results = domain.DedupeCandidates(results)
	if results == nil {
		results = []domain.LocationCandidate{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, results)
}

func (a *api) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, a.logger, fmt.Errorf("%w: q is required", domain.ErrInvalidInput))
		return
	}

	loc, ok, err := a.svc.Geocoder.ResolveOne(r.Context(), q)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if !ok {
		writeError(w, r, a.logger, fmt.Errorf("%w: no place matches %q", domain.ErrNotFound, q))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, loc)
}

func (a *api) handleReport(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, a.logger, fmt.Errorf("%w: q is required", domain.ErrInvalidInput))
		return
	}
	lang, err := domain.ParseLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if a.svc.Reports == nil {
		writeError(w, r, a.logger, fmt.Errorf("%w: location reports are not configured", domain.ErrProviderUnavailable))
		return
	}

	report, err := a.svc.Reports.Report(r.Context(), q, lang)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (a *api) handleModelState(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.svc.Model.State())
}

// handleTrain accepts a dataset as a JSON array, CSV, or XLSX body, chosen by
// Content-Type.
func (a *api) handleTrain(w http.ResponseWriter, r *http.Request) {
	format, err := datasetFormat(r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	records, err := dataset.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		writeError(w, r, a.logger, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	report, err := a.svc.Model.Train(records)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, struct {
		Report forecast.TrainReport `json:"report"`
		State  forecast.ModelState  `json:"state"`
	}{report, a.svc.Model.State()})
}

type datasetRow struct {
	domain.HistoricalRecord
	RiskTier domain.RiskTier `json:"riskLevel"`
}

type datasetResponse struct {
	Total   int          `json:"total"`
	Records []datasetRow `json:"records"`
}

// handleDataset lists the training records, each with the risk tier of its
// average temperature. ?limit=N returns only the first N rows.
func (a *api) handleDataset(w http.ResponseWriter, r *http.Request) {
	records := a.svc.Model.Dataset()

	n := len(records)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, a.logger, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		n = min(n, limit)
	}

	rows := make([]datasetRow, 0, n)
	for _, rec := range records[:n] {
		rows = append(rows, datasetRow{HistoricalRecord: rec, RiskTier: a.svc.Model.Classify(rec.AvgTemp)})
	}
	sharedobs.WriteJSON(w, http.StatusOK, datasetResponse{Total: len(records), Records: rows})
}

func datasetFormat(r *http.Request) (dataset.Format, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return dataset.FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", fmt.Errorf("%w: content type: %w", domain.ErrInvalidInput, err)
	}
	switch mediaType {
	case "application/json":
		return dataset.FormatJSON, nil
	case "text/csv":
		return dataset.FormatCSV, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return dataset.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %w: %s", domain.ErrInvalidInput, dataset.ErrUnsupportedFormat, mediaType)
	}
}

func (a *api) handleWatchlist(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.svc.Watchlist.Snapshot())
}

func (a *api) handleListRequests(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, a.svc.Requests.List())
}

func (a *api) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := a.svc.Requests.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, req)
}

func (a *api) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body subscriptionBody
	if err := decode(w, r, &body, false); err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if err := check(body); err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	req, err := a.svc.Requests.Create(r.Context(), domain.SubscriptionForm{
		Name:     body.Name,
		Contact:  body.Contact,
		Question: body.Question,
	}, body.Location.candidate())
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, req)
}

func (a *api) handleGenerateReply(w http.ResponseWriter, r *http.Request) {
	var body replyBody
	if err := decode(w, r, &body, true); err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	if body.Language == "" {
		body.Language = r.URL.Query().Get("lang")
	}
	lang, err := domain.ParseLanguage(body.Language)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}

	req, err := a.svc.Requests.GenerateReply(r.Context(), r.PathValue("id"), lang)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, req)
}

func (a *api) handleMarkSent(w http.ResponseWriter, r *http.Request) {
	req, err := a.svc.Requests.MarkSent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, req)
}
