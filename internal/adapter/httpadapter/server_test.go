package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/forecast"
	"github.com/couchcryptid/heatwatch-service/internal/outlook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fakeOutlook struct {
	err error
	got domain.LocationCandidate
}

func (f *fakeOutlook) Outlook(_ context.Context, loc domain.LocationCandidate) (outlook.Outlook, error) {
	f.got = loc
	if f.err != nil {
		return outlook.Outlook{}, f.err
	}
	return outlook.Outlook{
		Location:    loc,
		Current:     domain.CurrentConditions{TemperatureC: 36.1},
		CurrentRisk: domain.RiskHigh,
		Forecast:    []domain.PredictionPoint{{DayLabel: "Mon", ISODate: "2024-06-03", TemperatureC: 37, RiskTier: domain.RiskHigh, Confidence: 0.9}},
	}, nil
}

type fakeGeocoder struct {
	results []domain.LocationCandidate
	err     error
	calls   int
}

func (f *fakeGeocoder) Search(_ context.Context, _ string, limit int) ([]domain.LocationCandidate, error) {
	f.calls++
	if len(f.results) > limit {
		return f.results[:limit], f.err
	}
	return f.results, f.err
}

func (f *fakeGeocoder) ResolveOne(_ context.Context, _ string) (domain.LocationCandidate, bool, error) {
	f.calls++
	if f.err != nil || len(f.results) == 0 {
		return domain.LocationCandidate{}, false, f.err
	}
	return f.results[0], true, nil
}

type fakeModel struct {
	trained []domain.HistoricalRecord
}

func (f *fakeModel) Dataset() []domain.HistoricalRecord { return f.trained }

func (f *fakeModel) Classify(tempC float64) domain.RiskTier { return domain.Classify(tempC) }

func (f *fakeModel) Train(records []domain.HistoricalRecord) (forecast.TrainReport, error) {
	if len(records) == 0 {
		return forecast.TrainReport{}, fmt.Errorf("%w: empty dataset", domain.ErrInvalidInput)
	}
	f.trained = records
	return forecast.TrainReport{Accuracy: 0.9, SampleCount: len(records), Simulated: true}, nil
}

func (f *fakeModel) State() forecast.ModelState {
	return forecast.ModelState{Bias: 1.2, WeightTemp: 0.6, WeightHumidity: 0.4, TrainingSampleCount: len(f.trained)}
}

type fakeReports struct {
	err      error
	location string
	lang     domain.Language
}

func (f *fakeReports) Report(_ context.Context, location string, lang domain.Language) (domain.LocationReport, error) {
	f.location, f.lang = location, lang
	if f.err != nil {
		return domain.LocationReport{}, f.err
	}
	return domain.LocationReport{
		Location:      location,
		Language:      lang,
		NewsSummary:   "- 41C recorded on Tuesday",
		ReliefCenters: "- Ramna Park",
	}, nil
}

type fakeWatchlist struct{}

func (fakeWatchlist) Snapshot() outlook.Snapshot {
	return outlook.Snapshot{
		RefreshedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Cities:      []outlook.CityOutlook{{City: "Dhaka", Error: "weather unavailable"}},
	}
}

type fakeRequests struct {
	mu       sync.Mutex
	requests map[string]domain.SubscriberRequest
	err      error
	lang     domain.Language
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: map[string]domain.SubscriberRequest{
		"req-1": {ID: "req-1", Name: "Rahim", Contact: "rahim@example.com", Status: domain.StatusPending},
	}}
}

func (f *fakeRequests) List() []domain.SubscriberRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SubscriberRequest, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r)
	}
	return out
}

func (f *fakeRequests) Get(id string) (domain.SubscriberRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return r, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (f *fakeRequests) Create(_ context.Context, form domain.SubscriptionForm, loc domain.LocationCandidate) (domain.SubscriberRequest, error) {
	if err := domain.ValidateContact(form.Contact); err != nil {
		return domain.SubscriberRequest{}, err
	}
	r := domain.SubscriberRequest{ID: "req-2", Name: form.Name, Contact: form.Contact, Question: form.Question, Location: loc, Status: domain.StatusPending}
	f.mu.Lock()
	f.requests[r.ID] = r
	f.mu.Unlock()
	return r, nil
}

func (f *fakeRequests) GenerateReply(_ context.Context, id string, lang domain.Language) (domain.SubscriberRequest, error) {
	f.lang = lang
	if f.err != nil {
		return domain.SubscriberRequest{}, f.err
	}
	r, err := f.Get(id)
	if err != nil {
		return r, err
	}
	r.Status = domain.StatusGenerated
	r.AIReply = "Stay hydrated."
	return r, nil
}

func (f *fakeRequests) MarkSent(_ context.Context, id string) (domain.SubscriberRequest, error) {
	if f.err != nil {
		return domain.SubscriberRequest{}, f.err
	}
	r, err := f.Get(id)
	if err != nil {
		return r, err
	}
	r.Status = domain.StatusSent
	return r, nil
}

// --- helpers ---

type testDeps struct {
	outlook  *fakeOutlook
	geocoder *fakeGeocoder
	model    *fakeModel
	requests *fakeRequests
	reports  *fakeReports
}

var dhaka = domain.LocationCandidate{DisplayName: "Dhaka", Latitude: 23.81, Longitude: 90.41, Country: "Bangladesh"}

func newTestServer(readyErr error) (*httpadapter.Server, *testDeps) {
	deps := &testDeps{
		outlook:  &fakeOutlook{},
		geocoder: &fakeGeocoder{results: []domain.LocationCandidate{dhaka}},
		model:    &fakeModel{},
		requests: newFakeRequests(),
		reports:  &fakeReports{},
	}
	svc := httpadapter.Services{
		Outlook:   deps.outlook,
		Geocoder:  deps.geocoder,
		Model:     deps.model,
		Watchlist: fakeWatchlist{},
		Requests:  deps.requests,
		Reports:   deps.reports,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", svc, &mockReadiness{err: readyErr}, logger), deps
}

func do(t *testing.T, srv http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/readyz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(fmt.Errorf("watchlist not refreshed"))
	rec := do(t, srv, http.MethodGet, "/readyz", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "watchlist not refreshed", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- outlook ---

func TestOutlook_ByLocation(t *testing.T) {
	srv, deps := newTestServer(nil)
	rec := do(t, srv, http.MethodPost, "/api/outlook", "application/json",
		strings.NewReader(`{"location":{"name":" Dhaka ","lat":23.81,"lon":90.41,"country":"Bangladesh"}}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, dhaka, deps.outlook.got)
	assert.Equal(t, 0, deps.geocoder.calls, "explicit location skips geocoding")

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "High", body["currentRisk"])
}

func TestOutlook_ByQuery(t *testing.T) {
	srv, deps := newTestServer(nil)
	rec := do(t, srv, http.MethodPost, "/api/outlook", "application/json", strings.NewReader(`{"query":"dhaka"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dhaka, deps.outlook.got)
}

func TestOutlook_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(*testDeps)
		status int
	}{
		{name: "malformed json", body: `{`, status: http.StatusBadRequest},
		{name: "neither query nor location", body: `{}`, status: http.StatusUnprocessableEntity},
		{name: "latitude out of range", body: `{"location":{"name":"X","lat":91,"lon":0}}`, status: http.StatusUnprocessableEntity},
		{name: "location without name", body: `{"location":{"lat":1,"lon":1}}`, status: http.StatusUnprocessableEntity},
		{
			name:   "query not found",
			body:   `{"query":"Qzxv"}`,
			setup:  func(d *testDeps) { d.geocoder.results = nil },
			status: http.StatusNotFound,
		},
		{
			name:   "weather unavailable",
			body:   `{"query":"Dhaka"}`,
			setup:  func(d *testDeps) { d.outlook.err = fmt.Errorf("outlook: %w", domain.ErrProviderUnavailable) },
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, deps := newTestServer(nil)
			if tt.setup != nil {
				tt.setup(deps)
			}
			rec := do(t, srv, http.MethodPost, "/api/outlook", "application/json", strings.NewReader(tt.body))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

// --- locations ---

func TestSearch(t *testing.T) {
	srv, deps := newTestServer(nil)
	deps.geocoder.results = []domain.LocationCandidate{dhaka, dhaka, {DisplayName: "Dhamra", Latitude: 20.79, Longitude: 86.96, Country: "India"}}

	rec := do(t, srv, http.MethodGet, "/api/locations/search?q=Dha", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[[]domain.LocationCandidate](t, rec)
	assert.Len(t, got, 2)
}

func TestSearch_ShortQueryReturnsEmpty(t *testing.T) {
	srv, deps := newTestServer(nil)

	rec := do(t, srv, http.MethodGet, "/api/locations/search?q=+D+", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, 0, deps.geocoder.calls)
}

func TestSearch_ProviderError(t *testing.T) {
	srv, deps := newTestServer(nil)
	deps.geocoder.err = domain.ErrProviderUnavailable

	rec := do(t, srv, http.MethodGet, "/api/locations/search?q=Dhaka", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResolve(t *testing.T) {
	srv, deps := newTestServer(nil)

	rec := do(t, srv, http.MethodGet, "/api/locations/resolve?q=Dhaka", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dhaka, decodeBody[domain.LocationCandidate](t, rec))

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/locations/resolve", "", nil).Code)

	deps.geocoder.results = nil
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/locations/resolve?q=Qzxv", "", nil).Code)
}

// --- model ---

func TestTrain_JSON(t *testing.T) {
	srv, deps := newTestServer(nil)
	body := `[{"date":"2024-05-01","avgTemp":36.5,"humidity":70,"recordedAt":"Sentinel-3"}]`

	rec := do(t, srv, http.MethodPost, "/api/model/train", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, deps.model.trained, 1)

	got := decodeBody[struct {
		Report forecast.TrainReport `json:"report"`
		State  forecast.ModelState  `json:"state"`
	}](t, rec)
	assert.Equal(t, 1, got.Report.SampleCount)
	assert.Equal(t, 1, got.State.TrainingSampleCount)
}

func TestTrain_CSV(t *testing.T) {
	srv, deps := newTestServer(nil)
	body := "date,avgTemp,humidity,source\n2024-05-01,36.5,70,Sentinel-3\n2024-05-02,34.0,65,Sentinel-3\n"

	rec := do(t, srv, http.MethodPost, "/api/model/train", "text/csv; charset=utf-8", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, deps.model.trained, 2)
}

func TestTrain_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "unsupported content type", contentType: "application/pdf", body: "x"},
		{name: "bad record", contentType: "application/json", body: `[{"date":"yesterday","avgTemp":30,"humidity":50}]`},
		{name: "empty dataset", contentType: "application/json", body: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(nil)
			rec := do(t, srv, http.MethodPost, "/api/model/train", tt.contentType, strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestModelState(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/api/model", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1.2, decodeBody[forecast.ModelState](t, rec).Bias, 1e-9)
}

func TestModelDataset(t *testing.T) {
	srv, deps := newTestServer(nil)
	deps.model.trained = []domain.HistoricalRecord{
		{Date: "2024-05-01", AvgTemp: 30.5, Humidity: 70, Source: "Sentinel-3"},
		{Date: "2024-05-02", AvgTemp: 37.2, Humidity: 55, Source: "Sentinel-3"},
		{Date: "2024-05-03", AvgTemp: 41.0, Humidity: 40, Source: "Sentinel-3"},
	}

	type row struct {
		Date      string  `json:"date"`
		AvgTemp   float64 `json:"avgTemp"`
		RiskLevel string  `json:"riskLevel"`
	}
	type response struct {
		Total   int   `json:"total"`
		Records []row `json:"records"`
	}

	rec := do(t, srv, http.MethodGet, "/api/model/dataset", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[response](t, rec)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, []row{
		{Date: "2024-05-01", AvgTemp: 30.5, RiskLevel: "Low"},
		{Date: "2024-05-02", AvgTemp: 37.2, RiskLevel: "High"},
		{Date: "2024-05-03", AvgTemp: 41.0, RiskLevel: "Extreme"},
	}, got.Records)

	rec = do(t, srv, http.MethodGet, "/api/model/dataset?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeBody[response](t, rec)
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "2024-05-01", got.Records[0].Date)

	rec = do(t, srv, http.MethodGet, "/api/model/dataset?limit=-2", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelDataset_Untrained(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/api/model/dataset", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total":0,"records":[]}`, rec.Body.String())
}

// --- reports ---

func TestReport(t *testing.T) {
	srv, deps := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/api/report?q=Dhaka,+Bangladesh&lang=bn", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decodeBody[domain.LocationReport](t, rec)
	assert.Equal(t, "Dhaka, Bangladesh", report.Location)
	assert.Equal(t, domain.LanguageBN, report.Language)
	assert.Equal(t, "- 41C recorded on Tuesday", report.NewsSummary)
	assert.Equal(t, "- Ramna Park", report.ReliefCenters)
	assert.Equal(t, "Dhaka, Bangladesh", deps.reports.location)
	assert.Equal(t, domain.LanguageBN, deps.reports.lang)
}

func TestReport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "missing query", path: "/api/report?q=%20", status: http.StatusBadRequest},
		{name: "unsupported language", path: "/api/report?q=Dhaka&lang=fr", status: http.StatusBadRequest},
		{name: "provider unavailable", path: "/api/report?q=Dhaka", err: fmt.Errorf("news summary: %w", domain.ErrProviderUnavailable), status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, deps := newTestServer(nil)
			deps.reports.err = tt.err

			rec := do(t, srv, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestReport_NotConfigured(t *testing.T) {
	svc := httpadapter.Services{
		Outlook:   &fakeOutlook{},
		Geocoder:  &fakeGeocoder{},
		Model:     &fakeModel{},
		Watchlist: fakeWatchlist{},
		Requests:  newFakeRequests(),
	}
	srv := httpadapter.NewServer(":0", svc, &mockReadiness{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := do(t, srv, http.MethodGet, "/api/report?q=Dhaka", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWatchlist(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := do(t, srv, http.MethodGet, "/api/watchlist", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[outlook.Snapshot](t, rec)
	require.Len(t, snap.Cities, 1)
	assert.Equal(t, "Dhaka", snap.Cities[0].City)
}

// --- requests ---

func TestCreateRequest(t *testing.T) {
	srv, _ := newTestServer(nil)
	body := `{"name":"Ana","contact":"+8801712345678","question":"Shelters?","location":{"name":"Dhaka","lat":23.81,"lon":90.41}}`

	rec := do(t, srv, http.MethodPost, "/api/requests", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decodeBody[domain.SubscriberRequest](t, rec)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "Dhaka", got.Location.DisplayName)
}

func TestCreateRequest_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"contact":"a@b.co","location":{"name":"Dhaka"}}`},
		{name: "missing location name", body: `{"name":"Ana","contact":"a@b.co","location":{}}`},
		{name: "bad contact", body: `{"name":"Ana","contact":"not a contact","location":{"name":"Dhaka"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(nil)
			rec := do(t, srv, http.MethodPost, "/api/requests", "application/json", strings.NewReader(tt.body))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		})
	}
}

func TestGetAndListRequests(t *testing.T) {
	srv, _ := newTestServer(nil)

	rec := do(t, srv, http.MethodGet, "/api/requests", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.SubscriberRequest](t, rec), 1)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/requests/req-1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/requests/missing", "", nil).Code)
}

func TestGenerateReply(t *testing.T) {
	srv, deps := newTestServer(nil)

	rec := do(t, srv, http.MethodPost, "/api/requests/req-1/reply", "application/json", bytes.NewBufferString(`{"language":"bn"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.LanguageBN, deps.requests.lang)
	assert.Equal(t, domain.StatusGenerated, decodeBody[domain.SubscriberRequest](t, rec).Status)

	// An empty body falls back to the lang query parameter, then English.
	rec = do(t, srv, http.MethodPost, "/api/requests/req-1/reply", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.LanguageEN, deps.requests.lang)

	rec = do(t, srv, http.MethodPost, "/api/requests/req-1/reply?lang=fr", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLifecycleErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		path   string
		status int
	}{
		{name: "not found", err: fmt.Errorf("request x: %w", domain.ErrNotFound), path: "/api/requests/x/reply", status: http.StatusNotFound},
		{name: "generation failed", err: fmt.Errorf("%w: %w", domain.ErrGenerationFailed, domain.ErrProviderUnavailable), path: "/api/requests/req-1/reply", status: http.StatusBadGateway},
		{name: "in progress", err: domain.ErrAlreadyInProgress, path: "/api/requests/req-1/reply", status: http.StatusConflict},
		{name: "invalid transition", err: domain.ErrInvalidTransition, path: "/api/requests/req-1/send", status: http.StatusConflict},
		{name: "unexpected", err: fmt.Errorf("disk on fire"), path: "/api/requests/req-1/send", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, deps := newTestServer(nil)
			deps.requests.err = tt.err

			rec := do(t, srv, http.MethodPost, tt.path, "", nil)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "Internal Server Error", decodeBody[map[string]string](t, rec)["error"])
			}
		})
	}
}

func TestMarkSent(t *testing.T) {
	srv, _ := newTestServer(nil)

	rec := do(t, srv, http.MethodPost, "/api/requests/req-1/send", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusSent, decodeBody[domain.SubscriberRequest](t, rec).Status)
}
