package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/http/handler"
	"github.com/straye-as/jobsite-crm/internal/http/middleware"
	"github.com/straye-as/jobsite-crm/internal/http/router"
	"github.com/straye-as/jobsite-crm/internal/preferences"
	"github.com/straye-as/jobsite-crm/internal/refdata"
	"github.com/straye-as/jobsite-crm/internal/storage"
	"github.com/straye-as/jobsite-crm/internal/store"
	"github.com/straye-as/jobsite-crm/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testMaxAttachment = 1024

type testEnv struct {
	store    *store.Store
	recorder *changelog.Recorder
	prefs    *preferences.Manager
	backend  *preferences.MemoryBackend
	server   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return newTestEnvWithStorage(t, local)
}

func newTestEnvWithStorage(t *testing.T, files storage.Storage) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	clock := newTickingClock()
	recorder := changelog.NewRecorder(logger, clock.Now)
	s := store.New(recorder, logger, clock.Now)
	s.Load([]domain.Project{
		{
			ID:          1,
			Name:        "Riverside Park",
			StatusID:    "Active",
			SalesRepIDs: []domain.UserID{1, 2},
			ProjectCompanies: []domain.ProjectCompany{
				{CompanyName: "Acme Builders", RoleID: domain.RoleGeneralContractor},
			},
			AssociatedOpportunities: []domain.OpportunitySummary{
				{ID: 100001, TypeID: 1, Description: "Excavators", StageID: 1, Revenue: 250000},
			},
		},
		{
			ID:          2,
			Name:        "Harbor Tower",
			StatusID:    domain.StatusCompleted,
			SalesRepIDs: []domain.UserID{2},
		},
	}, []domain.Opportunity{
		{ID: 100001, Description: "Excavators", EstimateRevenue: 250000, StageID: 1, TypeID: 1, DivisionID: "E", ProjectID: 1},
	})

	tables := refdata.NewTables(
		[]domain.SalesRep{{ID: 1, Name: "Dana"}, {ID: 2, Name: "Lee"}},
		[]domain.OpportunityStage{{ID: 1, Name: "Lead", DisplayOrder: 1}},
		[]domain.OpportunityType{{ID: 1, Name: "Sale", DisplayOrder: 1}, {ID: 2, Name: "Rental", DisplayOrder: 2}},
		nil,
	)
	engine := views.NewEngine(s, tables)

	backend := preferences.NewMemoryBackend()
	prefs := preferences.NewManager(backend, logger)
	s.OnNoteTagsChanged(prefs.SetNoteTags)

	attachments := storage.NewAttachmentStore(files, testMaxAttachment, logger)

	cfg := &config.Config{
		App:     config.AppConfig{Environment: "development", DefaultActingUserID: 1},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
	rt := router.NewRouter(
		cfg,
		logger,
		backend,
		nil,
		nil,
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewProjectHandler(s, engine, prefs, logger),
		handler.NewOpportunityHandler(s, logger),
		handler.NewCompanyHandler(s, logger),
		handler.NewActivityHandler(s, logger),
		handler.NewNoteHandler(s, attachments, logger),
		handler.NewEquipmentHandler(s, logger),
		handler.NewPreferenceHandler(s, prefs, logger),
		handler.NewReferenceHandler(engine),
		handler.NewPipelineHandler(engine, prefs),
		handler.NewChangeLogHandler(recorder, logger),
	)

	return &testEnv{store: s, recorder: recorder, prefs: prefs, backend: backend, server: rt.Setup()}
}

// tickingClock advances one second per reading so entries never share a timestamp
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// logEntry mirrors the fields of a change-log entry the tests look at
type logEntry struct {
	ID          int64               `json:"id"`
	ProjectID   int                 `json:"projectId"`
	Action      domain.ChangeAction `json:"action"`
	ChangedByID domain.UserID       `json:"changedById"`
}

func TestProjects_ListAppliesSavedFiltersAndOverrides(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	projects := decode[[]domain.Project](t, w)
	require.Len(t, projects, 1, "completed projects are hidden by default")
	assert.Equal(t, "Riverside Park", projects[0].Name)

	w = env.do(t, http.MethodGet, "/projects?showCompleted=true", nil)
	assert.Len(t, decode[[]domain.Project](t, w), 2)

	w = env.do(t, http.MethodGet, "/projects?showCompleted=true&generalContractor=acme", nil)
	assert.Len(t, decode[[]domain.Project](t, w), 1)

	w = env.do(t, http.MethodGet, "/projects?showCompleted=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjects_CreateGetUpdate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/projects", domain.CreateProjectRequest{
		Name:        "North Quarry",
		StatusID:    "Active",
		SalesRepIDs: []domain.UserID{2},
	}, middleware.ActingUserHeader, "2")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Project](t, w)
	assert.Equal(t, 3, created.ID)
	assert.NotNil(t, created.Notes)

	w = env.do(t, http.MethodGet, "/projects/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "North Quarry", decode[domain.Project](t, w).Name)

	name := "North Quarry Phase 2"
	w = env.do(t, http.MethodPatch, "/projects/3", domain.ProjectPatch{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, name, decode[domain.Project](t, w).Name)

	// Same value again changes nothing and writes no entry
	before := env.recorder.Len()
	w = env.do(t, http.MethodPatch, "/projects/3", domain.ProjectPatch{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before, env.recorder.Len())

	w = env.do(t, http.MethodGet, "/projects/3/changelog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]logEntry](t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionProjectUpdated, entries[0].Action, "newest first")
	assert.Equal(t, domain.ActionProjectCreated, entries[1].Action)
	assert.Equal(t, domain.UserID(2), entries[1].ChangedByID)
	assert.Equal(t, domain.UserID(1), entries[0].ChangedByID, "default acting user")
}

func TestProjects_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantType   string
	}{
		{"missing name", http.MethodPost, "/projects", domain.CreateProjectRequest{StatusID: "Active", SalesRepIDs: []domain.UserID{1}}, http.StatusBadRequest, domain.ErrorTypeValidation},
		{"empty body", http.MethodPost, "/projects", nil, http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{"unknown project", http.MethodGet, "/projects/99", nil, http.StatusNotFound, domain.ErrorTypeNotFound},
		{"non-numeric id", http.MethodGet, "/projects/abc", nil, http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{"update unknown project", http.MethodPatch, "/projects/99", domain.ProjectPatch{}, http.StatusNotFound, domain.ErrorTypeNotFound},
		{"negative rate", http.MethodPatch, "/projects/1", map[string]any{"plannedAnnualRate": -1}, http.StatusBadRequest, domain.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.recorder.Len()
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, decode[domain.APIError](t, w).Type)
			assert.Equal(t, before, env.recorder.Len(), "failed requests record nothing")
		})
	}
}

func TestProjects_InvalidActingUser(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/projects", domain.CreateProjectRequest{
		Name: "X", StatusID: "Active", SalesRepIDs: []domain.UserID{1},
	}, middleware.ActingUserHeader, "nobody")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.recorder.Len())
}

func TestOpportunities_CreateAssignsNextID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/opportunities", domain.CreateOpportunityRequest{
		Description: "Loader rental", EstimateRevenue: 5000, StageID: 1, TypeID: 2, DivisionID: "R", ProjectID: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	opp := decode[domain.Opportunity](t, w)
	assert.Equal(t, 100002, opp.ID)

	project, _ := env.store.Project(1)
	assert.True(t, project.HasOpportunity(100002))

	w = env.do(t, http.MethodPost, "/opportunities", domain.CreateOpportunityRequest{
		ID: 100001, Description: "Dup", StageID: 1, TypeID: 1, DivisionID: "E", ProjectID: 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/opportunities", domain.CreateOpportunityRequest{
		Description: "Orphan", StageID: 1, TypeID: 1, DivisionID: "E", ProjectID: 42,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOpportunities_UpdateLeavesSummaryStale(t *testing.T) {
	env := newTestEnv(t)

	revenue := 300000.0
	w := env.do(t, http.MethodPatch, "/opportunities/100001", domain.OpportunityPatch{EstimateRevenue: &revenue})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, revenue, decode[domain.Opportunity](t, w).EstimateRevenue)

	project, _ := env.store.Project(1)
	assert.Equal(t, 250000.0, project.AssociatedOpportunities[0].Revenue)
}

func TestOpportunities_AssociateAndDisassociate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodDelete, "/projects/1/opportunities/100001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[domain.Project](t, w).AssociatedOpportunities)

	w = env.do(t, http.MethodDelete, "/projects/1/opportunities/100001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/projects/2/opportunities/100001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	moved := decode[domain.Project](t, w)
	assert.True(t, moved.HasOpportunity(100001))
}

func TestCompanies_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/projects/1/companies", domain.CompanyRequest{
		CompanyName: "Stone Supply",
		RoleID:      "SUP",
		CompanyContacts: []domain.ContactRequest{
			{Name: "Jo", Email: "jo@stone.example"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	company := decode[domain.ProjectCompany](t, w)
	assert.NotZero(t, company.AssociationID)

	path := "/projects/1/companies/" + itoa(company.AssociationID)

	w = env.do(t, http.MethodPost, path+"/contacts", domain.ContactRequest{Name: "Sam", Email: "sam@stone.example"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contact := decode[domain.CompanyContact](t, w)

	w = env.do(t, http.MethodPut, path+"/primary-contact", domain.PrimaryContactRequest{ContactID: contact.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	primary, ok := decode[domain.ProjectCompany](t, w).PrimaryContact()
	require.True(t, ok)
	assert.Equal(t, "Sam", primary.Name)

	w = env.do(t, http.MethodPost, path+"/contacts", domain.ContactRequest{Name: "Bad", Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/projects/2/companies/associate", domain.AssociateCompanyRequest{
		SourceProjectID: 1, AssociationID: company.AssociationID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Stone Supply", decode[domain.ProjectCompany](t, w).CompanyName)

	w = env.do(t, http.MethodDelete, "/projects/2/companies/by-name/Stone%20Supply", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivities_ValidationAndDelete(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/projects/1/activities", map[string]any{
		"assigneeId":   1,
		"activityType": "Skydiving",
		"date":         time.Now().UTC(),
		"description":  "Not a thing",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[domain.APIError](t, w).Errors, "activityType")

	w = env.do(t, http.MethodPost, "/projects/1/activities", domain.ActivityRequest{
		AssigneeID:   1,
		ActivityType: domain.ActivityTypeSiteVisit,
		Date:         time.Now().UTC(),
		Description:  "Walked the site",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	activity := decode[domain.Activity](t, w)

	w = env.do(t, http.MethodGet, "/projects/1/activities", nil)
	assert.Len(t, decode[[]domain.Activity](t, w), 1)

	w = env.do(t, http.MethodDelete, "/projects/1/activities/"+itoa(activity.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/projects/1/activities/"+itoa(activity.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEquipment_CreateUpdateDelete(t *testing.T) {
	env := newTestEnv(t)

	year := 2019
	w := env.do(t, http.MethodPost, "/projects/1/equipment", domain.EquipmentRequest{
		EquipmentType: "Excavator", Make: "Cat", Model: "320", Year: &year,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eq := decode[domain.CustomerEquipment](t, w)

	hours := 1200.5
	w = env.do(t, http.MethodPatch, "/projects/1/equipment/"+itoa(eq.ID), domain.EquipmentPatch{Hours: &hours})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, decode[domain.CustomerEquipment](t, w).Hours)

	w = env.do(t, http.MethodDelete, "/projects/1/equipment/"+itoa(eq.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func uploadRequest(t *testing.T, path, fileName string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1"+path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNotes_AttachmentUploadAndDownload(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/projects/1/notes", domain.NoteRequest{Content: "Site photos attached"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	note := decode[domain.Note](t, w)
	notePath := "/projects/1/notes/" + itoa(note.ID)

	w = httptest.NewRecorder()
	env.server.ServeHTTP(w, uploadRequest(t, notePath+"/attachments", "site.txt", []byte("gravel")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	updated := decode[domain.Note](t, w)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "site.txt", updated.Attachments[0].FileName)
	assert.Equal(t, int64(6), updated.Attachments[0].FileSize)
	assert.Len(t, updated.ModificationHistory, 1)

	w = env.do(t, http.MethodGet, notePath+"/attachments/"+updated.Attachments[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gravel", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "site.txt")

	w = env.do(t, http.MethodGet, notePath+"/attachments/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// gatedStorage holds uploads of one file name until release is closed
type gatedStorage struct {
	storage.Storage
	held    string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Upload(ctx context.Context, fileName, contentType string, data io.Reader) (string, int64, error) {
	if fileName == g.held {
		close(g.entered)
		<-g.release
	}
	return g.Storage.Upload(ctx, fileName, contentType, data)
}

func TestNotes_OverlappingUploadsKeepBothAttachments(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	gate := &gatedStorage{
		Storage: local,
		held:    "first.txt",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	env := newTestEnvWithStorage(t, gate)

	w := env.do(t, http.MethodPost, "/projects/1/notes", domain.NoteRequest{Content: "Site photos"})
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/projects/1/notes/" + itoa(decode[domain.Note](t, w).ID) + "/attachments"

	firstReq := uploadRequest(t, path, "first.txt", []byte("one"))
	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		env.server.ServeHTTP(first, firstReq)
	}()
	<-gate.entered

	second := httptest.NewRecorder()
	env.server.ServeHTTP(second, uploadRequest(t, path, "second.txt", []byte("two")))
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	close(gate.release)
	<-done
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	project, _ := env.store.Project(1)
	var names []string
	for _, a := range project.Notes[0].Attachments {
		names = append(names, a.FileName)
	}
	assert.ElementsMatch(t, []string{"first.txt", "second.txt"}, names)
	assert.Len(t, project.Notes[0].ModificationHistory, 2)
}

func TestNotes_AttachmentTooLarge(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/projects/1/notes", domain.NoteRequest{Content: "Big file"})
	require.Equal(t, http.StatusCreated, w.Code)
	note := decode[domain.Note](t, w)
	before := env.recorder.Len()

	w = httptest.NewRecorder()
	env.server.ServeHTTP(w, uploadRequest(t, "/projects/1/notes/"+itoa(note.ID)+"/attachments", "big.bin",
		bytes.Repeat([]byte("x"), testMaxAttachment+1)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, domain.ErrorTypeTooLarge, decode[domain.APIError](t, w).Type)
	assert.Equal(t, before, env.recorder.Len())

	project, _ := env.store.Project(1)
	assert.Empty(t, project.Notes[0].Attachments)
}

func TestNotes_UploadToUnknownNote(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, uploadRequest(t, "/projects/1/notes/77/attachments", "a.txt", []byte("a")))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferences_NoteTags(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/preferences/note-tags", domain.NoteTagRequest{Label: "Site hazard!", Color: domain.ColorRed})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tag := decode[domain.NoteTag](t, w)
	assert.Equal(t, "SITE_HAZARD", tag.ID)

	w = env.do(t, http.MethodPost, "/preferences/note-tags", domain.NoteTagRequest{Label: "site  hazard", Color: domain.ColorBlue})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/preferences/note-tags", domain.NoteTagRequest{Label: "Chartreuse", Color: "chartreuse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/preferences/note-tags", domain.NoteTagRequest{Label: "!!!", Color: domain.ColorRed})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Contains(t, tagIDs(env.prefs.NoteTags()), "SITE_HAZARD", "tag changes are persisted")

	w = env.do(t, http.MethodPut, "/preferences/note-tags/reorder", domain.ReorderNoteTagsRequest{IDs: []string{"SITE_HAZARD"}})
	require.Equal(t, http.StatusOK, w.Code)
	tags := decode[[]domain.NoteTag](t, w)
	assert.Equal(t, "SITE_HAZARD", tags[0].ID)
	assert.Equal(t, 1, tags[0].DisplayOrder)

	w = env.do(t, http.MethodDelete, "/preferences/note-tags/SITE_HAZARD", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/preferences/note-tags/SITE_HAZARD", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func tagIDs(tags []domain.NoteTag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

func TestPreferences_FiltersAndStatusColors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/preferences/filters", domain.Filters{ShowCompleted: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.prefs.Filters().ShowCompleted)

	w = env.do(t, http.MethodGet, "/projects", nil)
	assert.Len(t, decode[[]domain.Project](t, w), 2, "saved filters drive the list")

	w = env.do(t, http.MethodPut, "/preferences/status-colors/Active", domain.StatusColorRequest{Color: domain.ColorGreen})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ColorGreen, decode[domain.StatusColors](t, w)["Active"])

	w = env.do(t, http.MethodPut, "/preferences/status-colors/Active", domain.StatusColorRequest{Color: "teal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPipeline(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/pipeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pipeline := decode[views.Pipeline](t, w)
	assert.Equal(t, 250000.0, pipeline.TotalRevenue)
	require.Len(t, pipeline.RevenueByType, 1)
	assert.Equal(t, "Sale", pipeline.RevenueByType[0].Label)

	w = env.do(t, http.MethodGet, "/pipeline/revenue-by-type?salesRepId=99", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]views.TypeRevenue](t, w))
}

func TestReferenceEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/reference/sales-reps", nil)
	assert.Len(t, decode[[]domain.SalesRep](t, w), 2)

	w = env.do(t, http.MethodGet, "/reference/divisions", nil)
	assert.Len(t, decode[[]domain.Division](t, w), len(domain.DefaultDivisions))

	w = env.do(t, http.MethodGet, "/reference/activity-types", nil)
	assert.Len(t, decode[[]string](t, w), len(domain.ActivityTypes))
}

func TestChangeLog_ListAndExport(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/projects/1/notes", domain.NoteRequest{Content: "One"}, middleware.ActingUserHeader, "2")
	env.do(t, http.MethodPost, "/projects/2/notes", domain.NoteRequest{Content: "Two"})

	w := env.do(t, http.MethodGet, "/changelog?action=NOTE_ADDED&changedById=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]logEntry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].ProjectID)

	w = env.do(t, http.MethodGet, "/changelog?category=Note", nil)
	assert.Len(t, decode[[]logEntry](t, w), 2)

	w = env.do(t, http.MethodGet, "/changelog?action=NOTE_EXPLODED", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/changelog?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/changelog/export?projectId=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "changelog.json")
	assert.Len(t, decode[[]logEntry](t, w), 1)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/health/db", "/health/ready"} {
		w := httptest.NewRecorder()
		env.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Contains(t, w.Body.String(), `"datawarehouse"`)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func TestProjects_CreateLogsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	recorder := changelog.NewRecorder(logger, newTickingClock().Now)
	s := store.New(recorder, logger, nil)
	engine := views.NewEngine(s, refdata.NewTables(nil, nil, nil, nil))
	prefs := preferences.NewManager(preferences.NewMemoryBackend(), logger)
	h := handler.NewProjectHandler(s, engine, prefs, logger)
	logs.TakeAll()

	body, err := json.Marshal(domain.CreateProjectRequest{Name: "Quarry Road", StatusID: "Active", SalesRepIDs: []domain.UserID{1}})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := logs.FilterMessageSnippet("roject created").All()
	require.Len(t, created, 1)
	assert.Equal(t, int64(domain.LegacyAuthorID), created[0].ContextMap()["acting_user_id"])
}
