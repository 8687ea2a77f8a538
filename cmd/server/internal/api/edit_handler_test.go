package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/resumedit/cmd/server/internal/factcheck"
	"github.com/houzhh15/resumedit/cmd/server/internal/history"
	"github.com/houzhh15/resumedit/cmd/server/internal/middleware"
	"github.com/houzhh15/resumedit/cmd/server/internal/services"
	"github.com/houzhh15/resumedit/pkg/markupdiff"
)

func setupRouter(t *testing.T, maxBody int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := history.NewStore(history.NewMemoryStorage())
	svc := services.NewEditService(store, factcheck.NewChecker(0.8), nil, nil, markupdiff.Options{})

	r := gin.New()
	RegisterEditRoutes(r, NewEditHandler(svc), middleware.NewConcurrencyLimiter(2, time.Second), maxBody)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleDiff(t *testing.T) {
	r := setupRouter(t, 1<<20)

	w := doJSON(r, http.MethodPost, "/api/v1/diff", DiffRequest{Original: "Hello world", Current: "Hello beautiful world"})
	require.Equal(t, http.StatusOK, w.Code)

	var preview services.DiffPreview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, `Hello <span class="diff-added">beautiful </span>world`, preview.HTML)
	assert.Equal(t, 2, preview.Summary.Added)
	assert.NotEmpty(t, preview.Tokens)
}

func TestHandleDiff_Options(t *testing.T) {
	r := setupRouter(t, 1<<20)
	yes := true

	w := doJSON(r, http.MethodPost, "/api/v1/diff", DiffRequest{Original: "Hello World", Current: "hello world", Mode: "text", IgnoreCase: &yes})
	require.Equal(t, http.StatusOK, w.Code)

	var preview services.DiffPreview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.False(t, preview.Summary.Changed())
	assert.NotContains(t, preview.HTML, "diff-")
}

func TestHandleDiff_BadRequests(t *testing.T) {
	r := setupRouter(t, 64)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/diff", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/diff", DiffRequest{Mode: "word"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/diff", DiffRequest{Original: strings.Repeat("a", 100), Current: "b"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestEditHistoryRestoreFlow(t *testing.T) {
	r := setupRouter(t, 1<<20)

	w := doJSON(r, http.MethodPost, "/api/v1/edit", services.EditRequest{
		SectionID:       "experience_0",
		SectionType:     services.SectionExperience,
		OriginalContent: "Led team",
		NewContent:      "Led team of 5",
		Action:          "accept",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var first services.EditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "Led team of 5", first.UpdatedContent)

	w = doJSON(r, http.MethodPost, "/api/v1/edit", services.EditRequest{
		SectionID:       "experience_0",
		SectionType:     services.SectionExperience,
		OriginalContent: "Led team of 5",
		NewContent:      "Led team of 8",
		Action:          "accept",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/edit/history/experience_0?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view services.SectionHistoryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Changes, 1)
	assert.Equal(t, "Led team of 8", view.Changes[0].NewContent)
	assert.Equal(t, "Led team", view.OriginalContent)

	w = doJSON(r, http.MethodPost, "/api/v1/edit/restore/"+first.ChangeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var restored services.EditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restored))
	assert.Equal(t, "Led team of 5", restored.UpdatedContent)

	w = doJSON(r, http.MethodGet, "/api/v1/edit/history/experience_0", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Changes, 3)
	assert.Equal(t, history.ActionRestore, view.Changes[0].Action)
	assert.Equal(t, "Led team of 5", view.CurrentContent)

	w = doJSON(r, http.MethodDelete, "/api/v1/edit/history/experience_0", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/api/v1/edit/history/experience_0", nil)
	assert.Equal(t, http.StatusOK, w.Code, "clearing twice is a no-op")

	w = doJSON(r, http.MethodGet, "/api/v1/edit/history/experience_0", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Empty(t, view.Changes)
}

func TestHandleEdit_Invalid(t *testing.T) {
	r := setupRouter(t, 1<<20)

	w := doJSON(r, http.MethodPost, "/api/v1/edit", services.EditRequest{SectionID: "x", SectionType: "education", Action: "accept"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sectionType")
}

func TestHandleRestore_NotFound(t *testing.T) {
	r := setupRouter(t, 1<<20)

	w := doJSON(r, http.MethodPost, "/api/v1/edit/restore/chg_0000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "chg_0000000000")
}

func TestHandleGetHistory_BadLimit(t *testing.T) {
	r := setupRouter(t, 1<<20)

	w := doJSON(r, http.MethodGet, "/api/v1/edit/history/title?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleClearAllHistory(t *testing.T) {
	r := setupRouter(t, 1<<20)

	doJSON(r, http.MethodPost, "/api/v1/edit", services.EditRequest{SectionID: "title", SectionType: services.SectionTitle, OriginalContent: "a", NewContent: "b", Action: "accept"})
	w := doJSON(r, http.MethodDelete, "/api/v1/edit/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/edit/history/title", nil)
	assert.Contains(t, w.Body.String(), `"changes":[]`)
}
