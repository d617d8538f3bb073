package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturenotes/backend/config"
	"github.com/lecturenotes/backend/internal/courses"
	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/lectures/lecturetest"
	"github.com/lecturenotes/backend/internal/media"
	"github.com/lecturenotes/backend/internal/models"
	"github.com/lecturenotes/backend/internal/realtime"
	"github.com/lecturenotes/backend/internal/summarization"
	"github.com/lecturenotes/backend/internal/transcription"
	"github.com/lecturenotes/backend/internal/units"
	"github.com/lecturenotes/backend/pkg/apperr"
	"github.com/lecturenotes/backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memCourses struct {
	mu   sync.Mutex
	byID map[uuid.UUID]models.Course
}

func (m *memCourses) Create(_ context.Context, c *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	m.byID[c.ID] = *c
	return nil
}

func (m *memCourses) List(context.Context) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Course{}
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCourses) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("course not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *memCourses) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok, nil
}

type memUnits struct {
	mu   sync.Mutex
	byID map[uuid.UUID]models.Unit
}

func (m *memUnits) Create(_ context.Context, u *models.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = uuid.New()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUnits) ListByCourse(_ context.Context, courseID uuid.UUID) ([]models.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Unit{}
	for _, u := range m.byID {
		if u.CourseID == courseID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUnits) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperr.NotFound("unit not found")
	}
	delete(m.byID, id)
	return nil
}

func (m *memUnits) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok, nil
}

type stubBackend struct {
	text  string
	calls int
}

func (s *stubBackend) Transcribe(_ context.Context, path string) (string, error) {
	s.calls++
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return s.text, nil
}

type stubChat struct {
	reply string
	calls int
}

func (s *stubChat) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.reply}}},
	}, nil
}

type app struct {
	router   *gin.Engine
	lectures *lecturetest.Store
	local    *storage.Local
	backend  *stubBackend
	chat     *stubChat
	notify   *lecturetest.Notifier
}

func newApp(t *testing.T, withSummarizer bool) *app {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir(), storage.DefaultURLPrefix, nil)
	require.NoError(t, err)

	a := &app{
		lectures: lecturetest.NewStore(),
		local:    local,
		backend:  &stubBackend{text: "  hello world\n"},
		chat:     &stubChat{reply: "- point one"},
		notify:   &lecturetest.Notifier{},
	}
	courseStore := &memCourses{byID: map[uuid.UUID]models.Course{}}
	unitStore := &memUnits{byID: map[uuid.UUID]models.Unit{}}
	annotations := lectures.NewAnnotations(a.lectures, a.notify, nil)
	mediaSvc := media.NewService(a.lectures, local, a.notify, nil)
	var summarizer *summarization.Summarizer
	if withSummarizer {
		summarizer = summarization.NewSummarizer(a.chat, config.SummarizationConfig{Model: "llama3-8b-8192", MaxTokens: 4096, Temperature: 0.7}, nil)
	}

	a.router = NewRouter(Handlers{
		Courses:       courses.NewHandler(courseStore, nil),
		Units:         units.NewHandler(unitStore, courseStore, nil),
		Lectures:      lectures.NewHandler(a.lectures, unitStore, annotations, a.notify, nil),
		Media:         media.NewHandler(mediaSvc, 1<<20, nil),
		Transcription: transcription.NewHandler(transcription.NewService(a.lectures, annotations, local, a.backend, nil)),
		Summarization: summarization.NewHandler(summarizer),
		Hub:           realtime.NewHub(nil, nil, nil),
	}, Options{UploadDir: local.Dir(), UploadURLPrefix: local.URLPrefix()}, nil)
	return a
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
}

func (a *app) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return a.serve(t, req)
}

func (a *app) upload(t *testing.T, lectureID uuid.UUID, filename string, payload []byte) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(media.FormField, filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/lectures/"+lectureID.String()+"/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(t, req)
}

func (a *app) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// createLecture walks course -> unit -> lecture through the API.
func (a *app) createLecture(t *testing.T, name string) models.Lecture {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/courses", gin.H{"name": "Biology"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	course := decode[models.Course](t, env.Data)

	code, env = a.do(t, http.MethodPost, "/api/units", gin.H{"name": "Cells", "course_id": course.ID})
	require.Equal(t, http.StatusCreated, code, env.Error)
	unit := decode[models.Unit](t, env.Data)

	code, env = a.do(t, http.MethodPost, "/api/lectures", gin.H{"name": name, "unit_id": unit.ID})
	require.Equal(t, http.StatusCreated, code, env.Error)
	return decode[models.Lecture](t, env.Data)
}

func TestLecturePipeline(t *testing.T) {
	a := newApp(t, true)
	l := a.createLecture(t, "L1")
	assert.Nil(t, l.AudioURL)

	code, env := a.upload(t, l.ID, "audio.mp3", []byte("0123456789"))
	require.Equal(t, http.StatusOK, code, env.Error)
	audioURL := decode[map[string]string](t, env.Data)["audioUrl"]
	assert.True(t, strings.HasPrefix(audioURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(audioURL, "-audio.mp3"))

	code, env = a.do(t, http.MethodGet, "/api/lectures/"+l.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[models.Lecture](t, env.Data)
	require.NotNil(t, got.AudioURL)
	assert.Equal(t, audioURL, *got.AudioURL)

	// The stored file is served statically.
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, audioURL, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0123456789", w.Body.String())

	code, env = a.do(t, http.MethodPost, "/api/lectures/"+l.ID.String()+"/transcribe", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "hello world", decode[map[string]string](t, env.Data)["transcription"])
	assert.Equal(t, "hello world", *a.lectures.Get(l.ID).Transcript)

	code, env = a.do(t, http.MethodPost, "/api/lectures/summarize", gin.H{"transcript": "hello world"})
	require.Equal(t, http.StatusOK, code, env.Error)
	summary := decode[map[string]string](t, env.Data)["summary"]
	assert.Equal(t, "- point one", summary)
	assert.Nil(t, a.lectures.Get(l.ID).AISummary, "summarize does not persist")

	code, env = a.do(t, http.MethodPost, "/api/lectures/"+l.ID.String()+"/summary", gin.H{"summary": summary})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.do(t, http.MethodGet, "/api/lectures/"+l.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	got = decode[models.Lecture](t, env.Data)
	require.NotNil(t, got.AISummary)
	assert.Equal(t, "- point one", *got.AISummary)
	assert.Equal(t, "hello world", *got.Transcript)
}

func TestTranscribeWithoutAudio(t *testing.T) {
	a := newApp(t, true)
	l := a.createLecture(t, "L2")

	code, env := a.do(t, http.MethodPost, "/api/lectures/"+l.ID.String()+"/transcribe", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "audio not found for this lecture", env.Error)
	assert.Equal(t, 0, a.backend.calls)
	assert.Nil(t, a.lectures.Get(l.ID).Transcript)
}

func TestSummarizeValidation(t *testing.T) {
	a := newApp(t, true)

	code, env := a.do(t, http.MethodPost, "/api/lectures/summarize", gin.H{"transcript": "   "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no transcript provided", env.Error)
	code, _ = a.do(t, http.MethodPost, "/api/lectures/summarize", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 0, a.chat.calls)
}

func TestSummarizeUnconfigured(t *testing.T) {
	a := newApp(t, false)
	code, _ := a.do(t, http.MethodPost, "/api/lectures/summarize", gin.H{"transcript": "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestUploadErrors(t *testing.T) {
	a := newApp(t, true)
	l := a.createLecture(t, "L1")

	code, _ := a.upload(t, l.ID, "empty.mp3", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPost, "/api/lectures/"+l.ID.String()+"/audio", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.upload(t, uuid.New(), "a.mp3", []byte("abc"))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = a.upload(t, l.ID, "big.mp3", bytes.Repeat([]byte("x"), 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)

	entries, err := os.ReadDir(a.local.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Nil(t, a.lectures.Get(l.ID).AudioURL)
}

func TestDeleteAudioKeepsDerivedContent(t *testing.T) {
	a := newApp(t, true)
	l := a.createLecture(t, "L1")
	code, env := a.upload(t, l.ID, "audio.mp3", []byte("0123456789"))
	require.Equal(t, http.StatusOK, code)
	audioURL := decode[map[string]string](t, env.Data)["audioUrl"]
	code, _ = a.do(t, http.MethodPost, "/api/lectures/"+l.ID.String()+"/transcribe", nil)
	require.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lectures/"+l.ID.String()+"/audio", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))

	code, _ = a.do(t, http.MethodDelete, "/api/lectures/"+l.ID.String()+"/audio", nil)
	assert.Equal(t, http.StatusOK, code)
	_, err := os.Stat(filepath.Join(a.local.Dir(), filepath.Base(audioURL)))
	assert.True(t, os.IsNotExist(err))

	got := a.lectures.Get(l.ID)
	assert.Nil(t, got.AudioURL)
	require.NotNil(t, got.Transcript)
	assert.Equal(t, "hello world", *got.Transcript)

	code, _ = a.do(t, http.MethodDelete, "/api/lectures/"+l.ID.String()+"/audio", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(t, http.MethodGet, "/api/lectures/"+l.ID.String()+"/audio", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNotesRoundTrip(t *testing.T) {
	a := newApp(t, true)
	l := a.createLecture(t, "L1")
	path := "/api/lectures/" + l.ID.String() + "/notes"

	for i := 0; i < 2; i++ {
		code, env := a.do(t, http.MethodPut, path, gin.H{"notes": "<p>cells</p>"})
		require.Equal(t, http.StatusOK, code, env.Error)
	}
	code, env := a.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"notes":"<p>cells</p>"}`, string(env.Data))

	code, _ = a.do(t, http.MethodPost, path, gin.H{"notes": ""})
	require.Equal(t, http.StatusOK, code)
	code, env = a.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"notes":null}`, string(env.Data))

	code, _ = a.do(t, http.MethodPut, "/api/lectures/"+uuid.New().String()+"/notes", gin.H{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateLectureRequiresUnit(t *testing.T) {
	a := newApp(t, true)

	code, _ := a.do(t, http.MethodPost, "/api/lectures", gin.H{"name": "L1", "unit_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(t, http.MethodPost, "/api/lectures", gin.H{"unit_id": uuid.New()})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodPost, "/api/units", gin.H{"name": "U", "course_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListAndDelete(t *testing.T) {
	a := newApp(t, true)
	l := a.createLecture(t, "L1")

	code, env := a.do(t, http.MethodGet, "/api/units/"+l.UnitID.String()+"/lectures", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Lecture](t, env.Data), 1)

	code, _ = a.do(t, http.MethodDelete, "/api/lectures/"+l.ID.String(), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodGet, "/api/lectures/"+l.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	events := a.notify.Snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, lectures.EventCreated, events[0].Name)
	assert.Equal(t, lectures.EventDeleted, events[len(events)-1].Name)
}

func TestHealth(t *testing.T) {
	a := newApp(t, true)
	code, env := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}
