package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docbrief/internal/auth"
	"docbrief/internal/domain"
	"docbrief/internal/pipeline"
	"docbrief/internal/speech"
	"docbrief/internal/summarizer"
	"docbrief/internal/translate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validToken = "valid-token"
	testUserID = int64(7)
)

type stubAuth struct {
	registered []auth.RegisterInput
	loggedOut  []string
}

func (s *stubAuth) Register(_ context.Context, in auth.RegisterInput) (domain.User, error) {
	if in.Username == "" {
		return domain.User{}, auth.ErrMissingFields
	}

	if in.Username == "taken" {
		return domain.User{}, auth.ErrUserExists
	}

	s.registered = append(s.registered, in)

	return domain.User{ID: 1, Username: in.Username}, nil
}

func (s *stubAuth) Login(_ context.Context, identifier string, password string) (domain.Session, error) {
	if identifier != "ann" || password != "secret" {
		return domain.Session{}, auth.ErrInvalidCredentials
	}

	return domain.Session{Token: validToken, UserID: testUserID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (int64, error) {
	if token != validToken {
		return 0, auth.ErrInvalidSession
	}

	return testUserID, nil
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)

	return nil
}

func (s *stubAuth) User(_ context.Context, userID int64) (domain.User, error) {
	return domain.User{ID: userID, Name: "Ann", Username: "ann", PasswordHash: "hash"}, nil
}

func (s *stubAuth) UpdateProfile(_ context.Context, userID int64, update domain.ProfileUpdate) (domain.User, error) {
	if update.Name != nil && *update.Name == "" {
		return domain.User{}, auth.ErrMissingFields
	}

	return domain.User{ID: userID, Name: *update.Name}, nil
}

type stubPipeline struct {
	requests []pipeline.Request
	err      error
}

func (s *stubPipeline) Run(_ context.Context, req pipeline.Request) (pipeline.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return pipeline.Response{}, s.err
	}

	return pipeline.Response{Summary: "short summary", Method: pipeline.MethodExtractive}, nil
}

type stubProviders struct{}

func (stubProviders) Availability(p summarizer.Provider) summarizer.Availability {
	return summarizer.Unavailable(p, "missing key")
}

func (stubProviders) DefaultProvider() (summarizer.Provider, bool) {
	return "", false
}

type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, text string, lang string) (translate.Translation, error) {
	if lang != "hi" {
		return translate.Translation{}, translate.ErrUnsupportedLanguage
	}

	return translate.Translation{Text: "अनुवाद " + text, Code: "hi", Language: "Hindi"}, nil
}

type stubSpeaker struct{}

func (stubSpeaker) Speak(_ context.Context, text string, _ string) (speech.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return speech.Audio{}, speech.ErrEmptyText
	}

	return speech.Audio{Filename: "speech_abc.mp3"}, nil
}

type stubHistory struct{}

func (stubHistory) ListSummaries(_ context.Context, userID int64, _ int) ([]domain.SummaryRecord, error) {
	return []domain.SummaryRecord{{ID: 1, UserID: userID, Summary: "s", Method: "ai"}}, nil
}

type fixture struct {
	srv      *Server
	auth     *stubAuth
	pipeline *stubPipeline
	dir      string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	f := &fixture{auth: &stubAuth{}, pipeline: &stubPipeline{}, dir: t.TempDir()}
	opts.UploadDir = f.dir

	f.srv = New(Deps{
		Auth:       f.auth,
		Summarizer: f.pipeline,
		Providers:  stubProviders{},
		Translator: stubTranslator{},
		Speaker:    stubSpeaker{},
		History:    stubHistory{},
	}, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: validToken})

	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

type formFile struct {
	name string
	data string
}

func multipartRequest(t *testing.T, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)

		_, err = part.Write([]byte(f.data))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/summarize", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docbrief_http_requests_total")
}

func TestRegister(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(jsonRequest(http.MethodPost, "/register",
		`{"name":"Ann","email":"ann@example.com","username":"ann","password":"secret"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statusSuccess, decode(t, rec)["status"])
	require.Len(t, f.auth.registered, 1)
	assert.Equal(t, "ann@example.com", f.auth.registered[0].Email)

	rec = f.do(jsonRequest(http.MethodPost, "/register", `{"name":"Ann","username":"taken"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email or username already exists.", decode(t, rec)["message"])

	rec = f.do(jsonRequest(http.MethodPost, "/register", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required.", decode(t, rec)["message"])
}

func TestLoginAndSession(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(jsonRequest(http.MethodPost, "/login", `{"identifier":"ann","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, statusFail, decode(t, rec)["status"])

	rec = f.do(jsonRequest(http.MethodPost, "/login", `{"identifier":"ann","password":"secret"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, validToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "ann", me["username"])
	assert.NotContains(t, me, "PasswordHash")

	rec = f.do(withSession(httptest.NewRequest(http.MethodGet, "/logout", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{validToken}, f.auth.loggedOut)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestProfileAndHistory(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(withSession(jsonRequest(http.MethodPost, "/api/profile", `{"name":"Ann Smith"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated", decode(t, rec)["status"])

	rec = f.do(withSession(jsonRequest(http.MethodPost, "/api/profile", `{"name":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(withSession(httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["summaries"], 1)

	rec = f.do(withSession(httptest.NewRequest(http.MethodGet, "/api/history?limit=abc", nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviders(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(withSession(httptest.NewRequest(http.MethodGet, "/api/providers", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	providers, ok := body["providers"].([]any)
	require.True(t, ok)
	assert.Len(t, providers, len(summarizer.KnownProviders))
	assert.NotContains(t, body, "default")

	first := providers[0].(map[string]any)
	assert.Equal(t, "openai", first["name"])
	assert.Equal(t, false, first["available"])
	assert.Equal(t, "missing key", first["reason"])
}

func TestSummarize(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(withSession(multipartRequest(t, map[string]string{
		"url":      "https://example.com/a",
		"text":     "Some typed text.",
		"mode":     "extractive",
		"length":   "brief",
		"focus":    "penalties",
		"provider": "openai",
	}, formFile{name: "lease.txt", data: "The tenant pays rent."})))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "short summary", body["summary"])
	assert.Equal(t, "Content processed successfully", body["status"])

	require.Len(t, f.pipeline.requests, 1)
	got := f.pipeline.requests[0]
	assert.Equal(t, "https://example.com/a", got.URL)
	assert.Equal(t, pipeline.ModeExtractive, got.Mode)
	assert.Equal(t, "brief", got.LengthTier)
	assert.Equal(t, "penalties", got.FocusAreas)
	assert.Equal(t, testUserID, got.UserID)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "lease.txt", got.Files[0].Name)
	assert.Equal(t, "The tenant pays rent.", string(got.Files[0].Data))
}

func TestSummarizeAnonymous(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(multipartRequest(t, map[string]string{"text": "Some text."}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), f.pipeline.requests[0].UserID)
	assert.Equal(t, pipeline.ModeAuto, f.pipeline.requests[0].Mode)
}

func TestSummarizeErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{name: "no input", err: pipeline.ErrNoInput, code: http.StatusBadRequest, msg: "No content to summarize"},
		{name: "no sentences", err: pipeline.ErrNoValidContent, code: http.StatusUnprocessableEntity, msg: "No valid content to summarize"},
		{
			name: "unavailable",
			err:  &summarizer.ProviderUnavailableError{Provider: summarizer.ProviderOpenAI, Reason: "missing key"},
			code: http.StatusServiceUnavailable,
			msg:  "provider openai is unavailable: missing key",
		},
		{
			name: "fetch",
			err:  &pipeline.FetchError{URL: "https://x", Err: errors.New("timeout")},
			code: http.StatusBadGateway,
			msg:  "Failed to fetch URL: timeout",
		},
		{name: "unknown", err: errors.New("boom"), code: http.StatusInternalServerError, msg: "Summarize failed: boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.pipeline.err = tc.err

			rec := f.do(multipartRequest(t, map[string]string{"text": "x"}))
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.msg, decode(t, rec)["error"])
		})
	}
}

func TestSummarizeRejectsBadInput(t *testing.T) {
	f := newFixture(t, Options{MaxUploadBytes: 1024})

	rec := f.do(multipartRequest(t, nil, formFile{name: "setup.exe", data: "MZ"}))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = f.do(multipartRequest(t, map[string]string{"mode": "magic"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(multipartRequest(t, nil, formFile{name: "big.txt", data: strings.Repeat("a", 4096)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Empty(t, f.pipeline.requests)
}

func TestTranslateAndSpeak(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(jsonRequest(http.MethodPost, "/translate", `{"text":"rent","lang":"hi"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "अनुवाद rent", body["translated"])
	assert.Equal(t, "Hindi", body["language"])

	rec = f.do(jsonRequest(http.MethodPost, "/translate", `{"text":"rent","lang":"fr"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unsupported language", decode(t, rec)["error"])

	rec = f.do(jsonRequest(http.MethodPost, "/speak", `{"text":"rent","lang":"en"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/uploads/speech_abc.mp3", decode(t, rec)["audio_path"])

	rec = f.do(jsonRequest(http.MethodPost, "/speak", `{"text":"  "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No text to speak", decode(t, rec)["error"])
}

func TestUploads(t *testing.T) {
	f := newFixture(t, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "speech_abc.mp3"), []byte("ID3"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "notes.txt"), []byte("secret"), 0o600))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/uploads/speech_abc.mp3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3", rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodGet, "/uploads/notes.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/uploads/speech_missing.mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Options{RateLimitRPS: 0.001})

	var last int
	for range rateLimitBurst + 1 {
		last = f.do(jsonRequest(http.MethodPost, "/translate", `{"text":"rent","lang":"hi"}`)).Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPRateLimiterSweepsIdleClients(t *testing.T) {
	rl := newIPRateLimiter(1, 1)

	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(limiterIdleTTL + limiterSweepInterval + time.Second)
	rl.get("10.0.0.3")
	assert.Equal(t, 1, rl.size())
}
