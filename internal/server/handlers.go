package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"docbrief/internal/auth"
	"docbrief/internal/domain"
	"docbrief/internal/extract"
	"docbrief/internal/pipeline"
	"docbrief/internal/speech"
	"docbrief/internal/summarizer"
	"docbrief/internal/textutil"

	"github.com/labstack/echo/v4"
)

const maxHistoryLimit = 100

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type textRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type summarizeResponse struct {
	pipeline.Response
	Status string `json:"status"`
}

type providerStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(c echo.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, statusMessage{Status: statusFail, Message: "Invalid request body."})
	}

	_, err := s.deps.Auth.Register(c.Request().Context(), in)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, statusMessage{
			Status:  statusSuccess,
			Message: "Registration successful! Redirecting to login...",
		})
	case errors.Is(err, auth.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, statusMessage{Status: statusFail, Message: "All fields are required."})
	case errors.Is(err, auth.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, statusMessage{Status: statusFail, Message: "Email address is invalid."})
	case errors.Is(err, auth.ErrUserExists):
		return c.JSON(http.StatusConflict, statusMessage{Status: statusFail, Message: "Email or username already exists."})
	default:
		s.log.ErrorContext(c.Request().Context(), "Failed to register user",
			"error", err,
			"username", in.Username)

		return c.JSON(http.StatusInternalServerError, statusMessage{Status: statusFail, Message: "Registration failed."})
	}
}

func (s *Server) handleLogin(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, statusMessage{Status: statusFail, Message: "Invalid request body."})
	}

	session, err := s.deps.Auth.Login(c.Request().Context(), in.Identifier, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, statusMessage{
				Status:  statusFail,
				Message: "Invalid email/username or password.",
			})
		}

		s.log.ErrorContext(c.Request().Context(), "Failed to log user in",
			"error", err)

		return c.JSON(http.StatusInternalServerError, statusMessage{Status: statusFail, Message: "Login failed."})
	}

	s.setSessionCookie(c, session.Token, session.ExpiresAt)

	return c.JSON(http.StatusOK, statusMessage{
		Status:  statusSuccess,
		Message: "Login successful! Redirecting to home...",
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.deps.Auth.Logout(c.Request().Context(), sessionToken(c)); err != nil {
		s.log.ErrorContext(c.Request().Context(), "Failed to log user out",
			"error", err)

		return c.JSON(http.StatusInternalServerError, statusMessage{Status: statusFail, Message: "Unable to logout."})
	}

	s.clearSessionCookie(c)

	return c.JSON(http.StatusOK, statusMessage{Status: statusSuccess, Message: "Logged out."})
}

func (s *Server) handleMe(c echo.Context) error {
	user, err := s.deps.Auth.User(c.Request().Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			return c.JSON(http.StatusUnauthorized, statusMessage{Status: statusFail, Message: "Login required."})
		}

		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleProfile(c echo.Context) error {
	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, statusMessage{Status: statusFail, Message: "Invalid request body."})
	}

	user, err := s.deps.Auth.UpdateProfile(c.Request().Context(), currentUserID(c), update)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]any{"status": "updated", "user": user})
	case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, statusMessage{Status: statusFail, Message: err.Error()})
	case errors.Is(err, auth.ErrUserExists):
		return c.JSON(http.StatusConflict, statusMessage{Status: statusFail, Message: "Email or username already exists."})
	default:
		s.log.ErrorContext(c.Request().Context(), "Failed to update profile",
			"error", err,
			"userID", currentUserID(c))

		return c.JSON(http.StatusInternalServerError, statusMessage{Status: statusFail, Message: "Profile operation failed."})
	}
}

func (s *Server) handleHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, apiError{Error: "limit must be a positive integer"})
		}

		limit = min(n, maxHistoryLimit)
	}

	records, err := s.deps.History.ListSummaries(c.Request().Context(), currentUserID(c), limit)
	if err != nil {
		return err
	}

	if records == nil {
		records = []domain.SummaryRecord{}
	}

	return c.JSON(http.StatusOK, map[string]any{"summaries": records})
}

func (s *Server) handleProviders(c echo.Context) error {
	out := make([]providerStatus, 0, len(summarizer.KnownProviders))
	for _, p := range summarizer.KnownProviders {
		a := s.deps.Providers.Availability(p)
		out = append(out, providerStatus{Name: string(p), Available: a.IsAvailable(), Reason: a.Reason()})
	}

	resp := map[string]any{"providers": out}
	if p, ok := s.deps.Providers.DefaultProvider(); ok {
		resp["default"] = p
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSummarize(c echo.Context) error {
	ctx := c.Request().Context()

	// Files go first so the form is parsed under the body limit.
	files, err := s.readFiles(c)
	if err != nil {
		code, msg := summarizeError(err)

		return c.JSON(code, apiError{Error: msg})
	}

	mode, err := pipeline.ParseMode(c.FormValue("mode"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
	}

	req := pipeline.Request{
		URL:        c.FormValue("url"),
		Files:      files,
		Text:       c.FormValue("text"),
		Mode:       mode,
		Provider:   c.FormValue("provider"),
		LengthTier: c.FormValue("length"),
		FocusAreas: c.FormValue("focus"),
		UserID:     currentUserID(c),
	}

	resp, err := s.deps.Summarizer.Run(ctx, req)
	if err != nil {
		code, msg := summarizeError(err)
		if code >= http.StatusInternalServerError {
			s.log.ErrorContext(ctx, "Failed to summarize",
				"error", err,
				"url", req.URL,
				"filesCount", len(req.Files),
				"mode", mode)
		}

		return c.JSON(code, apiError{Error: msg})
	}

	return c.JSON(http.StatusOK, summarizeResponse{Response: resp, Status: "Content processed successfully"})
}

func (s *Server) readFiles(c echo.Context) ([]pipeline.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, fmt.Errorf("parse form: %w", err)
	}

	headers := form.File["files"]
	files := make([]pipeline.File, 0, len(headers))
	for _, h := range headers {
		if h.Filename == "" {
			continue
		}

		if !textutil.ValidateFileType(h.Filename) {
			return nil, &extract.UnsupportedFormatError{Extension: textutil.FileExtension(h.Filename)}
		}

		data, err := readFormFile(h)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h.Filename, err)
		}

		files = append(files, pipeline.File{Name: filepath.Base(h.Filename), Data: data})
	}

	return files, nil
}

func readFormFile(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (s *Server) handleTranslate(c echo.Context) error {
	var in textRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: "Invalid request body."})
	}

	out, err := s.deps.Translator.Translate(c.Request().Context(), in.Text, in.Lang)
	if err != nil {
		code, msg := translateError(err)

		return c.JSON(code, apiError{Error: msg})
	}

	return c.JSON(http.StatusOK, map[string]string{"translated": out.Text, "language": out.Language})
}

func (s *Server) handleSpeak(c echo.Context) error {
	var in textRequest
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: "Invalid request body."})
	}

	audio, err := s.deps.Speaker.Speak(c.Request().Context(), in.Text, in.Lang)
	if err != nil {
		code, msg := speakError(err)

		return c.JSON(code, apiError{Error: msg})
	}

	return c.JSON(http.StatusOK, map[string]string{"audio_path": "/uploads/" + audio.Filename})
}

func (s *Server) handleUpload(c echo.Context) error {
	name := c.Param("name")
	if !speech.IsAudioFile(name) {
		return echo.ErrNotFound
	}

	return c.File(filepath.Join(s.opts.UploadDir, name))
}
