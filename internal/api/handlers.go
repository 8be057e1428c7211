package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voxdrop/internal/middleware"
	"voxdrop/internal/storage"
	"voxdrop/internal/stt"
	"voxdrop/internal/utils"
)

// Form field names accepted by POST /upload.
const (
	audioField   = "audio_file"
	requestField = "org_info"
)

// Handler serves the upload page and the two read endpoints over a shared
// State.
type Handler struct {
	state    *storage.State
	audio    *storage.AudioStore
	provider stt.Provider
	log      *zap.Logger
}

// NewHandler wires the handlers to their collaborators.
func NewHandler(state *storage.State, audio *storage.AudioStore, provider stt.Provider, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		state:    state,
		audio:    audio,
		provider: provider,
		log:      log,
	}
}

// RegisterRoutes mounts the page, upload and query routes on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.healthCheck)

	r.GET("/", h.index)
	r.POST("/upload", h.upload)

	api := r.Group("/api")
	{
		api.GET("/transcribed_text", h.transcribedText)
		api.GET("/user_request", h.userRequest)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, "route not found")
	})
}

// healthCheck returns server health status
func (h *Handler) healthCheck(c *gin.Context) {
	providerName := ""
	if h.provider != nil {
		providerName = h.provider.Name()
	}
	utils.Success(c, gin.H{
		"status":       "ok",
		"service":      "voxdrop",
		"stt_provider": providerName,
	})
}

// index renders the upload form.
func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// upload handles POST /upload. Missing input and processing failures are
// reported as status messages on the result page; the response is always 200.
func (h *Handler) upload(c *gin.Context) {
	requestID := c.GetString(middleware.RequestIDKey)
	var messages []string

	file, err := c.FormFile(audioField)
	switch {
	case err == nil && file.Filename != "":
		messages = append(messages, h.handleAudio(c, file)...)
	case err != nil && !isMissingFile(err):
		// A body gin cannot parse is treated like one without audio.
		h.log.Warn("failed to read audio part", zap.String("request_id", requestID), zap.Error(err))
		messages = append(messages, msgNoAudio)
	default:
		messages = append(messages, msgNoAudio)
	}

	userRequest := strings.TrimSpace(c.PostForm(requestField))
	if len([]rune(userRequest)) < 1 {
		messages = append(messages, msgEmptyRequest)
	} else {
		h.state.SetUserRequest(userRequest)
		messages = append(messages, msgRequestReceived, userRequest)
		h.log.Info("user request stored",
			zap.String("request_id", requestID),
			zap.Int("length", len(userRequest)),
		)
	}

	c.HTML(http.StatusOK, "result.html", gin.H{
		"messages": messages,
	})
}

// handleAudio saves the upload, transcribes it and stores the transcript.
// Save and transcription failures leave the stored transcript untouched.
func (h *Handler) handleAudio(c *gin.Context, file *multipart.FileHeader) []string {
	requestID := c.GetString(middleware.RequestIDKey)

	path, err := h.audio.Save(file)
	if err != nil {
		h.log.Error("failed to save audio",
			zap.String("request_id", requestID),
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return []string{audioErrorMessage(err)}
	}

	messages := []string{msgAudioSaved + path}
	h.log.Info("audio saved",
		zap.String("request_id", requestID),
		zap.String("path", path),
		zap.Int64("size", file.Size),
	)

	// A client that goes away mid-request must not lose the transcript.
	out := stt.Run(context.WithoutCancel(c.Request.Context()), h.provider, path)
	if !out.OK() {
		h.log.Error("transcription failed",
			zap.String("request_id", requestID),
			zap.String("provider", out.Provider),
			zap.String("path", path),
			zap.Error(out.Err),
		)
		return append(messages, audioErrorMessage(out.Err))
	}

	h.state.SetTranscript(out.Text)
	h.log.Info("transcript stored",
		zap.String("request_id", requestID),
		zap.String("provider", out.Provider),
		zap.Int("length", len(out.Text)),
	)
	return append(messages, msgTranscribed+out.Text)
}

// transcribedText handles GET /api/transcribed_text
func (h *Handler) transcribedText(c *gin.Context) {
	c.PureJSON(http.StatusOK, gin.H{"transcribed_text": h.state.Transcript()})
}

// userRequest handles GET /api/user_request
func (h *Handler) userRequest(c *gin.Context) {
	c.PureJSON(http.StatusOK, gin.H{"user_request": h.state.UserRequest()})
}

func isMissingFile(err error) bool {
	return errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)
}
