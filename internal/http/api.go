package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"studioaljo/internal/auth"
	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
	"studioaljo/internal/service"
)

const serviceName = "StudioAljo API"

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	Parse(token string) (string, error)
}

// Config bundles the collaborators and options of a Handler.
type Config struct {
	Users       service.UserService
	Generation  service.GenerationService
	Gallery     service.GalleryService
	Health      repository.Pinger
	Tokens      TokenVerifier
	EnforceAuth bool
	Origins     []string
	Logger      logrus.FieldLogger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users       service.UserService
	generation  service.GenerationService
	gallery     service.GalleryService
	health      repository.Pinger
	tokens      TokenVerifier
	enforceAuth bool
	origins     []string
	logger      logrus.FieldLogger
}

func NewHandler(cfg Config) *Handler {
	registerFieldNames()

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:       cfg.Users,
		generation:  cfg.Generation,
		gallery:     cfg.Gallery,
		health:      cfg.Health,
		tokens:      cfg.Tokens,
		enforceAuth: cfg.EnforceAuth,
		origins:     cfg.Origins,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.accessLog(), corsMiddleware(h.origins))

	router.GET("/test", h.test)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
	}

	protected := router.Group("/")
	protected.Use(h.requireToken())
	{
		protected.GET("/quota", h.quota)
		protected.POST("/generate", h.generate)
		protected.POST("/gallery", h.saveGalleryItem)
		protected.GET("/gallery", h.listGallery)
		protected.DELETE("/gallery", h.deleteGalleryItem)
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type generateRequest struct {
	Tool    string `form:"tool" binding:"required,oneof=styling room avatar meme bgremove"`
	Email   string `form:"email" binding:"required,email"`
	Options string `form:"options"`
}

type galleryItemRequest struct {
	UserID   string      `json:"user_id" binding:"required"`
	Tool     string      `json:"tool" binding:"required,oneof=styling room avatar meme bgremove"`
	ImageURL string      `json:"image_url" binding:"required,url"`
	Meta     domain.Meta `json:"meta"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type QuotaResponse struct {
	Credits int `json:"credits"`
	Limit   int `json:"limit"`
}

type GenerateResponse struct {
	ImageURL string      `json:"image_url"`
	Tool     domain.Tool `json:"tool"`
}

// GalleryItemResponse keeps the "_id" key existing clients read and pass
// back to DELETE /gallery.
type GalleryItemResponse struct {
	ID        string      `json:"_id"`
	UserID    string      `json:"user_id"`
	Tool      domain.Tool `json:"tool"`
	ImageURL  string      `json:"image_url"`
	Meta      domain.Meta `json:"meta"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

type GalleryListResponse struct {
	Items []GalleryItemResponse `json:"items"`
}

func (h *Handler) test(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.WithError(err).Error("store health check failed")
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Store unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName})
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	token, err := h.users.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

func (h *Handler) quota(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		writeDetail(c, http.StatusBadRequest, "email is required")
		return
	}
	if !h.authorize(c, email) {
		return
	}

	quota, err := h.users.Quota(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuotaResponse{Credits: quota.Credits, Limit: quota.Limit})
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		h.writeBindError(c, err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeDetail(c, http.StatusBadRequest, "file is required")
		return
	}
	if !h.authorize(c, req.Email) {
		return
	}

	tool, _ := domain.ParseTool(req.Tool)
	options, err := domain.ParseMeta(req.Options)
	if err != nil {
		writeDetail(c, http.StatusBadRequest, fmt.Sprintf("options: %v", err))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeDetail(c, http.StatusBadRequest, "file could not be read")
		return
	}
	defer file.Close()

	result, err := h.generation.Generate(c.Request.Context(), service.GenerateInput{
		Tool:        tool,
		Email:       req.Email,
		Options:     options,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		File:        file,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{ImageURL: result.ImageURL, Tool: result.Tool})
}

func (h *Handler) saveGalleryItem(c *gin.Context) {
	var req galleryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}
	if !h.authorize(c, req.UserID) {
		return
	}

	tool, _ := domain.ParseTool(req.Tool)
	id, err := h.gallery.Save(c.Request.Context(), &domain.GalleryItem{
		UserID:   req.UserID,
		Tool:     tool,
		ImageURL: req.ImageURL,
		Meta:     req.Meta,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *Handler) listGallery(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		writeDetail(c, http.StatusBadRequest, "email is required")
		return
	}
	limit := service.DefaultGalleryLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeDetail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if !h.authorize(c, email) {
		return
	}

	items, err := h.gallery.ListByUser(c.Request.Context(), email, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := GalleryListResponse{Items: make([]GalleryItemResponse, len(items))}
	for i := range items {
		resp.Items[i] = galleryItemToResponse(items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteGalleryItem(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		writeDetail(c, http.StatusBadRequest, "id is required")
		return
	}

	var owner string
	if h.enforceAuth {
		owner = c.GetString(subjectKey)
	}
	if err := h.gallery.Delete(c.Request.Context(), id, owner); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func galleryItemToResponse(item domain.GalleryItem) GalleryItemResponse {
	return GalleryItemResponse{
		ID:        item.ID,
		UserID:    item.UserID,
		Tool:      item.Tool,
		ImageURL:  item.ImageURL,
		Meta:      item.Meta,
		CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339Nano),
	}
}
