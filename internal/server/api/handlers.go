package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aleksv/spendsync/internal/common"
	"github.com/aleksv/spendsync/internal/models"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type itemsPayload[T any] struct {
	Items []T `json:"items"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type presignUploadRequest struct {
	ExpenseID string `json:"expense_id" binding:"required"`
	FileName  string `json:"file_name" binding:"required"`
}

type presignResponse struct {
	URL string `json:"url"`
	Key string `json:"key,omitempty"`
}

// --- auth ---

func (s *Server) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		s.serverError(c, "register failed", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		s.serverError(c, "login failed", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := s.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrRefreshTokenExpired) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		s.serverError(c, "token refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// --- expenses ---

func (s *Server) getExpenses(c *gin.Context) {
	items, err := s.records.QueryExpenses(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.serverError(c, "expense query failed", err)
		return
	}
	if items == nil {
		items = []*models.Expense{}
	}
	c.JSON(http.StatusOK, itemsPayload[*models.Expense]{Items: items})
}

func (s *Server) batchUpsertExpenses(c *gin.Context) {
	var req itemsPayload[*models.Expense]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.records.BatchUpsertExpenses(c.Request.Context(), currentUserID(c), req.Items); err != nil {
		if errors.Is(err, common.ErrorInternal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record in batch"})
			return
		}
		s.serverError(c, "expense batch failed", err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) batchDeleteExpenses(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.records.BatchDeleteExpenses(c.Request.Context(), currentUserID(c), req.IDs); err != nil {
		s.serverError(c, "expense delete failed", err)
		return
	}
	c.Status(http.StatusOK)
}

// --- categories ---

func (s *Server) getCategories(c *gin.Context) {
	items, err := s.records.QueryCategories(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.serverError(c, "category query failed", err)
		return
	}
	if items == nil {
		items = []*models.Category{}
	}
	c.JSON(http.StatusOK, itemsPayload[*models.Category]{Items: items})
}

func (s *Server) batchUpsertCategories(c *gin.Context) {
	var req itemsPayload[*models.Category]
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.records.BatchUpsertCategories(c.Request.Context(), currentUserID(c), req.Items); err != nil {
		if errors.Is(err, common.ErrorInternal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record in batch"})
			return
		}
		s.serverError(c, "category batch failed", err)
		return
	}
	c.Status(http.StatusOK)
}

// --- settings ---

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.records.GetSettings(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		s.serverError(c, "settings query failed", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) putSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.records.PutSettings(c.Request.Context(), currentUserID(c), &settings); err != nil {
		if errors.Is(err, common.ErrorInternal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings record"})
			return
		}
		s.serverError(c, "settings update failed", err)
		return
	}
	c.Status(http.StatusOK)
}

// --- receipts ---

func (s *Server) presignReceiptUpload(c *gin.Context) {
	var req presignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, url, err := s.receipts.PresignUpload(c.Request.Context(), currentUserID(c), req.FileName)
	if err != nil {
		s.serverError(c, "receipt upload presign failed", err)
		return
	}
	c.JSON(http.StatusOK, presignResponse{URL: url, Key: key})
}

func (s *Server) presignReceiptDownload(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	url, err := s.receipts.PresignDownload(c.Request.Context(), key)
	if err != nil {
		s.serverError(c, "receipt download presign failed", err)
		return
	}
	c.JSON(http.StatusOK, presignResponse{URL: url})
}

func (s *Server) serverError(c *gin.Context, msg string, err error) {
	s.log.Error(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
