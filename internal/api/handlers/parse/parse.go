package parse

import (
	"errors"
	"net/http"

	"recipe-parser/internal/core/escalate"
	coreparse "recipe-parser/internal/core/parse"
	"recipe-parser/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ParseRequest 解析請求
// Confidence 是 OCR 引擎對整段文字的信心，必須落在 [0,1]
type ParseRequest struct {
	Text       string             `json:"text"`
	Confidence *float64           `json:"confidence" binding:"required"`
	Language   string             `json:"language,omitempty"`
	Blocks     []common.TextBlock `json:"blocks,omitempty"`
}

// ValidateRequest 獨立驗證請求（已有結構化食譜，只做檢查）
type ValidateRequest struct {
	Recipe *common.ParsedRecipe `json:"recipe" binding:"required"`
}

// Handler 解析相關的 HTTP 處理器
type Handler struct {
	controller *escalate.Controller
}

// NewHandler 創建解析處理器
func NewHandler(controller *escalate.Controller) *Handler {
	return &Handler{controller: controller}
}

// HandleParse 處理 OCR 文字解析請求
func (h *Handler) HandleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("解析請求格式錯誤",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	if *req.Confidence < 0 || *req.Confidence > 1 {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "confidence must be between 0 and 1",
		})
		return
	}

	ocr := &common.OCRResult{
		Text:       req.Text,
		Confidence: *req.Confidence,
		Language:   req.Language,
		Blocks:     req.Blocks,
	}

	ctx := common.WithRequestID(c.Request.Context(), requestid.Get(c))
	outcome, err := h.controller.Parse(ctx, ocr)
	if err != nil {
		status, body := errorToResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// HandleValidate 驗證既有的結構化食譜，不經過解析後端
func (h *Handler) HandleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "invalid request body",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, coreparse.Validate(req.Recipe))
}

// HandleBackends 回傳各解析後端的可用性
func (h *Handler) HandleBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"backends": h.controller.BackendStatuses(c.Request.Context()),
	})
}

// errorToResponse 把解析錯誤映射為 HTTP 回應
func errorToResponse(err error) (int, common.ErrorResponse) {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return ce.Status, common.ErrorResponse{
			Code:    ce.Code,
			Message: ce.Message,
		}
	}
	return http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
	}
}
