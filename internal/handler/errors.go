package handler

import (
	"errors"
	"net/http"

	"github.com/fishryanie/GC-sub000/internal/i18n"
	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorWriter turns service errors into localized JSON error responses.
type ErrorWriter struct {
	tr  *i18n.Translator
	log *zap.Logger
}

func NewErrorWriter(tr *i18n.Translator, log *zap.Logger) *ErrorWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorWriter{tr: tr, log: log}
}

func statusOf(code service.Code) int {
	switch code {
	case service.CodeOrderNotFound, service.CodeCustomerNotFound, service.CodePublicLinkNotFound:
		return http.StatusNotFound
	case service.CodeAdminRequired:
		return http.StatusForbidden
	case service.CodeOrderAlreadyReviewed, service.CodeOrderPendingApprovalLocked:
		return http.StatusConflict
	case service.CodePublicLinkInactive:
		return http.StatusGone
	case service.CodeInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// Write responds with the status and message matching err.
func (w *ErrorWriter) Write(c *gin.Context, err error) {
	lang := w.tr.Match(c.GetHeader("Accept-Language"))

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status := statusOf(svcErr.Code)
		c.JSON(status, response.CodedError(status, string(svcErr.Code), w.tr.Message(lang, string(svcErr.Code), svcErr.Detail)))
		return
	}

	_ = c.Error(err)
	w.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, response.CodedError(http.StatusInternalServerError, i18n.KeyInternalError, w.tr.Message(lang, i18n.KeyInternalError, "")))
}

// BadRequest responds 400 for a payload that failed binding or validation.
func (w *ErrorWriter) BadRequest(c *gin.Context, detail string) {
	lang := w.tr.Match(c.GetHeader("Accept-Language"))
	c.JSON(http.StatusBadRequest, response.CodedError(http.StatusBadRequest, i18n.KeyInvalidRequest, w.tr.Message(lang, i18n.KeyInvalidRequest, detail)))
}

// Unauthorized responds 401 when no actor is on the context.
func (w *ErrorWriter) Unauthorized(c *gin.Context) {
	lang := w.tr.Match(c.GetHeader("Accept-Language"))
	c.JSON(http.StatusUnauthorized, response.CodedError(http.StatusUnauthorized, i18n.KeyUnauthorized, w.tr.Message(lang, i18n.KeyUnauthorized, "")))
}

// RateLimited is the message of the public 429 response in the default language.
func (w *ErrorWriter) RateLimited() string {
	return w.tr.Message(w.tr.Match(""), i18n.KeyRateLimited, "")
}
