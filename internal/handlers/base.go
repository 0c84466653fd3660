package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindForbidden, apperrors.KindEditWindowExpired:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// JSONError maps a domain error onto the response envelope. Internal causes
// are logged with the request id and never leaked to the client.
func JSONError(c *gin.Context, log zerolog.Logger, err error) {
	kind := apperrors.KindOf(err)
	message := "internal error"
	if e, ok := err.(*apperrors.Error); ok && kind != apperrors.KindInternal {
		message = e.Message
	}
	if kind == apperrors.KindInternal {
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("request failed")
	}

	c.JSON(statusForKind(kind), gin.H{
		"error": gin.H{"code": kind.Code(), "message": message},
	})
}

// bindJSON wraps gin binding failures into the validation kind.
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err.Error(), err)
	}
	return nil
}

type pageParams struct {
	Page    int
	PerPage int
	Offset  int
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func parsePage(c *gin.Context) pageParams {
	page := utils.ParseIntDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}

	perPage := utils.ParseIntDefault(c.Query("per_page"), defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return pageParams{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}
