package v1

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/domain"
	"github.com/vibe-gaming/countries/internal/service"
	"github.com/vibe-gaming/countries/pkg/logger"
)

const cacheStatusHeader = "X-Cache"

func (h *Handler) initCountriesRoutes(api *gin.RouterGroup) {
	countries := api.Group("/countries")
	{
		countries.GET("/stats/", h.getRegionStats)
	}
}

type statsQueryRequest struct {
	Name    string `form:"name" binding:"max=100,regionname"`
	Page    string `form:"page" binding:"omitempty,number"`
	PerPage string `form:"per_page" binding:"omitempty,number"`
}

type statsPagination struct {
	Page    int `json:"page" binding:"min=1"`
	PerPage int `json:"per_page" binding:"min=1"`
}

type statsMeta struct {
	domain.PageMeta
	ExecutionTimeMs float64 `json:"execution_time_ms"`
}

type statsResponse struct {
	Regions []domain.RegionStats `json:"regions"`
	Meta    statsMeta            `json:"meta"`
}

// @Summary Region statistics
// @Tags Countries
// @Description Number of countries and total population per region, filtered by name and paginated.
// @Description Results are cached per query; execution_time_ms is measured for every request.
// @ModuleID getRegionStats
// @Produce  json
// @Param name query string false "Case-insensitive substring of the region name (letters, spaces, hyphens)"
// @Param page query int false "Page number (default 1)"
// @Param per_page query int false "Items per page (default STATS_DEFAULT_PER_PAGE, max STATS_MAX_PER_PAGE)"
// @Success 200 {object} statsResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 405 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /countries/stats/ [get]
func (h *Handler) getRegionStats(c *gin.Context) {
	started := time.Now()

	query, ok := h.parseStatsQuery(c)
	if !ok {
		return
	}

	page, cached, err := h.services.Stats.RegionStats(c.Request.Context(), query)
	if err != nil {
		logger.Error("get region stats failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, InternalErrorCode)
		return
	}

	if cached {
		c.Header(cacheStatusHeader, "HIT")
	} else {
		c.Header(cacheStatusHeader, "MISS")
	}

	c.JSON(http.StatusOK, statsResponse{
		Regions: page.Regions,
		Meta: statsMeta{
			PageMeta:        page.Meta,
			ExecutionTimeMs: float64(time.Since(started).Microseconds()) / 1000,
		},
	})
}

// parseStatsQuery validates ?name=&page=&per_page= and writes a 400 on failure.
func (h *Handler) parseStatsQuery(c *gin.Context) (service.StatsQuery, bool) {
	var req statsQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		validationErrorResponse(c, err)
		return service.StatsQuery{}, false
	}

	defaultPerPage, maxPerPage := h.perPageLimits()

	pagination := statsPagination{Page: 1, PerPage: defaultPerPage}
	var errs []ValidationError
	if req.Page != "" {
		p, err := strconv.Atoi(req.Page)
		if err != nil {
			errs = append(errs, ValidationError{"page", msgForTag("number", "", reflect.Int)})
		}
		pagination.Page = p
	}
	if req.PerPage != "" {
		p, err := strconv.Atoi(req.PerPage)
		if err != nil {
			errs = append(errs, ValidationError{"per_page", msgForTag("number", "", reflect.Int)})
		}
		pagination.PerPage = p
	}
	if len(errs) > 0 {
		fieldErrorResponse(c, errs)
		return service.StatsQuery{}, false
	}

	if err := binding.Validator.ValidateStruct(pagination); err != nil {
		validationErrorResponse(c, err)
		return service.StatsQuery{}, false
	}
	if pagination.PerPage > maxPerPage {
		fieldErrorResponse(c, []ValidationError{{"per_page", msgForTag("max", strconv.Itoa(maxPerPage), reflect.Int)}})
		return service.StatsQuery{}, false
	}

	return service.StatsQuery{
		Name:    strings.TrimSpace(req.Name),
		Page:    pagination.Page,
		PerPage: pagination.PerPage,
	}, true
}

// perPageLimits returns the configured default and maximum page size. The
// default never exceeds the maximum.
func (h *Handler) perPageLimits() (int, int) {
	defaultPerPage, maxPerPage := service.DefaultPerPage, service.MaxPerPage
	if h.config != nil {
		if h.config.Stats.MaxPerPage > 0 {
			maxPerPage = h.config.Stats.MaxPerPage
		}
		if h.config.Stats.DefaultPerPage > 0 {
			defaultPerPage = h.config.Stats.DefaultPerPage
		}
	}
	return min(defaultPerPage, maxPerPage), maxPerPage
}
