package v1

import (
	"github.com/vibe-gaming/countries/internal/config"
	"github.com/vibe-gaming/countries/internal/service"

	"github.com/gin-gonic/gin"
)

// @title Country Stats API
// @version 1.0
// @description Aggregated region statistics over the imported country listing

// @BasePath /

type Handler struct {
	services *service.Services
	config   *config.Config
}

func NewHandler(services *service.Services, config *config.Config) *Handler {
	return &Handler{
		services: services,
		config:   config,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	h.initCountriesRoutes(api)
}
