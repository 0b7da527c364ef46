package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/dto"
)

// StationHandler handles station and tank catalog endpoints.
type StationHandler struct {
	*BaseHandler
	service *station.Service
}

// NewStationHandler creates a new station handler.
func NewStationHandler(base *BaseHandler, service *station.Service) *StationHandler {
	return &StationHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/stations
func (h *StationHandler) Create(c *gin.Context) {
	var req dto.CreateStationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	companyID, err := id.Parse(req.CompanyID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid companyId format"))
		return
	}

	st := station.NewStation(req.Code, req.Name, companyID)
	st.Address = req.Address

	if err := h.service.CreateStation(c.Request.Context(), st); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, st.ID)
}

// Get handles GET /catalog/stations/:stationId
func (h *StationHandler) Get(c *gin.Context) {
	stationID, ok := h.ParseID(c, "stationId")
	if !ok {
		return
	}

	st, err := h.service.GetStationByID(c.Request.Context(), stationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, st)
}

// List handles GET /catalog/stations
func (h *StationHandler) List(c *gin.Context) {
	companyID, ok := h.ParseIDQuery(c, "companyId")
	if !ok {
		return
	}

	stations, err := h.service.ListStations(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[*station.Station]{Items: stations})
}

// CreateTank handles POST /catalog/stations/:stationId/tanks
func (h *StationHandler) CreateTank(c *gin.Context) {
	stationID, ok := h.ParseID(c, "stationId")
	if !ok {
		return
	}

	var req dto.CreateTankRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	t := station.NewTank(req.Code, req.Name, stationID, productID)
	t.Capacity = req.Capacity

	if err := h.service.CreateTank(c.Request.Context(), t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t.ID)
}

// ListTanks handles GET /catalog/stations/:stationId/tanks
func (h *StationHandler) ListTanks(c *gin.Context) {
	stationID, ok := h.ParseID(c, "stationId")
	if !ok {
		return
	}

	tanks, err := h.service.ListTanks(c.Request.Context(), stationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[*station.Tank]{Items: tanks})
}
