package handler

import (
	"net/http"
	"strconv"

	"carrental/internal/middleware"
	"carrental/internal/model"
	"carrental/internal/service"
	"carrental/pkg/pagination"
	"carrental/pkg/response"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	fleetService service.FleetService
}

func NewVehicleHandler(fleetService service.FleetService) *VehicleHandler {
	return &VehicleHandler{fleetService: fleetService}
}

func (h *VehicleHandler) RegisterRoutes(router *gin.RouterGroup) {
	vehicles := router.Group("/api/vehicles", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/groups", h.ListGroups)
		vehicles.GET("/count", h.CountVehicles)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.POST("", h.AddVehicle)
		vehicles.POST("/batch", h.AddVehicleBatch)
		vehicles.POST("/adjust-stock", h.AdjustStock)
		vehicles.PUT("/group", h.UpdateVehicleGroup)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/group", h.DeleteVehicleGroup)
		vehicles.DELETE("/:id", h.DeleteVehicle)
	}
}

// ListVehicles returns paginated vehicles with optional search/status filter
// @Summary      List vehicles
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        status  query     string  false  "Filter by status: Available, Rented, Maintenance"
// @Param        search  query     string  false  "Search by make, model, registration"
// @Success      200     {object}  response.Response
// @Router       /api/vehicles [get]
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")
	if c.Query("available") == "true" {
		status = model.VehicleAvailable
	}

	vehicles, total, err := h.fleetService.ListVehicles(c.Request.Context(), c.Query("search"), status, params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, vehicles, params.Page, params.Limit, total))
}

// ListGroups returns the derived configuration view of the fleet
// @Summary      List vehicle configuration groups
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/vehicles/groups [get]
func (h *VehicleHandler) ListGroups(c *gin.Context) {
	groups, err := h.fleetService.GroupSummaries(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// CountVehicles returns the unit count of one configuration
// @Summary      Count vehicles in a configuration
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        make   query  string  true  "Make"
// @Param        model  query  string  true  "Model"
// @Param        year   query  int     true  "Year"
// @Success      200  {object}  response.Response
// @Router       /api/vehicles/count [get]
func (h *VehicleHandler) CountVehicles(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid year"))
		return
	}
	count, err := h.fleetService.CountVehicles(c.Request.Context(), c.Query("make"), c.Query("model"), year)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"count": count}))
}

// GetVehicle returns a single vehicle
// @Summary      Get vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  int  true  "Vehicle ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id} [get]
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	vehicle, err := h.fleetService.GetVehicle(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// AddVehicle creates a single vehicle
// @Summary      Add vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.AddVehicleRequest  true  "Vehicle payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles [post]
func (h *VehicleHandler) AddVehicle(c *gin.Context) {
	var req service.AddVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	vehicle, err := h.fleetService.AddVehicle(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicle))
}

// AddVehicleBatch creates several units of one configuration at once
// @Summary      Add vehicle batch
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.AddVehicleBatchRequest  true  "Batch payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles/batch [post]
func (h *VehicleHandler) AddVehicleBatch(c *gin.Context) {
	var req service.AddVehicleBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	vehicles, err := h.fleetService.AddVehicleBatch(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicles))
}

// AdjustStock reconciles a configuration's unit count against a target
// @Summary      Adjust fleet stock
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.AdjustStockRequest  true  "Reconciliation payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vehicles/adjust-stock [post]
func (h *VehicleHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	result, err := h.fleetService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateVehicle updates a single vehicle
// @Summary      Update vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  int                           true  "Vehicle ID"
// @Param        payload  body  service.UpdateVehicleRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles/{id} [put]
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	vehicle, err := h.fleetService.UpdateVehicle(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// UpdateVehicleGroup rewrites every unit of a configuration
// @Summary      Update vehicle group
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.UpdateVehicleGroupRequest  true  "Group update payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/group [put]
func (h *VehicleHandler) UpdateVehicleGroup(c *gin.Context) {
	var req service.UpdateVehicleGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	count, err := h.fleetService.UpdateVehicleGroup(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": count}))
}

// DeleteVehicle removes a single vehicle
// @Summary      Delete vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  int  true  "Vehicle ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles/{id} [delete]
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := h.fleetService.DeleteVehicle(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Vehicle not found"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Vehicle deleted successfully"}))
}

// DeleteVehicleGroup removes every unit of a configuration
// @Summary      Delete vehicle group
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        make   query  string  true  "Make"
// @Param        model  query  string  true  "Model"
// @Param        year   query  int     true  "Year"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/vehicles/group [delete]
func (h *VehicleHandler) DeleteVehicleGroup(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid year"))
		return
	}
	count, err := h.fleetService.DeleteVehicleGroup(c.Request.Context(), c.Query("make"), c.Query("model"), year)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": count}))
}
