package handler

import (
	"net/http"

	"carrental/internal/middleware"
	"carrental/internal/model"
	"carrental/internal/service"
	"carrental/pkg/pagination"
	"carrental/pkg/response"

	"github.com/gin-gonic/gin"
)

type RentalHandler struct {
	rentalService service.RentalService
}

func NewRentalHandler(rentalService service.RentalService) *RentalHandler {
	return &RentalHandler{rentalService: rentalService}
}

func (h *RentalHandler) RegisterRoutes(router *gin.RouterGroup) {
	rentals := router.Group("/api/rentals", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		rentals.GET("", h.ListRentals)
		rentals.POST("", h.CreateRental)
		rentals.POST("/:id/complete", h.CompleteRental)
	}
}

// ListRentals returns paginated rentals with customer and vehicle detail attached
// @Summary      List rentals
// @Tags         rentals
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter by status: Active, Completed, Cancelled"
// @Success      200  {object}  response.Response
// @Router       /api/rentals [get]
func (h *RentalHandler) ListRentals(c *gin.Context) {
	params := pagination.Parse(c)
	rentals, total, err := h.rentalService.ListRentals(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rentals, params.Page, params.Limit, total))
}

// CreateRental books an available vehicle for a customer
// @Summary      Create rental
// @Tags         rentals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateRentalRequest  true  "Rental payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/rentals [post]
func (h *RentalHandler) CreateRental(c *gin.Context) {
	var req service.CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	rental, err := h.rentalService.CreateRental(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rental))
}

// CompleteRental finishes an active rental and frees the vehicle
// @Summary      Complete rental
// @Tags         rentals
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  int  true  "Rental ID"
// @Success      200  {object}  response.Response
// @Router       /api/rentals/{id}/complete [post]
func (h *RentalHandler) CompleteRental(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	completed, err := h.rentalService.CompleteRental(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"completed": completed}))
}
