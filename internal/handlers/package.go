package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"eventhub/internal/auth"
	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/services"
	"eventhub/internal/utils"
)

type PackageHandler struct {
	catalogService *services.CatalogService
}

func NewPackageHandler(catalogService *services.CatalogService) *PackageHandler {
	return &PackageHandler{
		catalogService: catalogService,
	}
}

// SearchPackages is the public catalog query. With displayMode=grouped the
// response also carries synthetic multi-vendor bundles.
func (h *PackageHandler) SearchPackages(c *gin.Context) {
	filter, err := parseSearchFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid query parameters", err.Error()))
		return
	}

	result, err := h.catalogService.Search(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to search packages", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Packages retrieved", result))
}

func (h *PackageHandler) GetPackage(c *gin.Context) {
	pkg, err := h.catalogService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPackageNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Package not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve package", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Package retrieved", pkg))
}

func (h *PackageHandler) CreatePackage(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionPackageManage, auth.ResourcePackage); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	var req models.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	pkg, err := h.catalogService.CreatePackage(c.Request.Context(), &req, actor.ID)
	if err != nil {
		h.respondPackageError(c, err, "Failed to create package")
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Package created", pkg))
}

func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionPackageManage, auth.ResourcePackage); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	var req models.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	pkg, err := h.catalogService.UpdatePackage(c.Request.Context(), c.Param("id"), &req, actor.ID)
	if err != nil {
		h.respondPackageError(c, err, "Failed to update package")
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Package updated", pkg))
}

func (h *PackageHandler) ListMyPackages(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionPackageManage, auth.ResourcePackage); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	packages, err := h.catalogService.ListMine(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list packages", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Packages retrieved", packages))
}

func (h *PackageHandler) respondPackageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrPackageNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Package not found", err.Error()))
	case errors.Is(err, services.ErrInvalidPrice), errors.Is(err, services.ErrInvalidCrowdRange):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse(fallback, err.Error()))
	}
}

func parseSearchFilter(c *gin.Context) (models.SearchFilter, error) {
	filter := models.SearchFilter{
		EventType:   c.Query("eventType"),
		ServiceType: c.Query("serviceType"),
		Grouped:     c.Query("displayMode") == "grouped",
	}

	if v := c.Query("minPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MinPrice = &n
	}
	if v := c.Query("maxPrice"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MaxPrice = &n
	}
	if v := c.Query("crowdSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.CrowdSize = &n
	}
	if v := c.Query("maxBudget"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.MaxBudget = &n
	}
	if v := c.Query("requiredServices"); v != "" {
		filter.RequiredServices = strings.Split(v, ",")
	}

	return filter, nil
}
