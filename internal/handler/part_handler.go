package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"carparts/internal/errors"
	"carparts/internal/service"
	"carparts/internal/storage"
)

// PartHandler handles catalog endpoints and serves part images.
type PartHandler struct {
	catalogService service.CatalogService
	images         storage.ImageStore
}

// NewPartHandler creates a new part handler.
func NewPartHandler(catalogService service.CatalogService, images storage.ImageStore) *PartHandler {
	return &PartHandler{catalogService: catalogService, images: images}
}

// PartListResponse is one page of the catalog.
type PartListResponse struct {
	Parts       []PartResponse `json:"parts"`
	TotalParts  int64          `json:"total_parts"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
}

// PartCreatedResponse is returned after adding a part.
type PartCreatedResponse struct {
	Message string       `json:"message"`
	Part    PartResponse `json:"part"`
}

// ListParts godoc
// @Summary List catalog parts
// @Tags parts
// @Produce json
// @Param car_model query string false "Car model substring"
// @Param name query string false "Part name substring"
// @Param page query int false "Page number (1-based)" default(1)
// @Param per_page query int false "Page size" default(6)
// @Success 200 {object} PartListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /parts [get]
func (h *PartHandler) ListParts(c echo.Context) error {
	q := service.ListPartsQuery{
		CarModel: optionalQuery(c, "car_model"),
		Name:     optionalQuery(c, "name"),
		Page:     intQuery(c, "page", 1),
		PerPage:  intQuery(c, "per_page", service.DefaultPageSize),
	}

	page, err := h.catalogService.ListParts(c.Request().Context(), q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, PartListResponse{
		Parts:       toPartResponses(page.Parts),
		TotalParts:  page.TotalParts,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	})
}

// GetPart godoc
// @Summary Get a part
// @Tags parts
// @Produce json
// @Param id path int true "Part ID"
// @Success 200 {object} PartResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /parts/{id} [get]
func (h *PartHandler) GetPart(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrPartNotFound)
	if err != nil {
		return err
	}
	part, err := h.catalogService.GetPart(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, toPartResponse(*part))
}

// AddPart godoc
// @Summary Add a part (admin)
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Name"
// @Param car_model formData string true "Car model"
// @Param price formData string true "Price"
// @Param description formData string true "Description"
// @Param image formData file true "Image"
// @Success 201 {object} PartCreatedResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/parts [post]
func (h *PartHandler) AddPart(c echo.Context) error {
	in, err := partInput(c)
	if err != nil {
		return err
	}
	image, closeImage, err := imageUpload(c)
	if err != nil {
		return err
	}
	defer closeImage()

	part, err := h.catalogService.AddPart(c.Request().Context(), in, image)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, PartCreatedResponse{
		Message: "Part added successfully",
		Part:    toPartResponse(*part),
	})
}

// UpdatePart godoc
// @Summary Update a part (admin)
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Part ID"
// @Param name formData string false "Name"
// @Param car_model formData string false "Car model"
// @Param price formData string false "Price"
// @Param description formData string false "Description"
// @Param image formData file false "Image"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/parts/{id} [put]
func (h *PartHandler) UpdatePart(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrPartNotFound)
	if err != nil {
		return err
	}
	in, err := partInput(c)
	if err != nil {
		return err
	}
	image, closeImage, err := imageUpload(c)
	if err != nil {
		return err
	}
	defer closeImage()

	if _, err := h.catalogService.UpdatePart(c.Request().Context(), id, in, image); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Part updated successfully"})
}

// DeletePart godoc
// @Summary Delete a part (admin)
// @Tags admin
// @Produce json
// @Param id path int true "Part ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/parts/{id} [delete]
func (h *PartHandler) DeletePart(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrPartNotFound)
	if err != nil {
		return err
	}
	if err := h.catalogService.DeletePart(c.Request().Context(), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Part deleted successfully"})
}

// ServeImage streams a stored part image.
func (h *PartHandler) ServeImage(c echo.Context) error {
	name := c.Param("filename")
	rc, err := h.images.Open(c.Request().Context(), name)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) || stderrors.Is(err, storage.ErrInvalidKey) {
			return echo.ErrNotFound
		}
		return fail(errors.Internal("open image", err))
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Stream(http.StatusOK, storage.ContentType(name), rc)
}

func optionalQuery(c echo.Context, name string) *string {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return &v
}

// intQuery falls back to def when the parameter is absent or not a number.
func intQuery(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}

func partInput(c echo.Context) (service.PartInput, error) {
	params, err := c.FormParams()
	if err != nil {
		return service.PartInput{}, badRequest("invalid form data")
	}
	field := func(key string) *string {
		values, ok := params[key]
		if !ok || len(values) == 0 {
			return nil
		}
		return &values[0]
	}
	return service.PartInput{
		Name:        field("name"),
		CarModel:    field("car_model"),
		Price:       field("price"),
		Description: field("description"),
	}, nil
}

// imageUpload opens the optional "image" file. The returned func closes it.
func imageUpload(c echo.Context) (*service.ImageUpload, func(), error) {
	header, err := c.FormFile("image")
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, badRequest("invalid image file")
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, badRequest("invalid image file")
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Body:        file,
	}, func() { file.Close() }, nil
}
