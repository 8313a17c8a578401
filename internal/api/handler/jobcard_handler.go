package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/autoworks/jobcard-service/internal/api/metrics"
	"github.com/autoworks/jobcard-service/internal/core/domain"
	"github.com/autoworks/jobcard-service/internal/core/ports"
)

// JobCardHandler handles HTTP requests for job card operations.
type JobCardHandler struct {
	service ports.JobCardService
	uploads *ImageUploads
}

func NewJobCardHandler(service ports.JobCardService, uploads *ImageUploads) *JobCardHandler {
	return &JobCardHandler{service: service, uploads: uploads}
}

type createJobCardResponse struct {
	Created bool            `json:"created"`
	JobCard *domain.JobCard `json:"jobCard"`
}

const notFoundMessage = "job card not found"

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = domain.KindOf(err).String()
	}
	metrics.JobCardOpsTotal.WithLabelValues(op, result).Inc()
}

// Create handles POST /jobcards.
//
// @Summary      Create a job card
// @Tags         jobcards
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        job_card_number  formData  string  true   "Job card number"
// @Param        chassis_number   formData  string  false  "Chassis number"
// @Param        image            formData  file    true   "JPEG or GIF image, at most 5 MiB"
// @Success      201              {object}  createJobCardResponse
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /jobcards [post]
func (h *JobCardHandler) Create(c echo.Context) (err error) {
	defer func() { observe("create", err) }()
	ctx := c.Request().Context()

	form, err := h.uploads.parseForm(c)
	if err != nil {
		return err
	}
	in := domain.NewJobCard{}
	in.JobCardNumber, _ = formValue(form, "job_card_number")
	if v, ok := formValue(form, "chassis_number"); ok && v != "" {
		in.ChassisNumber = &v
	}

	in.ImagePath, err = h.uploads.Accept(ctx, formFile(form, "image"))
	if err != nil {
		return err
	}

	card, err := h.service.Create(ctx, in)
	if err != nil {
		h.uploads.Discard(ctx, in.ImagePath)
		return err
	}
	return c.JSON(http.StatusCreated, createJobCardResponse{Created: true, JobCard: card})
}

// List handles GET /jobcards. A job_card_number or chassis_number query
// narrows the result to the first matching card.
//
// @Summary      List job cards
// @Tags         jobcards
// @Produce      json
// @Security     BearerAuth
// @Param        job_card_number  query     string  false  "Filter by job card number"
// @Param        chassis_number   query     string  false  "Filter by chassis number"
// @Success      200              {array}   domain.JobCard
// @Failure      401              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /jobcards [get]
func (h *JobCardHandler) List(c echo.Context) (err error) {
	defer func() { observe("list", err) }()
	ctx := c.Request().Context()

	var card *domain.JobCard
	switch {
	case c.QueryParam("job_card_number") != "":
		card, err = h.service.FindByJobCardNumber(ctx, c.QueryParam("job_card_number"))
	case c.QueryParam("chassis_number") != "":
		card, err = h.service.FindByChassisNumber(ctx, c.QueryParam("chassis_number"))
	default:
		cards, err := h.service.List(ctx)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, cards)
	}
	if err != nil {
		return err
	}

	cards := []domain.JobCard{}
	if card != nil {
		cards = append(cards, *card)
	}
	return c.JSON(http.StatusOK, cards)
}

// Get handles GET /jobcards/:id.
//
// @Summary      Get a job card
// @Tags         jobcards
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job card id"
// @Success      200  {object}  domain.JobCard
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /jobcards/{id} [get]
func (h *JobCardHandler) Get(c echo.Context) (err error) {
	defer func() { observe("get", err) }()

	card, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if card == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": notFoundMessage})
	}
	return c.JSON(http.StatusOK, card)
}

// Update handles PATCH /jobcards/:id. A JSON body distinguishes omitted keys
// from explicit nulls. A multipart body treats every present form key as
// supplied, an empty chassis_number as null, and an image part as a new
// image_path.
//
// @Summary      Update a job card
// @Tags         jobcards
// @Accept       json,multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true   "Job card id"
// @Param        body  body      domain.JobCardPatch  false  "Fields to change"
// @Success      200   {object}  domain.JobCard
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /jobcards/{id} [patch]
func (h *JobCardHandler) Update(c echo.Context) (err error) {
	defer func() { observe("update", err) }()
	ctx := c.Request().Context()

	var (
		patch    domain.JobCardPatch
		newImage string
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := h.uploads.parseForm(c)
		if err != nil {
			return err
		}
		if v, ok := formValue(form, "job_card_number"); ok {
			patch.JobCardNumber = domain.Set(v)
		}
		if v, ok := formValue(form, "chassis_number"); ok {
			if v == "" {
				patch.ChassisNumber = domain.Null[string]()
			} else {
				patch.ChassisNumber = domain.Set(v)
			}
		}
		if fh := formFile(form, "image"); fh != nil {
			newImage, err = h.uploads.Accept(ctx, fh)
			if err != nil {
				return err
			}
			patch.ImagePath = domain.Set(newImage)
		}
	} else if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
		return domain.Validation("invalid payload")
	}

	card, err := h.service.Update(ctx, c.Param("id"), patch)
	if err != nil {
		h.uploads.Discard(ctx, newImage)
		return err
	}
	if card == nil {
		h.uploads.Discard(ctx, newImage)
		return c.JSON(http.StatusNotFound, map[string]string{"error": notFoundMessage})
	}
	return c.JSON(http.StatusOK, card)
}

// Delete handles DELETE /jobcards/:id. Unknown ids succeed.
//
// @Summary      Delete a job card
// @Tags         jobcards
// @Security     BearerAuth
// @Param        id   path  string  true  "Job card id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /jobcards/{id} [delete]
func (h *JobCardHandler) Delete(c echo.Context) (err error) {
	defer func() { observe("delete", err) }()

	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
