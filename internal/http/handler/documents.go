package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"docspot/internal/http/middleware"
	"docspot/internal/model"
	"docspot/internal/service"
)

// DocumentListResponse wraps a list of documents.
type DocumentListResponse struct {
	Items []model.Document `json:"items"`
}

// ExploreDocuments godoc
// @Summary Explore other users' documents
// @Description Lists documents not owned by the caller, newest first. query matches title substrings and tags.
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param query query string false "Title substring or tag"
// @Success 200 {object} DocumentListResponse
// @Router /documents [get]
func ExploreDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Explore(c.UserContext(), middleware.UserID(c), c.Query("query"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(DocumentListResponse{Items: items})
	}
}

// ListUploaded godoc
// @Summary List the caller's uploaded documents with their passkeys
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DocumentListResponse
// @Router /documents/uploaded [get]
func ListUploaded(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListUploaded(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(DocumentListResponse{Items: items})
	}
}

// GetDocument godoc
// @Summary Get a document
// @Description Passkeys are only returned to the owner.
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 404 {object} middleware.ErrorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(doc)
	}
}

// UploadDocument godoc
// @Summary Publish a document
// @Description Streams the file to object storage and saves its metadata. Paid documents get a passkey pool.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Document file"
// @Param title formData string true "Title"
// @Param course_name formData string true "Course name"
// @Param semester formData string true "Fall, Spring or Summer"
// @Param academic_year formData int true "Academic year"
// @Param access_type formData string true "free or paid"
// @Param price formData string false "Price of a paid document"
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} model.Document
// @Failure 400 {object} middleware.ErrorPayload
// @Failure 502 {object} middleware.ErrorPayload
// @Router /documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "file is required")
		}

		in, msg := parseUploadForm(c)
		if msg != "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", msg)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), middleware.UserID(c), in, service.FileInput{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// parseUploadForm reads the metadata fields. A non-empty message reports the first malformed field.
func parseUploadForm(c *fiber.Ctx) (service.UploadInput, string) {
	in := service.UploadInput{
		Title:          c.FormValue("title"),
		Description:    c.FormValue("description"),
		University:     c.FormValue("university"),
		Semester:       model.Semester(c.FormValue("semester")),
		CourseName:     c.FormValue("course_name"),
		InstructorName: c.FormValue("instructor_name"),
		AccessType:     model.AccessType(strings.ToLower(c.FormValue("access_type", string(model.AccessFree)))),
		Price:          decimal.Zero,
	}

	if v := c.FormValue("academic_year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return in, "invalid academic_year"
		}
		in.AcademicYear = year
	}
	if v := c.FormValue("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, "invalid price"
		}
		in.Price = price
	}
	if v := c.FormValue("tags"); v != "" {
		in.Tags = strings.Split(v, ",")
	}
	return in, ""
}
