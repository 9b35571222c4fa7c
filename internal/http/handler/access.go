package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docspot/internal/http/middleware"
	"docspot/internal/model"
	"docspot/internal/service"
)

// AccessResponse is the body of a granted purchase or free download.
type AccessResponse struct {
	FileURL   string   `json:"file_url"`
	UsedKey   *string  `json:"used_key,omitempty"`
	Committed bool     `json:"committed"`
	Warnings  []string `json:"warnings,omitempty"`
}

// UpvoteResponse is the body of a successful upvote.
type UpvoteResponse struct {
	DocumentID string `json:"document_id"`
	Upvotes    int64  `json:"upvotes"`
}

// ActivityListResponse wraps the activity feed.
type ActivityListResponse struct {
	Items []model.Activity `json:"items"`
}

// DownloadListResponse wraps the download history.
type DownloadListResponse struct {
	Items []service.DownloadedDocument `json:"items"`
}

func accessResponse(res *service.AccessResult) AccessResponse {
	out := AccessResponse{FileURL: res.FileURL, UsedKey: res.UsedKey, Committed: res.Committed}
	for _, w := range res.Warnings {
		var sw *service.StepWarning
		if errors.As(w, &sw) {
			out.Warnings = append(out.Warnings, sw.Step)
			continue
		}
		out.Warnings = append(out.Warnings, "access logging")
	}
	return out
}

// BuyDocument godoc
// @Summary Buy a paid document
// @Description Moves the price from the caller's wallet to the owner's and returns the file URL.
// @Tags access
// @Produce json
// @Security BearerAuth
// @Param documentId path string true "Document ID"
// @Success 200 {object} AccessResponse
// @Failure 400 {object} middleware.ErrorPayload
// @Failure 402 {object} middleware.ErrorPayload
// @Failure 404 {object} middleware.ErrorPayload
// @Failure 504 {object} middleware.ErrorPayload "error.committed is true or false when the transfer outcome is known and absent when it is unknown"
// @Router /buy/{documentId} [post]
func BuyDocument(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.BuyDocument(c.UserContext(), middleware.UserID(c), c.Params("documentId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(accessResponse(res))
	}
}

// DownloadDocument godoc
// @Summary Download a free document
// @Tags access
// @Produce json
// @Security BearerAuth
// @Param documentId path string true "Document ID"
// @Success 200 {object} AccessResponse
// @Failure 400 {object} middleware.ErrorPayload
// @Failure 404 {object} middleware.ErrorPayload
// @Router /download/{documentId} [post]
func DownloadDocument(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.DownloadFree(c.UserContext(), middleware.UserID(c), c.Params("documentId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(accessResponse(res))
	}
}

// UpvoteDocument godoc
// @Summary Upvote a document
// @Tags access
// @Produce json
// @Security BearerAuth
// @Param documentId path string true "Document ID"
// @Success 200 {object} UpvoteResponse
// @Failure 404 {object} middleware.ErrorPayload
// @Router /upvote/{documentId} [post]
func UpvoteDocument(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("documentId")
		n, err := svc.Upvote(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(UpvoteResponse{DocumentID: id, Upvotes: n})
	}
}

// ListDownloaded godoc
// @Summary List the caller's downloads
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DownloadListResponse
// @Router /documents/downloaded [get]
func ListDownloaded(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.Downloads(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(DownloadListResponse{Items: items})
	}
}

// ListActivities godoc
// @Summary List the caller's activity feed
// @Tags activities
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items (1-100)" default(20)
// @Success 200 {object} ActivityListResponse
// @Failure 400 {object} middleware.ErrorPayload
// @Router /activities [get]
func ListActivities(svc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "invalid limit")
		}
		items, err := svc.Activities(c.UserContext(), middleware.UserID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(ActivityListResponse{Items: items})
	}
}
