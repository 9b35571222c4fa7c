package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docspot/internal/service"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Documents service.DocumentService
	Access    service.AccessService
	Wallets   service.WalletService
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// auth guards every user route; limit additionally guards the mutating access routes.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services, auth, limit fiber.Handler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/buy/:documentId", limit, auth, BuyDocument(svcs.Access))
	app.Post("/download/:documentId", limit, auth, DownloadDocument(svcs.Access))
	app.Post("/upvote/:documentId", limit, auth, UpvoteDocument(svcs.Access))

	docs := app.Group("/documents", auth)
	docs.Get("/", ExploreDocuments(svcs.Documents))
	docs.Post("/", limit, UploadDocument(svcs.Documents))
	docs.Get("/uploaded", ListUploaded(svcs.Documents))
	docs.Get("/downloaded", ListDownloaded(svcs.Access))
	docs.Get("/:id", GetDocument(svcs.Documents))

	app.Post("/wallet", auth, CreateWallet(svcs.Wallets))
	app.Get("/wallet", auth, GetWallet(svcs.Wallets))

	app.Get("/activities", auth, ListActivities(svcs.Access))
}
