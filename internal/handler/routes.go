package handler

import (
	"net/http"

	"github.com/msomdec/design-catalog/internal/domain"
	"github.com/msomdec/design-catalog/internal/service"
)

// Options carries the deployment settings the handlers need.
type Options struct {
	MediaBaseURL string
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	designs *service.DesignService,
	counters *service.CounterService,
	blobs domain.BlobStore,
	loginLimiter *service.TokenBucket,
	opts Options,
) {
	authH := NewAuthHandler(auth, opts.CookieSecure)
	designH := NewDesignHandler(designs, counters, opts.MediaBaseURL)
	mediaH := NewMediaHandler(blobs)

	admin := func(fn http.HandlerFunc) http.Handler { return RequireAdmin(auth, fn) }

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// Admin session.
	mux.Handle("POST /admin/login", RateLimit(loginLimiter, http.HandlerFunc(authH.HandleLogin)))
	mux.HandleFunc("POST /admin/logout", authH.HandleLogout)
	mux.Handle("GET /admin/me", admin(authH.HandleMe))

	// Public reads. Admins also see inactive designs.
	mux.Handle("GET /designs/{kind}/{id}", OptionalAdmin(auth, http.HandlerFunc(designH.HandleGet)))
	mux.HandleFunc("POST /designs/{kind}/{id}/views", designH.HandleView)
	mux.HandleFunc("POST /designs/{kind}/{id}/downloads", designH.HandleDownload)
	mux.HandleFunc("GET /media/{path...}", mediaH.HandleServe)

	// Catalog management.
	mux.Handle("POST /designs/{kind}", admin(designH.HandleCreate))
	mux.Handle("PUT /designs/{kind}/{id}", admin(designH.HandleUpdate))
	mux.Handle("DELETE /designs/{kind}/{id}", admin(designH.HandleDelete))
	mux.Handle("DELETE /designs/{kind}/{id}/images/{imageId}", admin(designH.HandleDeleteImage))
	mux.Handle("DELETE /designs/{kind}/{id}/files/{fileId}", admin(designH.HandleDeleteFile))
}
