package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"speechable/internal/http/handlers"
	"speechable/internal/middleware"
)

// Options carries the router settings that come from configuration.
type Options struct {
	Logger          zerolog.Logger
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(middleware.DefaultLocale, opts.CountryLookup),
	)

	// Public
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/readyz", app.Ready)
	r.Get(handlers.OpenAPIPath, app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Post("/v1/extract-url", app.ExtractURL)
		r.Post("/v1/extract-pdf", app.ExtractPDF)
		r.Post("/v1/ocr", app.OCR)
		r.Post("/v1/text/{transform}", app.TransformText)
		r.Get("/v1/credits", app.GetCredits)

		r.Route("/v1/documents", func(r chi.Router) {
			r.Get("/", app.ListDocuments)
			r.Post("/", app.CreateDocument)
			r.Get("/{id}", app.GetDocument)
			r.Patch("/{id}", app.UpdateDocument)
			r.Delete("/{id}", app.DeleteDocument)
		})
	})

	return r
}
