package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Routes bundles everything the router serves.
type Routes struct {
	Generation *GenerationHandler
	Documents  *DocumentHandler
	Webhooks   *WebhookHandler
	Signatures *SignatureHandler

	GenerationSecret func(http.Handler) http.Handler
	ProviderSecret   func(http.Handler) http.Handler
	RendererSecret   func(http.Handler) http.Handler
	UserAuth         func(http.Handler) http.Handler

	Metrics http.Handler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(routes Routes) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "docsign-service"})
	}).Methods(http.MethodGet)

	if routes.Metrics != nil {
		router.Handle("/metrics", routes.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Local ids are UUIDs, which keeps "/documents/generate" out of {id}.
	const id = "{id:[0-9a-fA-F-]+}"

	// Service-to-service routes, one shared secret each
	api.Handle("/documents/generate",
		routes.GenerationSecret(http.HandlerFunc(routes.Generation.Generate))).Methods(http.MethodPost)
	api.Handle("/documents/"+id,
		routes.GenerationSecret(http.HandlerFunc(routes.Documents.GetDocument))).Methods(http.MethodGet)
	api.Handle("/documents/"+id+"/send",
		routes.GenerationSecret(http.HandlerFunc(routes.Documents.SendDocument))).Methods(http.MethodPost)
	api.Handle("/webhooks/provider",
		routes.ProviderSecret(http.HandlerFunc(routes.Webhooks.Provider))).Methods(http.MethodPost)
	api.Handle("/webhooks/renderer",
		routes.RendererSecret(http.HandlerFunc(routes.Webhooks.Renderer))).Methods(http.MethodPost)

	// User routes (Supabase session)
	api.Handle("/recipients/"+id+"/confirm-signature",
		routes.UserAuth(http.HandlerFunc(routes.Signatures.ConfirmSignature))).Methods(http.MethodPost)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:4173",
			"http://localhost:3000",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		ExposedHeaders: []string{
			PageCountHeader,
		},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler(router)
}
