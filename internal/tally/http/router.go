package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tallyhq/tally/internal/tally/cache"
	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/pkg/httpx"
	"github.com/tallyhq/tally/pkg/jwtx"
	"github.com/tallyhq/tally/pkg/slogx"

	_ "github.com/tallyhq/tally/api" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultAllowedOrigins is used when no CORS origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:3000"}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux *chi.Mux

	AllowedOrigins []string

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	cache          cache.Categories
	TokenService   *service.TokenService
	SessionService *service.SessionService
	LedgerService  *service.LedgerService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	categories cache.Categories,
	logger *slog.Logger,
) *Router {
	if categories == nil {
		categories = cache.Nop{}
	}
	return &Router{
		Mux:            chi.NewRouter(),
		AllowedOrigins: DefaultAllowedOrigins,
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		logger:         logger,
		store:          st,
		cache:          categories,
	}
}

// ApplyRoutes installs the global middleware and every route. Services must
// be set before it is called.
func (r *Router) ApplyRoutes() {
	r.Mux.Use(
		chimiddleware.RealIP,
		slogx.HTTPMiddleware(r.logger),
		chimiddleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   r.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", slogx.RequestIDHeader},
			ExposedHeaders:   []string{slogx.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.registerUsers()
	r.registerAuth()
	r.registerExpenses()
	r.registerSystem()

	r.Mux.Handle("/swagger/*", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router.
//
//	@title			Tally Expense Tracking API
//	@version		0.1.0
//	@description	Personal expense tracking: accounts (registered and guest), JWT sessions with refresh tokens, expenses and categories.
//	@description
//	@description				Access tokens are HS256 JWTs valid for two hours. Refresh tokens are valid for a day and can be revoked by logging out.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Mux.ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(jwtx.VerifierFunc(r.TokenService.VerifyAccessToken))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{SessionService: r.SessionService}

	r.Mux.Route("/users", func(mux chi.Router) {
		mux.Post("/register", h.HandleRegister)
		mux.Post("/login", h.HandleLogin)
		mux.Post("/guest", h.HandleGuest)
		mux.Post("/logout", h.HandleLogout)

		mux.With(r.authn(), RequireUserMatch).Patch("/registerGuest", h.HandleUpgradeGuest)
	})
}

func (r *Router) registerAuth() {
	h := &RefreshHandler{SessionService: r.SessionService}
	r.Mux.Post("/auth/refresh", h.ServeHTTP)
}

func (r *Router) registerExpenses() {
	h := &ExpensesHandler{LedgerService: r.LedgerService}

	r.Mux.Route("/expenses", func(mux chi.Router) {
		mux.Get("/getFrequencies", h.HandleFrequencies)

		mux.Group(func(secured chi.Router) {
			secured.Use(r.authn(), RequireUserMatch)

			secured.Post("/addExpense", h.HandleAdd)
			secured.Patch("/editExpense", h.HandleEdit)
			secured.Delete("/deleteExpenses", h.HandleDelete)
			secured.Get("/getExpenses", h.HandleList)
			secured.Get("/getCategories", h.HandleCategories)
			secured.Post("/addCategory", h.HandleAddCategory)
		})
	})
}

func (r *Router) registerSystem() {
	r.Mux.Get("/livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Get("/readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache))
}
