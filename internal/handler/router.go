package handler

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter assembles the HTTP API. When tokens is nil the /api routes are
// served without authentication.
func NewRouter(h *SimulationHandler, tokens TokenParser, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger(logger))

	router.HandleFunc("/health", h.Health).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	if tokens != nil {
		apiRouter.Use(AuthMiddleware(tokens, logger))
	}

	creditRouter := apiRouter.PathPrefix("/credits").Subrouter()
	h.RegisterRoutes(creditRouter)

	rateRouter := apiRouter.PathPrefix("/rates").Subrouter()
	h.RegisterRateRoutes(rateRouter)

	return router
}
