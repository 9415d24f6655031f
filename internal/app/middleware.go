package app

import (
	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/middleware"
)

type Middleware struct {
	RequestUser *middleware.RequestUserMiddleware
}

func wireMiddleware(log *logger.Logger) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		RequestUser: middleware.NewRequestUserMiddleware(log),
	}
}
