package app

import (
	"strings"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/utils"
)

type Config struct {
	Port           string
	AllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)

	var origins []string
	for _, o := range strings.Split(utils.GetEnv("ALLOWED_ORIGINS", "", log), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		Port:           port,
		AllowedOrigins: origins,
	}
}
