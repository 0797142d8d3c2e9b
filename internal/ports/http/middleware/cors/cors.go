package cors

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Policy lets browser clients read documents and submit them with a Bearer token.
// An empty origins list allows any origin.
func Policy(logger *zap.Logger, origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger.Debug("cors policy", zap.Strings("origins", origins))

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:         600,
	})
	return c.Handler
}
