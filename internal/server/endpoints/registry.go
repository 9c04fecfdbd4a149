package endpoints

import (
	"github.com/jackzampolin/quire/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},

		// Conversion endpoints
		&FormatsEndpoint{},
		&ConvertEndpoint{},
		&PreviewEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
