package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/server/api"
	"github.com/tenantguard/tenantguard/internal/server/middleware"
)

type Handlers struct {
	fx.In

	Users     *api.UserHandlers
	Cities    *api.CityHandlers
	Addresses *api.AddressHandlers
	System    *api.SystemHandlers
}

func SetupRoutes(server *Server, handlers Handlers, auth *middleware.Authenticator) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	// Setup CORS middleware at server level if enabled
	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group(server.Config.BasePath, middleware.WithTimeout(server.Config.RequestTimeout))
	{
		// Health check endpoint - no authentication required
		publicGroup.GET("/health", handlers.System.Health)
		publicGroup.GET("/build-info", handlers.System.BuildInfo)
	}

	v1 := server.Group(server.Config.BasePath+"/v1",
		middleware.WithTimeout(server.Config.RequestTimeout),
		middleware.WithJWTAuth(auth),
	)

	{
		users := v1.Group("/users")
		users.POST("", handlers.Users.CreateUser)
		users.GET("", handlers.Users.ListUsers)
		users.GET("/:id", handlers.Users.GetUser)
		users.PATCH("/:id", handlers.Users.UpdateUser)
		users.DELETE("/:id", handlers.Users.DeleteUser)

		// The one-address-per-user surface hangs off the owner.
		users.GET("/:id/address", handlers.Addresses.GetUserAddress)
		users.PUT("/:id/address", handlers.Addresses.PutUserAddress)
	}

	{
		cities := v1.Group("/cities")
		cities.POST("", handlers.Cities.CreateCity)
		cities.GET("", handlers.Cities.ListCities)
		cities.GET("/:id", handlers.Cities.GetCity)
		cities.PATCH("/:id", handlers.Cities.UpdateCity)
		cities.DELETE("/:id", handlers.Cities.DeleteCity)
	}

	{
		addresses := v1.Group("/addresses")
		addresses.POST("", handlers.Addresses.CreateAddress)
		addresses.GET("", handlers.Addresses.ListAddresses)
		addresses.GET("/:id", handlers.Addresses.GetAddress)
		addresses.PATCH("/:id", handlers.Addresses.UpdateAddress)
		addresses.DELETE("/:id", handlers.Addresses.DeleteAddress)
	}
}
