package routes

import (
	"backend/controllers"
	"backend/middlewares"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	JWTSecret string

	Auth      *controllers.AuthController
	Meds      *controllers.MedicationController
	Fitness   *controllers.FitnessController
	Assistant *controllers.AssistantController
	Devices   *controllers.DeviceController
	Realtime  *controllers.RealtimeController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(middlewares.CORS())

	// Public session bootstrap
	r.POST("/auth/session", d.Auth.CreateSession)

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(d.JWTSecret))
	{
		api.GET("/medications", d.Meds.List)
		api.POST("/medications", d.Meds.Create)
		api.POST("/medications/:id/toggle", d.Meds.ToggleTaken)
		api.DELETE("/medications/:id", d.Meds.Delete)

		api.GET("/fitness/connect", d.Fitness.Connect)
		api.POST("/fitness/callback", d.Fitness.Callback)
		api.GET("/fitness/steps", d.Fitness.Steps)

		api.POST("/assistant/chat", d.Assistant.Chat)
		api.POST("/assistant/assess-steps", d.Assistant.AssessSteps)
		api.GET("/assistant/transcript", d.Assistant.Transcript)

		api.POST("/devices/register", d.Devices.Register)

		api.GET("/ws", d.Realtime.EventsWS)
	}

	return r
}
