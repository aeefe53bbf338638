package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/issue-tracker/config"
)

// SetGinMode maps APP_ENV onto gin's mode and returns the mode applied.
// Anything other than production or test keeps debug mode.
func SetGinMode(app *config.AppConfig) string {
	switch app.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	return gin.Mode()
}
