package router

import (
	"github.com/labstack/echo/v4"
)

func Setup(e *echo.Echo, environment string) {
	SetupHealthRouter(e)
	SetupDevRouter(e, environment)
}
