package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/auth"
	"github.com/bizflow/bizflow/internal/handlers"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	SaleHandler    *handlers.SaleHandler
	ReportHandler  *handlers.ReportHandler
	AdminHandler   *handlers.AdminHandler
	SearchHandler  *handlers.SearchHandler
	Guard          *auth.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/signup", d.AuthHandler.Signup)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)
	v1.GET("/me", d.AuthHandler.Me)

	user := v1.Group("", d.Guard.RequireUser)

	user.GET("/products", d.ProductHandler.ListProducts)
	user.POST("/products", d.ProductHandler.CreateProduct)
	user.PUT("/products/:id", d.ProductHandler.UpdateProduct)
	user.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	user.GET("/sales", d.SaleHandler.ListSales)
	user.POST("/sales", d.SaleHandler.RecordSale)

	user.GET("/reports/summary", d.ReportHandler.Summary)
	user.GET("/data", d.ReportHandler.DataCenter)
	user.GET("/search", d.SearchHandler.Search)

	admin := v1.Group("/admin", d.Guard.RequireAdmin)

	admin.GET("/accounts", d.AdminHandler.ListAccounts)
}
