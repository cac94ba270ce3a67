package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/storage"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Deps struct {
	DB *gorm.DB

	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	AdminHandler   *AdminHTTP

	AuthMW *auth.AutoRefreshMiddleware

	// UploadDir is served under storage.URLPrefix when set.
	UploadDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Warn("ready_error", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	if d.UploadDir != "" {
		e.Static(storage.URLPrefix, d.UploadDir)
	}

	authMW := d.AuthMW

	a := e.Group("/auth")
	a.POST("/register", d.AuthHandler.Register)
	a.POST("/login", d.AuthHandler.Login)
	a.POST("/refresh", d.AuthHandler.Refresh)
	a.POST("/logout", d.AuthHandler.LogOut, authMW.RequireAuth)
	a.GET("/me", d.AuthHandler.Me, authMW.RequireAuth)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts, authMW.Optional)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("/:id/buy", d.CatalogHandler.BuyProduct, authMW.RequireAuth)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddToCart)
	cart.PATCH("/items/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.CartHandler.CheckoutCart)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListMine)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.GET("/products", d.CatalogHandler.GetProducts)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.GET("/products/low-stock", d.CatalogHandler.LowStock)
	admin.GET("/products/export", d.CatalogHandler.Export)
	admin.PUT("/products/:id", d.CatalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)

	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.ChangeStatus)

	admin.GET("/customers", d.AdminHandler.ListCustomers)
	admin.GET("/customers/:id", d.AdminHandler.GetCustomer)
	admin.GET("/stats", d.AdminHandler.Stats)
	admin.GET("/analytics", d.AdminHandler.GetAnalytics)
}
