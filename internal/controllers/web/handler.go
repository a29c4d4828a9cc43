// Package web serves the storefront's JSON endpoints for shoppers and
// admins on top of the entity gateway client.
package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/api"
	"storefront/internal/apiclient"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/infra/notify"
)

// MsgUnavailable accompanies degraded reads that fall back to empty data.
const MsgUnavailable = "Some data is temporarily unavailable."

type Handler struct {
	api      apiclient.API
	auth     *auth.Service
	tokens   *auth.TokenIssuer
	carts    *cart.Manager
	checkout *checkout.Service
	hub      *notify.Hub
}

func NewHandler(client apiclient.API, authSvc *auth.Service, tokens *auth.TokenIssuer, carts *cart.Manager, co *checkout.Service, hub *notify.Hub) *Handler {
	return &Handler{
		api:      client,
		auth:     authSvc,
		tokens:   tokens,
		carts:    carts,
		checkout: co,
		hub:      hub,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, api.OK("ok", "")) })

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	signedIn := r.Group("", auth.RequireAuth(h.tokens))
	signedIn.POST("/auth/logout", h.Logout)
	signedIn.GET("/orders/:id", h.GetOrder)

	shopper := signedIn.Group("", auth.RequireRole(domain.RoleCustomer))
	shopper.GET("/cart", h.GetCart)
	shopper.POST("/cart/items", h.AddCartItem)
	shopper.PUT("/cart/items/:productId", h.UpdateCartItem)
	shopper.DELETE("/cart/items/:productId", h.RemoveCartItem)
	shopper.DELETE("/cart", h.ClearCart)
	shopper.POST("/checkout", h.Checkout)
	shopper.GET("/orders/mine", h.MyOrders)
	shopper.POST("/orders/:id/cancel", h.CancelOrder)
	shopper.POST("/orders/:id/proof-of-payment", h.UploadProofOfPayment)

	admin := signedIn.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	h.registerAdmin(admin)
}

func identity(c *gin.Context) (checkout.Identity, string) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return checkout.Identity{}, ""
	}
	return checkout.Identity{
		Username:   claims.Username,
		CustomerID: claims.CustomerID,
		IsAdmin:    claims.Role == domain.RoleAdmin,
	}, claims.SessionID
}

// emptyOnFailure logs a failed read and answers with an empty collection.
func emptyOnFailure[T any](c *gin.Context, what string, err error) {
	log.Printf("%s unavailable: %v", what, err)
	c.JSON(http.StatusOK, api.OK([]T{}, MsgUnavailable))
}

// respondError maps gateway, cart, checkout and auth errors onto status
// codes. Unexpected failures get the generic retry message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, api.Fail(err.Error()))
	case errors.Is(err, checkout.ErrForbidden):
		c.JSON(http.StatusForbidden, api.Fail(err.Error()))
	case errors.Is(err, checkout.ErrOrderNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotInCart),
		apiclient.Is(err, apiclient.KindNotFound):
		c.JSON(http.StatusNotFound, api.Fail(err.Error()))
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, auth.ErrMissingFields):
		c.JSON(http.StatusBadRequest, api.Fail(err.Error()))
	case apiclient.Is(err, apiclient.KindValidation):
		c.JSON(http.StatusBadRequest, api.Fail(validationMessage(err)))
	case errors.Is(err, checkout.ErrCannotCancel),
		errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, api.Fail(err.Error()))
	case apiclient.Is(err, apiclient.KindConflict):
		c.JSON(http.StatusConflict, api.Fail(api.MsgConflict))
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, api.Fail(api.MsgGenericFailure))
	}
}

func validationMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
