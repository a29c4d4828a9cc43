package web

import (
	"encoding/base64"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/blob"
	"storefront/internal/cart"
	"storefront/internal/domain"
)

const maxUploadBytes = 10 << 20

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartView struct {
	Items []domain.CartItem `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

func viewOf(c *cart.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartView{Items: items, Count: c.Count(), Total: c.Total()}
}

func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	u, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.OK(u, "Registration successful! Please log in."))
}

func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(sess, ""))
}

// Logout drops the session cart. Tokens are stateless and simply expire.
func (h *Handler) Logout(c *gin.Context) {
	_, sid := identity(c)
	if err := h.carts.Clear(c.Request.Context(), sid); err != nil {
		log.Printf("clear cart on logout for session %s: %v", sid, err)
	}
	c.JSON(http.StatusOK, api.OK[any](nil, "Signed out"))
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.api.ListProducts(c.Request.Context())
	if err != nil {
		emptyOnFailure[*domain.Product](c, "products", err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	c.JSON(http.StatusOK, api.OK(products, ""))
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.api.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, api.Fail("Product not found"))
		return
	}
	c.JSON(http.StatusOK, api.OK(p, ""))
}

func (h *Handler) GetCart(c *gin.Context) {
	_, sid := identity(c)
	ct, err := h.carts.Get(c.Request.Context(), sid)
	if err != nil {
		log.Printf("load cart for session %s: %v", sid, err)
		ct = &cart.Cart{}
	}
	c.JSON(http.StatusOK, api.OK(viewOf(ct), ""))
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, api.Fail("productId and quantity are required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	_, sid := identity(c)
	ct, err := h.carts.AddItem(c.Request.Context(), sid, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(viewOf(ct), "Added to cart"))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("quantity is required"))
		return
	}
	_, sid := identity(c)
	ct, err := h.carts.UpdateQuantity(c.Request.Context(), sid, c.Param("productId"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(viewOf(ct), "Cart updated"))
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	_, sid := identity(c)
	ct, err := h.carts.RemoveItem(c.Request.Context(), sid, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(viewOf(ct), "Item removed"))
}

func (h *Handler) ClearCart(c *gin.Context) {
	_, sid := identity(c)
	if err := h.carts.Clear(c.Request.Context(), sid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(viewOf(&cart.Cart{}), "Cart cleared"))
}

func (h *Handler) Checkout(c *gin.Context) {
	who, sid := identity(c)
	order, err := h.checkout.CreateFromCart(c.Request.Context(), sid, who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.OK(order, "Order placed successfully"))
}

func (h *Handler) MyOrders(c *gin.Context) {
	who, _ := identity(c)
	orders, err := h.checkout.MyOrders(c.Request.Context(), who.Username)
	if err != nil {
		emptyOnFailure[*domain.Order](c, "orders for "+who.Username, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(orders, ""))
}

func (h *Handler) GetOrder(c *gin.Context) {
	who, _ := identity(c)
	order, err := h.checkout.Order(c.Request.Context(), c.Param("id"), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(order, ""))
}

func (h *Handler) CancelOrder(c *gin.Context) {
	who, _ := identity(c)
	order, err := h.checkout.Cancel(c.Request.Context(), c.Param("id"), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(order, "Order cancelled"))
}

func (h *Handler) UploadProofOfPayment(c *gin.Context) {
	who, _ := identity(c)
	if _, err := h.checkout.Order(c.Request.Context(), c.Param("id"), who); err != nil {
		respondError(c, err)
		return
	}

	req, ok := readUpload(c, blob.ProofOfPayments)
	if !ok {
		return
	}
	url, err := h.api.UploadProofOfPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(url, "Proof of payment uploaded"))
}

// readUpload turns the multipart "file" field into a gateway upload
// request. It writes the error response itself when it returns false.
func readUpload(c *gin.Context, container string) (api.UploadRequest, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("A file is required"))
		return api.UploadRequest{}, false
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, api.Fail("File is too large"))
		return api.UploadRequest{}, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Could not read the uploaded file"))
		return api.UploadRequest{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, api.Fail("Could not read the uploaded file"))
		return api.UploadRequest{}, false
	}

	return api.UploadRequest{
		FileName:      fh.Filename,
		ContainerName: container,
		ContentType:   fh.Header.Get("Content-Type"),
		FileData:      base64.StdEncoding.EncodeToString(data),
	}, true
}
