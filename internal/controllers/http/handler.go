package http

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/api"
	"storefront/internal/blob"
	"storefront/internal/domain"
	"storefront/internal/services"
	"storefront/internal/store"
)

type Handler struct {
	customers *services.CustomerService
	products  *services.ProductService
	orders    *services.OrderService
	blobs     blob.Store
}

func NewHandler(c *services.CustomerService, p *services.ProductService, o *services.OrderService, b blob.Store) *Handler {
	return &Handler{customers: c, products: p, orders: o, blobs: b}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	customers := crud[domain.Customer, *domain.Customer]{svc: h.customers, noun: "Customer"}
	customers.register(r, "/customers")
	r.GET("/customers/by-username/:username", h.GetCustomerByUsername)

	products := crud[domain.Product, *domain.Product]{svc: h.products, noun: "Product"}
	products.register(r, "/products")

	orders := crud[domain.Order, *domain.Order]{svc: h.orders, noun: "Order"}
	orders.register(r, "/orders")
	r.GET("/orders/by-customer/:customerId", h.GetOrdersByCustomer)
	r.PATCH("/orders/:id/status", h.UpdateOrderStatus)

	r.POST("/upload", h.Upload)
	r.POST("/upload/proof-of-payment", h.UploadProofOfPayment)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.OK("ok", ""))
}

func (h *Handler) GetCustomerByUsername(c *gin.Context) {
	customer, err := h.customers.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(customer, ""))
}

func (h *Handler) GetOrdersByCustomer(c *gin.Context) {
	orders, err := h.orders.ListByCustomer(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(orders, ""))
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req api.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Query("partitionKey"), c.Param("id"), req.Status, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(order, "Order status updated"))
}

func (h *Handler) Upload(c *gin.Context) {
	h.upload(c, "")
}

func (h *Handler) UploadProofOfPayment(c *gin.Context) {
	h.upload(c, blob.ProofOfPayments)
}

func (h *Handler) upload(c *gin.Context, container string) {
	var req api.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	if container == "" {
		container = req.ContainerName
	}
	if container == "" {
		container = blob.ProductImages
	}
	if strings.TrimSpace(req.FileData) == "" {
		c.JSON(http.StatusBadRequest, api.Fail("No file data provided"))
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("File data must be base64 encoded"))
		return
	}
	name, err := blob.ObjectName(req.FileName)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := h.blobs.Upload(c.Request.Context(), container, name, req.ContentType, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(url, "File uploaded successfully"))
}

type entityService[PT any] interface {
	List(ctx context.Context) ([]PT, error)
	Get(ctx context.Context, partition, id string) (PT, error)
	Create(ctx context.Context, e PT) error
	Update(ctx context.Context, id string, e PT) error
	Delete(ctx context.Context, partition, id string) error
}

// crud serves list/get/create/update/delete for one entity type.
type crud[T any, PT interface {
	*T
	domain.Keyed
}] struct {
	svc  entityService[PT]
	noun string
}

func (h crud[T, PT]) register(r gin.IRouter, path string) {
	r.GET(path, h.list)
	r.POST(path, h.create)
	r.GET(path+"/:id", h.get)
	r.PUT(path+"/:id", h.update)
	r.DELETE(path+"/:id", h.delete)
}

func (h crud[T, PT]) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []PT{}
	}
	c.JSON(http.StatusOK, api.OK(items, ""))
}

func (h crud[T, PT]) get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), c.Query("partitionKey"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(e, ""))
}

func (h crud[T, PT]) create(c *gin.Context) {
	e := PT(new(T))
	if err := c.ShouldBindJSON(e); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	if err := h.svc.Create(c.Request.Context(), e); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.OK(e, h.noun+" created"))
}

func (h crud[T, PT]) update(c *gin.Context) {
	e := PT(new(T))
	if err := c.ShouldBindJSON(e); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	if e.CurrentVersion() <= 0 {
		c.JSON(http.StatusBadRequest, api.Fail("version is required for updates"))
		return
	}
	if err := h.svc.Update(c.Request.Context(), c.Param("id"), e); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(e, h.noun+" updated"))
}

func (h crud[T, PT]) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Query("partitionKey"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK[any](nil, h.noun+" deleted"))
}

// respondError maps service and store errors onto status codes. Details of
// unexpected failures stay in the log.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, store.ErrInvalidKey), errors.Is(err, store.ErrKeyCharacters),
		errors.Is(err, blob.ErrEmptyContent),
		errors.Is(err, blob.ErrInvalidName),
		errors.Is(err, blob.ErrInvalidContainer):
		c.JSON(http.StatusBadRequest, api.Fail(err.Error()))
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, api.Fail(err.Error()))
	case errors.Is(err, store.ErrVersionConflict):
		c.JSON(http.StatusConflict, api.Fail(api.MsgConflict))
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, store.ErrAlreadyExists):
		c.JSON(http.StatusConflict, api.Fail(err.Error()))
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, api.Fail(api.MsgGenericFailure))
	}
}
