package web

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"golang.org/x/sync/errgroup"

	"storefront/internal/api"
	"storefront/internal/blob"
	"storefront/internal/domain"
)

func (h *Handler) registerAdmin(r gin.IRouter) {
	customers := resource[domain.Customer, *domain.Customer]{
		noun:      "Customer",
		partition: domain.CustomerPartition,
		list:      h.api.ListCustomers,
		get:       h.api.GetCustomer,
		create:    h.api.CreateCustomer,
		update:    h.api.UpdateCustomer,
		remove:    h.api.DeleteCustomer,
	}
	products := resource[domain.Product, *domain.Product]{
		noun:      "Product",
		partition: domain.ProductPartition,
		list:      h.api.ListProducts,
		get:       h.api.GetProduct,
		create:    h.api.CreateProduct,
		update:    h.api.UpdateProduct,
		remove:    h.api.DeleteProduct,
	}
	orders := resource[domain.Order, *domain.Order]{
		noun:      "Order",
		partition: domain.OrderPartition,
		list:      h.api.ListOrders,
		get:       h.api.GetOrder,
		update:    h.api.UpdateOrder,
		remove:    h.api.DeleteOrder,
	}

	r.GET("/dashboard", h.Dashboard)
	r.GET("/products/export", h.ExportProducts)
	r.POST("/products/:id/image", h.UploadProductImage)
	r.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	r.GET("/orders/feed", h.OrderFeed)

	customers.register(r, "/customers")
	products.register(r, "/products")
	orders.register(r, "/orders")
}

// resource serves admin CRUD for one entity type through the gateway
// client. A nil create leaves POST unregistered.
type resource[T any, PT interface {
	*T
	domain.Keyed
}] struct {
	noun      string
	partition string
	list      func(ctx context.Context) ([]PT, error)
	get       func(ctx context.Context, id string) (PT, error)
	create    func(ctx context.Context, e PT) (PT, error)
	update    func(ctx context.Context, e PT) (PT, error)
	remove    func(ctx context.Context, id string) error
}

func (h resource[T, PT]) register(r gin.IRouter, path string) {
	r.GET(path, h.listAll)
	r.GET(path+"/:id", h.getOne)
	if h.create != nil {
		r.POST(path, h.createOne)
	}
	r.PUT(path+"/:id", h.updateOne)
	r.DELETE(path+"/:id", h.deleteOne)
}

func (h resource[T, PT]) listAll(c *gin.Context) {
	items, err := h.list(c.Request.Context())
	if err != nil {
		emptyOnFailure[PT](c, h.noun+" list", err)
		return
	}
	if items == nil {
		items = []PT{}
	}
	c.JSON(http.StatusOK, api.OK(items, ""))
}

func (h resource[T, PT]) getOne(c *gin.Context) {
	e, err := h.get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if e == nil {
		c.JSON(http.StatusNotFound, api.Fail(h.noun+" not found"))
		return
	}
	c.JSON(http.StatusOK, api.OK(e, ""))
}

func (h resource[T, PT]) createOne(c *gin.Context) {
	e := PT(new(T))
	if err := c.ShouldBindJSON(e); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	created, err := h.create(c.Request.Context(), e)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.OK(created, h.noun+" created"))
}

func (h resource[T, PT]) updateOne(c *gin.Context) {
	e := PT(new(T))
	if err := c.ShouldBindJSON(e); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	if e.CurrentVersion() <= 0 {
		c.JSON(http.StatusBadRequest, api.Fail("version is required for updates"))
		return
	}
	partition, _ := e.Keys()
	if partition == "" {
		partition = h.partition
	}
	e.SetKeys(partition, c.Param("id"))

	updated, err := h.update(c.Request.Context(), e)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(updated, h.noun+" updated"))
}

func (h resource[T, PT]) deleteOne(c *gin.Context) {
	if err := h.remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK[any](nil, h.noun+" deleted"))
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req api.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Fail("Invalid request body"))
		return
	}
	order, err := h.checkout.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(order, "Order status updated"))
}

// UploadProductImage stores the image and points the product at it.
func (h *Handler) UploadProductImage(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.api.GetProduct(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, api.Fail("Product not found"))
		return
	}

	req, ok := readUpload(c, blob.ProductImages)
	if !ok {
		return
	}
	url, err := h.api.Upload(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	p.ProductImageURL = url
	updated, err := h.api.UpdateProduct(ctx, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OK(updated, "Image uploaded"))
}

type dashboardCounts struct {
	Customers     int `json:"customers"`
	Products      int `json:"products"`
	Orders        int `json:"orders"`
	PendingOrders int `json:"pendingOrders"`
}

// Dashboard counts entities concurrently. A failed count reads as zero.
func (h *Handler) Dashboard(c *gin.Context) {
	var counts dashboardCounts
	degraded := false

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		items, err := h.api.ListCustomers(ctx)
		if err != nil {
			return err
		}
		counts.Customers = len(items)
		return nil
	})
	g.Go(func() error {
		items, err := h.api.ListProducts(ctx)
		if err != nil {
			return err
		}
		counts.Products = len(items)
		return nil
	})
	g.Go(func() error {
		items, err := h.api.ListOrders(ctx)
		if err != nil {
			return err
		}
		counts.Orders = len(items)
		for _, o := range items {
			if o.Status == domain.StatusSubmitted || o.Status == domain.StatusProcessing {
				counts.PendingOrders++
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("dashboard counts unavailable: %v", err)
		counts = dashboardCounts{}
		degraded = true
	}

	msg := ""
	if degraded {
		msg = MsgUnavailable
	}
	c.JSON(http.StatusOK, api.OK(counts, msg))
}

func (h *Handler) ExportProducts(c *gin.Context) {
	products, err := h.api.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		respondError(c, err)
		return
	}

	headerRow := sheet.AddRow()
	for _, col := range []string{"ID", "Name", "Description", "Price", "Stock", "Image", "Updated"} {
		headerRow.AddCell().SetValue(col)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.RowKey)
		row.AddCell().SetValue(p.ProductName)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.StockAvailable)
		row.AddCell().SetValue(p.ProductImageURL)
		row.AddCell().SetValue(p.Timestamp.Format("2006-01-02 15:04:05"))
	}

	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		log.Printf("write products export: %v", err)
	}
}

func (h *Handler) OrderFeed(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, api.Fail("Live feed is not enabled"))
		return
	}
	h.hub.Handle(c)
}
