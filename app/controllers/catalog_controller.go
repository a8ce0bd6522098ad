package controllers

import (
	"io"
	"net/http"

	"dukaan/app/services"
	"dukaan/pkg/ctx"
)

// maxImageSize caps product image uploads at 5 MiB.
const maxImageSize = 5 << 20

type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (cc *CatalogController) Index(c *ctx.Context) {
	res, err := cc.catalog.List(c.Context(),
		c.Query("category"),
		c.IntQuery("page", 1, 1, 10000),
		c.IntQuery("limit", 20, 1, 100),
	)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(res)
}

func (cc *CatalogController) Show(c *ctx.Context) {
	product, err := cc.catalog.Get(c.Context(), c.Param("id"))
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(product)
}

func (cc *CatalogController) Store(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := cc.catalog.Create(c.Context(), p, in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Created(product)
}

func (cc *CatalogController) Update(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := cc.catalog.Update(c.Context(), p, c.Param("id"), in)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(product)
}

func (cc *CatalogController) Destroy(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	if err := cc.catalog.Delete(c.Context(), p, c.Param("id")); err != nil {
		c.AppError(err)
		return
	}
	c.Success(map[string]string{"message": "Product removed"})
}

// UploadImage accepts a multipart "image" field and stores it on the
// configured disk.
func (cc *CatalogController) UploadImage(c *ctx.Context) {
	p, ok := caller(c)
	if !ok {
		return
	}
	if err := c.R.ParseMultipartForm(maxImageSize); err != nil {
		c.Error(http.StatusBadRequest, "Invalid multipart body")
		return
	}
	file, header, err := c.R.FormFile("image")
	if err != nil {
		c.Error(http.StatusBadRequest, "Missing image field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		c.Error(http.StatusBadRequest, "Unreadable upload")
		return
	}

	product, err := cc.catalog.AttachImage(c.Context(), p, c.Param("id"), header.Filename, data)
	if err != nil {
		c.AppError(err)
		return
	}
	c.Success(product)
}
