package controllers

import (
	"net/http"

	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/ctx"
	"github.com/farmchain/farmchain/pkg/storage"
)

type ProductController struct {
	catalog *services.CatalogService
	reviews *services.ReviewService
}

func NewProductController(catalog *services.CatalogService, reviews *services.ReviewService) *ProductController {
	return &ProductController{catalog: catalog, reviews: reviews}
}

func (pc *ProductController) Categories(c *ctx.Context) {
	cs, err := pc.catalog.Categories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cs)
}

// Index lists products, optionally filtered by ?categoryId= or ?farmerId=.
func (pc *ProductController) Index(c *ctx.Context) {
	categoryID, ok := c.QueryUint("categoryId")
	if !ok {
		return
	}
	farmerID, ok := c.QueryUint("farmerId")
	if !ok {
		return
	}

	ps, err := pc.catalog.Products(c.Context(), services.ProductFilter{CategoryID: categoryID, FarmerID: farmerID})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(ps)
}

func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	p, err := pc.catalog.Product(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Store(c *ctx.Context) {
	var req requests.CreateProductRequest
	if !c.BindJSON(&req) {
		return
	}
	p, err := pc.catalog.CreateProduct(c.Context(), c.Identity(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (pc *ProductController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req requests.UpdateProductRequest
	if !c.BindJSON(&req) {
		return
	}
	p, err := pc.catalog.UpdateProduct(c.Context(), c.Identity(), id, req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := pc.catalog.DeleteProduct(c.Context(), c.Identity(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusOK, "Product deleted successfully", nil)
}

func (pc *ProductController) UploadImage(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	f, ok := c.FormFile("image", storage.MaxImageBytes)
	if !ok {
		return
	}
	defer f.Close()

	p, err := pc.catalog.SetProductImage(c.Context(), c.Identity(), id, f)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Reviews(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	rs, err := pc.reviews.ForProduct(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(rs)
}

func (pc *ProductController) StoreReview(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req requests.CreateReviewRequest
	if !c.BindJSON(&req) {
		return
	}
	r, err := pc.reviews.Create(c.Context(), c.Identity(), id, req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(r)
}
