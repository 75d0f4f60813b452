// Package graphql exposes the public catalog (categories, products and
// their reviews) as a read-only GraphQL schema.
package graphql

import (
	"context"
	"errors"
	"time"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/collection"
	gql "github.com/farmchain/farmchain/pkg/graphql"
	"github.com/graphql-go/graphql"
)

// Catalog is the read side of the catalog service.
type Catalog interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Products(ctx context.Context, f services.ProductFilter) ([]models.Product, error)
	Product(ctx context.Context, id uint) (*models.Product, error)
}

// Reviews lists the reviews of one product.
type Reviews interface {
	ForProduct(ctx context.Context, productID uint) ([]models.Review, error)
}

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"imageUrl":    &graphql.Field{Type: graphql.String},
	},
})

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"rating":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"comment":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.String},
	},
})

// NewSchema builds the catalog schema. Decimal amounts are exposed as
// strings so no precision is lost.
func NewSchema(catalog Catalog, reviews Reviews) (graphql.Schema, error) {
	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"farmerId":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":              &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description":       &graphql.Field{Type: graphql.String},
			"categoryId":        &graphql.Field{Type: graphql.Int},
			"price":             &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"unit":              &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"availableQuantity": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"minOrderQuantity":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl":          &graphql.Field{Type: graphql.String},
			"isOrganic":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"inStock":           &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"reviews": &graphql.Field{
				Type: graphql.NewList(reviewType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					src, _ := p.Source.(map[string]interface{})
					id, _ := src["id"].(uint)
					rs, err := reviews.ForProduct(p.Context, id)
					if err != nil {
						return nil, public(err)
					}
					return collection.Map(rs, reviewMap), nil
				},
			},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"categories": &graphql.Field{
				Type: graphql.NewList(categoryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cs, err := catalog.Categories(p.Context)
					if err != nil {
						return nil, public(err)
					}
					return collection.Map(cs, func(c models.Category) map[string]interface{} {
						return map[string]interface{}{
							"id": c.ID, "name": c.Name, "description": c.Description, "imageUrl": c.ImageURL,
						}
					}), nil
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"categoryId": &graphql.ArgumentConfig{Type: graphql.Int},
					"farmerId":   &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ps, err := catalog.Products(p.Context, services.ProductFilter{
						CategoryID: uintArg(p.Args, "categoryId"),
						FarmerID:   uintArg(p.Args, "farmerId"),
					})
					if err != nil {
						return nil, public(err)
					}
					out := make([]map[string]interface{}, 0, len(ps))
					for i := range ps {
						out = append(out, productMap(&ps[i]))
					}
					return out, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					product, err := catalog.Product(p.Context, uintArg(p.Args, "id"))
					if err != nil {
						return nil, public(err)
					}
					return productMap(product), nil
				},
			},
		},
	})

	return gql.NewSchema(query)
}

// public keeps internal details out of GraphQL error messages.
func public(err error) error {
	msg, _ := apperr.Public(err)
	return errors.New(msg)
}

func uintArg(args map[string]interface{}, name string) uint {
	n, ok := args[name].(int)
	if !ok || n < 0 {
		return 0
	}
	return uint(n)
}

func productMap(p *models.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":                p.ID,
		"farmerId":          p.FarmerID,
		"name":              p.Name,
		"description":       p.Description,
		"categoryId":        p.CategoryID,
		"price":             p.Price.StringFixed(2),
		"unit":              p.Unit,
		"availableQuantity": p.AvailableQuantity.String(),
		"minOrderQuantity":  p.MinOrderQuantity.String(),
		"imageUrl":          p.ImageURL,
		"isOrganic":         p.IsOrganic,
		"inStock":           p.InStock,
	}
}

func reviewMap(r models.Review) map[string]interface{} {
	return map[string]interface{}{
		"id":        r.ID,
		"userId":    r.UserID,
		"rating":    r.Rating,
		"comment":   r.Comment,
		"createdAt": r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
