// Package graphql exposes a read-mostly GraphQL surface next to the REST
// API: account queries, order tracking and catalog browsing, plus login and
// register mutations for clients that prefer a single endpoint.
package graphql

import (
	"errors"

	"github.com/graphql-go/graphql"

	"dukaan/app/models"
	"dukaan/app/policy"
	"dukaan/app/services"
	"dukaan/pkg/middleware"
)

var errUnauthenticated = errors.New("authentication required")

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.String},
		"name":     &graphql.Field{Type: graphql.String},
		"email":    &graphql.Field{Type: graphql.String},
		"phone":    &graphql.Field{Type: graphql.String},
		"role":     &graphql.Field{Type: graphql.String},
		"isActive": &graphql.Field{Type: graphql.Boolean},
	},
})

var orderItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"name":     &graphql.Field{Type: graphql.String},
		"price":    &graphql.Field{Type: graphql.Float},
		"quantity": &graphql.Field{Type: graphql.Int},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.String},
		"orderNumber":   &graphql.Field{Type: graphql.String},
		"status":        &graphql.Field{Type: graphql.String},
		"totalAmount":   &graphql.Field{Type: graphql.Float},
		"paymentMethod": &graphql.Field{Type: graphql.String},
		"paymentStatus": &graphql.Field{Type: graphql.String},
		"items":         &graphql.Field{Type: graphql.NewList(orderItemType)},
		"createdAt":     &graphql.Field{Type: graphql.DateTime},
		"deliveredAt":   &graphql.Field{Type: graphql.DateTime},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.String},
		"name":        &graphql.Field{Type: graphql.String},
		"description": &graphql.Field{Type: graphql.String},
		"price":       &graphql.Field{Type: graphql.Float},
		"category":    &graphql.Field{Type: graphql.String},
		"image":       &graphql.Field{Type: graphql.String},
		"inStock":     &graphql.Field{Type: graphql.Boolean},
	},
})

var authResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AuthResult",
	Fields: graphql.Fields{
		"token": &graphql.Field{Type: graphql.String},
		"user":  &graphql.Field{Type: userType},
	},
})

// principal pulls the authenticated caller out of the resolve context.
func principal(p graphql.ResolveParams) (policy.Principal, error) {
	mp, ok := middleware.PrincipalFromCtx(p.Context)
	if !ok {
		return policy.Principal{}, errUnauthenticated
	}
	return policy.Principal{ID: mp.UserID, Role: models.Role(mp.Role)}, nil
}

// NewRoot builds the query and mutation objects over the service layer.
func NewRoot(auth *services.AuthService, orders *services.OrderService, catalog *services.CatalogService) (*graphql.Object, *graphql.Object) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pr, err := principal(p)
					if err != nil {
						return nil, err
					}
					return auth.Me(p.Context, pr.ID)
				},
			},
			"order": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pr, err := principal(p)
					if err != nil {
						return nil, err
					}
					return orders.Get(p.Context, pr, p.Args["id"].(string))
				},
			},
			"orders": &graphql.Field{
				Type: graphql.NewList(orderType),
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.String},
					"page":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pr, err := principal(p)
					if err != nil {
						return nil, err
					}
					status, _ := p.Args["status"].(string)
					list, _, err := orders.ListForPrincipal(p.Context, pr, services.OrderFilter{
						Status: models.OrderStatus(status),
						Page:   p.Args["page"].(int),
						Limit:  p.Args["limit"].(int),
					})
					return list, err
				},
			},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category, _ := p.Args["category"].(string)
					res, err := catalog.List(p.Context, category, p.Args["page"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					return res.Products, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"identifier": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return auth.Login(p.Context, p.Args["identifier"].(string), p.Args["password"].(string))
				},
			},
			"register": &graphql.Field{
				Type: authResultType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.String},
					"phone":    &graphql.ArgumentConfig{Type: graphql.String},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					email, _ := p.Args["email"].(string)
					phone, _ := p.Args["phone"].(string)
					return auth.Register(p.Context, services.RegisterInput{
						Name:     p.Args["name"].(string),
						Email:    email,
						Phone:    phone,
						Password: p.Args["password"].(string),
					})
				},
			},
		},
	})

	return query, mutation
}
