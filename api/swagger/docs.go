// Package swagger registers the OpenAPI document served under /swagger.
// Regenerate the paths with `swag init -g cmd/api/main.go -o api/swagger`.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/auth/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get current seller", "responses": {"200": {"description": "OK"}}}},
        "/api/orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "List orders", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Create an order", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/orders/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Get an order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/orders/{id}/review": {"put": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Review a pending order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/orders/{id}/status": {"put": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Update operator statuses", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/order-links": {"post": {"security": [{"BearerAuth": []}], "tags": ["order-links"], "summary": "Create a public order link", "responses": {"201": {"description": "Created"}}}},
        "/api/price-lists/{id}/activate": {"put": {"security": [{"BearerAuth": []}], "tags": ["price-lists"], "summary": "Activate a price list", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/public/order-links/{token}": {"get": {"tags": ["public"], "summary": "Open a public order link", "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "410": {"description": "Gone"}}}},
        "/api/public/order-links/{token}/orders": {"post": {"tags": ["public"], "summary": "Place an order through a public link", "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "429": {"description": "Too Many Requests"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Order Pricing and Approval API",
	Description:      "Order pricing, discount requests and admin approval for sellers, plus public order links for customers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
