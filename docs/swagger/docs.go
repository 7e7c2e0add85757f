// Package swagger registers the OpenAPI document served at /swagger.
// Regenerate with `swag init -g cmd/api/main.go -o docs/swagger`.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/auth/register": {"post": {"tags": ["auth"], "summary": "Register a customer or agent account", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}}},
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Exchange credentials for a bearer token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/api/auth/profile": {
            "get": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Current user profile", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Update current user profile", "responses": {"200": {"description": "OK"}}}
        },
        "/api/auth/logout": {"post": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Stateless logout", "responses": {"200": {"description": "OK"}}}},
        "/api/parcels": {
            "post": {"tags": ["parcels"], "security": [{"BearerAuth": []}], "summary": "Book a parcel", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}},
            "get": {"tags": ["parcels"], "security": [{"BearerAuth": []}], "summary": "List parcels in the caller's scope", "responses": {"200": {"description": "OK"}}}
        },
        "/api/parcels/my-parcels": {"get": {"tags": ["parcels"], "security": [{"BearerAuth": []}], "summary": "Parcels owned by the calling customer", "responses": {"200": {"description": "OK"}}}},
        "/api/parcels/metrics": {"get": {"tags": ["parcels"], "security": [{"BearerAuth": []}], "summary": "Dashboard metrics for the caller's scope", "responses": {"200": {"description": "OK"}}}},
        "/api/parcels/track/{trackingNumber}": {"get": {"tags": ["parcels"], "summary": "Public tracking lookup", "parameters": [{"name": "trackingNumber", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/api/parcels/{id}": {"get": {"tags": ["parcels"], "security": [{"BearerAuth": []}], "summary": "Get a parcel", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not found"}}}},
        "/api/parcels/{id}/status": {"put": {"tags": ["parcels"], "security": [{"BearerAuth": []}], "summary": "Transition delivery status", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/api/users": {"get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "List users (admin)", "responses": {"200": {"description": "OK"}}}},
        "/api/users/{id}": {"get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Get user with parcel stats (admin)", "responses": {"200": {"description": "OK"}}}},
        "/api/users/me": {
            "get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Current user", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Update current user", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Deactivate current user", "responses": {"200": {"description": "OK"}, "400": {"description": "Active parcels"}}}
        },
        "/api/users/me/password": {"put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Change password", "responses": {"200": {"description": "OK"}}}},
        "/api/users/me/profile-image": {"post": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Upload profile image", "consumes": ["multipart/form-data"], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Parcel Tracker API",
	Description:      "Parcel booking and delivery tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
