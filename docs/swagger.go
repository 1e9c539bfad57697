// Package docs registers the OpenAPI description served at /swagger/index.html.
package docs

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
        "/register": {
            "post": {
                "tags": ["Users"],
                "summary": "Create an account and return a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "409": {"description": "Email already registered"},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handler.ValidationErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Users"],
                "summary": "Exchange credentials for a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "List the caller's tasks",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "per_page", "in": "query"},
                    {"type": "string", "name": "category_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TaskPageResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Create a task in a category",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.TaskRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.TaskResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handler.ValidationErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Get a task",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TaskResponse"}},
                    "403": {"description": "Not the owner"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Rename a task or move it to another category",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.TaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TaskResponse"}},
                    "403": {"description": "Not the owner"},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handler.ValidationErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Delete a task",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Not the owner"}}
            }
        },
        "/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Categories"],
                "summary": "List the caller's categories",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.CategoryResponse"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Categories"],
                "summary": "Create a category",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CategoryRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.CategoryResponse"}}}
            }
        },
        "/categories/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Categories"],
                "summary": "Get a category",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CategoryResponse"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Categories"],
                "summary": "Rename a category",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CategoryRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CategoryResponse"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Categories"],
                "summary": "Delete a category; its tasks lose their category",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "handler.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {"email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string", "minLength": 6}}
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}}}
            }
        },
        "handler.TaskRequest": {
            "type": "object",
            "required": ["title", "category_id"],
            "properties": {"title": {"type": "string", "maxLength": 255}, "category_id": {"type": "string"}}
        },
        "handler.TaskResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "category_id": {"type": "string"},
                "category": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "string"}, "title": {"type": "string"}}}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handler.TaskPageResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handler.TaskResponse"}},
                "current_page": {"type": "integer"},
                "last_page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "handler.CategoryRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string", "maxLength": 255}}
        },
        "handler.CategoryResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "title": {"type": "string"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}
        },
        "handler.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Taskboard API",
	Description:      "Personal tasks grouped into categories.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
