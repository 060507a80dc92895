package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/get/gauges": {
            "get": {
                "tags": ["gauges"],
                "summary": "List gauges",
                "description": "Returns every saved gauge keyed by title",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Gauges keyed by title", "schema": {"type": "object"}},
                    "500": {"description": "Storage failure", "schema": {"type": "string"}}
                }
            }
        },
        "/save/gauge": {
            "post": {
                "tags": ["gauges"],
                "summary": "Save a gauge",
                "description": "Stores the posted record under its title, replacing any gauge with the same title",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "parameters": [
                    {"in": "body", "name": "gauge", "required": true, "schema": {"$ref": "#/definitions/Gauge"}}
                ],
                "responses": {
                    "200": {"description": "Gauge Saved", "schema": {"type": "string"}},
                    "400": {"description": "Invalid Request", "schema": {"type": "string"}},
                    "401": {"description": "Missing or invalid token"},
                    "500": {"description": "Storage failure", "schema": {"type": "string"}}
                }
            }
        },
        "/delete/gauge": {
            "post": {
                "tags": ["gauges"],
                "summary": "Delete a gauge",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "parameters": [
                    {"in": "body", "name": "title", "required": true, "schema": {"$ref": "#/definitions/GaugeTitle"}}
                ],
                "responses": {
                    "200": {"description": "Gauge Removed", "schema": {"type": "string"}},
                    "400": {"description": "Invalid Request", "schema": {"type": "string"}},
                    "404": {"description": "Not found", "schema": {"type": "string"}},
                    "500": {"description": "Storage failure", "schema": {"type": "string"}}
                }
            }
        },
        "/get/{path}": {
            "get": {
                "tags": ["defaults"],
                "summary": "Read a default value",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "path", "type": "string", "required": true, "description": "slash separated path"}
                ],
                "responses": {
                    "200": {"description": "Stored JSON value"},
                    "400": {"description": "Invalid Request", "schema": {"type": "string"}},
                    "404": {"description": "Not found", "schema": {"type": "string"}}
                }
            }
        },
        "/save/{path}": {
            "post": {
                "tags": ["defaults"],
                "summary": "Store a default value",
                "description": "The body is any JSON value. Paths under vessels/self are also published as a delta.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "parameters": [
                    {"in": "path", "name": "path", "type": "string", "required": true, "description": "slash separated path"},
                    {"in": "body", "name": "value", "required": true, "schema": {}}
                ],
                "responses": {
                    "200": {"description": "Defaults Saved", "schema": {"type": "string"}},
                    "400": {"description": "Invalid Request", "schema": {"type": "string"}},
                    "500": {"description": "Storage failure", "schema": {"type": "string"}}
                }
            }
        },
        "/delete/{path}": {
            "get": {
                "tags": ["defaults"],
                "summary": "Remove a default value",
                "description": "Paths under vessels/self publish a delta with a null value.",
                "security": [{"BearerAuth": []}],
                "produces": ["text/plain"],
                "parameters": [
                    {"in": "path", "name": "path", "type": "string", "required": true, "description": "slash separated path"}
                ],
                "responses": {
                    "200": {"description": "Default Removed", "schema": {"type": "string"}},
                    "400": {"description": "Invalid Request", "schema": {"type": "string"}},
                    "404": {"description": "Not found", "schema": {"type": "string"}},
                    "500": {"description": "Storage failure", "schema": {"type": "string"}}
                }
            }
        },
        "/wsk/switches": {
            "get": {
                "tags": ["metadata"],
                "summary": "Two-state switches that accept PUT",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Switch paths with metadata", "schema": {"type": "array", "items": {"$ref": "#/definitions/PathInfo"}}}}
            }
        },
        "/wsk/multiSwitches": {
            "get": {
                "tags": ["metadata"],
                "summary": "Switches with enumerated states",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Switch paths with metadata", "schema": {"type": "array", "items": {"$ref": "#/definitions/PathInfo"}}}}
            }
        },
        "/wsk/putPaths": {
            "get": {
                "tags": ["metadata"],
                "summary": "Paths that support PUT",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Dotted paths", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/wsk/allPaths": {
            "get": {
                "tags": ["metadata"],
                "summary": "Every known path",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Dotted paths", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/wsk/paths": {
            "get": {
                "tags": ["metadata"],
                "summary": "Paths that currently have a value",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Dotted paths", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/wsk/meta/{path}": {
            "get": {
                "tags": ["metadata"],
                "summary": "Metadata of one path",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "path", "type": "string", "required": true, "description": "dotted path"}
                ],
                "responses": {
                    "200": {"description": "Metadata object", "schema": {"type": "object"}},
                    "400": {"description": "Invalid Request", "schema": {"type": "string"}},
                    "404": {"description": "Not found", "schema": {"type": "string"}}
                }
            }
        },
        "/stream": {
            "get": {
                "tags": ["deltas"],
                "summary": "Websocket carrying every published delta",
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "Gauge": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string"}},
            "additionalProperties": true
        },
        "GaugeTitle": {
            "type": "object",
            "required": ["title"],
            "properties": {"title": {"type": "string"}}
        },
        "PathInfo": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "meta": {"type": "object"},
                "value": {},
                "timestamp": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/plugins/wilhelmsk-plugin",
	Schemes:          []string{"http"},
	Title:            "WilhelmSK Plugin API",
	Description:      "Gauge storage, defaults and path metadata for the WilhelmSK app",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
