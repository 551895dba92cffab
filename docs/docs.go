// Package docs registers the Swagger document served at /swagger/doc.json.
// Keep it in step with the swag annotations on the handlers.
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
        "/sessions": {
            "get": {
                "description": "List every session recorded in the catalog, including failed and expired ones",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List sessions",
                "responses": {
                    "200": {"description": "Session catalog", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"type": "string"}}
                }
            },
            "post": {
                "description": "Load one or more CSV or Parquet files into a new session. Files are concatenated by column name.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Upload files",
                "parameters": [
                    {"type": "file", "description": "CSV or Parquet files", "name": "files", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Session created", "schema": {"$ref": "#/definitions/session.Summary"}},
                    "400": {"description": "Malformed file or missing upload", "schema": {"type": "string"}},
                    "415": {"description": "Unsupported file format", "schema": {"type": "string"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "description": "Columns, kinds and the distinct values of categorical columns, used to fill the dashboard dropdowns",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Session summary", "schema": {"$ref": "#/definitions/session.Summary"}},
                    "404": {"description": "Session not found", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Delete session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "Session deleted"},
                    "404": {"description": "Session not found", "schema": {"type": "string"}}
                }
            }
        },
        "/sessions/{id}/errors": {
            "get": {
                "description": "Errors recorded in the catalog, such as a rejected upload",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get session errors",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Session errors", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal server error", "schema": {"type": "string"}}
                }
            }
        },
        "/sessions/{id}/data": {
            "get": {
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Get session data",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 100, "description": "Rows per page, 0 for all", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "First row", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Table page", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid paging", "schema": {"type": "string"}},
                    "404": {"description": "Session not found", "schema": {"type": "string"}}
                }
            }
        },
        "/sessions/{id}/grid": {
            "get": {
                "description": "Filter by capacity type, aggregate by the selected channels and zero-fill every combination",
                "produces": ["application/json"],
                "tags": ["data"],
                "summary": "Prepare grid",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "X axis column", "name": "x", "in": "query"},
                    {"type": "string", "description": "Facet row column", "name": "row", "in": "query"},
                    {"type": "string", "description": "Facet column column", "name": "col", "in": "query"},
                    {"type": "string", "description": "Color column", "name": "color", "in": "query"},
                    {"type": "string", "description": "Dash column", "name": "dash", "in": "query"},
                    {"type": "string", "description": "Shape column", "name": "shape", "in": "query"},
                    {"type": "string", "description": "Opacity column", "name": "opacity", "in": "query"},
                    {"type": "string", "description": "Average over this column instead of summing", "name": "avg_by", "in": "query"},
                    {"type": "string", "description": "Comma separated capacity types to keep", "name": "cap_types", "in": "query"},
                    {"type": "string", "description": "Value column, defaults to value then end_value", "name": "value", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Prepared grid", "schema": {"$ref": "#/definitions/pipeline.Grid"}},
                    "404": {"description": "Session not found", "schema": {"type": "string"}},
                    "422": {"description": "No value column", "schema": {"type": "string"}}
                }
            }
        },
        "/sessions/{id}/download": {
            "get": {
                "description": "The prepared grid as CSV or XLSX, named after the chart context",
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["data"],
                "summary": "Download grid",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "chart", "description": "Chart context, names the file", "name": "context", "in": "query"},
                    {"type": "string", "default": "csv", "description": "csv or xlsx", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Grid file", "schema": {"type": "file"}},
                    "400": {"description": "Unknown format", "schema": {"type": "string"}},
                    "404": {"description": "Session not found", "schema": {"type": "string"}},
                    "422": {"description": "No value column", "schema": {"type": "string"}}
                }
            }
        },
        "/sessions/{id}/chart": {
            "get": {
                "produces": ["text/html"],
                "tags": ["charts"],
                "summary": "Render chart",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "X axis column", "name": "x", "in": "query", "required": true},
                    {"type": "string", "default": "line", "description": "line, bar, area or errorband", "name": "kind", "in": "query"},
                    {"type": "string", "description": "Page title", "name": "title", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "HTML page", "schema": {"type": "string"}},
                    "400": {"description": "No x axis or unknown kind", "schema": {"type": "string"}},
                    "404": {"description": "Session not found", "schema": {"type": "string"}},
                    "422": {"description": "No value column", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "model.ColumnSummary": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "name": {"type": "string"},
                "values": {"type": "array", "items": {"type": "string"}}
            }
        },
        "model.FileInfo": {
            "type": "object",
            "properties": {
                "format": {"type": "string"},
                "name": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "model.ChartRequest": {
            "type": "object",
            "properties": {
                "avg_by": {"type": "string"},
                "cap_types": {"type": "array", "items": {"type": "string"}},
                "col": {"type": "string"},
                "color": {"type": "string"},
                "context": {"type": "string"},
                "dash": {"type": "string"},
                "kind": {"type": "string"},
                "opacity": {"type": "string"},
                "row": {"type": "string"},
                "shape": {"type": "string"},
                "title": {"type": "string"},
                "value": {"type": "string"},
                "x": {"type": "string"}
            }
        },
        "pipeline.Grid": {
            "type": "object",
            "properties": {
                "dimensions": {"type": "array", "items": {"type": "string"}},
                "mode": {"type": "string"},
                "request": {"$ref": "#/definitions/model.ChartRequest"},
                "table": {"type": "object", "additionalProperties": true},
                "value_column": {"type": "string"}
            }
        },
        "session.Summary": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"$ref": "#/definitions/model.ColumnSummary"}},
                "created_at": {"type": "string"},
                "files": {"type": "array", "items": {"$ref": "#/definitions/model.FileInfo"}},
                "id": {"type": "string"},
                "row_count": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Energy Dashboard API",
	Description:      "Upload energy model outputs and prepare dense, aggregated chart grids.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
