package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the document service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>pdfstore — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document for the document registry. The /api/pdf paths are kept for
// older clients and behave like their /api/documents counterparts.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "pdfstore", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "Segment": { "type": "object", "properties": { "url": {"type":"string"}, "storeId": {"type":"string"}, "firstPage": {"type":"integer"}, "lastPage": {"type":"integer"} } },
      "Document": { "type": "object", "properties": { "id": {"type":"string"}, "title": {"type":"string"}, "owner": {"type":"string"}, "pageCount": {"type":"integer"}, "segments": {"type":"array","items":{"$ref":"#/components/schemas/Segment"}}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "kind": {"type":"string"}, "stage": {"type":"string"}, "segment": {"type":"integer"}, "failedSegments": {"type":"array","items":{"type":"object"}} } }
    }
  },
  "paths": {
    "/api/documents": {
      "get": { "summary": "List documents, newest first", "responses": { "200": { "description": "documents" } } },
      "post": {
        "summary": "Upload a PDF; it is split into segments and stored",
        "security": [ { "bearer": [] } ],
        "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","required":["file","title"],"properties":{"file":{"type":"string","format":"binary"},"title":{"type":"string"},"pageCount":{"type":"integer"}}}}}},
        "responses": { "201": { "description": "document created" }, "400": { "description": "invalid or empty document" }, "401": { "description": "unauthenticated" }, "413": { "description": "upload too large" }, "500": { "description": "ingestion failed", "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Error"} } } } }
      }
    },
    "/api/documents/search": {
      "get": { "summary": "Case-insensitive title search", "parameters": [ {"name":"keyword","in":"query","schema":{"type":"string"}} ], "responses": { "200": { "description": "documents" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update title or page count", "security": [ { "bearer": [] } ], "responses": { "200": { "description": "updated" }, "400": { "description": "invalid patch" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a document and its stored segments", "security": [ { "bearer": [] } ], "responses": { "200": { "description": "deleted" }, "404": { "description": "not found" }, "500": { "description": "some segments could not be deleted; record kept" } } }
    },
    "/api/pdf/": { "get": { "summary": "List documents (legacy)", "responses": { "200": { "description": "documents" } } } },
    "/api/pdf/search": { "get": { "summary": "Search documents (legacy)", "responses": { "200": { "description": "documents" } } } },
    "/api/pdf/upload": { "post": { "summary": "Upload a PDF (legacy)", "security": [ { "bearer": [] } ], "responses": { "201": { "description": "document created" } } } },
    "/api/pdf/update/{id}": { "put": { "summary": "Update a document (legacy)", "security": [ { "bearer": [] } ], "responses": { "200": { "description": "updated" } } } },
    "/api/pdf/delete/{id}": { "delete": { "summary": "Delete a document (legacy)", "security": [ { "bearer": [] } ], "responses": { "200": { "description": "deleted" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
