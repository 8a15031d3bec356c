// Package docs встраивает описание API в бинарник.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte

const OpenAPIContentType = "application/yaml"

// пути документации в HTTP API
const (
	BasePath    = "/api-docs"
	OpenAPIPath = BasePath + "/openapi.yaml"
	IndexPath   = BasePath + "/index.html"
)
