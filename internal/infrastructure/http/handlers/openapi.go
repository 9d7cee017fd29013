package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	yaml []byte
	json []byte
}

// NewOpenAPIHandler parses the embedded document once
func NewOpenAPIHandler() (*OpenAPIHandler, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(openAPISpec, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	return &OpenAPIHandler{yaml: openAPISpec, json: data}, nil
}

// YAML handles GET /openapi.yaml
func (h *OpenAPIHandler) YAML(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", h.yaml)
}

// JSON handles GET /openapi.json
func (h *OpenAPIHandler) JSON(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", h.json)
}
