package parser

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"api-testgen/internal/types"

	"github.com/getkin/kin-openapi/openapi3"
)

// SwaggerParser handles parsing of Swagger/OpenAPI specifications into the
// endpoint set the generator consumes
type SwaggerParser struct {
	baseURL string
	specID  int64
	client  *http.Client
	doc     *openapi3.T
}

// NewSwaggerParser creates a new instance of SwaggerParser
func NewSwaggerParser(baseURL string, specID int64) *SwaggerParser {
	return &SwaggerParser{
		baseURL: baseURL,
		specID:  specID,
		client:  &http.Client{},
	}
}

// ParseEndpoints fetches and parses the Swagger documentation from the
// well-known URLs under the base URL
func (p *SwaggerParser) ParseEndpoints() (types.Spec, []types.Endpoint, error) {
	urls := []string{
		fmt.Sprintf("%s/swagger/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/swagger.json", p.baseURL),
		fmt.Sprintf("%s/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/api/swagger.json", p.baseURL),
		fmt.Sprintf("%s/api/v1/swagger.json", p.baseURL),
		fmt.Sprintf("%s/openapi.json", p.baseURL),
	}

	var lastErr error
	for _, url := range urls {
		p.doc, lastErr = p.fetchOpenAPIDoc(url)
		if lastErr == nil {
			break
		}
	}
	if p.doc == nil {
		return types.Spec{}, nil, fmt.Errorf("failed to fetch OpenAPI documentation from any known URL, last error: %w", lastErr)
	}

	return p.extractSpec(), p.extractEndpoints(), nil
}

// ParseData parses an OpenAPI document from raw bytes (local file import)
func (p *SwaggerParser) ParseData(data []byte) (types.Spec, []types.Endpoint, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return types.Spec{}, nil, fmt.Errorf("failed to parse OpenAPI doc: %w", err)
	}
	p.doc = doc
	return p.extractSpec(), p.extractEndpoints(), nil
}

// fetchOpenAPIDoc fetches the OpenAPI documentation from the given URL
func (p *SwaggerParser) fetchOpenAPIDoc(url string) (*openapi3.T, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %w", err)
	}
	return doc, nil
}

// extractSpec extracts spec-level metadata for the prompt builder
func (p *SwaggerParser) extractSpec() types.Spec {
	spec := types.Spec{
		ID:             p.specID,
		OpenAPIVersion: p.doc.OpenAPI,
	}
	if p.doc.Info != nil {
		spec.Title = p.doc.Info.Title
		spec.Version = p.doc.Info.Version
		spec.Description = p.doc.Info.Description
	}
	for _, server := range p.doc.Servers {
		spec.Servers = append(spec.Servers, server.URL)
	}
	return spec
}

// extractEndpoints extracts endpoints from the OpenAPI documentation.
// Endpoint ids are assigned in walk order and are stable within one import.
func (p *SwaggerParser) extractEndpoints() []types.Endpoint {
	var endpoints []types.Endpoint

	var nextID int64 = 1
	paths := p.doc.Paths.Map()
	for _, path := range sortedKeys(paths) {
		pathItem := paths[path]
		operations := pathItem.Operations()
		methods := make([]string, 0, len(operations))
		for method := range operations {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			operation := operations[method]
			endpoint := types.Endpoint{
				ID:          nextID,
				SpecID:      p.specID,
				Path:        path,
				Method:      strings.ToUpper(method),
				Name:        operation.Summary,
				Description: operation.Description,
				Tags:        operation.Tags,
				Responses:   make(map[int]types.Response),
			}
			nextID++

			// Extract parameters
			for _, param := range operation.Parameters {
				if param.Value == nil {
					continue
				}
				endpoint.Parameters = append(endpoint.Parameters, types.Parameter{
					Name:     param.Value.Name,
					In:       param.Value.In,
					Required: param.Value.Required,
					Schema:   rawSchema(param.Value.Schema),
				})
			}

			// Extract request body if present
			if operation.RequestBody != nil && operation.RequestBody.Value != nil {
				for contentType, content := range operation.RequestBody.Value.Content {
					if content.Schema == nil {
						continue
					}
					schema := content.Schema
					if ref := content.Schema.Ref; ref != "" {
						schemaName := strings.TrimPrefix(ref, "#/components/schemas/")
						if resolved, ok := p.doc.Components.Schemas[schemaName]; ok {
							schema = resolved
						}
					}
					endpoint.ContentType = contentType
					endpoint.Body = rawSchema(schema)
					break
				}
			}
			if endpoint.ContentType == "" {
				endpoint.ContentType = "application/json"
			}

			// Extract responses
			responses := operation.Responses.Map()
			for statusCode, response := range responses {
				code := 0
				fmt.Sscanf(statusCode, "%d", &code)
				if code == 0 || response.Value == nil {
					continue
				}

				description := ""
				if response.Value.Description != nil {
					description = *response.Value.Description
				}

				var schema interface{}
				if content, ok := response.Value.Content["application/json"]; ok && content != nil {
					schema = rawSchema(content.Schema)
				}

				endpoint.Responses[code] = types.Response{
					Description: description,
					Schema:      schema,
				}
			}

			endpoints = append(endpoints, endpoint)
		}
	}

	return endpoints
}

// rawSchema strips the openapi3 ref wrapper down to a plain value the
// prompt builder can marshal
func rawSchema(ref *openapi3.SchemaRef) interface{} {
	if ref == nil || ref.Value == nil {
		return nil
	}
	return ref.Value
}

// sortedKeys keeps endpoint id assignment deterministic across imports
func sortedKeys(paths map[string]*openapi3.PathItem) []string {
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
