package parser

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petStoreDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Pet Store", "version": "1.0.0", "description": "Pets as a service"},
  "servers": [{"url": "https://api.example.com"}],
  "paths": {
    "/pets": {
      "get": {
        "summary": "List pets",
        "tags": ["pets"],
        "parameters": [
          {"name": "limit", "in": "query", "required": false, "schema": {"type": "integer"}}
        ],
        "responses": {
          "200": {"description": "A list of pets", "content": {"application/json": {"schema": {"type": "array", "items": {"type": "object"}}}}}
        }
      },
      "post": {
        "summary": "Create a pet",
        "requestBody": {
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}
        },
        "responses": {
          "201": {"description": "Created"},
          "400": {"description": "Invalid input"}
        }
      }
    },
    "/pets/{petId}": {
      "get": {
        "summary": "Get a pet",
        "parameters": [
          {"name": "petId", "in": "path", "required": true, "schema": {"type": "integer"}}
        ],
        "responses": {
          "200": {"description": "A pet"},
          "404": {"description": "Not found"}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Pet": {"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}
    }
  }
}`

func TestParseDataExtractsSpec(t *testing.T) {
	p := NewSwaggerParser("", 1)
	spec, _, err := p.ParseData([]byte(petStoreDoc))
	require.NoError(t, err)

	assert.Equal(t, int64(1), spec.ID)
	assert.Equal(t, "Pet Store", spec.Title)
	assert.Equal(t, "1.0.0", spec.Version)
	assert.Equal(t, "3.0.3", spec.OpenAPIVersion)
	assert.Equal(t, "Pets as a service", spec.Description)
	assert.Equal(t, []string{"https://api.example.com"}, spec.Servers)
}

func TestParseDataExtractsEndpoints(t *testing.T) {
	p := NewSwaggerParser("", 1)
	_, endpoints, err := p.ParseData([]byte(petStoreDoc))
	require.NoError(t, err)
	require.Len(t, endpoints, 3)

	// Walk order is paths sorted, then methods sorted: deterministic ids.
	assert.Equal(t, int64(1), endpoints[0].ID)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "/pets", endpoints[0].Path)
	assert.Equal(t, "List pets", endpoints[0].Name)
	assert.Equal(t, []string{"pets"}, endpoints[0].Tags)

	assert.Equal(t, int64(2), endpoints[1].ID)
	assert.Equal(t, "POST", endpoints[1].Method)
	assert.Equal(t, "/pets", endpoints[1].Path)

	assert.Equal(t, int64(3), endpoints[2].ID)
	assert.Equal(t, "GET", endpoints[2].Method)
	assert.Equal(t, "/pets/{petId}", endpoints[2].Path)
}

func TestParseDataParameters(t *testing.T) {
	p := NewSwaggerParser("", 1)
	_, endpoints, err := p.ParseData([]byte(petStoreDoc))
	require.NoError(t, err)

	list := endpoints[0]
	require.Len(t, list.Parameters, 1)
	assert.Equal(t, "limit", list.Parameters[0].Name)
	assert.Equal(t, "query", list.Parameters[0].In)
	assert.False(t, list.Parameters[0].Required)

	byID := endpoints[2]
	require.Len(t, byID.Parameters, 1)
	assert.Equal(t, "petId", byID.Parameters[0].Name)
	assert.True(t, byID.Parameters[0].Required)
}

func TestParseDataRequestBodyAndResponses(t *testing.T) {
	p := NewSwaggerParser("", 1)
	_, endpoints, err := p.ParseData([]byte(petStoreDoc))
	require.NoError(t, err)

	create := endpoints[1]
	assert.Equal(t, "application/json", create.ContentType)
	assert.NotNil(t, create.Body, "schema ref must resolve to the component schema")

	require.Contains(t, create.Responses, 201)
	require.Contains(t, create.Responses, 400)
	assert.Equal(t, "Created", create.Responses[201].Description)
	assert.Equal(t, "Invalid input", create.Responses[400].Description)
}

func TestParseDataContentTypeDefault(t *testing.T) {
	p := NewSwaggerParser("", 1)
	_, endpoints, err := p.ParseData([]byte(petStoreDoc))
	require.NoError(t, err)

	// No request body declared: the default media type still applies.
	assert.Equal(t, "application/json", endpoints[0].ContentType)
}

func TestParseDataInvalidDoc(t *testing.T) {
	p := NewSwaggerParser("", 1)
	_, _, err := p.ParseData([]byte("{not an openapi doc"))
	assert.Error(t, err)
}

func TestParseEndpointsProbesKnownURLs(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if r.URL.Path != "/openapi.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(petStoreDoc))
	}))
	defer server.Close()

	p := NewSwaggerParser(server.URL, 1)
	spec, endpoints, err := p.ParseEndpoints()
	require.NoError(t, err)

	assert.Equal(t, "Pet Store", spec.Title)
	assert.Len(t, endpoints, 3)
	assert.Contains(t, requested, "/swagger/v1/swagger.json")
	assert.Contains(t, requested, "/openapi.json")
}

func TestParseEndpointsNoDocFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	p := NewSwaggerParser(server.URL, 1)
	_, _, err := p.ParseEndpoints()
	assert.Error(t, err)
}
