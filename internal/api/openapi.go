package api

import (
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
)

// APIVersion is reported in the OpenAPI document
const APIVersion = "0.1.0"

// OpenAPI describes every registered route
func (s *Server) OpenAPI() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Resume Tailor API",
			Description: "Review and apply AI-proposed edits to a resume",
			Version:     APIVersion,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, r := range s.routes() {
		path, params := openAPIPath(r.path)

		op := &openapi3.Operation{
			OperationID: r.name,
			Summary:     r.summary,
			Tags:        []string{tagFor(r.path)},
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(r.status, &openapi3.ResponseRef{
					Value: openapi3.NewResponse().WithDescription(http.StatusText(r.status)),
				}),
			),
		}
		for _, p := range params {
			op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
				Value: openapi3.NewPathParameter(p).WithSchema(openapi3.NewStringSchema()),
			})
		}

		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		item.SetOperation(r.method, op)
	}
	return doc
}

func (s *Server) openAPI(c echo.Context) error {
	s.docOnce.Do(func() { s.doc = s.OpenAPI() })
	return c.JSON(http.StatusOK, s.doc)
}

// openAPIPath turns an echo path into an OpenAPI template and its parameters
func openAPIPath(path string) (string, []string) {
	var params []string
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			name := part[1:]
			params = append(params, name)
			parts[i] = "{" + name + "}"
		}
	}
	return strings.Join(parts, "/"), params
}

func tagFor(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/sessions"), path == "/api/analyze":
		return "sessions"
	case strings.HasPrefix(path, "/api/resume"):
		return "resumes"
	case strings.HasPrefix(path, "/applications"):
		return "applications"
	}
	return "misc"
}
