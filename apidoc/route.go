package apidoc

import "github.com/getkin/kin-openapi/openapi3"

type RouteBuilder struct {
	openapi   *OpenAPI
	operation *openapi3.Operation
}

func (rb *RouteBuilder) Summary(summary string) *RouteBuilder {
	rb.operation.Summary = summary
	return rb
}

func (rb *RouteBuilder) Tags(tags ...string) *RouteBuilder {
	rb.operation.Tags = append(rb.operation.Tags, tags...)
	return rb
}

// Security requires the named security schemes.
func (rb *RouteBuilder) Security(schemes ...string) *RouteBuilder {
	requirement := openapi3.NewSecurityRequirement()
	for _, scheme := range schemes {
		requirement.Authenticate(scheme)
	}
	security := openapi3.NewSecurityRequirements().With(requirement)
	rb.operation.Security = security
	return rb
}

// JSONBody references a component schema registered with AddSchema.
func (rb *RouteBuilder) JSONBody(schema string) *RouteBuilder {
	rb.operation.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchemaRef(rb.componentRef(schema)),
	}
	return rb
}

// Response documents a status returning the envelope, optionally with a
// component schema in data.
func (rb *RouteBuilder) Response(status int, description, dataSchema string) *RouteBuilder {
	envelope := openapi3.NewObjectSchema().
		WithProperty("code", openapi3.NewIntegerSchema()).
		WithProperty("message", openapi3.NewStringSchema())

	data := openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithNullable())
	if dataSchema != "" {
		data = rb.componentRef(dataSchema)
	}
	envelope.Properties["data"] = data

	rb.operation.AddResponse(status, openapi3.NewResponse().
		WithDescription(description).
		WithJSONSchema(envelope))
	return rb
}

func (rb *RouteBuilder) componentRef(name string) *openapi3.SchemaRef {
	rb.openapi.mu.RLock()
	defer rb.openapi.mu.RUnlock()

	var value *openapi3.Schema
	if ref, ok := rb.openapi.spec.Components.Schemas[name]; ok {
		value = ref.Value
	}
	return openapi3.NewSchemaRef("#/components/schemas/"+name, value)
}
