// Package docs holds the OpenAPI document served under /swagger.
//
// The document is regenerated from the handler annotations with
//
//	swag init --v3.1 -g cmd/server/main.go -o docs
//
// The committed template only carries the API header so the server builds
// before the first generation.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "contact": {
            "name": "SmartQueue Support",
            "email": "support@smartqueue.sn"
        },
        "version": "{{.Version}}"
    },
    "servers": [
        {"url": "{{.Host}}{{.BasePath}}"}
    ],
    "paths": {},
    "components": {
        "securitySchemes": {
            "BearerAuth": {
                "type": "apiKey",
                "description": "Bearer token authentication. Format: \"Bearer {token}\"",
                "name": "Authorization",
                "in": "header"
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
	Title:            "SmartQueue API",
	Description:      "Queue, ticket, appointment and mobile money payment management for Senegalese service counters.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
