// Package docs registers the two swaggo/swag specs this repo serves
// under /swagger/*any: one for the Location Service, one for the
// Unified Gateway. Hand-maintained in the shape `swag init` emits
// (a Spec literal plus an init() registering it), since the two
// services' handler annotations live in separate packages and a
// single generated doc can't cover both binaries.
package docs

import "github.com/swaggo/swag"

const locationServiceTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {}
}`

const gatewayTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {}
}`

// LocationServiceInfo is the Location Service's registered spec
// (instance name "location_service").
var LocationServiceInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8081",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Location Service API",
	Description:      "Per-site fingerprint device gateway: devices, users, attendance, summaries.",
	InfoInstanceName: "location_service",
	SwaggerTemplate:  locationServiceTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// GatewayInfo is the Unified Gateway's registered spec (instance name
// "gateway").
var GatewayInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Unified Gateway API",
	Description:      "Cross-location fan-out, merge, and proxy API for the attendance dashboard.",
	InfoInstanceName: "gateway",
	SwaggerTemplate:  gatewayTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(LocationServiceInfo.InstanceName(), LocationServiceInfo)
	swag.Register(GatewayInfo.InstanceName(), GatewayInfo)
}
