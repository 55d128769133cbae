// Package docs is generated by swaggo/swag from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/greeting": {
            "get": {
                "description": "Return every greeting the configured sink holds",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "greetings"
                ],
                "summary": "List greetings",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/greeting.GreetingDTO"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "501": {
                        "description": "Not Implemented",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "description": "Same as POST; answers 200 instead of 201",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "greetings"
                ],
                "summary": "Store a greeting",
                "parameters": [
                    {
                        "description": "Greeting",
                        "name": "greeting",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/greeting.GreetingRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/greeting.MessageIDResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "Validate a greeting and forward it to the configured sink",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "greetings"
                ],
                "summary": "Store a greeting",
                "parameters": [
                    {
                        "description": "Greeting",
                        "name": "greeting",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/greeting.GreetingRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/greeting.MessageIDResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {
                    "type": "object",
                    "additionalProperties": true
                },
                "error": {
                    "type": "string",
                    "example": "validation failed"
                },
                "error_code": {
                    "type": "string",
                    "example": "VALIDATION_ERROR"
                }
            }
        },
        "greeting.GreetingDTO": {
            "type": "object",
            "properties": {
                "created": {
                    "type": "string"
                },
                "externalReference": {
                    "type": "string"
                },
                "from": {
                    "type": "string"
                },
                "heading": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "to": {
                    "type": "string"
                }
            }
        },
        "greeting.GreetingRequest": {
            "type": "object",
            "required": [
                "created",
                "from",
                "heading",
                "message",
                "to"
            ],
            "properties": {
                "created": {
                    "type": "string",
                    "example": "2024-12-24T18:00:00Z"
                },
                "externalReference": {
                    "type": "string",
                    "maxLength": 36,
                    "example": "3f2b6c1e-0a7d-4c55-9a5e-8d1f0b2c4e6a"
                },
                "from": {
                    "type": "string",
                    "maxLength": 20,
                    "example": "testa"
                },
                "heading": {
                    "type": "string",
                    "maxLength": 50,
                    "example": "Merry Christmas"
                },
                "message": {
                    "type": "string",
                    "maxLength": 50,
                    "example": "Happy new year"
                },
                "to": {
                    "type": "string",
                    "maxLength": 20,
                    "example": "test"
                }
            }
        },
        "greeting.MessageIDResponse": {
            "type": "object",
            "properties": {
                "messageId": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Greeting Service API",
	Description:      "Accepts greetings over HTTP and forwards them to the configured sink",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
