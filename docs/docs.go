// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Show the status of server",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User details", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.RegisterResponse"}},
                    "400": {"description": "Validation failed or username taken", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Obtain a token pair",
                "parameters": [
                    {"description": "Username and password", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.TokenPair"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/token/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange a refresh token for a new access token",
                "parameters": [
                    {"description": "Refresh token", "name": "token", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.AccessToken"}},
                    "401": {"description": "Invalid or expired refresh token", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/account": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Show the caller's bank account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Account"}},
                    "400": {"description": "User has no bank account", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/deposit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Deposit money",
                "parameters": [
                    {"description": "Amount and optional description", "name": "deposit", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.DepositRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResponse"}},
                    "400": {"description": "Invalid amount or no account", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/withdrawal": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Withdraw money",
                "parameters": [
                    {"description": "Amount and optional description", "name": "withdrawal", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.WithdrawalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResponse"}},
                    "400": {"description": "Invalid amount, no account or insufficient funds", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/transfer": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Transfer money to another account",
                "parameters": [
                    {"description": "Receiver account number and amount", "name": "transfer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.TransferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.OperationResponse"}},
                    "400": {"description": "Invalid amount, same account or insufficient funds", "schema": {"$ref": "#/definitions/common.AppError"}},
                    "404": {"description": "Receiver account not found", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        },
        "/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "List the caller's transaction history",
                "parameters": [
                    {"type": "string", "description": "deposit, withdrawal or transfer", "name": "transaction_type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Transaction"}}},
                    "400": {"description": "Unknown transaction type or no account", "schema": {"$ref": "#/definitions/common.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "common.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "kind": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "model.AccessToken": {
            "type": "object",
            "properties": {"access": {"type": "string"}}
        },
        "model.Account": {
            "type": "object",
            "properties": {
                "account_number": {"type": "string"},
                "balance": {"type": "string", "example": "100.00"},
                "created_at": {"type": "string"}
            }
        },
        "model.DepositRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "string", "example": "100.00"},
                "description": {"type": "string", "maxLength": 500}
            }
        },
        "model.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.OperationResponse": {
            "type": "object",
            "properties": {
                "balance": {"type": "string", "example": "70.00"},
                "detail": {"type": "string"}
            }
        },
        "model.RefreshRequest": {
            "type": "object",
            "required": ["refresh"],
            "properties": {"refresh": {"type": "string"}}
        },
        "model.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "username": {"type": "string", "maxLength": 150, "minLength": 3}
            }
        },
        "model.RegisterResponse": {
            "type": "object",
            "properties": {
                "account_number": {"type": "string"},
                "user": {"$ref": "#/definitions/model.User"}
            }
        },
        "model.TokenPair": {
            "type": "object",
            "properties": {
                "access": {"type": "string"},
                "refresh": {"type": "string"}
            }
        },
        "model.Transaction": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "description": {"type": "string"},
                "direction": {"type": "string", "enum": ["in", "out"]},
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "transaction_type": {"type": "string", "enum": ["deposit", "withdrawal", "transfer"]}
            }
        },
        "model.TransferRequest": {
            "type": "object",
            "required": ["amount", "receiver_account_number"],
            "properties": {
                "amount": {"type": "string"},
                "receiver_account_number": {"type": "string"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "model.WithdrawalRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "string"},
                "description": {"type": "string", "maxLength": 500}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Go-Bank Ledger API",
	Description:      "Accounts, deposits, withdrawals, transfers and transaction history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
