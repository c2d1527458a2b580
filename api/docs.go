// Package api registers the Swagger documentation served at /swagger/.
package api

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/users/register": {
			"post": {
				"description": "Create a registered account and sign it in. Username and email are stored lowercase and must be unique.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Users"
				],
				"summary": "Register",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Registration request",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.RegisterRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.AuthResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"409": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				}
			}
		},
		"/users/login": {
			"post": {
				"description": "Exchange username and password for an access and refresh token. Guest accounts cannot log in.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Users"
				],
				"summary": "Login",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Login request",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.AuthResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				}
			}
		},
		"/users/guest": {
			"post": {
				"description": "Create a guest account with generated credentials and sign it in. The account can later be upgraded with /users/registerGuest.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Users"
				],
				"summary": "Guest login",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.AuthResponse"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				}
			}
		},
		"/users/registerGuest": {
			"patch": {
				"description": "Give the guest account named by userId real credentials. The id is kept, so existing expenses and categories stay attached.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Users"
				],
				"summary": "Upgrade guest",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Guest user id",
						"name": "userId",
						"in": "query",
						"required": true
					},
					{
						"description": "New credentials",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.RegisterRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.UserResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"409": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/users/logout": {
			"post": {
				"description": "Revoke a refresh token. Access tokens stay valid until they expire.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Users"
				],
				"summary": "Logout",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Logout request",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.LogoutRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.MessageResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				}
			}
		},
		"/auth/refresh": {
			"post": {
				"description": "Trade a valid refresh token and the (possibly expired) access token it was issued with for a new token pair.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Auth"
				],
				"summary": "Refresh tokens",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Current token pair",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.TokenPair"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.TokenPair"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				}
			}
		},
		"/expenses/addExpense": {
			"post": {
				"description": "Record an expense. The category must be a default one or one of the user's own. Amounts are decimal strings.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Add expense",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Must match the token subject",
						"name": "userId",
						"in": "query",
						"required": false
					},
					{
						"description": "Expense",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.ExpenseRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.Expense"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/expenses/editExpense": {
			"patch": {
				"description": "Rewrite amount, description, category and frequency of one of the user's expenses. The expense date is not changed.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Edit expense",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Must match the token subject",
						"name": "userId",
						"in": "query",
						"required": false
					},
					{
						"description": "Expense with id",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.ExpenseRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.Expense"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/expenses/deleteExpenses": {
			"delete": {
				"description": "Delete a comma separated list of the user's expenses. Ids that do not exist or belong to someone else are ignored; the response echoes the requested ids.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Delete expenses",
				"parameters": [
					{
						"type": "string",
						"description": "Must match the token subject",
						"name": "userId",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Comma separated expense ids",
						"name": "expenseIds",
						"in": "query",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.DeleteExpensesResponse"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/expenses/getExpenses": {
			"get": {
				"description": "List the user's expenses with category names, newest expense date first.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "List expenses",
				"parameters": [
					{
						"type": "string",
						"description": "Must match the token subject",
						"name": "userId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/tallysdk.Expense"
							}
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/expenses/getCategories": {
			"get": {
				"description": "List the default categories followed by the user's own.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Categories"
				],
				"summary": "List categories",
				"parameters": [
					{
						"type": "string",
						"description": "Must match the token subject",
						"name": "userId",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/tallysdk.Category"
							}
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/expenses/addCategory": {
			"post": {
				"description": "Create a category owned by the user. Names are unique per user.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Categories"
				],
				"summary": "Add category",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Must match the token subject",
						"name": "userId",
						"in": "query",
						"required": false
					},
					{
						"description": "Category",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/tallysdk.CategoryRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.Category"
						}
					},
					"400": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"401": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"403": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"404": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"409": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					},
					"500": {
						"description": "error, error_description",
						"schema": {
							"$ref": "#/definitions/tallysdk.APIError"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/expenses/getFrequencies": {
			"get": {
				"description": "List every expense frequency tag in a stable order.",
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "List frequencies",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/livez": {
			"get": {
				"description": "Liveness probe endpoint returning basic service health status, uptime, and version information\nThis endpoint always returns 200 OK if the service is running",
				"produces": [
					"application/json"
				],
				"tags": [
					"Health"
				],
				"summary": "Health Check Endpoint",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.HealthResponse"
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"description": "Readiness probe endpoint returning service health status and checks for critical dependencies\nIncludes uptime, version, and status of the database and category cache",
				"produces": [
					"application/json"
				],
				"tags": [
					"Health"
				],
				"summary": "Readiness Check Endpoint",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/tallysdk.HealthResponse"
						}
					},
					"503": {
						"description": "status, uptime, version, checks - service not ready",
						"schema": {
							"$ref": "#/definitions/tallysdk.HealthResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"tallysdk.APIError": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"error_description": {
					"type": "string"
				}
			}
		},
		"tallysdk.RegisterRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"email": {
					"type": "string"
				}
			}
		},
		"tallysdk.LoginRequest": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"tallysdk.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"username": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"isGuest": {
					"type": "boolean"
				},
				"createdAt": {
					"type": "string"
				}
			}
		},
		"tallysdk.AuthResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/tallysdk.User"
				},
				"token": {
					"type": "string"
				},
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"tallysdk.UserResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/tallysdk.User"
				}
			}
		},
		"tallysdk.TokenPair": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"tallysdk.LogoutRequest": {
			"type": "object",
			"properties": {
				"refreshToken": {
					"type": "string"
				}
			}
		},
		"tallysdk.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				}
			}
		},
		"tallysdk.ExpenseRequest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"amount": {
					"type": "string",
					"example": "12.50"
				},
				"description": {
					"type": "string"
				},
				"categoryId": {
					"type": "string"
				},
				"frequency": {
					"type": "string",
					"enum": [
						"OneTime",
						"Daily",
						"Weekly",
						"Monthly",
						"Yearly"
					]
				},
				"date": {
					"type": "string",
					"example": "2024-05-01"
				}
			}
		},
		"tallysdk.Expense": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"createdBy": {
					"type": "string"
				},
				"amount": {
					"type": "string",
					"example": "12.50"
				},
				"description": {
					"type": "string"
				},
				"categoryId": {
					"type": "string"
				},
				"categoryName": {
					"type": "string"
				},
				"frequency": {
					"type": "string"
				},
				"expenseDate": {
					"type": "string"
				}
			}
		},
		"tallysdk.DeleteExpensesResponse": {
			"type": "object",
			"properties": {
				"deletedIds": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"count": {
					"type": "integer"
				}
			}
		},
		"tallysdk.CategoryRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				}
			}
		},
		"tallysdk.Category": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"isDefault": {
					"type": "boolean"
				},
				"createdBy": {
					"type": "string"
				}
			}
		},
		"tallysdk.HealthChecks": {
			"type": "object",
			"properties": {
				"database": {
					"type": "string"
				},
				"cache": {
					"type": "string"
				}
			}
		},
		"tallysdk.HealthResponse": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				},
				"checks": {
					"$ref": "#/definitions/tallysdk.HealthChecks"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Tally Expense Tracking API",
	Description:      "Personal expense tracking: accounts (registered and guest), JWT sessions with refresh tokens, expenses and categories.\n\nAccess tokens are HS256 JWTs valid for two hours. Refresh tokens are valid for a day and can be revoked by logging out.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
