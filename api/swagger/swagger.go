package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kas Kelas API",
        "description": "Class dues tracking with cash payment codes",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Students", "description": "Class roster"},
        {"name": "PaymentTypes", "description": "Dues items"},
        {"name": "Payments", "description": "Submitted and reviewed payments"},
        {"name": "PaymentCodes", "description": "Cash payments read out as codes"},
        {"name": "Expenses", "description": "Treasury spending"},
        {"name": "Notifications", "description": "Student notifications"},
        {"name": "Dashboard", "description": "Treasury summary"},
        {"name": "Reports", "description": "Ledger exports"}
    ],
    "paths": {
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payment-types": {
            "get": {
                "tags": ["PaymentTypes"],
                "summary": "List active payment types",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["PaymentTypes"],
                "summary": "Create a payment type",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePaymentTypeRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payment-types/{id}": {
            "get": {
                "tags": ["PaymentTypes"],
                "summary": "Get a payment type",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["PaymentTypes"],
                "summary": "Deactivate a payment type",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deactivated"}}
            }
        },
        "/payments": {
            "get": {
                "tags": ["Payments"],
                "summary": "List payments",
                "description": "Students only see their own payments.",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "paymentTypeId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "approved", "rejected"]},
                    {"name": "method", "in": "query", "type": "string", "enum": ["transfer", "pos", "cash"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Payments"],
                "summary": "Submit a payment for review",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitPaymentRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payments/{id}/review": {
            "post": {
                "tags": ["Payments"],
                "summary": "Approve or reject a pending payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payment-codes": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Generate a payment code for the signed-in student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateCodeRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payment-codes/format": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Format a partially typed payment code",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CodeRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payment-codes/resolve": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Resolve a payment code without a session",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CodeRequest"}}],
                "responses": {
                    "200": {"description": "Resolved intent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_CODE_FORMAT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "PAYMENT_TYPE_NOT_FOUND, PAYER_NOT_IDENTIFIED or STUDENT_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_PAID or ALL_ALREADY_PAID", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "NO_VALID_RECIPIENTS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payment-codes/confirm": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Resolve and record a payment code in one call",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmCodeRequest"}}],
                "responses": {
                    "200": {"description": "All recipients recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "207": {"description": "Some recipients failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Every write failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payment-codes/sessions": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Open a scan session",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payment-codes/sessions/{id}": {
            "get": {
                "tags": ["PaymentCodes"],
                "summary": "Get a scan session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["PaymentCodes"],
                "summary": "Discard a scan session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Discarded"},
                    "409": {"description": "Confirmation in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payment-codes/sessions/{id}/resolve": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Resolve a code inside a scan session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CodeRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payment-codes/sessions/{id}/confirm": {
            "post": {
                "tags": ["PaymentCodes"],
                "summary": "Record the payments of a resolved scan session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ConfirmSessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "207": {"description": "Some recipients failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Nothing resolved or already confirming", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/expenses": {
            "get": {
                "tags": ["Expenses"],
                "summary": "List expenses",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Expenses"],
                "summary": "Record an expense",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExpenseRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List my notifications",
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification as read",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Marked"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Treasury summary",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export the payment ledger",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download an exported ledger",
                "security": [],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CodeRequest": {
            "type": "object",
            "properties": {"code": {"type": "string", "example": "MP-7F2-P9K1-3B4.X7Q"}},
            "required": ["code"]
        },
        "ConfirmCodeRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["code"]
        },
        "ConfirmSessionRequest": {
            "type": "object",
            "properties": {"note": {"type": "string"}}
        },
        "GenerateCodeRequest": {
            "type": "object",
            "properties": {
                "paymentTypeId": {"type": "string"},
                "recipientIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["paymentTypeId"]
        },
        "CreatePaymentTypeRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "amount": {"type": "integer"},
                "dueDate": {"type": "string", "format": "date-time"}
            },
            "required": ["title", "amount"]
        },
        "SubmitPaymentRequest": {
            "type": "object",
            "properties": {
                "paymentTypeId": {"type": "string"},
                "amount": {"type": "integer"},
                "method": {"type": "string", "enum": ["transfer", "pos", "cash"]},
                "proofUrl": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["paymentTypeId", "amount", "method"]
        },
        "ReviewPaymentRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["approved", "rejected"]},
                "note": {"type": "string"}
            },
            "required": ["decision"]
        },
        "CreateExpenseRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "amount": {"type": "integer"},
                "spentAt": {"type": "string", "format": "date-time"}
            },
            "required": ["title", "amount"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "paymentTypeId": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected"]}
            },
            "required": ["format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
