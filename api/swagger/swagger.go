package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academy Ops API",
        "description": "Capacity-bound enrollment, waitlist promotion and payment reconciliation for academies",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Staff login"},
        {"name": "Admissions", "description": "Enrollment and cancellation"},
        {"name": "Waitlist", "description": "Waiting-list management"},
        {"name": "Discounts", "description": "Discount binding"},
        {"name": "Payments", "description": "Payment intents and gateway callbacks"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/lectures/{lectureId}/enrollments": {
            "post": {
                "tags": ["Admissions"],
                "summary": "Enroll a student into a lecture",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "lectureId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate enrollment or lecture full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/enrollments": {
            "get": {
                "tags": ["Admissions"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "lectureId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/enrollments/{enrollmentId}": {
            "delete": {
                "tags": ["Admissions"],
                "summary": "Cancel an enrollment, promoting the waitlist head if any",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "enrollmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "lectureId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cancelled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/lectures/{lectureId}/waitlist": {
            "post": {
                "tags": ["Waitlist"],
                "summary": "Add a student to the waiting list",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "lectureId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnqueueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Enqueued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already waiting or already enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/lectures/{lectureId}/waitlist/count": {
            "get": {
                "tags": ["Waitlist"],
                "summary": "Count live waiting-list entries for a lecture",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "lectureId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/waitlist": {
            "get": {
                "tags": ["Waitlist"],
                "summary": "List waiting-list entries",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "lectureId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/waitlist/{entryId}": {
            "delete": {
                "tags": ["Waitlist"],
                "summary": "Withdraw a waiting-list entry",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "entryId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Withdrawn"},
                    "404": {"description": "Entry not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/enrollments/{enrollmentId}/discount": {
            "put": {
                "tags": ["Discounts"],
                "summary": "Bind a named discount to an enrollment",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "enrollmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyDiscountRequest"}}
                ],
                "responses": {
                    "204": {"description": "Applied"},
                    "404": {"description": "Discount or enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Enrollment already paid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Discounts"],
                "summary": "Resolve the discount applied to an enrollment",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "enrollmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No discount applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academies/{academyId}/payments": {
            "post": {
                "tags": ["Payments"],
                "summary": "Create a payment intent for a live enrollment",
                "parameters": [
                    {"name": "academyId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Payment requested", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Intent does not match the enrollment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/verify": {
            "post": {
                "tags": ["Payments"],
                "summary": "Gateway success callback",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Confirmed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "402": {"description": "No payment request for order", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Payment key conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/fail": {
            "post": {
                "tags": ["Payments"],
                "summary": "Gateway failure callback",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportFailureRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/cancel": {
            "post": {
                "tags": ["Payments"],
                "summary": "Gateway refund callback",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelPaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cancelled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Payment not approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["account", "password"],
            "properties": {
                "account": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "EnrollRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "memo": {"type": "string"}
            }
        },
        "EnqueueRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "memo": {"type": "string"}
            }
        },
        "ApplyDiscountRequest": {
            "type": "object",
            "required": ["discount_name"],
            "properties": {
                "discount_name": {"type": "string"}
            }
        },
        "RequestPaymentRequest": {
            "type": "object",
            "required": ["student_id", "lecture_id", "amount", "pay_type", "order_name"],
            "properties": {
                "student_id": {"type": "string"},
                "lecture_id": {"type": "string"},
                "amount": {"type": "integer"},
                "pay_type": {"type": "string", "enum": ["CARD"]},
                "order_name": {"type": "string"}
            }
        },
        "VerifyPaymentRequest": {
            "type": "object",
            "required": ["payment_key", "order_id", "amount"],
            "properties": {
                "payment_key": {"type": "string"},
                "order_id": {"type": "string"},
                "amount": {"type": "integer"}
            }
        },
        "ReportFailureRequest": {
            "type": "object",
            "required": ["error_code", "error_msg", "order_id"],
            "properties": {
                "error_code": {"type": "string"},
                "error_msg": {"type": "string"},
                "order_id": {"type": "string"}
            }
        },
        "CancelPaymentRequest": {
            "type": "object",
            "required": ["order_id", "cancel_amount", "cancel_reason", "canceled_at"],
            "properties": {
                "order_id": {"type": "string"},
                "cancel_amount": {"type": "integer"},
                "cancel_reason": {"type": "string"},
                "canceled_at": {"type": "string", "format": "date-time"}
            }
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
                "pagination": {"$ref": "#/definitions/Pagination"}
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
