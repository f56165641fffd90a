package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fitness Score API",
        "description": "Physical fitness test scoring, cohort grade tracking and result statistics.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Classes", "description": "Classes and cohort standing"},
        {"name": "Settings", "description": "Current academic year"},
        {"name": "Forms", "description": "Test forms and their item snapshots"},
        {"name": "Records", "description": "Student test records"},
        {"name": "Statistics", "description": "Class and form results, charts and exports"},
        {"name": "Scoring", "description": "Scoring engine and item catalog"}
    ],
    "paths": {
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classes with derived grade levels",
                "parameters": [
                    {"name": "cohort", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Get class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cohorts/{cohort}/standing": {
            "get": {
                "tags": ["Classes"],
                "summary": "Grade level and status of a cohort",
                "parameters": [
                    {"name": "cohort", "in": "path", "required": true, "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-year": {
            "get": {
                "tags": ["Settings"],
                "summary": "Current academic year",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Set the current academic year",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"academic_year": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms": {
            "get": {
                "tags": ["Forms"],
                "summary": "List test forms",
                "parameters": [
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["draft", "published", "closed"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Forms"],
                "summary": "Create a test form",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFormRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}": {
            "get": {
                "tags": ["Forms"],
                "summary": "Get test form with items",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/status": {
            "patch": {
                "tags": ["Forms"],
                "summary": "Change form status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"status": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/recalculate": {
            "post": {
                "tags": ["Records"],
                "summary": "Queue rescoring of every record on a form",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Form statistics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/classes/{classId}/roster": {
            "get": {
                "tags": ["Records"],
                "summary": "Class members with their records",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "academic_year", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/classes/{classId}/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Class statistics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/classes/{classId}/statistics/chart": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Class statistics as ECharts options",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{id}/classes/{classId}/export": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Export class results",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records": {
            "post": {
                "tags": ["Records"],
                "summary": "Submit one student's measurements",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Form not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Cohort not participating", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/batch": {
            "post": {
                "tags": ["Records"],
                "summary": "Submit measurements for many students",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{id}": {
            "get": {
                "tags": ["Records"],
                "summary": "Get record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scoring/preview": {
            "post": {
                "tags": ["Scoring"],
                "summary": "Score measurements without saving",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scoring/catalog": {
            "get": {
                "tags": ["Scoring"],
                "summary": "Active test item catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scoring/catalog/validate": {
            "get": {
                "tags": ["Scoring"],
                "summary": "Catalog integrity report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scoring/catalog/reload": {
            "post": {
                "tags": ["Scoring"],
                "summary": "Reload the catalog file",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Catalog rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateFormRequest": {
            "type": "object",
            "properties": {
                "form_name": {"type": "string"},
                "academic_year": {"type": "string"},
                "test_date": {"type": "string"},
                "description": {"type": "string"},
                "participating_cohorts": {"type": "array", "items": {"type": "string"}},
                "item_codes": {"type": "array", "items": {"type": "string"}},
                "weight_overrides": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "SubmitRecordRequest": {
            "type": "object",
            "properties": {
                "form_id": {"type": "string"},
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "test_data": {"type": "object"}
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
