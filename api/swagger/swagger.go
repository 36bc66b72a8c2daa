package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Planbook API",
        "description": "Lesson sequencing and schedule generation service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Course listings and lesson trees"},
        {"name": "Lessons", "description": "Lesson CRUD, moves and copies"},
        {"name": "Topics", "description": "Topic and sub-topic moves"},
        {"name": "Schedule", "description": "Calendar event generation and export"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "parameters": [
                    {"name": "filter", "in": "query", "type": "string", "enum": ["active", "archived", "both"]},
                    {"name": "visibility", "in": "query", "type": "string", "enum": ["private", "team"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/tree": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get the full lesson tree of a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/reload": {
            "post": {
                "tags": ["Courses"],
                "summary": "Reload a course tree from storage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Create lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/{id}": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Get lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Lessons"],
                "summary": "Update lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LessonInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Lessons"],
                "summary": "Delete lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/lessons/{id}/move-optimized": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Move a lesson relative to a sibling",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/lessons/{id}/regroup": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Reparent a lesson under a new topic or sub-topic",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegroupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/lessons/{id}/copy": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Copy a lesson under a new parent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CopyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/topics/{id}/move": {
            "post": {
                "tags": ["Topics"],
                "summary": "Reorder a topic among the course's topics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/subtopics/{id}/move": {
            "post": {
                "tags": ["Topics"],
                "summary": "Reorder a sub-topic within a topic's merged child set",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/subtopics/{id}/regroup": {
            "post": {
                "tags": ["Topics"],
                "summary": "Reparent a sub-topic under a new topic",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegroupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/subtopics/{id}/copy": {
            "post": {
                "tags": ["Topics"],
                "summary": "Copy a sub-topic and its lessons under a new topic",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CopyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MoveResponse"}}
                }
            }
        },
        "/schedule/events": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List schedule events",
                "parameters": [
                    {"name": "scheduleId", "in": "query", "required": true, "type": "integer"},
                    {"name": "courseId", "in": "query", "type": "integer"},
                    {"name": "period", "in": "query", "type": "integer"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/generate": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Generate a schedule's events from its configuration",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleConfig"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/continue": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Partially regenerate a schedule after a cut date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContinueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Export a schedule as CSV or PDF",
                "parameters": [
                    {"name": "scheduleId", "in": "query", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "LessonInput": {
            "type": "object",
            "required": ["courseId", "title", "topicId"],
            "properties": {
                "courseId": {"type": "integer"},
                "title": {"type": "string"},
                "topicId": {"type": "integer"},
                "subTopicId": {"type": "integer"},
                "visibility": {"type": "string", "enum": ["private", "team"]},
                "calendarStartDate": {"type": "string", "format": "date-time"},
                "calendarEndDate": {"type": "string", "format": "date-time"},
                "requestPartialScheduleUpdate": {"type": "boolean"}
            }
        },
        "MoveRequest": {
            "type": "object",
            "required": ["courseId", "relativeToId", "relativePosition", "relativeToType"],
            "properties": {
                "courseId": {"type": "integer"},
                "relativeToId": {"type": "integer"},
                "relativePosition": {"type": "string", "enum": ["before", "after"]},
                "relativeToType": {"type": "string", "enum": ["lesson", "subtopic", "topic"]},
                "calendarStartDate": {"type": "string", "format": "date-time"},
                "calendarEndDate": {"type": "string", "format": "date-time"},
                "requestPartialScheduleUpdate": {"type": "boolean"}
            }
        },
        "RegroupRequest": {
            "type": "object",
            "required": ["courseId", "newParentId", "newParentType"],
            "properties": {
                "courseId": {"type": "integer"},
                "newParentId": {"type": "integer"},
                "newParentType": {"type": "string", "enum": ["topic", "subtopic"]},
                "calendarStartDate": {"type": "string", "format": "date-time"},
                "calendarEndDate": {"type": "string", "format": "date-time"},
                "requestPartialScheduleUpdate": {"type": "boolean"}
            }
        },
        "CopyRequest": {
            "type": "object",
            "required": ["courseId", "newParentId", "newParentType"],
            "properties": {
                "courseId": {"type": "integer"},
                "newParentId": {"type": "integer"},
                "newParentType": {"type": "string", "enum": ["topic", "subtopic"]}
            }
        },
        "MoveResponse": {
            "type": "object",
            "properties": {
                "isSuccess": {"type": "boolean"},
                "errorMessage": {"type": "string"},
                "modifiedEntities": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ModifiedEntity"}
                }
            }
        },
        "ModifiedEntity": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "type": {"type": "string"},
                "sortOrder": {"type": "number"},
                "isMovedEntity": {"type": "boolean"}
            }
        },
        "ScheduleConfig": {
            "type": "object",
            "required": ["scheduleId", "startDate", "endDate", "periods"],
            "properties": {
                "scheduleId": {"type": "integer"},
                "startDate": {"type": "string", "format": "date-time"},
                "endDate": {"type": "string", "format": "date-time"},
                "teachingDays": {"type": "array", "items": {"type": "string"}},
                "periods": {"type": "array", "items": {"$ref": "#/definitions/PeriodAssignment"}}
            }
        },
        "PeriodAssignment": {
            "type": "object",
            "required": ["period", "kind"],
            "properties": {
                "period": {"type": "integer"},
                "kind": {"type": "string", "enum": ["course", "special", "unassigned"]},
                "courseId": {"type": "integer"},
                "specialType": {"type": "string"},
                "teachingDays": {"type": "array", "items": {"type": "string"}},
                "displayName": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "ContinueRequest": {
            "type": "object",
            "required": ["config", "afterDate"],
            "properties": {
                "config": {"$ref": "#/definitions/ScheduleConfig"},
                "afterDate": {"type": "string", "format": "date"}
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalItems": {"type": "integer"},
                "totalPages": {"type": "integer"}
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
