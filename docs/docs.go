// Package docs регистрирует описание API qcm-api для Swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/token": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Выдача токена доступа",
                "parameters": [
                    {"type": "string", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Token"}},
                    "401": {"description": "Неверные учетные данные", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Проверка живости",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Хранилище недоступно", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/me/": {
            "get": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Текущий пользователь",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "401": {"description": "Не аутентифицирован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "403": {"description": "Пользователь отключён", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/": {
            "post": {
                "security": [{"OAuth2Password": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Создание пользователя",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.UserCreate"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.User"}},
                    "403": {"description": "Недостаточно прав", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Пользователь уже существует", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/update/": {
            "put": {
                "security": [{"OAuth2Password": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Изменение пользователя",
                "parameters": [
                    {"type": "string", "name": "user_to_modify", "in": "query", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.UserUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "403": {"description": "Пользователь защищён", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Имя или почта заняты", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/deactivate/": {
            "put": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Отключение пользователя",
                "parameters": [
                    {"type": "string", "name": "user_to_desactivate", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "403": {"description": "Пользователь защищён", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/delete/{username}": {
            "delete": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Удаление пользователя",
                "parameters": [
                    {"type": "string", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Пользователь защищён", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/list": {
            "get": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Список пользователей",
                "parameters": [
                    {"type": "integer", "default": 0, "name": "skip", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.User"}}}
                }
            }
        },
        "/qcm/{use}/{subject}/{nb_questions}": {
            "get": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["QCM"],
                "summary": "Случайный набор вопросов",
                "parameters": [
                    {"type": "string", "name": "use", "in": "path", "required": true},
                    {"type": "string", "name": "subject", "in": "path", "required": true},
                    {"type": "integer", "enum": [5, 10, 20], "name": "nb_questions", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.QuestionView"}}},
                    "422": {"description": "Некорректные параметры", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/qcm/{question_id}": {
            "get": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["QCM"],
                "summary": "Правильный ответ на вопрос",
                "parameters": [
                    {"type": "integer", "name": "question_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Answer"}},
                    "404": {"description": "Вопрос не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/qcm_add/": {
            "post": {
                "security": [{"OAuth2Password": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["QCM"],
                "summary": "Добавление вопроса",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.QuestionCreate"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Question"}},
                    "409": {"description": "Вопрос уже существует", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/db_reset/": {
            "post": {
                "security": [{"OAuth2Password": []}],
                "produces": ["application/json"],
                "tags": ["QCM"],
                "summary": "Перезагрузка таблицы вопросов из CSV",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "CSV недоступен", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Token": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "disabled": {"type": "boolean"},
                "role": {"type": "string", "enum": ["admin", "user"]}
            }
        },
        "models.UserCreate": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "user"]}
            }
        },
        "models.UserUpdate": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "models.Question": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "question": {"type": "string"},
                "subject": {"type": "string"},
                "use": {"type": "string"},
                "correct": {"type": "string"},
                "responseA": {"type": "string"},
                "responseB": {"type": "string"},
                "responseC": {"type": "string"},
                "responseD": {"type": "string"},
                "remark": {"type": "string"}
            }
        },
        "models.QuestionCreate": {
            "type": "object",
            "required": ["use", "subject", "question", "responseA", "responseB", "correct"],
            "properties": {
                "use": {"type": "string"},
                "subject": {"type": "string"},
                "question": {"type": "string"},
                "responseA": {"type": "string"},
                "responseB": {"type": "string"},
                "responseC": {"type": "string"},
                "responseD": {"type": "string"},
                "correct": {"type": "string"},
                "remark": {"type": "string"}
            }
        },
        "models.QuestionView": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "question": {"type": "string"},
                "responseA": {"type": "string"},
                "responseB": {"type": "string"},
                "responseC": {"type": "string"},
                "responseD": {"type": "string"}
            }
        },
        "models.Answer": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "question": {"type": "string"},
                "correct": {"type": "string"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "OAuth2Password": {
            "type": "oauth2",
            "flow": "password",
            "tokenUrl": "/token"
        }
    }
}`

// SwaggerInfo содержит экспортируемую информацию Swagger, которую можно изменить при старте.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "QCM API",
	Description:      "API генерации QCM и управления пользователями",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
