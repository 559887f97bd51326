// Package root содержит обработчики корневого пути сервисов.
package root

import (
	"net/http"

	"github.com/go-chi/render"
)

// DocsRedirect перенаправляет на Swagger UI.
func DocsRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/docs/index.html", http.StatusTemporaryRedirect)
}

// Hello отвечает приветствием варианта с HTTP Basic.
func Hello(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"Hello": "World"})
}
