package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/editor"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/render"
)

var editableKinds = map[string]bool{
	apiclient.KindClient:      true,
	apiclient.KindAppointment: true,
}

type EditorHandler struct {
	ed *editor.Editor
}

func NewEditorHandler(ed *editor.Editor) *EditorHandler {
	return &EditorHandler{ed: ed}
}

func parseTarget(c *gin.Context) (string, int64, bool) {
	kind := c.Param("kind")
	if !editableKinds[kind] {
		httperr.NotFound(c, "unknown_kind", "Tipo de registro desconhecido.")
		return "", 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httperr.BadRequest(c, "invalid_id", "ID inválido.")
		return "", 0, false
	}
	return kind, id, true
}

func (h *EditorHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, render.EditorForm(h.ed.Form()))
}

func (h *EditorHandler) Open(c *gin.Context) {
	kind, id, ok := parseTarget(c)
	if !ok {
		return
	}

	form, err := h.ed.Open(c.Request.Context(), kind, id)
	if err != nil {
		httperr.FromError(c, err, "Erro ao carregar registro")
		return
	}
	c.JSON(http.StatusOK, render.EditorForm(form))
}

func (h *EditorHandler) Submit(c *gin.Context) {
	kind, id, ok := parseTarget(c)
	if !ok {
		return
	}

	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	form, err := h.ed.Submit(c.Request.Context(), kind, id, values)
	if err != nil {
		if httperr.IsBusiness(err, "invalid_number") {
			c.JSON(http.StatusUnprocessableEntity, render.EditorForm(form))
			return
		}
		httperr.FromError(c, err, "Erro ao salvar registro")
		return
	}
	c.JSON(http.StatusOK, render.EditorForm(form))
}

func (h *EditorHandler) Close(c *gin.Context) {
	if err := h.ed.Close(); err != nil {
		httperr.FromError(c, err, "Nenhum registro aberto")
		return
	}
	c.Status(http.StatusNoContent)
}
