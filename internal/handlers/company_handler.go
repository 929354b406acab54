package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/apiclient"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/logo"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/session"
)

type CompanyHandler struct {
	api      *apiclient.CompanyService
	store    *session.Store
	uploader *logo.Uploader
	log      *zap.Logger
}

func NewCompanyHandler(api *apiclient.Client, store *session.Store, uploader *logo.Uploader, log *zap.Logger) *CompanyHandler {
	return &CompanyHandler{api: api.Company(), store: store, uploader: uploader, log: log}
}

// --------- Requests ---------

type UpdateCompanyRequest struct {
	Name  *string `json:"nome_empresa" binding:"omitempty,min=2,max=120"`
	Niche *string `json:"nicho" binding:"omitempty,max=60"`
	Phone *string `json:"telefone" binding:"omitempty,max=20"`
}

// --------- Handlers ---------

func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.api.Me(c.Request.Context())
	if err != nil {
		httperr.FromError(c, err, "Erro ao carregar empresa")
		return
	}
	h.cache(c, company)
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Update(c *gin.Context) {
	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	company, err := h.api.Update(c.Request.Context(), models.CompanyUpdate{
		Name:  req.Name,
		Niche: req.Niche,
		Phone: req.Phone,
	})
	if err != nil {
		httperr.FromError(c, err, "Erro ao atualizar empresa")
		return
	}
	h.cache(c, company)
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) UploadLogo(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		httperr.BadRequest(c, "file_required", "Envie a imagem no campo file.")
		return
	}
	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "file_unreadable", "Não foi possível ler o arquivo.")
		return
	}

	logoURL, err := h.uploader.Upload(c.Request.Context(), logo.ReaderSource{Name: fh.Filename, Reader: f})
	if err != nil {
		if httperr.IsBusiness(err, "logo_invalid_type") || httperr.IsBusiness(err, "logo_too_large") || httperr.IsBusiness(err, "logo_unreadable") {
			httperr.BadRequest(c, "invalid_logo", httperr.Message(err, "Imagem inválida."))
			return
		}
		httperr.FromError(c, err, "Erro ao enviar logo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo_url": logoURL})
}

// o retorno da API substitui a empresa em cache; falha aqui não derruba a resposta
func (h *CompanyHandler) cache(c *gin.Context, company *models.Company) {
	if company == nil || company.ID == 0 {
		return
	}
	if err := h.store.UpdateCompany(c.Request.Context(), company); err != nil {
		h.log.Warn("failed to cache company", zap.Error(err))
	}
}
