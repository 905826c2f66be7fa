// internal/handlers/upload.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

var uploadFolders = map[string]bool{
	"products":   true,
	"avatars":    true,
	"vendors":    true,
	"categories": true,
	"reviews":    true,
}

type UploadHandler struct {
	storageService *services.StorageService
}

func NewUploadHandler(storageService *services.StorageService) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
	}
}

// uploadFolder reads the target folder, defaulting to products.
func uploadFolder(c *gin.Context) (string, bool) {
	folder := c.DefaultPostForm("folder", "products")
	if !uploadFolders[folder] {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "folder"), nil)
		return "", false
	}
	return folder, true
}

func respondUploadError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrFileTooLarge):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooLarge), err.Error())
	case errors.Is(err, services.ErrFileType):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), err.Error())
	case errors.Is(err, services.ErrTooManyFiles):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooMany, services.MaxImagesPerUpload), nil)
	default:
		respondError(c, err)
	}
}

// POST /upload/image
func (h *UploadHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if _, ok := currentUserID(c); !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), nil)
		return
	}
	folder, ok := uploadFolder(c)
	if !ok {
		return
	}

	image, err := h.storageService.UploadImage(c.Request.Context(), header, folder)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyFileUploadSuccess), image)
}

// POST /upload/images
func (h *UploadHandler) UploadImages(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if _, ok := currentUserID(c); !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), nil)
		return
	}
	folder, ok := uploadFolder(c)
	if !ok {
		return
	}

	images, err := h.storageService.UploadImages(c.Request.Context(), form.File["images"], folder)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.T(lang, i18n.KeyFileUploadSuccess), images)
}
