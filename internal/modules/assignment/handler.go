package assignment

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/scribe/internal/models"
	"github.com/mx-space/scribe/internal/modules/export"
	"github.com/mx-space/scribe/internal/pkg/response"
	"go.uber.org/zap"
)

type GenerateDTO struct {
	Topic string `json:"topic"`
}

type EditedSectionDTO struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DownloadEditedDTO struct {
	Format       string             `json:"format"`
	Title        string             `json:"title"`
	Introduction string             `json:"introduction"`
	Conclusion   string             `json:"conclusion"`
	Date         string             `json:"date"`
	Sections     []EditedSectionDTO `json:"sections"`
}

func (d *DownloadEditedDTO) toEdit() Edit {
	sections := make([]models.Section, 0, len(d.Sections))
	for _, s := range d.Sections {
		sections = append(sections, models.Section{Title: s.Title, Content: s.Content})
	}
	return Edit{
		Title:        d.Title,
		Introduction: d.Introduction,
		Conclusion:   d.Conclusion,
		Date:         d.Date,
		Sections:     sections,
	}
}

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the assignment endpoints. generateMW guards only the
// expensive generation route.
func (h *Handler) RegisterRoutes(r gin.IRouter, generateMW ...gin.HandlerFunc) {
	r.POST("/generate", append(generateMW, h.generate)...)
	r.GET("/download/:format", h.download)
	r.POST("/download-edited", h.downloadEdited)
	r.GET("/get-current-assignment", h.current)
}

func (h *Handler) generate(c *gin.Context) {
	var dto GenerateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(dto.Topic) == "" {
		response.BadRequest(c, "Topic is required")
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), dto.Topic)
	if err != nil {
		h.logger.Error("generate assignment failed", zap.String("topic", dto.Topic), zap.Error(err))
		response.InternalError(c, err)
		return
	}
	response.OK(c, res.Assignment)
}

func (h *Handler) current(c *gin.Context) {
	a, err := h.svc.Current(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, a)
}

func (h *Handler) download(c *gin.Context) {
	f, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		response.BadRequest(c, "Unsupported format")
		return
	}
	file, err := h.svc.Download(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}

func (h *Handler) downloadEdited(c *gin.Context) {
	var dto DownloadEditedDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}
	f, err := export.ParseFormat(dto.Format)
	if err != nil {
		response.BadRequest(c, "Unsupported format")
		return
	}
	file, err := h.svc.DownloadEdited(c.Request.Context(), f, dto.toEdit())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, file.Body)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoAssignment):
		response.NotFoundMsg(c, "No assignment available")
	case errors.Is(err, export.ErrUnsupportedFormat):
		response.BadRequest(c, "Unsupported format")
	default:
		h.logger.Error("assignment request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.InternalError(c, err)
	}
}
