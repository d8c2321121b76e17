package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/pixel-service-api/internal/handler/dto"
	"github.com/makkenzo/pixel-service-api/internal/ierr"
	"github.com/makkenzo/pixel-service-api/internal/metrics"
	"github.com/makkenzo/pixel-service-api/internal/service"
	"go.uber.org/zap"
)

type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.Named("ReportHandler"),
	}
}

func (h *ReportHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid report query", zap.String("pixel_id", id), zap.Error(err))
		_ = c.Error(err)
		return
	}

	report, err := h.service.BuildReport(c.Request.Context(), id, query.Token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	switch query.Format {
	case dto.ReportFormatCSV:
		data, err := dto.EventsCSV(report.Events)
		if err != nil {
			h.logger.Error("Failed to render events CSV", zap.String("pixel_id", id), zap.Error(err))
			_ = c.Error(fmt.Errorf("%w: csv rendering failed: %v", ierr.ErrInternalServer, err))
			return
		}
		metrics.ReportsServed.WithLabelValues(dto.ReportFormatCSV).Inc()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "pixel-"+id+"-events.csv"))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	default:
		metrics.ReportsServed.WithLabelValues(dto.ReportFormatJSON).Inc()
		c.JSON(http.StatusOK, dto.NewPixelReportResponse(report.Meta, report.Events))
	}
}
