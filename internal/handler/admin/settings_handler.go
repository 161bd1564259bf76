package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/helpcenter-backend/internal/common/handler"
	adminService "github.com/dumeirei/helpcenter-backend/internal/service/admin"
	"github.com/dumeirei/helpcenter-backend/internal/service/returnform"
)

// SettingsHandler 站点设置与退货表单配置
type SettingsHandler struct {
	settings *adminService.SettingsService
	forms    *returnform.Service
}

// NewSettingsHandler 创建设置处理器
func NewSettingsHandler(settings *adminService.SettingsService, forms *returnform.Service) *SettingsHandler {
	return &SettingsHandler{settings: settings, forms: forms}
}

// GetSettings 站点设置
// @Summary 获取站点设置
// @Tags 后台设置
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.SiteSettings}
// @Router /api/admin/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Current(c.Request.Context())
	handler.MustSucceed(c, err, settings)
}

// UpdateSettings 更新站点设置
// @Summary 更新站点设置
// @Tags 后台设置
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body adminService.SettingsUpdateRequest true "设置"
// @Success 200 {object} response.Response{data=models.SiteSettings}
// @Router /api/admin/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req adminService.SettingsUpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), &req)
	handler.MustSucceed(c, err, settings)
}

// GetReturnForm 退货表单配置
// @Summary 获取退货表单配置
// @Tags 后台设置
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.ReturnFormConfig}
// @Router /api/admin/return-form-config [get]
func (h *SettingsHandler) GetReturnForm(c *gin.Context) {
	cfg, err := h.forms.Get(c.Request.Context())
	handler.MustSucceed(c, err, cfg)
}

// UpdateReturnForm 全量替换退货表单配置
// @Summary 更新退货表单配置
// @Tags 后台设置
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body returnform.UpdateRequest true "表单配置"
// @Success 200 {object} response.Response{data=models.ReturnFormConfig}
// @Router /api/admin/return-form-config [put]
func (h *SettingsHandler) UpdateReturnForm(c *gin.Context) {
	var req returnform.UpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	cfg, err := h.forms.Update(c.Request.Context(), &req)
	handler.MustSucceed(c, err, cfg)
}

// RegisterRoutes 注册路由
func (h *SettingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.GET("/return-form-config", h.GetReturnForm)
	r.PUT("/return-form-config", h.UpdateReturnForm)
}
