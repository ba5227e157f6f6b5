package controller

import (
	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/pkg/serverutils"
	"contact-assistant-be/pkg/crm"

	"github.com/gofiber/fiber/v2"
)

type ICrmController interface {
	RegisterRoutes(r fiber.Router)
	Fields(ctx *fiber.Ctx) error
}

// crmController exposes the configured providers and their field tables so
// clients know which keys a mention's crm_data may carry.
type crmController struct {
	providers []string
	tables    crm.FieldTables
	auth      fiber.Handler
}

func NewCrmController(providers []string, tables crm.FieldTables, auth fiber.Handler) ICrmController {
	return &crmController{providers: providers, tables: tables, auth: auth}
}

func (c *crmController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/crm/v1")
	h.Use(c.auth)
	h.Get("/fields", c.Fields)
}

func (c *crmController) Fields(ctx *fiber.Ctx) error {
	res := make([]dto.CrmProviderFieldsResponse, 0, len(c.providers))
	for _, provider := range c.providers {
		table, ok := c.tables.For(provider)
		if !ok {
			continue
		}
		fields := make([]dto.CrmFieldDTO, 0, len(table))
		for _, f := range table {
			fields = append(fields, dto.CrmFieldDTO{Name: f.Name, Label: f.Label, APIName: f.APIName})
		}
		res = append(res, dto.CrmProviderFieldsResponse{Provider: provider, Fields: fields})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get CRM fields", res))
}
