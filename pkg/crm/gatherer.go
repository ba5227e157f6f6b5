package crm

import (
	"context"
	"strings"

	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/unitofwork"
	"contact-assistant-be/pkg/metrics"

	"github.com/google/uuid"
)

const logModule = "CRM"

// Gatherer looks a contact up in each configured provider in priority
// order. The first non-empty record wins; errors, missing credentials
// and empty results fall through to the next provider.
type Gatherer struct {
	factory   unitofwork.RepositoryFactory
	providers []Provider
	logger    logger.ILogger
}

func NewGatherer(factory unitofwork.RepositoryFactory, log logger.ILogger, providers ...Provider) *Gatherer {
	return &Gatherer{
		factory:   factory,
		providers: providers,
		logger:    log,
	}
}

func (g *Gatherer) Providers() []string {
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return names
}

// Gather returns nil when no provider has data for the email.
func (g *Gatherer) Gather(ctx context.Context, userId uuid.UUID, email string) *Snapshot {
	email = strings.TrimSpace(email)
	if email == "" || len(g.providers) == 0 {
		return nil
	}

	uow := g.factory.NewUnitOfWork(ctx)
	credentials := uow.CrmCredentialRepository()

	for _, provider := range g.providers {
		if ctx.Err() != nil {
			return nil
		}
		name := provider.Name()

		credential, err := credentials.FindByUserAndProvider(ctx, userId, name)
		if err != nil {
			metrics.RecordCRMLookup(name, "error")
			g.logger.Warn(logModule, "Failed to load CRM credential", map[string]interface{}{
				"user_id":  userId.String(),
				"provider": name,
				"error":    err.Error(),
			})
			continue
		}
		if credential == nil {
			metrics.RecordCRMLookup(name, "no_credential")
			continue
		}

		records, err := provider.SearchContacts(ctx, credential, email)
		if err != nil {
			metrics.RecordCRMLookup(name, "error")
			g.logger.Warn(logModule, "CRM provider lookup failed", map[string]interface{}{
				"user_id":  userId.String(),
				"provider": name,
				"error":    err.Error(),
			})
			continue
		}
		if len(records) == 0 {
			metrics.RecordCRMLookup(name, "empty")
			continue
		}

		snapshot := NormalizeRecord(name, records[0])
		if snapshot == nil {
			metrics.RecordCRMLookup(name, "empty")
			continue
		}

		metrics.RecordCRMLookup(name, "hit")
		return snapshot
	}
	return nil
}
