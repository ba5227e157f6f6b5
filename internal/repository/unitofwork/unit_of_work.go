package unitofwork

import (
	"context"

	"contact-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ContactRepository() contract.ContactRepository
	MeetingRepository() contract.MeetingRepository
	ThreadRepository() contract.ThreadRepository
	MessageRepository() contract.MessageRepository
	CrmCredentialRepository() contract.CrmCredentialRepository
}
