package service

import (
	"context"

	"approvalCPT/internal/models"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/repository"
)

// scopeClientIDs переводит актора в область видимости клиентов:
// nil - без ограничения (супер-админ), срез id - только эти клиенты.
func scopeClientIDs(ctx context.Context, clientRepo repository.ClientRepository, actor policy.Actor) ([]string, error) {
	switch {
	case actor.IsSuperAdmin():
		return nil, nil
	case actor.Role == models.RoleAdmin:
		ids, err := clientRepo.ClientIDsForAdmin(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		return ids, nil
	case actor.IsClient():
		return []string{actor.UserID}, nil
	default:
		return nil, models.ErrUnauthorized
	}
}
