// Package policy - единая точка принятия решений о доступе.
// Все проверки "кто и над чем может действовать" живут здесь,
// а не размазаны по хендлерам.
package policy

import (
	"approvalCPT/internal/models"
)

// Actor - аутентифицированный пользователь из JWT-клеймов.
// Внутри запроса его данным доверяем безоговорочно.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == models.RoleSuperAdmin
}

func (a Actor) IsAdminLike() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}

func (a Actor) IsClient() bool {
	return a.Role == models.RoleClient
}

// CanManageClient: супер-админ управляет любым клиентом, админ - только
// клиентами из своего списка назначений.
func CanManageClient(actor Actor, assignedAdminIDs []string) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	if actor.Role != models.RoleAdmin {
		return false
	}
	for _, id := range assignedAdminIDs {
		if id == actor.UserID {
			return true
		}
	}
	return false
}

// CheckManagePost проверяет право админа действовать над постом через
// привязку к клиенту поста.
func CheckManagePost(actor Actor, assignedAdminIDs []string) error {
	if !CanManageClient(actor, assignedAdminIDs) {
		return models.ErrUnauthorized
	}
	return nil
}

// CheckReviewPost: одобрять, отклонять и оценивать пост может только клиент,
// которому этот пост назначен.
func CheckReviewPost(actor Actor, assignedClientID string) error {
	if !actor.IsClient() || actor.UserID != assignedClientID {
		return models.ErrUnauthorized
	}
	return nil
}

// CheckAssignAdmins: менять назначения админов может только супер-админ.
func CheckAssignAdmins(actor Actor) error {
	if !actor.IsSuperAdmin() {
		return models.ErrUnauthorized
	}
	return nil
}
