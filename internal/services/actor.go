package services

import (
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   utils.SixID
	Role models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanManage reports whether the actor owns the resource or is an admin.
func (a Actor) CanManage(ownerID utils.SixID) bool {
	return a.IsAdmin() || a.ID == ownerID
}
