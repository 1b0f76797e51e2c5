package handler

import (
	"net/http"
	"strings"

	appErrors "github.com/unclebandit/jetmatch-backend/internal/errors"
	"github.com/unclebandit/jetmatch-backend/internal/service"
)

// Actor identity is set by the gateway in front of this service.
const (
	HeaderActorRole  = "X-Actor-Role"
	HeaderActorID    = "X-Actor-ID"
	HeaderActorName  = "X-Actor-Name"
	HeaderActorEmail = "X-Actor-Email"
)

// ActorFromRequest reads the caller identity headers.
func ActorFromRequest(r *http.Request) (service.Actor, error) {
	actor := service.Actor{
		Role:  service.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole)))),
		ID:    strings.TrimSpace(r.Header.Get(HeaderActorID)),
		Name:  strings.TrimSpace(r.Header.Get(HeaderActorName)),
		Email: strings.TrimSpace(r.Header.Get(HeaderActorEmail)),
	}
	switch actor.Role {
	case service.RoleAdmin, service.RoleBusiness, service.RoleInfluencer:
		return actor, nil
	case "":
		return actor, appErrors.NewValidation("read actor", "%s header is required", HeaderActorRole)
	default:
		return actor, appErrors.NewValidation("read actor", "unknown role %q", actor.Role)
	}
}
