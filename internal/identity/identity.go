// Package identity reads the caller's identity from verified JWT claims.
package identity

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleLawyer = "lawyer"
	RoleClient = "client"
)

var ErrNoIdentity = errors.New("no identity in context")

// Identity is the authenticated caller. It is used as author, responder or
// voter reference and must never be echoed in a response body.
type Identity struct {
	ID              uuid.UUID
	Role            string
	Specializations []string
}

func (i Identity) IsLawyer() bool { return i.Role == RoleLawyer }

// FromContext extracts the identity placed in Locals("user") by the JWT
// middleware.
func FromContext(c *fiber.Ctx) (Identity, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return Identity{}, ErrNoIdentity
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}
	return FromClaims(claims)
}

// FromClaims parses sub, role and specialization. Unknown roles are treated
// as client.
func FromClaims(claims jwt.MapClaims) (Identity, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return Identity{}, errors.New("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, err
	}

	role, _ := claims["role"].(string)
	role = strings.ToLower(strings.TrimSpace(role))
	if role != RoleLawyer {
		role = RoleClient
	}

	ident := Identity{ID: id, Role: role}
	if role == RoleLawyer {
		ident.Specializations = specializations(claims["specialization"])
	}
	return ident, nil
}

func specializations(v interface{}) []string {
	var raw []string
	switch s := v.(type) {
	case string:
		raw = strings.Split(s, ",")
	case []interface{}:
		for _, item := range s {
			if str, ok := item.(string); ok {
				raw = append(raw, str)
			}
		}
	case []string:
		raw = s
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
