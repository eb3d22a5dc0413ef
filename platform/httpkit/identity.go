package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller authenticated by AuthRequired. Map ownership is
// keyed on UserID.
type Identity interface {
	UserID() uuid.UUID
}

type userIdentity uuid.UUID

func (u userIdentity) UserID() uuid.UUID {
	return uuid.UUID(u)
}

// UserIDFrom returns the authenticated user ID stored by AuthRequired.
func UserIDFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// MustGetIdentity returns the caller, or aborts with 401 and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id, ok := UserIDFrom(c)
	if !ok {
		abortUnauthorized(c, errUnauthorized)
		return nil
	}
	return userIdentity(id)
}
