package httpkit

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// Caller is whoever AuthRequired let through. Agent consoles do not carry a
// token, so on public routes Caller is the zero value.
type Caller struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the token granted role.
func (c Caller) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Authenticated reports whether a token was validated for this request.
func (c Caller) Authenticated() bool {
	return c.Subject != ""
}

// CallerFrom reads the caller AuthRequired stored on the context.
func CallerFrom(c *gin.Context) Caller {
	var caller Caller
	if subject, ok := c.Get(ContextSubjectKey); ok {
		caller.Subject, _ = subject.(string)
	}
	if roles, ok := c.Get(ContextRolesKey); ok {
		caller.Roles, _ = roles.([]string)
	}
	return caller
}
