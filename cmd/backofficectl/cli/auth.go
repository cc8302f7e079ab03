package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Login authenticates and persists the token for later commands.
func (r *Runner) Login(ctx context.Context, email, password string) int {
	if strings.TrimSpace(email) == "" || password == "" {
		return r.usage("login", "--email and a password are required")
	}
	res, err := r.Client.Login(ctx, email, password)
	if err != nil {
		return r.fail("login", err)
	}
	p := r.Client.Session().Principal()
	_, _ = fmt.Fprintf(r.stdout(), "signed in as %s (%s), token valid until %s\n",
		p.Email, strings.Join(p.Roles, ","), res.ExpiresAt.UTC().Format(time.RFC3339))
	return 0
}

// WhoAmI prints the identity the server resolves for the stored token.
func (r *Runner) WhoAmI(ctx context.Context) int {
	if !r.Client.Session().Authenticated() {
		return r.usage("whoami", "not signed in")
	}
	me, err := r.Client.Me(ctx)
	if err != nil {
		return r.fail("whoami", err)
	}
	admin := ""
	if me.IsAdmin {
		admin = " [admin]"
	}
	_, _ = fmt.Fprintf(r.stdout(), "%s <%s> roles=%s%s\n", orDash(me.Name), me.Email, strings.Join(me.Roles, ","), admin)
	return 0
}

// Logout forgets the stored token.
func (r *Runner) Logout() int {
	r.Client.Logout()
	_, _ = fmt.Fprintln(r.stdout(), "signed out")
	return 0
}
