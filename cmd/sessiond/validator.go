package main

import (
	"context"
	"errors"
	"fmt"

	sessiongate "github.com/sessiongate-io/sessiongate"
	"github.com/sessiongate-io/sessiongate/password"
)

var errUnknownUser = errors.New("unknown user")

// staticValidator validates credentials against the configured user table.
// Intended for small deployments and integration environments; production
// setups plug their directory service into the same interface.
type staticValidator struct {
	hasher *password.Hasher
	users  map[string]userEntry
}

func newStaticValidator(entries []userEntry) (*staticValidator, error) {
	hasher, err := password.NewHasher(password.DefaultParams())
	if err != nil {
		return nil, err
	}

	users := make(map[string]userEntry, len(entries))
	for _, e := range entries {
		if e.Login == "" || e.Password == "" {
			return nil, fmt.Errorf("user entry needs login and password hash: %+v", e.Login)
		}
		users[e.Login] = e
	}

	return &staticValidator{hasher: hasher, users: users}, nil
}

func (v *staticValidator) Validate(_ context.Context, creds sessiongate.Credentials) (*sessiongate.Identity, error) {
	entry, ok := v.users[creds.Login]
	if !ok {
		// Burn comparable time on unknown logins so the response time
		// does not reveal which logins exist.
		_, _ = v.hasher.Verify(creds.Password, mustDummyHash)
		return nil, errUnknownUser
	}

	match, err := v.hasher.Verify(creds.Password, entry.Password)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, errors.New("wrong password")
	}

	return &sessiongate.Identity{
		ContextID: entry.ContextID,
		UserID:    entry.UserID,
		LoginName: entry.Login,
	}, nil
}

// mustDummyHash is a throwaway argon2id hash of a random value, used only to
// equalize verification timing for unknown logins.
const mustDummyHash = "$argon2id$v=19$m=65536,t=1,p=4$" +
	"c2Vzc2lvbmdhdGVkdW1teXNhbHQ$" +
	"K5K0q5w1d3o0m3V2b3J0aW1pbmdlcXVhbGl6ZXJoYXNo"
