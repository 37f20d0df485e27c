package middleware

import (
	"encoding/json"
	"errors"
)

// ErrNoOwner is returned by verifiers for tokens that name no caller.
var ErrNoOwner = errors.New("token carries no subject")

// Principal is implemented by tokens whose verifier already resolved the owner.
type Principal interface {
	Owner() string
}

// Identity is a verified token reduced to what the service needs: the owner id
// recorded on documents and the raw claims.
type Identity struct {
	owner  string
	claims map[string]interface{}
}

// NewIdentity resolves the owner from claims and fails with ErrNoOwner when
// none of sub, user_id or admin.id is present.
func NewIdentity(claims map[string]interface{}) (*Identity, error) {
	owner := OwnerFromClaims(claims)
	if owner == "" {
		return nil, ErrNoOwner
	}
	return &Identity{owner: owner, claims: claims}, nil
}

func (i *Identity) Owner() string { return i.owner }

// Claims copies the claims into v, which is usually a *map[string]interface{}.
func (i *Identity) Claims(v interface{}) error {
	if m, ok := v.(*map[string]interface{}); ok {
		out := make(map[string]interface{}, len(i.claims))
		for k, val := range i.claims {
			out[k] = val
		}
		*m = out
		return nil
	}
	b, err := json.Marshal(i.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
