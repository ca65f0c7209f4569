package auth

import (
	"github.com/go-jose/go-jose/v4"
)

// JWKS renders every verification key as a JSON Web Key Set. Private
// material never appears in the output.
func (ks *KeySet) JWKS() jose.JSONWebKeySet {
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(ks.ordered))}
	for _, k := range ks.ordered {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       k.key,
			KeyID:     k.kid,
			Algorithm: string(jose.RS256),
			Use:       "sig",
		})
	}
	return set
}
