// file: model/token.go

package model

// TokenPair is returned by the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessToken is returned by the refresh endpoint.
type AccessToken struct {
	Access string `json:"access"`
}
