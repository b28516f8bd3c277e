package auth

import "net/url"

// LinkBuilder turns token secrets into the URLs embedded in emails. The base
// URL comes from configuration; it is never guessed from the runtime
// environment.
type LinkBuilder struct {
	BaseURL string
}

func (l LinkBuilder) VerificationLink(secret string) string {
	return l.link("verify", secret)
}

func (l LinkBuilder) ResetLink(secret string) string {
	return l.link("reset", secret)
}

func (l LinkBuilder) link(param, secret string) string {
	q := url.Values{}
	q.Set(param, secret)
	return l.BaseURL + "?" + q.Encode()
}
