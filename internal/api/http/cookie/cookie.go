// Package cookie owns the refresh-token cookie contract: HTTP-only,
// root-path scoped, secure in production, 7-day max age by default.
package cookie

import "net/http"

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "jwt"

// Options defines how the refresh cookie is issued.
type Options struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

const defaultMaxAge = 7 * 24 * 60 * 60

func (o Options) normalize() Options {
	if o.MaxAge <= 0 {
		o.MaxAge = defaultMaxAge
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// SetRefresh issues the refresh cookie to the client.
func SetRefresh(w http.ResponseWriter, token string, opts Options) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearRefresh removes the refresh cookie from the client.
func ClearRefresh(w http.ResponseWriter, opts Options) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ParseSameSite maps a config string to the http.SameSite mode, defaulting
// to Lax.
func ParseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
