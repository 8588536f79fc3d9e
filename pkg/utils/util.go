package utils

import (
	"net/http"
	"net/http/httputil"

	"github.com/rs/zerolog/log"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}

// DebugRoundTripper logs every request and response at debug level. Bearer
// tokens are masked.
func DebugRoundTripper() http.RoundTripper {
	return DebugRoundTripperWithUnderlying(http.DefaultTransport)
}

func DebugRoundTripperWithUnderlying(u http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		masked := r.Clone(r.Context())
		if masked.Header.Get("Authorization") != "" {
			masked.Header.Set("Authorization", "Bearer ***")
		}
		d, _ := httputil.DumpRequestOut(masked, false)
		log.Debug().Str("request", string(d)).Msg("upstream request")

		res, err := u.RoundTrip(r)
		if err != nil {
			log.Debug().Err(err).Str("url", r.URL.String()).Msg("upstream transport error")
			return res, err
		}
		d, _ = httputil.DumpResponse(res, true)
		log.Debug().Str("response", string(d)).Msg("upstream response")
		return res, nil
	})
}
