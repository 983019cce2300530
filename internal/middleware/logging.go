package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/traintrack/traintrack/pkg"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if log.IsLevelEnabled(log.TraceLevel) {
				reqIp, _ := pkg.ReadUserIP(r)
				log.Tracef(
					" ====> request [%s] path: [%s] [UA: %s] [IP: %s]",
					r.Method, r.URL.Path, r.Header.Get("User-Agent"), reqIp,
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
