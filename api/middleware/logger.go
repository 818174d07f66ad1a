package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/pet-marketplace/api/web"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger records every request once it completes. Server errors are logged
// at error level, rejected requests at warn. Health probes only show up at
// debug level.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()
			lw := mutil.WrapWriter(w)

			err := handler(ctx, lw, r)

			entry := log.WithFields(logrus.Fields{
				"req_id":     ContextRequestID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
				"user_agent": r.UserAgent(),
				"statuscode": lw.Status(),
				"bytes":      lw.BytesWritten(),
				"took":       time.Since(start).String(),
			})

			switch status := lw.Status(); {
			case status >= http.StatusInternalServerError:
				entry.Error("request failed")
			case status >= http.StatusBadRequest:
				entry.Warn("request rejected")
			case r.URL.Path == "/health":
				entry.Debug("request completed")
			default:
				entry.Info("request completed")
			}
			return err
		}
		return h
	}
	return m
}
