package ui

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"redevdash/internal"
	"redevdash/internal/errors"

	"github.com/gin-gonic/gin"
)

// writeError renders an error with the status its code maps to.
// Internal details are logged, never returned.
func (s *Server) writeError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errors.GetCode(err),
		"message": errors.PublicMessage(err),
	})
}

// serve runs srv until ctx is done, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server, logger *internal.Logger, name string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("[%s] listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("[%s] shutting down", name)
	return srv.Shutdown(shutdownCtx)
}
