package trackapiserver

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
)

/* Common */
type HttpErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	ErrorText      string `json:"error"`
}

func (e *HttpErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func (s *TrackApiServer) httpErrUnauthorized(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnauthorized,
		ErrorText:      "Unauthorized",
	}
}

func (s *TrackApiServer) httpErrUnexpected(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		ErrorText:      "Internal Server Error",
	}
}

func (s *TrackApiServer) httpErrInvalidRequest(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		ErrorText:      err.Error(),
	}
}

func (s *TrackApiServer) httpErrNotFound(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		ErrorText:      "Not Found",
	}
}

func (s *TrackApiServer) httpErrConflict(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusConflict,
		ErrorText:      err.Error(),
	}
}

func (s *TrackApiServer) httpErrTooManyRequests(err error) render.Renderer {
	return &HttpErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusTooManyRequests,
		ErrorText:      "Too Many Requests",
	}
}

func getCtxValueString(ctx context.Context, key string) string {
	ret := ctx.Value(key)
	if ret == nil {
		return ""
	}

	return ret.(string)
}
