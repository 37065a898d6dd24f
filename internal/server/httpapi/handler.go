package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/viewkeeper/internal/common"
	"github.com/labstack/echo/v4"
)

const (
	msgInvalidAction   = `Invalid action. Use "get" or "increment"`
	msgMissingSelector = "Missing postId or postTitle"
	msgNotFound        = "Post not found"
	msgInternal        = "Internal server error"
)

type viewsResponse struct {
	Views int64 `json:"views"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) selector(c echo.Context) (common.Selector, bool) {
	if id := c.QueryParam("postId"); id != "" {
		return common.ByID(id), true
	}
	if title := c.QueryParam("postTitle"); title != "" {
		return common.ByTitle(s.table, title), true
	}
	return common.Selector{}, false
}

// handleViews implements GET /api/views?action=get|increment&postId=..|postTitle=..
func (s *Server) handleViews(c echo.Context) error {
	ctx := c.Request().Context()

	action := c.QueryParam("action")
	if action != common.ActionGet && action != common.ActionIncrement {
		return c.JSON(http.StatusBadRequest, errorBody{Error: msgInvalidAction})
	}

	sel, ok := s.selector(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody{Error: msgMissingSelector})
	}

	var (
		views int64
		err   error
	)
	if action == common.ActionGet {
		views, err = s.counters.Get(ctx, sel)
	} else {
		views, err = s.counters.Increment(ctx, sel)
	}

	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return c.JSON(http.StatusNotFound, errorBody{Error: msgNotFound})
		case errors.Is(err, common.ErrorInvalidSelector):
			return c.JSON(http.StatusBadRequest, errorBody{Error: msgMissingSelector})
		}
		s.logger.Error(ctx, "counter error", "action", action, "selector", sel.String(), "err", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: msgInternal})
	}

	return c.JSON(http.StatusOK, viewsResponse{Views: views})
}
