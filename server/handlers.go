package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/lexicon"
	"github.com/vantage-modeller/vantage/report"
	"github.com/vantage-modeller/vantage/wizard"
)

// createSession handles POST /api/v1/wizard
func (s *Server) createSession(c *gin.Context) {
	id := s.open(c)
	ctrl, _ := s.lookup(id)
	c.JSON(http.StatusCreated, SessionResponse{ID: id, State: ctrl.State()})
}

// getSession handles GET /api/v1/wizard/:id
func (s *Server) getSession(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{ID: c.Param("id"), State: ctrl.State()})
}

// deleteSession handles DELETE /api/v1/wizard/:id
func (s *Server) deleteSession(c *gin.Context) {
	if !s.remove(c.Param("id")) {
		abort(c, http.StatusNotFound, CodeNotFound, "no such wizard session")
		return
	}
	c.Status(http.StatusNoContent)
}

// selectMode handles POST /api/v1/wizard/:id/mode
func (s *Server) selectMode(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req ModeRequest
	if !bind(c, &req) {
		return
	}
	m, err := wizard.ParseMode(req.Mode)
	if err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	respond(c)(ctrl.SelectMode(m))
}

// selectAsset handles POST /api/v1/wizard/:id/asset
func (s *Server) selectAsset(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req AssetRequest
	if !bind(c, &req) {
		return
	}
	if len(req.Holdings) > 0 {
		respond(c)(ctrl.SelectPortfolio(req.Holdings))
		return
	}
	respond(c)(ctrl.SelectTicker(req.Ticker))
}

// uploadFile handles POST /api/v1/wizard/:id/upload (multipart field "file")
func (s *Server) uploadFile(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	defer func() { _ = f.Close() }()
	respond(c)(ctrl.UploadFile(context.WithoutCancel(c.Request.Context()), filepath.Base(fh.Filename), f))
}

// listColumns handles GET /api/v1/wizard/:id/columns
func (s *Server) listColumns(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	cols, err := ctrl.Columns(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ColumnsResponse{Columns: cols})
}

// selectColumn handles POST /api/v1/wizard/:id/column
func (s *Server) selectColumn(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var req ColumnRequest
	if !bind(c, &req) {
		return
	}
	respond(c)(ctrl.SelectColumn(req.Column))
}

// submitParams handles POST /api/v1/wizard/:id/params. A backend failure
// other than 401 is not an HTTP error: the session stays on setParams with
// the message in state.error. The run outlives the request: a client that
// goes away still finds the outcome on the session.
func (s *Server) submitParams(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	var p wizard.Params
	if !bind(c, &p) {
		return
	}
	st, err := ctrl.Submit(context.WithoutCancel(c.Request.Context()), p)
	var apiErr *client.APIError
	var resErr *client.ResultError
	if err != nil && !client.IsUnauthorized(err) && (errors.As(err, &apiErr) || errors.As(err, &resErr)) {
		err = nil
	}
	respond(c)(st, err)
}

// back handles POST /api/v1/wizard/:id/back
func (s *Server) back(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	respond(c)(ctrl.Back())
}

// restart handles POST /api/v1/wizard/:id/restart
func (s *Server) restart(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	respond(c)(ctrl.Restart())
}

// getReport handles GET /api/v1/wizard/:id/report?format=json|text|pdf
func (s *Server) getReport(c *gin.Context) {
	ctrl, ok := s.controller(c)
	if !ok {
		return
	}
	doc, err := ctrl.Report(s.opts.Report)
	if err != nil {
		abort(c, http.StatusConflict, CodeInvalidTransition, err.Error())
		return
	}
	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, doc)
	case "text":
		var buf bytes.Buffer
		if err := report.WriteText(&buf, doc); err != nil {
			abort(c, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	case "pdf":
		var buf bytes.Buffer
		if err := report.WritePDF(&buf, doc); err != nil {
			abort(c, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		c.Header("Content-Disposition", `attachment; filename="Vantage_Report.pdf"`)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	default:
		abort(c, http.StatusBadRequest, CodeInvalidRequest, "format must be json, text or pdf")
	}
}

// listLexicon handles GET /api/v1/lexicon?q=
func (s *Server) listLexicon(c *gin.Context) {
	c.JSON(http.StatusOK, LexiconResponse{
		Catalog: s.catalog.Filter(c.Query("q")),
		Hints:   lexicon.Hints(),
	})
}

// sizeTurtle handles POST /api/v1/turtle
func (s *Server) sizeTurtle(c *gin.Context) {
	var in report.TurtleInput
	if !bind(c, &in) {
		return
	}
	plan, err := report.Turtle(in)
	if err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) controller(c *gin.Context) (*wizard.Controller, bool) {
	ctrl, ok := s.lookup(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, CodeNotFound, "no such wizard session")
	}
	return ctrl, ok
}

// respond writes the state after a controller call, mapping err to a status.
func respond(c *gin.Context) func(wizard.State, error) {
	return func(st wizard.State, err error) {
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, SessionResponse{ID: c.Param("id"), State: st})
	}
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	var apiErr *client.APIError
	var resErr *client.ResultError
	switch {
	case client.IsUnauthorized(err):
		abort(c, http.StatusUnauthorized, CodeUnauthorized, client.UserMessage(err))
	case errors.Is(err, wizard.ErrBusy):
		abort(c, http.StatusConflict, CodeBusy, err.Error())
	case errors.Is(err, wizard.ErrInvalidTransition):
		abort(c, http.StatusConflict, CodeInvalidTransition, err.Error())
	case errors.As(err, &apiErr), errors.As(err, &resErr):
		abort(c, http.StatusBadGateway, CodeBackend, client.UserMessage(err))
	default:
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}
