package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sessioncal/internal/calendar"
	"sessioncal/internal/ics"
	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
	"sessioncal/internal/nav"
	"sessioncal/internal/persist"
	"sessioncal/internal/printview"
)

// fail maps engine errors onto status codes. A persistence failure is a
// server error even though the change was applied in memory.
func fail(c *gin.Context, msg string, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, calendar.ErrPersist) {
		status = http.StatusInternalServerError
	}
	appLog.Warn(msg, "err", err.Error(), "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(status, NewError(msg, err))
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, NewError(what+" not found"))
}

// dateParam reads a YYYY-MM-DD query value, defaulting to today.
func (s *Server) dateParam(c *gin.Context, key string) (model.Date, bool) {
	raw := c.Query(key)
	if raw == "" {
		return s.engine.Today(), true
	}
	norm, err := model.NormalizeDate(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter '"+key+"' must be YYYY-MM-DD", err))
		return model.Date{}, false
	}
	return model.MustParseDate(norm), true
}

func (s *Server) listEvents(c *gin.Context) {
	if c.Query("date") == "" {
		c.JSON(http.StatusOK, s.engine.Events().All())
		return
	}
	d, ok := s.dateParam(c, "date")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.engine.Events().ByDate(d.String()))
}

func (s *Server) getEvent(c *gin.Context) {
	ev, ok := s.engine.Events().Get(c.Param("id"))
	if !ok {
		notFound(c, "event")
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (s *Server) submitEvents(c *gin.Context) {
	var draft model.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		fail(c, "failed to bind JSON", err)
		return
	}

	events, err := s.engine.Submit(draft)
	if err != nil {
		fail(c, "event submission failed", err)
		return
	}
	if draft.EditingID != "" {
		if len(events) == 0 {
			notFound(c, "event")
			return
		}
		c.JSON(http.StatusOK, events)
		return
	}
	c.JSON(http.StatusCreated, events)
}

func (s *Server) updateEvent(c *gin.Context) {
	var fields model.Event
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, "failed to bind JSON", err)
		return
	}

	id := c.Param("id")
	ok, err := s.engine.Update(id, fields)
	if err != nil {
		fail(c, "event update failed", err)
		return
	}
	if !ok {
		notFound(c, "event")
		return
	}
	ev, _ := s.engine.Events().Get(id)
	c.JSON(http.StatusOK, ev)
}

// deleteEvent treats the request itself as the user's confirmation.
func (s *Server) deleteEvent(c *gin.Context) {
	ok, err := s.engine.Delete(c.Param("id"), persist.AlwaysConfirm)
	if err != nil {
		fail(c, "event delete failed", err)
		return
	}
	if !ok {
		notFound(c, "event")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Templates().All())
}

type saveTemplateRequest struct {
	Name  string      `json:"name"`
	Draft model.Draft `json:"draft"`
}

func (s *Server) saveTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "failed to bind JSON", err)
		return
	}
	tpl, err := s.engine.SaveTemplate(req.Draft, req.Name)
	if err != nil {
		fail(c, "template save failed", err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (s *Server) applyTemplate(c *gin.Context) {
	var draft model.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		fail(c, "failed to bind JSON", err)
		return
	}
	out, ok := s.engine.ApplyTemplate(c.Param("id"), draft)
	if !ok {
		notFound(c, "template")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) monthView(c *gin.Context) {
	today := s.engine.Today()
	year, month := today.Year(), int(today.Month())

	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 || y > 9999 {
			c.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter 'year' is invalid", err))
			return
		}
		year = y
	}
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			c.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter 'month' must be 1-12", err))
			return
		}
		month = m
	}

	c.JSON(http.StatusOK, s.engine.Month(year, time.Month(month)))
}

func (s *Server) weekView(c *gin.Context) {
	d, ok := s.dateParam(c, "date")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.engine.Week(d))
}

func (s *Server) dayView(c *gin.Context) {
	d, ok := s.dateParam(c, "date")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.engine.Day(d))
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) exportJSON(c *gin.Context) {
	name, data, err := s.engine.Export()
	if err != nil {
		appLog.Error("export failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, NewError("export failed", err))
		return
	}
	attachment(c, name, "application/json; charset=utf-8", data)
}

func (s *Server) exportICS(c *gin.Context) {
	now := time.Now()
	var buf bytes.Buffer
	if err := ics.Encode(&buf, s.engine.Events().All(), now); err != nil {
		appLog.Error("ics export failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, NewError("ics export failed", err))
		return
	}
	attachment(c, ics.FileName(now), "text/calendar; charset=utf-8", buf.Bytes())
}

type importResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// importEvents replaces the calendar with the uploaded file. Without
// confirm=true nothing changes and the response is 409 with the count the
// file would import. iCalendar bodies are recognized by Content-Type
// text/calendar or format=ics.
func (s *Server) importEvents(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxUpload+1))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewError("failed to read request body", err))
		return
	}
	if len(body) > MaxUpload {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
			NewError("import file exceeds "+strconv.Itoa(MaxUpload>>20)+" MiB"))
		return
	}

	confirm := persist.NeverConfirm
	if ok, _ := strconv.ParseBool(c.Query("confirm")); ok {
		confirm = persist.AlwaysConfirm
	}

	var n int
	if c.Query("format") == "ics" || strings.HasPrefix(c.ContentType(), "text/calendar") {
		events, decErr := ics.Decode(bytes.NewReader(body))
		if decErr != nil {
			fail(c, "error importing calendar", decErr)
			return
		}
		n, err = s.engine.Replace(ctx, events, confirm)
	} else {
		n, err = s.engine.Import(ctx, bytes.NewReader(body), confirm)
	}

	switch {
	case errors.Is(err, persist.ErrImportDeclined):
		c.JSON(http.StatusConflict, importResponse{Message: persist.ImportPrompt(n), Count: n})
	case err != nil:
		fail(c, "error importing calendar", err)
	default:
		c.JSON(http.StatusOK, importResponse{Message: "imported", Count: n})
	}
}

func (s *Server) printView(c *gin.Context) {
	view, err := nav.ParseView(c.Query("view"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, NewError("parameter 'view' is invalid", err))
		return
	}
	d, ok := s.dateParam(c, "date")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := printview.Render(&buf, nav.New(d).WithView(view), s.engine.Events()); err != nil {
		appLog.Error("print render failed", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, NewError("print render failed", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
