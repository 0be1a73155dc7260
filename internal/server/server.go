// Package server exposes the logbook over HTTP: date and entry CRUD,
// manual entries with backdating, and a WebSocket stream of changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meri-imperiumi/signalk-logbook/internal/compose"
	"github.com/meri-imperiumi/signalk-logbook/internal/history"
	"github.com/meri-imperiumi/signalk-logbook/internal/hub"
	"github.com/meri-imperiumi/signalk-logbook/internal/logbook"
	"github.com/meri-imperiumi/signalk-logbook/internal/model"
	"github.com/meri-imperiumi/signalk-logbook/internal/state"
)

// Server holds the Gin engine and the logbook dependencies.
type Server struct {
	engine  *gin.Engine
	store   *logbook.Store
	state   *state.State
	buffer  *history.Buffer
	hub     *hub.Hub
	port    string
	started time.Time
}

// New creates the API server.
func New(store *logbook.Store, st *state.State, buf *history.Buffer, h *hub.Hub, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		store:   store,
		state:   st,
		buffer:  buf,
		hub:     h,
		port:    port,
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	s.engine.GET("/api/logs", s.handleListDates)
	s.engine.POST("/api/logs", s.handleCreateEntry)
	s.engine.GET("/api/logs/:date", s.handleGetDate)
	s.engine.GET("/api/logs/:date/:entry", s.handleGetEntry)
	s.engine.PUT("/api/logs/:date/:entry", s.handleUpdateEntry)
	s.engine.DELETE("/api/logs/:date/:entry", s.handleDeleteEntry)

	s.engine.GET("/ws", s.handleWebSocket)
}

const shutdownTimeout = 5 * time.Second

// Start runs the server until the context is cancelled, then shuts it
// down gracefully, draining in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: ":" + s.port, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.started).Truncate(time.Second).String(),
		"history":        s.buffer.Len(),
		"dropped_stream": s.hub.Dropped(),
	})
}

func (s *Server) handleListDates(c *gin.Context) {
	dates, err := s.store.ListDates()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dates)
}

func (s *Server) handleGetDate(c *gin.Context) {
	entries, err := s.store.GetDate(c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGetEntry(c *gin.Context) {
	datetime, ok := parseEntryParam(c)
	if !ok {
		return
	}
	entry, err := s.store.GetEntry(datetime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// newEntryRequest is the manual-entry payload. Ago backdates the entry
// by selecting a historical snapshot that many minutes back.
type newEntryRequest struct {
	Text         string              `json:"text"`
	Author       string              `json:"author"`
	Ago          int                 `json:"ago"`
	Category     string              `json:"category"`
	VHF          string              `json:"vhf"`
	Observations *model.Observations `json:"observations"`
}

func (s *Server) handleCreateEntry(c *gin.Context) {
	var req newEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry payload: " + err.Error()})
		return
	}
	snap, ok := s.buffer.Get(req.Ago)
	if !ok {
		// No history that far back; fall back to the live state.
		snap = s.state.Snapshot()
	}
	entry := compose.Compose(snap, req.Text, req.Author)
	if req.Category != "" {
		entry.Category = req.Category
	}
	if entry.Category == "" {
		entry.Category = model.CategoryNavigation
	}
	if req.VHF != "" {
		entry.VHF = req.VHF
	}
	if req.Observations != nil {
		entry.Observations = req.Observations
	}
	if err := s.store.AppendEntry(entry.DateString(), entry); err != nil {
		respondError(c, err)
		return
	}
	s.hub.PublishEntry(entry)
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleUpdateEntry(c *gin.Context) {
	datetime, ok := parseEntryParam(c)
	if !ok {
		return
	}
	var entry model.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry payload: " + err.Error()})
		return
	}
	// The URL names the entry being replaced; the body cannot move it.
	entry.Datetime = datetime
	if err := s.store.WriteEntry(entry); err != nil {
		respondError(c, err)
		return
	}
	s.hub.PublishEntry(entry)
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(c *gin.Context) {
	datetime, ok := parseEntryParam(c)
	if !ok {
		return
	}
	if err := s.store.DeleteEntry(datetime); err != nil {
		respondError(c, err)
		return
	}
	s.hub.PublishDate(datetime.UTC().Format("2006-01-02"))
	c.Status(http.StatusNoContent)
}

// parseEntryParam reads the :entry URL segment as an RFC 3339 timestamp
// and checks that it falls on the :date segment's calendar date, so a
// request can never reach past the log it names.
func parseEntryParam(c *gin.Context) (time.Time, bool) {
	datetime, err := time.Parse(time.RFC3339, c.Param("entry"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry datetime: " + c.Param("entry")})
		return time.Time{}, false
	}
	if date := c.Param("date"); datetime.UTC().Format("2006-01-02") != date {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("entry %s is not in the log for %s", c.Param("entry"), date)})
		return time.Time{}, false
	}
	return datetime, true
}

// respondError maps store errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var validationErr *logbook.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, logbook.ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, logbook.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
