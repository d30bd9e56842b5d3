package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonarrative/internal/export"
	"github.com/hyperifyio/gonarrative/internal/profile"
	"github.com/hyperifyio/gonarrative/internal/prompt"
	"github.com/hyperifyio/gonarrative/internal/session"
)

const sessionKey = "session"

// multipartOverhead is the slack allowed above the file limit for multipart
// boundaries and part headers.
const multipartOverhead = 64 << 10

type profileView struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Objective   string   `json:"objective"`
	KeyMetrics  []string `json:"key_metrics"`
}

type profilesResponse struct {
	Profiles        []profileView `json:"profiles"`
	Industries      []string      `json:"industries"`
	DefaultIndustry string        `json:"default_industry"`
}

type sessionResponse struct {
	ID    string           `json:"id"`
	State session.Snapshot `json:"state"`
}

type industryRequest struct {
	Industry string `json:"industry"`
}

type profileRequest struct {
	Profile string `json:"profile" binding:"required"`
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func listProfiles(c *gin.Context) {
	all := profile.All()
	out := profilesResponse{
		Profiles:        make([]profileView, 0, len(all)),
		Industries:      prompt.IndustryPresets,
		DefaultIndustry: prompt.DefaultIndustry,
	}
	for _, p := range all {
		out.Profiles = append(out.Profiles, profileView{
			ID:          string(p.ID),
			DisplayName: p.DisplayName,
			Objective:   p.Objective,
			KeyMetrics:  p.KeyMetrics,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createSession(c *gin.Context) {
	id, sess := s.add()
	log.Debug().Str("session", id).Msg("session created")
	c.JSON(http.StatusCreated, sessionResponse{ID: id, State: sess.Snapshot()})
}

func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			respondError(c, http.StatusNotFound, "unknown_session", fmt.Errorf("unknown session %q", id))
			return
		}
		sess, ok := s.get(id)
		if !ok {
			respondError(c, http.StatusNotFound, "unknown_session", fmt.Errorf("unknown session %q", id))
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func current(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (s *Server) state(c *gin.Context, status int) {
	c.JSON(status, sessionResponse{ID: c.Param("id"), State: current(c).Snapshot()})
}

func (s *Server) getState(c *gin.Context) {
	s.state(c, http.StatusOK)
}

func (s *Server) deleteSession(c *gin.Context) {
	current(c).Reset()
	s.remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) setIndustry(c *gin.Context) {
	var req industryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	current(c).SetIndustry(req.Industry)
	s.state(c, http.StatusOK)
}

func (s *Server) upload(c *gin.Context) {
	limit := s.maxUpload + multipartOverhead
	if c.Request.ContentLength > limit {
		respondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("request is %d bytes, limit is %d", c.Request.ContentLength, limit))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("request exceeds %d bytes", tooLarge.Limit))
		return
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing_file", errors.New(`multipart field "file" is required`))
		return
	}
	if fh.Size > s.maxUpload {
		respondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("file is %d bytes, limit is %d", fh.Size, s.maxUpload))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, s.maxUpload))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	if err := current(c).Upload(fh.Filename, bytes.NewReader(raw)); err != nil {
		s.metrics.uploads.WithLabelValues("rejected").Inc()
		respondErr(c, err)
		return
	}
	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.state(c, http.StatusOK)
}

func (s *Server) removeFile(c *gin.Context) {
	current(c).RemoveFile()
	s.state(c, http.StatusOK)
}

func (s *Server) selectProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := current(c).SelectProfile(req.Profile); err != nil {
		respondErr(c, err)
		return
	}
	s.state(c, http.StatusOK)
}

func (s *Server) generate(c *gin.Context) {
	sess := current(c)
	start := time.Now()
	_, err := sess.Generate(c.Request.Context(), s.narrator)
	s.metrics.observeGeneration(start, err)
	if err != nil {
		log.Warn().Err(err).Str("session", c.Param("id")).Msg("generation failed")
		respondErr(c, err)
		return
	}
	s.state(c, http.StatusOK)
}

func (s *Server) getPrompt(c *gin.Context) {
	text, err := current(c).Prompt()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *Server) download(c *gin.Context) {
	doc, err := current(c).Export()
	if err != nil {
		respondErr(c, err)
		return
	}
	format := c.DefaultQuery("format", export.FormatText)
	if format == "" {
		format = export.FormatText
	}
	var buf bytes.Buffer
	if err := doc.Write(&buf, format); err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName(format)))
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

func (s *Server) reset(c *gin.Context) {
	current(c).Reset()
	s.state(c, http.StatusOK)
}
