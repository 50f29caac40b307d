// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package adjust

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/rotasmart/rotasmart/grouping"
	"github.com/rotasmart/rotasmart/ingest"
	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/reconcile"
	"github.com/rotasmart/rotasmart/spatial"
)

// DefaultNearRings is the number of H3 rings searched by /api/learned/near.
const DefaultNearRings = 1

// Server is the adjustment API over one session.
type Server struct {
	mu          sync.RWMutex
	session     *Session
	cache       *learning.Cache
	sessionPath string
	exportPath  string
}

// NewServer serves session. Corrections are learned through cache and, when
// sessionPath is set, persisted there. POST /api/export writes to exportPath,
// optionally switching its extension to the requested format.
func NewServer(session *Session, cache *learning.Cache, sessionPath, exportPath string) *Server {
	return &Server{
		session:     session,
		cache:       cache,
		sessionPath: sessionPath,
		exportPath:  exportPath,
	}
}

// Router returns the API routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	s.register(r)

	return r
}

func (s *Server) register(r gin.IRoutes) {
	r.GET("/api/stops", s.listStops)
	r.GET("/api/stops/:index", s.getStop)
	r.POST("/api/stops/:index/location", s.correctStop)
	r.GET("/api/summary", s.getSummary)
	r.GET("/api/learned/near", s.learnedNear)
	r.POST("/api/export", s.export)
}

// Run listens on addr until the server fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

type stopResponse struct {
	Index       int              `json:"index"`
	Address     string           `json:"address"`
	Complement  string           `json:"complement,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
	Latitude    string           `json:"latitude,omitempty"`
	Longitude   string           `json:"longitude,omitempty"`
	Status      reconcile.Status `json:"status"`
	Note        string           `json:"note,omitempty"`
	Learned     bool             `json:"learned"`
	Sequences   []string         `json:"sequences"`
}

func toResponse(st grouping.Stop) stopResponse {
	return stopResponse{
		Index:       st.Index,
		Address:     st.Address,
		Complement:  st.Complement,
		DisplayName: st.DisplayName,
		Latitude:    st.Latitude,
		Longitude:   st.Longitude,
		Status:      st.Status,
		Note:        st.Note,
		Learned:     st.Learned,
		Sequences:   st.Sequences,
	}
}

func (s *Server) listStops(ctx *gin.Context) {
	var filter reconcile.Status

	if q := ctx.Query("status"); q != "" {
		st, err := reconcile.ParseStatus(q)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		filter = st
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]stopResponse, 0, len(s.session.Stops))

	for _, st := range s.session.Stops {
		if filter != "" && st.Status != filter {
			continue
		}

		items = append(items, toResponse(st))
	}

	ctx.JSON(http.StatusOK, items)
}

// stopIndex parses the :index parameter. Callers must hold s.mu.
func (s *Server) stopIndex(ctx *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || idx < 0 || idx >= len(s.session.Stops) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "stop not found"})

		return 0, false
	}

	return idx, true
}

func (s *Server) getStop(ctx *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.stopIndex(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, s.session.Stops[idx])
}

// LocationRequest moves a stop. Coordinates may be numbers or strings with
// either decimal separator.
type LocationRequest struct {
	Latitude  any `json:"latitude" binding:"required"`
	Longitude any `json:"longitude" binding:"required"`
}

func (s *Server) correctStop(ctx *gin.Context) {
	var req LocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})

		return
	}

	lat, okLat := spatial.NormalizeCoordinate(req.Latitude)
	lng, okLng := spatial.NormalizeCoordinate(req.Longitude)

	if !okLat || !okLng {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "coordinates must be numeric"})

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.stopIndex(ctx)
	if !ok {
		return
	}

	stop := &s.session.Stops[idx]

	err := stop.Correct(ctx.Request.Context(), s.cache, lat, lng)
	if errors.Is(err, grouping.ErrInvalidCoordinate) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err != nil {
		// the stop moved; only learning failed
		log.Printf("stop %d corrected but not learned: %v", idx, err)
	}

	s.session.Refresh()

	if s.sessionPath != "" {
		if err := s.session.Save(s.sessionPath); err != nil {
			log.Printf("saving session: %v", err)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"stop":    toResponse(*stop),
		"learned": err == nil,
	})
}

func (s *Server) getSummary(ctx *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx.JSON(http.StatusOK, gin.H{
		"summary": s.session.Summary,
		"pending": grouping.PendingStops(s.session.Stops),
		"nearby":  s.session.Nearby,
	})
}

func (s *Server) learnedNear(ctx *gin.Context) {
	var finder learning.Finder

	ok := false
	if s.cache != nil {
		finder, ok = s.cache.Repository().(learning.Finder)
	}

	if !ok {
		ctx.JSON(http.StatusNotImplemented, gin.H{"error": "the learned location store does not support proximity queries"})

		return
	}

	p, ok := spatial.ParsePoint(ctx.Query("lat"), ctx.Query("lng"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be a valid coordinate"})

		return
	}

	rings := DefaultNearRings

	if q := ctx.Query("rings"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 || n > 10 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "rings must be between 0 and 10"})

			return
		}

		rings = n
	}

	nearby, err := finder.Near(ctx.Request.Context(), p, rings)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if nearby == nil {
		nearby = []learning.Nearby{}
	}

	ctx.JSON(http.StatusOK, nearby)
}

type exportRequest struct {
	Format string `json:"format"`
}

func (s *Server) export(ctx *gin.Context) {
	var req exportRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}
	}

	if s.exportPath == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "no export path configured"})

		return
	}

	path := s.exportPath

	switch ingest.Format(req.Format) {
	case "":
	case ingest.FormatXLSX, ingest.FormatCSV:
		path = strings.TrimSuffix(path, filepath.Ext(path)) + "." + req.Format
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})

		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.session.Export(path); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	log.Printf("exported %d stops to %s", len(s.session.Stops), path)

	ctx.JSON(http.StatusOK, gin.H{"path": path, "stops": len(s.session.Stops)})
}
