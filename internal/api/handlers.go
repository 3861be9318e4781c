package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/supptracker-server/internal/domain"
)

func (s *Server) handleHealth(c *gin.Context) {
	report := s.service.Health()
	status := http.StatusOK
	if report.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

func (s *Server) handleReady(c *gin.Context) {
	if !s.service.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"query parameter q is required", c.GetString("correlation_id")), http.StatusBadRequest)
		return
	}
	limit := s.cfg.Limits.SearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
				"limit must be a positive integer", c.GetString("correlation_id")), http.StatusBadRequest)
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}
	matches := s.service.Search(query, limit)
	if matches == nil {
		matches = []domain.CompoundMatch{}
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "matches": matches})
}

func (s *Server) handleCompound(c *gin.Context) {
	comp, interactions, err := s.service.Compound(c.Param("id"))
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"compound":     comp,
		"interactions": interactions,
	})
}

func (s *Server) handleInteraction(c *gin.Context) {
	refA, refB := c.Query("a"), c.Query("b")
	if strings.TrimSpace(refA) == "" || strings.TrimSpace(refB) == "" {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"query parameters a and b are required", c.GetString("correlation_id")), http.StatusBadRequest)
		return
	}
	ctx, err := contextFromQuery(c)
	if err != nil {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
			err.Error(), c.GetString("correlation_id")), http.StatusBadRequest)
		return
	}

	cacheKey := c.Request.URL.RawQuery
	if body, ok := s.respCache.Get(c.Request.Context(), cacheKey); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	assessment, err := s.service.CheckPair(refA, refB, ctx)
	if err != nil {
		s.mapError(c, err)
		return
	}
	if body, err := json.Marshal(assessment); err == nil {
		s.respCache.Set(c.Request.Context(), cacheKey, body)
	}
	c.JSON(http.StatusOK, assessment)
}

// stackRequest accepts both "items" and its legacy alias "compounds".
type stackRequest struct {
	Items     []string        `json:"items"`
	Compounds []string        `json:"compounds"`
	Context   *contextPayload `json:"context"`
}

type contextPayload struct {
	Pregnant          bool                   `json:"pregnant"`
	RenalImpairment   bool                   `json:"renal_impairment"`
	HepaticImpairment bool                   `json:"hepatic_impairment"`
	LongQT            bool                   `json:"long_qt"`
	Doses             map[string]domain.Dose `json:"doses"`
}

func (s *Server) handleStackCheck(c *gin.Context) {
	var req stackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"malformed request body: "+err.Error(), c.GetString("correlation_id")), http.StatusBadRequest)
		return
	}
	items := req.Items
	if len(items) == 0 {
		items = req.Compounds
	}
	if len(items) == 0 {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"items must not be empty", c.GetString("correlation_id")), http.StatusBadRequest)
		return
	}

	var ctx *domain.UserContext
	if req.Context != nil {
		ctx = &domain.UserContext{
			Pregnant:          req.Context.Pregnant,
			RenalImpairment:   req.Context.RenalImpairment,
			HepaticImpairment: req.Context.HepaticImpairment,
			LongQT:            req.Context.LongQT,
			Doses:             req.Context.Doses,
		}
	}

	result, err := s.service.EvaluateStack(items, ctx)
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleReload(c *gin.Context) {
	if err := s.service.Reload(); err != nil {
		s.logger.WithError(err).Error("Reload failed")
		s.writeError(c, domain.NewAPIError(domain.ErrCodeInvalidInput,
			"reload failed: "+err.Error(), c.GetString("correlation_id")), http.StatusUnprocessableEntity)
		return
	}
	if err := s.respCache.InvalidateAll(c.Request.Context()); err != nil {
		s.logger.WithError(err).Warn("Response cache invalidation failed")
	}
	c.JSON(http.StatusOK, s.service.Health())
}

// contextFromQuery parses the optional scoring context from the query
// string. Doses use the form id:amount:unit, comma separated.
func contextFromQuery(c *gin.Context) (*domain.UserContext, error) {
	ctx := &domain.UserContext{}
	present := false

	for param, target := range map[string]*bool{
		"pregnant": &ctx.Pregnant,
		"renal":    &ctx.RenalImpairment,
		"hepatic":  &ctx.HepaticImpairment,
		"qt":       &ctx.LongQT,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		val, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New(param + " must be a boolean")
		}
		*target = val
		present = true
	}

	if raw := c.Query("doses"); raw != "" {
		doses := make(map[string]domain.Dose)
		for _, part := range strings.Split(raw, ",") {
			fields := strings.Split(strings.TrimSpace(part), ":")
			if len(fields) != 3 {
				return nil, errors.New("doses entries must use the form id:amount:unit")
			}
			amount, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || amount <= 0 {
				return nil, errors.New("dose amount must be a positive number")
			}
			doses[fields[0]] = domain.Dose{Amount: amount, Unit: fields[2]}
		}
		ctx.Doses = doses
		present = true
	}

	if !present {
		return nil, nil
	}
	return ctx, nil
}

// mapError translates core errors into HTTP responses.
func (s *Server) mapError(c *gin.Context, err error) {
	correlationID := c.GetString("correlation_id")

	var ambiguous *domain.AmbiguousError
	if errors.As(err, &ambiguous) {
		apiErr := domain.NewAPIError(domain.ErrCodeAmbiguous, ambiguous.Error(), correlationID)
		apiErr.Candidates = ambiguous.Candidates
		s.writeError(c, apiErr, http.StatusConflict)
		return
	}
	var tooMany *domain.TooManyCompoundsError
	if errors.As(err, &tooMany) {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeTooManyCompounds, tooMany.Error(), correlationID),
			http.StatusRequestEntityTooLarge)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(c, domain.NewAPIError(domain.ErrCodeNotFound, err.Error(), correlationID),
			http.StatusNotFound)
		return
	}
	s.logger.WithError(err).WithField("correlation_id", correlationID).Error("Unhandled error")
	s.writeError(c, domain.NewAPIError(domain.ErrCodeInternal, "internal server error", correlationID),
		http.StatusInternalServerError)
}

func (s *Server) writeError(c *gin.Context, apiErr *domain.APIError, status int) {
	c.JSON(status, apiErr)
}
