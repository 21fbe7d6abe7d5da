package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/fraudring-engine/internal/config"
	"github.com/rawblock/fraudring-engine/internal/feedback"
	"github.com/rawblock/fraudring-engine/internal/graph"
	"github.com/rawblock/fraudring-engine/internal/ingest"
	"github.com/rawblock/fraudring-engine/internal/pipeline"
	"github.com/rawblock/fraudring-engine/internal/shadow"
)

type APIHandler struct {
	wsHub      *Hub
	feedback   *feedback.Collector
	perf       *feedback.PerformanceTracker
	baseConfig config.Configuration
	comparator *shadow.ConfigComparator
}

// SetupRouter wires the gin engine. pool may be nil — the config-comparison
// endpoint degrades to comparing in-memory only, without persisting drift
// history, the same optional-Postgres pattern internal/store follows.
func SetupRouter(wsHub *Hub, feedbackCollector *feedback.Collector, perfTracker *feedback.PerformanceTracker, pool *pgxpool.Pool) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://example.com
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		wsHub:      wsHub,
		feedback:   feedbackCollector,
		perf:       perfTracker,
		baseConfig: config.Default(),
		comparator: shadow.NewConfigComparator(pool),
	}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
		pub.GET("/config", handler.handleGetConfig)
		pub.GET("/config/presets/:name", handler.handleGetConfigPreset)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	// Rate-limit detection endpoints to 30 req/min per IP (burst=5) — a full
	// CSV run can be CPU-heavy, so this matters more here than anywhere else.
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.POST("/detect", handler.handleDetect)
		auth.POST("/detect/enhanced", handler.handleDetectEnhanced)
		auth.GET("/metrics", handler.handleGetMetrics)
		auth.POST("/feedback", handler.handleSubmitFeedback)
		auth.GET("/config/suggestions", handler.handleGetConfigSuggestions)
		auth.POST("/detect/compare", handler.handleCompareConfig)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "operational",
		"engine":          "fraudring-engine",
		"feedbackEnabled": h.feedback != nil,
	})
}

func (h *APIHandler) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.baseConfig)
}

func (h *APIHandler) handleGetConfigPreset(c *gin.Context) {
	name := c.Param("name")
	cfg, ok := config.Preset(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown preset", "name": name, "hint": "one of: aggressive, conservative, balanced"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// handleDetect runs the pipeline in default (non-enhanced) mode over the
// uploaded CSV body.
func (h *APIHandler) handleDetect(c *gin.Context) {
	h.runDetection(c, false)
}

// handleDetectEnhanced runs the pipeline in enhanced mode. Query params:
//
//	preset            — aggressive|conservative|balanced, overrides defaults
//	min_score         — overrides MinSuspicionScore
//	enable_validation — true to run strict ingestion validation: any bad row
//	                    fails the request, and a successful response carries
//	                    a quality report
//	include_graph     — true to echo the built graph in the response
func (h *APIHandler) handleDetectEnhanced(c *gin.Context) {
	h.runDetection(c, true)
}

func (h *APIHandler) runDetection(c *gin.Context, enhanced bool) {
	cfg := h.baseConfig
	if preset := c.Query("preset"); preset != "" {
		p, ok := config.Preset(preset)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset", "preset": preset})
			return
		}
		cfg = p
	}
	if minScore := c.Query("min_score"); minScore != "" {
		v, err := strconv.ParseFloat(minScore, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_score"})
			return
		}
		cfg.MinSuspicionScore = v
	}
	enableValidation, _ := strconv.ParseBool(c.DefaultQuery("enable_validation", "false"))
	includeGraph, _ := strconv.ParseBool(c.DefaultQuery("include_graph", "false"))

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing \"file\" multipart field with the transaction CSV"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	analysisID := uuid.NewString()
	h.wsHub.Broadcast(stageEvent(analysisID, "started", nil))

	p := pipeline.New(pipeline.Options{
		Config:           cfg,
		Enhanced:         enhanced,
		EnableValidation: enableValidation,
		IncludeGraphData: includeGraph,
	})

	result, quality, err := p.Run(c.Request.Context(), f, timeNow())
	if err != nil {
		h.wsHub.Broadcast(stageEvent(analysisID, "failed", gin.H{"error": err.Error()}))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.perf != nil {
		_ = h.perf.RecordAnalysis(
			result.Summary.TotalNodes,
			result.Summary.TotalTransactions,
			result.Summary.SuspiciousAccountsFlagged,
			result.Summary.FraudRingsDetected,
			durationFromSeconds(result.Summary.ProcessingTimeSeconds),
			timeNow(),
		)
	}

	h.wsHub.Broadcast(stageEvent(analysisID, "ring_detected", gin.H{"rings": len(result.FraudRings)}))
	h.wsHub.Broadcast(stageEvent(analysisID, "completed", gin.H{"suspiciousAccounts": len(result.SuspiciousAccounts)}))

	c.JSON(http.StatusOK, gin.H{
		"analysisId": analysisID,
		"result":     result,
		"quality":    quality,
	})
}

// handleGetMetrics reports calibration and run-performance trends. It never
// touches the detection pipeline itself — core spec §5 requires the
// pipeline never read these sinks.
func (h *APIHandler) handleGetMetrics(c *gin.Context) {
	resp := gin.H{}
	if h.feedback != nil {
		if m, err := h.feedback.GetMetrics(); err == nil {
			resp["feedback"] = m
		}
	}
	if h.perf != nil {
		if t, err := h.perf.GetTrends(); err == nil {
			resp["performance"] = t
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleCompareConfig runs a candidate preset/min_score override alongside
// the baseline configuration over the same uploaded CSV, reporting how many
// accounts the candidate would add or remove before it is adopted. Query
// params: candidate_preset (required), candidate_min_score (optional).
func (h *APIHandler) handleCompareConfig(c *gin.Context) {
	candidatePreset := c.Query("candidate_preset")
	if candidatePreset == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate_preset is required"})
		return
	}
	candidate, ok := config.Preset(candidatePreset)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown candidate_preset", "preset": candidatePreset})
		return
	}
	if minScore := c.Query("candidate_min_score"); minScore != "" {
		v, err := strconv.ParseFloat(minScore, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate_min_score"})
			return
		}
		candidate.MinSuspicionScore = v
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing \"file\" multipart field with the transaction CSV"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	edges, _, err := ingest.Parse(f, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g := graph.NewBuilder().Build(edges)

	result, err := h.comparator.Compare(c.Request.Context(), g, candidatePreset, h.baseConfig, candidate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist comparison"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetConfigSuggestions reports threshold suggestions derived from
// accumulated reviewer feedback. It never applies a suggestion — an
// operator adopts one by hand via the preset/min_score query params.
func (h *APIHandler) handleGetConfigSuggestions(c *gin.Context) {
	if h.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback collection not configured"})
		return
	}

	optimizer := feedback.NewConfigurationOptimizer(h.feedback, h.baseConfig.MinSuspicionScore, h.baseConfig.MinFanDegree)
	report, err := optimizer.SuggestThresholdAdjustment()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute suggestions"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *APIHandler) handleSubmitFeedback(c *gin.Context) {
	if h.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feedback collection not configured"})
		return
	}

	var req struct {
		AccountID      string   `json:"account_id" binding:"required"`
		PredictedScore float64  `json:"predicted_score"`
		PredictedFlags []string `json:"predicted_flags"`
		ActualFraud    bool     `json:"actual_fraud"`
		FraudType      string   `json:"fraud_type"`
		Notes          string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.feedback.AddFeedback(req.AccountID, req.PredictedScore, req.PredictedFlags, req.ActualFraud, req.FraudType, req.Notes, timeNow()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "recorded", "accountId": req.AccountID})
}

// stageEvent builds the payload the handlers above push onto the websocket
// hub while a /detect request is in flight.
func stageEvent(analysisID, stage string, extra gin.H) []byte {
	payload := gin.H{
		"type":       "stage_event",
		"analysisId": analysisID,
		"stage":      stage,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return marshalOrEmpty(payload)
}
