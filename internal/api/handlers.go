package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"agentpulse/server/config"
	"agentpulse/server/internal/database"
	"agentpulse/server/internal/models"
	"agentpulse/server/internal/queue"
	"agentpulse/server/internal/valuation"
)

type Handler struct {
	db     *database.Database
	queue  *queue.ListingQueue
	engine *valuation.Engine
	config *config.Config
	logger *logrus.Logger
}

// PriceStateResponse reports the suggested-price state after a price operation.
type PriceStateResponse struct {
	SuggestedPrice *float64 `json:"suggestedPrice"`
	PriceState     string   `json:"priceState"`
	OriginalPrice  *float64 `json:"originalPrice"`
}

// CMASummaryResponse is the full engine output for one document plus the
// document's price state, so a client can tell an edited price from a computed
// one without a second request.
type CMASummaryResponse struct {
	valuation.Summary

	CMAID         string   `json:"cmaId"`
	Name          string   `json:"name"`
	PriceState    string   `json:"priceState"`
	OriginalPrice *float64 `json:"originalPrice"`
}

// MarketStatsResponse carries market-wide statistics over the stored listings.
type MarketStatsResponse struct {
	StatusFilter valuation.StatusCategory `json:"statusFilter"`
	City         string                   `json:"city,omitempty"`
	Listings     int                      `json:"listings"`
	Stats        valuation.SummaryStats   `json:"stats"`
}

func NewHandler(db *database.Database, listingQueue *queue.ListingQueue, engine *valuation.Engine, cfg *config.Config, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:     db,
		queue:  listingQueue,
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// IngestListings accepts a batch of listings and hands it to the processing
// queue in MaxBatchSize chunks. 202 means accepted for processing, not stored.
func (h *Handler) IngestListings(c *gin.Context) {
	var listings []*models.PropertyRecord
	if err := c.ShouldBindJSON(&listings); err != nil {
		h.logger.WithError(err).Error("Failed to parse listings payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listings payload"})
		return
	}
	if len(listings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty listings payload"})
		return
	}

	maxBatch := h.config.BatchProcessing.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = len(listings)
	}

	batches := 0
	for start := 0; start < len(listings); start += maxBatch {
		end := start + maxBatch
		if end > len(listings) {
			end = len(listings)
		}
		if err := h.queue.Push(listings[start:end]); err != nil {
			h.logger.WithError(err).WithField("batch_size", end-start).Error("Failed to enqueue listings batch")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion queue is full"})
			return
		}
		batches++
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"listings": len(listings),
		"batches":  batches,
	})
}

// GetListings lists stored listings with optional city, status category and
// limit filters. The status filter classifies free-text source statuses, so it
// is applied in Go after the city query.
func (h *Handler) GetListings(c *gin.Context) {
	filter, ok := valuation.ParseStatusFilter(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}

	// The SQL limit is only safe when no category filter trims the set afterwards.
	sqlLimit := limit
	if filter != valuation.StatusAll {
		sqlLimit = 0
	}

	city := c.Query("city")
	listings, err := h.db.ListListings(city, sqlLimit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list listings"})
		return
	}

	listings = valuation.FilterByStatus(listings, filter)
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}
	if listings == nil {
		listings = []*models.PropertyRecord{}
	}

	c.JSON(http.StatusOK, listings)
}

// GetListing returns one stored listing by id.
func (h *Handler) GetListing(c *gin.Context) {
	listing, err := h.db.GetListing(c.Param("id"))
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// GetMarketStats computes summary statistics over all stored listings, with the
// same city and status filters as GetListings.
func (h *Handler) GetMarketStats(c *gin.Context) {
	filter, ok := valuation.ParseStatusFilter(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	city := c.Query("city")
	listings, err := h.db.ListListings(city, 0)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list listings for stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute market stats"})
		return
	}

	filtered := valuation.FilterByStatus(listings, filter)
	c.JSON(http.StatusOK, MarketStatsResponse{
		StatusFilter: filter,
		City:         city,
		Listings:     len(filtered),
		Stats:        valuation.ComputeSummaryStats(filtered),
	})
}

// CreateCMA creates a document for a stored subject listing and derives its
// initial suggested price over the status-filtered comparable set.
func (h *Handler) CreateCMA(c *gin.Context) {
	var req models.CreateCMARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse CMA request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid CMA payload"})
		return
	}

	filter, ok := valuation.ParseStatusFilter(req.StatusFilter)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	subject, err := h.db.GetListing(req.SubjectID)
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject listing not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load subject listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subject listing"})
		return
	}

	comparableIDs := req.ComparableIDs
	if comparableIDs == nil {
		comparableIDs = []string{}
	}

	comps, err := h.db.GetListingsInOrder(comparableIDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load comparables")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparables"})
		return
	}

	rates := h.config.DefaultRates()
	if req.Rates != nil {
		rates = *req.Rates
	}

	session := valuation.NewPriceSession()
	if value, ok := valuation.DeriveComputedPrice(subject, valuation.FilterByStatus(comps, filter), nil); ok {
		session.ApplyComputed(valuation.SuggestedPrice{Value: value, Valid: true})
	}

	doc := &models.CMADocument{
		ID:             uuid.New().String(),
		Name:           req.Name,
		SubjectID:      req.SubjectID,
		ComparableIDs:  comparableIDs,
		Rates:          rates,
		Overrides:      models.AdjustmentOverrides{},
		StatusFilter:   string(filter),
		SuggestedPrice: pricePtr(session.Current()),
		PriceState:     string(session.State()),
	}

	if err := h.db.CreateCMA(doc); err != nil {
		h.logger.WithError(err).Error("Failed to create CMA")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create CMA"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"cma_id":      doc.ID,
		"subject_id":  doc.SubjectID,
		"comparables": len(doc.ComparableIDs),
	}).Info("Created CMA document")

	c.JSON(http.StatusCreated, doc)
}

// ListCMAs returns every stored document, most recently updated first.
func (h *Handler) ListCMAs(c *gin.Context) {
	docs, err := h.db.ListCMAs()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list CMAs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list CMAs"})
		return
	}
	if docs == nil {
		docs = []*models.CMADocument{}
	}

	c.JSON(http.StatusOK, docs)
}

// GetCMA returns one document by id.
func (h *Handler) GetCMA(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, doc)
}

// GetCMASummary runs the valuation engine over the document's current listings:
// statistics, per-comparable indicators and adjustments, market deltas and the
// suggested price. A status query parameter overrides the document's filter for
// this call only. An edited price is shown as-is; otherwise the price is derived
// fresh from whatever the comparables look like right now.
func (h *Handler) GetCMASummary(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	filter, ok := valuation.ParseStatusFilter(c.DefaultQuery("status", doc.StatusFilter))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	subject, comps, ok := h.loadCMAListings(c, doc)
	if !ok {
		return
	}

	in := valuation.Input{
		Subject:      subject,
		Comparables:  comps,
		Rates:        &doc.Rates,
		Overrides:    doc.Overrides,
		StatusFilter: filter,
	}

	session := valuation.RestorePriceSession(doc.SuggestedPrice, doc.PriceState, doc.OriginalPrice)
	if session.State() == valuation.PriceStateEdited {
		in.ProvidedPrice = pricePtr(session.Current())
	}

	c.JSON(http.StatusOK, CMASummaryResponse{
		Summary:       h.engine.Summarize(in),
		CMAID:         doc.ID,
		Name:          doc.Name,
		PriceState:    doc.PriceState,
		OriginalPrice: doc.OriginalPrice,
	})
}

// UpdateCMARates replaces the document's adjustment rates. Rates feed the
// adjustment breakdown only; the suggested price never moves on a rate change.
func (h *Handler) UpdateCMARates(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	var rates models.AdjustmentRates
	if err := c.ShouldBindJSON(&rates); err != nil {
		h.logger.WithError(err).Error("Failed to parse rates payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rates payload"})
		return
	}

	doc.Rates = rates
	if err := h.db.UpdateCMA(doc); err != nil {
		h.logger.WithError(err).Error("Failed to update CMA rates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update CMA"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// UpdateCMAOverrides replaces the adjustment overrides for one comparable of the
// document. An empty body clears them.
func (h *Handler) UpdateCMAOverrides(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	compID := c.Param("compId")
	if !containsID(doc.ComparableIDs, compID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comparable is not part of this CMA"})
		return
	}

	var overrides models.ComparableOverrides
	if err := c.ShouldBindJSON(&overrides); err != nil {
		h.logger.WithError(err).Error("Failed to parse overrides payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid overrides payload"})
		return
	}

	if doc.Overrides == nil {
		doc.Overrides = models.AdjustmentOverrides{}
	}
	doc.Overrides[compID] = &overrides

	if err := h.db.UpdateCMA(doc); err != nil {
		h.logger.WithError(err).Error("Failed to update CMA overrides")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update CMA"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// EditPrice replaces the suggested price with the agent's value. The first edit
// preserves the computed value so UndoPrice can restore it exactly.
func (h *Handler) EditPrice(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	var req models.EditPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Failed to parse price edit")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price payload"})
		return
	}

	session := valuation.RestorePriceSession(doc.SuggestedPrice, doc.PriceState, doc.OriginalPrice)
	session.Edit(req.Value)

	if !h.savePriceState(c, doc.ID, session) {
		return
	}

	c.JSON(http.StatusOK, priceResponse(session))
}

// UndoPrice restores the price that was current before the agent's edit. Without
// a pending edit it is a no-op and simply reports the current state.
func (h *Handler) UndoPrice(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	session := valuation.RestorePriceSession(doc.SuggestedPrice, doc.PriceState, doc.OriginalPrice)
	if session.Undo() {
		if !h.savePriceState(c, doc.ID, session) {
			return
		}
	}

	c.JSON(http.StatusOK, priceResponse(session))
}

// RecalculatePrice rederives the suggested price from the document's current
// comparables, discarding any manual edit. This is the intentional path; the
// summary endpoint never overwrites an edit.
func (h *Handler) RecalculatePrice(c *gin.Context) {
	doc, ok := h.loadCMA(c)
	if !ok {
		return
	}

	subject, comps, ok := h.loadCMAListings(c, doc)
	if !ok {
		return
	}

	filter, _ := valuation.ParseStatusFilter(doc.StatusFilter)
	value, derived := valuation.DeriveComputedPrice(subject, valuation.FilterByStatus(comps, filter), nil)

	session := valuation.RestorePriceSession(doc.SuggestedPrice, doc.PriceState, doc.OriginalPrice)
	session.ForceComputed(valuation.SuggestedPrice{Value: value, Valid: derived})

	if !h.savePriceState(c, doc.ID, session) {
		return
	}

	c.JSON(http.StatusOK, priceResponse(session))
}

// DeleteCMA removes a document.
func (h *Handler) DeleteCMA(c *gin.Context) {
	err := h.db.DeleteCMA(c.Param("id"))
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "CMA not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete CMA")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete CMA"})
		return
	}

	c.Status(http.StatusNoContent)
}

// HealthCheck reports whether the store is reachable.
func (h *Handler) HealthCheck(c *gin.Context) {
	count, err := h.db.CountListings()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "listings": count})
}

// loadCMA fetches the document for the id path parameter, writing the error
// response itself when it cannot.
func (h *Handler) loadCMA(c *gin.Context) (*models.CMADocument, bool) {
	doc, err := h.db.GetCMA(c.Param("id"))
	if err == database.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "CMA not found"})
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load CMA")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load CMA"})
		return nil, false
	}
	return doc, true
}

// loadCMAListings fetches the subject and the ordered comparables. A subject that
// is no longer stored is not fatal; the engine tolerates a nil subject and still
// reports comparable statistics.
func (h *Handler) loadCMAListings(c *gin.Context, doc *models.CMADocument) (*models.PropertyRecord, []*models.PropertyRecord, bool) {
	subject, err := h.db.GetListing(doc.SubjectID)
	if err == database.ErrNotFound {
		h.logger.WithField("subject_id", doc.SubjectID).Warn("Subject listing no longer stored")
		subject = nil
	} else if err != nil {
		h.logger.WithError(err).Error("Failed to load subject listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subject listing"})
		return nil, nil, false
	}

	comps, err := h.db.GetListingsInOrder(doc.ComparableIDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load comparables")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comparables"})
		return nil, nil, false
	}
	return subject, comps, true
}

func (h *Handler) savePriceState(c *gin.Context, id string, session *valuation.PriceSession) bool {
	err := h.db.SavePriceState(id, pricePtr(session.Current()), string(session.State()), pricePtr(session.Snapshot()))
	if err != nil {
		h.logger.WithError(err).Error("Failed to save price state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save price state"})
		return false
	}
	return true
}

func priceResponse(session *valuation.PriceSession) PriceStateResponse {
	return PriceStateResponse{
		SuggestedPrice: pricePtr(session.Current()),
		PriceState:     string(session.State()),
		OriginalPrice:  pricePtr(session.Snapshot()),
	}
}

func pricePtr(p valuation.SuggestedPrice) *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
