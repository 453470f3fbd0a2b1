// Package reconcile periodically corrects the locally stored derived
// agent counters (listing count, rating) against the remote catalog,
// which is the source of truth. The job is idempotent and tolerates
// per-agent failures without aborting the batch.
package reconcile

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"listing-portal/internal/cache"
	"listing-portal/internal/config"
	"listing-portal/internal/events"
	"listing-portal/internal/models"
	"listing-portal/internal/reference"
)

// ErrAlreadyRunning is returned when a trigger arrives while a run is in
// progress. Triggers are not queued.
var ErrAlreadyRunning = errors.New("reconciliation already running")

// AgentCounter is the slice of the catalog client the job needs
type AgentCounter interface {
	CountByAgent(agentID uint, statuses []models.CatalogStatus) (int, error)
}

// RatingSource produces the authoritative rating value for an agent.
// The signal behind it is deliberately abstract.
type RatingSource interface {
	AgentRating(agent models.Agent) (float64, error)
}

// Summary tallies one reconciliation pass
type Summary struct {
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Job runs the scheduled reconciliation passes
type Job struct {
	cron      *cron.Cron
	counter   AgentCounter
	refs      reference.Store
	cache     *cache.Cache
	rating    RatingSource
	publisher events.Publisher
	cfg       config.ReconcileConfig

	mu          sync.Mutex
	running     bool
	lastPass    string
	lastRunAt   time.Time
	lastSummary *Summary
	lastErr     error
}

// NewJob creates a reconciliation job
func NewJob(counter AgentCounter, refs reference.Store, c *cache.Cache, rating RatingSource, publisher events.Publisher, cfg config.ReconcileConfig) *Job {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Job{
		cron:      cron.New(),
		counter:   counter,
		refs:      refs,
		cache:     c,
		rating:    rating,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Start registers the cron entries and starts the scheduler
func (j *Job) Start() error {
	if !j.cfg.Enabled {
		log.Println("Reconcile: scheduled runs are disabled in configuration")
		return nil
	}

	_, err := j.cron.AddFunc(parseDailyRunTime(j.cfg.CountsRunTime), func() {
		if _, err := j.RunCounts(); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.Printf("Reconcile: scheduled counts pass failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = j.cron.AddFunc(parseDailyRunTime(j.cfg.RatingsRunTime), func() {
		if _, err := j.RunRatings(); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.Printf("Reconcile: scheduled ratings pass failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	log.Printf("Reconcile: started (counts at %s, ratings at %s)",
		j.cfg.CountsRunTime, j.cfg.RatingsRunTime)
	return nil
}

// Stop stops the scheduler
func (j *Job) Stop() {
	j.cron.Stop()
	log.Println("Reconcile: stopped")
}

// RunNow executes both passes immediately (manual trigger)
func (j *Job) RunNow() error {
	log.Println("Reconcile: manual trigger")
	if _, err := j.RunCounts(); err != nil {
		return err
	}
	if _, err := j.RunRatings(); err != nil {
		return err
	}
	return nil
}

// RunCounts reconciles every local agent's listing count against the
// catalog service. A failure for one agent is tallied and the pass
// continues; the job never creates or deletes agent rows.
func (j *Job) RunCounts() (*Summary, error) {
	if !j.begin("counts") {
		log.Println("Reconcile: counts trigger ignored, a run is already in progress")
		return nil, ErrAlreadyRunning
	}

	agents, err := j.refs.AllAgents()
	if err != nil {
		err = fmt.Errorf("loading agents: %w", err)
		j.end(nil, err)
		return nil, err
	}

	summary := &Summary{}
	for _, agent := range agents {
		count, err := j.counter.CountByAgent(agent.ID, []models.CatalogStatus{
			models.CatalogStatusActive,
			models.CatalogStatusDraft,
		})
		if err != nil {
			log.Printf("Reconcile: counting listings for agent %d failed: %v", agent.ID, err)
			summary.Failed++
			continue
		}

		if count == agent.ListingCount {
			summary.Unchanged++
			continue
		}

		if err := j.refs.UpdateAgentListingCount(agent.ID, count); err != nil {
			log.Printf("Reconcile: persisting count for agent %d failed: %v", agent.ID, err)
			summary.Failed++
			continue
		}

		j.cache.Invalidate(cache.AgentStats(agent.ID))
		events.Emit(j.publisher, events.TopicAgentStats, fmt.Sprint(agent.ID), events.AgentStatsUpdated{
			EventID:      events.NewEventID(),
			AgentID:      agent.ID,
			ListingCount: count,
			Rating:       agent.Rating,
			UpdatedAt:    time.Now(),
		})

		log.Printf("Reconcile: agent %d listing count corrected %d -> %d",
			agent.ID, agent.ListingCount, count)
		summary.Updated++
	}

	log.Printf("Reconcile: counts pass done updated=%d unchanged=%d failed=%d",
		summary.Updated, summary.Unchanged, summary.Failed)
	j.end(summary, nil)
	return summary, nil
}

// RunRatings recomputes every agent's rating from the rating source
func (j *Job) RunRatings() (*Summary, error) {
	if !j.begin("ratings") {
		log.Println("Reconcile: ratings trigger ignored, a run is already in progress")
		return nil, ErrAlreadyRunning
	}

	agents, err := j.refs.AllAgents()
	if err != nil {
		err = fmt.Errorf("loading agents: %w", err)
		j.end(nil, err)
		return nil, err
	}

	summary := &Summary{}
	for _, agent := range agents {
		rating, err := j.rating.AgentRating(agent)
		if err != nil {
			log.Printf("Reconcile: computing rating for agent %d failed: %v", agent.ID, err)
			summary.Failed++
			continue
		}

		if math.Abs(rating-agent.Rating) < 0.005 {
			summary.Unchanged++
			continue
		}

		if err := j.refs.UpdateAgentRating(agent.ID, rating); err != nil {
			log.Printf("Reconcile: persisting rating for agent %d failed: %v", agent.ID, err)
			summary.Failed++
			continue
		}

		j.cache.Invalidate(cache.AgentStats(agent.ID))
		log.Printf("Reconcile: agent %d rating corrected %.2f -> %.2f",
			agent.ID, agent.Rating, rating)
		summary.Updated++
	}

	log.Printf("Reconcile: ratings pass done updated=%d unchanged=%d failed=%d",
		summary.Updated, summary.Unchanged, summary.Failed)
	j.end(summary, nil)
	return summary, nil
}

// Status reports the current job state for the admin endpoint
func (j *Job) Status() map[string]interface{} {
	j.mu.Lock()
	defer j.mu.Unlock()

	state := "idle"
	if j.running {
		state = "running"
	}
	status := map[string]interface{}{
		"state":     state,
		"last_pass": j.lastPass,
	}
	if !j.lastRunAt.IsZero() {
		status["last_run_at"] = j.lastRunAt
	}
	if j.lastSummary != nil {
		status["last_summary"] = j.lastSummary
	}
	if j.lastErr != nil {
		status["last_error"] = j.lastErr.Error()
	}
	return status
}

// begin transitions idle -> running; false when already running
func (j *Job) begin(pass string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return false
	}
	j.running = true
	j.lastPass = pass
	j.lastRunAt = time.Now()
	return true
}

// end records the outcome and returns to idle
func (j *Job) end(summary *Summary, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.running = false
	j.lastSummary = summary
	j.lastErr = err
}

// parseDailyRunTime converts HH:MM format to a cron specification.
// Example: "03:00" -> "0 3 * * *"
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("Reconcile: failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
