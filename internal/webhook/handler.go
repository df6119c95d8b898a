package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/payload"
	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/transcript"

	"github.com/google/uuid"
)

// SubjectInterviewStored is published after every successful write.
const SubjectInterviewStored = "interviews.call.stored"

// maxPendingPublishes bounds background notifications; beyond it events are
// dropped and logged.
const maxPendingPublishes = 64

// Status is the outcome of a processed delivery.
type Status string

const (
	StatusIgnored Status = "ignored"
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
)

// processedEvents are the event types that touch storage.
var processedEvents = map[string]bool{
	payload.EventCallEnded:    true,
	payload.EventCallAnalysis: true,
	payload.EventCallAnalyzed: true,
}

// Result describes what a delivery did.
type Result struct {
	DeliveryID       string `json:"delivery_id"`
	Status           Status `json:"status"`
	Event            string `json:"event"`
	CallID           string `json:"call_id,omitempty"`
	Utterances       int    `json:"utterances"`
	TranscriptSource string `json:"transcript_source,omitempty"`
	DurationSeconds  int    `json:"duration_seconds"`
	Completed        bool   `json:"completed"`
	AgentID          string `json:"agent_id,omitempty"`
	Direction        string `json:"direction,omitempty"`
	Sentiment        string `json:"sentiment,omitempty"`
	Lenient          bool   `json:"lenient,omitempty"`
}

// StoredEvent is the NATS payload published to SubjectInterviewStored.
type StoredEvent struct {
	DeliveryID      string    `json:"delivery_id"`
	CallID          string    `json:"call_id"`
	Status          Status    `json:"status"`
	Event           string    `json:"event"`
	Utterances      int       `json:"utterances"`
	DurationSeconds int       `json:"duration_seconds"`
	Completed       bool      `json:"completed"`
	AgentID         string    `json:"agent_id,omitempty"`
	Direction       string    `json:"direction,omitempty"`
	Sentiment       string    `json:"sentiment,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// PublishFunc is the callback signature for publishing to NATS.
type PublishFunc func(subject string, data []byte) error

// Alerter is notified when a delivery fails on storage.
type Alerter interface {
	PostStorageAlert(ctx context.Context, callID, event string, cause error) error
}

// Handler turns webhook bodies into interview records.
type Handler struct {
	store   store.DataStore
	publish PublishFunc
	alerter Alerter

	pending chan struct{}
	wg      sync.WaitGroup
}

// NewHandler creates a Handler writing to s.
func NewHandler(s store.DataStore) *Handler {
	return &Handler{
		store:   s,
		pending: make(chan struct{}, maxPendingPublishes),
	}
}

// SetPublisher registers where stored-interview notifications go. Publishing
// happens in the background; call Wait before closing the publisher.
func (h *Handler) SetPublisher(fn PublishFunc) {
	h.publish = fn
}

// SetAlerter registers the storage-failure alerter.
func (h *Handler) SetAlerter(a Alerter) {
	h.alerter = a
}

// Process handles one delivery body. The signature is not checked here; see
// VerifyRequest. Returned errors are always *Error.
func (h *Handler) Process(ctx context.Context, body []byte) (Result, error) {
	res := Result{DeliveryID: uuid.New().String()}

	root, err := payload.Decode(body)
	if err != nil {
		return res, &Error{Kind: KindMalformedBody, Msg: "Malformed JSON body", Details: err.Error(), Err: err}
	}
	slog.Debug("webhook body received", "delivery_id", res.DeliveryID, "body", string(body))

	p, verr := payload.Validate(root)
	if verr != nil {
		if !lenientAccept(root) {
			var details any = verr.Error()
			var ve *payload.ValidationError
			if errors.As(verr, &ve) {
				details = ve.Issues
			}
			slog.Warn("invalid webhook payload", "delivery_id", res.DeliveryID, "error", verr)
			return res, &Error{Kind: KindInvalidPayload, Msg: "Invalid webhook payload", Details: details, Err: verr}
		}
		res.Lenient = true
		slog.Info("schema validation failed, accepting call_analyzed leniently",
			"delivery_id", res.DeliveryID,
			"error", verr,
		)
	}

	if p != nil {
		res.Event = p.Event
	} else {
		res.Event, _ = root.Get("event").Str()
	}
	if !processedEvents[res.Event] {
		res.Status = StatusIgnored
		slog.Info("webhook event not processed", "delivery_id", res.DeliveryID, "event", res.Event)
		return res, nil
	}

	if p != nil {
		res.CallID = p.Call.CallID
	} else {
		res.CallID, _ = root.Path("call", "call_id").Str()
	}
	if res.CallID == "" {
		return res, &Error{Kind: KindMalformedBody, Msg: "call.call_id is required", Details: "call.call_id: required"}
	}

	// Extract from the raw body: validation drops fields it does not declare.
	utts := transcript.Extract(root)
	res.Utterances = len(utts)
	res.TranscriptSource = transcript.Source(root)
	res.DurationSeconds = deriveDuration(p, root)
	res.Completed = isCompleted(endReason(p, root))
	callDetails(&res, p, root)

	status, err := h.upsert(ctx, res, participantID(root), utts)
	if err != nil {
		slog.Error("webhook storage failure",
			"delivery_id", res.DeliveryID,
			"call_id", res.CallID,
			"event", res.Event,
			"error", err,
		)
		h.alert(ctx, res, err)
		return res, &Error{Kind: KindStorage, Msg: "Internal server error", Err: err}
	}
	res.Status = status

	slog.Info("webhook processed",
		"delivery_id", res.DeliveryID,
		"call_id", res.CallID,
		"event", res.Event,
		"status", res.Status,
		"utterances", res.Utterances,
		"agent_turns", transcript.Count(utts, transcript.SpeakerAgent),
		"user_turns", transcript.Count(utts, transcript.SpeakerUser),
		"transcript_source", res.TranscriptSource,
		"duration_seconds", res.DurationSeconds,
		"completed", res.Completed,
	)

	h.notify(res)
	return res, nil
}

// lenientAccept lets a call_analyzed body through schema failures as long as
// it names the call; that event's shape varies the most between versions.
func lenientAccept(root payload.Node) bool {
	event, _ := root.Get("event").Str()
	if event != payload.EventCallAnalyzed {
		return false
	}
	callID, ok := root.Path("call", "call_id").Str()
	return ok && callID != ""
}

// upsert is a lookup followed by insert or update. The two steps are not
// atomic; an insert that loses to a concurrent delivery is retried as an
// update.
func (h *Handler) upsert(ctx context.Context, res Result, participant *string, utts []transcript.Utterance) (Status, error) {
	_, err := h.store.FindByCallID(ctx, res.CallID)
	switch {
	case err == nil:
		return StatusUpdated, h.update(ctx, res, utts)
	case !errors.Is(err, store.ErrNotFound):
		return "", err
	}

	iv := &store.Interview{
		CallID:          res.CallID,
		ParticipantID:   participant,
		Transcript:      utts,
		DurationSeconds: res.DurationSeconds,
		Completed:       res.Completed,
	}
	err = h.store.InsertInterview(ctx, iv)
	if errors.Is(err, store.ErrDuplicateCallID) {
		slog.Warn("lost insert race, updating instead", "delivery_id", res.DeliveryID, "call_id", res.CallID)
		return StatusUpdated, h.update(ctx, res, utts)
	}
	if err != nil {
		return "", err
	}
	return StatusCreated, nil
}

// update never clears a stored transcript: an empty extraction means the
// transcript is not available yet.
func (h *Handler) update(ctx context.Context, res Result, utts []transcript.Utterance) error {
	u := store.InterviewUpdate{
		DurationSeconds: res.DurationSeconds,
		Completed:       res.Completed,
	}
	if len(utts) > 0 {
		u.Transcript = utts
	}
	return h.store.UpdateInterview(ctx, res.CallID, u)
}

func (h *Handler) notify(res Result) {
	if h.publish == nil {
		return
	}
	data, err := json.Marshal(StoredEvent{
		DeliveryID:      res.DeliveryID,
		CallID:          res.CallID,
		Status:          res.Status,
		Event:           res.Event,
		Utterances:      res.Utterances,
		DurationSeconds: res.DurationSeconds,
		Completed:       res.Completed,
		AgentID:         res.AgentID,
		Direction:       res.Direction,
		Sentiment:       res.Sentiment,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal stored event", "error", err)
		return
	}

	select {
	case h.pending <- struct{}{}:
	default:
		slog.Warn("publish backlog full, dropping stored event", "call_id", res.CallID)
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() { <-h.pending }()
		if err := h.publish(SubjectInterviewStored, data); err != nil {
			slog.Warn("failed to publish stored event", "call_id", res.CallID, "error", err)
		}
	}()
}

// Wait blocks until background notifications have finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) alert(ctx context.Context, res Result, cause error) {
	if h.alerter == nil {
		return
	}
	if err := h.alerter.PostStorageAlert(ctx, res.CallID, res.Event, cause); err != nil {
		slog.Warn("failed to post storage alert", "call_id", res.CallID, "error", err)
	}
}
