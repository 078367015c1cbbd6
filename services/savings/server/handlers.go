package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"esusu/native/savings"
	"esusu/services/savings/chain"
	"esusu/services/savings/snapshot"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	view := healthView{Status: "ok"}
	if snap, ok := s.snapshots.Current(); ok {
		takenAt := snap.TakenAt
		view.Ready = true
		view.TakenAt = &takenAt
		view.Digest = snap.Digest
	}
	writeJSON(w, http.StatusOK, view)
}

// current returns the served snapshot, or handles the request itself when
// no snapshot exists yet or the client already holds this version.
func (s *Server) current(w http.ResponseWriter, r *http.Request) (*snapshot.Snapshot, bool) {
	snap, ok := s.snapshots.Current()
	if !ok {
		s.writeError(w, r, errUnavailable)
		return nil, false
	}
	etag := `"` + snap.Digest + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return nil, false
	}
	return snap, true
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (s *Server) listCampaigns(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	criteria := savings.ParseCriteria(savings.CriteriaInput{
		ID:              query.Get("id"),
		Status:          query.Get("status"),
		MinContribution: query.Get("min_contribution"),
		MaxContribution: query.Get("max_contribution"),
		MinParticipants: query.Get("min_participants"),
		MaxParticipants: query.Get("max_participants"),
	})
	matches := savings.FilterCampaigns(snap.Campaigns, criteria)
	s.matches.ObserveMatches("campaigns", len(matches))

	views := make([]campaignView, 0, len(matches))
	for _, campaign := range matches {
		views = append(views, newCampaignView(campaign))
	}
	writeJSON(w, http.StatusOK, campaignListView{
		Campaigns: views,
		Count:     len(views),
		Total:     len(snap.Campaigns),
		TakenAt:   snap.TakenAt,
	})
}

func (s *Server) getCampaign(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, badRequest("campaign id %q is not a number", raw))
		return
	}
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	campaign, found := snap.Campaign(id)
	if !found {
		s.writeError(w, r, fmt.Errorf("campaign %d: %w", id, errNotFound))
		return
	}
	writeJSON(w, http.StatusOK, newCampaignView(campaign))
}

func (s *Server) listLocks(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	criteria := savings.ParseLockCriteria(savings.LockCriteriaInput{
		Status:      query.Get("status"),
		MinAmount:   query.Get("min_amount"),
		MaxAmount:   query.Get("max_amount"),
		MinDuration: query.Get("min_duration"),
		MaxDuration: query.Get("max_duration"),
	})
	matches := savings.FilterLocks(snap.Locks, criteria)
	s.matches.ObserveMatches("locks", len(matches))

	now := s.now()
	views := make([]lockView, 0, len(matches))
	for _, lock := range matches {
		views = append(views, newLockView(lock, now, s.estimator))
	}
	writeJSON(w, http.StatusOK, lockListView{
		Locks:   views,
		Count:   len(views),
		Total:   len(snap.Locks),
		TakenAt: snap.TakenAt,
	})
}

func (s *Server) estimateReward(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawPrincipal := strings.TrimSpace(query.Get("principal"))
	principal, err := decimal.NewFromString(rawPrincipal)
	if err != nil {
		s.writeError(w, r, badRequest("principal %q is not a number", rawPrincipal))
		return
	}
	rawDuration := strings.TrimSpace(query.Get("duration_days"))
	duration, err := strconv.ParseInt(rawDuration, 10, 64)
	if err != nil {
		s.writeError(w, r, badRequest("duration_days %q is not an integer", rawDuration))
		return
	}
	reward, err := s.estimator.Estimate(principal, duration)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	early, err := savings.EarlyUnlockReward(reward)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, estimateView{
		Principal:         principal.String(),
		DurationDays:      duration,
		AnnualRate:        s.estimator.Rate().String(),
		Reward:            fixed(reward),
		EarlyUnlockReward: fixed(early),
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	var member common.Address
	if raw := strings.TrimSpace(r.URL.Query().Get("address")); raw != "" {
		if !common.IsHexAddress(raw) {
			s.writeError(w, r, badRequest("address %q is not a hex address", raw))
			return
		}
		member = common.HexToAddress(raw)
	}
	snap, ok := s.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSummaryView(savings.Summarize(snap.Campaigns, snap.Locks, member), member))
}

type createCampaignRequest struct {
	Participants []string `json:"participants"`
	Contribution string   `json:"contribution"`
}

type contributeRequest struct {
	CampaignID uint64 `json:"campaign_id"`
}

type lockFundsRequest struct {
	Amount       string `json:"amount"`
	DurationDays int    `json:"duration_days"`
}

type payRequest struct {
	Kind        string `json:"kind"`
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (s *Server) createCampaignCall(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	draft, err := savings.ValidateCampaignDraft(req.Participants, req.Contribution)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCall(w, r)(s.contracts.CreateCampaign(draft))
}

func (s *Server) contributeCall(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCall(w, r)(s.contracts.Contribute(req.CampaignID))
}

func (s *Server) lockFundsCall(w http.ResponseWriter, r *http.Request) {
	var req lockFundsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	draft, err := savings.ValidateLockDraft(req.Amount, req.DurationDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCall(w, r)(s.contracts.LockFunds(draft))
}

func (s *Server) payCall(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	draft, err := savings.ValidatePaymentDraft(req.Kind, req.Recipient, req.Amount, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeCall(w, r)(s.contracts.PayCall(draft))
}

func (s *Server) writeCall(w http.ResponseWriter, r *http.Request) func(chain.Call, error) {
	return func(call chain.Call, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newCallView(call))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, requestBodyLimit))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body required")
		}
		return badRequest("decode request: %v", err)
	}
	return nil
}
