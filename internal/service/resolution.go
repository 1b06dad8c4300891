package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/model"
	"github.com/stckr/qr-server-go/internal/qr"
	"github.com/stckr/qr-server-go/internal/repository"
)

type OutcomeStatus string

const (
	OutcomeInvalid           OutcomeStatus = "invalid"
	OutcomeRedirect          OutcomeStatus = "redirect"
	OutcomeOwned             OutcomeStatus = "owned"
	OutcomeUnclaimedByCaller OutcomeStatus = "unclaimed_by_caller"
)

// ItemRef is the minimal item identity exposed on the read path.
type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Outcome is the routing decision for one scan. For anonymous callers the
// shape is always identical regardless of anyone's claims: claim state is
// absent, not false, so responses carry no oracle for "claimed by someone
// else" vs "unclaimed".
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	CodeKey     string        `json:"codeKey,omitempty"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
	Item        *ItemRef      `json:"item,omitempty"`
}

// ScanRecorder receives fire-and-forget scan audit events.
type ScanRecorder interface {
	Record(params model.RecordScanParams)
}

// ResolutionService is the stateless read path: raw input in, routing
// outcome out. Its only side effect is the audit record, which never
// blocks or fails a resolution.
type ResolutionService struct {
	codeRepo   repository.CodeRepository
	claimRepo  repository.ClaimRepository
	itemRepo   repository.ItemRepository
	recorder   ScanRecorder
	appBaseURL string
}

func NewResolutionService(
	codeRepo repository.CodeRepository,
	claimRepo repository.ClaimRepository,
	itemRepo repository.ItemRepository,
	recorder ScanRecorder,
	appBaseURL string,
) *ResolutionService {
	return &ResolutionService{
		codeRepo:   codeRepo,
		claimRepo:  claimRepo,
		itemRepo:   itemRepo,
		recorder:   recorder,
		appBaseURL: appBaseURL,
	}
}

// ResolveParams carries one scan. CallerUserID is nil for anonymous scans;
// Platform and Source are analytics hints recorded verbatim.
type ResolveParams struct {
	RawInput     string
	CallerUserID *string
	Platform     string
	Source       string
}

// Resolve maps scanned input to a routing outcome without mutating claim
// state. Storage failures degrade to the generic redirect rather than
// erroring: the read path exposes nothing beyond invalid / redirect /
// the caller's own claim.
func (s *ResolutionService) Resolve(ctx context.Context, params ResolveParams) Outcome {
	codeKey := qr.Normalize(params.RawInput)

	s.recorder.Record(model.RecordScanParams{
		CodeKeyRaw:        params.RawInput,
		CodeKeyNormalized: codeKey,
		UserID:            params.CallerUserID,
		Platform:          params.Platform,
		Source:            params.Source,
	})

	if codeKey == "" {
		return Outcome{
			Status:      OutcomeInvalid,
			RedirectURL: s.appBaseURL,
		}
	}

	// Anonymous scans get the canonical landing redirect and nothing else.
	// The claim store is not consulted at all, so the response cannot leak
	// whether or by whom the code is claimed.
	if params.CallerUserID == nil {
		return s.redirectOutcome(codeKey)
	}

	callerID := *params.CallerUserID

	exists, err := s.codeRepo.Exists(ctx, codeKey)
	if err != nil {
		log.Error().Err(err).Str("codeKey", codeKey).Msg("resolve: registry lookup failed")
		return s.redirectOutcome(codeKey)
	}
	if !exists {
		return s.redirectOutcome(codeKey)
	}

	claim, err := s.claimRepo.FindByUserAndCode(ctx, callerID, codeKey)
	if err != nil {
		log.Error().Err(err).Str("codeKey", codeKey).Msg("resolve: claim lookup failed")
		return s.redirectOutcome(codeKey)
	}

	if claim == nil {
		return Outcome{
			Status:  OutcomeUnclaimedByCaller,
			CodeKey: codeKey,
		}
	}

	item, err := s.itemRepo.FindByID(ctx, claim.ItemID)
	if err != nil {
		log.Error().Err(err).Str("itemId", claim.ItemID).Msg("resolve: item lookup failed")
		return s.redirectOutcome(codeKey)
	}
	if item == nil {
		// Claim survived its item; treat as unclaimed for routing.
		return Outcome{
			Status:  OutcomeUnclaimedByCaller,
			CodeKey: codeKey,
		}
	}

	return Outcome{
		Status:  OutcomeOwned,
		CodeKey: codeKey,
		Item:    &ItemRef{ID: item.ID, Name: item.Name},
	}
}

// RedirectURL is the canonical per-code landing route. This is the one
// stable format printed stickers and deep-link handlers produce.
func (s *ResolutionService) RedirectURL(codeKey string) string {
	return fmt.Sprintf("%s/qr/%s", s.appBaseURL, codeKey)
}

func (s *ResolutionService) redirectOutcome(codeKey string) Outcome {
	return Outcome{
		Status:      OutcomeRedirect,
		CodeKey:     codeKey,
		RedirectURL: s.RedirectURL(codeKey),
	}
}
