package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/observability"
	"github.com/complykit/request-service/internal/repository"
	"github.com/complykit/request-service/internal/tracker"
)

// AdapterSource builds tracker adapters for a dataspace. Satisfied by
// tracker.Builder.
type AdapterSource interface {
	Adapter(ctx context.Context, dataspace string, platform tracker.Platform) (tracker.Adapter, error)
}

// TrackerSyncService mirrors requests to their configured issue trackers.
// Every operation is best-effort from the caller's point of view: errors
// are returned for logging but never roll back the request mutation that
// triggered them.
type TrackerSyncService struct {
	adapters    AdapterSource
	links       repository.ExternalLinkRepository
	users       repository.UserRepository
	logger      *zap.Logger
	metrics     *observability.Metrics
	titlePrefix string
	siteURL     string
}

// NewTrackerSyncService builds the service. metrics may be nil.
func NewTrackerSyncService(adapters AdapterSource, links repository.ExternalLinkRepository, users repository.UserRepository, logger *zap.Logger, metrics *observability.Metrics, titlePrefix, siteURL string) *TrackerSyncService {
	return &TrackerSyncService{
		adapters:    adapters,
		links:       links,
		users:       users,
		logger:      logger,
		metrics:     metrics,
		titlePrefix: titlePrefix,
		siteURL:     siteURL,
	}
}

// SyncRequest creates or updates the remote issue mirroring the request.
// Returns nil when the template has no classifiable tracker URL.
func (s *TrackerSyncService) SyncRequest(ctx context.Context, request *domain.Request, template *domain.RequestTemplate) error {
	platform, ok := tracker.Classify(template.IssueTrackerID)
	if !ok {
		return nil
	}
	adapter, err := s.adapters.Adapter(ctx, request.Dataspace, platform)
	if err != nil {
		return err
	}

	if err := s.loadLink(ctx, request); err != nil {
		return err
	}
	hadRef := request.ExternalLink != nil && request.ExternalLink.TrackerRef != nil

	title, body, err := s.renderContent(ctx, request, template)
	if err != nil {
		return err
	}
	link, err := adapter.Sync(ctx, tracker.SyncInput{
		Dataspace:  request.Dataspace,
		RequestID:  request.ID,
		TrackerURL: template.IssueTrackerID,
		Link:       request.ExternalLink,
		Title:      title,
		Body:       body,
		Closed:     request.IsClosed(),
	})
	if err != nil {
		s.metrics.RecordSyncFailure(string(platform))
		return err
	}

	if request.ExternalLink == nil {
		if err := s.links.Create(ctx, link); err != nil {
			return err
		}
	} else if !hadRef && link.TrackerRef != nil {
		if err := s.links.UpdateTrackerRef(ctx, link.ID, *link.TrackerRef); err != nil {
			s.logger.Warn("failed to cache tracker ref",
				zap.String("request_id", request.ID),
				zap.Error(err))
		}
	}
	request.ExternalLink = link
	return nil
}

// PostComment appends text to the request's remote issue. Requests without
// a link are a no-op: no network call is made.
func (s *TrackerSyncService) PostComment(ctx context.Context, request *domain.Request, text string) error {
	if err := s.loadLink(ctx, request); err != nil {
		return err
	}
	if request.ExternalLink == nil {
		s.logger.Debug("no external link; skipping remote comment",
			zap.String("request_id", request.ID))
		return nil
	}
	link := request.ExternalLink

	platform, ok := tracker.LookupPlatform(link.Platform)
	if !ok {
		return fmt.Errorf("external link has unknown platform %q", link.Platform)
	}
	adapter, err := s.adapters.Adapter(ctx, request.Dataspace, platform)
	if err != nil {
		return err
	}

	hadRef := link.TrackerRef != nil
	if err := adapter.PostComment(ctx, link, text); err != nil {
		s.metrics.RecordSyncFailure(string(platform))
		return err
	}
	if !hadRef && link.TrackerRef != nil {
		if err := s.links.UpdateTrackerRef(ctx, link.ID, *link.TrackerRef); err != nil {
			s.logger.Warn("failed to cache tracker ref",
				zap.String("request_id", request.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *TrackerSyncService) loadLink(ctx context.Context, request *domain.Request) error {
	if request.ExternalLink != nil {
		return nil
	}
	link, err := s.links.GetByRequest(ctx, request.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	request.ExternalLink = link
	return nil
}

func (s *TrackerSyncService) renderContent(ctx context.Context, request *domain.Request, template *domain.RequestTemplate) (title, body string, err error) {
	requester := request.RequesterID
	if user, err := s.users.GetByID(ctx, request.RequesterID); err == nil {
		requester = user.Name
	}
	assignee := ""
	if request.AssigneeID != nil {
		assignee = *request.AssigneeID
		if user, err := s.users.GetByID(ctx, *request.AssigneeID); err == nil {
			assignee = user.Name
		}
	}

	title = tracker.RenderTitle(s.titlePrefix, request.Title)
	body = tracker.RenderBody(tracker.RenderInput{
		Request:   request,
		Template:  template,
		Requester: requester,
		Assignee:  assignee,
		Permalink: s.siteURL + "/requests/" + request.ID,
	})
	return title, body, nil
}
