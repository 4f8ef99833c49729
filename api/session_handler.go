package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/change"
	"github.com/xraph/tierguard/middleware"
	"github.com/xraph/tierguard/validate"
)

func (a *API) registerSessionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("sessions"))

	if err := g.POST("/validate", a.validate,
		forge.WithSummary("Validate"),
		forge.WithDescription("Validates the permission matrix with optional pending changes overlaid."),
		forge.WithOperationID("validate"),
		forge.WithRequestSchema(ValidateRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Validation report", &validate.Report{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/sessions", a.openSession,
		forge.WithSummary("Open session"),
		forge.WithDescription("Starts a change session."),
		forge.WithOperationID("openSession"),
		forge.WithCreatedResponse(&SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/sessions/:sessionId/changes", a.queueChange,
		forge.WithSummary("Queue change"),
		forge.WithDescription("Queues a change on the session. A change back to the current value drops the pending one."),
		forge.WithOperationID("queueChange"),
		forge.WithRequestSchema(QueueChangeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Queue result", &QueueChangeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/sessions/:sessionId/changes", a.listChanges,
		forge.WithSummary("List pending changes"),
		forge.WithDescription("Returns the pending changes of a session in queue order."),
		forge.WithOperationID("listChanges"),
		forge.WithRequestSchema(SessionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Session", &SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/sessions/:sessionId/changes", a.discardChanges,
		forge.WithSummary("Discard changes"),
		forge.WithDescription("Drops every pending change of a session."),
		forge.WithOperationID("discardChanges"),
		forge.WithRequestSchema(SessionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Discarded", &DiscardResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/sessions/:sessionId", a.closeSession,
		forge.WithSummary("Close session"),
		forge.WithDescription("Drops a session together with its pending changes."),
		forge.WithOperationID("closeSession"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/sessions/:sessionId/commit", a.commit,
		forge.WithSummary("Commit session"),
		forge.WithDescription("Validates and applies the pending changes in order. Refused commits answer 422 with the report."),
		forge.WithOperationID("commitSession"),
		forge.WithRequestSchema(CommitRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Commit report", &tierguard.CommitReport{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/sessions/:sessionId/import", a.importDocument,
		forge.WithSummary("Import into session"),
		forge.WithDescription("Decodes an export document and queues every changed entry on the session."),
		forge.WithOperationID("importDocument"),
		forge.WithRequestSchema(ImportRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Import result", &ImportResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) validate(ctx forge.Context, req *ValidateRequest) (*validate.Report, error) {
	c, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionRead)
	if err != nil {
		return nil, err
	}

	pending := make([]change.Change, 0, len(req.Changes))
	for _, qc := range req.Changes {
		ref, err := parseRef(qc.EntityType, qc.EntityID)
		if err != nil {
			return nil, err
		}
		tier, err := parseTier(qc.Tier)
		if err != nil {
			return nil, err
		}
		perm, err := parseType(qc.PermissionType)
		if err != nil {
			return nil, err
		}
		pending = append(pending, change.Change{
			EntityType:    ref.Type,
			EntityID:      ref.ID,
			Tier:          tier,
			NewPermission: perm,
			Reason:        qc.Reason,
		})
	}

	report, err := a.eng.Validate(c, pending)
	if err != nil {
		return nil, mapError(err)
	}
	return report, ctx.JSON(http.StatusOK, report)
}

func (a *API) openSession(ctx forge.Context, _ *struct{}) (*SessionResponse, error) {
	if _, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionWrite); err != nil {
		return nil, err
	}
	s := a.eng.OpenSession()
	resp := &SessionResponse{SessionID: s.ID, Changes: []change.Change{}}
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) session(ctx forge.Context) (*tierguard.Session, error) {
	s, err := a.eng.Session(ctx.Param("sessionId"))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (a *API) queueChange(ctx forge.Context, req *QueueChangeRequest) (*QueueChangeResponse, error) {
	ref, err := parseRef(req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	perm, err := parseType(req.PermissionType)
	if err != nil {
		return nil, err
	}
	c, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}

	queued, err := s.QueueChange(c, ref, tier, perm, req.Reason)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &QueueChangeResponse{Queued: queued, Pending: s.Len()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listChanges(ctx forge.Context, _ *SessionRequest) (*SessionResponse, error) {
	if _, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionRead); err != nil {
		return nil, err
	}
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	resp := &SessionResponse{SessionID: s.ID, Changes: s.Changes()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) discardChanges(ctx forge.Context, _ *SessionRequest) (*DiscardResponse, error) {
	if _, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionWrite); err != nil {
		return nil, err
	}
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.DiscardAll()
	if err != nil {
		return nil, mapError(err)
	}
	resp := &DiscardResponse{Discarded: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) closeSession(ctx forge.Context, _ *SessionRequest) (*struct{}, error) {
	if _, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionWrite); err != nil {
		return nil, err
	}
	sessionID := ctx.Param("sessionId")
	if !a.eng.CloseSession(sessionID) {
		return nil, mapError(fmt.Errorf("%w: %s", tierguard.ErrSessionNotFound, sessionID))
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) commit(ctx forge.Context, req *CommitRequest) (*tierguard.CommitReport, error) {
	c, err := a.actorContext(ctx, middleware.ObjectSessions, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}
	if req.SkipValidation {
		if err := a.checkBypass(ctx); err != nil {
			return nil, err
		}
	}
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.CommitAll(c, tierguard.CommitOptions{
		AcknowledgeWarnings: req.AcknowledgeWarnings,
		SkipValidation:      req.SkipValidation,
	})
	var verr *tierguard.ValidationError
	switch {
	case err == nil:
		return report, ctx.JSON(http.StatusOK, report)
	case errors.As(err, &verr) && report != nil:
		return report, ctx.JSON(http.StatusUnprocessableEntity, report)
	default:
		return nil, mapError(err)
	}
}

func (a *API) importDocument(ctx forge.Context, req *ImportRequest) (*ImportResponse, error) {
	if req.Data == "" {
		return nil, forge.BadRequest("data is required")
	}
	c, err := a.actorContext(ctx, middleware.ObjectTransfer, middleware.ActionWrite)
	if err != nil {
		return nil, err
	}
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}

	preview, queued, err := a.eng.QueueImport(c, s, []byte(req.Data))
	if err != nil {
		return nil, mapError(err)
	}
	resp := &ImportResponse{Preview: preview, Queued: queued}
	return resp, ctx.JSON(http.StatusOK, resp)
}
