package controllers

import (
	"errors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/taskboard/internal/perrors"
	"github.com/curaious/taskboard/internal/services"
	invitation2 "github.com/curaious/taskboard/internal/services/invitation"
	project2 "github.com/curaious/taskboard/internal/services/project"
)

func RegisterProjectRoutes(r *router.Router, svc *services.Services) {
	// Create project, the caller becomes its owner
	r.POST("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, err := callerID(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		var body project2.CreateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Guard.CreateProject(stdCtx, caller, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project created successfully", created)
	})

	// List projects the caller belongs to
	r.GET("/api/projects", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, err := callerID(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}

		projects, err := svc.Guard.ListProjects(stdCtx, caller)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list projects", err)
			return
		}

		writeOK(ctx, stdCtx, "Projects retrieved successfully", projects)
	})

	r.GET("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		p, err := svc.Guard.GetProject(stdCtx, caller, id)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project retrieved successfully", p)
	})

	// Update project
	r.PUT("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body project2.UpdateProjectRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		updated, err := svc.Guard.UpdateProject(stdCtx, caller, id, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project updated successfully", updated)
	})

	// Archive project
	r.DELETE("/api/projects/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		if err := svc.Guard.ArchiveProject(stdCtx, caller, id); err != nil {
			writeError(ctx, stdCtx, "Failed to archive project", err)
			return
		}

		writeOK(ctx, stdCtx, "Project archived successfully", nil)
	})

	// Members

	r.GET("/api/projects/{id}/members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		members, err := svc.Guard.ListMembers(stdCtx, caller, id)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list members", err)
			return
		}

		writeOK(ctx, stdCtx, "Members retrieved successfully", members)
	})

	r.POST("/api/projects/{id}/members", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body project2.AddMemberRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		p, err := svc.Guard.AddMember(stdCtx, caller, id, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to add member", err)
			return
		}

		writeOK(ctx, stdCtx, "Member added successfully", p)
	})

	r.PUT("/api/projects/{id}/members/{userId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}
		target, err := pathParamUUID(ctx, "userId")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid user ID format", perrors.NewErrInvalidRequest("Invalid user ID format", err))
			return
		}

		var body project2.UpdateMemberRoleRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		p, err := svc.Guard.UpdateMemberRole(stdCtx, caller, id, target, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update member role", err)
			return
		}

		writeOK(ctx, stdCtx, "Member role updated successfully", p)
	})

	r.DELETE("/api/projects/{id}/members/{userId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}
		target, err := pathParamUUID(ctx, "userId")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid user ID format", perrors.NewErrInvalidRequest("Invalid user ID format", err))
			return
		}

		p, err := svc.Guard.RemoveMember(stdCtx, caller, id, target)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to remove member", err)
			return
		}

		writeOK(ctx, stdCtx, "Member removed successfully", p)
	})

	// Invitations

	r.POST("/api/projects/{id}/invitations", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body invitation2.CreateInvitationRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		inv, err := svc.Guard.CreateInvitation(stdCtx, caller, id, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create invitation", err)
			return
		}

		writeOK(ctx, stdCtx, "Invitation created successfully", inv)
	})

	r.DELETE("/api/projects/{id}/invitations/{token}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}
		token, err := pathParam(ctx, "token")
		if err != nil {
			writeError(ctx, stdCtx, "Token is required", perrors.NewErrInvalidRequest("Token is required", err))
			return
		}

		if err := svc.Guard.RevokeInvitation(stdCtx, caller, id, token); err != nil {
			writeError(ctx, stdCtx, "Failed to revoke invitation", err)
			return
		}

		writeOK(ctx, stdCtx, "Invitation revoked successfully", nil)
	})

	r.POST("/api/invitations/{token}/accept", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, err := callerID(ctx)
		if err != nil {
			writeError(ctx, stdCtx, "Unauthorized", err)
			return
		}
		token, err := pathParam(ctx, "token")
		if err != nil || token == "" {
			writeError(ctx, stdCtx, "Token is required", perrors.NewErrInvalidRequest("Token is required", errors.New("token is required")))
			return
		}

		p, err := svc.Guard.AcceptInvitation(stdCtx, caller, token)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to accept invitation", err)
			return
		}

		writeOK(ctx, stdCtx, "Invitation accepted successfully", p)
	})

	// Activity log, newest first
	r.GET("/api/projects/{id}/activity", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, id, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		entries, err := svc.Guard.ListActivity(stdCtx, caller, id, queryInt(ctx, "limit", 0))
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list activity", err)
			return
		}

		writeOK(ctx, stdCtx, "Activity retrieved successfully", entries)
	})
}
