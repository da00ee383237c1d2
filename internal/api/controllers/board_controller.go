package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/taskboard/internal/services"
	board2 "github.com/curaious/taskboard/internal/services/board"
)

func RegisterBoardRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/projects/{id}/boards", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, projectID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		boards, err := svc.Guard.ListBoards(stdCtx, caller, projectID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list boards", err)
			return
		}

		writeOK(ctx, stdCtx, "Boards retrieved successfully", boards)
	})

	r.POST("/api/projects/{id}/boards", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, projectID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body board2.CreateBoardRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Guard.CreateBoard(stdCtx, caller, projectID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create board", err)
			return
		}

		writeOK(ctx, stdCtx, "Board created successfully", created)
	})

	r.GET("/api/boards/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, boardID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		b, err := svc.Guard.GetBoard(stdCtx, caller, boardID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get board", err)
			return
		}

		writeOK(ctx, stdCtx, "Board retrieved successfully", b)
	})

	r.PUT("/api/boards/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, boardID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body board2.UpdateBoardRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		updated, err := svc.Guard.UpdateBoard(stdCtx, caller, boardID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update board", err)
			return
		}

		writeOK(ctx, stdCtx, "Board updated successfully", updated)
	})

	r.DELETE("/api/boards/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, boardID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		if err := svc.Guard.DeleteBoard(stdCtx, caller, boardID); err != nil {
			writeError(ctx, stdCtx, "Failed to delete board", err)
			return
		}

		writeOK(ctx, stdCtx, "Board deleted successfully", nil)
	})
}
