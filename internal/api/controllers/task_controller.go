package controllers

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/taskboard/internal/perrors"
	"github.com/curaious/taskboard/internal/services"
	task2 "github.com/curaious/taskboard/internal/services/task"
)

func RegisterTaskRoutes(r *router.Router, svc *services.Services) {
	r.GET("/api/boards/{id}/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, boardID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		tasks, err := svc.Guard.ListTasks(stdCtx, caller, boardID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list tasks", err)
			return
		}

		writeOK(ctx, stdCtx, "Tasks retrieved successfully", tasks)
	})

	r.POST("/api/boards/{id}/tasks", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, boardID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body task2.CreateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Guard.CreateTask(stdCtx, caller, boardID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task created successfully", created)
	})

	r.GET("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		t, err := svc.Guard.GetTask(stdCtx, caller, taskID)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to get task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task retrieved successfully", t)
	})

	r.PUT("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body task2.UpdateTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		updated, err := svc.Guard.UpdateTask(stdCtx, caller, taskID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task updated successfully", updated)
	})

	r.DELETE("/api/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		if err := svc.Guard.DeleteTask(stdCtx, caller, taskID); err != nil {
			writeError(ctx, stdCtx, "Failed to delete task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task deleted successfully", nil)
	})

	// Move to another board, possibly in another project
	r.POST("/api/tasks/{id}/move", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body task2.MoveTaskRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		moved, err := svc.Guard.MoveTask(stdCtx, caller, taskID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to move task", err)
			return
		}

		writeOK(ctx, stdCtx, "Task moved successfully", moved)
	})

	r.POST("/api/tasks/{id}/completion", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body task2.CompletionRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		updated, err := svc.Guard.SetTaskCompletion(stdCtx, caller, taskID, body.Completed)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to update task completion", err)
			return
		}

		writeOK(ctx, stdCtx, "Task updated successfully", updated)
	})

	// Comments

	r.POST("/api/tasks/{id}/comments", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}

		var body task2.AddCommentRequest
		if err := parseBody(ctx, &body); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		c, err := svc.Guard.AddComment(stdCtx, caller, taskID, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to add comment", err)
			return
		}

		writeOK(ctx, stdCtx, "Comment added successfully", c)
	})

	r.DELETE("/api/tasks/{id}/comments/{commentId}", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		caller, taskID, err := callerAndParam(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid request", err)
			return
		}
		commentID, err := pathParamUUID(ctx, "commentId")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid comment ID format", perrors.NewErrInvalidRequest("Invalid comment ID format", err))
			return
		}

		if err := svc.Guard.DeleteComment(stdCtx, caller, taskID, commentID); err != nil {
			writeError(ctx, stdCtx, "Failed to delete comment", err)
			return
		}

		writeOK(ctx, stdCtx, "Comment deleted successfully", nil)
	})
}
