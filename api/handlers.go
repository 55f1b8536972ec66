package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
	"github.com/Kini99/MisogiAI-natural-language-task-manager/extractor"
)

const (
	createEventName = "taskflow.api.tasks.create"
	listEventName   = "taskflow.api.tasks.list"
	updateEventName = "taskflow.api.tasks.update"
	deleteEventName = "taskflow.api.tasks.delete"
)

var errNoFields = errors.New("no fields to update")

// Register wires up all API routes on the provided Echo instance. A nil Metrics
// leaves /metrics unregistered.
func Register(e *echo.Echo, store Storage, x Extractor, m *Metrics, logger *log.Logger) {
	e.JSONSerializer = sonicSerializer{}
	m.install(e)

	e.POST("/api/tasks", createTask(store, x, m, logger))
	e.GET("/api/tasks", listTasks(store, logger))
	e.PUT("/api/tasks/:id", updateTask(store, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

func startMetrics(c echo.Context, logger *log.Logger, route, event string) *requestMetrics {
	metrics, spanCtx := newRequestMetrics(c.Request().Context(), logger, c.Request().Method, route, event)
	c.SetRequest(c.Request().WithContext(spanCtx))
	return metrics
}

func createTask(store Storage, x Extractor, m *Metrics, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := startMetrics(c, logger, "/api/tasks", createEventName)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		ctx := c.Request().Context()

		var body createTaskRequest
		if decErr := decodeBody(c, &body, true); decErr != nil {
			metrics.Fail(stageDecode, decErr)
			return fail(c, http.StatusBadRequest, "invalid body")
		}
		text := strings.TrimSpace(body.Text)
		if text == "" {
			metrics.Fail(stageDecode, nil)
			return fail(c, http.StatusBadRequest, "text is required")
		}

		extractStart := time.Now()
		fields, extractErr := x.Extract(ctx, text)
		metrics.Observe(stageExtract, time.Since(extractStart))
		if extractErr != nil {
			kind, ok := extractor.KindOf(extractErr)
			if !ok {
				kind = extractor.KindInvocation
			}
			m.extraction(string(kind))
			metrics.Fail(stageExtract, extractErr)
			status, msg := extractionStatus(extractErr)
			return fail(c, status, msg)
		}
		m.extraction("ok")

		storeStart := time.Now()
		task, storeErr := store.InsertTask(ctx, fields)
		metrics.Observe(stageStore, time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail(stageStore, storeErr)
			status, msg := storeStatus(storeErr)
			if status >= http.StatusInternalServerError {
				c.Logger().Error(storeErr)
			}
			return fail(c, status, msg)
		}
		m.taskCreated()
		metrics.SetTaskID(task.ID)

		encodeStart := time.Now()
		err = c.JSON(http.StatusCreated, task)
		metrics.Observe(stageEncode, time.Since(encodeStart))
		if err != nil {
			metrics.Fail(stageEncode, nil)
		}
		return err
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := startMetrics(c, logger, "/api/tasks", listEventName)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		storeStart := time.Now()
		tasks, storeErr := store.ListTasks(c.Request().Context())
		metrics.Observe(stageStore, time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail(stageStore, storeErr)
			c.Logger().Error(storeErr)
			return fail(c, http.StatusInternalServerError, "storage failure")
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.Observe(stageEncode, time.Since(encodeStart))
		if err != nil {
			metrics.Fail(stageEncode, nil)
		}
		return err
	}
}

func updateTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := startMetrics(c, logger, "/api/tasks/:id", updateEventName)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		id := c.Param("id")
		metrics.SetTaskID(id)

		var body updateTaskRequest
		if decErr := decodeBody(c, &body, false); decErr != nil {
			metrics.Fail(stageDecode, decErr)
			return fail(c, http.StatusBadRequest, "invalid body")
		}
		upd, convErr := body.toUpdate()
		if convErr != nil {
			metrics.Fail(stageDecode, convErr)
			return fail(c, http.StatusBadRequest, convErr.Error())
		}
		if upd.Empty() {
			metrics.Fail(stageDecode, errNoFields)
			return fail(c, http.StatusBadRequest, errNoFields.Error())
		}

		storeStart := time.Now()
		task, storeErr := store.UpdateTask(c.Request().Context(), id, upd)
		metrics.Observe(stageStore, time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail(stageStore, storeErr)
			status, msg := storeStatus(storeErr)
			if status >= http.StatusInternalServerError {
				c.Logger().Error(storeErr)
			}
			return fail(c, status, msg)
		}

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, task)
		metrics.Observe(stageEncode, time.Since(encodeStart))
		if err != nil {
			metrics.Fail(stageEncode, nil)
		}
		return err
	}
}

func deleteTask(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := startMetrics(c, logger, "/api/tasks/:id", deleteEventName)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		id := c.Param("id")
		metrics.SetTaskID(id)

		storeStart := time.Now()
		storeErr := store.DeleteTask(c.Request().Context(), id)
		metrics.Observe(stageStore, time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail(stageStore, storeErr)
			status, msg := storeStatus(storeErr)
			if status >= http.StatusInternalServerError {
				c.Logger().Error(storeErr)
			}
			return fail(c, status, msg)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
