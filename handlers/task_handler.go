// handlers/task_handler.go
package handlers

import (
	"log"
	"net/http"

	"itin/models"
	"itin/tasks"
	"itin/utils"
)

// ListTasks returns the names of the registered background tasks.
func ListTasks(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Staff access required")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks.TaskNames()})
}

// EnqueueTask schedules a background task run. Staff only.
func EnqueueTask(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Staff access required")
		return
	}

	var payload struct {
		Task string `json:"task"`
	}
	if err := utils.ParseJSON(r, &payload); err != nil || payload.Task == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Task name is required")
		return
	}

	run, err := tasks.EnqueueTask(db, payload.Task, &actor.User.ID)
	if err != nil {
		log.Printf("EnqueueTask: %v", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown task")
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, run)
}

// ListTaskRuns lists recent task runs, newest first.
func ListTaskRuns(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Staff access required")
		return
	}

	query := db.Order("started_at DESC").Limit(100)
	if taskName := r.URL.Query().Get("task"); taskName != "" {
		query = query.Where("task_name = ?", taskName)
	}

	var runs []models.TaskRun
	if err := query.Find(&runs).Error; err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	if runs == nil {
		runs = []models.TaskRun{}
	}
	utils.RespondWithJSON(w, http.StatusOK, runs)
}

// GetTaskRun returns a single run including its captured output.
func GetTaskRun(w http.ResponseWriter, r *http.Request) {
	actor := currentActor(r)
	if !actor.IsStaff() {
		utils.RespondWithError(w, http.StatusForbidden, "Staff access required")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid task run id")
		return
	}

	var run models.TaskRun
	if err := db.First(&run, id).Error; err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Task run not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, run)
}
