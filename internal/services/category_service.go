package services

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/finbook/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CategoryService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

type NewCategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=60"`
	Type     string  `json:"type" validate:"required,oneof=inflow outflow"`
	Color    string  `json:"color" validate:"omitempty,hexcolor"`
	// Parent ids are plain text: CSV imports may carry ids that are not
	// UUIDs, and those categories can become parents later.
	ParentID *string `json:"parentId" validate:"omitempty,max=64"`
}

var categoryCSVHeaders = []string{"id", "user_id", "name", "type", "color", "parent_id"}

// ListCategories retrieves all categories belonging to the user
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Failure 500 {object} ErrorResponse
// @Router /categories [get]
func (cs *CategoryService) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := cs.db.Query(`
		SELECT id, user_id, name, type, COALESCE(color, ''), parent_id
		FROM categories
		WHERE user_id = $1
		ORDER BY type ASC, name ASC`, userID)
	if err != nil {
		log.Printf("[CATEGORY] Failed to fetch categories: %v", err)
		SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Type, &cat.Color, &cat.ParentID); err != nil {
			log.Printf("[CATEGORY] Failed to scan category row: %v", err)
			SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
			return
		}
		categories = append(categories, cat)
	}

	SendJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a new category for the user
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body NewCategoryRequest true "Category data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [post]
func (cs *CategoryService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req NewCategoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	// Parent categories must belong to the same user.
	if req.ParentID != nil {
		var exists bool
		err := cs.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
			*req.ParentID, userID).Scan(&exists)
		if err != nil || !exists {
			SendErrorResponse(w, "Parent category not found", http.StatusBadRequest, nil)
			return
		}
	}

	categoryID := uuid.New().String()
	_, err := cs.db.Exec(`
		INSERT INTO categories (id, user_id, name, type, color, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		categoryID, userID, req.Name, req.Type, req.Color, req.ParentID)
	if err != nil {
		log.Printf("[CATEGORY] Failed to insert category: %v", err)
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      categoryID,
	})
}

// UpdateCategory edits a category's fields
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param categoryId path string true "Category ID"
// @Param category body NewCategoryRequest true "Category data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /categories/{categoryId} [put]
func (cs *CategoryService) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID := chi.URLParam(r, "categoryId")

	var req NewCategoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := cs.db.Exec(`
		UPDATE categories SET name = $1, type = $2, color = $3, parent_id = $4
		WHERE id = $5 AND user_id = $6`,
		req.Name, req.Type, req.Color, req.ParentID, categoryID, userID)
	if err != nil {
		log.Printf("[CATEGORY] Failed to update category %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to update category", http.StatusInternalServerError, nil)
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteCategory removes a category; transactions referencing it keep a null
// category
// @Summary Delete a category
// @Tags categories
// @Produce json
// @Param categoryId path string true "Category ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /categories/{categoryId} [delete]
func (cs *CategoryService) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID := chi.URLParam(r, "categoryId")

	result, err := cs.db.Exec(`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		log.Printf("[CATEGORY] Failed to delete category %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ImportCategories bulk-loads categories from a CSV export. Rows whose id
// already exists are skipped.
// @Summary Import categories from CSV
// @Tags categories
// @Accept text/csv
// @Produce json
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /categories/import [post]
func (cs *CategoryService) ImportCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 10_485_760) // 10 MB
	reader := csv.NewReader(r.Body)

	header, err := reader.Read()
	if err != nil {
		SendErrorResponse(w, "Invalid CSV file", http.StatusBadRequest, nil)
		return
	}
	if len(header) != len(categoryCSVHeaders) {
		SendErrorResponse(w, "Unexpected CSV header", http.StatusBadRequest, nil)
		return
	}
	for i, col := range categoryCSVHeaders {
		if header[i] != col {
			SendErrorResponse(w, "Unexpected CSV header", http.StatusBadRequest, nil)
			return
		}
	}

	result := models.ImportResult{Errors: []string{}}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		id, name, catType, color := record[0], record[2], record[3], record[4]
		if id == "" || name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: missing id or name", line))
			continue
		}
		if catType != "inflow" && catType != "outflow" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid type %q", line, catType))
			continue
		}

		var parentID *string
		if record[5] != "" {
			parentID = &record[5]
		}

		res, err := cs.db.Exec(`
			INSERT INTO categories (id, user_id, name, type, color, parent_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			id, userID, name, catType, color, parentID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if affected, _ := res.RowsAffected(); affected == 0 {
			result.Skipped++
		} else {
			result.Success++
		}
	}

	log.Printf("[CATEGORY] Import finished: %d imported, %d skipped, %d errors",
		result.Success, result.Skipped, len(result.Errors))
	SendJSON(w, http.StatusOK, result)
}
