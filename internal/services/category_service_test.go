package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestCategoryService_ListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	mock.ExpectQuery("SELECT id, user_id, name, type, COALESCE\\(color, ''\\), parent_id FROM categories").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "type", "color", "parent_id"}).
			AddRow("cat1", 1, "Salary", "inflow", "#00ff00", nil).
			AddRow("cat2", 1, "Groceries", "outflow", "#ff0000", nil))

	r := authedRequest("GET", "/categories", nil)
	w := httptest.NewRecorder()

	service.ListCategories(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var categories []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &categories)
	assert.Len(t, categories, 2)
	assert.Equal(t, "Salary", categories[0]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryService_CreateCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	t.Run("successful creation", func(t *testing.T) {
		req := NewCategoryRequest{
			Name:  "Groceries",
			Type:  "outflow",
			Color: "#ff0000",
		}

		mock.ExpectExec("INSERT INTO categories").
			WithArgs(sqlmock.AnyArg(), 1, "Groceries", "outflow", "#ff0000", nil).
			WillReturnResult(sqlmock.NewResult(1, 1))

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/categories", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateCategory(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		req := NewCategoryRequest{
			Name: "Weird",
			Type: "sideways",
		}

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/categories", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateCategory(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown parent rejected", func(t *testing.T) {
		parent := "6f1e0c4a-9b1d-4f0e-8a3c-2d5b7e9c1a40"
		req := NewCategoryRequest{
			Name:     "Sub",
			Type:     "outflow",
			ParentID: &parent,
		}

		mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM categories WHERE id = \\$1 AND user_id = \\$2\\)").
			WithArgs(parent, 1).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/categories", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateCategory(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-uuid parent from an import accepted", func(t *testing.T) {
		parent := "cat1"
		req := NewCategoryRequest{
			Name:     "Snacks",
			Type:     "outflow",
			ParentID: &parent,
		}

		mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM categories WHERE id = \\$1 AND user_id = \\$2\\)").
			WithArgs(parent, 1).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec("INSERT INTO categories").
			WithArgs(sqlmock.AnyArg(), 1, "Snacks", "outflow", "", "cat1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/categories", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateCategory(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	router := chi.NewRouter()
	router.Delete("/categories/{categoryId}", service.DeleteCategory)

	t.Run("category not found", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM categories WHERE id = \\$1 AND user_id = \\$2").
			WithArgs("ghost", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := authedRequest("DELETE", "/categories/ghost", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryService_ImportCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)

	t.Run("valid rows imported, duplicates skipped", func(t *testing.T) {
		csvData := "id,user_id,name,type,color,parent_id\n" +
			"cat1,1,Salary,inflow,#00ff00,\n" +
			"cat2,1,Groceries,outflow,#ff0000,\n"

		mock.ExpectExec("INSERT INTO categories").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO categories").
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := authedRequest("POST", "/categories/import", strings.NewReader(csvData))
		w := httptest.NewRecorder()

		service.ImportCategories(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var result map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &result)
		assert.Equal(t, float64(1), result["success"])
		assert.Equal(t, float64(1), result["skipped"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong header rejected", func(t *testing.T) {
		r := authedRequest("POST", "/categories/import", strings.NewReader("id,name\ncat1,Salary\n"))
		w := httptest.NewRecorder()

		service.ImportCategories(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid type reported", func(t *testing.T) {
		csvData := "id,user_id,name,type,color,parent_id\n" +
			"cat3,1,Weird,sideways,,\n"

		r := authedRequest("POST", "/categories/import", strings.NewReader(csvData))
		w := httptest.NewRecorder()

		service.ImportCategories(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var result map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &result)
		assert.Equal(t, float64(0), result["success"])
		assert.Len(t, result["errors"], 1)
	})
}
