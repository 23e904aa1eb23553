package database

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantStatus int
	}{
		{"not a pq error", fmt.Errorf("boom"), true, 0},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "salary_components_name_key"}, false, http.StatusConflict},
		{"referenced component", &pq.Error{Code: "23503", Constraint: "salary_assignment_lines_component_id_fkey"}, false, http.StatusConflict},
		{"missing parent", &pq.Error{Code: "23503", Constraint: "payroll_run_details_run_id_fkey"}, false, http.StatusBadRequest},
		{"check violation", &pq.Error{Code: "23514", Constraint: "salary_components_percentage_check"}, false, http.StatusBadRequest},
		{"wrapped not null", fmt.Errorf("insert: %w", &pq.Error{Code: "23502", Column: "employee_id"}), false, http.StatusBadRequest},
		{"unmapped code", &pq.Error{Code: "40001"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
		})
	}
}
