package api_test

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// centralToken logs in as the operator named by TEST_CENTRAL_EMAIL and
// TEST_CENTRAL_PASSWORD. The account must exist and be verified.
func centralToken(t *testing.T) string {
	t.Helper()
	email := os.Getenv("TEST_CENTRAL_EMAIL")
	password := os.Getenv("TEST_CENTRAL_PASSWORD")
	if email == "" || password == "" {
		t.Skip("TEST_CENTRAL_EMAIL / TEST_CENTRAL_PASSWORD not set")
	}

	resp := makeRequest(t, "POST", "/central/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.True(t, resp.IsSuccess(), "central login failed: %s", resp.Message)
	return resp.GetString("access_token")
}

func TestClinicFlow(t *testing.T) {
	requireServer(t)
	token := centralToken(t)

	// Provision an organization.
	orgResp := makeRequest(t, "POST", "/central/organizations", map[string]string{
		"name": uniqueName("Flow Clinic"),
	}, token)
	require.True(t, orgResp.IsSuccess(), orgResp.Message)
	orgID := orgResp.GetString("id")
	require.NotEmpty(t, orgID)

	// Duplicate names are rejected.
	dupResp := makeRequest(t, "POST", "/central/organizations", map[string]string{
		"name": orgResp.GetString("name"),
	}, token)
	assert.Equal(t, http.StatusConflict, dupResp.Code)

	// Bootstrap an admin and log in with it.
	adminEmail := uniqueEmail("admin")
	adminResp := makeRequest(t, "POST", "/central/organizations/"+orgID+"/admins", map[string]interface{}{
		"email":      adminEmail,
		"password":   "str0ngpass",
		"first_name": "Ada",
		"last_name":  "Adminson",
	}, token)
	require.True(t, adminResp.IsSuccess(), adminResp.Message)

	loginResp := makeRequest(t, "POST", "/auth/login", map[string]interface{}{
		"email":           adminEmail,
		"password":        "str0ngpass",
		"organization_id": orgID,
	}, "")
	require.True(t, loginResp.IsSuccess(), loginResp.Message)
	adminToken := loginResp.GetString("access_token")

	// Create a doctor and a patient.
	doctorEmail := uniqueEmail("doctor")
	doctorResp := makeRequest(t, "POST", "/users", map[string]interface{}{
		"email":      doctorEmail,
		"password":   "str0ngpass",
		"first_name": "Dana",
		"last_name":  "Reyes",
		"doctor_profile": map[string]string{
			"specialization": "cardiology",
			"license_number": uniqueName("LIC"),
		},
	}, adminToken)
	require.True(t, doctorResp.IsSuccess(), doctorResp.Message)
	doctorID := doctorResp.GetString("id")

	patientEmail := uniqueEmail("patient")
	patientResp := makeRequest(t, "POST", "/users", map[string]interface{}{
		"email":      patientEmail,
		"password":   "str0ngpass",
		"first_name": "Pat",
		"last_name":  "Lee",
		"patient_profile": map[string]string{
			"date_of_birth": "1990-05-01T00:00:00Z",
			"phone":         "555-0101",
			"address":       "12 Elm St",
		},
	}, adminToken)
	require.True(t, patientResp.IsSuccess(), patientResp.Message)

	// Two profiles on one user is rejected.
	badResp := makeRequest(t, "POST", "/users", map[string]interface{}{
		"email":      uniqueEmail("both"),
		"password":   "str0ngpass",
		"first_name": "Two",
		"last_name":  "Hats",
		"doctor_profile": map[string]string{
			"specialization": "gp",
			"license_number": uniqueName("LIC"),
		},
		"patient_profile": map[string]string{
			"date_of_birth": "1990-05-01T00:00:00Z",
			"phone":         "555-0103",
			"address":       "9 Oak Ave",
		},
	}, adminToken)
	assert.Equal(t, http.StatusBadRequest, badResp.Code)

	// Book and walk the appointment through its lifecycle.
	patientLogin := makeRequest(t, "POST", "/auth/login", map[string]interface{}{
		"email":           patientEmail,
		"password":        "str0ngpass",
		"organization_id": orgID,
	}, "")
	require.True(t, patientLogin.IsSuccess())
	patientToken := patientLogin.GetString("access_token")

	doctorLogin := makeRequest(t, "POST", "/auth/login", map[string]interface{}{
		"email":           doctorEmail,
		"password":        "str0ngpass",
		"organization_id": orgID,
	}, "")
	require.True(t, doctorLogin.IsSuccess())
	doctorToken := doctorLogin.GetString("access_token")

	apptResp := makeRequest(t, "POST", "/appointments", map[string]interface{}{
		"doctor_id":            doctorID,
		"appointment_datetime": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"notes":                "first visit",
	}, patientToken)
	require.True(t, apptResp.IsSuccess(), apptResp.Message)
	apptID := apptResp.GetString("id")
	assert.Equal(t, "PENDING", apptResp.GetString("status"))

	// The patient cannot approve.
	forbidden := makeRequest(t, "POST", "/appointments/"+apptID+"/approve", nil, patientToken)
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	approved := makeRequest(t, "POST", "/appointments/"+apptID+"/approve", nil, doctorToken)
	require.True(t, approved.IsSuccess(), approved.Message)
	assert.Equal(t, "APPROVED", approved.GetString("status"))

	// A second approval conflicts.
	again := makeRequest(t, "POST", "/appointments/"+apptID+"/approve", nil, doctorToken)
	assert.Equal(t, http.StatusConflict, again.Code)

	completed := makeRequest(t, "POST", "/appointments/"+apptID+"/complete", nil, doctorToken)
	require.True(t, completed.IsSuccess(), completed.Message)
	assert.Equal(t, "COMPLETED", completed.GetString("status"))

	// Completed is terminal.
	cancelled := makeRequest(t, "POST", "/appointments/"+apptID+"/cancel", nil, patientToken)
	assert.Equal(t, http.StatusConflict, cancelled.Code)
}
