package echoapi

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/user"
)

func Test_studentApi(t *testing.T) {
	srv, fx := setup(t)
	token := getToken(t, srv, user.User{ID: 1, Username: "staff", Role: user.RoleStaff})

	jane := student.Student{
		ID:        1,
		FullName:  "Jane Doe",
		Grade:     "5",
		Email:     null.StringFrom("jane@shule.test"),
		Status:    "active",
		TotalFee:  decimal.NewFromInt(15000),
		FeeStatus: fee.StatusPending,
	}
	janeInGrade6 := jane
	janeInGrade6.Grade = "6"

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/add_student",
			body:     []byte(`{"full_name":"Jane Doe","grade":"5"}`),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "Add student", method: http.MethodPost, path: "/add_student", token: token,
			body:     []byte(`{"full_name":"  Jane Doe ","grade":"5","email":"JANE@shule.test","total_fee":15000}`),
			wantCode: http.StatusCreated, wantData: success(t, jane, "Student added successfully"),
		},
		{
			name: "Name required", method: http.MethodPost, path: "/add_student", token: token,
			body:     []byte(`{"grade":"5"}`),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "full_name: this field is required", map[string]string{"full_name": "this field is required"}),
		},
		{
			name: "Negative total fee", method: http.MethodPost, path: "/add_student", token: token,
			body:     []byte(`{"full_name":"John Roe","grade":"5","total_fee":-5}`),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "total_fee: must be a non-negative amount", map[string]string{"total_fee": "must be a non-negative amount"}),
		},
		{name: "Get student", path: "/student/1", token: token, wantCode: http.StatusOK, wantData: success(t, jane)},
		{name: "Unknown student", path: "/student/99", token: token, wantCode: http.StatusNotFound, wantData: failure(t, "student not found", nil)},
		{
			name: "Bad student id", path: "/student/0", token: token, wantCode: http.StatusBadRequest,
			wantData: failure(t, "student_id: must be a positive integer", map[string]string{"student_id": "must be a positive integer"}),
		},
		{
			name: "Update student", method: http.MethodPost, path: "/update_student", token: token,
			body:     []byte(`{"student_id":1,"grade":"6"}`),
			wantCode: http.StatusOK, wantData: success(t, janeInGrade6, "Student updated successfully"),
		},
		{
			name: "Nothing to update", method: http.MethodPost, path: "/update_student", token: token,
			body:     []byte(`{"student_id":1}`),
			wantCode: http.StatusBadRequest, wantData: failure(t, "no update fields provided", nil),
		},
		{
			name: "Update unknown student", method: http.MethodPost, path: "/update_student", token: token,
			body:     []byte(`{"student_id":99,"grade":"6"}`),
			wantCode: http.StatusNotFound, wantData: failure(t, "student not found", nil),
		},
		{
			name: "Query students", path: "/students?grade=6&ordering=-full_name,,grade", token: token,
			wantCode: http.StatusOK, wantData: success(t, []student.Student{janeInGrade6}),
		},
		{
			name: "Search students", path: "/search_student?query=doe", token: token,
			wantCode: http.StatusOK, wantData: success(t, []student.Student{janeInGrade6}),
		},
		{
			name: "Search requires a query", path: "/search_student?query=%20", token: token,
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "query: this field is required", map[string]string{"query": "this field is required"}),
		},
	}
	runHTTPTests(t, srv, tests)

	// last query came from the search
	assert.Equal(t, "doe", fx.students.filter.Search)
}

func TestOrdering_Bind(t *testing.T) {
	srv, fx := setup(t)
	token := getToken(t, srv, user.User{ID: 1, Username: "staff", Role: user.RoleStaff})

	req, rec := newAuthRequest(http.MethodGet, "/students?ordering=-full_name,,grade,%20enrollment_date", token)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []core.DBOrdering{
		{Field: "full_name", Ascending: false},
		{Field: "grade", Ascending: true},
		{Field: "enrollment_date", Ascending: true},
	}, fx.students.filter.Orderings)
}
