package hrclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchEmployees(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    int
		wantErr error
	}{
		{
			name:   "вариант полей empName/empNumber",
			status: http.StatusOK,
			body:   `{"data":[{"empName":"Иванов","empNumber":"EMP-1"},{"empName":"Петров","empNumber":"EMP-2"}]}`,
			want:   2,
		},
		{
			name:   "вариант полей name/employee_id",
			status: http.StatusOK,
			body:   `{"data":[{"name":"Сидоров","employee_id":"EMP-3"}]}`,
			want:   1,
		},
		{
			name:   "пустой ростер — не ошибка",
			status: http.StatusOK,
			body:   `{"data":[]}`,
			want:   0,
		},
		{
			name:    "отсутствует поле data",
			status:  http.StatusOK,
			body:    `{"employees":[]}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "data не массив",
			status:  http.StatusOK,
			body:    `{"data":{"empName":"Иванов"}}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "data null",
			status:  http.StatusOK,
			body:    `{"data":null}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "невалидный JSON",
			status:  http.StatusOK,
			body:    `{"data":[`,
			wantErr: ErrMalformed,
		},
		{
			name:    "5xx от HR API",
			status:  http.StatusInternalServerError,
			body:    `internal error`,
			wantErr: ErrUnavailable,
		},
		{
			name:    "404 от HR API",
			status:  http.StatusNotFound,
			body:    `not found`,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := New(srv.URL, 5*time.Second, testLogger())
			employees, err := client.FetchEmployees(context.Background())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FetchEmployees() ошибка = %v, хотели %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchEmployees() ошибка: %v", err)
			}
			if len(employees) != tt.want {
				t.Errorf("FetchEmployees() вернул %d записей, хотели %d", len(employees), tt.want)
			}
		})
	}
}

func TestFetchEmployeesFieldVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"empName":"Иванов","empID":"EMP-10"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, testLogger())
	employees, err := client.FetchEmployees(context.Background())
	if err != nil {
		t.Fatalf("FetchEmployees() ошибка: %v", err)
	}
	if got := employees[0].DisplayName(); got != "Иванов" {
		t.Errorf("DisplayName() = %q, хотели %q", got, "Иванов")
	}
	if got := employees[0].EmployeeNumber(); got != "EMP-10" {
		t.Errorf("EmployeeNumber() = %q, хотели %q", got, "EMP-10")
	}
}

func TestFetchEmployeesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // закрываем сразу: соединение будет отклонено

	client := New(srv.URL, time.Second, testLogger())
	_, err := client.FetchEmployees(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("FetchEmployees() ошибка = %v, хотели ErrUnavailable", err)
	}
}
