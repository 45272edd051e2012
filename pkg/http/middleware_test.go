package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type fakeObserver struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (f *fakeObserver) ObserveHTTP(route string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, route)
	f.codes = append(f.codes, code)
}

func TestCommonMiddleware(t *testing.T) {
	h := CommonMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestInstrumentUsesRouteName(t *testing.T) {
	obs := &fakeObserver{}

	r := mux.NewRouter()
	r.Use(Instrument(obs, nil))
	r.HandleFunc("/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Name("thing")
	r.HandleFunc("/ok", func(http.ResponseWriter, *http.Request) {}).Name("ok")

	for _, path := range []string{"/things/1", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	assert.Equal(t, []string{"thing", "ok"}, obs.calls)
	assert.Equal(t, []int{http.StatusNotFound, http.StatusOK}, obs.codes)
}
